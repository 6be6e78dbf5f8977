package capgains

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
)

// tradeCmd is a specialized struct for decoding trade lines.
type tradeCmd struct {
	Command       EventType        `json:"command"`
	Date          Date             `json:"date"`
	Time          string           `json:"time"`
	Symbol        string           `json:"symbol"`
	Currency      string           `json:"currency"`
	Quantity      decimal.Decimal  `json:"quantity"`
	Proceeds      decimal.Decimal  `json:"proceeds"`
	CommFee       decimal.Decimal  `json:"commFee"`
	ReportedBasis *decimal.Decimal `json:"reportedBasis"`
}

// transferCmd is a specialized struct for decoding transfer lines.
type transferCmd struct {
	Command     EventType         `json:"command"`
	Date        Date              `json:"date"`
	Symbol      string            `json:"symbol"`
	Currency    string            `json:"currency"`
	Direction   TransferDirection `json:"direction"`
	Quantity    decimal.Decimal   `json:"quantity"`
	MarketValue decimal.Decimal   `json:"marketValue"`
}

// DecodeEvents decodes a stream of JSONL data from an io.Reader, one event
// per line identified by its "command" field, and returns the events in file
// order. It does not sort; callers apply SortEvents before matching.
func DecodeEvents(r io.Reader) ([]Event, error) {
	var events []Event
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		lineBytes := scanner.Bytes()
		if len(lineBytes) == 0 {
			continue // Skip empty lines
		}

		var identifier struct {
			Command EventType `json:"command"`
		}
		if err := json.Unmarshal(lineBytes, &identifier); err != nil {
			return nil, fmt.Errorf("could not identify command in line %q: %w", string(lineBytes), err)
		}

		switch identifier.Command {
		case EvtTrade:
			var temp tradeCmd
			if err := json.Unmarshal(lineBytes, &temp); err != nil {
				return nil, fmt.Errorf("invalid trade line %q: %w", string(lineBytes), err)
			}
			events = append(events, TradeEvent{
				Date:          temp.Date,
				Time:          temp.Time,
				Symbol:        temp.Symbol,
				Currency:      temp.Currency,
				Quantity:      temp.Quantity,
				Proceeds:      temp.Proceeds,
				CommFee:       temp.CommFee,
				ReportedBasis: temp.ReportedBasis,
			})
		case EvtTransfer:
			var temp transferCmd
			if err := json.Unmarshal(lineBytes, &temp); err != nil {
				return nil, fmt.Errorf("invalid transfer line %q: %w", string(lineBytes), err)
			}
			events = append(events, TransferEvent{
				Date:        temp.Date,
				Symbol:      temp.Symbol,
				Currency:    temp.Currency,
				Direction:   temp.Direction,
				Quantity:    temp.Quantity,
				MarketValue: temp.MarketValue,
			})
		default:
			return nil, fmt.Errorf("unknown command %q in line %q", identifier.Command, string(lineBytes))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("could not read events: %w", err)
	}
	return events, nil
}

// EncodeEvents writes events as JSONL, one event per line.
func EncodeEvents(w io.Writer, events ...Event) error {
	for _, event := range events {
		data, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("could not encode event: %w", err)
		}
		if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
			return err
		}
	}
	return nil
}
