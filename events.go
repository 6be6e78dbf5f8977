package capgains

import (
	"encoding/json"
	"sort"

	"github.com/shopspring/decimal"
)

// EventType is a typed string for identifying event commands.
type EventType string

// Event types used for identifying events in the stream.
const (
	EvtTrade    EventType = "trade"
	EvtTransfer EventType = "transfer"
)

// TransferDirection is the side of a position transfer.
type TransferDirection string

const (
	TransferIn  TransferDirection = "in"
	TransferOut TransferDirection = "out"
)

// Event is the common interface of the two event kinds the matcher consumes.
type Event interface {
	What() EventType // What returns the command type of the event.
	When() Date      // When returns the date on which the event occurred.
	// sortClass orders event kinds within one day: transfers in first,
	// ordinary trades next, transfers out last. Transfers only carry a
	// date, so the whole day is their "instant".
	sortClass() int
	// sortTime is the intraday timestamp string used to order trades within
	// a day. Empty for transfers.
	sortTime() string
	// sortRank breaks ties between same-timestamp trades: acquisitions
	// before disposals.
	sortRank() int
}

// TradeEvent is an ordinary buy or sell execution.
//
// Quantity is signed: positive for acquisitions, negative for disposals.
// Proceeds is the signed cash amount (negative buy cash, positive sell cash)
// and CommFee is signed too (typically negative; a positive value is a
// rebate). ReportedBasis optionally carries the basis figure the broker
// reports for a disposal, used by the basis-synthesis gap policy.
type TradeEvent struct {
	Date          Date
	Time          string // intraday timestamp as reported, e.g. "09:30:00"
	Symbol        string
	Currency      string
	Quantity      decimal.Decimal
	Proceeds      decimal.Decimal
	CommFee       decimal.Decimal
	ReportedBasis *decimal.Decimal
}

func (t TradeEvent) What() EventType  { return EvtTrade }
func (t TradeEvent) When() Date       { return t.Date }
func (t TradeEvent) sortClass() int   { return 1 }
func (t TradeEvent) sortTime() string { return t.Time }

func (t TradeEvent) sortRank() int {
	if t.Quantity.Sign() < 0 {
		return 1 // disposals after acquisitions
	}
	return 0
}

// MarshalJSON implements the json.Marshaler interface for TradeEvent.
func (t TradeEvent) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("command", EvtTrade)
	w.Append("date", t.Date)
	w.Optional("time", t.Time)
	w.Append("symbol", t.Symbol)
	w.Append("currency", t.Currency)
	w.Append("quantity", t.Quantity)
	w.Append("proceeds", t.Proceeds)
	w.Append("commFee", t.CommFee)
	if t.ReportedBasis != nil {
		w.Append("reportedBasis", *t.ReportedBasis)
	}
	return w.MarshalJSON()
}

// TransferEvent is an external position transfer in or out of the account.
//
// Quantity is always positive; Direction tells the side. MarketValue is the
// market value of the transferred position, used as substitute cost basis
// for transfers in.
type TransferEvent struct {
	Date        Date
	Symbol      string
	Currency    string
	Direction   TransferDirection
	Quantity    decimal.Decimal
	MarketValue decimal.Decimal
}

func (t TransferEvent) What() EventType  { return EvtTransfer }
func (t TransferEvent) When() Date       { return t.Date }
func (t TransferEvent) sortTime() string { return "" }
func (t TransferEvent) sortRank() int    { return 0 }

func (t TransferEvent) sortClass() int {
	if t.Direction == TransferOut {
		return 2 // after every trade of the day
	}
	return 0 // transfer-in first, its lots must exist before any sell
}

// MarshalJSON implements the json.Marshaler interface for TransferEvent.
func (t TransferEvent) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("command", EvtTransfer)
	w.Append("date", t.Date)
	w.Append("symbol", t.Symbol)
	w.Append("currency", t.Currency)
	w.Append("direction", t.Direction)
	w.Append("quantity", t.Quantity)
	w.Append("marketValue", t.MarketValue)
	return w.MarshalJSON()
}

var _ json.Marshaler = TradeEvent{}
var _ json.Marshaler = TransferEvent{}

// SortEvents sorts a full event stream into the order the matcher requires:
// chronological, and on the same instant transfer-in before ordinary trades
// before transfer-out, with same-timestamp acquisitions before disposals.
//
// The matcher does not detect misordering; feeding it an unsorted stream
// silently produces a different, and for tax purposes wrong, allocation.
func SortEvents(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if c := a.When().Compare(b.When()); c != 0 {
			return c < 0
		}
		if a.sortClass() != b.sortClass() {
			return a.sortClass() < b.sortClass()
		}
		if a.sortTime() != b.sortTime() {
			return a.sortTime() < b.sortTime()
		}
		return a.sortRank() < b.sortRank()
	})
}

// GapEvent records a disposal that could not be fully matched from inventory.
// It is created by a gap policy and never mutated afterwards.
type GapEvent struct {
	Symbol       string
	Date         Date
	RemainingQty decimal.Decimal // unmatched quantity at detection time
	Currency     string
	Message      string
	Fixed        bool
}

// EventRecorder collects gap events without side effects, preserving order.
// A pure accumulator: the caller inspects its contents after a full run to
// decide whether to abort or proceed.
type EventRecorder struct {
	gapEvents []GapEvent
}

// NewEventRecorder creates an empty recorder.
func NewEventRecorder() *EventRecorder { return &EventRecorder{} }

// RecordGap appends one gap event.
func (r *EventRecorder) RecordGap(event GapEvent) {
	r.gapEvents = append(r.gapEvents, event)
}

// RecordMany appends a batch of gap events in order.
func (r *EventRecorder) RecordMany(events []GapEvent) {
	for _, event := range events {
		r.RecordGap(event)
	}
}

// GapEvents returns a read-only view of the recorded events.
func (r *EventRecorder) GapEvents() []GapEvent {
	return r.gapEvents[:len(r.gapEvents):len(r.gapEvents)]
}

// Unfixed reports whether any recorded gap was left unfixed.
func (r *EventRecorder) Unfixed() bool {
	for _, e := range r.gapEvents {
		if !e.Fixed {
			return true
		}
	}
	return false
}

// Clear removes all recorded events.
func (r *EventRecorder) Clear() { r.gapEvents = r.gapEvents[:0] }
