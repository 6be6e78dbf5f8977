package fx

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"

	"github.com/etnz/capgains"
)

// DecodeCSV reads an FX table in the ECB reference convention:
//
//	date,currency,rate
//	1999-01-04,AUD,1.91
//
// where rate is currency units per EUR. The stored value is the inverse,
// EUR per unit. EUR rows are stored as the identity rate.
func DecodeCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("could not read FX table header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	for _, name := range []string{"date", "currency", "rate"} {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("FX table missing column %q", name)
		}
	}

	table := NewTable()
	one := decimal.NewFromInt(1)
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("could not read FX table line %d: %w", line, err)
		}
		if len(record) < len(header) {
			return nil, fmt.Errorf("FX table line %d: want %d fields, got %d", line, len(header), len(record))
		}
		on, err := capgains.ParseDate(strings.TrimSpace(record[col["date"]]))
		if err != nil {
			return nil, fmt.Errorf("FX table line %d: %w", line, err)
		}
		currency := strings.ToUpper(strings.TrimSpace(record[col["currency"]]))
		if currency == capgains.CurrencyEUR {
			// Store the identity explicitly for completeness.
			table.Add(currency, on, one)
			continue
		}
		unitsPerEUR, err := decimal.NewFromString(strings.TrimSpace(record[col["rate"]]))
		if err != nil {
			return nil, fmt.Errorf("FX table line %d: invalid rate for %s: %w", line, currency, err)
		}
		if unitsPerEUR.IsZero() {
			return nil, fmt.Errorf("FX table line %d: zero rate for %s on %s", line, currency, on)
		}
		table.Add(currency, on, one.Div(unitsPerEUR))
	}
	return table, nil
}

// DecodeJSON reads an EUR-based time-series document as served by the ECB
// mirrors (frankfurter.dev and friends):
//
//	{"base": "EUR", "rates": {"2024-01-02": {"USD": 1.0956, "GBP": 0.8664}}}
//
// Rates are currency units per EUR, like the CSV form.
func DecodeJSON(r io.Reader) (*Table, error) {
	var doc interface{}
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("could not decode FX JSON: %w", err)
	}

	if base, err := jsonpath.Get("$.base", doc); err == nil {
		if s, ok := base.(string); ok && s != capgains.CurrencyEUR {
			return nil, fmt.Errorf("FX JSON base currency is %q, want EUR", s)
		}
	}

	jrates, err := jsonpath.Get("$.rates", doc)
	if err != nil {
		return nil, fmt.Errorf("FX JSON has no rates object: %w", err)
	}
	byDate, ok := jrates.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("FX JSON rates is not an object")
	}

	table := NewTable()
	one := decimal.NewFromInt(1)
	for dateStr, currencies := range byDate {
		on, err := capgains.ParseDate(dateStr)
		if err != nil {
			return nil, fmt.Errorf("FX JSON: %w", err)
		}
		byCurrency, ok := currencies.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("FX JSON rates for %s is not an object", dateStr)
		}
		for currency, value := range byCurrency {
			currency = strings.ToUpper(currency)
			rate, err := jsonNumber(value)
			if err != nil {
				return nil, fmt.Errorf("FX JSON: invalid rate for %s on %s: %w", currency, dateStr, err)
			}
			if currency == capgains.CurrencyEUR {
				table.Add(currency, on, one)
				continue
			}
			if rate.IsZero() {
				return nil, fmt.Errorf("FX JSON: zero rate for %s on %s", currency, dateStr)
			}
			table.Add(currency, on, one.Div(rate))
		}
	}
	return table, nil
}

// jsonNumber converts a decoded JSON value into a decimal without a float
// detour when the document used plain numbers.
func jsonNumber(v interface{}) (decimal.Decimal, error) {
	switch n := v.(type) {
	case float64:
		return decimal.NewFromFloat(n), nil
	case string:
		return decimal.NewFromString(n)
	case json.Number:
		return decimal.NewFromString(n.String())
	default:
		return decimal.Decimal{}, fmt.Errorf("unexpected type %T", v)
	}
}
