// Package fx provides a date-indexed table of EUR exchange rates with the
// nearest-earlier fallback used for weekends and holidays.
package fx

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/etnz/capgains"
)

// history stores a chronological series of rates for one currency.
// It ensures that dates are unique and the series is always sorted.
type history struct {
	days  []capgains.Date
	rates []decimal.Decimal
}

// append adds a point to the history. An existing rate at that date is
// overwritten, giving priority to the last data.
func (h *history) append(on capgains.Date, rate decimal.Decimal) {
	if i, found := h.search(on); found {
		h.rates[i] = rate
		return
	}
	h.days, h.rates = append(h.days, on), append(h.rates, rate)
	sort.Sort(chronological{h})
}

// search binary-searches for a date; the days slice is sorted.
func (h *history) search(on capgains.Date) (int, bool) {
	i := sort.Search(len(h.days), func(i int) bool { return !h.days[i].Before(on) })
	return i, i < len(h.days) && h.days[i] == on
}

// asOf returns the rate on a given day, or the most recent rate before it.
func (h *history) asOf(on capgains.Date) (decimal.Decimal, bool) {
	i, found := h.search(on)
	if found {
		return h.rates[i], true
	}
	if i == 0 {
		return decimal.Decimal{}, false // No rate on or before the given day.
	}
	return h.rates[i-1], true
}

// chronological is a private implementation to keep a history sorted.
type chronological struct{ *history }

func (s chronological) Len() int           { return len(s.days) }
func (s chronological) Less(i, j int) bool { return s.days[i].Before(s.days[j]) }
func (s chronological) Swap(i, j int) {
	s.days[i], s.days[j] = s.days[j], s.days[i]
	s.rates[i], s.rates[j] = s.rates[j], s.rates[i]
}

// Table is a date-indexed FX table: (date, currency) -> EUR per one unit of
// currency. EUR always resolves to the unit rate.
type Table struct {
	currencies map[string]*history
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{currencies: make(map[string]*history)}
}

// Add records the EUR value of one unit of currency on a date.
func (t *Table) Add(currency string, on capgains.Date, eurPerUnit decimal.Decimal) {
	h, ok := t.currencies[currency]
	if !ok {
		h = &history{}
		t.currencies[currency] = h
	}
	h.append(on, eurPerUnit)
}

// Rate returns EUR per one unit of currency on a date.
//
// If the exact date has no entry, it falls back to the nearest earlier
// available date for that currency (weekends, holidays). It returns false
// only when no earlier data exists at all.
func (t *Table) Rate(on capgains.Date, currency string) (decimal.Decimal, bool) {
	if currency == capgains.CurrencyEUR {
		return decimal.NewFromInt(1), true
	}
	h, ok := t.currencies[currency]
	if !ok {
		return decimal.Decimal{}, false
	}
	return h.asOf(on)
}

// HasRateExact reports whether the table holds a rate for that exact date.
func (t *Table) HasRateExact(on capgains.Date, currency string) bool {
	if currency == capgains.CurrencyEUR {
		return true
	}
	h, ok := t.currencies[currency]
	if !ok {
		return false
	}
	_, found := h.search(on)
	return found
}

// Currencies returns the currency codes present in the table, sorted.
func (t *Table) Currencies() []string {
	out := make([]string, 0, len(t.currencies))
	for c := range t.currencies {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// check that the Table satisfies the conversion layer's lookup contract.
var _ capgains.RateSource = (*Table)(nil)
