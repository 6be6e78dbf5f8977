package capgains

import (
	"sort"

	"github.com/shopspring/decimal"
)

// RateSource is the FX lookup contract the conversion layer consumes: EUR
// per one unit of currency on a date, with nearest-earlier fallback handled
// by the implementation. The second return is false when no rate exists on
// or before the date.
type RateSource interface {
	Rate(on Date, currency string) (decimal.Decimal, bool)
}

// SymbolTotals aggregates one symbol's realized figures in one trade
// currency, plus the EUR mirrors when conversion produced them.
type SymbolTotals struct {
	Symbol   string
	Currency string

	Realized  decimal.Decimal // realized P/L in trade currency
	Proceeds  decimal.Decimal // net proceeds in trade currency
	AllocCost decimal.Decimal // allocated cost in trade currency

	RealizedEUR  decimal.Decimal
	ProceedsEUR  decimal.Decimal
	AllocCostEUR decimal.Decimal
	HasEUR       bool // true when every line of this bucket carries EUR figures
}

// ReconcileMismatch is one symbol whose computed EUR realized total differs
// from an externally reported figure beyond the tolerance.
type ReconcileMismatch struct {
	Symbol   string
	Computed decimal.Decimal
	Reported decimal.Decimal
}

// ReportBuilder collects the realized lines and income rows of one reporting
// year and enriches them with EUR figures.
type ReportBuilder struct {
	Year int

	RealizedLines []*RealizedLine
	Dividends     []*IncomeRow
	Withholding   []*IncomeRow
	Interest      []*IncomeRow
	SyepInterest  []*IncomeRow

	// FxNeeded is true when any realized line is denominated outside EUR.
	// FxMissing is true when at least one conversion found no usable rate;
	// both are recomputed by ConvertEUR.
	FxNeeded  bool
	FxMissing bool
}

// NewReportBuilder creates a report builder for a calendar year.
func NewReportBuilder(year int) *ReportBuilder {
	return &ReportBuilder{Year: year}
}

// AddRealized appends a realized line to the report.
func (rb *ReportBuilder) AddRealized(rl *RealizedLine) {
	rb.RealizedLines = append(rb.RealizedLines, rl)
}

// SetDividends replaces the dividend rows.
func (rb *ReportBuilder) SetDividends(rows []*IncomeRow) { rb.Dividends = rows }

// SetWithholding replaces the withholding-tax rows.
func (rb *ReportBuilder) SetWithholding(rows []*IncomeRow) { rb.Withholding = rows }

// SetInterest replaces the broker-interest rows.
func (rb *ReportBuilder) SetInterest(rows []*IncomeRow) { rb.Interest = rows }

// SetSyepInterest replaces the securities-lending interest rows.
func (rb *ReportBuilder) SetSyepInterest(rows []*IncomeRow) { rb.SyepInterest = rows }

// ConvertEUR fills the EUR mirrors of every realized line and income row in
// a single pass.
//
// Sale figures convert at the sell-date rate; each leg's allocated cost at
// its own acquisition-date rate, falling back to the sell-date rate. A line
// with no usable sell-date rate keeps its EUR fields unset and raises
// FxMissing; conversion failures are per-line, never fatal.
//
// The pass is idempotent: it always recomputes from the trade-currency
// fields, so calling it again (with a better rate table) is safe.
func (rb *ReportBuilder) ConvertEUR(rates RateSource) {
	rb.FxNeeded = false
	rb.FxMissing = false

	for _, rl := range rb.RealizedLines {
		if rl.Currency == CurrencyEUR {
			rb.convertLineIdentity(rl)
			continue
		}
		rb.FxNeeded = true
		if rates == nil {
			rb.FxMissing = true
			rb.clearLineEUR(rl)
			continue
		}
		sellRate, ok := rates.Rate(rl.SellDate, rl.Currency)
		if !ok {
			rb.FxMissing = true
			rb.clearLineEUR(rl)
			continue
		}
		rb.convertLine(rl, rates, sellRate)
	}

	for _, rows := range [][]*IncomeRow{rb.Dividends, rb.Withholding, rb.Interest, rb.SyepInterest} {
		for _, row := range rows {
			rb.convertIncome(row, rates)
		}
	}
}

// CurrencyEUR is the reporting currency every figure converts into.
const CurrencyEUR = "EUR"

func (rb *ReportBuilder) clearLineEUR(rl *RealizedLine) {
	rl.SellGrossEUR = nil
	rl.SellCommEUR = nil
	rl.SellNetEUR = nil
	rl.AllocCostEUR = nil
	rl.RealizedEUR = nil
	for i := range rl.Legs {
		rl.Legs[i].AllocCostEUR = nil
		rl.Legs[i].ProceedsShareEUR = nil
	}
}

// convertLineIdentity copies the native figures verbatim into the EUR fields.
func (rb *ReportBuilder) convertLineIdentity(rl *RealizedLine) {
	rl.SellGrossEUR = dec(rl.SellGross)
	rl.SellCommEUR = dec(rl.SellComm)
	rl.SellNetEUR = dec(rl.SellNet)

	allocEUR := decimal.Zero
	for i := range rl.Legs {
		rl.Legs[i].AllocCostEUR = dec(rl.Legs[i].AllocCost)
		allocEUR = allocEUR.Add(rl.Legs[i].AllocCost)
	}
	rl.AllocCostEUR = dec(QuantizeMoney(allocEUR))
	rl.RealizedEUR = dec(QuantizeMoney(rl.SellNet.Sub(*rl.AllocCostEUR)))
	rb.allocateProceedsShares(rl)
}

func (rb *ReportBuilder) convertLine(rl *RealizedLine, rates RateSource, sellRate decimal.Decimal) {
	rl.SellGrossEUR = dec(QuantizeMoney(rl.SellGross.Mul(sellRate)))
	rl.SellCommEUR = dec(QuantizeMoney(rl.SellComm.Mul(sellRate)))
	rl.SellNetEUR = dec(QuantizeMoney(rl.SellNet.Mul(sellRate)))

	allocEUR := decimal.Zero
	for i := range rl.Legs {
		leg := &rl.Legs[i]
		rate := sellRate
		if leg.BuyDate != nil {
			// Acquisition values convert at the acquisition date; the
			// sell-date rate only bridges a hole in the table.
			if r, ok := rates.Rate(*leg.BuyDate, rl.Currency); ok {
				rate = r
			}
		}
		legEUR := QuantizeMoney(leg.AllocCost.Mul(rate))
		leg.AllocCostEUR = dec(legEUR)
		allocEUR = allocEUR.Add(legEUR)
	}
	rl.AllocCostEUR = dec(QuantizeMoney(allocEUR))
	rl.RealizedEUR = dec(QuantizeMoney(rl.SellNetEUR.Sub(*rl.AllocCostEUR)))
	rb.allocateProceedsShares(rl)
}

// allocateProceedsShares splits the EUR net proceeds across legs in
// proportion to each leg's share of the disposed quantity. Every leg but the
// last rounds to currency precision; the last takes the exact remainder, so
// the shares always sum cent-exact to SellNetEUR. Per-lot tax annexes depend
// on that invariant.
func (rb *ReportBuilder) allocateProceedsShares(rl *RealizedLine) {
	if rl.SellQty.IsZero() || rl.SellNetEUR == nil || len(rl.Legs) == 0 {
		return
	}
	net := *rl.SellNetEUR
	assigned := decimal.Zero
	for i := range rl.Legs {
		if i == len(rl.Legs)-1 {
			rl.Legs[i].ProceedsShareEUR = dec(net.Sub(assigned))
			break
		}
		share := QuantizeMoney(net.Mul(rl.Legs[i].Qty).Div(rl.SellQty))
		rl.Legs[i].ProceedsShareEUR = dec(share)
		assigned = assigned.Add(share)
	}
}

func (rb *ReportBuilder) convertIncome(row *IncomeRow, rates RateSource) {
	if row.Currency == CurrencyEUR {
		row.AmountEUR = dec(QuantizeMoney(row.Amount))
		return
	}
	row.AmountEUR = nil
	if rates == nil {
		rb.FxMissing = true
		return
	}
	rate, ok := rates.Rate(row.Date, row.Currency)
	if !ok {
		rb.FxMissing = true
		return
	}
	row.AmountEUR = dec(QuantizeMoney(row.Amount.Mul(rate)))
}

// SymbolTotals aggregates realized figures per (symbol, currency), sorted by
// symbol then currency. The EUR totals are only flagged usable when every
// line of the bucket was converted.
func (rb *ReportBuilder) SymbolTotals() []SymbolTotals {
	type key struct{ symbol, currency string }
	totals := make(map[key]*SymbolTotals)

	for _, rl := range rb.RealizedLines {
		k := key{rl.Symbol, rl.Currency}
		t, ok := totals[k]
		if !ok {
			t = &SymbolTotals{Symbol: rl.Symbol, Currency: rl.Currency, HasEUR: true}
			totals[k] = t
		}
		t.Realized = t.Realized.Add(rl.RealizedPL)
		t.Proceeds = t.Proceeds.Add(rl.SellNet)
		t.AllocCost = t.AllocCost.Add(rl.AllocCost())
		if rl.RealizedEUR == nil {
			t.HasEUR = false
			continue
		}
		t.RealizedEUR = t.RealizedEUR.Add(*rl.RealizedEUR)
		if rl.SellNetEUR != nil {
			t.ProceedsEUR = t.ProceedsEUR.Add(*rl.SellNetEUR)
		}
		if rl.AllocCostEUR != nil {
			t.AllocCostEUR = t.AllocCostEUR.Add(*rl.AllocCostEUR)
		}
	}

	out := make([]SymbolTotals, 0, len(totals))
	for _, t := range totals {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Symbol != out[j].Symbol {
			return out[i].Symbol < out[j].Symbol
		}
		return out[i].Currency < out[j].Currency
	})
	return out
}

// reconcileTolerance is the largest acceptable difference between a computed
// per-symbol EUR total and the broker's own reported figure.
var reconcileTolerance = decimal.NewFromFloat(0.05)

// Reconcile compares computed per-symbol EUR realized totals against an
// externally reported summary (e.g. the broker's own performance summary)
// and returns the mismatches beyond tolerance, sorted by symbol. Symbols
// absent on either side are skipped: this is a soft check, not a gate.
func (rb *ReportBuilder) Reconcile(reported map[string]decimal.Decimal) []ReconcileMismatch {
	computed := make(map[string]decimal.Decimal)
	for _, t := range rb.SymbolTotals() {
		if !t.HasEUR {
			continue
		}
		computed[t.Symbol] = computed[t.Symbol].Add(t.RealizedEUR)
	}

	var mismatches []ReconcileMismatch
	for symbol, reportedEUR := range reported {
		computedEUR, ok := computed[symbol]
		if !ok {
			continue
		}
		if computedEUR.Sub(reportedEUR).Abs().GreaterThan(reconcileTolerance) {
			mismatches = append(mismatches, ReconcileMismatch{Symbol: symbol, Computed: computedEUR, Reported: reportedEUR})
		}
	}
	sort.Slice(mismatches, func(i, j int) bool { return mismatches[i].Symbol < mismatches[j].Symbol })
	return mismatches
}

// dec returns a pointer to an owned copy of d.
func dec(d decimal.Decimal) *decimal.Decimal { return &d }
