package capgains

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Two precisions are in play throughout the engine: reported currency
// figures are rounded half-up to 2 decimal places, while intermediate
// proportional allocations keep 8 to avoid compounding rounding error
// across many partial fills.
const (
	moneyPlaces      = 2
	allocationPlaces = 8
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// QuantizeMoney rounds a monetary value to currency precision (2 decimal
// places), half-up.
func QuantizeMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(moneyPlaces)
}

// QuantizeAllocation rounds an allocation amount (e.g. a proportional basis
// piece) to the high-precision intermediate scale (8 decimal places), half-up.
func QuantizeAllocation(d decimal.Decimal) decimal.Decimal {
	return d.Round(allocationPlaces)
}

// CostPiece allocates a proportional amount of basis with deterministic
// rounding: basis * take / lotQty, quantized to allocation precision.
// A zero lot quantity yields a zero piece.
func CostPiece(basis, take, lotQty decimal.Decimal) decimal.Decimal {
	if lotQty.IsZero() {
		return decimal.Zero
	}
	return QuantizeAllocation(basis.Mul(take).Div(lotQty))
}

// allocationEpsilon is the largest negative basis residue treated as float
// noise when a lot is consumed down to zero.
var allocationEpsilon = decimal.New(1, -allocationPlaces) // 0.00000001

// Money represents a monetary value in a given currency, used for display.
type Money struct {
	value decimal.Decimal // as major unit value
	cur   string
}

// M is a convenient factory for Money.
func M(value decimal.Decimal, currency string) Money {
	return Money{value: value, cur: currency}
}

// currency returns the money's currency metadata.
func (m Money) currency() money.Currency {
	// the Money constructor guarantees a never nil currency
	return *money.New(0, m.cur).Currency()
}

// Currency returns the money's currency code.
func (m Money) Currency() string { return m.cur }

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool { return m.value.IsZero() }

// String returns the string representation of the money value.
func (m Money) String() string {
	cur := m.currency()
	dec := m.value.Shift(int32(cur.Fraction))
	return cur.Formatter().Format(dec.Round(0).IntPart())
}

// SignedString returns the string representation of the money value with a sign.
// 0 is represented as a "-".
func (m Money) SignedString() string {
	if m.value.IsZero() {
		return "-"
	}
	if m.value.IsPositive() {
		return "+" + m.String()
	}
	return m.String()
}
