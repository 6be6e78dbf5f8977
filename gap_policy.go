package capgains

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DefaultGapTolerance is the largest negative residual, in currency units,
// that basis synthesis treats as rounding noise and clamps to zero.
var DefaultGapTolerance = decimal.NewFromFloat(0.02)

// GapPolicy decides what happens to the unmatched remainder of a disposal.
//
// Resolve receives the legs matched so far and the cost allocated to them,
// and returns the final legs, the final allocated cost, and a gap event
// describing the shortfall (nil when the policy has nothing to report).
// Shortfalls are never errors: a whole multi-year batch is processed and all
// of them surfaced together.
type GapPolicy interface {
	Resolve(trade TradeEvent, remaining decimal.Decimal, legs []SellMatchLeg, allocSoFar decimal.Decimal) ([]SellMatchLeg, decimal.Decimal, *GapEvent)
}

// StrictGapPolicy records the gap and allocates zero cost for the unmatched
// quantity.
type StrictGapPolicy struct{}

// Resolve implements GapPolicy.
func (StrictGapPolicy) Resolve(trade TradeEvent, remaining decimal.Decimal, legs []SellMatchLeg, allocSoFar decimal.Decimal) ([]SellMatchLeg, decimal.Decimal, *GapEvent) {
	message := fmt.Sprintf("Unmatched SELL for %s on %s; remaining qty=%s.", trade.Symbol, trade.Date, remaining)
	legs = appendZeroCostLeg(legs, remaining)
	return legs, allocSoFar, &GapEvent{
		Symbol:       trade.Symbol,
		Date:         trade.Date,
		RemainingQty: remaining,
		Currency:     trade.Currency,
		Message:      message,
		Fixed:        false,
	}
}

// appendZeroCostLeg adds the zero-cost remainder leg shared by every
// fallback path. The nil acquisition date marks it as a gap leg.
func appendZeroCostLeg(legs []SellMatchLeg, qty decimal.Decimal) []SellMatchLeg {
	return append(legs, SellMatchLeg{
		BuyDate:      nil,
		Qty:          qty,
		LotQtyBefore: decimal.Zero,
		AllocCost:    QuantizeAllocation(decimal.Zero),
	})
}

// BasisSynthesisPolicy attempts to synthesise the missing cost of a gap from
// the basis figure the broker reports for the disposal.
//
// It never accepts a reported basis blindly: only the shortfall is filled,
// preserving whatever was genuinely matched from real lots. A negative
// residual within Tolerance is clamped to zero (rounding noise); beyond it,
// the policy degrades to the strict zero-cost behavior rather than allocate
// a nonsensical cost.
type BasisSynthesisPolicy struct {
	Tolerance decimal.Decimal
}

// Resolve implements GapPolicy.
func (p BasisSynthesisPolicy) Resolve(trade TradeEvent, remaining decimal.Decimal, legs []SellMatchLeg, allocSoFar decimal.Decimal) ([]SellMatchLeg, decimal.Decimal, *GapEvent) {
	if trade.ReportedBasis == nil {
		message := fmt.Sprintf("Cannot auto-fix SELL for %s on %s: missing basis; remaining qty=%s.", trade.Symbol, trade.Date, remaining)
		legs = appendZeroCostLeg(legs, remaining)
		return legs, allocSoFar, &GapEvent{
			Symbol:       trade.Symbol,
			Date:         trade.Date,
			RemainingQty: remaining,
			Currency:     trade.Currency,
			Message:      message,
			Fixed:        false,
		}
	}

	targetAlloc := trade.ReportedBasis.Abs()
	residual := QuantizeAllocation(targetAlloc.Sub(allocSoFar))
	if residual.IsNegative() {
		if residual.Abs().LessThanOrEqual(p.Tolerance) {
			residual = QuantizeAllocation(decimal.Zero)
		} else {
			message := fmt.Sprintf("Auto-fix guardrail: negative residual alloc for %s on %s: %s. Falling back to zero-cost remainder for qty=%s.",
				trade.Symbol, trade.Date, residual, remaining)
			legs = appendZeroCostLeg(legs, remaining)
			return legs, allocSoFar, &GapEvent{
				Symbol:       trade.Symbol,
				Date:         trade.Date,
				RemainingQty: remaining,
				Currency:     trade.Currency,
				Message:      message,
				Fixed:        false,
			}
		}
	}

	// The synthetic leg is dated at the disposal date: the true acquisition
	// date is unknown, only the residual cost is.
	synthDate := trade.Date
	legs = append(legs, SellMatchLeg{
		BuyDate:      &synthDate,
		Qty:          remaining,
		LotQtyBefore: decimal.Zero,
		AllocCost:    residual,
		Synthetic:    true,
	})
	message := fmt.Sprintf("Auto-fixed SELL gap for %s on %s; qty=%s, alloc=%s (target=%s)",
		trade.Symbol, trade.Date, remaining, residual, targetAlloc)
	return legs, allocSoFar.Add(residual), &GapEvent{
		Symbol:       trade.Symbol,
		Date:         trade.Date,
		RemainingQty: decimal.Zero,
		Currency:     trade.Currency,
		Message:      message,
		Fixed:        true,
	}
}
