package renderer

import (
	"bytes"
	"io"

	"github.com/shopspring/decimal"

	"github.com/etnz/capgains"
)

// ConditionalBlock lets you fully write a block and decide at the end to print it or not.
// If the block function returns true, the content is printed to w, otherwise it is discarded.
func ConditionalBlock(w io.Writer, block func(io.Writer) bool) {
	bw := &bytes.Buffer{}
	if block(bw) {
		io.Copy(w, bw)
	}
}

// eurCell formats an optional EUR amount; conversion may have skipped it.
func eurCell(v *decimal.Decimal) string {
	if v == nil {
		return "n/a"
	}
	return capgains.M(*v, capgains.CurrencyEUR).SignedString()
}

// gapCell summarizes a line's gap state for the disposals table.
func gapCell(rl *capgains.RealizedLine) string {
	switch {
	case !rl.HasGap:
		return ""
	case rl.GapFixed:
		return "fixed"
	default:
		return "UNFIXED"
	}
}
