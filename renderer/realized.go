package renderer

import (
	"fmt"
	"io"
	"strings"

	"github.com/etnz/capgains"
)

// RealizedMarkdown renders the realized-disposal report as markdown: one row
// per disposal, then the per-symbol totals. EUR columns only appear once the
// conversion pass has run.
func RealizedMarkdown(rb *capgains.ReportBuilder) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Realized Gains %d\n\n", rb.Year)

	fmt.Fprint(&b, "## Disposals\n\n")
	fmt.Fprintln(&b, "| Date | Symbol | Qty | Net Proceeds | Alloc. Cost | Realized | Realized (EUR) | Gap |")
	fmt.Fprintln(&b, "|:---|:---|---:|---:|---:|---:|---:|:---|")
	for _, rl := range rb.RealizedLines {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s | %s |\n",
			rl.SellDate,
			rl.Symbol,
			rl.SellQty,
			capgains.M(rl.SellNet, rl.Currency),
			capgains.M(capgains.QuantizeMoney(rl.AllocCost()), rl.Currency),
			capgains.M(rl.RealizedPL, rl.Currency).SignedString(),
			eurCell(rl.RealizedEUR),
			gapCell(rl),
		)
	}
	fmt.Fprintln(&b)

	fmt.Fprint(&b, "## Totals per Symbol\n\n")
	fmt.Fprintln(&b, "| Symbol | Currency | Realized | Realized (EUR) |")
	fmt.Fprintln(&b, "|:---|:---|---:|---:|")
	for _, t := range rb.SymbolTotals() {
		eur := "n/a"
		if t.HasEUR {
			eur = capgains.M(t.RealizedEUR, capgains.CurrencyEUR).SignedString()
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
			t.Symbol, t.Currency,
			capgains.M(t.Realized, t.Currency).SignedString(),
			eur,
		)
	}

	if rb.FxMissing {
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, "> Some lines could not be converted to EUR: the rate table has no usable rate for them.")
	}

	return b.String()
}

// GapsMarkdown renders the gap audit trail. It returns an empty string when
// there is nothing to report, so callers can print it unconditionally.
func GapsMarkdown(events []capgains.GapEvent) string {
	var b strings.Builder
	ConditionalBlock(&b, func(w io.Writer) bool {
		if len(events) == 0 {
			return false
		}
		fmt.Fprint(w, "## Matching Gaps\n\n")
		fmt.Fprintln(w, "| Date | Symbol | Unmatched Qty | Status | Detail |")
		fmt.Fprintln(w, "|:---|:---|---:|:---|:---|")
		for _, e := range events {
			status := "UNFIXED"
			if e.Fixed {
				status = "fixed"
			}
			fmt.Fprintf(w, "| %s | %s | %s | %s | %s |\n",
				e.Date, e.Symbol, e.RemainingQty, status, e.Message)
		}
		return true
	})
	return b.String()
}

// IncomeMarkdown renders the cash income sections (dividends, withholding
// tax, interest). Empty sections are omitted.
func IncomeMarkdown(rb *capgains.ReportBuilder) string {
	var b strings.Builder

	incomeSection(&b, "Dividends", rb.Dividends)
	incomeSection(&b, "Withholding Tax", rb.Withholding)
	incomeSection(&b, "Interest", rb.Interest)
	incomeSection(&b, "Securities Lending Interest", rb.SyepInterest)

	return b.String()
}

func incomeSection(w io.Writer, title string, rows []*capgains.IncomeRow) {
	ConditionalBlock(w, func(w io.Writer) bool {
		if len(rows) == 0 {
			return false
		}
		fmt.Fprintf(w, "## %s\n\n", title)
		fmt.Fprintln(w, "| Date | Description | Amount | Amount (EUR) |")
		fmt.Fprintln(w, "|:---|:---|---:|---:|")
		for _, row := range rows {
			fmt.Fprintf(w, "| %s | %s | %s | %s |\n",
				row.Date, row.Description,
				capgains.M(row.Amount, row.Currency).SignedString(),
				eurCell(row.AmountEUR),
			)
		}
		fmt.Fprintln(w)
		return true
	})
}
