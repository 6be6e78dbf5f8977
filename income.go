package capgains

import (
	"github.com/shopspring/decimal"
)

// IncomeKind identifies the flavor of a cash income row.
type IncomeKind string

const (
	IncomeDividend    IncomeKind = "dividend"
	IncomeWithholding IncomeKind = "withholding-tax"
	IncomeInterest    IncomeKind = "interest"
	// IncomeSyepInterest is interest paid under a stock yield enhancement
	// (fully-paid securities lending) program.
	IncomeSyepInterest IncomeKind = "syep-interest"
)

// IncomeRow is a single cash income record (dividend, withholding tax,
// interest). It follows the same single-date conversion rule as realized
// lines: the EUR amount is converted at the row's own date, or left nil when
// no rate is available.
type IncomeRow struct {
	Kind        IncomeKind
	Date        Date
	Description string
	Currency    string
	Amount      decimal.Decimal

	AmountEUR *decimal.Decimal // filled by the EUR conversion pass
}
