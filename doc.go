// Package capgains computes realized capital gains from a chronological
// stream of security trade and transfer events, using First-In-First-Out
// tax-lot matching with commission-inclusive cost basis, and converts the
// result into EUR using historical daily exchange rates.
//
// The core functionalities include:
//   - Position Book: per-(symbol, currency) FIFO queues of open lots,
//     consumed proportionally with exact decimal arithmetic.
//   - FIFO Matcher: the stateful orchestrator that ingests ordered trade
//     and transfer events and emits realized-disposal lines.
//   - Gap Policies: pluggable strategies for disposals that exceed tracked
//     inventory, either flagging the shortfall or synthesising the missing
//     cost from an externally reported basis.
//   - Report Builder: collects realized lines and income rows (dividends,
//     withholding tax, interest) and enriches them with EUR figures using
//     a date-indexed exchange-rate table.
//
// This package serves as the foundational logic for the `capg` command-line
// tool. All monetary arithmetic uses base-10 arbitrary-precision decimals;
// reported figures are rounded half-up to two decimal places, while
// intermediate proportional allocations keep eight.
package capgains
