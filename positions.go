package capgains

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Lot represents a single open acquisition tranche of a security, tracked
// until fully disposed.
type Lot struct {
	Date        Date            // acquisition date
	Qty         decimal.Decimal // remaining quantity, > 0 while open
	Basis       decimal.Decimal // remaining cost basis in trade currency (incl. acquisition fees)
	Currency    string
	Transferred bool // true when the lot came in via a position transfer, not an ordinary buy
}

// positionKey segregates inventory per symbol and per trade currency: the
// same instrument traded in two currencies must never have its cost bases
// mixed.
type positionKey struct {
	symbol   string
	currency string
}

// PositionBook maintains FIFO lot queues per (symbol, currency), without any
// matching-policy concerns. Lots are owned by the book and mutated in place
// as they are consumed.
type PositionBook struct {
	positions map[positionKey][]*Lot
}

// NewPositionBook creates an empty position book.
func NewPositionBook() *PositionBook {
	return &PositionBook{positions: make(map[positionKey][]*Lot)}
}

// AppendBuy appends a lot to the tail of the queue for (symbol, lot.Currency).
func (b *PositionBook) AppendBuy(symbol string, lot Lot) error {
	if !lot.Qty.IsPositive() {
		return fmt.Errorf("buy lot quantity must be positive, got %s", lot.Qty)
	}
	key := positionKey{symbol: symbol, currency: lot.Currency}
	b.positions[key] = append(b.positions[key], &lot)
	return nil
}

// ConsumeFifo takes qty from the head of the (symbol, currency) queue,
// allocating a proportional cost piece from each lot it touches. It returns
// the legs produced in order, the total allocated cost, and any quantity
// that could not be satisfied.
//
// An exhausted or missing queue is not an error: the remainder is returned
// non-zero and the decision belongs to the caller's gap policy.
func (b *PositionBook) ConsumeFifo(symbol, currency string, qty decimal.Decimal) (legs []SellMatchLeg, allocCost, remaining decimal.Decimal, err error) {
	if !qty.IsPositive() {
		return nil, decimal.Zero, decimal.Zero, fmt.Errorf("quantity to consume must be positive, got %s", qty)
	}

	key := positionKey{symbol: symbol, currency: currency}
	lots := b.positions[key]
	allocCost = decimal.Zero
	remaining = qty

	for remaining.IsPositive() && len(lots) > 0 {
		lot := lots[0]
		take := decimal.Min(remaining, lot.Qty)
		piece := CostPiece(lot.Basis, take, lot.Qty)
		buyDate := lot.Date
		legs = append(legs, SellMatchLeg{
			BuyDate:      &buyDate,
			Qty:          take,
			LotQtyBefore: lot.Qty,
			AllocCost:    piece,
			Transferred:  lot.Transferred,
		})
		allocCost = allocCost.Add(piece)

		lot.Qty = lot.Qty.Sub(take)
		residual := lot.Basis.Sub(piece)
		if residual.IsNegative() && residual.Abs().LessThanOrEqual(allocationEpsilon) {
			// rounding residue from proportional allocation, not real cost
			lot.Basis = decimal.Zero
		} else {
			lot.Basis = residual
		}
		remaining = remaining.Sub(take)

		if !lot.Qty.IsPositive() {
			if lot.Qty.IsNegative() {
				return nil, decimal.Zero, decimal.Zero, fmt.Errorf("lot quantity cannot become negative: %s", lot.Qty)
			}
			lots = lots[1:]
		}
	}

	b.positions[key] = lots
	return legs, allocCost, remaining, nil
}

// HasPosition reports whether any open lot remains for (symbol, currency).
func (b *PositionBook) HasPosition(symbol, currency string) bool {
	return len(b.positions[positionKey{symbol: symbol, currency: currency}]) > 0
}

// Position returns the total open quantity for (symbol, currency).
func (b *PositionBook) Position(symbol, currency string) decimal.Decimal {
	total := decimal.Zero
	for _, lot := range b.positions[positionKey{symbol: symbol, currency: currency}] {
		total = total.Add(lot.Qty)
	}
	return total
}
