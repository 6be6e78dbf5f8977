package capgains

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestPositionBook_ConsumeFifo_OrderAndResidual(t *testing.T) {
	book := NewPositionBook()
	if err := book.AppendBuy("ABC", Lot{Date: NewDate(2024, time.January, 1), Qty: d("100"), Basis: d("1000"), Currency: "USD"}); err != nil {
		t.Fatalf("AppendBuy() error = %v", err)
	}
	if err := book.AppendBuy("ABC", Lot{Date: NewDate(2024, time.February, 1), Qty: d("50"), Basis: d("600"), Currency: "USD"}); err != nil {
		t.Fatalf("AppendBuy() error = %v", err)
	}

	legs, alloc, remaining, err := book.ConsumeFifo("ABC", "USD", d("120"))
	if err != nil {
		t.Fatalf("ConsumeFifo() error = %v", err)
	}
	if !remaining.IsZero() {
		t.Errorf("ConsumeFifo() remaining = %v, want 0", remaining)
	}
	if len(legs) != 2 {
		t.Fatalf("ConsumeFifo() legs = %d, want 2", len(legs))
	}
	// FIFO: the whole older lot first, then 20 from the newer one.
	if !legs[0].Qty.Equal(d("100")) || !legs[0].AllocCost.Equal(d("1000.00000000")) {
		t.Errorf("legs[0] = %v/%v, want 100/1000.00000000", legs[0].Qty, legs[0].AllocCost)
	}
	if legs[0].BuyDate == nil || *legs[0].BuyDate != NewDate(2024, time.January, 1) {
		t.Errorf("legs[0].BuyDate = %v, want 2024-01-01", legs[0].BuyDate)
	}
	if !legs[1].Qty.Equal(d("20")) || !legs[1].AllocCost.Equal(d("240.00000000")) {
		t.Errorf("legs[1] = %v/%v, want 20/240.00000000", legs[1].Qty, legs[1].AllocCost)
	}
	if !alloc.Equal(d("1240.00000000")) {
		t.Errorf("ConsumeFifo() alloc = %v, want 1240.00000000", alloc)
	}

	// The second lot has 30 left; asking 50 reports a shortage of 20.
	legs2, alloc2, remaining2, err := book.ConsumeFifo("ABC", "USD", d("50"))
	if err != nil {
		t.Fatalf("ConsumeFifo() error = %v", err)
	}
	if len(legs2) != 1 {
		t.Fatalf("ConsumeFifo() legs = %d, want 1", len(legs2))
	}
	if !legs2[0].Qty.Equal(d("30")) || !legs2[0].AllocCost.Equal(d("360.00000000")) {
		t.Errorf("legs2[0] = %v/%v, want 30/360.00000000", legs2[0].Qty, legs2[0].AllocCost)
	}
	if !alloc2.Equal(d("360.00000000")) {
		t.Errorf("ConsumeFifo() alloc = %v, want 360.00000000", alloc2)
	}
	if !remaining2.Equal(d("20")) {
		t.Errorf("ConsumeFifo() remaining = %v, want 20", remaining2)
	}
}

func TestPositionBook_ConsumeFifo_PartialLotKeepsProportionalBasis(t *testing.T) {
	book := NewPositionBook()
	book.AppendBuy("ABC", Lot{Date: NewDate(2024, time.January, 1), Qty: d("3"), Basis: d("100"), Currency: "USD"})

	legs, _, _, err := book.ConsumeFifo("ABC", "USD", d("1"))
	if err != nil {
		t.Fatalf("ConsumeFifo() error = %v", err)
	}
	// 100 * 1/3 rounded to the 8-decimal intermediate precision.
	if !legs[0].AllocCost.Equal(d("33.33333333")) {
		t.Errorf("AllocCost = %v, want 33.33333333", legs[0].AllocCost)
	}
	if !legs[0].LotQtyBefore.Equal(d("3")) {
		t.Errorf("LotQtyBefore = %v, want 3", legs[0].LotQtyBefore)
	}

	// Consuming the rest picks up the remaining basis, never a negative one.
	legs2, alloc2, _, err := book.ConsumeFifo("ABC", "USD", d("2"))
	if err != nil {
		t.Fatalf("ConsumeFifo() error = %v", err)
	}
	if !alloc2.Equal(d("66.66666667")) {
		t.Errorf("alloc = %v, want 66.66666667", alloc2)
	}
	if legs2[0].AllocCost.IsNegative() {
		t.Errorf("AllocCost = %v, want non-negative", legs2[0].AllocCost)
	}
	if book.HasPosition("ABC", "USD") {
		t.Error("HasPosition() = true after full consumption, want false")
	}
}

func TestPositionBook_Validations(t *testing.T) {
	book := NewPositionBook()
	if err := book.AppendBuy("XYZ", Lot{Date: NewDate(2024, time.January, 1), Qty: d("0"), Currency: "USD"}); err == nil {
		t.Error("AppendBuy(qty=0) error = nil, want error")
	}
	if err := book.AppendBuy("XYZ", Lot{Date: NewDate(2024, time.January, 1), Qty: d("-5"), Currency: "USD"}); err == nil {
		t.Error("AppendBuy(qty=-5) error = nil, want error")
	}
	book.AppendBuy("XYZ", Lot{Date: NewDate(2024, time.January, 2), Qty: d("10"), Basis: d("100"), Currency: "USD"})
	if _, _, _, err := book.ConsumeFifo("XYZ", "USD", d("0")); err == nil {
		t.Error("ConsumeFifo(qty=0) error = nil, want error")
	}
	if _, _, _, err := book.ConsumeFifo("XYZ", "USD", d("-1")); err == nil {
		t.Error("ConsumeFifo(qty=-1) error = nil, want error")
	}
}

func TestPositionBook_ConsumeFifo_EmptyBookReturnsRemainder(t *testing.T) {
	book := NewPositionBook()
	legs, alloc, remaining, err := book.ConsumeFifo("MISSING", "USD", d("5"))
	if err != nil {
		t.Fatalf("ConsumeFifo() error = %v", err)
	}
	if len(legs) != 0 {
		t.Errorf("legs = %d, want 0", len(legs))
	}
	if !alloc.IsZero() {
		t.Errorf("alloc = %v, want 0", alloc)
	}
	if !remaining.Equal(d("5")) {
		t.Errorf("remaining = %v, want 5", remaining)
	}
}

func TestPositionBook_CurrenciesAreSegregated(t *testing.T) {
	book := NewPositionBook()
	book.AppendBuy("ABC", Lot{Date: NewDate(2024, time.January, 1), Qty: d("100"), Basis: d("1000"), Currency: "EUR"})

	// A USD disposal must not touch the EUR lot.
	legs, _, remaining, err := book.ConsumeFifo("ABC", "USD", d("40"))
	if err != nil {
		t.Fatalf("ConsumeFifo() error = %v", err)
	}
	if len(legs) != 0 {
		t.Errorf("legs = %d, want 0", len(legs))
	}
	if !remaining.Equal(d("40")) {
		t.Errorf("remaining = %v, want 40", remaining)
	}
	if got := book.Position("ABC", "EUR"); !got.Equal(d("100")) {
		t.Errorf("Position(ABC, EUR) = %v, want 100 untouched", got)
	}
}
