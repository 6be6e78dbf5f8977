package capgains

import (
	"testing"
	"time"
)

func buy(day int, qty, proceeds, comm string) TradeEvent {
	return TradeEvent{
		Date:     NewDate(2024, time.January, day),
		Symbol:   "ABC",
		Currency: "USD",
		Quantity: d(qty),
		Proceeds: d(proceeds),
		CommFee:  d(comm),
	}
}

func sell(day int, qty, proceeds, comm string) TradeEvent {
	return TradeEvent{
		Date:     NewDate(2024, time.June, day),
		Symbol:   "ABC",
		Currency: "USD",
		Quantity: d(qty),
		Proceeds: d(proceeds),
		CommFee:  d(comm),
	}
}

func TestFifoMatcher_BuyThenFullSell(t *testing.T) {
	m := NewFifoMatcher(MatcherOptions{})

	line, err := m.IngestTrade(buy(10, "100", "-1000", "-2"))
	if err != nil {
		t.Fatalf("IngestTrade(buy) error = %v", err)
	}
	if line != nil {
		t.Fatalf("IngestTrade(buy) line = %+v, want nil", line)
	}

	line, err = m.IngestTrade(sell(15, "-100", "1500", "-3"))
	if err != nil {
		t.Fatalf("IngestTrade(sell) error = %v", err)
	}
	if line == nil {
		t.Fatal("IngestTrade(sell) line = nil, want a realized line")
	}
	// Buy basis is -proceeds - comm = 1002; realized = 1500 - 3 - 1002.
	if !line.RealizedPL.Equal(d("495.00")) {
		t.Errorf("RealizedPL = %v, want 495.00", line.RealizedPL)
	}
	if !line.SellGross.Equal(d("1500")) || !line.SellNet.Equal(d("1497")) {
		t.Errorf("gross/net = %v/%v, want 1500/1497", line.SellGross, line.SellNet)
	}
	if line.HasGap {
		t.Error("HasGap = true, want false")
	}
	if len(line.Legs) != 1 || !line.Legs[0].Qty.Equal(d("100")) {
		t.Fatalf("legs = %+v, want one leg of 100", line.Legs)
	}
	if line.Legs[0].BuyDate == nil {
		t.Error("fully covered disposal has a nil BuyDate leg")
	}
	if m.Positions().HasPosition("ABC", "USD") {
		t.Error("position book not empty after full sell")
	}
}

func TestFifoMatcher_LegQuantitiesSumToDisposedQuantity(t *testing.T) {
	m := NewFifoMatcher(MatcherOptions{})
	m.IngestTrade(buy(1, "100", "-1000", "0"))
	m.IngestTrade(buy(2, "50", "-600", "0"))

	line, err := m.IngestTrade(sell(1, "-120", "1800", "0"))
	if err != nil {
		t.Fatalf("IngestTrade(sell) error = %v", err)
	}
	total := d("0")
	for _, leg := range line.Legs {
		total = total.Add(leg.Qty)
	}
	if !total.Equal(line.SellQty) {
		t.Errorf("sum of leg quantities = %v, want %v", total, line.SellQty)
	}
	if !line.AllocCost().Equal(d("1240.00000000")) {
		t.Errorf("AllocCost() = %v, want 1240.00000000", line.AllocCost())
	}
	// realized = 1800 - 1240
	if !line.RealizedPL.Equal(d("560.00")) {
		t.Errorf("RealizedPL = %v, want 560.00", line.RealizedPL)
	}
}

func TestFifoMatcher_ZeroQuantityTradeIsAnError(t *testing.T) {
	m := NewFifoMatcher(MatcherOptions{})
	if _, err := m.IngestTrade(buy(1, "0", "0", "0")); err == nil {
		t.Error("IngestTrade(qty=0) error = nil, want error")
	}
}

func TestFifoMatcher_StrictGap(t *testing.T) {
	m := NewFifoMatcher(MatcherOptions{})
	m.IngestTrade(buy(1, "100", "-1000", "0"))

	line, err := m.IngestTrade(sell(1, "-120", "1800", "0"))
	if err != nil {
		t.Fatalf("IngestTrade(sell) error = %v", err)
	}
	if !line.HasGap || line.GapFixed {
		t.Errorf("HasGap/GapFixed = %v/%v, want true/false", line.HasGap, line.GapFixed)
	}
	if len(line.Legs) != 2 {
		t.Fatalf("legs = %d, want 2", len(line.Legs))
	}
	if !line.Legs[0].Qty.Equal(d("100")) || !line.Legs[0].AllocCost.Equal(d("1000.00000000")) {
		t.Errorf("legs[0] = %v/%v, want 100/1000.00000000", line.Legs[0].Qty, line.Legs[0].AllocCost)
	}
	if !line.Legs[1].Qty.Equal(d("20")) || !line.Legs[1].AllocCost.IsZero() {
		t.Errorf("legs[1] = %v/%v, want 20/0", line.Legs[1].Qty, line.Legs[1].AllocCost)
	}
	// realized = net - 1000 only: the gap contributes zero cost.
	if !line.RealizedPL.Equal(d("800.00")) {
		t.Errorf("RealizedPL = %v, want 800.00", line.RealizedPL)
	}

	events := m.GapEvents()
	if len(events) != 1 {
		t.Fatalf("GapEvents() = %d, want 1", len(events))
	}
	if events[0].Fixed {
		t.Error("gap event Fixed = true, want false")
	}
	if !events[0].RemainingQty.Equal(d("20")) {
		t.Errorf("gap event RemainingQty = %v, want 20", events[0].RemainingQty)
	}
	if !m.Recorder().Unfixed() {
		t.Error("Recorder().Unfixed() = false, want true")
	}
}

func TestFifoMatcher_AutoFixGap(t *testing.T) {
	m := NewFifoMatcher(MatcherOptions{FixSellGaps: true})
	m.IngestTrade(buy(1, "100", "-1000", "0"))

	trade := sell(1, "-120", "1800", "0")
	basis := d("-1200")
	trade.ReportedBasis = &basis

	line, err := m.IngestTrade(trade)
	if err != nil {
		t.Fatalf("IngestTrade(sell) error = %v", err)
	}
	if !line.HasGap || !line.GapFixed {
		t.Errorf("HasGap/GapFixed = %v/%v, want true/true", line.HasGap, line.GapFixed)
	}
	synth := line.Legs[len(line.Legs)-1]
	if !synth.Synthetic || !synth.Qty.Equal(d("20")) || !synth.AllocCost.Equal(d("200.00000000")) {
		t.Errorf("synthetic leg = %+v, want qty 20 cost 200.00000000", synth)
	}
	// realized = 1800 - (1000 + 200)
	if !line.RealizedPL.Equal(d("600.00")) {
		t.Errorf("RealizedPL = %v, want 600.00", line.RealizedPL)
	}
	if m.Recorder().Unfixed() {
		t.Error("Recorder().Unfixed() = true, want false")
	}
}

func TestFifoMatcher_CrossCurrencySellIsAFullGap(t *testing.T) {
	m := NewFifoMatcher(MatcherOptions{})
	m.IngestTrade(TradeEvent{
		Date: NewDate(2024, time.January, 1), Symbol: "ABC", Currency: "EUR",
		Quantity: d("100"), Proceeds: d("-1000"), CommFee: d("0"),
	})

	line, err := m.IngestTrade(sell(1, "-40", "600", "0"))
	if err != nil {
		t.Fatalf("IngestTrade(sell) error = %v", err)
	}
	if !line.HasGap {
		t.Error("HasGap = false, want true: EUR lots must not cover a USD sell")
	}
	if got := m.Positions().Position("ABC", "EUR"); !got.Equal(d("100")) {
		t.Errorf("EUR position = %v, want 100 untouched", got)
	}
}

func TestFifoMatcher_TransferInThenSellUsesMarketValueBasis(t *testing.T) {
	m := NewFifoMatcher(MatcherOptions{})
	err := m.IngestTransfer(TransferEvent{
		Date: NewDate(2024, time.January, 5), Symbol: "ABC", Currency: "USD",
		Direction: TransferIn, Quantity: d("100"), MarketValue: d("1200"),
	})
	if err != nil {
		t.Fatalf("IngestTransfer(in) error = %v", err)
	}

	line, err := m.IngestTrade(sell(1, "-100", "1500", "0"))
	if err != nil {
		t.Fatalf("IngestTrade(sell) error = %v", err)
	}
	if !line.Legs[0].Transferred {
		t.Error("leg Transferred = false, want true for a transferred lot")
	}
	if !line.RealizedPL.Equal(d("300.00")) {
		t.Errorf("RealizedPL = %v, want 300.00", line.RealizedPL)
	}
}

func TestFifoMatcher_TransferOut(t *testing.T) {
	m := NewFifoMatcher(MatcherOptions{})
	m.IngestTrade(buy(1, "100", "-1000", "0"))

	out := TransferEvent{
		Date: NewDate(2024, time.February, 1), Symbol: "ABC", Currency: "USD",
		Direction: TransferOut, Quantity: d("60"),
	}
	if err := m.IngestTransfer(out); err != nil {
		t.Fatalf("IngestTransfer(out) error = %v", err)
	}
	if got := m.Positions().Position("ABC", "USD"); !got.Equal(d("40")) {
		t.Errorf("position after transfer out = %v, want 40", got)
	}

	// A transfer out beyond inventory is a structural error, not a gap.
	out.Quantity = d("100")
	if err := m.IngestTransfer(out); err == nil {
		t.Error("IngestTransfer(out beyond inventory) error = nil, want error")
	}
}

func TestFifoMatcher_TransferValidations(t *testing.T) {
	m := NewFifoMatcher(MatcherOptions{})
	bad := TransferEvent{
		Date: NewDate(2024, time.February, 1), Symbol: "ABC", Currency: "USD",
		Direction: "sideways", Quantity: d("10"),
	}
	if err := m.IngestTransfer(bad); err == nil {
		t.Error("IngestTransfer(direction=sideways) error = nil, want error")
	}
	bad.Direction = TransferIn
	bad.Quantity = d("0")
	if err := m.IngestTransfer(bad); err == nil {
		t.Error("IngestTransfer(qty=0) error = nil, want error")
	}
}

func TestSortEvents_OrderingContract(t *testing.T) {
	xferIn := TransferEvent{Date: NewDate(2024, time.June, 15), Symbol: "ABC", Currency: "USD", Direction: TransferIn, Quantity: d("1")}
	xferOut := TransferEvent{Date: NewDate(2024, time.June, 15), Symbol: "ABC", Currency: "USD", Direction: TransferOut, Quantity: d("1")}
	buyNoon := TradeEvent{Date: NewDate(2024, time.June, 15), Time: "12:00:00", Symbol: "ABC", Currency: "USD", Quantity: d("10")}
	sellNoon := TradeEvent{Date: NewDate(2024, time.June, 15), Time: "12:00:00", Symbol: "ABC", Currency: "USD", Quantity: d("-5")}
	sellMorning := TradeEvent{Date: NewDate(2024, time.June, 15), Time: "09:30:00", Symbol: "ABC", Currency: "USD", Quantity: d("-100")}
	buyEarlier := TradeEvent{Date: NewDate(2024, time.June, 14), Time: "15:00:00", Symbol: "ABC", Currency: "USD", Quantity: d("100")}

	events := []Event{xferOut, sellNoon, buyNoon, sellMorning, xferIn, buyEarlier}
	SortEvents(events)

	want := []Event{buyEarlier, xferIn, sellMorning, buyNoon, sellNoon, xferOut}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("events[%d] = %+v, want %+v", i, events[i], want[i])
		}
	}
}
