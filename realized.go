package capgains

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// SellMatchLeg is one (lot, matched-quantity) pairing produced while
// satisfying a disposal.
//
// A nil BuyDate marks a zero-cost gap leg. The EUR fields are the only
// fields set after the matcher returns the leg; everything else is final.
type SellMatchLeg struct {
	BuyDate      *Date           // source lot acquisition date; nil for zero-cost gap legs
	Qty          decimal.Decimal // matched quantity
	LotQtyBefore decimal.Decimal // lot quantity before the match, for audit
	AllocCost    decimal.Decimal // allocated cost in trade currency
	Synthetic    bool            // true when the cost was synthesised by a gap policy
	Transferred  bool            // true when the source lot came from a transfer-in

	AllocCostEUR     *decimal.Decimal // filled by the EUR conversion pass
	ProceedsShareEUR *decimal.Decimal // filled by the EUR conversion pass
}

// MarshalJSON implements the json.Marshaler interface for SellMatchLeg.
func (l SellMatchLeg) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	if l.BuyDate != nil {
		w.Append("buyDate", *l.BuyDate)
	}
	w.Append("qty", l.Qty)
	w.Append("lotQtyBefore", l.LotQtyBefore)
	w.Append("allocCost", l.AllocCost)
	w.Optional("synthetic", l.Synthetic)
	w.Optional("transferred", l.Transferred)
	if l.AllocCostEUR != nil {
		w.Append("allocCostEur", *l.AllocCostEUR)
	}
	if l.ProceedsShareEUR != nil {
		w.Append("proceedsShareEur", *l.ProceedsShareEUR)
	}
	return w.MarshalJSON()
}

// RealizedLine is the full result of one disposal event.
//
// The EUR mirrors are nil until the conversion pass fills them; that pass is
// the single allowed post-hoc mutation.
type RealizedLine struct {
	Symbol   string
	Currency string
	SellDate Date
	SellQty  decimal.Decimal // positive quantity sold (abs of the trade's negative qty)

	SellGross decimal.Decimal // abs(proceeds) before fees
	SellComm  decimal.Decimal // signed, typically negative
	SellNet   decimal.Decimal // gross + comm, fees reduce proceeds

	Legs       []SellMatchLeg
	RealizedPL decimal.Decimal // net proceeds - allocated cost, at currency precision

	HasGap   bool
	GapFixed bool

	SellGrossEUR *decimal.Decimal
	SellCommEUR  *decimal.Decimal
	SellNetEUR   *decimal.Decimal
	AllocCostEUR *decimal.Decimal
	RealizedEUR  *decimal.Decimal
}

// AllocCost returns the total cost allocated across the line's legs, in
// trade currency.
func (rl *RealizedLine) AllocCost() decimal.Decimal {
	total := decimal.Zero
	for _, leg := range rl.Legs {
		total = total.Add(leg.AllocCost)
	}
	return total
}

// MarshalJSON implements the json.Marshaler interface for RealizedLine.
func (rl RealizedLine) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("symbol", rl.Symbol)
	w.Append("currency", rl.Currency)
	w.Append("sellDate", rl.SellDate)
	w.Append("sellQty", rl.SellQty)
	w.Append("sellGross", rl.SellGross)
	w.Append("sellComm", rl.SellComm)
	w.Append("sellNet", rl.SellNet)
	w.Append("legs", rl.Legs)
	w.Append("realizedPl", rl.RealizedPL)
	w.Optional("hasGap", rl.HasGap)
	w.Optional("gapFixed", rl.GapFixed)
	if rl.SellGrossEUR != nil {
		w.Append("sellGrossEur", *rl.SellGrossEUR)
	}
	if rl.SellCommEUR != nil {
		w.Append("sellCommEur", *rl.SellCommEUR)
	}
	if rl.SellNetEUR != nil {
		w.Append("sellNetEur", *rl.SellNetEUR)
	}
	if rl.AllocCostEUR != nil {
		w.Append("allocCostEur", *rl.AllocCostEUR)
	}
	if rl.RealizedEUR != nil {
		w.Append("realizedPlEur", *rl.RealizedEUR)
	}
	return w.MarshalJSON()
}

var _ json.Marshaler = RealizedLine{}

// buyCost is the cash outflow of an acquisition: -proceeds - commFee.
// Commissions increase the basis.
func buyCost(proceeds, commFee decimal.Decimal) decimal.Decimal {
	return proceeds.Neg().Sub(commFee)
}

// sellGross is the gross cash inflow of a disposal, before fees.
func sellGross(proceeds decimal.Decimal) decimal.Decimal {
	return proceeds.Abs()
}

// sellNet is the net proceeds after fees. A positive commission (a rebate)
// increases them.
func sellNet(proceeds, commFee decimal.Decimal) decimal.Decimal {
	return proceeds.Add(commFee)
}

// buildRealizedLine converts a matched sell's legs and trade fields into an
// immutable realized-disposal line. It does not mutate its inputs and
// returns an independent copy of the legs.
func buildRealizedLine(trade TradeEvent, legs []SellMatchLeg, allocCost decimal.Decimal) *RealizedLine {
	gross := sellGross(trade.Proceeds)
	net := sellNet(trade.Proceeds, trade.CommFee)

	copied := make([]SellMatchLeg, len(legs))
	copy(copied, legs)

	return &RealizedLine{
		Symbol:     trade.Symbol,
		Currency:   trade.Currency,
		SellDate:   trade.Date,
		SellQty:    trade.Quantity.Abs(),
		SellGross:  gross,
		SellComm:   trade.CommFee,
		SellNet:    net,
		Legs:       copied,
		RealizedPL: QuantizeMoney(net.Sub(allocCost)),
	}
}
