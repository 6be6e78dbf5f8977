package capgains

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MatcherOptions configures a FifoMatcher.
//
// The zero value gives a fresh position book, a fresh recorder, and the
// strict gap policy. Injected collaborators take precedence over the flags.
type MatcherOptions struct {
	Positions *PositionBook
	Recorder  *EventRecorder
	GapPolicy GapPolicy

	// FixSellGaps selects the basis-synthesis policy instead of the strict
	// one when no explicit GapPolicy is injected.
	FixSellGaps bool
	// GapTolerance overrides DefaultGapTolerance for basis synthesis.
	// Ignored when zero.
	GapTolerance decimal.Decimal
}

// FifoMatcher is the stateful orchestrator of one matching run, bound to one
// position book, one gap policy, and one event recorder.
//
// The event stream fed to it must already be sorted per SortEvents; ordering
// is a caller contract, not a runtime-enforced invariant. A matcher is not
// safe for concurrent use.
type FifoMatcher struct {
	positions *PositionBook
	recorder  *EventRecorder
	gapPolicy GapPolicy
}

// NewFifoMatcher creates a matcher from the given options.
func NewFifoMatcher(opts MatcherOptions) *FifoMatcher {
	m := &FifoMatcher{
		positions: opts.Positions,
		recorder:  opts.Recorder,
		gapPolicy: opts.GapPolicy,
	}
	if m.positions == nil {
		m.positions = NewPositionBook()
	}
	if m.recorder == nil {
		m.recorder = NewEventRecorder()
	}
	if m.gapPolicy == nil {
		if opts.FixSellGaps {
			tolerance := opts.GapTolerance
			if tolerance.IsZero() {
				tolerance = DefaultGapTolerance
			}
			m.gapPolicy = BasisSynthesisPolicy{Tolerance: tolerance}
		} else {
			m.gapPolicy = StrictGapPolicy{}
		}
	}
	return m
}

// Positions returns the matcher's position book.
func (m *FifoMatcher) Positions() *PositionBook { return m.positions }

// GapEvents returns the gap events recorded so far.
func (m *FifoMatcher) GapEvents() []GapEvent { return m.recorder.GapEvents() }

// Recorder returns the matcher's event recorder.
func (m *FifoMatcher) Recorder() *EventRecorder { return m.recorder }

// Ingest dispatches an event to IngestTrade or IngestTransfer.
func (m *FifoMatcher) Ingest(event Event) (*RealizedLine, error) {
	switch e := event.(type) {
	case TradeEvent:
		return m.IngestTrade(e)
	case TransferEvent:
		return nil, m.IngestTransfer(e)
	default:
		return nil, fmt.Errorf("unsupported event type %T", event)
	}
}

// IngestTrade consumes one trade event. A positive quantity is an
// acquisition and returns no line; a negative quantity is a disposal and
// returns its realized line. A zero quantity is an error.
func (m *FifoMatcher) IngestTrade(trade TradeEvent) (*RealizedLine, error) {
	switch trade.Quantity.Sign() {
	case 1:
		return nil, m.ingestBuy(trade)
	case -1:
		return m.ingestSell(trade)
	default:
		return nil, fmt.Errorf("trade quantity cannot be zero (%s on %s)", trade.Symbol, trade.Date)
	}
}

func (m *FifoMatcher) ingestBuy(trade TradeEvent) error {
	lot := Lot{
		Date:     trade.Date,
		Qty:      trade.Quantity,
		Basis:    buyCost(trade.Proceeds, trade.CommFee),
		Currency: trade.Currency,
	}
	return m.positions.AppendBuy(trade.Symbol, lot)
}

func (m *FifoMatcher) ingestSell(trade TradeEvent) (*RealizedLine, error) {
	qtyToSell := trade.Quantity.Abs()

	legs, allocCost, remaining, err := m.positions.ConsumeFifo(trade.Symbol, trade.Currency, qtyToSell)
	if err != nil {
		return nil, err
	}

	hasGap := remaining.IsPositive()
	gapFixed := false

	if hasGap {
		var gapEvent *GapEvent
		legs, allocCost, gapEvent = m.gapPolicy.Resolve(trade, remaining, legs, allocCost)
		if gapEvent != nil {
			gapFixed = gapEvent.Fixed
			m.recorder.RecordGap(*gapEvent)
		}
	}

	line := buildRealizedLine(trade, legs, allocCost)
	if hasGap {
		line.HasGap = true
		line.GapFixed = gapFixed
	}
	return line, nil
}

// IngestTransfer consumes one transfer event. A transfer in creates a lot
// with the transfer's market value as substitute basis; a transfer out
// consumes inventory without producing a realized line.
//
// Unlike a sell, a transfer out that the book cannot satisfy is an error: an
// incomplete external transfer cannot be silently approximated.
func (m *FifoMatcher) IngestTransfer(transfer TransferEvent) error {
	if !transfer.Quantity.IsPositive() {
		return fmt.Errorf("transfer quantity must be positive, got %s (%s on %s)", transfer.Quantity, transfer.Symbol, transfer.Date)
	}
	switch transfer.Direction {
	case TransferIn:
		lot := Lot{
			Date:        transfer.Date,
			Qty:         transfer.Quantity,
			Basis:       transfer.MarketValue,
			Currency:    transfer.Currency,
			Transferred: true,
		}
		return m.positions.AppendBuy(transfer.Symbol, lot)
	case TransferOut:
		_, _, remaining, err := m.positions.ConsumeFifo(transfer.Symbol, transfer.Currency, transfer.Quantity)
		if err != nil {
			return err
		}
		if remaining.IsPositive() {
			return fmt.Errorf("transfer out of %s %s on %s exceeds inventory by %s",
				transfer.Quantity, transfer.Symbol, transfer.Date, remaining)
		}
		return nil
	default:
		return fmt.Errorf("unknown transfer direction %q (%s on %s)", transfer.Direction, transfer.Symbol, transfer.Date)
	}
}
