// Package strategy holds software models of the co-processor used when no
// hardware simulation is attached to the bridge.
package strategy

import (
	"math"
	"sync"

	bridge "github.com/Zereker/fpgabridge"
)

// Action codes carried in OutboundRecord.Action.
const (
	ActionHold int32 = 0
	ActionBuy  int32 = 1
	ActionSell int32 = 2
)

const (
	// StrongQueueQty is the minimum resting quantity of a queue worth joining.
	StrongQueueQty = 100
	// LotSize is the quantity of every new entry.
	LotSize = 50
)

// ZeroPlus models the 0+ queue strategy: join a strong queue while flat with
// a one tick spread, and scratch the fill as soon as its queue weakens or
// the price trades through it.
//
// The inbound Position field is authoritative. The side and price of the
// last entry are kept so later snapshots can be checked against them, and a
// scratch is repeated until the position reported back is flat.
type ZeroPlus struct {
	mu        sync.Mutex
	lastSide  int32
	lastPrice int32
	scratches int
}

// NewZeroPlus returns a flat strategy.
func NewZeroPlus() *ZeroPlus {
	return &ZeroPlus{}
}

// Process returns the action for one snapshot. Done and Ready are always
// set; Idle is set only when the strategy holds.
func (z *ZeroPlus) Process(in bridge.InboundRecord) bridge.OutboundRecord {
	z.mu.Lock()
	defer z.mu.Unlock()

	if in.Position == 0 {
		z.lastSide, z.lastPrice = ActionHold, 0
	} else if z.shouldScratch(in) {
		return z.scratch(in)
	}

	return z.enter(in)
}

// Scratches returns how many scratch orders were produced.
func (z *ZeroPlus) Scratches() int {
	z.mu.Lock()
	defer z.mu.Unlock()
	return z.scratches
}

// Reset forgets the last fill, as at the start of a new driver session.
func (z *ZeroPlus) Reset() {
	z.mu.Lock()
	defer z.mu.Unlock()
	z.lastSide, z.lastPrice, z.scratches = ActionHold, 0, 0
}

func (z *ZeroPlus) shouldScratch(in bridge.InboundRecord) bool {
	switch z.lastSide {
	case ActionBuy:
		return in.BidStrong == 0 || in.BidPrice < z.lastPrice
	case ActionSell:
		return in.AskStrong == 0 || in.AskPrice > z.lastPrice
	default:
		return false
	}
}

func (z *ZeroPlus) scratch(in bridge.InboundRecord) bridge.OutboundRecord {
	qty := int64(in.Position)
	if qty < 0 {
		qty = -qty
	}

	out := bridge.OutboundRecord{Quantity: int32(min(qty, math.MaxInt32)), Done: 1, Ready: 1}
	if z.lastSide == ActionBuy {
		out.Action, out.Price = ActionSell, in.BidPrice
	} else {
		out.Action, out.Price = ActionBuy, in.AskPrice
	}

	z.scratches++
	return out
}

func (z *ZeroPlus) enter(in bridge.InboundRecord) bridge.OutboundRecord {
	if in.Position != 0 || in.AskPrice-in.BidPrice != 1 {
		return hold()
	}

	var out bridge.OutboundRecord
	switch {
	case in.BidStrong != 0 && in.BidQty >= StrongQueueQty:
		out = bridge.OutboundRecord{Action: ActionBuy, Price: in.BidPrice, Quantity: LotSize, Done: 1, Ready: 1}
	case in.AskStrong != 0 && in.AskQty >= StrongQueueQty:
		out = bridge.OutboundRecord{Action: ActionSell, Price: in.AskPrice, Quantity: LotSize, Done: 1, Ready: 1}
	default:
		return hold()
	}

	z.lastSide, z.lastPrice = out.Action, out.Price
	return out
}

func hold() bridge.OutboundRecord {
	return bridge.OutboundRecord{Action: ActionHold, Done: 1, Idle: 1, Ready: 1}
}
