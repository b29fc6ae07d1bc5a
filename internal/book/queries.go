package book

import "ironbook/internal/common"

// LevelSnapshot is a (price, aggregate quantity) pair used for
// serialization and display (spec.md §4.7, §6.2).
type LevelSnapshot struct {
	Price    common.Price
	Quantity common.Quantity
}

// Top returns the best bid and best ask, each nil if that side has no
// resting liquidity.
func (b *Book) Top() (bestBid, bestAsk *common.Price) {
	if level, ok := b.bids.Max(); ok {
		p := level.Price
		bestBid = &p
	}
	if level, ok := b.asks.Min(); ok {
		p := level.Price
		bestAsk = &p
	}
	return
}

// LTP returns the last traded price, or nil if no match has occurred.
func (b *Book) LTP() *common.Price {
	return b.ltp
}

// Depth returns the aggregate resting quantity on each side.
func (b *Book) Depth() (bidDepth, askDepth common.Quantity) {
	return b.bidDepth, b.askDepth
}

// Crossed reports whether the book is in an overlapping state: both
// sides resting and the best ask at or below the best bid. Under
// normal operation this is always false once Add returns — Add always
// matches away a cross before returning — so Crossed exists purely as
// an invariant check for callers (e.g. tests) that want to assert the
// book never settles in a crossed state.
func (b *Book) Crossed() bool {
	bid, ask := b.Top()
	if bid == nil || ask == nil {
		return false
	}
	return ask.Compare(*bid) <= 0
}

// Levels snapshots both sides, ascending by price.
func (b *Book) Levels() (bids, asks []LevelSnapshot) {
	b.bids.Scan(func(level *PriceLevel) bool {
		bids = append(bids, LevelSnapshot{Price: level.Price, Quantity: level.TotalQuantity()})
		return true
	})
	b.asks.Scan(func(level *PriceLevel) bool {
		asks = append(asks, LevelSnapshot{Price: level.Price, Quantity: level.TotalQuantity()})
		return true
	})
	return
}

// Order looks up a resting order by id.
func (b *Book) Order(id common.OrderId) (common.Order, bool) {
	loc, ok := b.orderIndex[id]
	if !ok {
		return nil, false
	}
	level, ok := b.treeFor(loc.kind).Get(&PriceLevel{Price: loc.price})
	if !ok {
		return nil, false
	}
	for _, o := range level.Orders {
		if o.Id() == id {
			return o, true
		}
	}
	return nil, false
}
