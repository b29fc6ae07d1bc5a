// Package book implements the matching engine: a two-sided,
// price-indexed order book with strict price-time priority and an
// append-only event journal. Grounded on the teacher's
// internal/engine/orderbook.go (tidwall/btree price-level maps, the
// level-as-order-slice FIFO shape) and on original_source's
// src/book/btree_book.rs for the match-loop semantics spec.md describes.
package book

import (
	"time"

	"github.com/tidwall/btree"

	"ironbook/internal/common"
	"ironbook/internal/event"
)

// PriceLevel holds every resting order at a single price, in arrival
// (FIFO) order.
type PriceLevel struct {
	Price  common.Price
	Orders []common.Order
}

// TotalQuantity sums the remaining quantity of every order resting at
// this level.
func (l *PriceLevel) TotalQuantity() common.Quantity {
	var total common.Quantity
	for _, o := range l.Orders {
		total += o.Quantity()
	}
	return total
}

func levelLess(a, b *PriceLevel) bool {
	return a.Price.Less(b.Price)
}

// Observer is notified of every event the book appends to its journal.
// internal/metrics implements this to drive Prometheus counters; it is
// optional and the book works identically without one.
type Observer interface {
	Observe(event.Event)
}

type location struct {
	kind  common.OrderKind
	price common.Price
}

// Metadata identifies a book independent of its contents.
type Metadata struct {
	Id     common.BookId
	Name   string
	Ticker string
}

// Book is a single-instrument limit order book. It is not internally
// synchronized: per spec, a host embedding it in a concurrent
// environment is responsible for serializing Add/Cancel calls
// (internal/server does this with a single matching goroutine).
type Book struct {
	metadata Metadata

	bids *btree.BTreeG[*PriceLevel]
	asks *btree.BTreeG[*PriceLevel]

	ltp *common.Price

	bidDepth common.Quantity
	askDepth common.Quantity

	journal event.Journal

	orderIndex map[common.OrderId]location

	observer Observer
}

// New constructs an empty book.
func New(id common.BookId, name, ticker string) *Book {
	return &Book{
		metadata:   Metadata{Id: id, Name: name, Ticker: ticker},
		bids:       btree.NewBTreeG(levelLess),
		asks:       btree.NewBTreeG(levelLess),
		orderIndex: make(map[common.OrderId]location),
	}
}

// SetObserver registers the single observer notified of future events.
// Passing nil detaches it.
func (b *Book) SetObserver(o Observer) {
	b.observer = o
}

// Metadata returns the book's identity.
func (b *Book) Metadata() Metadata { return b.metadata }

func (b *Book) treeFor(kind common.OrderKind) *btree.BTreeG[*PriceLevel] {
	if kind == common.Bid {
		return b.bids
	}
	return b.asks
}

func (b *Book) addDepth(kind common.OrderKind, q common.Quantity) {
	if kind == common.Bid {
		b.bidDepth += q
	} else {
		b.askDepth += q
	}
}

func (b *Book) subDepth(kind common.OrderKind, q common.Quantity) {
	if kind == common.Bid {
		b.bidDepth -= q
	} else {
		b.askDepth -= q
	}
}

func (b *Book) appendEvent(now time.Time, kind event.Kind) {
	b.journal.Append(now, kind)
	if b.observer != nil {
		b.observer.Observe(event.Event{Timestamp: now, Kind: kind})
	}
}

// Events returns the full append-only journal in the order events were
// produced.
func (b *Book) Events() []event.Event {
	return b.journal.Events()
}

// crosses answers: would an incoming order of this kind at this limit
// price match against the current top of the opposing side?
func (b *Book) crosses(price common.Price, kind common.OrderKind) bool {
	switch kind {
	case common.Bid:
		ask, ok := b.asks.Min()
		return ok && price.Compare(ask.Price) >= 0
	default:
		bid, ok := b.bids.Max()
		return ok && price.Compare(bid.Price) <= 0
	}
}

// Add is the public entry point (spec.md §4.2). If the incoming order
// doesn't cross, it rests on its own side. If it does cross, it is run
// through the match loop against the opposing side and any unfilled
// remainder is dropped — it is never reposted as resting liquidity
// (Open Question 1 in spec.md §9, resolved in DESIGN.md).
func (b *Book) Add(order common.Order) {
	now := time.Now()
	if !b.crosses(order.Price(), order.Kind()) {
		b.addOrder(now, order)
		return
	}
	b.matchLoop(now, order)
	b.prune()
}

// addOrder appends the order to its side's level, bumps depth, and
// journals a Post.
func (b *Book) addOrder(now time.Time, order common.Order) {
	tree := b.treeFor(order.Kind())
	key := &PriceLevel{Price: order.Price()}
	level, ok := tree.Get(key)
	if !ok {
		level = &PriceLevel{Price: order.Price()}
		tree.Set(level)
	}
	level.Orders = append(level.Orders, order)
	b.addDepth(order.Kind(), order.Quantity())
	b.orderIndex[order.Id()] = location{kind: order.Kind(), price: order.Price()}
	b.appendEvent(now, event.PostEvent(order.Clone()))
}

// matchLoop runs an incoming, crossing order against the opposing
// side's resting liquidity in strict price-time priority (spec.md
// §4.4). Precondition: crosses(order.Price(), order.Kind()) is true.
func (b *Book) matchLoop(now time.Time, incoming common.Order) {
	remaining := incoming.Quantity()
	opposite := incoming.Kind().Opposite()
	tree := b.treeFor(opposite)

	var ltp common.Price
	traded := false

	visit := func(level *PriceLevel) bool {
		if remaining == 0 {
			return false
		}
		switch incoming.Kind() {
		case common.Bid:
			if level.Price.Compare(incoming.Price()) > 0 {
				return false
			}
		case common.Ask:
			if level.Price.Compare(incoming.Price()) < 0 {
				return false
			}
		}

		for _, incumbent := range level.Orders {
			if remaining == 0 {
				break
			}
			qi := incumbent.Quantity()
			if qi == 0 {
				continue
			}

			switch {
			case qi > remaining:
				b.appendEvent(now, event.MatchEvent(event.Partial, event.MatchInfo{
					Incumbent: incumbent.Clone(),
					Others:    []event.Counterparty{{Order: incoming.Clone(), Quantity: remaining}},
				}))
				incumbent.SetQuantity(qi - remaining)
				incumbent.SetModifiedAt(now)
				b.subDepth(opposite, remaining)
				ltp = level.Price
				traded = true
				remaining = 0
			case qi == remaining:
				b.appendEvent(now, event.MatchEvent(event.Full, event.MatchInfo{
					Incumbent: incumbent.Clone(),
					Others:    []event.Counterparty{{Order: incoming.Clone(), Quantity: remaining}},
				}))
				incumbent.SetQuantity(0)
				incumbent.SetModifiedAt(now)
				b.subDepth(opposite, qi)
				ltp = level.Price
				traded = true
				remaining = 0
			default: // qi < remaining
				b.appendEvent(now, event.MatchEvent(event.Full, event.MatchInfo{
					Incumbent: incumbent.Clone(),
					Others:    []event.Counterparty{{Order: incoming.Clone(), Quantity: qi}},
				}))
				incumbent.SetQuantity(0)
				incumbent.SetModifiedAt(now)
				b.subDepth(opposite, qi)
				ltp = level.Price
				traded = true
				remaining -= qi
			}
		}
		return remaining > 0
	}

	if incoming.Kind() == common.Bid {
		tree.Scan(visit)
	} else {
		tree.Reverse(visit)
	}

	incoming.SetQuantity(remaining)
	incoming.SetModifiedAt(now)

	// Open Question 2 (spec.md §9): a no-op match (zero incoming
	// quantity never reaches the per-incumbent arms above) leaves LTP
	// untouched rather than resetting it to the incoming order's limit.
	if traded {
		b.ltp = &ltp
	}
}

// prune removes every resting order whose quantity has reached zero
// and every level left empty by that removal (spec.md §4.5). It is
// idempotent and safe to call repeatedly.
func (b *Book) prune() {
	b.pruneSide(b.bids)
	b.pruneSide(b.asks)
}

func (b *Book) pruneSide(tree *btree.BTreeG[*PriceLevel]) {
	var empty []common.Price
	tree.Scan(func(level *PriceLevel) bool {
		n := 0
		for _, o := range level.Orders {
			if o.Quantity() > 0 {
				level.Orders[n] = o
				n++
			} else {
				delete(b.orderIndex, o.Id())
			}
		}
		level.Orders = level.Orders[:n]
		if len(level.Orders) == 0 {
			empty = append(empty, level.Price)
		}
		return true
	})
	for _, p := range empty {
		tree.Delete(&PriceLevel{Price: p})
	}
}

// Cancel removes a resting order by id (spec.md §4.6). It returns the
// cancelled order snapshot and true, or (nil, false) if no resting
// order has that id.
func (b *Book) Cancel(id common.OrderId) (common.Order, bool) {
	loc, ok := b.orderIndex[id]
	if !ok {
		return nil, false
	}
	tree := b.treeFor(loc.kind)
	level, ok := tree.Get(&PriceLevel{Price: loc.price})
	if !ok {
		return nil, false
	}

	idx := -1
	for i, o := range level.Orders {
		if o.Id() == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, false
	}

	order := level.Orders[idx]
	now := time.Now()
	order.SetCancelledAt(now)
	order.SetModifiedAt(now)
	b.appendEvent(now, event.CancelEvent(order.Clone()))

	b.subDepth(loc.kind, order.Quantity())
	level.Orders = append(level.Orders[:idx:idx], level.Orders[idx+1:]...)
	if len(level.Orders) == 0 {
		tree.Delete(&PriceLevel{Price: loc.price})
	}
	delete(b.orderIndex, id)

	return order, true
}
