// Package event defines the append-only journal the matching engine
// writes to on every mutating call. Grounded on original_source's
// event.rs (EventKind / Match::{Full,Partial} / MatchInfo), which spec.md
// §3–§4.4 describe directly.
package event

import (
	"time"

	"ironbook/internal/common"
)

// MatchFullness distinguishes a trade that fully consumed the
// incumbent's resting quantity from one that only partially consumed it.
type MatchFullness int

const (
	// Full means the incumbent's quantity reached zero on this trade.
	Full MatchFullness = iota
	// Partial means the incumbent still has quantity resting after
	// this trade.
	Partial
)

func (f MatchFullness) String() string {
	if f == Full {
		return "Full"
	}
	return "Partial"
}

// Counterparty pairs an incoming order with the quantity that traded
// against the incumbent in this event — not necessarily the
// counterparty's full remaining quantity.
type Counterparty struct {
	Order    common.Order
	Quantity common.Quantity
}

// MatchInfo records one executed trade: the resting order being
// matched against (the incumbent) and the incoming counterparties that
// consumed it.
type MatchInfo struct {
	Incumbent common.Order
	Others    []Counterparty
}

// Kind is the sum type of everything that can happen to the book.
// Exactly one of Post / Match / Cancel is ever populated on a given
// Event.
type Kind struct {
	Post  common.Order
	Match *struct {
		Fullness MatchFullness
		Info     MatchInfo
	}
	Cancel common.Order
}

// PostEvent builds a Kind recording a resting-liquidity insertion.
func PostEvent(order common.Order) Kind {
	return Kind{Post: order}
}

// MatchEvent builds a Kind recording an executed trade.
func MatchEvent(fullness MatchFullness, info MatchInfo) Kind {
	return Kind{Match: &struct {
		Fullness MatchFullness
		Info     MatchInfo
	}{Fullness: fullness, Info: info}}
}

// CancelEvent builds a Kind recording a cancellation.
func CancelEvent(order common.Order) Kind {
	return Kind{Cancel: order}
}

// Event is one entry in the journal: a timestamp and what happened.
type Event struct {
	Timestamp time.Time
	Kind      Kind
}

// Journal is an append-only, monotonically timestamped log. It is not
// safe for concurrent use without external synchronization, matching
// the rest of the book's concurrency model (spec.md §5): a single
// logical writer per book.
type Journal struct {
	events []Event
}

// Append records one event, stamped with now. Callers must supply a
// monotonically non-decreasing now across calls on the same journal;
// the book's public operations guarantee this by timestamping once per
// call with time.Now().
func (j *Journal) Append(now time.Time, kind Kind) {
	j.events = append(j.events, Event{Timestamp: now, Kind: kind})
}

// Events returns the full journal in append order. The returned slice
// aliases internal storage and must be treated as read-only.
func (j *Journal) Events() []Event {
	return j.events
}

// Len reports how many events have been recorded.
func (j *Journal) Len() int {
	return len(j.events)
}
