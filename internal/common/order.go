package common

import (
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
)

// OrderId is a globally unique, producer-assigned 128-bit identifier.
// It is byte-for-byte the same shape as uuid.UUID so callers that mint
// ids with google/uuid can convert for free, but the core package does
// not otherwise depend on UUID semantics (version bits, string dashes,
// etc) — only on the 128 bits being unique within a book's lifetime.
type OrderId [16]byte

// NewOrderId mints a random OrderId. The engine itself never calls
// this: per spec, ids are assigned by the producer. It exists for
// producers that want one; in this repository only tests call it.
func NewOrderId() OrderId {
	return OrderId(uuid.New())
}

func (id OrderId) String() string {
	return new(big.Int).SetBytes(id[:]).String()
}

// MarshalJSON renders the id as a decimal numeral, per the wire
// format's `<u128>` contract — a plain JSON number can't carry 128
// bits of precision, so it's written as a bare numeral token, which is
// valid JSON and round-trips exactly through big.Int.
func (id OrderId) MarshalJSON() ([]byte, error) {
	return []byte(new(big.Int).SetBytes(id[:]).String()), nil
}

func (id *OrderId) UnmarshalJSON(data []byte) error {
	n := new(big.Int)
	if _, ok := n.SetString(string(data), 10); !ok {
		return fmt.Errorf("common: invalid order id %q", data)
	}
	if n.Sign() < 0 || n.BitLen() > 128 {
		return fmt.Errorf("common: order id %q out of u128 range", data)
	}
	b := n.Bytes()
	var out OrderId
	copy(out[16-len(b):], b)
	*id = out
	return nil
}

// BookId identifies a single instrument's book. Multi-instrument
// routing is an outer dispatcher's concern; BookId exists so that
// concern has something to key on.
type BookId uint64

// Quantity is an unsigned resting or traded size. Zero means "fully
// filled"; a Quantity of zero must never remain resting past prune.
type Quantity uint64

// OrderKind distinguishes which side of the book an order rests on.
type OrderKind int

const (
	Bid OrderKind = iota
	Ask
)

func (k OrderKind) String() string {
	switch k {
	case Bid:
		return "Bid"
	case Ask:
		return "Ask"
	default:
		return "Unknown"
	}
}

func (k OrderKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *OrderKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "Bid":
		*k = Bid
	case "Ask":
		*k = Ask
	default:
		return fmt.Errorf("common: invalid order kind %q", s)
	}
	return nil
}

// Opposite returns the other side of the book. Bid.Opposite() == Ask
// and Ask.Opposite() == Bid; applying it twice is the identity.
func (k OrderKind) Opposite() OrderKind {
	if k == Bid {
		return Ask
	}
	return Bid
}

// Order is the capability set the matching engine needs from any order
// shape. The engine is written against this interface rather than a
// concrete struct so alternative wire-format orders can be matched
// without touching book logic.
type Order interface {
	Id() OrderId
	Kind() OrderKind
	Price() Price
	Quantity() Quantity
	SetQuantity(Quantity)
	CreatedAt() time.Time
	ModifiedAt() time.Time
	SetModifiedAt(time.Time)
	CancelledAt() *time.Time
	SetCancelledAt(time.Time)
	Clone() Order
}

// PlainOrder is the reference concrete Order: the shape spec.md's wire
// format names directly (id, kind, price, quantity, three timestamps).
type PlainOrder struct {
	id         OrderId
	kind       OrderKind
	price      Price
	quantity   Quantity
	createdAt  time.Time
	modifiedAt time.Time
	cancelled  *time.Time
}

// NewPlainOrder constructs a resting-ready order with created/modified
// both set to now.
func NewPlainOrder(id OrderId, kind OrderKind, price Price, quantity Quantity, now time.Time) *PlainOrder {
	return &PlainOrder{
		id:         id,
		kind:       kind,
		price:      price,
		quantity:   quantity,
		createdAt:  now,
		modifiedAt: now,
	}
}

func (o *PlainOrder) Id() OrderId           { return o.id }
func (o *PlainOrder) Kind() OrderKind       { return o.kind }
func (o *PlainOrder) Price() Price          { return o.price }
func (o *PlainOrder) Quantity() Quantity    { return o.quantity }
func (o *PlainOrder) CreatedAt() time.Time  { return o.createdAt }
func (o *PlainOrder) ModifiedAt() time.Time { return o.modifiedAt }

func (o *PlainOrder) SetQuantity(q Quantity) { o.quantity = q }
func (o *PlainOrder) SetModifiedAt(t time.Time) { o.modifiedAt = t }

func (o *PlainOrder) CancelledAt() *time.Time {
	return o.cancelled
}

func (o *PlainOrder) SetCancelledAt(t time.Time) {
	o.cancelled = &t
}

// Clone returns a deep, independent copy. The event journal stores
// clones so later in-place mutation of a resting order (partial fills)
// never rewrites history.
func (o *PlainOrder) Clone() Order {
	clone := *o
	if o.cancelled != nil {
		t := *o.cancelled
		clone.cancelled = &t
	}
	return &clone
}

func (o *PlainOrder) String() string {
	return fmt.Sprintf(
		"Order{id: %s, kind: %s, price: %s, quantity: %d, created: %s, modified: %s, cancelled: %v}",
		o.id, o.kind, o.price, o.quantity,
		o.createdAt.Format(time.RFC3339), o.modifiedAt.Format(time.RFC3339), o.cancelled,
	)
}

// wireOrder mirrors spec.md §6's JSON object exactly, used only at the
// marshal/unmarshal boundary.
type wireOrder struct {
	Id        OrderId    `json:"id"`
	Kind      OrderKind  `json:"kind"`
	Price     Price      `json:"price"`
	Quantity  Quantity   `json:"quantity"`
	Created   time.Time  `json:"created"`
	Modified  time.Time  `json:"modified"`
	Cancelled *time.Time `json:"cancelled"`
}

func (o *PlainOrder) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireOrder{
		Id:        o.id,
		Kind:      o.kind,
		Price:     o.price,
		Quantity:  o.quantity,
		Created:   o.createdAt,
		Modified:  o.modifiedAt,
		Cancelled: o.cancelled,
	})
}

func (o *PlainOrder) UnmarshalJSON(data []byte) error {
	var w wireOrder
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	o.id = w.Id
	o.kind = w.Kind
	o.price = w.Price
	o.quantity = w.Quantity
	o.createdAt = w.Created
	o.modifiedAt = w.Modified
	o.cancelled = w.Cancelled
	return nil
}
