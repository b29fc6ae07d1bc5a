// Package common holds the value types and order shapes shared by the
// matching engine, the event journal, and the wire protocols built on
// top of them.
package common

import (
	"encoding/json"
	"errors"
	"math"
)

// ErrNonFinitePrice is returned by NewPrice when asked to wrap NaN or
// an infinity. Raw floats aren't totally ordered once NaN is in play,
// so it's rejected at the boundary instead of canonicalized.
var ErrNonFinitePrice = errors.New("common: price must be finite")

// Price wraps a float64 with a total order, so it can be used as a key
// in an ordered map. Construction is the only place non-finite values
// are checked; afterwards every Price compares and orders like a normal
// number.
type Price struct {
	bits uint64
}

// NewPrice validates and wraps a raw price.
func NewPrice(p float64) (Price, error) {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return Price{}, ErrNonFinitePrice
	}
	if p == 0 {
		p = 0 // canonicalize -0 so both zeros are the same key
	}
	return Price{bits: orderedBits(p)}, nil
}

// MustPrice panics on a non-finite input. Convenient for tests and
// literal construction where the value is known to be valid.
func MustPrice(p float64) Price {
	price, err := NewPrice(p)
	if err != nil {
		panic(err)
	}
	return price
}

// orderedBits maps a finite float64's IEEE-754 bit pattern onto a
// uint64 whose natural ordering agrees with the float's numeric order.
// Positive floats already sort correctly as bit patterns; negative
// floats sort backwards, so their bits are flipped entirely. This is
// the same trick used by languages whose float map keys need a total
// order (e.g. ordered-float in Rust).
func orderedBits(p float64) uint64 {
	bits := math.Float64bits(p)
	if bits&(1<<63) != 0 {
		return ^bits
	}
	return bits | (1 << 63)
}

func fromOrderedBits(bits uint64) float64 {
	if bits&(1<<63) != 0 {
		return math.Float64frombits(bits &^ (1 << 63))
	}
	return math.Float64frombits(^bits)
}

// Float returns the underlying float64 value.
func (p Price) Float() float64 { return fromOrderedBits(p.bits) }

// Less reports whether p orders strictly before other.
func (p Price) Less(other Price) bool { return p.bits < other.bits }

// Compare returns -1, 0, or 1 as p is less than, equal to, or greater
// than other.
func (p Price) Compare(other Price) int {
	switch {
	case p.bits < other.bits:
		return -1
	case p.bits > other.bits:
		return 1
	default:
		return 0
	}
}

func (p Price) String() string { return formatFloat(p.Float()) }

// MarshalJSON renders the price as a plain JSON number.
func (p Price) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Float())
}

// UnmarshalJSON parses a plain JSON number and rejects non-finite
// values the same way NewPrice does.
func (p *Price) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	price, err := NewPrice(f)
	if err != nil {
		return err
	}
	*p = price
	return nil
}

func formatFloat(f float64) string {
	buf, _ := json.Marshal(f)
	return string(buf)
}
