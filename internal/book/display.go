package book

import (
	"fmt"
	"strings"
)

// String renders a human-readable book: asks descending (best ask at
// the bottom of the ask column, adjacent to the best bid) over bids
// descending (best bid on top) — spec.md §4.8. This is a convenience
// built on top of the tree's natural iteration order; it does not
// touch Levels() or its JSON serialization.
func (b *Book) String() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s (%s)\n", b.metadata.Name, b.metadata.Ticker)

	b.asks.Reverse(func(level *PriceLevel) bool {
		fmt.Fprintf(&sb, "  %12s  x%d\n", level.Price, level.TotalQuantity())
		return true
	})

	sb.WriteString("  ------------\n")

	b.bids.Reverse(func(level *PriceLevel) bool {
		fmt.Fprintf(&sb, "  %12s  x%d\n", level.Price, level.TotalQuantity())
		return true
	})

	if b.ltp != nil {
		fmt.Fprintf(&sb, "ltp: %s\n", *b.ltp)
	} else {
		sb.WriteString("ltp: (none)\n")
	}

	return sb.String()
}
