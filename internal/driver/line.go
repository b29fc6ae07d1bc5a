// Package driver implements the line-oriented front-end spec.md §6
// describes: one JSON order per line on stdin, a rendering of the book
// after each successful submission, "exit" to quit. Grounded on
// cmd/client/client.go's CLI shape, adapted from dialing a TCP socket
// to reading stdin directly, because spec.md's driver talks to the book
// in-process rather than over the wire.
package driver

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"ironbook/internal/book"
	"ironbook/internal/common"
)

// OutputMode selects what Line prints after a successful submission.
type OutputMode int

const (
	// Pretty prints the human-readable book rendering (spec.md §4.8).
	Pretty OutputMode = iota
	// Levels prints the JSON levels snapshot (spec.md §6.2).
	Levels
)

// Line is the stdin/stdout order-submission REPL.
type Line struct {
	book   *book.Book
	in     io.Reader
	out    io.Writer
	errOut io.Writer
	mode   OutputMode
}

// New builds a Line driver over an existing book.
func New(b *book.Book, in io.Reader, out, errOut io.Writer, mode OutputMode) *Line {
	return &Line{book: b, in: in, out: out, errOut: errOut, mode: mode}
}

// Run reads one JSON order per line until EOF or the "exit" sentinel.
// Malformed lines are reported to errOut and skipped; they never
// mutate book state. Returns a non-zero-worthy error only on an
// underlying read failure (spec.md §6's exit code contract).
func (l *Line) Run() error {
	scanner := bufio.NewScanner(l.in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" {
			return nil
		}

		var order common.PlainOrder
		if err := json.Unmarshal([]byte(line), &order); err != nil {
			fmt.Fprintf(l.errOut, "error: malformed order: %v\n", err)
			continue
		}

		l.book.Add(&order)
		l.render()
	}
	return scanner.Err()
}

func (l *Line) render() {
	switch l.mode {
	case Levels:
		bids, asks := l.book.Levels()
		out, err := json.Marshal(levelsWire{Bids: toPairs(bids), Asks: toPairs(asks)})
		if err != nil {
			fmt.Fprintf(l.errOut, "error: rendering levels: %v\n", err)
			return
		}
		fmt.Fprintln(l.out, string(out))
	default:
		fmt.Fprint(l.out, l.book.String())
	}
}

// levelsWire mirrors spec.md §6.2's {"bids": [[price, qty], ...],
// "asks": [...]} serialization.
type levelsWire struct {
	Bids [][2]float64 `json:"bids"`
	Asks [][2]float64 `json:"asks"`
}

func toPairs(levels []book.LevelSnapshot) [][2]float64 {
	pairs := make([][2]float64, len(levels))
	for i, l := range levels {
		pairs[i] = [2]float64{l.Price.Float(), float64(l.Quantity)}
	}
	return pairs
}
