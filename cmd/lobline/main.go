// Command lobline is the stdin/stdout order-submission driver: one JSON
// order per line, rendering the book after each accepted submission.
// Grounded on cmd/client/client.go's CLI flag shape.
package main

import (
	"flag"
	"os"

	"ironbook/internal/book"
	"ironbook/internal/driver"
)

func main() {
	levels := flag.Bool("levels", false, "print JSON levels snapshots instead of the pretty book rendering")
	flag.Parse()

	mode := driver.Pretty
	if *levels {
		mode = driver.Levels
	}

	b := book.New(1, "Primary", "IRON")
	d := driver.New(b, os.Stdin, os.Stdout, os.Stderr, mode)
	if err := d.Run(); err != nil {
		os.Stderr.WriteString("error: " + err.Error() + "\n")
		os.Exit(1)
	}
}
