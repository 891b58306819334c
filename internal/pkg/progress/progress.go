// Package progress prints human-readable download progress. It is
// observational only; the pipeline never reads anything back from it.
package progress

import (
	"fmt"
	"io"
	"time"
)

// Console rewrites a single progress line as tiles complete and prints a
// summary at the end. It is driven by the pipeline's single result
// drainer, so it needs no locking.
type Console struct {
	out   io.Writer
	total int
	start time.Time
}

// NewConsole creates a Console writing to out.
func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

// Start records the total tile count and the start time.
func (c *Console) Start(total int) {
	c.total = total
	c.start = time.Now()
	fmt.Fprintf(c.out, "downloading %d tiles\n", total)
}

// Advance rewrites the progress line for the completed tile count.
func (c *Console) Advance(completed int) {
	pct := 0.0
	if c.total > 0 {
		pct = float64(completed) / float64(c.total) * 100
	}
	rate := 0.0
	if elapsed := time.Since(c.start).Seconds(); elapsed > 0 {
		rate = float64(completed) / elapsed
	}
	fmt.Fprintf(c.out, "\rtile %d/%d (%.1f%%) - %.1f tiles/sec", completed, c.total, pct, rate)
}

// Finish terminates the progress line and prints the run summary.
func (c *Console) Finish(downloaded, failed int, elapsed time.Duration) {
	fmt.Fprintf(c.out, "\ndownloaded %d tiles, %d failed in %s\n",
		downloaded, failed, elapsed.Round(time.Millisecond))
}
