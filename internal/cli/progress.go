package cli

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/mvp-joe/autodoc/internal/parsers"
)

// CLIProgressReporter shows a progress bar while summaries are requested.
type CLIProgressReporter struct {
	out   io.Writer
	mu    sync.Mutex
	bar   *progressbar.ProgressBar
	total int
	done  int
}

// NewCLIProgressReporter creates a reporter drawing on out (usually stderr,
// so dry-run output on stdout stays clean).
func NewCLIProgressReporter(out io.Writer) *CLIProgressReporter {
	return &CLIProgressReporter{out: out}
}

func (c *CLIProgressReporter) OnSummariesStart(total int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.total = total
	c.done = 0
	if total == 0 {
		return
	}

	c.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(c.out),
		progressbar.OptionSetDescription("Summarizing definitions"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(c.out)
		}),
	)
}

func (c *CLIProgressReporter) OnSummaryDone(def parsers.Definition) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.done++
	if c.bar != nil {
		c.bar.Add(1)
	}
}

func (c *CLIProgressReporter) OnSummariesComplete() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.bar != nil {
		// Finish also covers early exits where not every summary arrived.
		c.bar.Finish()
		c.bar = nil
	}
}

// Progress returns how many summaries have completed out of the total.
func (c *CLIProgressReporter) Progress() (done, total int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done, c.total
}
