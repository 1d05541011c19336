package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"sancg/internal/downloader"
	"sancg/pkg/crawler"
	"sancg/pkg/models"
)

const (
	ProgressBar   = "█"
	ProgressEmpty = "░"
	barWidth      = 20
)

// StatusTracker prints a progress line per batch. It implements
// crawler.Progress.
type StatusTracker struct {
	out       io.Writer
	version   string
	total     int
	done      int
	written   int
	skipped   int
	failed    int
	startTime time.Time
}

// NewStatusTracker creates a tracker writing to out, or to Output when out
// is nil
func NewStatusTracker(out io.Writer) *StatusTracker {
	if out == nil {
		out = Output
	}
	return &StatusTracker{out: out, startTime: time.Now()}
}

// BatchStarted resets the counters for a new batch
func (st *StatusTracker) BatchStarted(batch models.Batch, entries int) {
	st.version = batch.Version
	st.total = entries
	st.done, st.written, st.skipped, st.failed = 0, 0, 0, 0
	fmt.Fprintf(st.out, "\n%s %s %s\n", Magenta("[SCANNING]"), Yellow(batch.Version), Dim(batch.ListingURL))
}

// ItemDone records one download outcome
func (st *StatusTracker) ItemDone(result downloader.Result) {
	st.done++
	switch {
	case result.Err != nil:
		st.failed++
	case result.Skipped:
		st.skipped++
	default:
		st.written++
	}
	st.PrintProgress()
}

// BatchFinished ends the progress line of a batch
func (st *StatusTracker) BatchFinished(result crawler.BatchResult) {
	if result.Err != nil {
		fmt.Fprintf(st.out, "\n%s %s: %v\n", Red("[FAILED]"), result.Batch.Version, result.Err)
		return
	}
	fmt.Fprintln(st.out)
}

// GetBatchProgress returns a formatted progress bar for the current batch
func (st *StatusTracker) GetBatchProgress() string {
	filled := 0
	if st.total > 0 {
		filled = st.done * barWidth / st.total
	}

	bar := strings.Repeat(ProgressBar, filled) +
		strings.Repeat(ProgressEmpty, barWidth-filled)

	return fmt.Sprintf("[%s] %d/%d", bar, st.done, st.total)
}

// GetElapsedTime returns the elapsed time since tracking started
func (st *StatusTracker) GetElapsedTime() time.Duration {
	return time.Since(st.startTime)
}

// PrintProgress prints the current progress status
func (st *StatusTracker) PrintProgress() {
	fmt.Fprintf(st.out, "\r%s %s new: %d | existing: %d | failed: %d",
		Green("[COLLECTING]"),
		st.GetBatchProgress(),
		st.written, st.skipped, st.failed)
}

// PrintSummary prints the per-batch tallies of a finished run
func PrintSummary(out io.Writer, summary crawler.Summary) {
	if out == nil {
		out = Output
	}

	fmt.Fprintf(out, "\n%s %s\n", Magenta("[RUN COMPLETE]"), Dim(summary.RunID))
	for _, b := range summary.Batches {
		status := Green("ok")
		if b.Err != nil {
			status = Red("failed")
		}
		fmt.Fprintf(out, "  %-6s %-8s new: %d | existing: %d | failed: %d  %s\n",
			b.Batch.Version, status, b.Written, b.Skipped, b.Failed, Dim(b.Directory))
	}
	fmt.Fprintf(out, "%s %d new, %d existing, %d failed in %s\n",
		Cyan("Total:"), summary.Written(), summary.Skipped(), summary.Failed(),
		summary.Duration.Round(time.Millisecond))
}
