package crawler

import (
	"errors"
	"fmt"
	"time"

	"sancg/pkg/models"
)

// BatchResult tallies one batch
type BatchResult struct {
	Batch     models.Batch
	Directory string
	Links     int
	Entries   int
	Written   int
	Skipped   int
	Failed    int
	Duration  time.Duration
	Err       error
}

// Summary collects the batch results of one run
type Summary struct {
	RunID    string
	Naming   string
	Batches  []BatchResult
	Duration time.Duration
}

// Written returns the number of files stored across all batches
func (s Summary) Written() int {
	n := 0
	for _, b := range s.Batches {
		n += b.Written
	}
	return n
}

// Skipped returns the number of files that already existed
func (s Summary) Skipped() int {
	n := 0
	for _, b := range s.Batches {
		n += b.Skipped
	}
	return n
}

// Failed returns the number of failed downloads
func (s Summary) Failed() int {
	n := 0
	for _, b := range s.Batches {
		n += b.Failed
	}
	return n
}

// Err joins the errors of all failed batches
func (s Summary) Err() error {
	var errs []error
	for _, b := range s.Batches {
		if b.Err != nil {
			errs = append(errs, fmt.Errorf("batch %s: %w", b.Batch.Version, b.Err))
		}
	}
	return errors.Join(errs...)
}
