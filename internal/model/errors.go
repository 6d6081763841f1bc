package model

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for the failure kinds callers branch on
var (
	// ErrNotFound is returned by store lookups for unknown IDs
	ErrNotFound = errors.New("item not found")

	// ErrStorageUnavailable marks an underlying I/O failure in the store.
	// It is fatal for the remaining writes of a cycle but never for reads.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrMalformedContent marks an item with an empty body after extraction.
	// Such items are skipped and counted, never stored or escalated.
	ErrMalformedContent = errors.New("malformed content")
)

// SourceError records one adapter failure inside a cycle
type SourceError struct {
	Source string    `json:"source"`
	Err    string    `json:"error"`
	At     time.Time `json:"at"`
}

// CycleReport is the diagnostic record of one ingestion cycle
type CycleReport struct {
	Started        time.Time     `json:"started"`
	Finished       time.Time     `json:"finished"`
	Sources        []string      `json:"sources"`
	Fetched        int           `json:"fetched"`
	Stored         int           `json:"stored"`
	Updated        int           `json:"updated"`
	Duplicates     int           `json:"duplicates"`
	Skipped        int           `json:"skipped"` // malformed items
	Errors         []SourceError `json:"errors,omitempty"`
	PartialFailure bool          `json:"partial_failure"` // storage gave out mid-cycle
}

// RecordError appends an adapter failure to the report
func (r *CycleReport) RecordError(source string, err error, at time.Time) {
	r.Errors = append(r.Errors, SourceError{
		Source: source,
		Err:    fmt.Sprintf("%v", err),
		At:     at,
	})
}
