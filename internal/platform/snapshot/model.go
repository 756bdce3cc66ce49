package snapshot

import (
	"time"

	"github.com/unifin/unifin/internal/engine/aggregate"
	"github.com/unifin/unifin/internal/engine/record"
)

// SourceFailure describes a linked source that could not contribute to the
// snapshot. The rest of the snapshot is still valid without it.
type SourceFailure struct {
	Source record.Source `json:"source"`
	Link   string        `json:"link"`
	Reason string        `json:"reason"`
}

// RecordIssue is a single malformed record skipped during normalization
type RecordIssue struct {
	Source record.Source `json:"source"`
	Reason string        `json:"reason"`
}

// ExcludedInput is a record the aggregator refused to count
type ExcludedInput struct {
	Kind   string `json:"kind"`
	Ref    string `json:"ref,omitempty"`
	Reason string `json:"reason"`
}

// Overview is the full API-facing snapshot document. It is what gets cached
// and what handlers serialize, so every field carries JSON tags.
type Overview struct {
	GeneratedAt        time.Time           `json:"generated_at"`
	Granularity        string              `json:"granularity"`
	Snapshot           *aggregate.Snapshot `json:"snapshot"`
	UnavailableSources []SourceFailure     `json:"unavailable_sources,omitempty"`
	SkippedRecords     []RecordIssue       `json:"skipped_records,omitempty"`
	ExcludedInputs     []ExcludedInput     `json:"excluded_inputs,omitempty"`
	Duplicates         int                 `json:"duplicates_removed"`
	Cached             bool                `json:"cached"`
}
