// Package engine is the cross-source aggregation and classification core.
// It is a pure, synchronous computation over already-fetched provider
// payloads: normalize, dedupe, classify, aggregate. It performs no I/O and
// holds no mutable state, so concurrent invocations for different users
// need no coordination.
package engine

import (
	"encoding/json"

	"github.com/unifin/unifin/internal/engine/aggregate"
	"github.com/unifin/unifin/internal/engine/classify"
	"github.com/unifin/unifin/internal/engine/dedupe"
	"github.com/unifin/unifin/internal/engine/normalize"
	"github.com/unifin/unifin/internal/engine/record"
)

// SourceInput is one provider's raw payload, fetched by the I/O layer
type SourceInput struct {
	Source  record.Source
	Payload json.RawMessage
}

// Result is the outcome of one snapshot build. FailedSources carries
// sources whose payload was structurally unusable; their absence never
// blanks out data from the sources that worked.
type Result struct {
	Snapshot      *aggregate.Snapshot
	RecordErrors  []*normalize.RecordError
	Excluded      []aggregate.InputError
	FailedSources map[record.Source]error
	Duplicates    int
}

// Engine wires the pipeline stages together
type Engine struct {
	normalizer *normalize.Normalizer
	classifier *classify.Classifier
}

// New creates an engine from a normalizer and classifier
func New(normalizer *normalize.Normalizer, classifier *classify.Classifier) *Engine {
	return &Engine{
		normalizer: normalizer,
		classifier: classifier,
	}
}

// BuildSnapshot runs the full pipeline over a set of source payloads.
// Per-record failures are collected, not fatal; a source with an invalid
// top-level payload is reported in FailedSources and skipped. Empty input
// produces a valid zero snapshot.
func (e *Engine) BuildSnapshot(inputs []SourceInput, opts aggregate.Options) *Result {
	result := &Result{
		FailedSources: make(map[record.Source]error),
	}

	var batch record.Batch
	for _, in := range inputs {
		normalized, recordErrs, err := e.normalizer.Normalize(in.Source, in.Payload)
		result.RecordErrors = append(result.RecordErrors, recordErrs...)
		if err != nil {
			result.FailedSources[in.Source] = err
			continue
		}
		batch.Merge(normalized)
	}

	batch, result.Duplicates = dedupe.Dedupe(batch)
	batch.Transactions = e.classifier.ClassifyAll(batch.Transactions)
	result.Snapshot, result.Excluded = aggregate.Aggregate(batch, opts)

	return result
}
