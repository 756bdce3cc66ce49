package normalize

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/unifin/unifin/internal/engine/record"
)

// ErrUnknownSource is returned when no adapter is registered for a source
var ErrUnknownSource = errors.New("no adapter registered for source")

// ErrInvalidPayload is returned when a provider payload is not structurally
// parseable (e.g. not a list where a list is expected). It is fatal for
// that source only.
var ErrInvalidPayload = errors.New("invalid provider payload")

// RecordError reports a single raw record that failed normalization.
// The batch it came from is still processed; callers surface these to
// the API response so bad records are never silently dropped.
type RecordError struct {
	Source record.Source   `json:"source"`
	Reason string          `json:"reason"`
	Raw    json.RawMessage `json:"raw,omitempty"`
}

// Error implements the error interface
func (e *RecordError) Error() string {
	return fmt.Sprintf("normalize %s: %s", e.Source, e.Reason)
}

// NewRecordError builds a RecordError, capturing the offending raw form.
// raw may be any JSON-marshalable value; marshal failures leave Raw empty.
func NewRecordError(source record.Source, reason string, raw interface{}) *RecordError {
	e := &RecordError{Source: source, Reason: reason}
	switch v := raw.(type) {
	case nil:
	case json.RawMessage:
		e.Raw = v
	case []byte:
		e.Raw = json.RawMessage(v)
	default:
		if data, err := json.Marshal(v); err == nil {
			e.Raw = data
		}
	}
	return e
}
