package extraction

import "fmt"

// ErrorKind classifies pipeline failures. Only MalformedDocument is fatal;
// everything else is recorded and processing continues.
type ErrorKind string

const (
	KindMalformedDocument ErrorKind = "malformed_document"
	KindFieldMiss         ErrorKind = "field_extraction_miss"
	KindTerminologyMiss   ErrorKind = "terminology_miss"
	KindStrategyExhausted ErrorKind = "strategy_exhausted"
	KindCacheUnavailable  ErrorKind = "cache_unavailable"
)

// PipelineError carries the kind alongside a human-readable description.
type PipelineError struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *PipelineError) Unwrap() error { return e.Err }

// Fatal reports whether the error aborts processing.
func (e *PipelineError) Fatal() bool { return e.Kind == KindMalformedDocument }

func malformed(msg string, err error) *PipelineError {
	return &PipelineError{Kind: KindMalformedDocument, Msg: msg, Err: err}
}
