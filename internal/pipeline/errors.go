package pipeline

import "fmt"

// Kind classifies a per-document failure. No single document's failure
// aborts processing of other documents in the same run.
type Kind string

const (
	KindFetchTransient Kind = "fetch_transient"
	KindFetchPermanent Kind = "fetch_permanent"
	KindParse          Kind = "structural_parse"
	KindStorage        Kind = "storage_write"
)

// DocumentError attributes a failure to one document.
type DocumentError struct {
	Title int
	Kind  Kind
	Err   error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("title %d: %s: %v", e.Title, e.Kind, e.Err)
}

func (e *DocumentError) Unwrap() error { return e.Err }
