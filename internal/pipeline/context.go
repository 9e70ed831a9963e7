package pipeline

import (
	"log"
	"sort"
	"time"

	"github.com/bclonan/ecfr-analyzer/internal/checksum"
	"github.com/bclonan/ecfr-analyzer/internal/enrich"
	"github.com/bclonan/ecfr-analyzer/internal/fetch"
	"github.com/bclonan/ecfr-analyzer/internal/metrics"
	"github.com/bclonan/ecfr-analyzer/internal/normalize"
	"github.com/bclonan/ecfr-analyzer/internal/search"
	"github.com/bclonan/ecfr-analyzer/internal/store"
)

// Status tracks one document through a run.
type Status string

const (
	// StatusPending: selected but not yet fetched.
	StatusPending Status = "pending"
	// StatusUnchanged: checksum short-circuit, no further work this run.
	StatusUnchanged Status = "unchanged"
	// StatusLive: changed content flowing through the chain.
	StatusLive Status = "live"
	// StatusFailed: a step recorded a DocumentError; later steps skip it.
	StatusFailed Status = "failed"
	// StatusSucceeded: all steps done and the checksum entry advanced.
	StatusSucceeded Status = "succeeded"
)

// DocState is the per-document working state shared by every step in a
// chain. Steps mutate only the state of documents they own; the worker pool
// partitions by title so no two goroutines touch the same DocState.
type DocState struct {
	Title    int
	Raw      []byte
	Digest   string
	Doc      *normalize.Document
	Refs     map[string][]enrich.Reference
	Scores   []metrics.SectionMetric
	Rollups  []metrics.PartMetric
	Status   Status
	Err      *DocumentError
	Warnings []string
}

// Fail marks the document failed; later steps in the chain skip it.
func (d *DocState) Fail(kind Kind, err error) {
	d.Status = StatusFailed
	d.Err = &DocumentError{Title: d.Title, Kind: kind, Err: err}
}

// Context is the mutable shared context for one run. It carries the selected
// document set, collaborator handles, and accumulated per-document state.
type Context struct {
	Titles    Titles
	Docs      map[int]*DocState
	Checksums *checksum.Store
	Fetcher   *fetch.Fetcher
	Store     *store.Store
	Search    *search.Index
	Workers   int
	Force     bool
	Logger    *log.Logger
}

// Titles is the ordered document selection for a run.
type Titles []int

// NewContext builds a run context over the given titles. Titles are sorted
// so step iteration order, and therefore stored output, is deterministic.
func NewContext(titles []int) *Context {
	sorted := append(Titles(nil), titles...)
	sort.Ints(sorted)
	docs := make(map[int]*DocState, len(sorted))
	for _, t := range sorted {
		docs[t] = &DocState{Title: t, Status: StatusPending}
	}
	return &Context{
		Titles:  sorted,
		Docs:    docs,
		Workers: 5,
		Logger:  log.Default(),
	}
}

// Live returns the documents still flowing through the chain, in title
// order.
func (c *Context) Live() []*DocState {
	var out []*DocState
	for _, t := range c.Titles {
		if d := c.Docs[t]; d.Status == StatusLive {
			out = append(out, d)
		}
	}
	return out
}

// Outcome is one document's result in the run summary.
type Outcome struct {
	Title  int
	Status Status
	Kind   Kind
	Detail string
}

// Summary aggregates per-document outcomes for one run.
type Summary struct {
	RunID     string
	Chain     []string
	Started   time.Time
	Finished  time.Time
	Outcomes  []Outcome
	Succeeded int
	Unchanged int
	Failed    int
}

func (c *Context) summarize() []Outcome {
	out := make([]Outcome, 0, len(c.Titles))
	for _, t := range c.Titles {
		d := c.Docs[t]
		o := Outcome{Title: t, Status: d.Status}
		if d.Err != nil {
			o.Kind = d.Err.Kind
			o.Detail = d.Err.Error()
		}
		out = append(out, o)
	}
	return out
}
