// Package pipeline orchestrates the ingest chain: download, normalize,
// enrich, metrics, store, index, commit. Steps run strictly in order over
// the whole document set; a failure in any step removes only the affected
// document from later steps. The checksum entry for a document moves only
// in the final commit step, so an interrupted or partially failed run is
// always retried in full on the next pass.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Runner executes chains resolved against its registry.
type Runner struct {
	Registry *Registry
}

// NewRunner returns a runner over the standard step registry.
func NewRunner() *Runner {
	return &Runner{Registry: NewRegistry()}
}

// Run resolves and executes the named chain over the run context. Unknown
// step names abort before anything executes. The returned summary covers
// every selected document, including unchanged and failed ones.
func (r *Runner) Run(ctx context.Context, pc *Context, chain []string) (*Summary, error) {
	if len(chain) == 0 {
		chain = DefaultChain()
	}
	steps, err := r.Registry.Resolve(chain)
	if err != nil {
		return nil, err
	}

	sum := &Summary{
		RunID:   uuid.NewString(),
		Chain:   chain,
		Started: time.Now().UTC(),
	}
	pc.Logger.Printf("run %s: %d titles, chain %v", sum.RunID, len(pc.Titles), chain)

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		start := time.Now()
		if err := step.Run(ctx, pc); err != nil {
			return nil, err
		}
		stepDuration.WithLabelValues(step.Name()).Observe(time.Since(start).Seconds())
	}

	sum.Finished = time.Now().UTC()
	sum.Outcomes = pc.summarize()
	for _, o := range sum.Outcomes {
		docsProcessed.WithLabelValues(string(o.Status)).Inc()
		switch o.Status {
		case StatusSucceeded:
			sum.Succeeded++
		case StatusUnchanged:
			sum.Unchanged++
		case StatusFailed:
			sum.Failed++
		}
	}
	pc.Logger.Printf("run %s: %d succeeded, %d unchanged, %d failed in %s",
		sum.RunID, sum.Succeeded, sum.Unchanged, sum.Failed, sum.Finished.Sub(sum.Started).Round(time.Millisecond))
	return sum, nil
}
