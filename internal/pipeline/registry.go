package pipeline

import (
	"context"
	"fmt"
	"sort"
)

// Step is one named stage of an ingest chain. A step processes every live
// document in the run context; per-document failures are recorded on the
// DocState and never abort the run.
type Step interface {
	Name() string
	Run(ctx context.Context, pc *Context) error
}

// Registry maps step names to constructors. Chains are resolved against a
// registry at run time so callers can compose partial chains (for example
// normalize-only replays) without touching the step implementations.
type Registry struct {
	steps map[string]Step
}

// NewRegistry returns a registry preloaded with the standard ingest steps.
func NewRegistry() *Registry {
	r := &Registry{steps: map[string]Step{}}
	for _, s := range []Step{
		&downloadStep{},
		&normalizeStep{},
		&enrichStep{},
		&metricsStep{},
		&storeStep{},
		&indexStep{},
		&commitStep{},
	} {
		// preloaded names are unique by construction
		_ = r.Register(s)
	}
	return r
}

// Register adds a step. Registering a duplicate name is a programming error
// and is reported rather than silently overwritten.
func (r *Registry) Register(s Step) error {
	if _, ok := r.steps[s.Name()]; ok {
		return fmt.Errorf("pipeline: step %q already registered", s.Name())
	}
	r.steps[s.Name()] = s
	return nil
}

// Resolve maps chain names to steps, preserving order. An unknown name is a
// run-level error: nothing executes.
func (r *Registry) Resolve(chain []string) ([]Step, error) {
	out := make([]Step, 0, len(chain))
	for _, name := range chain {
		s, ok := r.steps[name]
		if !ok {
			return nil, fmt.Errorf("pipeline: unknown step %q (known: %v)", name, r.Names())
		}
		out = append(out, s)
	}
	return out, nil
}

// Names lists registered step names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.steps))
	for n := range r.steps {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// DefaultChain is the full ingest order.
func DefaultChain() []string {
	return []string{"download", "normalize", "enrich", "metrics", "store", "index", "commit"}
}
