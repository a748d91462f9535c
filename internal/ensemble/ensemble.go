// Package ensemble steps many independent cores concurrently. Cores share
// nothing; each is owned by exactly one goroutine for the whole run.
package ensemble

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/mesh-intelligence/netherland/internal/core"
	"github.com/mesh-intelligence/netherland/pkg/types"
)

// Member is one core and the input series to apply to it.
type Member struct {
	Name   string
	Core   *core.Core
	Inputs []types.TimestepInput
}

// Result reports the outcome for one member.
type Result struct {
	Name      string
	Applied   int
	Layers    int
	Elevation float64
	Err       error
}

// StepFunc is called after each successful step, from the member's
// goroutine. A non-nil error stops the run.
type StepFunc func(member int, c *core.Core, in types.TimestepInput) error

// Runner runs ensembles with a shared engine.
type Runner struct {
	engine *core.Engine
	limit  int
	onStep StepFunc
}

// Option configures a Runner.
type Option func(*Runner)

// WithLimit caps the number of members stepped at once. Values below 1
// mean GOMAXPROCS.
func WithLimit(n int) Option {
	return func(r *Runner) { r.limit = n }
}

// WithStepFunc registers fn to observe every applied step.
func WithStepFunc(fn StepFunc) Option {
	return func(r *Runner) { r.onStep = fn }
}

// NewRunner returns a Runner stepping members with e.
func NewRunner(e *core.Engine, opts ...Option) *Runner {
	r := &Runner{engine: e}
	for _, opt := range opts {
		opt(r)
	}
	if r.limit < 1 {
		r.limit = runtime.GOMAXPROCS(0)
	}
	return r
}

// Run steps members with e, at most limit at a time.
func Run(ctx context.Context, e *core.Engine, members []Member, limit int) ([]Result, error) {
	return NewRunner(e, WithLimit(limit)).Run(ctx, members)
}

// Run applies every member's inputs in order. The first failing member
// cancels the others, which stop before their next step. Results are
// returned in member order together with the first error.
func (r *Runner) Run(ctx context.Context, members []Member) ([]Result, error) {
	results := make([]Result, len(members))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.limit)

	for i := range members {
		m := members[i]
		results[i].Name = m.Name
		g.Go(func() error {
			err := r.runMember(gctx, i, m, &results[i])
			results[i].Layers = m.Core.Len()
			results[i].Elevation = m.Core.Elevation()
			results[i].Err = err
			return err
		})
	}
	return results, g.Wait()
}

func (r *Runner) runMember(ctx context.Context, i int, m Member, res *Result) error {
	for j, in := range m.Inputs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.engine.Step(m.Core, in); err != nil {
			return fmt.Errorf("member %s input %d: %w", m.Name, j+1, err)
		}
		res.Applied++
		if r.onStep != nil {
			if err := r.onStep(i, m.Core, in); err != nil {
				return fmt.Errorf("member %s input %d: %w", m.Name, j+1, err)
			}
		}
	}
	return nil
}
