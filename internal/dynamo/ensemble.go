package dynamo

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Builder creates the simulator for one ensemble member. Members must not
// share state.
type Builder func(member int) (*Simulator, error)

// Ensemble runs independent simulators side by side, e.g. one per seed.
type Ensemble struct {
	build   Builder
	members int
	limit   int
}

func NewEnsemble(build Builder, members, limit int) *Ensemble {
	return &Ensemble{build: build, members: members, limit: limit}
}

// Run ticks every member for ticks steps. The first failure cancels the
// rest.
func (e *Ensemble) Run(ctx context.Context, ticks int) ([]*Result, error) {
	if e.members <= 0 {
		return nil, fmt.Errorf("ensemble needs at least one member, got %d", e.members)
	}

	results := make([]*Result, e.members)
	g, ctx := errgroup.WithContext(ctx)
	if e.limit > 0 {
		g.SetLimit(e.limit)
	}

	for i := 0; i < e.members; i++ {
		g.Go(func() error {
			sim, err := e.build(i)
			if err != nil {
				return fmt.Errorf("member %d: %w", i, err)
			}
			defer sim.Close()

			res, err := sim.Run(ctx, ticks)
			if err != nil {
				return fmt.Errorf("member %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
