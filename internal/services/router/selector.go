package router

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/hxuan190/orca-swap-router/internal/domain"
)

// Candidates at or below this count are priced without goroutines.
const sequentialThreshold = 2

// Selection is the winning candidate of a best-route search and the amount
// it was ranked by: the output for an input search, the input for an
// estimated-output search.
type Selection struct {
	Pair   domain.PoolsPair
	Amount uint64
}

type evaluation struct {
	amount uint64
	err    error
}

// FindBestForInputAmount returns the candidate with the greatest output for
// in. Equal outputs prefer fewer hops, then the earlier candidate.
func FindBestForInputAmount(ctx context.Context, in uint64, candidates []domain.PoolsPair) (Selection, error) {
	results := evaluate(ctx, candidates, func(e Exchange) (uint64, error) {
		return e.OutputAmount(in)
	})
	return pick(ctx, candidates, results, func(a, b uint64) bool { return a > b })
}

// FindBestForEstimatedAmount returns the candidate needing the smallest input
// to produce out, with the same tie-break.
func FindBestForEstimatedAmount(ctx context.Context, out uint64, candidates []domain.PoolsPair) (Selection, error) {
	results := evaluate(ctx, candidates, func(e Exchange) (uint64, error) {
		return e.InputAmount(out)
	})
	return pick(ctx, candidates, results, func(a, b uint64) bool { return a < b })
}

func evaluate(ctx context.Context, candidates []domain.PoolsPair, price func(Exchange) (uint64, error)) []evaluation {
	results := make([]evaluation, len(candidates))
	one := func(i int) {
		if err := ctx.Err(); err != nil {
			results[i] = evaluation{err: err}
			return
		}
		e, err := NewExchange(candidates[i])
		if err != nil {
			results[i] = evaluation{err: err}
			return
		}
		amount, err := price(e)
		results[i] = evaluation{amount: amount, err: err}
	}

	if len(candidates) <= sequentialThreshold {
		for i := range candidates {
			one(i)
		}
		return results
	}

	var g errgroup.Group
	for i := range candidates {
		g.Go(func() error {
			one(i)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// pick scans results in candidate order. Failed candidates are skipped; if
// none priced, an overflow is surfaced as such and anything else becomes
// ErrNoRouteFound.
func pick(ctx context.Context, candidates []domain.PoolsPair, results []evaluation, better func(a, b uint64) bool) (Selection, error) {
	if err := ctx.Err(); err != nil {
		return Selection{}, err
	}

	best := -1
	var overflow error
	for i, res := range results {
		if res.err != nil {
			if errors.Is(res.err, domain.ErrOverflow) && overflow == nil {
				overflow = res.err
			}
			continue
		}
		if best < 0 {
			best = i
			continue
		}
		cur := results[best].amount
		if better(res.amount, cur) || (res.amount == cur && candidates[i].Hops() < candidates[best].Hops()) {
			best = i
		}
	}

	if best < 0 {
		if overflow != nil {
			return Selection{}, overflow
		}
		return Selection{}, fmt.Errorf("%w: %d candidates, none priced", domain.ErrNoRouteFound, len(candidates))
	}
	return Selection{Pair: candidates[best], Amount: results[best].amount}, nil
}
