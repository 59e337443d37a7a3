package nodes

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/node"
)

// Parallel ticks every unfinished child each round. It succeeds once
// success_count children succeeded and fails once failure_count children
// failed or success has become unreachable. With concurrent set, the
// children of a round are ticked on separate goroutines; they then share
// nothing but the blackboard.
type Parallel struct {
	*node.ControlBase
	results []domain.Status
}

func NewParallel(cfg *node.Config) node.Node {
	return &Parallel{ControlBase: node.NewControlBase(cfg)}
}

func thresholds(cfg *node.Config, n int) (success, failure int, err error) {
	if success, err = node.GetInput[int](cfg, "success_count"); err != nil {
		return 0, 0, err
	}
	if failure, err = node.GetInput[int](cfg, "failure_count"); err != nil {
		return 0, 0, err
	}
	if success < 0 {
		success = n + success + 1
	}
	if failure < 0 {
		failure = n + failure + 1
	}
	if success < 1 || success > n {
		return 0, 0, fmt.Errorf("success_count resolves to %d with %d children", success, n)
	}
	if failure < 1 || failure > n {
		return 0, 0, fmt.Errorf("failure_count resolves to %d with %d children", failure, n)
	}
	return success, failure, nil
}

func (p *Parallel) Tick(ctx context.Context) (domain.Status, error) {
	children := p.Children()
	successNeeded, failureLimit, err := thresholds(p.Config(), len(children))
	if err != nil {
		return domain.StatusIdle, err
	}
	concurrent, err := node.GetInput[bool](p.Config(), "concurrent")
	if err != nil {
		return domain.StatusIdle, err
	}

	if p.Status() != domain.StatusRunning || len(p.results) != len(children) {
		p.results = make([]domain.Status, len(children))
	}

	if concurrent {
		err = p.tickConcurrent(ctx, children)
	} else {
		err = p.tickSequential(ctx, children)
	}
	if err != nil {
		return domain.StatusIdle, err
	}

	var successes, failures, skipped int
	for _, st := range p.results {
		switch st {
		case domain.StatusSuccess:
			successes++
		case domain.StatusFailure:
			failures++
		case domain.StatusSkipped:
			skipped++
		}
	}

	// Skipped children neither succeed nor fail; the success threshold only
	// counts the children that took part.
	if skipped > 0 {
		successNeeded = min(successNeeded, len(children)-skipped)
	}

	switch {
	case skipped == len(children):
		p.finish()
		return domain.StatusSkipped, nil
	case successes >= successNeeded:
		p.finish()
		return domain.StatusSuccess, nil
	case failures >= failureLimit, len(children)-failures-skipped < successNeeded:
		p.finish()
		return domain.StatusFailure, nil
	}
	return domain.StatusRunning, nil
}

func (p *Parallel) pending(i int) bool {
	st := p.results[i]
	return st == domain.StatusIdle || st == domain.StatusRunning
}

func (p *Parallel) tickSequential(ctx context.Context, children []node.Node) error {
	for i, child := range children {
		if !p.pending(i) {
			continue
		}
		st, err := node.Execute(ctx, child)
		if err != nil {
			return err
		}
		p.results[i] = st
	}
	return nil
}

func (p *Parallel) tickConcurrent(ctx context.Context, children []node.Node) error {
	g, gctx := errgroup.WithContext(ctx)
	for i, child := range children {
		if !p.pending(i) {
			continue
		}
		g.Go(func() error {
			st, err := node.Execute(gctx, child)
			if err != nil {
				return err
			}
			p.results[i] = st
			return nil
		})
	}
	return g.Wait()
}

func (p *Parallel) finish() {
	p.ResetChildren()
	p.results = nil
}

func (p *Parallel) Halt() { p.finish() }
