package nodes

import (
	"context"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/node"
)

// Sequence ticks its children in order. A running child is resumed on the
// next tick without re-ticking the children before it.
type Sequence struct {
	*node.ControlBase
	current int
	skipped int
}

func NewSequence(cfg *node.Config) node.Node {
	return &Sequence{ControlBase: node.NewControlBase(cfg)}
}

func (s *Sequence) Tick(ctx context.Context) (domain.Status, error) {
	if s.Status() != domain.StatusRunning {
		s.current, s.skipped = 0, 0
	}
	children := s.Children()
	for s.current < len(children) {
		st, err := node.Execute(ctx, children[s.current])
		if err != nil {
			return domain.StatusIdle, err
		}
		switch st {
		case domain.StatusRunning:
			return domain.StatusRunning, nil
		case domain.StatusFailure:
			s.finish()
			return domain.StatusFailure, nil
		case domain.StatusSkipped:
			s.skipped++
		}
		s.current++
	}
	allSkipped := s.skipped == len(children)
	s.finish()
	if allSkipped {
		return domain.StatusSkipped, nil
	}
	return domain.StatusSuccess, nil
}

func (s *Sequence) finish() {
	s.ResetChildren()
	s.current, s.skipped = 0, 0
}

func (s *Sequence) Halt() { s.finish() }

// ReactiveSequence re-evaluates every child from the first one on each tick,
// halting a later running child when an earlier one stops succeeding.
type ReactiveSequence struct {
	*node.ControlBase
}

func NewReactiveSequence(cfg *node.Config) node.Node {
	return &ReactiveSequence{ControlBase: node.NewControlBase(cfg)}
}

func (s *ReactiveSequence) Tick(ctx context.Context) (domain.Status, error) {
	return reactive(ctx, s.ControlBase, domain.StatusFailure)
}

// Fallback ticks its children in order until one succeeds.
type Fallback struct {
	*node.ControlBase
	current int
	skipped int
}

func NewFallback(cfg *node.Config) node.Node {
	return &Fallback{ControlBase: node.NewControlBase(cfg)}
}

func (f *Fallback) Tick(ctx context.Context) (domain.Status, error) {
	if f.Status() != domain.StatusRunning {
		f.current, f.skipped = 0, 0
	}
	children := f.Children()
	for f.current < len(children) {
		st, err := node.Execute(ctx, children[f.current])
		if err != nil {
			return domain.StatusIdle, err
		}
		switch st {
		case domain.StatusRunning:
			return domain.StatusRunning, nil
		case domain.StatusSuccess:
			f.finish()
			return domain.StatusSuccess, nil
		case domain.StatusSkipped:
			f.skipped++
		}
		f.current++
	}
	allSkipped := f.skipped == len(children)
	f.finish()
	if allSkipped {
		return domain.StatusSkipped, nil
	}
	return domain.StatusFailure, nil
}

func (f *Fallback) finish() {
	f.ResetChildren()
	f.current, f.skipped = 0, 0
}

func (f *Fallback) Halt() { f.finish() }

// ReactiveFallback is the reactive counterpart of Fallback.
type ReactiveFallback struct {
	*node.ControlBase
}

func NewReactiveFallback(cfg *node.Config) node.Node {
	return &ReactiveFallback{ControlBase: node.NewControlBase(cfg)}
}

func (f *ReactiveFallback) Tick(ctx context.Context) (domain.Status, error) {
	return reactive(ctx, f.ControlBase, domain.StatusSuccess)
}

// reactive ticks every child from the start. The first child returning stop
// ends the round with that status; any other completed child lets the round
// continue. The sequence and fallback variants only differ in which status
// stops the round.
func reactive(ctx context.Context, c *node.ControlBase, stop domain.Status) (domain.Status, error) {
	children := c.Children()
	skipped := 0
	for i, child := range children {
		st, err := node.Execute(ctx, child)
		if err != nil {
			return domain.StatusIdle, err
		}
		switch st {
		case domain.StatusRunning:
			c.ResetChildrenFrom(i + 1)
			return domain.StatusRunning, nil
		case stop:
			c.ResetChildren()
			return stop, nil
		case domain.StatusSkipped:
			skipped++
			node.Reset(child)
		default:
			// A completed child is re-evaluated from scratch on the next tick.
			node.Reset(child)
		}
	}
	c.ResetChildren()
	if skipped == len(children) {
		return domain.StatusSkipped, nil
	}
	if stop == domain.StatusFailure {
		return domain.StatusSuccess, nil
	}
	return domain.StatusFailure, nil
}
