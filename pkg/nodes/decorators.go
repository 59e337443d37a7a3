package nodes

import (
	"context"
	"time"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/node"
)

// mapped is a decorator that rewrites the completed status of its child.
type mapped struct {
	*node.DecoratorBase
	fn func(domain.Status) domain.Status
}

func newMapped(cfg *node.Config, fn func(domain.Status) domain.Status) *mapped {
	return &mapped{DecoratorBase: node.NewDecoratorBase(cfg), fn: fn}
}

func (m *mapped) Tick(ctx context.Context) (domain.Status, error) {
	st, err := node.Execute(ctx, m.Child())
	if err != nil {
		return domain.StatusIdle, err
	}
	switch st {
	case domain.StatusRunning:
		return st, nil
	case domain.StatusSkipped:
		m.ResetChild()
		return st, nil
	}
	m.ResetChild()
	return m.fn(st), nil
}

func NewInverter(cfg *node.Config) node.Node {
	return newMapped(cfg, func(st domain.Status) domain.Status {
		if st == domain.StatusSuccess {
			return domain.StatusFailure
		}
		return domain.StatusSuccess
	})
}

func NewForceSuccess(cfg *node.Config) node.Node {
	return newMapped(cfg, func(domain.Status) domain.Status { return domain.StatusSuccess })
}

func NewForceFailure(cfg *node.Config) node.Node {
	return newMapped(cfg, func(domain.Status) domain.Status { return domain.StatusFailure })
}

// Retry re-runs a failing child. Between attempts it yields Running so the
// driver can interleave other work and halts are observed.
type Retry struct {
	*node.DecoratorBase
	attempts int
}

func NewRetry(cfg *node.Config) node.Node {
	return &Retry{DecoratorBase: node.NewDecoratorBase(cfg)}
}

func (r *Retry) Tick(ctx context.Context) (domain.Status, error) {
	limit, err := node.GetInput[int](r.Config(), "num_attempts")
	if err != nil {
		return domain.StatusIdle, err
	}
	if r.Status() != domain.StatusRunning {
		r.attempts = 0
	}

	st, err := node.Execute(ctx, r.Child())
	if err != nil {
		return domain.StatusIdle, err
	}
	switch st {
	case domain.StatusFailure:
		r.attempts++
		r.ResetChild()
		if limit >= 0 && r.attempts >= limit {
			r.attempts = 0
			return domain.StatusFailure, nil
		}
		return domain.StatusRunning, nil
	case domain.StatusSuccess:
		r.attempts = 0
		r.ResetChild()
	case domain.StatusSkipped:
		r.ResetChild()
		if r.Status() == domain.StatusRunning {
			// Skipped after failed attempts: nothing left to retry.
			r.attempts = 0
			return domain.StatusFailure, nil
		}
	}
	return st, nil
}

func (r *Retry) Halt() {
	r.attempts = 0
	r.ResetChild()
}

// Repeat runs a succeeding child num_cycles times, yielding Running between
// cycles. A failure ends the repetition.
type Repeat struct {
	*node.DecoratorBase
	cycles int
}

func NewRepeat(cfg *node.Config) node.Node {
	return &Repeat{DecoratorBase: node.NewDecoratorBase(cfg)}
}

func (r *Repeat) Tick(ctx context.Context) (domain.Status, error) {
	limit, err := node.GetInput[int](r.Config(), "num_cycles")
	if err != nil {
		return domain.StatusIdle, err
	}
	if r.Status() != domain.StatusRunning {
		r.cycles = 0
		if limit == 0 {
			return domain.StatusSkipped, nil
		}
	}

	st, err := node.Execute(ctx, r.Child())
	if err != nil {
		return domain.StatusIdle, err
	}
	switch st {
	case domain.StatusSuccess:
		r.cycles++
		r.ResetChild()
		if limit >= 0 && r.cycles >= limit {
			r.cycles = 0
			return domain.StatusSuccess, nil
		}
		return domain.StatusRunning, nil
	case domain.StatusFailure:
		r.cycles = 0
		r.ResetChild()
	case domain.StatusSkipped:
		r.ResetChild()
		if r.Status() == domain.StatusRunning {
			// Skipped after completed cycles ends the repetition.
			r.cycles = 0
			return domain.StatusSuccess, nil
		}
	}
	return st, nil
}

func (r *Repeat) Halt() {
	r.cycles = 0
	r.ResetChild()
}

// Timeout fails and halts its child once msec have elapsed since the first
// tick of the current execution. The child also sees the deadline on its
// context.
type Timeout struct {
	*node.DecoratorBase
	deadline time.Time
	now      func() time.Time
}

func NewTimeout(cfg *node.Config) node.Node {
	return &Timeout{DecoratorBase: node.NewDecoratorBase(cfg), now: time.Now}
}

// SetClock replaces the time source used for the budget.
func (t *Timeout) SetClock(now func() time.Time) { t.now = now }

func (t *Timeout) Tick(ctx context.Context) (domain.Status, error) {
	if t.Status() != domain.StatusRunning {
		msec, err := node.GetInput[uint](t.Config(), "msec")
		if err != nil {
			return domain.StatusIdle, err
		}
		t.deadline = t.now().Add(time.Duration(msec) * time.Millisecond)
	}
	if !t.now().Before(t.deadline) {
		t.ResetChild()
		return domain.StatusFailure, nil
	}

	cctx, cancel := context.WithDeadline(ctx, t.deadline)
	defer cancel()
	st, err := node.Execute(cctx, t.Child())
	if err != nil {
		return domain.StatusIdle, err
	}
	if st != domain.StatusRunning {
		t.ResetChild()
	}
	return st, nil
}

// SubTree ticks the root of another tree definition as its only child.
type SubTree struct {
	*node.DecoratorBase
}

func NewSubTree(cfg *node.Config) node.Node {
	return &SubTree{DecoratorBase: node.NewDecoratorBase(cfg)}
}

func (s *SubTree) Tick(ctx context.Context) (domain.Status, error) {
	st, err := node.Execute(ctx, s.Child())
	if err != nil {
		return domain.StatusIdle, err
	}
	if st != domain.StatusRunning {
		s.ResetChild()
	}
	return st, nil
}
