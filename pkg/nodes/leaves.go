package nodes

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/node"
)

func always(st domain.Status) node.TickFunc {
	return func(context.Context, *node.Config) (domain.Status, error) { return st, nil }
}

func setBlackboard(_ context.Context, cfg *node.Config) (domain.Status, error) {
	v, err := node.GetInput[any](cfg, "value")
	if err != nil {
		return domain.StatusIdle, err
	}
	if err := cfg.SetOutput("output_key", v); err != nil {
		return domain.StatusIdle, err
	}
	return domain.StatusSuccess, nil
}

func scriptCondition(_ context.Context, cfg *node.Config) (domain.Status, error) {
	code, err := node.GetInput[string](cfg, "code")
	if err != nil {
		return domain.StatusIdle, err
	}
	ok, err := Evaluate(code, cfg.Blackboard())
	if err != nil {
		return domain.StatusIdle, err
	}
	if ok {
		return domain.StatusSuccess, nil
	}
	return domain.StatusFailure, nil
}

// Precondition gates its child on an expression evaluated at the start of
// each execution. While the child is running the expression is not
// re-evaluated.
type Precondition struct {
	*node.DecoratorBase
}

func NewPrecondition(cfg *node.Config) node.Node {
	return &Precondition{DecoratorBase: node.NewDecoratorBase(cfg)}
}

func (p *Precondition) Tick(ctx context.Context) (domain.Status, error) {
	if p.Status() != domain.StatusRunning {
		code, err := node.GetInput[string](p.Config(), "if")
		if err != nil {
			return domain.StatusIdle, err
		}
		ok, err := Evaluate(code, p.Config().Blackboard())
		if err != nil {
			return domain.StatusIdle, err
		}
		if !ok {
			otherwise, err := node.GetInput[domain.Status](p.Config(), "else")
			if err != nil {
				return domain.StatusIdle, err
			}
			if otherwise != domain.StatusSuccess && otherwise != domain.StatusFailure && otherwise != domain.StatusSkipped {
				return domain.StatusIdle, fmt.Errorf("%w: else=%s", domain.ErrInvalidStatus, otherwise)
			}
			return otherwise, nil
		}
	}

	st, err := node.Execute(ctx, p.Child())
	if err != nil {
		return domain.StatusIdle, err
	}
	if st != domain.StatusRunning {
		p.ResetChild()
	}
	return st, nil
}

// Sleep stays Running until msec have elapsed. It never blocks a tick.
type Sleep struct {
	cfg   *node.Config
	until time.Time
	now   func() time.Time
}

func NewSleep(cfg *node.Config) node.Node {
	return node.NewStatefulAction(cfg, &Sleep{cfg: cfg, now: time.Now})
}

func (s *Sleep) OnStart(context.Context) (domain.Status, error) {
	msec, err := node.GetInput[uint](s.cfg, "msec")
	if err != nil {
		return domain.StatusIdle, err
	}
	if msec == 0 {
		return domain.StatusSuccess, nil
	}
	s.until = s.now().Add(time.Duration(msec) * time.Millisecond)
	return domain.StatusRunning, nil
}

func (s *Sleep) OnRunning(ctx context.Context) (domain.Status, error) {
	if node.Halted(ctx) {
		return domain.StatusFailure, nil
	}
	if s.now().Before(s.until) {
		return domain.StatusRunning, nil
	}
	return domain.StatusSuccess, nil
}

func (s *Sleep) OnHalted() { s.until = time.Time{} }
