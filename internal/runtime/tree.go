package runtime

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/canopy/internal/logging"
	"github.com/aretw0/canopy/pkg/blackboard"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/node"
)

// DefaultTickInterval is the idle time between rounds while the root is running.
const DefaultTickInterval = 10 * time.Millisecond

// Tree drives one instantiated node graph. At most one root tick is in
// flight at any time; Halt may be called from any goroutine.
type Tree struct {
	id       string
	uid      uuid.UUID
	root     node.Node
	bb       *blackboard.Blackboard
	logger   *slog.Logger
	hooks    domain.LifecycleHooks
	ctxHooks *domain.LifecycleHooks
	interval time.Duration

	tickMu  sync.Mutex
	mu      sync.Mutex
	cancel  context.CancelCauseFunc
	rounds  int
	haltGen atomic.Uint64
}

// Option configures a Tree.
type Option func(*Tree)

func WithLogger(l *slog.Logger) Option {
	return func(t *Tree) { t.logger = l }
}

func WithLifecycleHooks(h domain.LifecycleHooks) Option {
	return func(t *Tree) { t.hooks = h }
}

// WithTickInterval sets the idle time between rounds of TickWhileRunning.
// Non-positive values keep DefaultTickInterval, so the loop never spins.
func WithTickInterval(d time.Duration) Option {
	return func(t *Tree) {
		if d > 0 {
			t.interval = d
		}
	}
}

// New wraps root, the instance of tree definition treeID sharing bb.
func New(treeID string, root node.Node, bb *blackboard.Blackboard, opts ...Option) *Tree {
	t := &Tree{
		id:       treeID,
		uid:      uuid.New(),
		root:     root,
		bb:       bb,
		logger:   logging.NewNop(),
		interval: DefaultTickInterval,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = t.logger.With("tree", t.id, "tree_uid", t.uid.String())

	if user := t.hooks.OnStatusChange; user != nil {
		t.ctxHooks = &domain.LifecycleHooks{
			OnStatusChange: func(ctx context.Context, e *domain.NodeEvent) {
				e.TreeID, e.TreeUID = t.id, t.uid.String()
				user(ctx, e)
			},
		}
	}
	return t
}

func (t *Tree) ID() string                         { return t.id }
func (t *Tree) UID() uuid.UUID                     { return t.uid }
func (t *Tree) Root() node.Node                    { return t.root }
func (t *Tree) Blackboard() *blackboard.Blackboard { return t.bb }
func (t *Tree) Status() domain.Status              { return t.root.Status() }

// Rounds returns how many root ticks have been started.
func (t *Tree) Rounds() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rounds
}

func (t *Tree) event(typ domain.EventType) domain.EventBase {
	return domain.EventBase{Timestamp: time.Now(), Type: typ, TreeID: t.id, TreeUID: t.uid.String()}
}

// TickOnce ticks the root exactly once. If the tick fails, the tree is reset
// so that no node is left running.
func (t *Tree) TickOnce(ctx context.Context) (domain.Status, error) {
	t.tickMu.Lock()
	defer t.tickMu.Unlock()
	return t.tick(ctx)
}

// tickUnlessHalted ticks the root unless Halt was called since gen was read.
func (t *Tree) tickUnlessHalted(ctx context.Context, gen uint64) (domain.Status, error) {
	t.tickMu.Lock()
	defer t.tickMu.Unlock()
	if t.haltGen.Load() != gen {
		return domain.StatusIdle, domain.ErrHalted
	}
	return t.tick(ctx)
}

func (t *Tree) tick(ctx context.Context) (domain.Status, error) {
	rctx, cancel := context.WithCancelCause(ctx)
	t.mu.Lock()
	t.cancel = cancel
	t.rounds++
	round := t.rounds
	t.mu.Unlock()
	defer func() {
		t.mu.Lock()
		t.cancel = nil
		t.mu.Unlock()
		cancel(nil)
	}()

	rctx = logging.WithLogger(rctx, t.logger)
	if t.ctxHooks != nil {
		rctx = domain.WithHooks(rctx, t.ctxHooks)
	}

	if t.hooks.OnTickStart != nil {
		t.hooks.OnTickStart(rctx, &domain.TickEvent{EventBase: t.event(domain.EventTickStart), Round: round})
	}
	if prev := t.root.Status(); prev != domain.StatusIdle && prev != domain.StatusRunning {
		// The previous execution finished; start a new one.
		node.Reset(t.root)
	}
	start := time.Now()
	st, err := node.Execute(rctx, t.root)
	elapsed := time.Since(start)
	if err != nil {
		node.Reset(t.root)
		t.logger.Debug("tick failed", "round", round, "error", err)
	} else {
		t.logger.Debug("tick", "round", round, "status", st, "duration", elapsed)
	}
	if t.hooks.OnTickEnd != nil {
		ev := &domain.TickEvent{
			EventBase: t.event(domain.EventTickEnd),
			Round:     round,
			Status:    st,
			Duration:  elapsed,
			Err:       err,
		}
		if err != nil {
			ev.Error = err.Error()
		}
		t.hooks.OnTickEnd(rctx, ev)
	}
	return st, err
}

// TickWhileRunning ticks the root until it returns a status other than
// Running, idling between rounds. It stops early with the tick error, with
// ErrHalted when Halt is called, or with the context's cause when ctx is
// done; in the latter case the tree is halted first.
func (t *Tree) TickWhileRunning(ctx context.Context) (domain.Status, error) {
	gen := t.haltGen.Load()
	start := time.Now()
	t.logger.Info("tree started")

	for {
		st, err := t.tickUnlessHalted(ctx, gen)
		if t.haltGen.Load() != gen {
			t.logger.Info("tree halted", "rounds", t.Rounds())
			return domain.StatusIdle, domain.ErrHalted
		}
		if err != nil {
			t.logger.Error("tree failed", "error", err, "rounds", t.Rounds())
			return st, err
		}
		if st != domain.StatusRunning {
			t.logger.Info("tree finished", "status", st, "rounds", t.Rounds(), "duration", time.Since(start))
			return st, nil
		}

		select {
		case <-ctx.Done():
			t.Halt()
			return domain.StatusIdle, context.Cause(ctx)
		case <-time.After(t.interval):
		}
	}
}

// Halt cancels the round in flight, waits for it to return and resets the
// whole tree to Idle. It is safe to call at any time and from any goroutine.
func (t *Tree) Halt() {
	t.haltGen.Add(1)
	t.mu.Lock()
	if t.cancel != nil {
		t.cancel(domain.ErrHalted)
	}
	t.mu.Unlock()

	t.tickMu.Lock()
	node.Reset(t.root)
	t.tickMu.Unlock()

	if t.hooks.OnHalt != nil {
		t.hooks.OnHalt(context.Background(), &domain.TickEvent{EventBase: t.event(domain.EventHalt), Round: t.Rounds()})
	}
}

// Snapshot captures the status of every node and the blackboard contents.
func (t *Tree) Snapshot() *domain.TreeSnapshot {
	return &domain.TreeSnapshot{
		TreeID:     t.id,
		UID:        t.uid.String(),
		Status:     t.root.Status(),
		Rounds:     t.Rounds(),
		Root:       node.Snapshot(t.root),
		Blackboard: t.bb.TextSnapshot(),
	}
}

// IsHalted reports whether err signals a halted run.
func IsHalted(err error) bool { return errors.Is(err, domain.ErrHalted) }
