package node

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/aretw0/canopy/pkg/domain"
)

// StatefulAction is a leaf with an explicit lifecycle. OnStart runs on the
// first tick of an execution, OnRunning on every following tick while the
// node stays Running, and OnHalted when a running execution is halted.
type StatefulAction interface {
	OnStart(ctx context.Context) (domain.Status, error)
	OnRunning(ctx context.Context) (domain.Status, error)
	OnHalted()
}

// HaltToken is the cooperative cancellation flag of a stateful action.
// Requesting a halt also cancels the context of the step in flight.
type HaltToken struct {
	requested atomic.Bool
	mu        sync.Mutex
	cancel    context.CancelCauseFunc
}

func (h *HaltToken) Requested() bool { return h.requested.Load() }

func (h *HaltToken) Request() {
	h.requested.Store(true)
	h.mu.Lock()
	if h.cancel != nil {
		h.cancel(domain.ErrHalted)
	}
	h.mu.Unlock()
}

func (h *HaltToken) clear() { h.requested.Store(false) }

func (h *HaltToken) arm(cancel context.CancelCauseFunc) {
	h.mu.Lock()
	h.cancel = cancel
	h.mu.Unlock()
}

// Halted reports whether the step running under ctx has been asked to stop.
func Halted(ctx context.Context) bool {
	return errors.Is(context.Cause(ctx), domain.ErrHalted)
}

// StatefulActionNode adapts a StatefulAction to the Node contract.
type StatefulActionNode struct {
	*Base
	action StatefulAction
	token  HaltToken
}

func NewStatefulAction(cfg *Config, action StatefulAction) *StatefulActionNode {
	return &StatefulActionNode{Base: NewBase(cfg), action: action}
}

// Action returns the wrapped implementation.
func (a *StatefulActionNode) Action() StatefulAction { return a.action }

// HaltRequested reports whether the current execution was asked to stop.
func (a *StatefulActionNode) HaltRequested() bool { return a.token.Requested() }

func (a *StatefulActionNode) Tick(ctx context.Context) (domain.Status, error) {
	stepCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	starting := a.Status() != domain.StatusRunning
	if starting {
		a.token.clear()
	}
	a.token.arm(cancel)
	defer a.token.arm(nil)

	var (
		st  domain.Status
		err error
	)
	if starting {
		st, err = a.action.OnStart(stepCtx)
	} else {
		st, err = a.action.OnRunning(stepCtx)
	}
	if err != nil {
		return st, err
	}
	if st == domain.StatusRunning && a.token.Requested() {
		return domain.StatusFailure, nil
	}
	return st, nil
}

// Halt requests cancellation and, if an execution was running, lets the
// action clean up and forces the node back to Idle.
func (a *StatefulActionNode) Halt() {
	a.token.Request()
	if a.Status() == domain.StatusRunning {
		a.action.OnHalted()
		a.setStatus(domain.StatusIdle)
	}
}
