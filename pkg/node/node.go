package node

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/aretw0/canopy/pkg/domain"
)

// Node is the capability set shared by every tree node.
//
// Tick advances the node by one step and must never return StatusIdle.
// Halt cancels any in-progress execution; it must be safe on a node that is
// not running. Parents never call Tick directly: they use Execute and Reset.
type Node interface {
	Tick(ctx context.Context) (domain.Status, error)
	Halt()
	Name() string
	RegistrationID() string
	Type() domain.NodeType
	ProvidedPorts() PortsList
	Status() domain.Status
	Config() *Config

	base() *Base
}

// Constructor builds a node instance from its configuration.
type Constructor func(cfg *Config) Node

// Base carries the identity and status of a node. Every node embeds it.
type Base struct {
	cfg    *Config
	status atomic.Int32
}

func NewBase(cfg *Config) *Base {
	return &Base{cfg: cfg}
}

func (b *Base) base() *Base { return b }

func (b *Base) Name() string             { return b.cfg.name }
func (b *Base) RegistrationID() string   { return b.cfg.manifest.ID }
func (b *Base) Type() domain.NodeType    { return b.cfg.manifest.Type }
func (b *Base) ProvidedPorts() PortsList { return b.cfg.manifest.Ports }
func (b *Base) Config() *Config          { return b.cfg }

// Halt is a no-op for nodes without in-progress work.
func (b *Base) Halt() {}

func (b *Base) Status() domain.Status {
	return domain.Status(b.status.Load())
}

func (b *Base) setStatus(s domain.Status) {
	b.status.Store(int32(s))
}

type pathKey struct{}

// PathFromContext returns the slash separated path of the node being ticked.
func PathFromContext(ctx context.Context) string {
	p, _ := ctx.Value(pathKey{}).(string)
	return p
}

// Execute ticks n, validates the returned status against the node state
// machine, records it and reports the transition to the hooks found in ctx.
func Execute(ctx context.Context, n Node) (domain.Status, error) {
	b := n.base()
	path := n.Name()
	if parent := PathFromContext(ctx); parent != "" {
		path = parent + "/" + path
	}
	ctx = context.WithValue(ctx, pathKey{}, path)

	prev := b.Status()
	st, err := n.Tick(ctx)
	if err == nil {
		err = checkTransition(n, prev, st)
	}
	if err != nil {
		var ne *domain.NodeError
		if errors.As(err, &ne) {
			return domain.StatusIdle, err
		}
		return domain.StatusIdle, &domain.NodeError{Path: path, Cause: err}
	}

	b.setStatus(st)
	if h := domain.HooksFromContext(ctx); h != nil && h.OnStatusChange != nil && st != prev {
		h.OnStatusChange(ctx, &domain.NodeEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventStatusChange},
			Path:      path,
			Name:      n.Name(),
			ID:        n.RegistrationID(),
			Type:      n.Type(),
			Prev:      prev,
			Status:    st,
		})
	}
	return st, nil
}

func checkTransition(n Node, prev, next domain.Status) error {
	switch {
	case next == domain.StatusIdle:
		return fmt.Errorf("%w: tick returned %s", domain.ErrInvalidStatus, next)
	case next < domain.StatusIdle || next > domain.StatusSkipped:
		return fmt.Errorf("%w: tick returned %s", domain.ErrInvalidStatus, next)
	case n.Type() == domain.NodeTypeCondition && next == domain.StatusRunning:
		return fmt.Errorf("%w: condition returned %s", domain.ErrInvalidStatus, next)
	case next == domain.StatusSkipped && prev != domain.StatusIdle:
		return fmt.Errorf("%w: %s node returned %s", domain.ErrInvalidStatus, prev, next)
	}
	return nil
}

// Reset halts n and returns it to Idle. Halt is called even when n is not
// running so that composites can clear their bookkeeping and reach children
// left over by a tick that was aborted by an error.
func Reset(n Node) {
	n.Halt()
	n.base().setStatus(domain.StatusIdle)
}
