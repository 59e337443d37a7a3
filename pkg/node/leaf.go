package node

import (
	"context"

	"github.com/aretw0/canopy/pkg/domain"
)

// TickFunc is the body of a simple leaf node.
type TickFunc func(ctx context.Context, cfg *Config) (domain.Status, error)

// Leaf is a node whose tick is a plain function. Its category (Action or
// Condition) comes from the manifest it was registered with.
type Leaf struct {
	*Base
	fn TickFunc
}

func NewLeaf(cfg *Config, fn TickFunc) *Leaf {
	return &Leaf{Base: NewBase(cfg), fn: fn}
}

func (l *Leaf) Tick(ctx context.Context) (domain.Status, error) {
	return l.fn(ctx, l.Config())
}

// LeafConstructor adapts fn into a Constructor.
func LeafConstructor(fn TickFunc) Constructor {
	return func(cfg *Config) Node { return NewLeaf(cfg, fn) }
}
