// Package gobt bridges canopy nodes and github.com/joeycumines/go-behaviortree
// nodes in both directions.
//
// go-behaviortree has no SKIPPED status and no halt. Export reports a
// skipped canopy node as bt.Success, which keeps go-behaviortree sequences
// moving the way a canopy Sequence treats a skipped child. Callers that
// abandon a running exported node must halt it themselves with node.Reset.
package gobt

import (
	"context"
	"fmt"

	bt "github.com/joeycumines/go-behaviortree"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/node"
)

// FromStatus maps a canopy status to a go-behaviortree status.
func FromStatus(s domain.Status) (bt.Status, error) {
	switch s {
	case domain.StatusRunning:
		return bt.Running, nil
	case domain.StatusSuccess, domain.StatusSkipped:
		return bt.Success, nil
	case domain.StatusFailure:
		return bt.Failure, nil
	default:
		return bt.Failure, fmt.Errorf("%w: %s has no go-behaviortree equivalent", domain.ErrInvalidStatus, s)
	}
}

// ToStatus maps a go-behaviortree status to a canopy status.
func ToStatus(s bt.Status) (domain.Status, error) {
	switch s {
	case bt.Running:
		return domain.StatusRunning, nil
	case bt.Success:
		return domain.StatusSuccess, nil
	case bt.Failure:
		return domain.StatusFailure, nil
	default:
		return domain.StatusIdle, fmt.Errorf("%w: go-behaviortree status %d", domain.ErrInvalidStatus, int(s))
	}
}

// Export wraps n as a go-behaviortree leaf. Every bt tick executes n with
// ctx, so lifecycle hooks and loggers carried by ctx keep working.
func Export(ctx context.Context, n node.Node) bt.Node {
	return bt.New(func([]bt.Node) (bt.Status, error) {
		st, err := node.Execute(ctx, n)
		if err != nil {
			return bt.Failure, err
		}
		return FromStatus(st)
	})
}

// Registrar is satisfied by *registry.Registry, *factory.Factory and
// *canopy.Engine.
type Registrar interface {
	Register(m node.Manifest, ctor node.Constructor) error
}

// Import registers a canopy node type backed by go-behaviortree nodes.
// newNode is called once per instance and again after each halt, so a
// halted node starts over with fresh state.
func Import(r Registrar, id string, newNode func(cfg *node.Config) bt.Node, ports node.PortsList) error {
	m := node.Manifest{Type: domain.NodeTypeAction, ID: id, Ports: ports}
	return r.Register(m, func(cfg *node.Config) node.Node {
		return &imported{Base: node.NewBase(cfg), newNode: newNode, bt: newNode(cfg)}
	})
}

type imported struct {
	*node.Base
	newNode func(cfg *node.Config) bt.Node
	bt      bt.Node
}

func (n *imported) Tick(ctx context.Context) (domain.Status, error) {
	if err := context.Cause(ctx); err != nil {
		return domain.StatusIdle, err
	}
	s, err := n.bt.Tick()
	if err != nil {
		return domain.StatusIdle, err
	}
	return ToStatus(s)
}

func (n *imported) Halt() {
	n.bt = n.newNode(n.Config())
}
