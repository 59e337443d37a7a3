package nodes_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/aretw0/canopy/pkg/blackboard"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/node"
	"github.com/aretw0/canopy/pkg/nodes"
	"github.com/aretw0/canopy/pkg/registry"
	"github.com/stretchr/testify/require"
)

type kit struct {
	t  *testing.T
	r  *registry.Registry
	bb *blackboard.Blackboard
}

func newKit(t *testing.T) *kit {
	t.Helper()
	r := registry.NewRegistry()
	require.NoError(t, nodes.RegisterBuiltins(r))
	return &kit{t: t, r: r, bb: blackboard.New()}
}

func (k *kit) build(id string, attrs map[string]string, children ...node.Node) node.Node {
	k.t.Helper()
	e, ok := k.r.Lookup(id)
	require.True(k.t, ok, id)
	bindings, err := node.Bind(e.Manifest, id, attrs)
	require.NoError(k.t, err)
	n := e.Constructor(node.NewConfig(k.bb, e.Manifest, id, bindings))
	for _, c := range children {
		n.(node.Parent).AddChild(c)
	}
	return n
}

// script is a leaf that replays a fixed list of statuses, repeating the last.
type script struct {
	*node.Base
	statuses []domain.Status
	ticks    atomic.Int32
	halts    atomic.Int32
}

func (k *kit) leaf(name string, statuses ...domain.Status) *script {
	m := node.Manifest{Type: domain.NodeTypeAction, ID: "Script"}
	return &script{Base: node.NewBase(node.NewConfig(k.bb, m, name, nil)), statuses: statuses}
}

func (s *script) Tick(context.Context) (domain.Status, error) {
	i := int(s.ticks.Add(1)) - 1
	if i >= len(s.statuses) {
		i = len(s.statuses) - 1
	}
	return s.statuses[i], nil
}

func (s *script) Halt() { s.halts.Add(1) }

func tick(t *testing.T, n node.Node) domain.Status {
	t.Helper()
	st, err := node.Execute(context.Background(), n)
	require.NoError(t, err)
	return st
}
