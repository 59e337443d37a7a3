package registry_test

import (
	"context"
	"testing"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/node"
	"github.com/aretw0/canopy/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop(context.Context, *node.Config) (domain.Status, error) { return domain.StatusSuccess, nil }

func TestRegister(t *testing.T) {
	r := registry.NewRegistry()
	m := node.Manifest{Type: domain.NodeTypeAction, ID: "Noop"}
	require.NoError(t, r.Register(m, node.LeafConstructor(noop)))

	e, ok := r.Lookup("Noop")
	require.True(t, ok)
	assert.Equal(t, domain.NodeTypeAction, e.Manifest.Type)
	assert.NotNil(t, e.Manifest.Ports)

	err := r.Register(m, node.LeafConstructor(noop))
	assert.ErrorIs(t, err, domain.ErrDuplicateRegistration)

	_, ok = r.Lookup("Missing")
	assert.False(t, ok)
}

func TestRegister_Invalid(t *testing.T) {
	r := registry.NewRegistry()
	assert.Error(t, r.Register(node.Manifest{}, node.LeafConstructor(noop)))
	assert.Error(t, r.Register(node.Manifest{ID: "X"}, nil))
	assert.Panics(t, func() {
		r.MustRegister(node.Manifest{ID: "X"}, nil)
	})
}

func TestManifests_Sorted(t *testing.T) {
	r := registry.NewRegistry()
	for _, id := range []string{"Zeta", "Alpha", "Mid"} {
		r.MustRegister(node.Manifest{Type: domain.NodeTypeAction, ID: id}, node.LeafConstructor(noop))
	}
	var ids []string
	for _, m := range r.Manifests() {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{"Alpha", "Mid", "Zeta"}, ids)
}
