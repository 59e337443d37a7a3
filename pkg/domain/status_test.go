package domain_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_Predicates(t *testing.T) {
	tests := []struct {
		status    domain.Status
		active    bool
		completed bool
	}{
		{domain.StatusIdle, false, false},
		{domain.StatusRunning, true, false},
		{domain.StatusSuccess, true, true},
		{domain.StatusFailure, true, true},
		{domain.StatusSkipped, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.status.String(), func(t *testing.T) {
			assert.Equal(t, tt.active, tt.status.IsActive())
			assert.Equal(t, tt.completed, tt.status.IsCompleted())
		})
	}
}

func TestStatus_TextRoundTrip(t *testing.T) {
	for _, s := range []domain.Status{
		domain.StatusIdle, domain.StatusRunning, domain.StatusSuccess,
		domain.StatusFailure, domain.StatusSkipped,
	} {
		got, err := domain.ParseStatus(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}

	_, err := domain.ParseStatus("success")
	assert.ErrorIs(t, err, domain.ErrNoMatch)
}

func TestStatus_Colored(t *testing.T) {
	assert.Equal(t, "\x1b[32mSUCCESS\x1b[0m", domain.StatusSuccess.ColorString())
	assert.Equal(t, "\x1b[36mIDLE\x1b[0m", domain.StatusIdle.ColorString())
	assert.Equal(t, "FAILURE", domain.StatusFailure.Colored(termenv.Ascii))
}

func TestNodeTypeAndDirection_Parse(t *testing.T) {
	nt, err := domain.ParseNodeType("Decorator")
	require.NoError(t, err)
	assert.Equal(t, domain.NodeTypeDecorator, nt)

	dir, err := domain.ParsePortDirection("InOut")
	require.NoError(t, err)
	assert.Equal(t, domain.PortInOut, dir)
	assert.True(t, dir.Readable())
	assert.True(t, dir.Writable())

	_, err = domain.ParsePortDirection("Sideways")
	assert.ErrorIs(t, err, domain.ErrNoMatch)
}

func TestErrors_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := &domain.BlackboardError{Key: "k", Kind: domain.ErrTypeMismatch, Cause: cause}
	assert.ErrorIs(t, err, domain.ErrTypeMismatch)
	assert.ErrorIs(t, err, cause)

	wrapped := &domain.NodeError{Path: "root/a", Cause: &domain.PortError{Port: "p", Kind: domain.ErrPortNotResolved}}
	assert.ErrorIs(t, wrapped, domain.ErrPortNotResolved)
	var pe *domain.PortError
	require.ErrorAs(t, wrapped, &pe)
	assert.Equal(t, "p", pe.Port)
}

func TestChainHooks(t *testing.T) {
	var calls []string
	a := domain.LifecycleHooks{OnHalt: func(context.Context, *domain.TickEvent) { calls = append(calls, "a") }}
	b := domain.LifecycleHooks{
		OnHalt:      func(context.Context, *domain.TickEvent) { calls = append(calls, "b") },
		OnTickStart: func(context.Context, *domain.TickEvent) { calls = append(calls, "start") },
	}
	h := domain.ChainHooks(a, b)
	h.OnHalt(context.Background(), &domain.TickEvent{})
	h.OnTickStart(context.Background(), &domain.TickEvent{})
	assert.Nil(t, h.OnTickEnd)
	assert.Equal(t, []string{"a", "b", "start"}, calls)
}
