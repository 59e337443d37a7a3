package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventTickStart    EventType = "tick_start"
	EventTickEnd      EventType = "tick_end"
	EventStatusChange EventType = "status_change"
	EventHalt         EventType = "halt"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	TreeID    string    `json:"tree_id"`
	TreeUID   string    `json:"tree_uid"`
}

// TickEvent describes one root tick.
type TickEvent struct {
	EventBase
	Round    int           `json:"round"`
	Status   Status        `json:"status"`
	Duration time.Duration `json:"duration,omitempty"`
	Err      error         `json:"-"`
	// Error is the text of Err, for consumers of the JSON form.
	Error string `json:"error,omitempty"`
}

// NodeEvent describes a status transition of a single node.
type NodeEvent struct {
	EventBase
	Path   string   `json:"path"`
	Name   string   `json:"name"`
	ID     string   `json:"id"`
	Type   NodeType `json:"type"`
	Prev   Status   `json:"prev"`
	Status Status   `json:"status"`
}

// LifecycleHooks defines callbacks for engine observability. Any field may be nil.
type LifecycleHooks struct {
	OnTickStart    func(context.Context, *TickEvent)
	OnTickEnd      func(context.Context, *TickEvent)
	OnStatusChange func(context.Context, *NodeEvent)
	OnHalt         func(context.Context, *TickEvent)
}

// ChainHooks merges several hook sets so that each callback fires in order.
func ChainHooks(hooks ...LifecycleHooks) LifecycleHooks {
	var out LifecycleHooks
	for _, h := range hooks {
		out.OnTickStart = chain(out.OnTickStart, h.OnTickStart)
		out.OnTickEnd = chain(out.OnTickEnd, h.OnTickEnd)
		out.OnStatusChange = chain(out.OnStatusChange, h.OnStatusChange)
		out.OnHalt = chain(out.OnHalt, h.OnHalt)
	}
	return out
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}

type hooksKey struct{}

// WithHooks attaches hooks to ctx so that node execution can report status changes.
func WithHooks(ctx context.Context, h *LifecycleHooks) context.Context {
	return context.WithValue(ctx, hooksKey{}, h)
}

// HooksFromContext returns the hooks attached to ctx, or nil.
func HooksFromContext(ctx context.Context) *LifecycleHooks {
	h, _ := ctx.Value(hooksKey{}).(*LifecycleHooks)
	return h
}
