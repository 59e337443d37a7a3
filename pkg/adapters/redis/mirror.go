// Package redis mirrors running trees into Redis so that processes other
// than the one ticking the tree can watch it.
//
// For a tree instance with UID u and the default prefix the layout is:
//
//	canopy:bb:u          hash of blackboard entries as text
//	canopy:bb:u          channel announcing each blackboard write
//	canopy:events:u      channel of tick and status-change events
//	canopy:snapshot:u    JSON tree snapshot
//	canopy:snapshot:index sorted set of snapshot UIDs by expiry
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/canopy/pkg/blackboard"
	"github.com/aretw0/canopy/pkg/convert"
	"github.com/aretw0/canopy/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix is prepended to every key and channel.
const DefaultPrefix = "canopy:"

// Mirror publishes blackboard writes, lifecycle events and snapshots.
type Mirror struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

type Option func(*Mirror)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(m *Mirror) {
		m.prefix = prefix
	}
}

// WithTTL sets the expiration of snapshots and blackboard hashes.
func WithTTL(ttl time.Duration) Option {
	return func(m *Mirror) {
		m.ttl = ttl
	}
}

// WithLogger sets the logger used for failures that cannot be returned,
// such as those raised inside blackboard observers.
func WithLogger(l *slog.Logger) Option {
	return func(m *Mirror) {
		m.logger = l
	}
}

// New creates a Mirror with its own client.
func New(address, password string, db int, opts ...Option) *Mirror {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a Mirror from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Mirror {
	m := &Mirror{
		client: client,
		prefix: DefaultPrefix,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// BlackboardKey is both the hash holding the blackboard of tree uid and the
// channel announcing its writes.
func (m *Mirror) BlackboardKey(uid string) string { return m.prefix + "bb:" + uid }

// EventsChannel carries lifecycle events of tree uid.
func (m *Mirror) EventsChannel(uid string) string { return m.prefix + "events:" + uid }

func (m *Mirror) snapshotKey(uid string) string { return m.prefix + "snapshot:" + uid }

func (m *Mirror) indexKey() string { return m.prefix + "snapshot:index" }

// Write is the message published on BlackboardKey for every write.
type Write struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Attach copies the current content of bb into Redis and then mirrors every
// write until detach is called or ctx ends. Writes block the writer until
// Redis acknowledges them.
func (m *Mirror) Attach(ctx context.Context, uid string, bb *blackboard.Blackboard) (detach func(), err error) {
	key := m.BlackboardKey(uid)
	pipe := m.client.TxPipeline()
	pipe.Del(ctx, key)
	if snap := bb.TextSnapshot(); len(snap) > 0 {
		pipe.HSet(ctx, key, snap)
	}
	if m.ttl > 0 {
		pipe.Expire(ctx, key, m.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to mirror blackboard: %w", err)
	}

	return bb.Subscribe(func(k string, v any) {
		if ctx.Err() != nil {
			return
		}
		if err := m.publishWrite(ctx, key, Write{Key: k, Value: convert.ToText(v)}); err != nil {
			m.logger.Warn("blackboard mirror write failed", "key", k, "err", err)
		}
	}), nil
}

func (m *Mirror) publishWrite(ctx context.Context, key string, w Write) error {
	payload, err := json.Marshal(w)
	if err != nil {
		return err
	}
	pipe := m.client.TxPipeline()
	pipe.HSet(ctx, key, w.Key, w.Value)
	if m.ttl > 0 {
		pipe.Expire(ctx, key, m.ttl)
	}
	pipe.Publish(ctx, key, payload)
	_, err = pipe.Exec(ctx)
	return err
}

// Fetch returns the mirrored blackboard of tree uid.
func (m *Mirror) Fetch(ctx context.Context, uid string) (map[string]string, error) {
	vals, err := m.client.HGetAll(ctx, m.BlackboardKey(uid)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch blackboard: %w", err)
	}
	return vals, nil
}

// Event is the message published on EventsChannel.
type Event struct {
	Type     domain.EventType `json:"type"`
	Time     time.Time        `json:"time"`
	TreeID   string           `json:"tree_id"`
	Round    int              `json:"round,omitempty"`
	Path     string           `json:"path,omitempty"`
	Previous string           `json:"previous,omitempty"`
	Status   string           `json:"status,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// Hooks returns lifecycle hooks that publish tick ends, status changes and
// halts on the events channel of the emitting tree.
func (m *Mirror) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTickEnd: func(ctx context.Context, e *domain.TickEvent) {
			ev := Event{Type: e.Type, Time: e.Timestamp, TreeID: e.TreeID, Round: e.Round, Status: e.Status.String()}
			if e.Err != nil {
				ev.Error = e.Err.Error()
			}
			m.publishEvent(ctx, e.TreeUID, ev)
		},
		OnStatusChange: func(ctx context.Context, e *domain.NodeEvent) {
			m.publishEvent(ctx, e.TreeUID, Event{Type: e.EventBase.Type, Time: e.Timestamp, TreeID: e.TreeID,
				Path: e.Path, Previous: e.Prev.String(), Status: e.Status.String()})
		},
		OnHalt: func(ctx context.Context, e *domain.TickEvent) {
			m.publishEvent(ctx, e.TreeUID, Event{Type: e.Type, Time: e.Timestamp, TreeID: e.TreeID})
		},
	}
}

func (m *Mirror) publishEvent(ctx context.Context, uid string, ev Event) {
	payload, err := json.Marshal(ev)
	if err == nil {
		err = m.client.Publish(context.WithoutCancel(ctx), m.EventsChannel(uid), payload).Err()
	}
	if err != nil {
		m.logger.Warn("event publish failed", "type", ev.Type, "err", err)
	}
}

// Close closes the redis client.
func (m *Mirror) Close() error {
	return m.client.Close()
}
