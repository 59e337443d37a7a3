package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/aretw0/canopy/pkg/domain"
)

// Message is one server-sent event.
type Message struct {
	Type domain.EventType
	Data []byte
}

// StreamManager fans lifecycle events out to SSE clients.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[chan Message]struct{}
	logger      *slog.Logger
}

func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[chan Message]struct{}),
		logger:      slog.Default(),
	}
}

func (sm *StreamManager) Subscribe() (<-chan Message, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan Message, 64)
	sm.subscribers[ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			delete(sm.subscribers, ch)
			close(ch)
		})
	}
}

func (sm *StreamManager) Broadcast(msg Message) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	for ch := range sm.subscribers {
		select {
		case ch <- msg:
		default:
			// Slow client.
			sm.logger.Warn("SSE: client buffer full, dropping event", "type", msg.Type)
		}
	}
}

func (sm *StreamManager) publish(typ domain.EventType, event any) {
	data, err := json.Marshal(event)
	if err != nil {
		sm.logger.Error("SSE: event encode failed", "type", typ, "err", err)
		return
	}
	sm.Broadcast(Message{Type: typ, Data: data})
}

// Hooks returns lifecycle hooks that stream tick ends, status changes and
// halts to every connected client.
func (s *Server) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTickEnd: func(_ context.Context, e *domain.TickEvent) {
			s.Streams.publish(e.Type, e)
		},
		OnStatusChange: func(_ context.Context, e *domain.NodeEvent) {
			s.Streams.publish(e.EventBase.Type, e)
		},
		OnHalt: func(_ context.Context, e *domain.TickEvent) {
			s.Streams.publish(e.Type, e)
		},
	}
}
