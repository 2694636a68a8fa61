package server

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Envelope is one serialized SSE message ready for delivery.
type Envelope struct {
	Event string
	Data  []byte
}

type connection struct {
	id       string
	gameCode string // empty until the client reconnects with a joined code
	ch       chan Envelope
}

// Registry tracks every open event-stream connection, each tagged with the
// game code it belongs to, and fans events out one partition at a time. It is
// the only concurrently mutated in-memory state in the process.
type Registry struct {
	logger *slog.Logger

	mu    sync.RWMutex
	conns map[string]*connection
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger: logger,
		conns:  make(map[string]*connection),
	}
}

// Add registers a connection under gameCode and returns its id together with
// the channel the subscriber drains. An empty gameCode is allowed: the
// connection stays open but receives no broadcasts until it reconnects with
// a resolvable code.
func (r *Registry) Add(gameCode string) (string, <-chan Envelope) {
	c := &connection{
		id:       uuid.NewString(),
		gameCode: gameCode,
		ch:       make(chan Envelope, 16),
	}

	r.mu.Lock()
	r.conns[c.id] = c
	r.mu.Unlock()

	r.logger.Debug("connection registered", "connection", c.id, "game_code", gameCode)
	return c.id, c.ch
}

// Remove unregisters a connection. Removing an unknown or already-removed id
// is a no-op.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	delete(r.conns, id)
	r.mu.Unlock()
}

// Broadcast sends one event to every connection registered under gameCode.
// An empty gameCode matches nothing: an event without a partition is dropped
// rather than leaked to all tenants. Sends never block; a subscriber whose
// buffer is full misses the event and a warning is logged.
func (r *Registry) Broadcast(event string, payload any, gameCode string) {
	if gameCode == "" {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		r.logger.Error("marshaling event payload", "event", event, "error", err)
		return
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.conns {
		if c.gameCode != gameCode {
			continue
		}
		select {
		case c.ch <- Envelope{Event: event, Data: data}:
		default:
			r.logger.Warn("dropping event for slow subscriber",
				"event", event, "connection", c.id, "game_code", gameCode)
		}
	}
}

// Len reports the number of registered connections for gameCode, or all
// connections when gameCode is empty.
func (r *Registry) Len(gameCode string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if gameCode == "" {
		return len(r.conns)
	}
	n := 0
	for _, c := range r.conns {
		if c.gameCode == gameCode {
			n++
		}
	}
	return n
}
