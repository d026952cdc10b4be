package hub

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/MarkYing2014/stock-dashboard/cmd/server/internal/metrics"
	"github.com/MarkYing2014/stock-dashboard/cmd/server/internal/repository"
)

// ClientInterface is one live subscriber connection. SendBytes must not
// block: implementations queue or drop, and return an error only when the
// connection is already closed.
type ClientInterface interface {
	ID() string
	SendBytes(b []byte) error
	Close()
}

// Hub owns the set of connected subscribers and fans each published
// snapshot out to all of them. A dead client is unregistered on the first
// failed send; a merely slow client drops messages without affecting the
// producer or the other subscribers.
type Hub struct {
	clients map[ClientInterface]bool
	last    []byte // most recently broadcast payload, guarded by mu
	store   repository.Store
	logger  *zap.Logger
	mu      sync.RWMutex
}

func NewHub(store repository.Store, logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[ClientInterface]bool),
		store:   store,
		logger:  logger,
	}
}

// Register adds a connection and pushes it the last published snapshot so
// a new client does not wait a full polling interval for its first data.
// The catch-up is sent under the hub lock so it always precedes any later
// broadcast to the same connection; the Redis fallback is only consulted
// before the first broadcast of this process.
func (h *Hub) Register(client ClientInterface) {
	h.mu.Lock()
	h.clients[client] = true
	n := len(h.clients)
	fromStore := h.last == nil
	if !fromStore {
		_ = client.SendBytes(h.last)
	}
	h.mu.Unlock()

	metrics.ActiveClients.Set(float64(n))
	h.logger.Info("Client connected", zap.String("client", client.ID()), zap.Int("active", n))

	// Async so the register path never blocks on Redis
	if fromStore {
		go h.catchUpFromStore(client)
	}
}

// catchUpFromStore pushes the persisted snapshot to a client that joined
// before this process broadcast anything. The send is skipped once a live
// broadcast has reached the client, so a stale stored snapshot can never
// arrive after a newer one.
func (h *Hub) catchUpFromStore(client ClientInterface) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	payload, err := h.store.LatestSnapshot(ctx)
	if err != nil || len(payload) == 0 {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.last != nil || !h.clients[client] {
		return
	}
	_ = client.SendBytes(payload)
}

// Unregister removes a connection and closes it. Idempotent: unregistering
// an unknown or already-removed client is a no-op.
func (h *Hub) Unregister(client ClientInterface) {
	h.mu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	n := len(h.clients)
	h.mu.Unlock()

	client.Close()
	metrics.ActiveClients.Set(float64(n))
	h.logger.Info("Client disconnected", zap.String("client", client.ID()), zap.Int("active", n))
}

// Broadcast delivers one snapshot payload to every client registered at
// call start; clients registered mid-broadcast receive this payload via
// the Register catch-up instead. A failed send unregisters that client
// and never affects delivery to the rest.
func (h *Hub) Broadcast(payload []byte) {
	h.mu.Lock()
	h.last = payload
	targets := make([]ClientInterface, 0, len(h.clients))
	for client := range h.clients {
		targets = append(targets, client)
	}
	h.mu.Unlock()

	for _, client := range targets {
		if err := client.SendBytes(payload); err != nil {
			h.logger.Warn("Send failed, dropping client",
				zap.String("client", client.ID()), zap.Error(err))
			h.Unregister(client)
		}
	}
}

// ClientCount reports the current number of registered subscribers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
