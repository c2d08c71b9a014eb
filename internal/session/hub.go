package session

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/coder/websocket"
)

// Hub tracks connected clients so that map changes can be announced and
// connections closed on shutdown.
type Hub struct {
	mu         sync.RWMutex
	clients    map[string]*Client // clientID -> client
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-h.done:
			return
		}
	}
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client.ClientID] = client
	h.mu.Unlock()

	slog.Info("client joined", "client", client.ClientID, "session", client.SessionID())
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client.ClientID]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client.ClientID)
	close(client.send)
	h.mu.Unlock()

	slog.Info("client left", "client", client.ClientID, "session", client.SessionID())
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast queues msg on every client. The read lock is held while
// queueing so that removeClient cannot close a send channel underneath.
func (h *Hub) Broadcast(msg *Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.clients {
		c.Send(msg)
	}
}

// MapChanged tells every client that a stored map was replaced or removed.
// Clients decide whether to reload it.
func (h *Hub) MapChanged(name string, deleted bool) {
	payload, err := json.Marshal(MapUpdatedPayload{Name: name, Deleted: deleted})
	if err != nil {
		slog.Error("marshal payload", "type", TypeMapUpdated, "error", err)
		return
	}
	h.Broadcast(&Message{Type: TypeMapUpdated, Payload: payload})
}

// Stop closes every connection and ends Run.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)

		h.mu.Lock()
		defer h.mu.Unlock()
		for id, c := range h.clients {
			c.conn.Close(websocket.StatusGoingAway, "server shutting down")
			delete(h.clients, id)
		}
	})
}
