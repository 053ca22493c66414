// Package live streams sessions to browsers over websocket: painted frames,
// notifications, viewer presence, and pointer and scene commands coming back.
package live

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/rrtviz/rrtviz/backend-go/internal/session"
)

type Room struct {
	sessionID string
	clients   map[string]*Client // clientID -> client
	presence  *PresenceManager
}

func NewRoom(sessionID string) *Room {
	return &Room{
		sessionID: sessionID,
		clients:   make(map[string]*Client),
		presence:  NewPresenceManager(),
	}
}

// Hub fans session output out to the viewers of each session. It implements
// session.Publisher.
type Hub struct {
	mu         sync.RWMutex
	rooms      map[string]*Room // sessionID -> room
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once
}

var _ session.Publisher = (*Hub)(nil)

func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]*Room),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run processes joins and leaves until ctx is done. Joins and leaves after
// that return at once.
func (h *Hub) Run(ctx context.Context) {
	defer h.stopOnce.Do(func() { close(h.done) })
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-ctx.Done():
			return
		}
	}
}

// Register adds client to its session's room. It reports false when the hub
// has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.SessionID]
	if !ok {
		room = NewRoom(client.SessionID)
		h.rooms[client.SessionID] = room
	}
	room.clients[client.ClientID] = client
	room.presence.Update(client.ClientID, &PresencePayload{DisplayName: client.DisplayName})
	h.mu.Unlock()

	welcome, _ := json.Marshal(WelcomePayload{
		ClientID:    client.ClientID,
		SessionID:   client.SessionID,
		DisplayName: client.DisplayName,
	})
	client.Send(&Message{Type: TypeWelcome, SessionID: client.SessionID, Payload: welcome})

	if stateMsg := room.presence.StateMessage(); stateMsg != nil {
		client.Send(stateMsg)
	}

	joinPayload, _ := json.Marshal(PresenceJoinPayload{
		ClientID:    client.ClientID,
		DisplayName: client.DisplayName,
	})
	h.broadcastToRoom(client.SessionID, &Message{
		Type:     TypePresenceJoin,
		ClientID: client.ClientID,
		Payload:  joinPayload,
	}, client.ClientID)

	slog.Info("viewer joined", "client", client.ClientID, "session", client.SessionID)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.SessionID]
	if !ok {
		h.mu.Unlock()
		return
	}
	if _, ok := room.clients[client.ClientID]; !ok {
		h.mu.Unlock()
		return
	}

	delete(room.clients, client.ClientID)
	close(client.send)
	room.presence.Remove(client.ClientID)

	if len(room.clients) == 0 {
		delete(h.rooms, client.SessionID)
	}
	h.mu.Unlock()

	leavePayload, _ := json.Marshal(PresenceLeavePayload{ClientID: client.ClientID})
	h.broadcastToRoom(client.SessionID, &Message{
		Type:     TypePresenceLeave,
		ClientID: client.ClientID,
		Payload:  leavePayload,
	}, "")

	slog.Info("viewer left", "client", client.ClientID, "session", client.SessionID)
}

// Viewers returns the number of clients watching a session.
func (h *Hub) Viewers(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if room, ok := h.rooms[sessionID]; ok {
		return len(room.clients)
	}
	return 0
}

func (h *Hub) PublishFrame(sessionID string, f session.Frame) {
	payload, err := json.Marshal(f)
	if err != nil {
		slog.Error("marshal frame", "error", err)
		return
	}
	h.broadcastToRoom(sessionID, &Message{Type: TypeFrame, SessionID: sessionID, Seq: f.Seq, Payload: payload}, "")
}

func (h *Hub) PublishNotification(sessionID string, n session.Notification) {
	payload, _ := json.Marshal(n)
	h.broadcastToRoom(sessionID, &Message{Type: TypeNotification, SessionID: sessionID, Payload: payload}, "")
}

func (h *Hub) SessionClosed(sessionID string) {
	h.broadcastToRoom(sessionID, &Message{Type: TypeSessionClosed, SessionID: sessionID, Payload: json.RawMessage("{}")}, "")
}

func (h *Hub) broadcastToRoom(sessionID string, msg *Message, excludeClientID string) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("marshal message", "error", err)
		return
	}

	// Sends happen under the read lock so removeClient cannot close a
	// channel mid-send. sendRaw never blocks.
	h.mu.RLock()
	defer h.mu.RUnlock()
	room, ok := h.rooms[sessionID]
	if !ok {
		return
	}
	for _, c := range room.clients {
		if c.ClientID != excludeClientID {
			c.sendRaw(data)
		}
	}
}

func (h *Hub) room(sessionID string) *Room {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rooms[sessionID]
}
