package live

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/rrtviz/rrtviz/backend-go/internal/session"
)

// Sessions looks up the session a viewer asks for.
type Sessions interface {
	Get(id string) (*session.Session, error)
}

type Handler struct {
	hub            *Hub
	sessions       Sessions
	originPatterns []string
}

// NewHandler creates the websocket endpoint. allowedOrigins are full origins
// such as http://localhost:5173.
func NewHandler(hub *Hub, sessions Sessions, allowedOrigins []string) *Handler {
	patterns := make([]string, 0, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			patterns = append(patterns, u.Host)
		}
	}
	return &Handler{hub: hub, sessions: sessions, originPatterns: patterns}
}

// ServeWS handles /ws/sessions/{sessionId}.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Get(mux.Vars(r)["sessionId"])
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	clientID := uuid.New().String()
	client := NewClient(h.hub, conn, s, clientID, "Viewer "+clientID[:4])

	if !h.hub.Register(client) {
		conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}

	ctx := r.Context()
	if frame, err := s.CurrentFrame(ctx); err == nil {
		payload, _ := json.Marshal(frame)
		client.Send(&Message{Type: TypeFrame, SessionID: s.ID, Seq: frame.Seq, Payload: payload})
	}

	go client.WritePump(ctx)
	client.ReadPump(ctx)
}
