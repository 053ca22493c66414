package session

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/rrtviz/rrtviz/backend-go/internal/typeid"
)

// Info describes a live session.
type Info struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}

// Manager owns the live sessions of a server.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	ctx       context.Context
	opts      Options
	publisher Publisher
	wg        sync.WaitGroup
}

// NewManager creates a manager. Sessions run until deleted, until ctx is
// cancelled or until Shutdown.
func NewManager(ctx context.Context, opts Options, pub Publisher) *Manager {
	return &Manager{
		sessions:  make(map[string]*Session),
		ctx:       ctx,
		opts:      opts,
		publisher: pub,
	}
}

func (m *Manager) Create() (*Session, error) {
	s, err := New(typeid.NewSessionID(), m.opts, m.publisher)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		s.Run(m.ctx)
	}()

	slog.Info("session created", "session", s.ID)
	return s, nil
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// SessionPNG encodes the canvas of session id.
func (m *Manager) SessionPNG(ctx context.Context, id string) ([]byte, error) {
	s, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	return s.PNG(ctx)
}

func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()
	if !ok {
		return ErrNotFound
	}

	s.Stop()
	if m.publisher != nil {
		m.publisher.SessionClosed(id)
	}
	slog.Info("session deleted", "session", id)
	return nil
}

// List returns the live sessions, oldest first.
func (m *Manager) List() []Info {
	m.mu.RLock()
	out := make([]Info, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, Info{ID: s.ID, CreatedAt: s.CreatedAt})
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Shutdown stops every session and waits for their loops to exit.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for id, s := range sessions {
		s.Stop()
		if m.publisher != nil {
			m.publisher.SessionClosed(id)
		}
	}
	m.wg.Wait()
	slog.Info("sessions stopped", "count", len(sessions))
}
