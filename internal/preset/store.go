package preset

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rrtviz/rrtviz/backend-go/internal/document"
)

var (
	ErrNotFound = errors.New("preset not found")
	ErrReadOnly = errors.New("built-in presets are read-only")
	ErrInvalid  = errors.New("invalid preset")
)

// Preset is a named scene configuration.
type Preset struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Builtin     bool               `json:"builtin"`
	Scene       document.SceneFile `json:"scene"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

// Store persists user presets. Save replaces an existing preset with the
// same name, keeping its ID.
type Store interface {
	List(ctx context.Context) ([]Preset, error)
	Get(ctx context.Context, id string) (*Preset, error)
	Save(ctx context.Context, p Preset) (*Preset, error)
	Delete(ctx context.Context, id string) error
}

// MemoryStore keeps presets in process memory. The server uses it when no
// database is configured.
type MemoryStore struct {
	mu      sync.RWMutex
	presets map[string]Preset
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		presets: make(map[string]Preset),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (m *MemoryStore) List(_ context.Context) ([]Preset, error) {
	m.mu.RLock()
	out := make([]Preset, 0, len(m.presets))
	for _, p := range m.presets {
		out = append(out, p)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Preset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.presets[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (m *MemoryStore) Save(_ context.Context, p Preset) (*Preset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for id, existing := range m.presets {
		if existing.Name == p.Name {
			p.ID = id
			p.CreatedAt = existing.CreatedAt
			break
		}
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	m.presets[p.ID] = p
	return &p, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.presets[id]; !ok {
		return ErrNotFound
	}
	delete(m.presets, id)
	return nil
}
