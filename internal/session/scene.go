package session

import (
	"context"
	"log/slog"

	"github.com/rrtviz/rrtviz/backend-go/internal/document"
	"github.com/rrtviz/rrtviz/backend-go/internal/engine"
)

// ApplyScene replaces the scene with f: the result is cleared, start, goal
// and obstacles are taken from f, and so are the planner settings. Invalid
// obstacles are skipped.
func (s *Session) ApplyScene(ctx context.Context, f *document.SceneFile) (document.SceneState, error) {
	var st document.SceneState
	err := s.Do(ctx, func(e *engine.Engine) {
		for _, err := range e.LoadScene(f) {
			slog.Debug("skipping obstacle", "session", s.ID, "error", err)
		}
		if _, err := document.ParseAlgorithm(string(f.Algorithm)); err == nil {
			s.settings.Algorithm = f.Algorithm
		}
		if f.Parameters.Validate() == nil {
			s.settings.Parameters = f.Parameters
		}
		st = e.State()
	})
	return st, err
}

// SceneFile captures the current scene and settings.
func (s *Session) SceneFile(ctx context.Context) (*document.SceneFile, error) {
	var f *document.SceneFile
	err := s.Do(ctx, func(e *engine.Engine) {
		st := e.State()
		start, goal := st.Start, st.Goal
		f = &document.SceneFile{
			Width:      st.Width,
			Height:     st.Height,
			Start:      &start,
			Goal:       &goal,
			Obstacles:  st.Obstacles,
			Algorithm:  s.settings.Algorithm,
			Parameters: s.settings.Parameters,
			Speed:      e.Speed(),
		}
	})
	return f, err
}
