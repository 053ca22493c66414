// Package session hosts visualizer engines on the server. Each session runs
// its engine on a single goroutine; every other goroutine reaches the engine
// through Do.
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/rrtviz/rrtviz/backend-go/internal/document"
	"github.com/rrtviz/rrtviz/backend-go/internal/engine"
	"github.com/rrtviz/rrtviz/backend-go/internal/planner"
	"github.com/rrtviz/rrtviz/backend-go/internal/surface"
)

var (
	ErrNotFound = errors.New("session not found")
	ErrClosed   = errors.New("session closed")
	ErrBusy     = errors.New("planning already in progress")
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notification is a transient status message for the viewers of a session.
type Notification struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// Frame is one painted frame as draw commands.
type Frame struct {
	Seq       int64           `json:"seq"`
	Animating bool            `json:"animating"`
	Commands  json.RawMessage `json:"commands"`
}

// Publisher receives everything a session emits for its viewers.
type Publisher interface {
	PublishFrame(sessionID string, f Frame)
	PublishNotification(sessionID string, n Notification)
	SessionClosed(sessionID string)
}

// Planner computes a plan for a request.
type Planner interface {
	Plan(ctx context.Context, req document.PlanRequest) (*document.PlanResponse, error)
}

// Settings are the planner choices of a session.
type Settings struct {
	Algorithm  document.Algorithm  `json:"algorithm"`
	Parameters document.Parameters `json:"parameters"`
	Speed      float64             `json:"speed"`
	Animate    bool                `json:"animate"`
}

type Options struct {
	Width         int
	Height        int
	Speed         float64
	Animate       bool
	FrameInterval time.Duration
	Theme         engine.Theme
}

func DefaultOptions() Options {
	return Options{
		Width:         document.DefaultWidth,
		Height:        document.DefaultHeight,
		Speed:         1,
		Animate:       true,
		FrameInterval: 16 * time.Millisecond,
		Theme:         engine.DefaultTheme(),
	}
}

// Session is one hosted visualizer.
type Session struct {
	ID        string
	CreatedAt time.Time

	engine   *engine.Engine
	canvas   *surface.Canvas
	recorder *surface.Recorder
	frames   *engine.ManualScheduler
	interval time.Duration

	publisher Publisher
	ops       chan func()
	done      chan struct{}
	stopOnce  sync.Once
	planning  atomic.Bool

	// Owned by the loop goroutine.
	settings Settings
	seq      int64
	lastHash uint64
}

// New creates a session. Call Run to start its frame loop.
func New(id string, opts Options, pub Publisher) (*Session, error) {
	canvas, err := surface.NewCanvas(opts.Width, opts.Height)
	if err != nil {
		return nil, fmt.Errorf("create canvas: %w", err)
	}
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = DefaultOptions().FrameInterval
	}

	s := &Session{
		ID:        id,
		CreatedAt: time.Now().UTC(),
		canvas:    canvas,
		recorder:  surface.NewRecorder(float64(opts.Width), float64(opts.Height)),
		frames:    engine.NewManualScheduler(),
		interval:  opts.FrameInterval,
		publisher: pub,
		ops:       make(chan func()),
		done:      make(chan struct{}),
		settings: Settings{
			Algorithm:  document.AlgorithmRRTStar,
			Parameters: document.DefaultParameters(),
		},
	}

	s.engine = engine.New(surface.Multi{s.recorder, s.canvas}, s.frames, engine.Options{
		Theme:   opts.Theme,
		Speed:   opts.Speed,
		Animate: opts.Animate,
	})
	s.engine.OnPaint(s.painted)
	s.engine.Render()
	return s, nil
}

// Run drives the session until ctx is cancelled or Stop is called. Pending
// animation frames advance once per frame interval.
func (s *Session) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.Stop()
			return
		case <-s.done:
			return
		case fn := <-s.ops:
			fn()
		case <-ticker.C:
			if s.frames.Pending() > 0 {
				s.frames.Advance()
			}
		}
	}
}

// Stop ends the frame loop. Further calls to Do return ErrClosed.
func (s *Session) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
	})
}

// Done is closed once the session has stopped.
func (s *Session) Done() <-chan struct{} { return s.done }

// Do runs fn on the session goroutine and waits for it to return.
func (s *Session) Do(ctx context.Context, fn func(e *engine.Engine)) error {
	finished := make(chan struct{})
	op := func() {
		defer close(finished)
		fn(s.engine)
	}

	select {
	case s.ops <- op:
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-finished:
		return nil
	case <-s.done:
		return ErrClosed
	}
}

// State returns the scene state.
func (s *Session) State(ctx context.Context) (document.SceneState, error) {
	var st document.SceneState
	err := s.Do(ctx, func(e *engine.Engine) { st = e.State() })
	return st, err
}

// Details returns the summary of the displayed result.
func (s *Session) Details(ctx context.Context) (document.Details, error) {
	var d document.Details
	err := s.Do(ctx, func(e *engine.Engine) { d = e.Details() })
	return d, err
}

// Settings returns the planner settings.
func (s *Session) Settings(ctx context.Context) (Settings, error) {
	var out Settings
	err := s.Do(ctx, func(e *engine.Engine) { out = s.currentSettings(e) })
	return out, err
}

// UpdateSettings applies the non-zero fields of a settings patch.
func (s *Session) UpdateSettings(ctx context.Context, patch SettingsPatch) (Settings, error) {
	if err := patch.Validate(); err != nil {
		return Settings{}, err
	}
	var out Settings
	err := s.Do(ctx, func(e *engine.Engine) {
		if patch.Algorithm != nil {
			s.settings.Algorithm = *patch.Algorithm
		}
		if patch.Parameters != nil {
			s.settings.Parameters = *patch.Parameters
		}
		if patch.Speed != nil {
			e.SetSpeed(*patch.Speed)
		}
		if patch.Animate != nil {
			e.SetAnimate(*patch.Animate)
		}
		out = s.currentSettings(e)
	})
	return out, err
}

func (s *Session) currentSettings(e *engine.Engine) Settings {
	out := s.settings
	out.Speed = e.Speed()
	out.Animate = e.Animate()
	return out
}

// PNG encodes the current canvas.
func (s *Session) PNG(ctx context.Context) ([]byte, error) {
	var buf bytes.Buffer
	var encErr error
	if err := s.Do(ctx, func(*engine.Engine) { encErr = s.canvas.EncodePNG(&buf) }); err != nil {
		return nil, err
	}
	if encErr != nil {
		return nil, fmt.Errorf("encode png: %w", encErr)
	}
	return buf.Bytes(), nil
}

// CurrentFrame returns the last painted frame, for viewers that just joined.
func (s *Session) CurrentFrame(ctx context.Context) (Frame, error) {
	var f Frame
	err := s.Do(ctx, func(e *engine.Engine) {
		data, err := s.recorder.JSON()
		if err != nil {
			data = []byte("[]")
		}
		f = Frame{Seq: s.seq, Animating: e.Animating(), Commands: data}
	})
	return f, err
}

// Plan asks p for a plan of the current scene and ingests the result. Viewers
// are notified when planning starts and ends. An unsuccessful plan still shows
// the explored tree; transport and remote errors never change the scene.
func (s *Session) Plan(ctx context.Context, p Planner) (*document.PlanResponse, error) {
	if !s.planning.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer s.planning.Store(false)

	var req document.PlanRequest
	if err := s.Do(ctx, func(e *engine.Engine) {
		req = document.NewPlanRequest(e.State(), s.settings.Algorithm, s.settings.Parameters)
	}); err != nil {
		return nil, err
	}

	s.Notify(LevelInfo, fmt.Sprintf("Planning with %s...", req.Algorithm))

	resp, err := p.Plan(ctx, req)
	if err != nil && (resp == nil || !errors.Is(err, planner.ErrPlanningFailed)) {
		slog.Warn("planning failed", "session", s.ID, "algorithm", req.Algorithm, "error", err)
		s.Notify(LevelError, err.Error())
		return resp, err
	}
	if err := s.Ingest(ctx, resp); err != nil {
		return resp, err
	}
	return resp, nil
}

// Ingest validates a planner response and hands it to the engine. A response
// carrying an error message is rejected and leaves the scene untouched.
func (s *Session) Ingest(ctx context.Context, resp *document.PlanResponse) error {
	if resp.Error != "" {
		s.Notify(LevelError, resp.Error)
		return fmt.Errorf("%w: %s", planner.ErrPlanningFailed, resp.Error)
	}
	res, err := resp.Result()
	if err != nil {
		s.Notify(LevelError, err.Error())
		return err
	}
	if err := s.Do(ctx, func(e *engine.Engine) { e.IngestResult(res, resp.Details) }); err != nil {
		return err
	}

	if !resp.Success || len(res.Path) == 0 {
		s.Notify(LevelWarning, fmt.Sprintf("No path found (%d nodes explored)", len(res.Nodes)))
	} else {
		s.Notify(LevelSuccess, fmt.Sprintf("Path found: %d nodes, length %.2f", len(res.Nodes), resp.Details.PathLength))
	}
	return nil
}

// Notify sends a notification to the session's viewers.
func (s *Session) Notify(level Level, msg string) {
	if s.publisher != nil {
		s.publisher.PublishNotification(s.ID, Notification{Level: level, Message: msg})
	}
}

// painted runs on the loop goroutine after every repaint and publishes the
// frame when its commands changed.
func (s *Session) painted() {
	data, err := s.recorder.JSON()
	if err != nil {
		slog.Error("marshal frame", "session", s.ID, "error", err)
		return
	}
	h := xxhash.Sum64(data)
	if h == s.lastHash && s.seq > 0 {
		return
	}
	s.lastHash = h
	s.seq++
	if s.publisher != nil {
		s.publisher.PublishFrame(s.ID, Frame{Seq: s.seq, Animating: s.engine.Animating(), Commands: data})
	}
}
