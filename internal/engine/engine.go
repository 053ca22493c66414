package engine

import (
	"encoding/json"
	"log/slog"

	"github.com/rrtviz/rrtviz/backend-go/internal/document"
	"github.com/rrtviz/rrtviz/backend-go/internal/surface"
)

// Options configure an Engine.
type Options struct {
	Theme   Theme
	Speed   float64 // animation events per step
	Animate bool    // play new results back incrementally
}

func DefaultOptions() Options {
	return Options{Theme: DefaultTheme(), Speed: 1, Animate: true}
}

// Engine is one visualizer instance. It owns the scene state and paints it on
// an injected surface. Engine is not safe for concurrent use; hosts call it
// from a single goroutine, including scheduler callbacks.
type Engine struct {
	surface    surface.Surface
	scene      *Scene
	renderer   *Renderer
	sequencer  *Sequencer
	controller *Controller

	animate  bool
	details  document.Details
	disabled bool

	onPaint func()
}

// New creates an engine painting on s. A nil surface yields a disabled engine
// on which every operation is a no-op.
func New(s surface.Surface, scheduler Scheduler, opts Options) *Engine {
	if s == nil {
		slog.Error("rendering surface unavailable, visualizer disabled")
		return &Engine{disabled: true, scene: NewScene(0, 0, 0, 0)}
	}
	if scheduler == nil {
		scheduler = NewManualScheduler()
	}

	e := &Engine{
		surface:  s,
		scene:    NewScene(s.Width(), s.Height(), opts.Theme.StartRadius, opts.Theme.GoalRadius),
		renderer: NewRenderer(s, opts.Theme),
		animate:  opts.Animate,
	}
	e.controller = NewController(e.scene)
	e.sequencer = NewSequencer(scheduler, opts.Speed)
	e.sequencer.OnStep(func(t Tree) {
		e.renderer.RenderTree(e.scene, t)
		e.painted()
	})
	e.sequencer.OnDone(func() {
		e.scene.setAnimating(false)
		e.renderer.Render(e.scene)
		e.painted()
	})
	return e
}

// Disabled reports whether the engine has no usable surface.
func (e *Engine) Disabled() bool { return e.disabled }

// OnPaint registers a callback run after every repaint.
func (e *Engine) OnPaint(fn func()) { e.onPaint = fn }

// Scene exposes the scene for reading.
func (e *Engine) Scene() *Scene { return e.scene }

// --- Commands ---

func (e *Engine) SetStart(x, y float64) bool {
	if e.disabled {
		return false
	}
	if !e.scene.SetStart(x, y) {
		slog.Debug("rejected start coordinates", "x", x, "y", y)
		return false
	}
	e.repaint()
	return true
}

func (e *Engine) SetGoal(x, y float64) bool {
	if e.disabled {
		return false
	}
	if !e.scene.SetGoal(x, y) {
		slog.Debug("rejected goal coordinates", "x", x, "y", y)
		return false
	}
	e.repaint()
	return true
}

func (e *Engine) AddObstacle(o document.Obstacle) bool {
	if e.disabled {
		return false
	}
	if !e.scene.AddObstacle(o) {
		slog.Debug("rejected obstacle", "type", o.Type, "error", o.Validate())
		return false
	}
	e.repaint()
	return true
}

func (e *Engine) RemoveObstacle(i int) bool {
	if e.disabled || !e.scene.RemoveObstacle(i) {
		return false
	}
	e.repaint()
	return true
}

func (e *Engine) ClearObstacles() {
	if e.disabled {
		return
	}
	e.scene.ClearObstacles()
	e.repaint()
}

// IngestResult replaces the displayed result. With animation enabled the tree
// is revealed step by step, otherwise it is painted at once.
func (e *Engine) IngestResult(res document.Result, details document.Details) {
	if e.disabled {
		return
	}
	e.sequencer.Cancel()
	e.scene.IngestResult(res.Nodes, res.Edges, res.Path)
	e.details = details

	if !e.animate {
		e.scene.setAnimating(false)
		e.repaint()
		return
	}

	e.scene.setAnimating(true)
	e.sequencer.Start(e.scene.Nodes(), e.scene.Edges(), e.scene.Path())
	if e.sequencer.Active() {
		e.repaint()
	}
}

// ClearResult cancels any animation and removes the tree and path.
func (e *Engine) ClearResult() {
	if e.disabled {
		return
	}
	e.stopAnimation()
	e.scene.ClearResult()
	e.details = document.Details{}
	e.repaint()
}

// Reset cancels any animation and restores the default scene.
func (e *Engine) Reset() {
	if e.disabled {
		return
	}
	e.stopAnimation()
	e.scene.ResetAll()
	e.details = document.Details{}
	e.repaint()
}

// LoadScene resets the engine and places the start, goal and obstacles of f.
// Invalid obstacles are skipped and returned. A positive speed in f is applied.
func (e *Engine) LoadScene(f *document.SceneFile) []error {
	if e.disabled {
		return nil
	}
	e.Reset()
	if f.Start != nil {
		e.SetStart(f.Start.X, f.Start.Y)
	}
	if f.Goal != nil {
		e.SetGoal(f.Goal.X, f.Goal.Y)
	}
	obstacles, errs := f.ValidObstacles()
	for _, o := range obstacles {
		e.AddObstacle(o)
	}
	if f.Speed > 0 {
		e.SetSpeed(f.Speed)
	}
	return errs
}

// CancelAnimation stops playback and shows the complete result.
func (e *Engine) CancelAnimation() {
	if e.disabled || !e.sequencer.Active() {
		return
	}
	e.stopAnimation()
	e.repaint()
}

func (e *Engine) EnterSetStartMode() {
	if !e.disabled {
		e.controller.EnterSetStartMode()
	}
}

func (e *Engine) EnterSetGoalMode() {
	if !e.disabled {
		e.controller.EnterSetGoalMode()
	}
}

func (e *Engine) CancelMode() {
	if !e.disabled {
		e.controller.CancelMode()
	}
}

// Click forwards a pointer click to the interaction controller.
func (e *Engine) Click(x, y float64) bool {
	if e.disabled || !e.controller.Click(x, y) {
		return false
	}
	e.repaint()
	return true
}

// Move returns the pointer readout for (x, y).
func (e *Engine) Move(x, y float64) Readout {
	if e.disabled {
		return Readout{X: x, Y: y, Cursor: CursorDefault, Mode: ModeNone, Obstacle: -1}
	}
	return e.controller.Move(x, y)
}

func (e *Engine) SetSpeed(speed float64) bool {
	if e.disabled {
		return false
	}
	return e.sequencer.SetSpeed(speed)
}

func (e *Engine) SetAnimate(on bool) {
	e.animate = on
}

// --- Queries ---

// Render repaints the current state.
func (e *Engine) Render() {
	if e.disabled {
		return
	}
	e.repaint()
}

// Animating reports whether a sequence is playing.
func (e *Engine) Animating() bool {
	return !e.disabled && e.sequencer.Active()
}

// Subset returns the tree revealed so far by the current or last animation.
func (e *Engine) Subset() Tree {
	if e.disabled {
		return Tree{}
	}
	return e.sequencer.Subset()
}

func (e *Engine) Speed() float64 {
	if e.disabled {
		return 0
	}
	return e.sequencer.Speed()
}

func (e *Engine) Animate() bool { return e.animate }

// Details returns the summary of the displayed result.
func (e *Engine) Details() document.Details { return e.details }

// State returns a serializable copy of the scene.
func (e *Engine) State() document.SceneState {
	return e.scene.Snapshot()
}

// StateJSON returns the scene state as JSON.
func (e *Engine) StateJSON() string {
	data, err := json.Marshal(e.State())
	if err != nil {
		return "{}"
	}
	return string(data)
}

func (e *Engine) stopAnimation() {
	e.sequencer.Cancel()
	e.scene.setAnimating(false)
}

func (e *Engine) repaint() {
	if e.sequencer.Active() {
		e.renderer.RenderTree(e.scene, e.sequencer.Subset())
	} else {
		e.renderer.Render(e.scene)
	}
	e.painted()
}

func (e *Engine) painted() {
	if e.onPaint != nil {
		e.onPaint()
	}
}
