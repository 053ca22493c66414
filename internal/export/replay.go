package export

import (
	"errors"
	"fmt"
	"math"

	"github.com/rrtviz/rrtviz/backend-go/internal/document"
	"github.com/rrtviz/rrtviz/backend-go/internal/engine"
	"github.com/rrtviz/rrtviz/backend-go/internal/surface"
)

// MaxFrames bounds a replay. Longer animations are sped up to fit.
const MaxFrames = 1800

var ErrNothingToReplay = errors.New("no result to replay")

// FrameFunc receives every painted frame of a replay in order.
type FrameFunc func(index int, canvas *surface.Canvas) error

// Replay rebuilds state on an offscreen canvas and plays its result back at
// speed, calling fn with the canvas after the initial paint and after every
// animation step. It returns the number of frames produced.
func Replay(state document.SceneState, speed float64, theme engine.Theme, fn FrameFunc) (int, error) {
	if len(state.Result.Nodes) == 0 {
		return 0, ErrNothingToReplay
	}

	canvas, err := surface.NewCanvas(int(state.Width), int(state.Height))
	if err != nil {
		return 0, fmt.Errorf("create canvas: %w", err)
	}

	events := len(engine.BuildEvents(state.Result.Nodes, state.Result.Edges, state.Result.Path))
	speed = fitSpeed(events, speed)

	sched := engine.NewManualScheduler()
	e := engine.New(canvas, sched, engine.Options{Theme: theme, Speed: speed, Animate: true})
	Restore(e, state)

	frames := 0
	var frameErr error
	emit := func() {
		if frameErr != nil {
			return
		}
		frameErr = fn(frames, canvas)
		frames++
	}

	e.IngestResult(state.Result, document.Details{})
	emit()
	for sched.Pending() > 0 && frameErr == nil {
		sched.Advance()
		emit()
	}
	if frameErr != nil {
		e.CancelAnimation()
		return frames, frameErr
	}
	return frames, nil
}

// Restore copies start, goal and obstacles of state into e.
func Restore(e *engine.Engine, state document.SceneState) {
	e.SetStart(state.Start.X, state.Start.Y)
	e.SetGoal(state.Goal.X, state.Goal.Y)
	for _, o := range state.Obstacles {
		e.AddObstacle(o)
	}
}

// fitSpeed raises speed so that events fit into MaxFrames steps.
func fitSpeed(events int, speed float64) float64 {
	if math.IsNaN(speed) || math.IsInf(speed, 0) || speed <= 0 {
		speed = 1
	}
	if need := float64(events) / MaxFrames; speed < need {
		return math.Ceil(need)
	}
	return speed
}
