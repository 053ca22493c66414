package engine

import (
	"math"

	"github.com/rrtviz/rrtviz/backend-go/internal/document"
)

// Mode is the interaction mode of the scene.
type Mode string

const (
	ModeNone     Mode = "none"
	ModeSetStart Mode = "setStart"
	ModeSetGoal  Mode = "setGoal"
)

// defaultMarkerInset is how far the default start and goal sit from the
// corners on surfaces large enough; smaller ones use defaultMarkerFraction of
// each dimension instead.
const (
	defaultMarkerInset    = 50
	defaultMarkerFraction = 0.1
)

// Scene is the mutable model the renderer draws: start, goal, obstacles and
// the latest planning result.
//
// Coordinate mutators clamp into the drawable area and silently ignore
// non-finite input; they report whether the call changed anything.
type Scene struct {
	width, height float64
	startRadius   float64
	goalRadius    float64

	start     document.Point
	goal      document.Point
	obstacles []document.Obstacle

	nodes []document.Point
	edges []document.Edge
	path  []document.Point

	mode      Mode
	animating bool
}

// NewScene creates a scene for a surface of the given size with default start and goal.
func NewScene(width, height, startRadius, goalRadius float64) *Scene {
	s := &Scene{
		width:       width,
		height:      height,
		startRadius: startRadius,
		goalRadius:  goalRadius,
	}
	s.ResetAll()
	return s
}

func (s *Scene) Width() float64  { return s.width }
func (s *Scene) Height() float64 { return s.height }

func (s *Scene) Start() document.Point { return s.start }
func (s *Scene) Goal() document.Point  { return s.goal }
func (s *Scene) Mode() Mode            { return s.mode }
func (s *Scene) Animating() bool       { return s.animating }

// Obstacles returns the stored obstacles. Callers must not modify the slice.
func (s *Scene) Obstacles() []document.Obstacle { return s.obstacles }

// Nodes, Edges and Path return the current result. Callers must not modify them.
func (s *Scene) Nodes() []document.Point { return s.nodes }
func (s *Scene) Edges() []document.Edge  { return s.edges }
func (s *Scene) Path() []document.Point  { return s.path }

// SetStart moves the start marker, clamped to the drawable area.
func (s *Scene) SetStart(x, y float64) bool {
	p, ok := s.clamp(x, y, s.startRadius)
	if !ok {
		return false
	}
	s.start = p
	return true
}

// SetGoal moves the goal marker, clamped to the drawable area.
func (s *Scene) SetGoal(x, y float64) bool {
	p, ok := s.clamp(x, y, s.goalRadius)
	if !ok {
		return false
	}
	s.goal = p
	return true
}

// AddObstacle stores a valid obstacle. Invalid obstacles are dropped.
func (s *Scene) AddObstacle(o document.Obstacle) bool {
	if o.Validate() != nil {
		return false
	}
	s.obstacles = append(s.obstacles, o)
	return true
}

// RemoveObstacle deletes the obstacle at index i.
func (s *Scene) RemoveObstacle(i int) bool {
	if i < 0 || i >= len(s.obstacles) {
		return false
	}
	s.obstacles = append(s.obstacles[:i], s.obstacles[i+1:]...)
	return true
}

// ObstacleAt returns the index of the topmost obstacle containing (x, y), or -1.
func (s *Scene) ObstacleAt(x, y float64) int {
	for i := len(s.obstacles) - 1; i >= 0; i-- {
		if s.obstacles[i].Contains(x, y) {
			return i
		}
	}
	return -1
}

func (s *Scene) ClearObstacles() {
	s.obstacles = nil
}

// IngestResult replaces the tree and path wholesale.
func (s *Scene) IngestResult(nodes []document.Point, edges []document.Edge, path []document.Point) {
	s.nodes = append([]document.Point(nil), nodes...)
	s.edges = append([]document.Edge(nil), edges...)
	s.path = append([]document.Point(nil), path...)
}

func (s *Scene) ClearResult() {
	s.nodes = nil
	s.edges = nil
	s.path = nil
}

// ResetAll restores defaults: start and goal in opposite corners, no
// obstacles, no result, no interaction mode.
func (s *Scene) ResetAll() {
	w, h := s.width, s.height
	s.start, _ = s.clamp(
		math.Min(defaultMarkerInset, w*defaultMarkerFraction),
		math.Min(defaultMarkerInset, h*defaultMarkerFraction),
		s.startRadius)
	s.goal, _ = s.clamp(
		math.Max(w-defaultMarkerInset, w*(1-defaultMarkerFraction)),
		math.Max(h-defaultMarkerInset, h*(1-defaultMarkerFraction)),
		s.goalRadius)
	s.obstacles = nil
	s.ClearResult()
	s.mode = ModeNone
	s.animating = false
}

// Result returns a copy of the current result.
func (s *Scene) Result() document.Result {
	return document.Result{
		Nodes: append([]document.Point{}, s.nodes...),
		Edges: append([]document.Edge{}, s.edges...),
		Path:  append([]document.Point{}, s.path...),
	}
}

// Snapshot returns a serializable copy of the scene.
func (s *Scene) Snapshot() document.SceneState {
	return document.SceneState{
		Width:     s.width,
		Height:    s.height,
		Start:     s.start,
		Goal:      s.goal,
		Obstacles: append([]document.Obstacle{}, s.obstacles...),
		Result:    s.Result(),
		Mode:      string(s.mode),
		Animating: s.animating,
	}
}

// Bounds returns the surface rectangle.
func (s *Scene) Bounds() Rect {
	return Rect{Width: s.width, Height: s.height}
}

func (s *Scene) setMode(m Mode)       { s.mode = m }
func (s *Scene) setAnimating(on bool) { s.animating = on }

func (s *Scene) clamp(x, y, radius float64) (document.Point, bool) {
	p := document.Point{X: x, Y: y}
	if !p.Finite() {
		return document.Point{}, false
	}
	return document.Point{
		X: clampAxis(x, radius, s.width),
		Y: clampAxis(y, radius, s.height),
	}, true
}

// clampAxis keeps v within [radius, size-radius]. When the axis is too short
// for the marker the center of the axis is used.
func clampAxis(v, radius, size float64) float64 {
	lo, hi := radius, size-radius
	if lo > hi {
		return size / 2
	}
	return math.Min(math.Max(v, lo), hi)
}
