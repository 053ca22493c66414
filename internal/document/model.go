package document

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

var ErrInvalidObstacle = errors.New("invalid obstacle")

// Point is a position in canvas pixels. Coordinates are not guaranteed to be integral.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Finite reports whether both coordinates are finite numbers.
func (p Point) Finite() bool {
	return isFinite(p.X) && isFinite(p.Y)
}

// Pair returns the wire form [x, y].
func (p Point) Pair() []float64 {
	return []float64{p.X, p.Y}
}

// PointFromPair converts a wire [x, y] pair into a Point.
func PointFromPair(pair []float64) (Point, error) {
	if len(pair) < 2 {
		return Point{}, fmt.Errorf("point needs 2 coordinates, got %d", len(pair))
	}
	p := Point{X: pair[0], Y: pair[1]}
	if !p.Finite() {
		return Point{}, fmt.Errorf("point %v is not finite", pair)
	}
	return p, nil
}

type ObstacleType string

const (
	ObstacleRectangle ObstacleType = "rectangle"
	ObstacleCircle    ObstacleType = "circle"
)

// Obstacle is a rectangle or a circle, discriminated by Type.
// Only the fields belonging to the tagged shape are meaningful.
type Obstacle struct {
	Type ObstacleType `json:"type" yaml:"type"`

	// rectangle
	X      float64 `json:"x,omitempty" yaml:"x,omitempty"`
	Y      float64 `json:"y,omitempty" yaml:"y,omitempty"`
	Width  float64 `json:"width,omitempty" yaml:"width,omitempty"`
	Height float64 `json:"height,omitempty" yaml:"height,omitempty"`

	// circle
	CenterX float64 `json:"centerX,omitempty" yaml:"centerX,omitempty"`
	CenterY float64 `json:"centerY,omitempty" yaml:"centerY,omitempty"`
	Radius  float64 `json:"radius,omitempty" yaml:"radius,omitempty"`
}

type rectangleWire struct {
	Type   ObstacleType `json:"type" yaml:"type"`
	X      float64      `json:"x" yaml:"x"`
	Y      float64      `json:"y" yaml:"y"`
	Width  float64      `json:"width" yaml:"width"`
	Height float64      `json:"height" yaml:"height"`
}

type circleWire struct {
	Type    ObstacleType `json:"type" yaml:"type"`
	CenterX float64      `json:"centerX" yaml:"centerX"`
	CenterY float64      `json:"centerY" yaml:"centerY"`
	Radius  float64      `json:"radius" yaml:"radius"`
}

// wire returns the obstacle with every field of its shape, zeros included.
func (o Obstacle) wire() any {
	switch o.Type {
	case ObstacleRectangle:
		return rectangleWire{Type: o.Type, X: o.X, Y: o.Y, Width: o.Width, Height: o.Height}
	case ObstacleCircle:
		return circleWire{Type: o.Type, CenterX: o.CenterX, CenterY: o.CenterY, Radius: o.Radius}
	}
	type plain Obstacle
	return plain(o)
}

func (o Obstacle) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.wire())
}

func (o Obstacle) MarshalYAML() (interface{}, error) {
	return o.wire(), nil
}

// NewRectangle builds a rectangle obstacle. It is not validated.
func NewRectangle(x, y, width, height float64) Obstacle {
	return Obstacle{Type: ObstacleRectangle, X: x, Y: y, Width: width, Height: height}
}

// NewCircle builds a circle obstacle. It is not validated.
func NewCircle(centerX, centerY, radius float64) Obstacle {
	return Obstacle{Type: ObstacleCircle, CenterX: centerX, CenterY: centerY, Radius: radius}
}

// Validate checks the geometric invariants of the obstacle.
func (o Obstacle) Validate() error {
	switch o.Type {
	case ObstacleRectangle:
		if !allFinite(o.X, o.Y, o.Width, o.Height) {
			return fmt.Errorf("%w: rectangle has non-finite fields", ErrInvalidObstacle)
		}
		if o.Width <= 0 || o.Height <= 0 {
			return fmt.Errorf("%w: rectangle size %gx%g must be positive", ErrInvalidObstacle, o.Width, o.Height)
		}
	case ObstacleCircle:
		if !allFinite(o.CenterX, o.CenterY, o.Radius) {
			return fmt.Errorf("%w: circle has non-finite fields", ErrInvalidObstacle)
		}
		if o.Radius <= 0 {
			return fmt.Errorf("%w: circle radius %g must be positive", ErrInvalidObstacle, o.Radius)
		}
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidObstacle, o.Type)
	}
	return nil
}

// Contains reports whether the point lies inside the obstacle.
func (o Obstacle) Contains(x, y float64) bool {
	switch o.Type {
	case ObstacleRectangle:
		return x >= o.X && x <= o.X+o.Width && y >= o.Y && y <= o.Y+o.Height
	case ObstacleCircle:
		dx, dy := x-o.CenterX, y-o.CenterY
		return dx*dx+dy*dy <= o.Radius*o.Radius
	}
	return false
}

// Edge references two nodes by their index in the node sequence.
type Edge struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Valid reports whether both indices address a node in a sequence of length n.
func (e Edge) Valid(n int) bool {
	return e.From >= 0 && e.From < n && e.To >= 0 && e.To < n
}

// Result is a planning outcome ready to be ingested by the scene.
type Result struct {
	Nodes []Point `json:"nodes"`
	Edges []Edge  `json:"edges"`
	Path  []Point `json:"path"`
}

// SceneState is a serializable copy of everything the visualizer displays.
type SceneState struct {
	Width     float64    `json:"width"`
	Height    float64    `json:"height"`
	Start     Point      `json:"start"`
	Goal      Point      `json:"goal"`
	Obstacles []Obstacle `json:"obstacles"`
	Result    Result     `json:"result"`
	Mode      string     `json:"mode"`
	Animating bool       `json:"animating"`
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func allFinite(values ...float64) bool {
	for _, v := range values {
		if !isFinite(v) {
			return false
		}
	}
	return true
}

// Coordinate accepts a dynamically typed value and returns it as a coordinate.
// Anything other than a finite number is rejected.
func Coordinate(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case int32:
		f = float64(n)
	default:
		return 0, false
	}
	if !isFinite(f) {
		return 0, false
	}
	return f, true
}
