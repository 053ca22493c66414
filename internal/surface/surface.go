// Package surface provides the 2-D drawing targets the visualizer paints on.
//
// A Surface is an immediate-mode context: every call paints right away, in
// painter's order. Canvas rasterizes into an image, Recorder keeps the calls
// as draw commands for a browser canvas to replay.
package surface

import "errors"

// ErrUnavailable is returned when a drawing surface cannot be created.
var ErrUnavailable = errors.New("drawing surface unavailable")

// Surface is the set of primitives the renderer needs.
type Surface interface {
	Width() float64
	Height() float64

	// Clear wipes the surface with a solid color and starts a new frame.
	Clear(color string)

	FillCircle(x, y, r float64, fill Paint)
	StrokeCircle(x, y, r float64, stroke Stroke)
	Line(x1, y1, x2, y2 float64, stroke Stroke)
	FillRoundedRect(x, y, w, h, r float64, fill Paint)
	StrokeRoundedRect(x, y, w, h, r float64, stroke Stroke)

	// PushClipRect restricts drawing to a rectangle until the matching PopClip.
	PushClipRect(x, y, w, h float64)
	PopClip()
}

type GradientKind string

const (
	GradientLinear GradientKind = "linear"
	GradientRadial GradientKind = "radial"
)

// Stop is a gradient color stop. Offset lies in [0, 1].
type Stop struct {
	Offset float64 `json:"offset"`
	Color  string  `json:"color"`
}

// Gradient describes a linear gradient from (X0,Y0) to (X1,Y1), or a radial
// gradient centered on (X0,Y0) growing from R0 to R1.
type Gradient struct {
	Kind  GradientKind `json:"kind"`
	X0    float64      `json:"x0"`
	Y0    float64      `json:"y0"`
	X1    float64      `json:"x1,omitempty"`
	Y1    float64      `json:"y1,omitempty"`
	R0    float64      `json:"r0,omitempty"`
	R1    float64      `json:"r1,omitempty"`
	Stops []Stop       `json:"stops"`
}

// Paint is either a solid color or a gradient.
type Paint struct {
	Color    string    `json:"color,omitempty"`
	Gradient *Gradient `json:"gradient,omitempty"`
}

// Solid returns a solid color paint.
func Solid(color string) Paint {
	return Paint{Color: color}
}

// LinearGradient returns a two-stop linear gradient paint.
func LinearGradient(x0, y0, x1, y1 float64, from, to string) Paint {
	return Paint{Gradient: &Gradient{
		Kind: GradientLinear,
		X0:   x0, Y0: y0, X1: x1, Y1: y1,
		Stops: []Stop{{Offset: 0, Color: from}, {Offset: 1, Color: to}},
	}}
}

// RadialGradient returns a two-stop radial gradient paint.
func RadialGradient(cx, cy, r0, r1 float64, inner, outer string) Paint {
	return Paint{Gradient: &Gradient{
		Kind: GradientRadial,
		X0:   cx, Y0: cy, R0: r0, R1: r1,
		Stops: []Stop{{Offset: 0, Color: inner}, {Offset: 1, Color: outer}},
	}}
}

// Stroke is a solid outline style.
type Stroke struct {
	Color string    `json:"color"`
	Width float64   `json:"width"`
	Dash  []float64 `json:"dash,omitempty"`
}
