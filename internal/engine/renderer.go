package engine

import (
	"github.com/rrtviz/rrtviz/backend-go/internal/document"
	"github.com/rrtviz/rrtviz/backend-go/internal/surface"
)

// Theme holds the colors and sizes used to paint a scene.
type Theme struct {
	Background  string
	GridMajor   string
	GridMinor   string
	GridSpacing float64
	GridDash    [2][]float64 // major, minor
	Border      string
	BorderWidth float64

	ObstacleFrom   string
	ObstacleTo     string
	ObstacleStroke string
	ObstacleRadius float64 // corner radius of rectangle obstacles

	Edge       string
	EdgeWidth  float64
	Node       string
	NodeRadius float64

	PathGlow  string
	Path      string
	PathWidth float64

	StartInner  string
	StartOuter  string
	StartRadius float64
	GoalInner   string
	GoalOuter   string
	GoalRadius  float64
	MarkerRing  string
}

// DefaultTheme is the dark theme of the visualizer page.
func DefaultTheme() Theme {
	return Theme{
		Background:  "#0f172a",
		GridMajor:   "#1e293b",
		GridMinor:   "#162033",
		GridSpacing: 25,
		GridDash:    [2][]float64{{5, 3}, {2, 2}},
		Border:      "#475569",
		BorderWidth: 2,

		ObstacleFrom:   "#64748b",
		ObstacleTo:     "#334155",
		ObstacleStroke: "#94a3b8",
		ObstacleRadius: 4,

		Edge:       "#38bdf8",
		EdgeWidth:  1,
		Node:       "#7dd3fc",
		NodeRadius: 2,

		PathGlow:  "#facc1566",
		Path:      "#facc15",
		PathWidth: 3,

		StartInner:  "#bbf7d0",
		StartOuter:  "#16a34a",
		StartRadius: 10,
		GoalInner:   "#fecaca",
		GoalOuter:   "#dc2626",
		GoalRadius:  10,
		MarkerRing:  "#f8fafc",
	}
}

// Renderer paints scenes onto a surface in a fixed z-order.
type Renderer struct {
	surface surface.Surface
	theme   Theme
}

// NewRenderer creates a renderer for the surface.
func NewRenderer(s surface.Surface, theme Theme) *Renderer {
	return &Renderer{surface: s, theme: theme}
}

// Render repaints the whole scene with its complete tree and path.
func (r *Renderer) Render(sc *Scene) {
	r.RenderTree(sc, ResolveTree(sc.Nodes(), sc.Edges(), sc.Path()))
}

// RenderTree repaints the scene, drawing the given tree instead of the
// scene's own result. Layers, back to front: grid, border, obstacles, edges,
// nodes, path, start, goal.
func (r *Renderer) RenderTree(sc *Scene, tree Tree) {
	s := r.surface
	s.Clear(r.theme.Background)
	r.drawGrid()
	r.drawBorder()
	for _, o := range sc.Obstacles() {
		r.drawObstacle(o)
	}
	r.drawSegments(tree.Segments)
	r.drawNodes(tree.Nodes)
	r.drawPath(tree.Path)

	start, goal := sc.Start(), sc.Goal()
	r.drawMarker(start, r.theme.StartRadius, r.theme.StartInner, r.theme.StartOuter)
	r.drawMarker(goal, r.theme.GoalRadius, r.theme.GoalInner, r.theme.GoalOuter)
}

func (r *Renderer) drawGrid() {
	s, t := r.surface, r.theme
	if t.GridSpacing <= 0 {
		return
	}
	w, h := s.Width(), s.Height()
	for i := 0; float64(i)*t.GridSpacing <= w; i++ {
		x := float64(i) * t.GridSpacing
		s.Line(x, 0, x, h, r.gridStroke(i))
	}
	for i := 0; float64(i)*t.GridSpacing <= h; i++ {
		y := float64(i) * t.GridSpacing
		s.Line(0, y, w, y, r.gridStroke(i))
	}
}

func (r *Renderer) gridStroke(i int) surface.Stroke {
	if i%2 == 0 {
		return surface.Stroke{Color: r.theme.GridMajor, Width: 1, Dash: r.theme.GridDash[0]}
	}
	return surface.Stroke{Color: r.theme.GridMinor, Width: 0.5, Dash: r.theme.GridDash[1]}
}

func (r *Renderer) drawBorder() {
	s, t := r.surface, r.theme
	half := t.BorderWidth / 2
	s.StrokeRoundedRect(half, half, s.Width()-t.BorderWidth, s.Height()-t.BorderWidth, 0,
		surface.Stroke{Color: t.Border, Width: t.BorderWidth})
}

func (r *Renderer) drawObstacle(o document.Obstacle) {
	s, t := r.surface, r.theme
	outline := surface.Stroke{Color: t.ObstacleStroke, Width: 1}
	switch o.Type {
	case document.ObstacleRectangle:
		fill := surface.LinearGradient(o.X, o.Y, o.X+o.Width, o.Y+o.Height, t.ObstacleFrom, t.ObstacleTo)
		s.FillRoundedRect(o.X, o.Y, o.Width, o.Height, t.ObstacleRadius, fill)
		s.StrokeRoundedRect(o.X, o.Y, o.Width, o.Height, t.ObstacleRadius, outline)
	case document.ObstacleCircle:
		fill := surface.RadialGradient(o.CenterX, o.CenterY, 0, o.Radius, t.ObstacleFrom, t.ObstacleTo)
		s.FillCircle(o.CenterX, o.CenterY, o.Radius, fill)
		s.StrokeCircle(o.CenterX, o.CenterY, o.Radius, outline)
	}
}

func (r *Renderer) drawSegments(segs []Segment) {
	stroke := surface.Stroke{Color: r.theme.Edge, Width: r.theme.EdgeWidth}
	for _, seg := range segs {
		r.surface.Line(seg.From.X, seg.From.Y, seg.To.X, seg.To.Y, stroke)
	}
}

func (r *Renderer) drawNodes(nodes []document.Point) {
	fill := surface.Solid(r.theme.Node)
	for _, n := range nodes {
		r.surface.FillCircle(n.X, n.Y, r.theme.NodeRadius, fill)
	}
}

func (r *Renderer) drawPath(path []document.Point) {
	if len(path) < 2 {
		return
	}
	s, t := r.surface, r.theme
	glow := surface.Stroke{Color: t.PathGlow, Width: t.PathWidth * 3}
	line := surface.Stroke{Color: t.Path, Width: t.PathWidth}

	s.PushClipRect(0, 0, s.Width(), s.Height())
	for _, stroke := range []surface.Stroke{glow, line} {
		for i := 1; i < len(path); i++ {
			a, b := path[i-1], path[i]
			s.Line(a.X, a.Y, b.X, b.Y, stroke)
		}
	}
	s.PopClip()
}

func (r *Renderer) drawMarker(p document.Point, radius float64, inner, outer string) {
	s := r.surface
	s.FillCircle(p.X, p.Y, radius, surface.RadialGradient(p.X, p.Y, 0, radius, inner, outer))
	s.StrokeCircle(p.X, p.Y, radius, surface.Stroke{Color: r.theme.MarkerRing, Width: 2})
}
