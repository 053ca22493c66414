package engine

import "github.com/rrtviz/rrtviz/backend-go/internal/document"

// Rect represents an axis-aligned bounding box.
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Contains checks if a point is inside the rect.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width && y >= r.Y && y <= r.Y+r.Height
}

// Segment is a resolved tree edge.
type Segment struct {
	From document.Point `json:"from"`
	To   document.Point `json:"to"`
}

// Tree is a drawable tree and path: either the full result or the subset
// revealed so far by an animation.
type Tree struct {
	Nodes    []document.Point `json:"nodes"`
	Segments []Segment        `json:"segments"`
	Path     []document.Point `json:"path"`
}

// ResolveTree turns index based edges into segments, dropping edges whose
// indices fall outside the node sequence.
func ResolveTree(nodes []document.Point, edges []document.Edge, path []document.Point) Tree {
	t := Tree{
		Nodes:    nodes,
		Segments: make([]Segment, 0, len(edges)),
		Path:     path,
	}
	for _, e := range edges {
		if !e.Valid(len(nodes)) {
			continue
		}
		t.Segments = append(t.Segments, Segment{From: nodes[e.From], To: nodes[e.To]})
	}
	return t
}
