package export

import (
	"time"

	"github.com/rrtviz/rrtviz/backend-go/internal/document"
	"github.com/rrtviz/rrtviz/backend-go/internal/typeid"
)

// Summary is the exported description of a planning result.
type Summary struct {
	ID         string               `json:"id"`
	ExportedAt time.Time            `json:"exportedAt"`
	Algorithm  string               `json:"algorithm"`
	Details    document.Details     `json:"details"`
	Rows       []document.DetailRow `json:"rows"`
	Start      document.Point       `json:"start"`
	Goal       document.Point       `json:"goal"`
	Obstacles  int                  `json:"obstacles"`
	Nodes      int                  `json:"nodes"`
	Edges      int                  `json:"edges"`
	PathPoints int                  `json:"pathPoints"`
	Smoothness float64              `json:"smoothness"`
	Result     *document.Result     `json:"result,omitempty"`
}

// Summarize builds the summary of a displayed result. includeResult adds the
// full tree and path.
func Summarize(state document.SceneState, details document.Details, includeResult bool) Summary {
	s := Summary{
		ID:         typeid.NewExportID(),
		ExportedAt: time.Now().UTC(),
		Algorithm:  details.Name,
		Details:    details,
		Rows:       details.Rows(),
		Start:      state.Start,
		Goal:       state.Goal,
		Obstacles:  len(state.Obstacles),
		Nodes:      len(state.Result.Nodes),
		Edges:      len(state.Result.Edges),
		PathPoints: len(state.Result.Path),
		Smoothness: Smoothness(state.Result.Path),
	}
	if includeResult {
		res := state.Result
		s.Result = &res
	}
	return s
}
