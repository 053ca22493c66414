package document

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
)

var (
	ErrUnknownAlgorithm = errors.New("unknown algorithm")
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrMalformedResult  = errors.New("malformed result")
)

type Algorithm string

const (
	AlgorithmBaseRRT     Algorithm = "BaseRRT"
	AlgorithmRRTStar     Algorithm = "RRTStar"
	AlgorithmRRTConnect  Algorithm = "RRTConnect"
	AlgorithmInformedRRT Algorithm = "InformedRRT"
)

// Algorithms lists the planners the backend understands, in display order.
var Algorithms = []Algorithm{
	AlgorithmBaseRRT,
	AlgorithmRRTStar,
	AlgorithmRRTConnect,
	AlgorithmInformedRRT,
}

// ParseAlgorithm returns the algorithm with the given name.
func ParseAlgorithm(name string) (Algorithm, error) {
	for _, a := range Algorithms {
		if string(a) == name {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
}

// Parameters tune the remote planner.
type Parameters struct {
	StepSize       float64 `json:"stepSize" yaml:"stepSize"`
	MaxIter        float64 `json:"maxIter" yaml:"maxIter"`
	GoalSampleRate float64 `json:"goalSampleRate" yaml:"goalSampleRate"`
	SearchRadius   float64 `json:"searchRadius" yaml:"searchRadius"`
}

// DefaultParameters mirrors the defaults of the planner form.
func DefaultParameters() Parameters {
	return Parameters{
		StepSize:       20,
		MaxIter:        3000,
		GoalSampleRate: 0.1,
		SearchRadius:   50,
	}
}

// Validate checks that every parameter is a usable number.
func (p Parameters) Validate() error {
	if !allFinite(p.StepSize, p.MaxIter, p.GoalSampleRate, p.SearchRadius) {
		return fmt.Errorf("%w: parameters must be finite", ErrInvalidParameter)
	}
	if p.StepSize <= 0 {
		return fmt.Errorf("%w: stepSize must be positive", ErrInvalidParameter)
	}
	if p.MaxIter <= 0 || p.MaxIter != math.Trunc(p.MaxIter) {
		return fmt.Errorf("%w: maxIter must be a positive integer", ErrInvalidParameter)
	}
	if p.GoalSampleRate < 0 || p.GoalSampleRate > 1 {
		return fmt.Errorf("%w: goalSampleRate must be within [0, 1]", ErrInvalidParameter)
	}
	if p.SearchRadius <= 0 {
		return fmt.Errorf("%w: searchRadius must be positive", ErrInvalidParameter)
	}
	return nil
}

// PlanRequest is sent to the remote planner.
type PlanRequest struct {
	Start      []float64  `json:"start"`
	Goal       []float64  `json:"goal"`
	Algorithm  Algorithm  `json:"algorithm"`
	Obstacles  []Obstacle `json:"obstacles"`
	Parameters Parameters `json:"parameters"`
}

// NewPlanRequest builds a request from a scene state.
func NewPlanRequest(state SceneState, algorithm Algorithm, params Parameters) PlanRequest {
	obstacles := state.Obstacles
	if obstacles == nil {
		obstacles = []Obstacle{}
	}
	return PlanRequest{
		Start:      state.Start.Pair(),
		Goal:       state.Goal.Pair(),
		Algorithm:  algorithm,
		Obstacles:  obstacles,
		Parameters: params,
	}
}

// PlanResponse is returned by the remote planner.
type PlanResponse struct {
	Success  bool        `json:"success"`
	Error    string      `json:"error,omitempty"`
	Details  Details     `json:"details"`
	Vertices [][]float64 `json:"vertices"`
	Edges    [][]float64 `json:"edges"`
	Path     [][]float64 `json:"path"`
}

// Result converts the wire arrays into an ingestible result.
// Edge indices that are out of range are kept; they are dropped at drawing time.
func (r *PlanResponse) Result() (Result, error) {
	res := Result{
		Nodes: make([]Point, 0, len(r.Vertices)),
		Edges: make([]Edge, 0, len(r.Edges)),
		Path:  make([]Point, 0, len(r.Path)),
	}
	for i, v := range r.Vertices {
		p, err := PointFromPair(v)
		if err != nil {
			return Result{}, fmt.Errorf("%w: vertex %d: %v", ErrMalformedResult, i, err)
		}
		res.Nodes = append(res.Nodes, p)
	}
	for i, e := range r.Edges {
		if len(e) < 2 {
			return Result{}, fmt.Errorf("%w: edge %d needs 2 indices", ErrMalformedResult, i)
		}
		from, okFrom := index(e[0])
		to, okTo := index(e[1])
		if !okFrom || !okTo {
			return Result{}, fmt.Errorf("%w: edge %d has non-integral index", ErrMalformedResult, i)
		}
		res.Edges = append(res.Edges, Edge{From: from, To: to})
	}
	for i, v := range r.Path {
		p, err := PointFromPair(v)
		if err != nil {
			return Result{}, fmt.Errorf("%w: path point %d: %v", ErrMalformedResult, i, err)
		}
		res.Path = append(res.Path, p)
	}
	return res, nil
}

func index(f float64) (int, bool) {
	if !isFinite(f) || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

// Details holds the result summary. Known fields are typed; anything else the
// planner reports lands in Extra when it is a primitive value.
type Details struct {
	Name         string         `json:"name"`
	PathLength   float64        `json:"path_length"`
	PlanningTime float64        `json:"planning_time"`
	Iterations   int            `json:"iterations"`
	Nodes        int            `json:"nodes"`
	Extra        map[string]any `json:"-"`
}

var detailKeys = map[string]bool{
	"name":          true,
	"path_length":   true,
	"planning_time": true,
	"iterations":    true,
	"nodes":         true,
}

type detailsCore struct {
	Name         string  `json:"name"`
	PathLength   float64 `json:"path_length"`
	PlanningTime float64 `json:"planning_time"`
	Iterations   float64 `json:"iterations"`
	Nodes        float64 `json:"nodes"`
}

func (d *Details) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var core detailsCore
	if err := json.Unmarshal(data, &core); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*d = Details{
		Name:         core.Name,
		PathLength:   core.PathLength,
		PlanningTime: core.PlanningTime,
		Iterations:   int(core.Iterations),
		Nodes:        int(core.Nodes),
	}
	for key, msg := range raw {
		if detailKeys[key] {
			continue
		}
		var v any
		if err := json.Unmarshal(msg, &v); err != nil {
			continue
		}
		switch v.(type) {
		case string, float64, bool:
			if d.Extra == nil {
				d.Extra = make(map[string]any)
			}
			d.Extra[key] = v
		}
	}
	return nil
}

func (d Details) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(d.Extra)+len(detailKeys))
	for k, v := range d.Extra {
		out[k] = v
	}
	out["name"] = d.Name
	out["path_length"] = d.PathLength
	out["planning_time"] = d.PlanningTime
	out["iterations"] = d.Iterations
	out["nodes"] = d.Nodes
	return json.Marshal(out)
}

// DetailRow is one line of the result summary.
type DetailRow struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// Rows returns the summary in display order: core fields, then extras by key.
func (d Details) Rows() []DetailRow {
	rows := []DetailRow{
		{Key: "name", Label: "Algorithm", Value: d.Name},
		{Key: "path_length", Label: "Path Length", Value: strconv.FormatFloat(d.PathLength, 'f', 2, 64)},
		{Key: "planning_time", Label: "Planning Time (s)", Value: strconv.FormatFloat(d.PlanningTime, 'f', 4, 64)},
		{Key: "iterations", Label: "Iterations", Value: strconv.Itoa(d.Iterations)},
		{Key: "nodes", Label: "Nodes", Value: strconv.Itoa(d.Nodes)},
	}

	keys := make([]string, 0, len(d.Extra))
	for k := range d.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		rows = append(rows, DetailRow{Key: k, Label: labelFor(k), Value: formatPrimitive(d.Extra[k])})
	}
	return rows
}

func labelFor(key string) string {
	out := make([]rune, 0, len(key))
	upper := true
	for _, r := range key {
		if r == '_' {
			out = append(out, ' ')
			upper = true
			continue
		}
		if upper && r >= 'a' && r <= 'z' {
			r -= 'a' - 'A'
		}
		upper = false
		out = append(out, r)
	}
	return string(out)
}

func formatPrimitive(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}
