package document

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// SceneFile describes a scene and planner settings in JSON or YAML.
type SceneFile struct {
	Width      float64    `json:"width" yaml:"width"`
	Height     float64    `json:"height" yaml:"height"`
	Start      *Point     `json:"start,omitempty" yaml:"start,omitempty"`
	Goal       *Point     `json:"goal,omitempty" yaml:"goal,omitempty"`
	Obstacles  []Obstacle `json:"obstacles" yaml:"obstacles"`
	Algorithm  Algorithm  `json:"algorithm,omitempty" yaml:"algorithm,omitempty"`
	Parameters Parameters `json:"parameters" yaml:"parameters"`
	Speed      float64    `json:"speed,omitempty" yaml:"speed,omitempty"`
}

// LoadSceneJSON loads a scene file from a JSON reader.
func LoadSceneJSON(r io.Reader) (*SceneFile, error) {
	var f SceneFile
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode scene json: %w", err)
	}
	f.applyDefaults()
	return &f, nil
}

// LoadSceneYAML loads a scene file from a YAML reader.
func LoadSceneYAML(r io.Reader) (*SceneFile, error) {
	var f SceneFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode scene yaml: %w", err)
	}
	f.applyDefaults()
	return &f, nil
}

func (f *SceneFile) applyDefaults() {
	if f.Width <= 0 {
		f.Width = DefaultWidth
	}
	if f.Height <= 0 {
		f.Height = DefaultHeight
	}
	if f.Algorithm == "" {
		f.Algorithm = AlgorithmRRTStar
	}
	if f.Parameters == (Parameters{}) {
		f.Parameters = DefaultParameters()
	}
	if f.Speed <= 0 {
		f.Speed = 1
	}
}

// ValidObstacles returns the obstacles that pass validation and the errors of those that don't.
func (f *SceneFile) ValidObstacles() ([]Obstacle, []error) {
	valid := make([]Obstacle, 0, len(f.Obstacles))
	var errs []error
	for i, o := range f.Obstacles {
		if err := o.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("obstacle %d: %w", i, err))
			continue
		}
		valid = append(valid, o)
	}
	return valid, errs
}
