package session

import (
	"fmt"
	"math"

	"github.com/rrtviz/rrtviz/backend-go/internal/document"
)

// SettingsPatch is a partial settings update. Nil fields are left unchanged.
type SettingsPatch struct {
	Algorithm  *document.Algorithm  `json:"algorithm,omitempty"`
	Parameters *document.Parameters `json:"parameters,omitempty"`
	Speed      *float64             `json:"speed,omitempty"`
	Animate    *bool                `json:"animate,omitempty"`
}

func (p SettingsPatch) Validate() error {
	if p.Algorithm != nil {
		if _, err := document.ParseAlgorithm(string(*p.Algorithm)); err != nil {
			return err
		}
	}
	if p.Parameters != nil {
		if err := p.Parameters.Validate(); err != nil {
			return err
		}
	}
	if p.Speed != nil {
		if v := *p.Speed; math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			return fmt.Errorf("%w: speed must be positive", document.ErrInvalidParameter)
		}
	}
	return nil
}
