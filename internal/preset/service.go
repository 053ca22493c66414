package preset

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rrtviz/rrtviz/backend-go/internal/document"
	"github.com/rrtviz/rrtviz/backend-go/internal/typeid"
)

const maxNameLength = 100

type Service struct {
	store    Store
	builtins []Preset
	byID     map[string]Preset
}

func NewService(store Store) *Service {
	builtins := Builtins()
	byID := make(map[string]Preset, len(builtins))
	for _, p := range builtins {
		byID[p.ID] = p
	}
	return &Service{store: store, builtins: builtins, byID: byID}
}

// List returns the built-in presets followed by the saved ones.
func (s *Service) List(ctx context.Context) ([]Preset, error) {
	saved, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Preset, 0, len(s.builtins)+len(saved))
	out = append(out, s.builtins...)
	out = append(out, saved...)
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Preset, error) {
	if p, ok := s.byID[id]; ok {
		return &p, nil
	}
	if typeid.Validate(id, typeid.PrefixPreset) != nil {
		return nil, ErrNotFound
	}
	return s.store.Get(ctx, id)
}

// Save stores a preset under name, replacing any saved preset of that name.
func (s *Service) Save(ctx context.Context, name, description string, scene document.SceneFile) (*Preset, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if len(name) > maxNameLength {
		return nil, fmt.Errorf("%w: name is longer than %d characters", ErrInvalid, maxNameLength)
	}
	for _, b := range s.builtins {
		if strings.EqualFold(b.Name, name) {
			return nil, ErrReadOnly
		}
	}
	if err := ValidateScene(scene); err != nil {
		return nil, err
	}

	return s.store.Save(ctx, Preset{
		ID:          typeid.NewPresetID(),
		Name:        name,
		Description: strings.TrimSpace(description),
		Scene:       scene,
	})
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if _, ok := s.byID[id]; ok {
		return ErrReadOnly
	}
	return s.store.Delete(ctx, id)
}

// ValidateScene checks that a scene can be applied as is.
func ValidateScene(scene document.SceneFile) error {
	var errs []error
	if scene.Start != nil && !scene.Start.Finite() {
		errs = append(errs, errors.New("start is not finite"))
	}
	if scene.Goal != nil && !scene.Goal.Finite() {
		errs = append(errs, errors.New("goal is not finite"))
	}
	if _, obstacleErrs := scene.ValidObstacles(); len(obstacleErrs) > 0 {
		errs = append(errs, obstacleErrs...)
	}
	if _, err := document.ParseAlgorithm(string(scene.Algorithm)); err != nil {
		errs = append(errs, err)
	}
	if err := scene.Parameters.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}
