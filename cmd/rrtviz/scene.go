package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/rrtviz/rrtviz/backend-go/internal/document"
	"github.com/rrtviz/rrtviz/backend-go/internal/engine"
	"github.com/rrtviz/rrtviz/backend-go/internal/surface"
)

// readScene loads a scene file. Files ending in .json are read as JSON,
// everything else as YAML.
func readScene(path string) (*document.SceneFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".json") {
		return document.LoadSceneJSON(f)
	}
	return document.LoadSceneYAML(f)
}

// readResponse loads a planner response.
func readResponse(path string) (*document.PlanResponse, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var resp document.PlanResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &resp, nil
}

// staticEngine paints scene on a new canvas without animation.
func staticEngine(scene *document.SceneFile) (*engine.Engine, *surface.Canvas, error) {
	canvas, err := surface.NewCanvas(int(scene.Width), int(scene.Height))
	if err != nil {
		return nil, nil, err
	}
	opts := engine.DefaultOptions()
	opts.Animate = false
	e := engine.New(canvas, nil, opts)
	for _, err := range e.LoadScene(scene) {
		slog.Warn("skipping obstacle", "error", err)
	}
	return e, canvas, nil
}

func writePNG(path string, c *surface.Canvas) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := c.EncodePNG(out); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
