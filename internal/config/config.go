package config

import (
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port           int           `envconfig:"PORT" default:"8080"`
	DatabaseURL    string        `envconfig:"DATABASE_URL"`
	PlannerURL     string        `envconfig:"PLANNER_URL" default:"http://localhost:5000/plan"`
	PlannerTimeout time.Duration `envconfig:"PLANNER_TIMEOUT" default:"30s"`
	AssetDir       string        `envconfig:"ASSET_DIR" default:"./data/assets"`
	FfmpegPath     string        `envconfig:"FFMPEG_PATH" default:"ffmpeg"`
	AllowedOrigins string        `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`

	CanvasWidth    int           `envconfig:"CANVAS_WIDTH" default:"800"`
	CanvasHeight   int           `envconfig:"CANVAS_HEIGHT" default:"600"`
	AnimationSpeed float64       `envconfig:"ANIMATION_SPEED" default:"1"`
	FrameInterval  time.Duration `envconfig:"FRAME_INTERVAL" default:"16ms"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Origins splits AllowedOrigins into its trimmed, non-empty entries.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
