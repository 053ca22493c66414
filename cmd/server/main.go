package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"

	"github.com/rrtviz/rrtviz/backend-go/internal/asset"
	"github.com/rrtviz/rrtviz/backend-go/internal/config"
	"github.com/rrtviz/rrtviz/backend-go/internal/db"
	"github.com/rrtviz/rrtviz/backend-go/internal/engine"
	"github.com/rrtviz/rrtviz/backend-go/internal/export"
	"github.com/rrtviz/rrtviz/backend-go/internal/live"
	mw "github.com/rrtviz/rrtviz/backend-go/internal/middleware"
	"github.com/rrtviz/rrtviz/backend-go/internal/planner"
	"github.com/rrtviz/rrtviz/backend-go/internal/preset"
	"github.com/rrtviz/rrtviz/backend-go/internal/session"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	store, closeStore, err := presetStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	theme := engine.DefaultTheme()

	hub := live.NewHub()

	opts := session.DefaultOptions()
	opts.Width = cfg.CanvasWidth
	opts.Height = cfg.CanvasHeight
	opts.Speed = cfg.AnimationSpeed
	opts.FrameInterval = cfg.FrameInterval
	opts.Theme = theme
	sessions := session.NewManager(ctx, opts, hub)

	plannerClient := planner.NewClient(cfg.PlannerURL, cfg.PlannerTimeout)

	sessionHandler := session.NewHandler(sessions, plannerClient)
	presetHandler := preset.NewHandler(preset.NewService(store), sessions)
	exportHandler := export.NewHandler(sessions, cfg.FfmpegPath, theme)
	assetHandler := asset.NewHandler(cfg.AssetDir, sessions)
	liveHandler := live.NewHandler(hub, sessions, cfg.Origins())

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(cfg.Origins()))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	r.PathPrefix("/assets/").Handler(assetHandler.Serve()).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	sessionHandler.Register(api)
	presetHandler.Register(api)
	exportHandler.Register(api)
	assetHandler.Register(api)

	r.HandleFunc("/ws/sessions/{sessionId}", liveHandler.ServeWS)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})

	g.Go(func() error {
		slog.Info("server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")

		// Stop sessions first so viewers get a session.closed message.
		sessions.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// presetStore uses Postgres when DATABASE_URL is set and memory otherwise.
func presetStore(ctx context.Context, cfg *config.Config) (preset.Store, func(), error) {
	if cfg.DatabaseURL == "" {
		slog.Warn("DATABASE_URL not set, saved presets are kept in memory")
		return preset.NewMemoryStore(), func() {}, nil
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := db.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("migrate database: %w", err)
	}
	return preset.NewPgStore(pool), pool.Close, nil
}
