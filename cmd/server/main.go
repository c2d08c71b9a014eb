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

	"github.com/codepanda/gestureimage/internal/asset"
	"github.com/codepanda/gestureimage/internal/auth"
	"github.com/codepanda/gestureimage/internal/config"
	"github.com/codepanda/gestureimage/internal/db"
	"github.com/codepanda/gestureimage/internal/mapfile"
	"github.com/codepanda/gestureimage/internal/maps"
	mw "github.com/codepanda/gestureimage/internal/middleware"
	"github.com/codepanda/gestureimage/internal/session"
	"github.com/codepanda/gestureimage/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	level, _ := cfg.SlogLevel()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo, closeRepo, err := openRepository(ctx, cfg)
	if err != nil {
		slog.Error("open map store", "error", err)
		os.Exit(1)
	}
	defer closeRepo()

	ids := mapfile.NewIDRegistry()
	if err := seedMaps(ctx, cfg, repo, ids); err != nil {
		slog.Error("seed maps", "error", err)
		os.Exit(1)
	}
	if _, err := repo.Get(ctx, cfg.MapName); err != nil {
		slog.Warn("default map unavailable", "map", cfg.MapName, "error", err)
	}

	authService := auth.NewService(cfg.JWTSecret, cfg.AdminPasswordHash)
	authHandler := auth.NewHandler(authService)
	if cfg.AdminPasswordHash == "" {
		slog.Warn("ADMIN_PASSWORD_HASH not set, map uploads are disabled")
	}

	assetHandler := asset.NewHandler(cfg.AssetDir)

	hub := session.NewHub()
	go hub.Run()

	mapHandler := maps.NewHandler(repo, ids)
	mapHandler.SetNotifier(hub)

	wsHandler := session.NewHandler(hub, session.Deps{
		Options:    cfg.EngineOptions(),
		Repo:       repo,
		IDs:        ids,
		Content:    assetHandler.Content,
		DefaultMap: cfg.MapName,
	}, cfg.OriginPatterns())

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(cfg.Origins()))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	r.HandleFunc("/auth/login", authHandler.Login).Methods("POST")

	// Public map reads
	r.HandleFunc("/maps", mapHandler.List).Methods("GET")
	r.HandleFunc("/maps/{name}", mapHandler.Get).Methods("GET")
	r.HandleFunc("/maps/{name}/hit", mapHandler.Hit).Methods("POST")

	r.HandleFunc("/assets/upload", assetHandler.Upload).Methods("POST", "OPTIONS")
	r.PathPrefix("/assets/").Handler(assetHandler.Serve()).Methods("GET")

	// Protected API routes
	api := r.PathPrefix("/api").Subrouter()
	api.Use(authService.RequireScope(auth.ScopeMapsWrite))

	api.HandleFunc("/maps/{name}", mapHandler.Put).Methods("PUT")
	api.HandleFunc("/maps/{name}", mapHandler.Delete).Methods("DELETE")

	r.Handle("/ws", wsHandler)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server", "sessions", hub.Count())
		hub.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

// openRepository picks Postgres when DATABASE_URL is set and the in-memory
// store otherwise.
func openRepository(ctx context.Context, cfg *config.Config) (store.Repository, func(), error) {
	if cfg.DatabaseURL == "" {
		slog.Info("DATABASE_URL not set, keeping maps in memory")
		return store.NewMemoryRepository(), func() {}, nil
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	repo := store.NewPostgresRepository(pool)
	if err := repo.Migrate(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	return repo, pool.Close, nil
}

// seedMaps stores the maps from MAP_FILE, or the built-in sample maps when
// no file is configured. Maps already in the store are left alone so that
// uploads survive a restart.
func seedMaps(ctx context.Context, cfg *config.Config, repo store.Repository, ids *mapfile.IDRegistry) error {
	var (
		loaded []mapfile.Map
		err    error
	)
	if cfg.MapFile != "" {
		loaded, err = mapfile.LoadAll(cfg.MapFile, ids)
	} else {
		loaded, err = mapfile.SampleMaps(ids)
	}
	if err != nil {
		return err
	}

	missing := loaded[:0]
	for _, m := range loaded {
		_, err := repo.Get(ctx, m.Name)
		switch {
		case errors.Is(err, store.ErrNotFound):
			missing = append(missing, m)
		case err != nil:
			return err
		}
	}

	if err := store.Seed(ctx, repo, missing); err != nil {
		return err
	}
	slog.Info("maps seeded", "count", len(missing), "kept", len(loaded)-len(missing), "file", cfg.MapFile, "ids", ids.Len())
	return nil
}
