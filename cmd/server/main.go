package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"collabcanvas/internal/api"
	"collabcanvas/internal/auth"
	"collabcanvas/internal/config"
	"collabcanvas/internal/redis"
	"collabcanvas/internal/store"
	"collabcanvas/internal/telemetry"
	"collabcanvas/internal/ws"

	flag "github.com/spf13/pflag"
	"gorm.io/gorm/logger"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (overrides CANVAS_CONFIG)")
	rooms := flag.StringSlice("room", nil, "room slug to create at startup if missing (repeatable)")
	flag.Parse()

	if *configPath != "" {
		os.Setenv("CANVAS_CONFIG", *configPath)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Tracing first, so everything after it is traced.
	tracingShutdown, err := telemetry.InitJaeger("collabcanvas", cfg.JaegerEndpoint)
	if err != nil {
		slog.Warn("Failed to initialize Jaeger, continuing without tracing", "error", err)
		tracingShutdown = func(context.Context) error { return nil }
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracingShutdown(ctx); err != nil {
			slog.Warn("Failed to shut down tracing", "error", err)
		}
	}()

	st, err := openStore(cfg)
	if err != nil {
		slog.Error("Failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()
	ensureRooms(ctx, st, *rooms)

	var keys *auth.KeySet
	if cfg.JWKSIssuerURL != "" {
		keys = auth.NewKeySet(cfg.JWKSIssuerURL, nil)
		if err := keys.Refresh(ctx); err != nil {
			slog.Error("Failed to initialize JWKS", "issuer", cfg.JWKSIssuerURL, "error", err)
			os.Exit(1)
		}
		go keys.Start(ctx, 24*time.Hour)
	}
	verifier := auth.NewVerifier(cfg.JWTSecret, keys)

	var rdb *redis.Client
	var hubOpts []ws.HubOption
	if cfg.RedisURL != "" {
		rdb, err = redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			slog.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		defer rdb.Close()
		hubOpts = append(hubOpts, ws.WithPublisher(rdb))
	}
	hub := ws.NewHub(st, hubOpts...)
	if rdb != nil {
		go func() {
			if err := redis.Subscribe(ctx, rdb, hub); err != nil {
				slog.Error("Redis subscription ended", "error", err)
			}
		}()
	}
	go hub.Run(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           api.NewRouter(hub, verifier, st, cfg.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Canvas server starting", "addr", srv.Addr, "version", telemetry.Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	hub.Shutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}
	cancel()
	slog.Info("Server stopped")
}

func openStore(cfg *config.Config) (store.Store, error) {
	if cfg.DatabaseURL == "" {
		slog.Warn("DATABASE_URL not set, events are kept in memory")
		return store.NewMemoryStore(), nil
	}
	level := logger.Warn
	if cfg.SlogLevel() == slog.LevelDebug {
		level = logger.Info
	}
	return store.OpenPostgres(cfg.DatabaseURL, level)
}

func ensureRooms(ctx context.Context, st store.Store, slugs []string) {
	for _, slug := range slugs {
		room, err := st.CreateRoom(ctx, slug, "admin")
		if err != nil {
			slog.Warn("Room not created", "slug", slug, "error", err)
			continue
		}
		slog.Info("Room created", "slug", slug, "id", room.ID)
	}
}
