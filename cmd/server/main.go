package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Tirthmoradiya/SkillForge-Personalized-Learning-Tracker/internal/analytics"
	"github.com/Tirthmoradiya/SkillForge-Personalized-Learning-Tracker/internal/auth"
	"github.com/Tirthmoradiya/SkillForge-Personalized-Learning-Tracker/internal/content"
	"github.com/Tirthmoradiya/SkillForge-Personalized-Learning-Tracker/internal/httpapi"
	"github.com/Tirthmoradiya/SkillForge-Personalized-Learning-Tracker/internal/learner"
	"github.com/Tirthmoradiya/SkillForge-Personalized-Learning-Tracker/internal/notify"
	"github.com/Tirthmoradiya/SkillForge-Personalized-Learning-Tracker/internal/platform/cache"
	"github.com/Tirthmoradiya/SkillForge-Personalized-Learning-Tracker/internal/platform/config"
	"github.com/Tirthmoradiya/SkillForge-Personalized-Learning-Tracker/internal/platform/database"
	"github.com/Tirthmoradiya/SkillForge-Personalized-Learning-Tracker/internal/progress"
	"github.com/Tirthmoradiya/SkillForge-Personalized-Learning-Tracker/internal/quiz"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(newLogHandler(cfg.Log))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	app, err := buildApp(ctx, cfg)
	if err != nil {
		slog.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer app.close()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      app.server.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

// app holds the wired services and the connections behind them.
type app struct {
	server *httpapi.Server
	db     *database.DB
	cache  *cache.Cache
}

func (a *app) close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			slog.Warn("closing cache", "error", err)
		}
	}
}

// buildApp wires stores and services. Without a database URL it runs
// entirely on in-memory stores; without a cache URL reminder dedup and
// report caching are disabled.
func buildApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{}

	var (
		contentStore content.Store
		userStore    learner.Store
		notifyStore  notify.Store
	)

	if cfg.Database.URL != "" {
		db, err := database.New(ctx, cfg.Database.URL, cfg.Database.MaxConns, cfg.Database.MinConns)
		if err != nil {
			return nil, fmt.Errorf("connecting to database: %w", err)
		}
		if err := db.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, err
		}
		a.db = db
		if contentStore, err = content.NewPostgresStore(db.Pool); err != nil {
			return nil, err
		}
		if userStore, err = learner.NewPostgresStore(db.Pool); err != nil {
			return nil, err
		}
		if notifyStore, err = notify.NewPostgresStore(db.Pool); err != nil {
			return nil, err
		}
		slog.Info("using postgres stores")
	} else {
		contentStore = content.NewMemoryStore()
		userStore = learner.NewMemoryStore()
		notifyStore = notify.NewMemoryStore()
		slog.Info("no database configured, using in-memory stores")
	}

	var (
		dedup       notify.DedupGuard
		reportCache analytics.ReportCache
	)
	if cfg.Cache.URL != "" {
		c, err := cache.New(ctx, cfg.Cache.URL)
		if err != nil {
			return nil, fmt.Errorf("connecting to cache: %w", err)
		}
		a.cache = c
		dedup = c
		reportCache = analytics.NewRedisReportCache(c)
	}

	if cfg.SeedPath != "" {
		if err := content.Seed(contentStore, cfg.SeedPath); err != nil {
			return nil, fmt.Errorf("seeding content: %w", err)
		}
	}

	hub := notify.NewHub()
	engine := notify.NewEngine(notifyStore, userStore, dedup, hub)
	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret)
	authSvc := auth.NewService(userStore, tokens, engine)
	progressSvc := progress.NewService(contentStore, userStore)
	analyticsSvc := analytics.NewService(userStore, contentStore, reportCache)

	var quizSvc *quiz.Service
	if cfg.Quiz.GeminiAPIKey != "" {
		quizSvc = quiz.NewService(quiz.NewGeminiProvider(cfg.Quiz.GeminiAPIKey), contentStore)
	} else {
		slog.Info("no Gemini API key configured, quiz generation disabled")
	}

	serverCfg := httpapi.Config{
		Auth:      authSvc,
		Users:     userStore,
		Content:   contentStore,
		Progress:  progressSvc,
		Notify:    engine,
		Hub:       hub,
		Analytics: analyticsSvc,
		Quiz:      quizSvc,
	}
	if a.db != nil {
		serverCfg.DB = a.db
	}
	if a.cache != nil {
		serverCfg.Cache = a.cache
	}
	a.server = httpapi.NewServer(serverCfg)
	return a, nil
}

func newLogHandler(cfg config.LogConfig) slog.Handler {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.NewJSONHandler(os.Stdout, opts)
}
