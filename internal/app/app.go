package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"dealscout/internal/config"
	"dealscout/internal/infrastructure/actor"
	"dealscout/internal/infrastructure/adminhttp"
	"dealscout/internal/infrastructure/classifier"
	"dealscout/internal/infrastructure/dedup"
	"dealscout/internal/infrastructure/queue"
	"dealscout/internal/infrastructure/rss"
	"dealscout/internal/infrastructure/scheduler"
	"dealscout/internal/infrastructure/storage"
	"dealscout/internal/infrastructure/telegramsrc"
	"dealscout/internal/logging"
	"dealscout/internal/ports"
	"dealscout/internal/source"
	"dealscout/internal/usecase"
)

// Application wires configs to the discovery pipeline and its drivers.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	pipeline  *usecase.Pipeline
	scheduler ports.Scheduler
	server    *http.Server
	db        *sql.DB
	redis     *redis.Client
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	app := &Application{cfg: cfg, logger: baseLogger}

	registry := source.NewRegistry()
	for _, channel := range cfg.Telegram.Channels {
		registry.Register(telegramsrc.New(channel, nil))
	}
	for _, feed := range cfg.RSS {
		name := feed.Name
		if name == "" {
			name = feed.URL
		}
		registry.Register(rss.New(name, feed.URL, nil))
	}
	if cfg.Actor.Token != "" && cfg.Actor.ActorID != "" {
		registry.Register(actor.New(actor.Config{
			BaseURL:      cfg.Actor.BaseURL,
			Token:        cfg.Actor.Token,
			ActorID:      cfg.Actor.ActorID,
			Keywords:     cfg.Actor.Keywords,
			PollInterval: parseDuration(cfg.Actor.PollInterval, 5*time.Second),
			PollTimeout:  parseDuration(cfg.Actor.PollTimeout, 2*time.Minute),
		}, nil))
	}

	ledger := app.buildLedger()
	candidateQueue := queue.NewMemory()
	gateway := classifier.NewGateway(app.buildProvider(), baseLogger.With("component", "classifier"))

	catalog, err := app.buildCatalog()
	if err != nil {
		return nil, err
	}

	publisher := usecase.NewPublisher(catalog, baseLogger.With("component", "publisher"))

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Sources:    registry,
		Ledger:     ledger,
		Queue:      candidateQueue,
		Classifier: gateway,
		Publisher:  publisher,
		Catalog:    catalog,
		Thresholds: usecase.Thresholds{
			AutoPublish: cfg.Triage.AutoPublishThreshold,
			ReviewFloor: cfg.Triage.ReviewFloor,
		},
		BatchSize:    cfg.Pipeline.BatchSize,
		FetchTimeout: cfg.Pipeline.FetchDeadline(),
		Logger:       baseLogger.With("component", "pipeline"),
	})
	app.pipeline = pipeline
	app.scheduler = scheduler.NewInterval(cfg.Scheduler.Every())

	admin := adminhttp.NewServer(pipeline, registry, catalog, cfg.Admin.Secret, baseLogger.With("component", "admin"))
	app.server = &http.Server{
		Addr:              cfg.Admin.Addr,
		Handler:           admin.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return app, nil
}

func (a *Application) buildLedger() ports.SeenLedger {
	if a.cfg.Redis.Address == "" {
		a.logger.Warn("no redis address configured, dedup ledger is in-memory only")
		return dedup.NewMemoryLedger()
	}

	a.redis = redis.NewClient(&redis.Options{
		Addr:     a.cfg.Redis.Address,
		Password: a.cfg.Redis.Password,
		DB:       a.cfg.Redis.DB,
	})
	retention := time.Duration(a.cfg.Redis.RetentionDays) * 24 * time.Hour
	return dedup.NewRedisLedger(a.redis, retention)
}

func (a *Application) buildProvider() classifier.Provider {
	switch a.cfg.Classifier.Provider {
	case "gemini":
		if a.cfg.Classifier.Gemini.APIKey == "" {
			a.logger.Warn("gemini api key missing, classification disabled")
			return nil
		}
		g := a.cfg.Classifier.Gemini
		return classifier.NewGeminiProvider(g.BaseURL, g.Model, g.APIKey, nil)
	default:
		if a.cfg.Classifier.OpenAI.APIKey == "" {
			a.logger.Warn("openai api key missing, classification disabled")
			return nil
		}
		o := a.cfg.Classifier.OpenAI
		return classifier.NewOpenAIProvider(o.Endpoint, o.Model, o.APIKey, nil)
	}
}

func (a *Application) buildCatalog() (ports.CatalogRepository, error) {
	if a.cfg.Database.DSN == "" {
		a.logger.Warn("no database dsn configured, publishing and review sink disabled")
		return nil, nil
	}

	db, err := sql.Open("postgres", a.cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	a.db = db
	return storage.NewPostgresCatalog(db), nil
}

// Run starts the scheduler and the admin server, then blocks until the
// context is cancelled.
func (a *Application) Run(ctx context.Context) error {
	job := func(trigger time.Time) {
		if _, err := a.pipeline.RunCycle(ctx); err != nil {
			if errors.Is(err, usecase.ErrCycleRunning) {
				a.logger.Warn("cycle skipped, previous run still in progress", "trigger", trigger)
				return
			}
			a.logger.Error("cycle failed", "error", err)
		}
	}
	if err := a.scheduler.Start(ctx, job); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		a.logger.Info("admin server listening", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("admin server: %w", err)
	case <-ctx.Done():
	}

	return a.shutdown()
}

func (a *Application) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("admin server shutdown", "error", err)
	}
	if err := a.scheduler.Stop(shutdownCtx); err != nil {
		a.logger.Error("scheduler shutdown", "error", err)
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error("database close", "error", err)
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close", "error", err)
		}
	}
	a.logger.Info("shutdown complete")
	return nil
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
