package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"stddocs/docs"
	"stddocs/internal/assistant"
	"stddocs/internal/assistant/gemini"
	"stddocs/internal/config"
	"stddocs/internal/database"
	"stddocs/internal/database/migration"
	handlers "stddocs/internal/http/handler"
	"stddocs/internal/http/middleware"
	"stddocs/internal/logging"
	"stddocs/internal/model"
	tracing "stddocs/internal/otel"
	"stddocs/internal/repository"
	"stddocs/internal/repository/memory"
	"stddocs/internal/repository/postgres"
	"stddocs/internal/service"
	"stddocs/internal/session"
	"stddocs/internal/storage"
	"stddocs/internal/upload"
	"stddocs/internal/workspace"
)

// @title Standard Document API
// @version 1.0
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	loc := cfg.Location()

	logger := logging.NewJSONLogger("stddocs", cfg.LogLevel, loc)
	slog.SetDefault(logger)

	if err := run(cfg, loc, logger); err != nil {
		logger.Error("server_exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.AppConfig, loc *time.Location, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, tracing.SettingsFromEnv(), logger)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	var checks []handlers.Pinger

	docRepo, db, err := openDocumentStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		checks = append(checks, db)
	}

	objStore, err := openObjectStore(ctx, cfg)
	if err != nil {
		return err
	}

	docSvc := service.NewDocumentService(objStore, docRepo, service.WithDefaultCreator(cfg.DefaultCreator))

	asst, err := newAssistant(ctx, cfg.Assistant, reg, logger)
	if err != nil {
		return err
	}

	sessions, closeSessions, ping, err := openSessions(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSessions()
	if ping != nil {
		checks = append(checks, ping)
	}

	mgr := workspace.NewManager(docSvc, sessions, asst, workspace.WithLogger(logger))

	// The janitor starts once the manager has registered its expiry hook.
	if j, ok := sessions.(janitor); ok {
		stopJanitor, err := j.StartJanitor(cfg.Session.SweepSchedule)
		if err != nil {
			return err
		}
		defer stopJanitor()
	}

	promMiddleware, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		return err
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		// Leave room for the multipart envelope around a maximum-size file.
		BodyLimit: int(upload.MaxFileSize) + 1<<20,
	})

	// Register global middleware
	app.Use(otelfiber.Middleware())
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.LoggerWithWriter(os.Stdout, loc))
	app.Use(promMiddleware.Handler())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	handlers.RegisterRoutes(app, handlers.Deps{
		Documents:  docSvc,
		Workspaces: mgr,
		Assistant:  asst,
		Checks:     checks,
	})

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server_starting",
			"addr", addr,
			"store_backend", cfg.StoreBackend,
			"object_store", cfg.ObjectStore,
			"session_backend", cfg.Session.Backend,
			"assistant_enabled", asst.Enabled(),
		)
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("server_stopping")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return app.ShutdownWithContext(sctx)
}

// openDocumentStore returns the configured repository. db is nil for the memory backend.
func openDocumentStore(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (repository.DocumentRepository, *sql.DB, error) {
	if cfg.StoreBackend != config.BackendPostgres {
		var seed []model.StandardDocument
		if cfg.SeedDemo {
			seed = model.DemoDocuments()
		}
		return memory.NewDocumentMemory(seed...), nil, nil
	}

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	if err := migration.EnsureMigrated(ctx, db, logger, cfg.Database.Host); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return postgres.NewDocumentPostgres(db), db, nil
}

func openObjectStore(ctx context.Context, cfg *config.AppConfig) (storage.Storage, error) {
	if cfg.ObjectStore != config.BackendMinIO {
		return storage.NewMemory(), nil
	}
	// Initialize reusable S3-compatible object storage client (MinIO-supported)
	return storage.NewMinIO(ctx, cfg.MinIO)
}

type janitor interface {
	StartJanitor(schedule string) (func(), error)
}

// openSessions returns the workspace store, its cleanup and, for redis, a readiness check.
func openSessions(ctx context.Context, cfg *config.AppConfig) (session.Store, func(), handlers.Pinger, error) {
	if cfg.Session.Backend == config.BackendRedis {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rdb.Ping(pctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, nil, err
		}
		ping := handlers.PingerFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
		return session.NewRedisStore(rdb, cfg.Session.TTL()), func() { _ = rdb.Close() }, ping, nil
	}

	return session.NewMemoryStore(cfg.Session.TTL()), func() {}, nil, nil
}

func newAssistant(ctx context.Context, cfg config.AssistantConfig, reg prometheus.Registerer, logger *slog.Logger) (*assistant.Assistant, error) {
	metrics, err := assistant.NewMetrics(reg)
	if err != nil {
		return nil, err
	}

	var gen assistant.Generator
	if cfg.Enabled() {
		var opts []gemini.Option
		if cfg.BaseURL != "" {
			opts = append(opts, gemini.WithBaseURL(cfg.BaseURL))
		}
		if cfg.Model != "" {
			opts = append(opts, gemini.WithModel(cfg.Model))
		}
		client, err := gemini.New(ctx, cfg.APIKey, opts...)
		if err != nil {
			return nil, err
		}
		gen = assistant.Guard(client, assistant.GuardConfig{
			Timeout:            time.Duration(cfg.TimeoutSec) * time.Second,
			RatePerSecond:      cfg.RatePerSecond,
			Burst:              cfg.Burst,
			BreakerMaxFailures: uint32(max(cfg.BreakerMaxFailures, 0)),
			BreakerOpenTimeout: time.Duration(cfg.BreakerOpenSec) * time.Second,
		})
	} else {
		logger.Warn("assistant_disabled", "reason", "GEMINI_API_KEY is not set")
	}

	return assistant.New(gen, assistant.WithLogger(logger), assistant.WithMetrics(metrics)), nil
}
