package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/Ramsey-B/rye/config"
	"github.com/Ramsey-B/rye/internal/handlers"
	"github.com/Ramsey-B/rye/internal/repositories/audit"
	"github.com/Ramsey-B/rye/internal/repositories/catalog"
	"github.com/Ramsey-B/rye/internal/repositories/changefeed"
	"github.com/Ramsey-B/rye/internal/repositories/preference"
	"github.com/Ramsey-B/rye/internal/repositories/store"
	"github.com/Ramsey-B/rye/internal/repositories/user"
	"github.com/Ramsey-B/rye/internal/repositories/watermark"
	"github.com/Ramsey-B/rye/internal/services/notifier"
	"github.com/Ramsey-B/rye/internal/services/watchlist"
	"github.com/Ramsey-B/rye/pkg/database"
	"github.com/Ramsey-B/rye/pkg/email"
	"github.com/Ramsey-B/rye/pkg/health"
	"github.com/Ramsey-B/rye/pkg/middleware"
	"github.com/Ramsey-B/rye/pkg/redis"
	"github.com/Ramsey-B/rye/pkg/scheduler"
	"github.com/Ramsey-B/rye/pkg/startup"
	"github.com/Ramsey-B/rye/pkg/tracing"
	"github.com/Ramsey-B/rye/pkg/tracing/exporters"
)

var version = "dev"

// dependency adapts a start/stop pair to the startup lifecycle
type dependency struct {
	name      string
	dependsOn []string
	start     func(ctx context.Context) error
	stop      func(ctx context.Context) error
}

func (d *dependency) GetName() string     { return d.name }
func (d *dependency) DependsOn() []string { return d.dependsOn }
func (d *dependency) Start(ctx context.Context) error {
	if d.start == nil {
		return nil
	}
	return d.start(ctx)
}
func (d *dependency) Stop(ctx context.Context) error {
	if d.stop == nil {
		return nil
	}
	return d.stop(ctx)
}

func newLogger(cfg *config.Config) (ectologger.Logger, error) {
	var zapCfg zap.Config
	if cfg.PrettyLogs {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	if level, err := zap.ParseAtomicLevel(cfg.LogLevel); err == nil {
		zapCfg.Level = level
	}

	zapLogger, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}

	return zapadapter.NewZapEctoLogger(zapLogger, nil), nil
}

func main() {
	_ = godotenv.Load()

	var cfg config.Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(&cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		db            database.DB
		redisClient   *redis.Client
		tp            *sdktrace.TracerProvider
		e             *echo.Echo
		sched         *scheduler.Scheduler
		healthChecker *health.Checker
	)

	startupSvc := startup.NewStartup(logger, cfg.StartupMaxAttempts)

	startupSvc.AddDependency(&dependency{
		name: "database",
		start: func(ctx context.Context) error {
			dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
				cfg.DatabaseHost, cfg.DatabasePort, cfg.DatabaseUserName, cfg.DatabasePassword,
				cfg.DatabaseName, cfg.DatabaseSSLMode)

			sqlxDB, err := sqlx.ConnectContext(ctx, cfg.DatabaseDriver, dsn)
			if err != nil {
				return err
			}

			sqlxDB.SetMaxOpenConns(cfg.DatabaseMaxOpenConns)
			sqlxDB.SetMaxIdleConns(cfg.DatabaseMaxIdleConns)
			sqlxDB.SetConnMaxLifetime(cfg.DatabaseConnMaxLifetime)

			driver, err := migratepg.WithInstance(sqlxDB.DB, &migratepg.Config{})
			if err != nil {
				return err
			}

			migrations := database.NewMigrationService(logger, &database.MigrationConfig{
				MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
				Version:             uint(cfg.DatabaseMigrationVersion),
				Force:               cfg.DatabaseMigrationForce,
				AutoRollback:        cfg.DatabaseMigrationAutoRollback,
			})
			if err := migrations.Migrate(cfg.DatabaseName, driver); err != nil {
				return err
			}

			db = database.NewDatabaseInstance(sqlxDB, logger)
			return nil
		},
		stop: func(ctx context.Context) error {
			if db == nil {
				return nil
			}
			return db.Close()
		},
	})

	startupSvc.AddDependency(&dependency{
		name: "redis",
		start: func(ctx context.Context) error {
			if !cfg.CacheEnabled && !cfg.NotifierUseRedisLease {
				logger.Info("Redis disabled, skipping")
				return nil
			}

			client, err := redis.NewClient(redis.Config{
				Host:     cfg.RedisHost,
				Port:     cfg.RedisPort,
				Password: cfg.RedisPassword,
				DB:       cfg.RedisDB,
			}, logger)
			if err != nil {
				return err
			}

			redisClient = client
			return nil
		},
		stop: func(ctx context.Context) error {
			if redisClient == nil {
				return nil
			}
			return redisClient.Close()
		},
	})

	startupSvc.AddDependency(&dependency{
		name: "tracing",
		start: func(ctx context.Context) error {
			if !cfg.OTLPEnabled {
				return nil
			}

			exporter, err := exporters.NewOTLPExporter(ctx, exporters.OTLPConfig{
				Endpoint: cfg.OTLPEndpoint,
				Protocol: cfg.OTLPProtocol,
				Insecure: cfg.OTLPInsecure,
				Timeout:  10 * time.Second,
			})
			if err != nil {
				return err
			}

			tp = sdktrace.NewTracerProvider(
				sdktrace.WithBatcher(exporter),
				sdktrace.WithResource(sdkresource.NewSchemaless(
					attribute.String("service.name", cfg.AppName),
					attribute.String("service.version", version),
				)),
			)
			otel.SetTracerProvider(tp)
			tracing.SetTracer(tp.Tracer(cfg.AppName))
			return nil
		},
		stop: func(ctx context.Context) error {
			if tp == nil {
				return nil
			}
			return tp.Shutdown(ctx)
		},
	})

	startupSvc.AddDependency(&dependency{
		name:      "http-server",
		dependsOn: []string{"database", "redis", "tracing"},
		start: func(ctx context.Context) error {
			catalogRepo := catalog.NewRepository(db, logger)
			prefRepo := preference.NewRepository(db, logger)
			storeRepo := store.NewRepository(db, logger)
			auditRepo := audit.NewRepository(db, logger)

			var cache watchlist.ViewCache
			if cfg.CacheEnabled && redisClient != nil {
				cache = redis.NewCache(redisClient, "rye:views")
			}

			watchlistSvc := watchlist.NewService(catalogRepo, prefRepo, auditRepo, cache, watchlist.Config{
				WatchlistTTL: cfg.CacheWatchlistTTL,
				CatalogTTL:   cfg.CacheCatalogTTL,
			}, logger)

			e = echo.New()
			e.HideBanner = true
			e.Server.ReadTimeout = time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second
			e.Server.WriteTimeout = time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second
			e.Server.IdleTimeout = time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second
			e.HTTPErrorHandler = middleware.Error(logger)

			e.Use(middleware.Context())
			e.Use(otelecho.Middleware(cfg.AppName))
			e.Use(middleware.Logger(logger))

			healthChecker = health.NewChecker(db, redisClient, version)
			healthChecker.RegisterRoutes(e)
			e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

			var auth echo.MiddlewareFunc
			if cfg.AuthEnabled {
				auth = middleware.Authentication(logger, cfg.AuthIssuerURL, cfg.AuthClientID)
			} else {
				logger.Warn("Authentication disabled, trusting X-User-ID headers")
				auth = middleware.TestAuth()
			}

			api := e.Group("/api/v1", auth)
			handlers.NewWatchlistHandler(watchlistSvc, logger).Register(api.Group("/watchlist"))
			handlers.NewStoreHandler(storeRepo, logger).Register(api.Group("/stores"))

			go func() {
				if err := e.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil && err != http.ErrServerClosed {
					logger.WithError(err).Error("HTTP server stopped unexpectedly")
				}
			}()

			return nil
		},
		stop: func(ctx context.Context) error {
			if e == nil {
				return nil
			}
			if healthChecker != nil {
				healthChecker.SetReady(false)
			}
			return e.Shutdown(ctx)
		},
	})

	startupSvc.AddDependency(&dependency{
		name:      "scheduler",
		dependsOn: []string{"database", "redis"},
		start: func(ctx context.Context) error {
			if !cfg.NotifierEnabled {
				logger.Info("Notification scheduler disabled, skipping")
				return nil
			}

			catalogRepo := catalog.NewRepository(db, logger)
			prefRepo := preference.NewRepository(db, logger)
			userRepo := user.NewRepository(db, logger)
			watermarkRepo := watermark.NewRepository(db, logger)
			changeRepo := changefeed.NewRepository(db, logger)
			storeRepo := store.NewRepository(db, logger)

			// the notifier resolves against live preferences, never the view cache
			resolver := watchlist.NewService(catalogRepo, prefRepo, nil, nil, watchlist.Config{}, logger)

			mailer, err := email.NewMailer(email.Config{
				Host: cfg.SMTPHost,
				Port: cfg.SMTPPort,
				User: cfg.SMTPUser,
				Pass: cfg.SMTPPass,
				From: cfg.SMTPFrom,
			}, logger)
			if err != nil {
				return err
			}

			batch := notifier.NewNotifier(userRepo, watermarkRepo, changeRepo, storeRepo, resolver, mailer, notifier.Config{
				DefaultLookback:     cfg.NotifierDefaultLookback,
				MaxEventsPerProduct: cfg.NotifierMaxEventsPerProduct,
				FrontendURL:         cfg.FrontendURL,
			}, logger)

			var locker *redis.Locker
			if cfg.NotifierUseRedisLease && redisClient != nil {
				locker = redis.NewLocker(redisClient, "rye:lock")
			}

			sched = scheduler.NewScheduler(batch, locker, scheduler.Config{
				Interval:      cfg.NotifierInterval,
				UseRedisLease: cfg.NotifierUseRedisLease,
				LeaseTTL:      cfg.NotifierLeaseTTL,
			}, logger)

			return sched.Start(ctx)
		},
		stop: func(ctx context.Context) error {
			if sched == nil {
				return nil
			}
			return sched.Stop(ctx)
		},
	})

	if err := startupSvc.Start(ctx); err != nil {
		logger.WithError(err).Error("Startup failed")
		os.Exit(1)
	}

	if healthChecker != nil {
		healthChecker.SetReady(true)
	}
	logger.Infof("%s listening on port %d", cfg.AppName, cfg.Port)

	<-ctx.Done()
	logger.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := startupSvc.Stop(shutdownCtx); err != nil {
		logger.WithError(err).Error("Shutdown finished with errors")
		os.Exit(1)
	}

	logger.Info("Shutdown complete")
}
