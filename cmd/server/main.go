package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"

	"github.com/seu-repo/evcharge/internal/adapter/cache"
	"github.com/seu-repo/evcharge/internal/adapter/http/fiber/handlers"
	"github.com/seu-repo/evcharge/internal/adapter/http/fiber/middleware"
	"github.com/seu-repo/evcharge/internal/adapter/queue"
	"github.com/seu-repo/evcharge/internal/adapter/storage/postgres"
	"github.com/seu-repo/evcharge/internal/adapter/vault"
	wsAdapter "github.com/seu-repo/evcharge/internal/adapter/websocket"
	"github.com/seu-repo/evcharge/internal/domain"
	"github.com/seu-repo/evcharge/internal/observability/telemetry"
	"github.com/seu-repo/evcharge/internal/ports"
	"github.com/seu-repo/evcharge/internal/service/health"
	"github.com/seu-repo/evcharge/internal/service/point"
	"github.com/seu-repo/evcharge/internal/service/reservation"
	"github.com/seu-repo/evcharge/internal/service/scheduler"
	"github.com/seu-repo/evcharge/internal/service/session"
	"github.com/seu-repo/evcharge/pkg/config"
)

const serviceName = "evcharge"

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}

	// 2. Initialize Logger
	logger, err := newLogger(cfg.Logging)
	if err != nil {
		log.Fatal("Failed to initialize logger: ", err)
	}
	defer logger.Sync()

	logger.Info("Starting EV charging backend",
		zap.String("service", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	// 3. Initialize OpenTelemetry (Distributed Tracing)
	if cfg.OpenTelemetry.Enabled {
		tracerProvider, err := telemetry.InitTracer(cfg.OpenTelemetry, cfg.App.Version)
		if err != nil {
			logger.Fatal("Failed to initialize tracer", zap.Error(err))
		}
		defer func() {
			if err := tracerProvider.Shutdown(context.Background()); err != nil {
				logger.Error("Error shutting down tracer provider", zap.Error(err))
			}
		}()
	}

	// 4. Resolve database credentials from Vault
	if cfg.Vault.Enabled {
		secrets, err := vault.NewSecretManager(cfg.Vault)
		if err != nil {
			logger.Fatal("Failed to create Vault client", zap.Error(err))
		}
		ctx, cancel := context.WithTimeout(rootCtx, 10*time.Second)
		url, err := secrets.GetDatabaseURL(ctx)
		cancel()
		if err != nil {
			logger.Fatal("Failed to read database URL from Vault", zap.Error(err))
		}
		cfg.Database.URL = url
	}

	// 5. Initialize PostgreSQL Connection Pool
	db, err := postgres.NewConnection(cfg.Database, logger)
	if err != nil {
		logger.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("Failed to get database handle", zap.Error(err))
	}
	defer sqlDB.Close()

	if cfg.Database.AutoMigrate {
		if err := postgres.RunMigrations(db); err != nil {
			logger.Fatal("Failed to run migrations", zap.Error(err))
		}
		logger.Info("Database migrations applied")
	}

	// 6. Initialize Cache (Redis, or in-process when disabled)
	var appCache ports.Cache
	if cfg.Redis.Enabled {
		appCache, err = cache.NewRedisCache(cfg.Redis, logger)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
	} else {
		appCache = cache.NewLocalCache(cfg.Cache.CleanupInterval, logger)
	}
	defer appCache.Close()

	// 7. Initialize Message Queue
	var (
		messageQueue queue.MessageQueue
		events       ports.EventPublisher
	)
	if cfg.Queue.Enabled {
		messageQueue, err = queue.New(cfg.Queue, logger)
		if err != nil {
			logger.Fatal("Failed to connect to message broker", zap.Error(err))
		}
		defer messageQueue.Close()
		events = queue.NewEventPublisher(messageQueue, cfg.CircuitBreaker, logger)
	}

	// 8. Initialize WebSocket Hub (real-time point status)
	wsHub := wsAdapter.NewHub(logger)
	go wsHub.Run(rootCtx)

	// 9. Initialize Repositories
	pointRepo := postgres.NewChargingPointRepository(db, logger)
	stationRepo := postgres.NewStationRepository(db)
	vehicleRepo := postgres.NewVehicleRepository(db)
	reservationRepo := postgres.NewReservationRepository(db, logger)
	sessionRepo := postgres.NewSessionRepository(db, logger)

	// 10. Initialize Services (Business Logic Layer)
	reservationService := reservation.NewService(
		reservationRepo,
		pointRepo,
		sessionRepo,
		events,
		&domain.ReservationConfig{
			DefaultHoldMinutes: cfg.Reservation.DefaultHoldMinutes,
			MaxHoldMinutes:     cfg.Reservation.MaxHoldMinutes,
		},
		logger,
	)

	sessionService := session.NewService(
		session.Deps{
			Sessions:     sessionRepo,
			Points:       pointRepo,
			Stations:     stationRepo,
			Vehicles:     vehicleRepo,
			Reservations: reservationService,
			Cache:        appCache,
			Events:       events,
			Notifier:     wsHub,
		},
		session.NewBilling(cfg.Billing),
		session.Options{
			AlmostDoneWindow: cfg.Scheduler.AlmostDoneWindow,
			SummaryTTL:       cfg.Cache.SessionSummaryTTL,
		},
		logger,
	)

	pointService := point.NewService(pointRepo, wsHub, logger)

	// 11. Initialize Charging Scheduler
	chargingScheduler := scheduler.New(reservationService, sessionService, cfg.Scheduler, logger)
	if cfg.Scheduler.Enabled {
		chargingScheduler.Start()
	}

	// 12. Initialize Health Checks
	healthConfig := &health.Config{
		Version: cfg.App.Version,
		DB:      sqlDB,
		Cache:   appCache,
	}
	if messageQueue != nil {
		healthConfig.Queue = messageQueue
	}
	healthService := health.NewService(healthConfig, logger)
	if cfg.Scheduler.Enabled {
		healthService.RegisterChecker("scheduler", schedulerCheck(chargingScheduler))
	}

	// 13. Initialize Fiber HTTP Server
	app := fiber.New(fiber.Config{
		AppName:               serviceName,
		ServerHeader:          serviceName,
		DisableStartupMessage: true,
		ReadTimeout:           cfg.HTTP.ReadTimeout,
		WriteTimeout:          cfg.HTTP.WriteTimeout,
		IdleTimeout:           cfg.HTTP.IdleTimeout,
		ErrorHandler:          middleware.ErrorHandler(logger),
	})

	// Global Middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	if cfg.CORS.Enabled {
		app.Use(middleware.NewCORS(cfg.CORS))
	}

	health.NewFiberHandler(healthService).RegisterRoutes(app)

	// Metrics endpoint for Prometheus
	if cfg.Prometheus.Enabled {
		metricsHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
		app.Get(cfg.Prometheus.Path, func(c *fiber.Ctx) error {
			metricsHandler(c.Context())
			return nil
		})
	}

	// API v1 Routes
	v1 := app.Group("/api/v1")
	if cfg.CircuitBreaker.Enabled {
		// probes and metrics stay outside the breaker
		v1.Use(middleware.CircuitBreaker(cfg.CircuitBreaker, logger))
	}
	reservation.NewHandler(reservationService, logger).RegisterRoutes(v1)
	handlers.NewChargingSessionHandler(sessionService, logger).RegisterRoutes(v1)
	handlers.NewPointHandler(pointService, wsHub, logger).RegisterRoutes(v1)

	// 14. Start Background Workers
	if messageQueue != nil {
		startBackgroundWorkers(messageQueue, logger)
	}

	// 15. Start HTTP Server
	go func() {
		logger.Info("Starting HTTP Server", zap.Int("port", cfg.HTTP.Port))
		if err := app.Listen(fmt.Sprintf(":%d", cfg.HTTP.Port)); err != nil {
			logger.Fatal("HTTP Server failed", zap.Error(err))
		}
	}()

	// 16. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	chargingScheduler.Stop()
	stop()

	logger.Info("Server exited gracefully")
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zcfg = zap.NewDevelopmentConfig()
	}
	if cfg.Level != "" {
		level, err := zap.ParseAtomicLevel(cfg.Level)
		if err != nil {
			return nil, err
		}
		zcfg.Level = level
	}
	return zcfg.Build()
}

func schedulerCheck(s *scheduler.Scheduler) health.Checker {
	return func(ctx context.Context) health.CheckResult {
		result := health.CheckResult{
			Name:      "scheduler",
			Status:    health.StatusHealthy,
			Timestamp: time.Now(),
		}
		if !s.Status().IsRunning {
			result.Status = health.StatusDegraded
			result.Message = "scheduler stopped"
		}
		return result
	}
}

// startBackgroundWorkers subscribes the audit consumers to lifecycle events.
func startBackgroundWorkers(mq queue.MessageQueue, logger *zap.Logger) {
	logger.Info("Starting background workers")

	audit := func(subject string) {
		err := mq.Subscribe(subject, func(msg []byte) error {
			var env queue.Envelope
			if err := json.Unmarshal(msg, &env); err != nil {
				logger.Warn("Dropping malformed event", zap.String("subject", subject), zap.Error(err))
				return nil
			}
			logger.Info("Lifecycle event",
				zap.String("event", env.EventType),
				zap.Time("occurred_at", env.OccurredAt),
				zap.Any("data", env.Data),
			)
			return nil
		})
		if err != nil {
			logger.Error("Failed to subscribe", zap.String("subject", subject), zap.Error(err))
		}
	}

	audit(ports.EventSessionCompleted)
	audit(ports.EventReservationExpired)
}
