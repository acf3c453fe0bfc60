package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/seu-repo/chargechain/internal/adapter/cache"
	"github.com/seu-repo/chargechain/internal/adapter/http/fiber/handlers"
	"github.com/seu-repo/chargechain/internal/adapter/http/fiber/middleware"
	"github.com/seu-repo/chargechain/internal/adapter/ledger"
	"github.com/seu-repo/chargechain/internal/adapter/queue"
	"github.com/seu-repo/chargechain/internal/adapter/storage/postgres"
	"github.com/seu-repo/chargechain/internal/adapter/vault"
	wsAdapter "github.com/seu-repo/chargechain/internal/adapter/websocket"
	"github.com/seu-repo/chargechain/internal/observability/telemetry"
	"github.com/seu-repo/chargechain/internal/ports"
	"github.com/seu-repo/chargechain/internal/service/auth"
	"github.com/seu-repo/chargechain/internal/service/billing"
	"github.com/seu-repo/chargechain/internal/service/charging"
	"github.com/seu-repo/chargechain/internal/service/health"
	"github.com/seu-repo/chargechain/internal/service/payment"
	"github.com/seu-repo/chargechain/internal/service/reservation"
	"github.com/seu-repo/chargechain/internal/service/station"
	"github.com/seu-repo/chargechain/internal/service/user"
	"github.com/seu-repo/chargechain/internal/validation"
	"github.com/seu-repo/chargechain/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	logger, err := buildLogger(cfg.Logging)
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	logger.Info("Starting ChargeChain",
		zap.String("service", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	// Secrets from Vault override config when enabled.
	if cfg.Vault.Enabled {
		sm, err := vault.NewSecretManager(cfg.Vault.Address, cfg.Vault.Token)
		if err != nil {
			logger.Fatal("Failed to connect to Vault", zap.Error(err))
		}
		if dsn, err := sm.GetDatabaseCredentials(); err == nil && dsn != "" {
			cfg.Database.URL = dsn
		}
		if secret, err := sm.GetJWTSecret(); err == nil && secret != "" {
			cfg.JWT.Secret = secret
		}
		if token, err := sm.GetGatewayToken(); err == nil && token != "" {
			cfg.Ledger.Token = token
		}
	}

	if cfg.OpenTelemetry.Enabled {
		tp, err := telemetry.InitTracer(cfg.App.Name, cfg.App.Version, cfg.OpenTelemetry.Jaeger.Endpoint)
		if err != nil {
			logger.Fatal("Failed to initialize tracer", zap.Error(err))
		}
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				logger.Error("Error shutting down tracer provider", zap.Error(err))
			}
		}()
	}

	// Secondary index database. The ledger stays authoritative; a dead index
	// only degrades listings.
	db, err := postgres.NewConnection(cfg.Database.URL, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("Failed to get underlying SQL DB", zap.Error(err))
	}
	defer sqlDB.Close()

	if cfg.Database.AutoMigrate {
		if err := postgres.RunMigrations(db); err != nil {
			logger.Fatal("Failed to run migrations", zap.Error(err))
		}
	}

	var appCache ports.Cache
	if cfg.Redis.URL != "" {
		appCache, err = cache.NewRedisCache(cfg.Redis.URL, logger)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
	} else {
		logger.Warn("Redis URL not set, using in-process cache")
		appCache = cache.NewLocalCache(time.Minute, logger)
	}
	defer appCache.Close()

	queueURL := cfg.NATS.URL
	if cfg.Queue.Driver == "rabbitmq" {
		queueURL = cfg.RabbitMQ.URL
	}
	messageQueue, err := queue.New(cfg.Queue.Driver, queueURL, logger)
	if err != nil {
		logger.Fatal("Failed to connect to message queue", zap.Error(err))
	}
	defer messageQueue.Close()

	// The ledger is the source of truth for every mutation. The gateway
	// fronts the on-chain contract; memory mode is for local development.
	var chain ports.Ledger
	var gateway *ledger.Gateway
	switch cfg.Ledger.Mode {
	case "memory":
		logger.Warn("Using in-memory ledger, state will not survive restarts")
		chain = ledger.NewMemory()
	default:
		gateway = ledger.NewGateway(ledger.GatewayConfig{
			BaseURL: cfg.Ledger.GatewayURL,
			Token:   cfg.Ledger.Token,
			Timeout: cfg.Ledger.Timeout,
		}, logger)
		gateway.SetLatencyObserver(telemetry.ObserveLedgerLatency)
		chain = gateway
	}

	stationIndex := postgres.NewStationIndex(db, logger)
	userIndex := postgres.NewUserIndex(db, logger)

	// Projector keeps the secondary index in step with ledger events.
	projector := postgres.NewProjector(chain, stationIndex, userIndex, logger)
	if err := projector.Start(messageQueue); err != nil {
		logger.Fatal("Failed to start index projector", zap.Error(err))
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := projector.Resync(ctx); err != nil {
			logger.Warn("Initial index resync failed", zap.Error(err))
		}
	}()

	validator := validation.New()

	tariff, err := billing.NewTariff(cfg.Charging.BaseRatePerHour)
	if err != nil {
		logger.Fatal("Invalid base rate", zap.Error(err))
	}

	authService := auth.NewService(chain, validator, appCache, cfg.JWT.Secret,
		cfg.JWT.AccessTokenDuration, cfg.JWT.ChallengeDuration, logger)
	chargingService := charging.NewService(chain, validator, tariff, messageQueue,
		cfg.Charging.RequireReservation, logger)
	reservationService := reservation.NewService(chain, validator, messageQueue, logger)
	paymentService := payment.NewService(chain, validator, tariff, messageQueue, logger)
	stationService := station.NewService(chain, stationIndex, appCache, cfg.Cache.StationListTTL, logger)
	userService := user.NewService(chain, validator, logger)

	healthService := health.NewService(&health.Config{
		Version: cfg.App.Version,
		DB:      sqlDB,
		Cache:   appCache,
		NatsURL: queueURL,
	}, logger)
	if gateway != nil {
		healthService.RegisterChecker("ledger", func(ctx context.Context) health.CheckResult {
			start := time.Now()
			result := health.CheckResult{Name: "ledger", Timestamp: time.Now()}
			if err := gateway.Ping(ctx); err != nil {
				result.Status = health.StatusUnhealthy
				result.Message = err.Error()
			} else {
				result.Status = health.StatusHealthy
				result.Message = "gateway reachable"
			}
			result.Duration = time.Since(start)
			return result
		})
	}

	// WebSocket hub fans ledger events out to connected wallets.
	wsHub := wsAdapter.NewHub(logger)
	go wsHub.Run()
	if err := wsHub.StartEventFeed(messageQueue); err != nil {
		logger.Fatal("Failed to subscribe websocket hub", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
		ReadTimeout:           cfg.HTTP.ReadTimeout,
		WriteTimeout:          cfg.HTTP.WriteTimeout,
		IdleTimeout:           cfg.HTTP.IdleTimeout,
		ErrorHandler:          middleware.ErrorHandler(logger),
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	if cfg.CORS.Enabled {
		app.Use(middleware.NewCORS(cfg.CORS))
	}
	app.Use(middleware.CircuitBreaker(logger))

	healthHandler := handlers.NewHealthHandler(healthService)
	app.Get("/health/live", healthHandler.Health)
	app.Get("/health/ready", healthHandler.Ready)

	if cfg.Prometheus.Enabled {
		promHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
		app.Get(cfg.Prometheus.Path, func(c *fiber.Ctx) error {
			promHandler(c.Context())
			return nil
		})
	}

	v1 := app.Group("/api/v1")

	authHandler := handlers.NewAuthHandler(authService, logger)
	v1.Post("/auth/challenge", authHandler.Challenge)
	v1.Post("/auth/login", authHandler.Login)

	stationHandler := handlers.NewStationHandler(stationService, chargingService, logger)
	v1.Get("/stations", stationHandler.List)
	v1.Get("/stations/:id", stationHandler.Get)
	v1.Get("/stations/:id/availability", stationHandler.Availability)

	protected := v1.Group("", middleware.AuthRequired(authService))

	protected.Get("/stations/:id/sessions", stationHandler.Sessions)

	sessionHandler := handlers.NewSessionHandler(chargingService, logger)
	protected.Post("/sessions", sessionHandler.Start)
	protected.Post("/sessions/:id/end", sessionHandler.End)
	protected.Get("/sessions", sessionHandler.ListMine)
	protected.Get("/sessions/:id", sessionHandler.Get)

	paymentHandler := handlers.NewPaymentHandler(paymentService, logger)
	protected.Post("/sessions/:id/pay", paymentHandler.Pay)
	protected.Get("/sessions/:id/payment", paymentHandler.Get)

	reservationHandler := handlers.NewReservationHandler(reservationService, logger)
	protected.Post("/reservations", reservationHandler.Reserve)
	protected.Post("/reservations/:id/cancel", reservationHandler.Cancel)
	protected.Get("/reservations", reservationHandler.ListMine)
	protected.Get("/reservations/:id", reservationHandler.Get)

	userHandler := handlers.NewUserHandler(userService, logger)
	protected.Get("/users/me", userHandler.Me)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/updates", websocket.New(func(c *websocket.Conn) {
		wallet := c.Query("wallet", "")
		wsHub.AddClient(c, wallet)
	}))

	go func() {
		logger.Info("Starting HTTP server", zap.Int("port", cfg.HTTP.Port))
		if err := app.Listen(fmt.Sprintf(":%d", cfg.HTTP.Port)); err != nil {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited gracefully")
}

func buildLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	}
	if cfg.Level != "" {
		level, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, err
		}
		zc.Level = zap.NewAtomicLevelAt(level)
	}
	return zc.Build()
}
