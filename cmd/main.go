package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"transport-service/internal/events"
	"transport-service/internal/handler"
	mid "transport-service/internal/middleware"
	"transport-service/internal/model"
	"transport-service/internal/policy"
	"transport-service/internal/store"
	"transport-service/internal/tenant"
	"transport-service/pkg/config"
	"transport-service/pkg/database"
	"transport-service/pkg/jwtutil"
	"transport-service/pkg/logger"
	"transport-service/pkg/password"
	"transport-service/pkg/serializer"
	"transport-service/pkg/validation"
	"transport-service/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

const maxBodySize = "2M"

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	if err := logger.InitLogger(cfg); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	defer log.Sync()
	log.Info("Starting transport service...", cfg.LogConfig()...)

	// Initialize database
	db, err := database.InitDB(&cfg.DB, log)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	if err := database.MigrateModels(db, model.All()...); err != nil {
		log.Fatal("Failed to migrate database", zap.Error(err))
	}
	log.Info("Database connection established")

	if err := bootstrapSuperadmin(db, cfg.Bootstrap, log); err != nil {
		log.Fatal("Failed to create superadmin", zap.Error(err))
	}

	table, err := policy.New()
	if err != nil {
		log.Fatal("Failed to load permission table", zap.Error(err))
	}

	emitter := newEmitter(cfg.Kafka, log)
	defer func() {
		if err := emitter.Close(); err != nil {
			log.Warn("Failed to close event publisher", zap.Error(err))
		}
	}()

	// Initialize Echo framework
	e := echo.New()
	e.HideBanner = true
	e.JSONSerializer = serializer.JSONSerializer{}
	e.Validator = validation.EchoValidator{}
	e.HTTPErrorHandler = handler.ErrorHandler

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(mid.RequestID)
	e.Use(logger.Middleware())
	e.Use(prometheus.MetricsMiddleware(cfg.Metrics.ServiceName))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.Server.CORSAllowedOrigins,
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
			echo.HeaderXRequestID,
			tenant.HeaderSlug,
		},
		ExposeHeaders: []string{echo.HeaderXRequestID, echo.HeaderContentDisposition},
	}))
	e.Use(echomiddleware.Secure())
	e.Use(echomiddleware.BodyLimit(maxBodySize))

	e.GET("/metrics", echo.WrapHandler(prometheus.GetPrometheusHandler()))

	h := handler.New(handler.Deps{
		DB:          db,
		JWT:         jwtutil.NewJWTUtil(&cfg.JWT),
		Policy:      table,
		Events:      emitter,
		BaseDomain:  cfg.Tenancy.BaseDomain,
		ServiceName: cfg.Metrics.ServiceName,
	})
	h.RegisterRoutes(e, loginLimiter(cfg.Server.LoginRatePerSecond))

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      e,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("Starting server", zap.String("port", cfg.Server.Port))
		if err := e.StartServer(server); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop
	log.Info("Shutting down server", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("Graceful shutdown failed", zap.Error(err))
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	log.Info("Server stopped")
}

// bootstrapSuperadmin seeds the platform operator from configuration
func bootstrapSuperadmin(db *gorm.DB, cfg config.BootstrapConfig, log *zap.Logger) error {
	if cfg.SuperadminEmail == "" {
		return nil
	}
	hash, err := password.Hash(cfg.SuperadminPassword)
	if err != nil {
		return err
	}
	created, err := store.NewUserStore(db).EnsureSuperadmin(context.Background(), cfg.SuperadminName, cfg.SuperadminEmail, hash)
	if err != nil {
		return err
	}
	if created {
		log.Info("Superadmin created", zap.String("email", cfg.SuperadminEmail))
	}
	return nil
}

func newEmitter(cfg config.KafkaConfig, log *zap.Logger) *events.Emitter {
	if !cfg.Enabled() {
		log.Info("Kafka brokers not configured, domain events are discarded")
		return events.NewEmitter(events.NoopPublisher{})
	}
	log.Info("Publishing domain events to Kafka",
		zap.Strings("brokers", cfg.Brokers),
		zap.String("topic", cfg.Topic))
	return events.NewEmitter(events.NewKafkaPublisher(cfg.Brokers, cfg.Topic))
}

// loginLimiter throttles login attempts per client IP. A non-positive rate disables it.
func loginLimiter(perSecond float64) echo.MiddlewareFunc {
	if perSecond <= 0 {
		return nil
	}
	return echomiddleware.RateLimiterWithConfig(echomiddleware.RateLimiterConfig{
		Store: echomiddleware.NewRateLimiterMemoryStore(rate.Limit(perSecond)),
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			prometheus.RecordAuthError("rate_limited")
			return echo.NewHTTPError(http.StatusTooManyRequests, "Too many login attempts, try again later")
		},
	})
}
