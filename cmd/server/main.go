package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bookline/service-booking/internal/application"
	"github.com/bookline/service-booking/internal/config"
	bookingEvents "github.com/bookline/service-booking/internal/events"
	"github.com/bookline/service-booking/internal/handler"
	"github.com/bookline/service-booking/internal/pkg/auth"
	"github.com/bookline/service-booking/internal/pkg/database"
	"github.com/bookline/service-booking/internal/pkg/health"
	"github.com/bookline/service-booking/internal/pkg/kafka"
	"github.com/bookline/service-booking/internal/pkg/logger"
	"github.com/bookline/service-booking/internal/pkg/redislock"
	"github.com/bookline/service-booking/internal/repository"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, "service-booking")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting service-booking",
		zap.String("port", cfg.Port),
		zap.String("env", cfg.AppEnv),
	)

	// Connect to database
	dbConfig := database.PostgresConfig{
		Host:         cfg.DBConfig.Host,
		Port:         cfg.DBConfig.Port,
		User:         cfg.DBConfig.User,
		Password:     cfg.DBConfig.Password,
		DBName:       cfg.DBConfig.DBName,
		SSLMode:      cfg.DBConfig.SSLMode,
		MaxOpenConns: cfg.DBConfig.MaxOpenConns,
		MaxIdleConns: cfg.DBConfig.MaxIdleConns,
	}
	db, err := database.Connect(dbConfig, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() { _ = database.Close(db) }()

	// Run database migrations
	if cfg.AutoMigrate {
		if err := db.AutoMigrate(repository.Models()...); err != nil {
			log.Fatal("failed to run auto-migration", zap.Error(err))
		}
		log.Info("database migration completed (auto-migrate)")
	} else {
		if err := database.RunMigrations(dbConfig.DatabaseURL(), cfg.MigrationsDir, log); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(
		cfg.JWTConfig.Secret,
		cfg.JWTConfig.Issuer,
		cfg.JWTConfig.AccessTokenTTL,
		cfg.JWTConfig.RefreshTokenTTL,
	)

	// Initialize Kafka producer
	var publisher application.EventPublisher
	if len(cfg.KafkaConfig.Brokers) > 0 {
		kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
		defer func() { _ = kafkaProducer.Close() }()
		publisher = kafkaProducer
	} else {
		log.Warn("no kafka brokers configured, events will not be published")
	}

	// Readiness checks
	healthChecks := []health.Check{{
		Name:     "postgres",
		Critical: true,
		Ping: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}}

	// Initialize the optional admission lock
	var locker redislock.Locker = redislock.NoopLocker{}
	var redisClient *redis.Client
	if cfg.RedisConfig.Enabled() {
		redisClient, err = redislock.NewClient(cfg.RedisConfig.Addr, cfg.RedisConfig.Password, cfg.RedisConfig.DB)
		if err != nil {
			log.Warn("redis unavailable, admissions rely on transactions alone", zap.Error(err))
		} else {
			defer func() { _ = redisClient.Close() }()
			locker = redislock.NewRedisLocker(redisClient, cfg.LockTTL, cfg.LockWait)
			healthChecks = append(healthChecks, health.Check{
				Name: "redis",
				Ping: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
			})
		}
	}

	// Initialize repositories
	bookingRepo := repository.NewGormBookingRepository(db)
	blockedSlotRepo := repository.NewGormBlockedSlotRepository(db)
	memberRepo := repository.NewGormMemberRepository(db)
	resourceRepo := repository.NewGormResourceRepository(db)
	serviceRepo := repository.NewGormServiceRepository(db)
	auditRepo := repository.NewGormAuditRepository(db)
	availabilityRepo := repository.NewGormAvailabilityRepository(db)
	paymentRepo := repository.NewGormPaymentRepository(db)
	refs := repository.NewGormReferenceLookup(db)

	// Initialize application services
	guard := application.NewConflictGuard(bookingRepo, locker, log)
	bookingService := application.NewBookingService(guard, bookingRepo, publisher, log)
	blockedSlotService := application.NewBlockedSlotService(blockedSlotRepo, refs, publisher, log)
	availabilityService := application.NewAvailabilityService(availabilityRepo, refs, publisher, log)
	paymentService := application.NewPaymentService(paymentRepo, refs, publisher, log)
	catalogService := application.NewCatalogService(memberRepo, resourceRepo, serviceRepo, log)
	auditService := application.NewAuditService(auditRepo, log)

	// Initialize and start the audit consumer in a goroutine
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if len(cfg.KafkaConfig.Brokers) > 0 {
		groupID := cfg.KafkaConfig.GroupPrefix + "booking-audit"
		auditConsumer := bookingEvents.NewAuditEventConsumer(
			cfg.KafkaConfig.Brokers,
			groupID,
			auditService,
			log,
		)
		defer func() { _ = auditConsumer.Close() }()

		go func() {
			log.Info("starting audit event consumer")
			if err := auditConsumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("audit event consumer error", zap.Error(err))
			}
		}()
	}

	// Setup Gin router
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handler.NewRouter(handler.RouterConfig{
		Logger:         log,
		Tokens:         jwtManager,
		RequestTimeout: cfg.RequestTimeout,
		Health:         health.NewHandler("service-booking", healthChecks...),
	}, handler.Services{
		Bookings:     bookingService,
		Stats:        bookingService,
		BlockedSlots: blockedSlotService,
		Availability: availabilityService,
		Payments:     paymentService,
		Catalog:      catalogService,
		Audit:        auditService,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down service-booking...")

	// Cancel the consumer context
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info("service-booking stopped")
}
