package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/incidia/backend/internal/cache"
	"github.com/incidia/backend/internal/config"
	"github.com/incidia/backend/internal/controller"
	"github.com/incidia/backend/internal/db"
	"github.com/incidia/backend/internal/events"
	"github.com/incidia/backend/internal/handlers"
)

func main() {
	logger := initLogger()
	defer func(logger *zap.Logger) {
		err := logger.Sync()
		if err != nil {
			logger.Error("failed to sync logger", zap.Error(err))
		}
	}(logger)

	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	repo, err := db.NewRepository(&db.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	})
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer repo.Close()

	var producer controller.EventProducer = events.NopProducer{}
	if len(cfg.KafkaBrokers) > 0 {
		p, err := events.NewProducer(cfg.KafkaBrokers, logger, cfg.Topic)
		if err != nil {
			logger.Fatal("failed to initialize Kafka producer", zap.Error(err))
		}
		defer p.Close()
		producer = p

		audit := events.NewConsumer(cfg.KafkaBrokers, "incidia-audit", cfg.Topic, logger)
		audit.RegisterHandler(func(_ context.Context, ev events.Event) error {
			logger.Info("domain event",
				zap.String("type", string(ev.Type)),
				zap.String("entity_id", ev.EntityID),
			)
			return nil
		})
		audit.Start(context.Background())
		defer audit.Close()
	}

	summaries := cache.NewSummaryCache(
		cache.NewClient(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB),
		5*time.Minute,
		logger,
	)

	allocator := controller.NewAllocatorService(repo, producer, logger)
	binder := controller.NewBinderService(repo, producer, logger)
	authSvc := controller.NewAuthService(repo, cfg.JWTSecret, logger)
	tenant := controller.NewTenantService(repo, allocator, producer, cfg.BcryptCost, logger)
	users := controller.NewUserService(repo, cfg.BcryptCost, logger)
	incidents := controller.NewIncidentService(repo, producer, logger)

	server := handlers.NewServer(cfg.HTTPPort, logger)
	server.RegisterRoutes(
		cfg.JWTSecret,
		handlers.NewAuthHandler(authSvc, tenant),
		handlers.NewCompanyHandler(tenant),
		handlers.NewLicenseHandler(allocator, summaries),
		handlers.NewDeviceHandler(allocator, binder, summaries),
		handlers.NewUserHandler(users),
		handlers.NewIncidentHandler(incidents),
	)

	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	waitForShutdown(server, logger)
}

// initLogger initializes a Zap production logger.
func initLogger() *zap.Logger {
	logger, _ := zap.NewProduction()
	return logger
}

// waitForShutdown blocks until an interrupt or SIGTERM is received,
// then shuts the server down.
func waitForShutdown(server *handlers.Server, logger *zap.Logger) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	server.Stop()
	logger.Info("Server stopped properly")
}
