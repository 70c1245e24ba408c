package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"pharmacy-storefront/common/logger"
	"pharmacy-storefront/config"
	"pharmacy-storefront/database"
	"pharmacy-storefront/events"
	aws_pkg "pharmacy-storefront/pkg/aws"
	"pharmacy-storefront/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("config load failed: " + err.Error())
	}

	log, err := logger.New(cfg.Env)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Cart store ---
	var deps server.Deps
	if cfg.RedisURL != "" {
		rdb, err := database.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal("Redis connection failed", zap.Error(err))
		}
		defer rdb.Close()
		deps.Carts = database.NewRedisCartRepository(rdb, cfg.CartTTL)
		log.Info("Using redis cart store", zap.Duration("ttl", cfg.CartTTL))
	} else {
		log.Info("Using in-memory cart store")
	}

	// --- Order events ---
	switch cfg.EventsBackend {
	case config.EventsSNS:
		awsCfg, err := aws_pkg.LoadAWSConfig(ctx)
		if err != nil {
			log.Fatal("Failed to load AWS config", zap.Error(err))
		}
		deps.Publisher = events.NewSNSPublisher(aws_pkg.NewSNSClient(awsCfg), cfg.OrderTopicARN, log)
	case config.EventsKafka:
		deps.Publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, log)
	default:
		deps.Publisher = events.Noop{}
	}

	// --- Metrics ---
	if cfg.CloudWatchEnabled {
		awsCfg, err := aws_pkg.LoadAWSConfig(ctx)
		if err != nil {
			log.Warn("CloudWatch metrics disabled", zap.Error(err))
		} else {
			metrics := aws_pkg.NewMetricsClient(awsCfg, cfg.CloudWatchNamespace, true)
			deps.Metrics = metrics
			deps.Publisher = events.NewMetered(deps.Publisher, metrics, log)
			log.Info("CloudWatch metrics enabled", zap.String("namespace", cfg.CloudWatchNamespace))
		}
	}

	srv, err := server.New(ctx, cfg, log, deps)
	if err != nil {
		log.Fatal("Server setup failed", zap.Error(err))
	}

	if err := srv.Run(ctx, ":"+cfg.Port); err != nil {
		log.Error("Server stopped with error", zap.Error(err))
		return
	}
	log.Info("Storefront API stopped gracefully")
}
