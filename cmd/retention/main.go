// Command retention runs one data retention sweep and exits. It is meant to
// be scheduled externally, typically as a daily cron job or Kubernetes
// CronJob, while the API's admin endpoint covers on-demand runs.
package main

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"atelier/api/internal/config"
	"atelier/api/internal/email"
	"atelier/api/internal/notify"
	"atelier/api/internal/retention"
	"atelier/api/internal/session"
	"atelier/api/internal/store"
)

func main() {
	cfg := config.Load()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer logger.Sync()

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()

	if err := store.ApplyMigrations(ctx, db, cfg.MigrationsDir); err != nil {
		logger.Fatal("migrations failed", zap.Error(err))
	}
	dataStore := store.NewPostgresStore(db)

	redisStore, err := session.NewRedisStore(cfg.RedisURL)
	if err != nil {
		logger.Fatal("redis connection failed", zap.Error(err))
	}
	defer redisStore.Close()

	mailService := email.NewService(email.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		FromName: cfg.SMTPFromName,
	})

	var publisher notify.Publisher
	if strings.TrimSpace(cfg.AMQPURL) != "" {
		mq, err := notify.NewMQPublisher(cfg.AMQPURL)
		if err != nil {
			logger.Fatal("rabbitmq connection failed", zap.Error(err))
		}
		defer mq.Close()
		publisher = mq
	}
	gateway := notify.NewGateway(publisher, logger)

	runner := retention.NewRunner(dataStore, redisStore, mailService, gateway, retention.Config{
		WarnAfter:      cfg.WarnAfter,
		DeleteAfter:    cfg.DeleteAfter,
		AnonymizeAfter: cfg.AnonymizeAfter,
		HoldRetention:  cfg.HoldRetention,
		SignInURL:      cfg.SignInURL,
	}, logger)

	summary, err := runner.Sweep(ctx)
	if err != nil {
		logger.Error("sweep finished with errors", zap.Error(err),
			zap.Int("warned", summary.Warned),
			zap.Int("purged", summary.Purged),
			zap.Int("anonymized", summary.Anonymized),
		)
		logger.Sync()
		os.Exit(1)
	}
}
