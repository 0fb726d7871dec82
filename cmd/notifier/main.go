package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/example/storefront/internal/config"
	"github.com/example/storefront/internal/email"
	"github.com/example/storefront/internal/infrastructure/kafka"
	"github.com/example/storefront/internal/infrastructure/postgres"
	"github.com/example/storefront/internal/logger"
	"github.com/example/storefront/internal/notification"
)

// The notifier tails the event topic and sends customer emails. It runs
// apart from the API so a slow SMTP relay never stalls order handling.
func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log := logger.New("notifier")

	cfg, err := config.Load(false)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := postgres.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer db.Close()

	orders := postgres.NewOrderRepository(db)
	customers := postgres.NewCustomerRepository(db)
	mailer := email.NewService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom)

	handler := notification.NewHandler(mailer, orders, customers, log)

	consumer := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.ConsumerGroup, log)
	defer consumer.Close()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info().
			Strs("brokers", cfg.KafkaBrokers).
			Str("topic", cfg.KafkaTopic).
			Str("group", cfg.ConsumerGroup).
			Msg("consuming events")
		if err := consumer.Consume(ctx, handler.HandleMessage); err != nil {
			if ctx.Err() == nil {
				log.Error().Err(err).Msg("consumer error")
			}
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutting down")
	cancel()
	wg.Wait()
}
