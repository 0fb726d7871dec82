package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/storefront/internal/api"
	"github.com/example/storefront/internal/auth"
	"github.com/example/storefront/internal/command"
	"github.com/example/storefront/internal/config"
	"github.com/example/storefront/internal/coordinator"
	"github.com/example/storefront/internal/email"
	"github.com/example/storefront/internal/event"
	"github.com/example/storefront/internal/infrastructure/dynamo"
	"github.com/example/storefront/internal/infrastructure/kafka"
	"github.com/example/storefront/internal/infrastructure/postgres"
	"github.com/example/storefront/internal/logger"
	"github.com/example/storefront/internal/query"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log := logger.New("api")

	cfg, err := config.Load(true)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := postgres.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer db.Close()
	log.Info().Msg("connected to postgres")

	orders := postgres.NewOrderRepository(db)
	otps := postgres.NewOtpRepository(db)
	products := postgres.NewProductRepository(db)
	stores := postgres.NewStoreRepository(db)
	customers := postgres.NewCustomerRepository(db)
	movements := postgres.NewMovementRepository(db)

	inventoryTx := postgres.NewInventoryTx(db, log)
	inventoryTx.OnLowStock = func(productID, variantID string, remaining int) {
		log.Warn().
			Str("product_id", productID).
			Str("variant_id", variantID).
			Int("remaining", remaining).
			Msg("stock below threshold")
	}

	if cfg.MovementArchiveTable != "" {
		archive, err := dynamo.NewMovementArchive(ctx, cfg.MovementArchiveTable, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialise movement archive")
		}
		inventoryTx.Archiver = archive
		log.Info().Str("table", cfg.MovementArchiveTable).Msg("movement archive enabled")
	}

	producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
	defer producer.Close()

	// In-process subscribers run synchronously on publish; the mirror fans
	// the same events out to Kafka for out-of-process consumers.
	bus := event.NewBus(log)
	bus.Subscribe(coordinator.NewHandler(inventoryTx, orders, log).HandleEvent)
	bus.Subscribe(kafka.NewMirror(producer).HandleEvent)

	mailer := email.NewService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom)

	cmdHandler := command.NewHandler(orders, otps, products, stores, customers, inventoryTx, bus, mailer, log)
	queryHandler := query.NewHandler(orders, products, movements)

	jwtService := auth.NewJWTService(
		cfg.JWTSecret,
		15*time.Minute,
		7*24*time.Hour,
	)

	handlers := api.NewHandlers(cmdHandler, queryHandler, stores, jwtService, log)
	router := api.NewRouter(handlers, jwtService, log)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("server started")
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
}
