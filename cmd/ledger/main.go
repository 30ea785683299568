package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ariefcatur/go-orders-api/internal/config"
	"github.com/ariefcatur/go-orders-api/internal/inventory"
	kafkax "github.com/ariefcatur/go-orders-api/internal/kafka"
	"github.com/ariefcatur/go-orders-api/internal/logging"
	"github.com/ariefcatur/go-orders-api/internal/orders"
	"github.com/ariefcatur/go-orders-api/internal/postgres"
	"github.com/ariefcatur/go-orders-api/internal/redisx"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	log, err := logging.New(cfg.ServiceName+"-ledger", cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db); err != nil {
		log.Fatal("db migrate", zap.Error(err))
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &inventory.Service{
		Ledger: &inventory.Repo{DB: db},
		Dedup:  &redisx.Dedup{Client: rdb, Service: "ledger"},
		Log:    log,
	}

	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.LedgerGroup, orders.TopicStockAdjusted, cfg.LedgerWorkers, log.Named("consumer"))
	done := make(chan struct{})
	go func() {
		defer close(done)
		log.Info("ledger consumer started",
			zap.String("group", cfg.LedgerGroup),
			zap.String("topic", orders.TopicStockAdjusted),
			zap.Int("workers", cfg.LedgerWorkers),
		)
		if err := cons.Start(ctx, svc.HandleStockAdjusted); err != nil {
			log.Error("consumer exit", zap.Error(err))
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
		log.Info("shutting down consumer")
	case <-ctx.Done():
	}
	cancel()
	<-done
}
