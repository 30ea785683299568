package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/go-orders-api/internal/accounts"
	"github.com/ariefcatur/go-orders-api/internal/config"
	"github.com/ariefcatur/go-orders-api/internal/httpx"
	"github.com/ariefcatur/go-orders-api/internal/inventory"
	kafkax "github.com/ariefcatur/go-orders-api/internal/kafka"
	"github.com/ariefcatur/go-orders-api/internal/logging"
	"github.com/ariefcatur/go-orders-api/internal/orders"
	"github.com/ariefcatur/go-orders-api/internal/postgres"
	"github.com/ariefcatur/go-orders-api/internal/rates"
	"github.com/ariefcatur/go-orders-api/internal/redisx"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log, err := logging.New(cfg.ServiceName, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	if err := cfg.Validate(); err != nil {
		log.Fatal("config", zap.Error(err))
	}
	if cfg.JWTSecret == "" {
		// memory mode only: tokens die with the process anyway
		cfg.JWTSecret = uuid.NewString()
		log.Warn("JWT_SECRET unset, signing with an ephemeral secret")
	}

	mode, err := orders.ParseTotalMode(cfg.TotalMode)
	if err != nil {
		log.Fatal("config", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Exchange rate, cached in redis when it is reachable
	rc := rates.New(cfg.RatesURL, cfg.RatesLabel, cfg.RatesTimeout, log.Named("rates"))
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()
	if err := redisx.Ping(ctx, rdb, time.Second); err != nil {
		log.Warn("redis unavailable, quote cache disabled", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	} else {
		rc.Cache = &redisx.QuoteCache{Client: rdb}
		rc.CacheTTL = cfg.RatesCacheTTL
	}

	osvc := &orders.Service{
		Calc:        &orders.Calculator{Mode: mode, Rates: rc, Log: log.Named("total")},
		ServiceName: cfg.ServiceName,
		Log:         log,
	}
	asvc := &accounts.Service{
		Tokens: &accounts.Tokens{
			Secret:     []byte(cfg.JWTSecret),
			AccessTTL:  cfg.AccessTokenTTL,
			RefreshTTL: cfg.RefreshTokenTTL,
		},
		Log: log,
	}
	var ledger inventory.Ledger
	var prod *kafkax.Producer

	switch cfg.Store {
	case "memory":
		// single process: stock events go straight into an in-memory ledger
		mem := inventory.NewMemLedger()
		ledger = mem
		osvc.Store = orders.NewMemStore()
		osvc.Publisher = inventory.Direct{Service: &inventory.Service{Ledger: mem, Log: log.Named("ledger")}}
		asvc.Store = accounts.NewMemStore()
		log.Info("running with in-memory store")
	case "postgres":
		db, err := postgres.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Fatal("db connect", zap.Error(err))
		}
		defer db.Close()
		if err := postgres.Migrate(ctx, db); err != nil {
			log.Fatal("db migrate", zap.Error(err))
		}

		prod = kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicStockAdjusted, 1024, log.Named("producer"))
		prod.Start()

		ledger = &inventory.Repo{DB: db}
		osvc.Store = &orders.Repo{DB: db}
		osvc.Publisher = prod
		asvc.Store = &accounts.Repo{DB: db}
	}

	if err := asvc.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		log.Fatal("bootstrap admin", zap.Error(err))
	}

	api := httpx.API{Orders: osvc, Accounts: asvc, Ledger: ledger, Log: log}
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: api.Handler()}

	go func() {
		log.Info("HTTP listening", zap.String("addr", cfg.HTTPAddr), zap.String("total_mode", string(mode)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("listen", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	if prod != nil {
		prod.Close() // flush queued stock events
		prod.WaitClosed()
	}
}
