// File: cmd/app/main.go
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"household-module-ledger/internal/config"
	"household-module-ledger/internal/infra/api/apiv1"
	pg "household-module-ledger/internal/infra/db/postgres"
	"household-module-ledger/internal/infra/logging"
	"household-module-ledger/internal/infra/metrics"
	red "household-module-ledger/internal/infra/redis"
	"household-module-ledger/internal/infra/sched"
	"household-module-ledger/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("developer mode enabled")
	}

	unitPrice, err := decimal.NewFromString(cfg.Pricing.TokenUnitPrice)
	if err != nil || unitPrice.Sign() <= 0 {
		log.Fatalf("pricing.token_unit_price: %q is not a positive decimal", cfg.Pricing.TokenUnitPrice)
	}

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer redisClient.Close()

	// ---- Repositories ----
	moduleRepo := pg.NewModuleRepoCacheDecorator(pg.NewModuleRepo(pool), redisClient, cfg.Redis.TTL)
	accountRepo := pg.NewTokenAccountRepo(pool)
	ledgerRepo := pg.NewTokenTransactionRepo(pool)
	activationRepo := pg.NewActivationRepo(pool)
	voucherRepo := pg.NewVoucherRepo(pool)
	txManager := pg.NewTxManager(pool)

	// ---- Use cases ----
	accountUC := usecase.NewAccountUseCase(accountRepo, ledgerRepo, txManager, logger)
	purchaseUC := usecase.NewPurchaseUseCase(accountRepo, ledgerRepo, voucherRepo, txManager, unitPrice, logger)
	voucherUC := usecase.NewVoucherUseCase(voucherRepo, logger)
	entitlementUC := usecase.NewEntitlementUseCase(moduleRepo, activationRepo, accountRepo, ledgerRepo, txManager, logger)
	moduleUC := usecase.NewModuleUseCase(moduleRepo, logger)
	statsUC := usecase.NewStatsUseCase(activationRepo, accountRepo)

	// ---- HTTP API ----
	metrics.MustRegister()
	auth := apiv1.NewAuthManager(cfg.Admin.JWTSecret, !cfg.Runtime.Dev, "", cfg.Admin.SessionTTL)
	srv := apiv1.NewServer(accountUC, purchaseUC, voucherUC, entitlementUC, moduleUC, statsUC, auth, cfg.Admin.Username, cfg.Admin.Password, logger)

	router := chi.NewRouter()
	apiv1.RegisterAPIV1(router, srv)
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Expiry sweep worker ----
	worker := sched.NewSweepWorker(cfg.Sweep.Interval, entitlementUC, logger)
	go func() { _ = worker.Run(ctx) }()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown error")
	}
}
