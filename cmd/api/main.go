package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"private-checkout-gateway/config"
	"private-checkout-gateway/internal/adapter/chain/evm"
	"private-checkout-gateway/internal/adapter/engine"
	"private-checkout-gateway/internal/adapter/http/handler"
	"private-checkout-gateway/internal/adapter/storage/postgres"
	redisStore "private-checkout-gateway/internal/adapter/storage/redis"
	"private-checkout-gateway/internal/core/ports"
	"private-checkout-gateway/internal/service"
	"private-checkout-gateway/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Storage
	pool, err := postgres.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("connecting to postgres")
	}
	defer pool.Close()

	redisClient, err := redisStore.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("connecting to redis")
	}
	defer redisClient.Close()

	merchantRepo := postgres.NewMerchantRepo(pool)
	walletRepo := postgres.NewWalletRepo(pool)
	checkoutRepo := postgres.NewCheckoutRepo(pool)
	transactor := postgres.NewTransactor(pool)
	proofStore := redisStore.NewProofStore(redisClient)
	rateLimitStore := redisStore.NewRateLimitStore(redisClient)

	// Crypto services
	encSvc, err := service.NewAESEncryptionService(cfg.AES.Key)
	if err != nil {
		log.Fatal().Err(err).Msg("initialising encryption service")
	}
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService(cfg.JWT)

	// Privacy engine. The handle dials lazily, so startup does not block on
	// the engine's shielded-pool scan.
	engineClient := engine.NewClient(cfg.Engine, log)
	engineHandle := service.NewEngineHandle(engineClient)

	// Direct settlement on the public chain.
	settler, err := evm.NewSettler(ctx, cfg.Chain, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialising chain settler")
	}

	// Core services
	provisioner := service.NewProvisionerService(
		engineHandle, walletRepo, encSvc, cfg.Engine.ProvisionTimeout, log)
	authSvc := service.NewAuthService(
		merchantRepo, walletRepo, transactor, provisioner, hashSvc, tokenSvc, log)
	challengeIssuer := service.NewChallengeIssuer(cfg.Chain, cfg.Server)
	checkoutSvc := service.NewCheckoutService(
		checkoutRepo, merchantRepo, walletRepo, proofStore, encSvc,
		challengeIssuer, engineHandle, settler, log)
	walletSvc := service.NewWalletService(walletRepo)

	router := handler.SetupRouter(handler.RouterDeps{
		AuthSvc:        authSvc,
		CheckoutSvc:    checkoutSvc,
		WalletSvc:      walletSvc,
		TokenSvc:       tokenSvc,
		RateLimitStore: rateLimitStore,
		HealthCheckers: []ports.HealthChecker{
			postgres.NewHealthChecker(pool),
			redisStore.NewHealthChecker(redisClient),
		},
		Logger: log,
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown")
	}
}
