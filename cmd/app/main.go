// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"everypay-integration/internal/config"
	"everypay-integration/internal/domain/model"
	"everypay-integration/internal/domain/ports/repository"
	"everypay-integration/internal/exchange"
	"everypay-integration/internal/infra/adapters/nonce"
	"everypay-integration/internal/infra/api"
	"everypay-integration/internal/infra/logging"
	"everypay-integration/internal/infra/metrics"
	red "everypay-integration/internal/infra/redis"
	"everypay-integration/internal/infra/sched"
	"everypay-integration/internal/usecase"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, no redaction)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("[DEV MODE] Enabled")
	}

	// ---- Nonce store ----
	var (
		nonces  repository.NonceStore
		limiter api.Limiter
	)
	switch cfg.Nonce.Store {
	case config.NonceStoreRedis:
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis")
		}
		defer redisClient.Close()
		nonces = red.NewNonceStore(redisClient, cfg.Nonce.KeyPrefix)
		limiter = red.NewRateLimiter(redisClient)
	case config.NonceStoreMemory:
		mem := nonce.NewMemoryStore()
		sweeper := sched.NewNonceSweeper(cfg.Nonce.SweepInterval, mem, logger)
		go func() { _ = sweeper.Run(ctx) }()
		nonces = mem
		logger.Warn().Msg("in-memory nonce store: replay protection is per instance")
	case config.NonceStoreNone:
		nonces = nonce.AcceptAll{}
		logger.Warn().Msg("nonce.store=none: replay protection is DISABLED")
	}

	// ---- Signed exchange ----
	cred, err := model.NewCredential(cfg.Gateway.APIUsername, []byte(cfg.Gateway.APISecret))
	if err != nil {
		logger.Fatal().Err(err).Msg("gateway credential")
	}
	opts := []exchange.Option{exchange.WithVersion(cfg.Gateway.Version), exchange.WithNonceStore(nonces)}
	if cfg.Gateway.FreshnessWindow > 0 {
		opts = append(opts, exchange.WithWindow(cfg.Gateway.FreshnessWindow))
	}
	exch, err := exchange.New(cred, opts...)
	if err != nil {
		logger.Fatal().Err(err).Msg("signed exchange")
	}
	logger.Info().
		Str("protocol", exch.Version().String()).
		Dur("freshness_window", exch.Window()).
		Str("api_username", exch.Identifier()).
		Msg("signed exchange ready")

	// ---- Metrics ----
	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit, exch.Version().String())

	// ---- Use cases ----
	paymentUC := usecase.NewPaymentUseCase(exch, usecase.CheckoutDefaults{
		AccountID:       cfg.Gateway.AccountID,
		CallbackURL:     cfg.Gateway.CallbackURL,
		CustomerURL:     cfg.Gateway.CustomerURL,
		Locale:          cfg.Gateway.Locale,
		IncludeManifest: cfg.Gateway.IncludeManifest,
	}, logger, cfg.Runtime.Dev)

	// ---- HTTP server ----
	srv := api.NewServer(paymentUC, api.Options{
		CallbackPath:      pathOf(cfg.Gateway.CallbackURL, "/api/v1/payment/callback"),
		ReturnPath:        pathOf(cfg.Gateway.CustomerURL, "/payment/return"),
		PaymentURL:        cfg.Gateway.PaymentURL,
		GatewayOrigin:     cfg.Gateway.Origin,
		RequestTimeout:    cfg.HTTP.RequestTimeout,
		RateLimit:         cfg.HTTP.RateLimit,
		TrustProxyHeaders: cfg.HTTP.TrustProxyHeaders,
	}, limiter, red.ClientRouteKey, logger)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server error")
			cancel()
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigc:
	case <-ctx.Done():
	}
	logger.Info().Msg("shutdown requested")
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	_ = server.Shutdown(shutdownCtx)
	cancel()
}

// pathOf returns the path portion of a configured URL, or def.
func pathOf(raw, def string) string {
	if u := strings.TrimSpace(raw); u != "" {
		if parsed, err := url.Parse(u); err == nil && parsed.Path != "" {
			return parsed.Path
		}
	}
	return def
}
