package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/holycode/contracts-api/internal/api"
	"github.com/holycode/contracts-api/internal/core/service"
	"github.com/holycode/contracts-api/internal/infrastructure/config"
	mongostore "github.com/holycode/contracts-api/internal/infrastructure/db/mongo"
	redisstore "github.com/holycode/contracts-api/internal/infrastructure/db/redis"
	"github.com/holycode/contracts-api/internal/infrastructure/http/handlers"
	"github.com/holycode/contracts-api/internal/infrastructure/security"
	"github.com/holycode/contracts-api/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "contracts-api",
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Error().Err(err).Msg("service stopped with error")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	client, db, err := mongostore.Connect(ctx, mongostore.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		Timeout:  cfg.Mongo.Timeout,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Error().Err(err).Msg("mongo disconnect failed")
		}
	}()

	rdb, err := redisstore.Connect(ctx, redisstore.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Error().Err(err).Msg("redis close failed")
		}
	}()

	users := mongostore.NewUserRepository(db)
	contracts := mongostore.NewContractRepository(db)
	if err := users.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("user indexes: %w", err)
	}
	if err := contracts.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("contract indexes: %w", err)
	}

	tokens := security.NewJWT(cfg.Auth.JWTSecret, cfg.Auth.JWTTTL)
	hasher := security.NewBcrypt(cfg.Auth.BcryptCost)

	authService, err := service.NewAuthService(users, hasher, tokens, logger.Component("auth"), service.AuthOptions{
		ConcealUnknownEmail: cfg.Auth.ConcealUnknownEmail,
	})
	if err != nil {
		return fmt.Errorf("auth service: %w", err)
	}
	contractService := service.NewContractService(
		contracts,
		redisstore.NewIdempotencyStore(rdb, cfg.Redis.IdempotencyTTL),
		logger.Component("contracts"),
	)

	e := api.NewRouter(api.Dependencies{
		Logger:    log,
		Auth:      authService,
		Contracts: contractService,
		Users:     users,
		Tokens:    tokens,
		Readiness: []handlers.Dependency{
			{Name: "mongodb", Pinger: mongostore.NewPinger(db)},
			{Name: "redis", Pinger: redisstore.NewPinger(rdb)},
		},
	})

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("http server listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("received interruption signal, shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}

	log.Info().Msg("shutdown complete")
	return nil
}
