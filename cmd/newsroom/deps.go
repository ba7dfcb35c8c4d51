package main

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/enewspaper/newsroom/internal/core/service"
	mongostore "github.com/enewspaper/newsroom/internal/infrastructure/db/mongo"
	redisstore "github.com/enewspaper/newsroom/internal/infrastructure/db/redis"
	"github.com/enewspaper/newsroom/internal/pkg/config"
	"github.com/enewspaper/newsroom/pkg/logger"
)

const (
	connectRetries     = 5
	connectBackoffBase = 500 * time.Millisecond
)

// loadRuntime reads the environment and initialises the process logger.
func loadRuntime(ctx context.Context) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.LogPretty,
		Service: "newsroom",
	})
	return cfg, log, nil
}

// withRetry runs connect with exponential backoff. Every failure is treated as
// transient since the stores may still be starting.
func withRetry(ctx context.Context, log zerolog.Logger, name string, connect func(ctx context.Context) error) error {
	attempt := 0
	backoff := retry.WithMaxRetries(connectRetries, retry.NewExponential(connectBackoffBase))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := connect(ctx); err != nil {
			log.Warn().Err(err).Str("store", name).Int("attempt", attempt).Msg("connect failed, retrying")
			return retry.RetryableError(err)
		}
		return nil
	})
}

// connectMongo opens the database and makes sure the indexes exist.
func connectMongo(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*mongo.Client, *mongo.Database, error) {
	var (
		client *mongo.Client
		db     *mongo.Database
	)
	err := withRetry(ctx, log, "mongodb", func(ctx context.Context) error {
		var err error
		client, db, err = mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	if err := mongostore.NewAccountRepository(db).EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, err
	}
	if err := mongostore.NewCategoryRepository(db).EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, err
	}
	log.Info().Str("database", cfg.Mongo.Database).Msg("mongodb connected")
	return client, db, nil
}

func connectRedis(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*redis.Client, error) {
	client, err := retry.DoValue(ctx, retry.WithMaxRetries(connectRetries, retry.NewExponential(connectBackoffBase)),
		func(ctx context.Context) (*redis.Client, error) {
			c, err := redisstore.Connect(ctx, redisstore.Config{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
			if err != nil {
				log.Warn().Err(err).Str("store", "redis").Msg("connect failed, retrying")
				return nil, retry.RetryableError(err)
			}
			return c, nil
		})
	if err != nil {
		return nil, err
	}
	log.Info().Str("addr", cfg.Redis.Addr).Msg("redis connected")
	return client, nil
}

// accountServices builds the credential and token services shared by every
// command that touches accounts.
func accountServices(cfg *config.Config, db *mongo.Database) (*mongostore.AccountRepository, *service.TokenService, *service.CredentialStore) {
	accounts := mongostore.NewAccountRepository(db)
	tokens := service.NewTokenService(accounts, service.TokenPolicy{
		VerifyTTL: cfg.Auth.VerifyTokenTTL,
		ResetTTL:  cfg.Auth.ResetTokenTTL,
	})
	creds := service.NewCredentialStore(accounts, tokens, cfg.Auth.BcryptCost)
	return accounts, tokens, creds
}
