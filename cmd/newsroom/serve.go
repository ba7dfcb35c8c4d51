package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/enewspaper/newsroom/internal/api"
	"github.com/enewspaper/newsroom/internal/api/handler"
	"github.com/enewspaper/newsroom/internal/api/middleware"
	"github.com/enewspaper/newsroom/internal/core/service"
	mongostore "github.com/enewspaper/newsroom/internal/infrastructure/db/mongo"
	redisstore "github.com/enewspaper/newsroom/internal/infrastructure/db/redis"
	"github.com/enewspaper/newsroom/internal/infrastructure/mail"
	"github.com/enewspaper/newsroom/internal/pkg/config"
)

const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the HTTP server for the public author pages, the admin API,
health probes and Prometheus metrics. Stops gracefully on SIGINT or SIGTERM.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx)
		},
	}
}

func runServe(ctx context.Context) error {
	cfg, log, err := loadRuntime(ctx)
	if err != nil {
		return err
	}

	mongoClient, db, err := connectMongo(ctx, cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("mongodb unavailable")
		return err
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()

	rdb, err := connectRedis(ctx, cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("redis unavailable")
		return err
	}
	defer func() { _ = rdb.Close() }()

	accounts, tokens, creds := accountServices(cfg, db)
	authService := service.NewAuthService(
		creds,
		tokens,
		redisstore.NewSessionStore(rdb),
		newMailer(cfg, log),
		cfg.Auth.SessionTTL,
		log.With().Str("component", "auth").Logger(),
	)
	adminService := service.NewAdminService(creds, accounts, cfg.Auth.JWTSecret, cfg.Auth.AdminTokenTTL,
		log.With().Str("component", "admin").Logger())
	categoryService := service.NewCategoryService(mongostore.NewCategoryRepository(db),
		log.With().Str("component", "categories").Logger())

	e, err := api.NewRouter(api.Deps{
		Auth:       authService,
		Admin:      adminService,
		Categories: categoryService,
		Health: map[string]handler.Pinger{
			"mongodb": mongostore.Pinger{Client: mongoClient},
			"redis":   redisstore.Pinger{Client: rdb},
		},
		JWTSecret:     cfg.Auth.JWTSecret,
		SessionSecret: cfg.Auth.SessionSecret,
		Cookies: middleware.CookieConfig{
			Secure:      cfg.Auth.CookieSecure,
			SessionTTL:  cfg.Auth.SessionTTL,
			RememberTTL: cfg.Auth.RememberTTL,
		},
		Logger: log,
	})
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("http server failed")
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// newMailer delivers over SMTP when a host is configured, otherwise mail is
// only logged.
func newMailer(cfg *config.Config, log zerolog.Logger) *mail.Mailer {
	var sender mail.Sender
	if cfg.SMTP.Host != "" {
		sender = mail.NewSMTPSender(mail.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
		})
	} else {
		log.Warn().Msg("SMTP_HOST not set, outgoing mail will only be logged")
		sender = mail.NewLogSender(log.With().Str("component", "mail").Logger())
	}
	return mail.NewMailer(sender, cfg.BaseURL, cfg.SMTP.From)
}
