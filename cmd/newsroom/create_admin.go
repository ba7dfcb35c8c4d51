package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/enewspaper/newsroom/internal/core/service"
)

// createAdminConfig holds the flags for the create-admin command.
type createAdminConfig struct {
	username string
	email    string
	password string
}

// Validate checks that every flag was provided.
func (cfg *createAdminConfig) Validate() error {
	if cfg.username == "" {
		return fmt.Errorf("--username is required")
	}
	if cfg.email == "" {
		return fmt.Errorf("--email is required")
	}
	if len(cfg.password) < 8 {
		return fmt.Errorf("--password must be at least 8 characters")
	}
	if len(cfg.password) > 72 {
		return fmt.Errorf("--password must be at most 72 bytes")
	}
	return nil
}

func (cfg *createAdminConfig) bindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&cfg.username, "username", "", "administrator username")
	fs.StringVar(&cfg.email, "email", "", "administrator email address")
	fs.StringVar(&cfg.password, "password", "", "administrator password")
}

// NewCreateAdminCmd creates the create-admin subcommand.
func NewCreateAdminCmd() *cobra.Command {
	cfg := &createAdminConfig{}

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create the back office administrator account",
		Long: `Create an activated administrator account. Running it again for an
existing administrator is a no-op.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runCreateAdmin(cmd.Context(), cmd, cfg)
		},
	}
	cfg.bindFlags(cmd.Flags())

	return cmd
}

func runCreateAdmin(ctx context.Context, cmd *cobra.Command, in *createAdminConfig) error {
	cfg, log, err := loadRuntime(ctx)
	if err != nil {
		return err
	}

	client, db, err := connectMongo(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	accounts, _, creds := accountServices(cfg, db)
	admin := service.NewAdminService(creds, accounts, cfg.Auth.JWTSecret, cfg.Auth.AdminTokenTTL, log)

	account, err := admin.EnsureAdmin(ctx, in.username, in.email, in.password)
	if err != nil {
		return err
	}
	cmd.Printf("administrator %q ready (id %s)\n", account.Username, account.ID)
	return nil
}
