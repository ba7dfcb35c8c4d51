package main

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for the newsroom CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "newsroom",
		Short: "Newsroom - author accounts and back office for the e-newspaper",
		Long: `Newsroom serves the author sign-up, login and password recovery pages
together with the administrator JSON API. Configuration is read from the
environment.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewCreateAdminCmd())

	return cmd
}
