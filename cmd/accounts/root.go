package main

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for the accounts CLI. Every
// subcommand reads its configuration from the environment.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "accounts",
		Short:        "User account service",
		Long:         `Registration, login, email verification and session management over HTTP.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewKeygenCmd())
	cmd.AddCommand(NewPromoteCmd())

	return cmd
}
