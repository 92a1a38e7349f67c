package main

import (
	"errors"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/accounts/internal/accounts/app"
	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
	"github.com/aussiebroadwan/accounts/internal/accounts/service"
)

// NewPromoteCmd creates the promote subcommand. There is no HTTP route that
// grants roles, so the first admin is made here.
func NewPromoteCmd() *cobra.Command {
	var role string

	cmd := &cobra.Command{
		Use:   "promote <email>",
		Short: "Change the role of an existing user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPromote(cmd, args[0], role)
		},
	}
	cmd.Flags().StringVar(&role, "role", domain.RoleAdmin.String(), "role to assign (user or admin)")

	return cmd
}

func runPromote(cmd *cobra.Command, email, roleName string) error {
	role, err := domain.ParseRole(roleName)
	if err != nil {
		return oops.Code("INVALID_ROLE").Wrap(err)
	}

	cfg, err := app.LoadConfig()
	if err != nil {
		return oops.Code("CONFIG_INVALID").Wrap(err)
	}

	db, err := app.OpenStore(cmd.Context(), cfg)
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
	}
	defer db.Close()

	users := &service.UserService{Store: db}
	u, err := users.SetRole(cmd.Context(), email, role)
	if errors.Is(err, service.ErrUserNotFound) {
		return oops.Code("USER_NOT_FOUND").With("email", email).Wrap(err)
	}
	if err != nil {
		return oops.Code("PROMOTE_FAILED").With("email", email).Wrap(err)
	}

	cmd.Printf("%s is now %s\n", u.Email, u.Role)
	return nil
}
