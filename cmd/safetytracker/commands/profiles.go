package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/safetytracker/safetytracker/internal/pkg/logger"
	"github.com/safetytracker/safetytracker/internal/repositories"
	"github.com/safetytracker/safetytracker/internal/services"
	"github.com/safetytracker/safetytracker/internal/types"
)

func NewCreateProfilesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "create-profiles",
		Short: "Give every user without a profile an employee profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, conn, err := bootstrap()
			if err != nil {
				return err
			}
			defer logger.Sync() // nolint

			users := services.NewUserService(conn, repositories.NewUserRepository(conn))
			created, err := users.CreateMissingProfiles(cmd.Context())
			if err != nil {
				return err
			}

			for _, username := range created {
				fmt.Fprintf(cmd.OutOrStdout(), "Created profile for %s\n", username)
			}
			logger.Info("Profiles created", zap.Int("count", len(created)))
			return nil
		},
	}
}

func NewSetRoleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set-role <username> <employee|manager>",
		Short: "Change the role of a user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			role := types.Role(args[1])
			if !role.Valid() {
				return fmt.Errorf("unknown role %q", args[1])
			}

			_, conn, err := bootstrap()
			if err != nil {
				return err
			}
			defer logger.Sync() // nolint

			users := services.NewUserService(conn, repositories.NewUserRepository(conn))
			if err := users.SetRole(cmd.Context(), args[0], role); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", args[0], role.Label())
			return nil
		},
	}
}
