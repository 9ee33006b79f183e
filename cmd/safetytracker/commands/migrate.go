package commands

import (
	"github.com/spf13/cobra"

	"github.com/safetytracker/safetytracker/db"
	"github.com/safetytracker/safetytracker/internal/pkg/logger"
)

func NewMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, conn, err := bootstrap()
			if err != nil {
				return err
			}
			defer logger.Sync() // nolint

			if err := db.Migrate(conn); err != nil {
				return err
			}

			logger.Info("Database migrated")
			return nil
		},
	}
}
