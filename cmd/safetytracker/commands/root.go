package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/safetytracker/safetytracker/db"
	"github.com/safetytracker/safetytracker/internal/config"
	"github.com/safetytracker/safetytracker/internal/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:           "safetytracker",
	Short:         "Workplace safety incident tracker",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func GetRootCmd() *cobra.Command {
	return rootCmd
}

// bootstrap loads the configuration, initializes the logger and opens the database.
func bootstrap() (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}

	conn, err := db.Connect(cfg.Database.DSN(), db.Options{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return nil, nil, err
	}

	return cfg, conn, nil
}
