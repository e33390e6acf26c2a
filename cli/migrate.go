package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/camden-git/loreboardbackend/database"
)

func (a *app) migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.openDatabase()
			if err != nil {
				return err
			}
			a.logger.Info("database schema up to date", zap.String("path", a.cfg.DatabasePath))
			return database.Close(db)
		},
	}
}
