package main

import (
	"github.com/spf13/cobra"

	"equipment-system/pkg/config"
	"equipment-system/pkg/database/migrations"
)

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Управление миграциями схемы БД",
	}
	for _, command := range []struct{ use, short string }{
		{"up", "Применить все новые миграции"},
		{"down", "Откатить последнюю миграцию"},
		{"status", "Показать состояние миграций"},
	} {
		cmd.AddCommand(&cobra.Command{
			Use:   command.use,
			Short: command.short,
			Args:  cobra.NoArgs,
			RunE: func(c *cobra.Command, _ []string) error {
				cfg := config.New()
				return migrations.Run(c.Context(), cfg.Postgres.DSN, command.use)
			},
		})
	}
	return cmd
}
