package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/ndavault/internal/db/migrations"
	"github.com/dmitrymomot/ndavault/pkg/config"
	"github.com/dmitrymomot/ndavault/pkg/pg"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|status]",
		Short:     "Apply, roll back or list database migrations",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{pg.MigrateUp, pg.MigrateDown, pg.MigrateStatus},
		RunE: func(cmd *cobra.Command, args []string) error {
			var s settings
			if err := errors.Join(config.Load(&s.App), config.Load(&s.DB)); err != nil {
				return err
			}
			log := newLogger(s.App.Env)

			ctx := cmd.Context()
			in, err := connectInfra(ctx, s, log, false)
			if err != nil {
				return err
			}
			defer in.Close()

			return pg.RunMigrations(ctx, in.pool, migrations.FS, s.DB, log, args[0])
		},
	}
}
