package main

import (
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/tillkit/pkg/config"
	"github.com/dmitrymomot/tillkit/pkg/store/pgstore"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the PostgreSQL schema migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		_, log, err := bootstrap()
		if err != nil {
			return err
		}

		var pc pgstore.Config
		if err := config.Load(&pc); err != nil {
			return err
		}
		pool, err := pgstore.Connect(ctx, pc)
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := pgstore.Migrate(ctx, pool, pc, log); err != nil {
			return err
		}
		log.InfoContext(ctx, "migrations applied")
		return nil
	},
}
