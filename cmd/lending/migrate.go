package main

import (
	"github.com/spf13/cobra"

	"github.com/AntonStoeckl/library-lending-go/lending/sqlengine"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the lending tables and indexes if they do not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withEngine(cmd.Context(), func(engine sqlengine.Engine) error {
				if err := engine.EnsureSchema(cmd.Context()); err != nil {
					return err
				}

				a.logger.Info("schema is up to date", "driver", a.cfg.Database.Driver)

				return nil
			})
		},
	}
}
