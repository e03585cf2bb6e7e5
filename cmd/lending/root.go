package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/joho/godotenv"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/AntonStoeckl/library-lending-go/lending/sqlengine"
	"github.com/AntonStoeckl/library-lending-go/shell/config"
)

// app carries what PersistentPreRunE prepared to the subcommands.
type app struct {
	configPath string
	cfg        config.Config
	logger     *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "lending",
		Short: "Library lending service",
		Long: `Lending tracks a catalog of items with a finite number of copies and lends them to borrowers.

Issue and return run as atomic transactions, so the available copies of an item always equal its
total copies minus its open loans, even under concurrent requests.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}

			logger, err := config.NewLogger(cmd.ErrOrStderr(), cfg.Log)
			if err != nil {
				return err
			}

			a.cfg = cfg
			a.logger = logger

			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to a YAML config file")

	cmd.AddCommand(
		newServeCmd(a),
		newMigrateCmd(a),
		newItemCmd(a),
		newIssueCmd(a),
		newReturnCmd(a),
		newLoansCmd(a),
		newSummaryCmd(a),
		newLoadgenCmd(a),
	)

	return cmd
}

// openEngine connects to the configured database. The caller must invoke the returned CloseFunc.
func (a *app) openEngine(ctx context.Context, options ...sqlengine.Option) (sqlengine.Engine, config.CloseFunc, error) {
	options = append([]sqlengine.Option{sqlengine.WithLogger(a.logger)}, options...)

	return config.OpenEngine(ctx, a.cfg.Database, options...)
}

// withEngine runs fn with a freshly opened engine and closes it afterward.
func (a *app) withEngine(ctx context.Context, fn func(engine sqlengine.Engine) error) error {
	engine, closeDB, err := a.openEngine(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	return fn(engine)
}

func printJSON(w io.Writer, v any) error {
	out, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	_, err = w.Write(append(out, '\n'))

	return err
}
