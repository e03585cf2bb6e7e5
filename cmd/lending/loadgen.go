package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/AntonStoeckl/library-lending-go/lending/loadgen"
	"github.com/AntonStoeckl/library-lending-go/lending/sqlengine"
)

func newLoadgenCmd(a *app) *cobra.Command {
	config := loadgen.DefaultConfig()

	var duration time.Duration

	cmd := &cobra.Command{
		Use:   "loadgen",
		Short: "Generate concurrent issue and return traffic and verify the inventory afterward",
		Example: `  # 50 operations per second for one minute against the configured database
  lending loadgen --rate 50 --duration 1m`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			engineOptions, _, shutdown, err := a.observability(ctx)
			if err != nil {
				return err
			}
			defer shutdown()

			engine, closeDB, err := a.openEngine(ctx, engineOptions...)
			if err != nil {
				return err
			}
			defer closeDB()

			return a.runLoadgen(ctx, engine, config, duration)
		},
	}

	cmd.Flags().IntVar(&config.Rate, "rate", config.Rate, "operations per second")
	cmd.Flags().IntVar(&config.Items, "items", config.Items, "number of items to seed and lend")
	cmd.Flags().IntVar(&config.CopiesPerItem, "copies", config.CopiesPerItem, "copies per seeded item")
	cmd.Flags().IntVar(&config.Borrowers, "borrowers", config.Borrowers, "number of distinct borrowers")
	cmd.Flags().IntVar(&config.IssueWeight, "issue-weight", config.IssueWeight, "percentage of issues, the rest are returns")
	cmd.Flags().DurationVar(&config.ReportInterval, "report-interval", config.ReportInterval, "interval of progress logs")
	cmd.Flags().DurationVar(&duration, "duration", 0, "stop after this long, 0 runs until interrupted")

	return cmd
}

func (a *app) runLoadgen(ctx context.Context, engine sqlengine.Engine, config loadgen.Config, duration time.Duration) error {
	if err := engine.EnsureSchema(ctx); err != nil {
		return err
	}

	generator, err := loadgen.New(engine, config, a.logger)
	if err != nil {
		return err
	}

	if err := generator.Seed(ctx); err != nil {
		return err
	}

	runCtx := ctx
	if duration > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, duration)
		defer cancel()
	}

	generator.Run(runCtx)

	// The run ends with an interrupt, so the check gets its own context.
	verifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), config.ReportInterval)
	defer cancel()

	if err := generator.Verify(verifyCtx); err != nil {
		return err
	}

	a.logger.Info("inventory is consistent")

	return nil
}
