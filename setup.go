package main

import (
	"errors"
	"fmt"

	"ecwid_order_sync/internal/app"
	"ecwid_order_sync/internal/config"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// rootOptions holds the global flags.
type rootOptions struct {
	EnvFile    string
	ConfigFile string
	LogLevel   string
	DryRun     bool

	cfg   *config.Config
	runID string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "ecwid-sync",
		Short:         "Append new Ecwid orders to a Google Sheets workbook",
		Long:          "Reads the highest order number already in the orders table, fetches newer orders from Ecwid, flattens them into one row per line item and appends them together with an update log entry.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setupEnvironment()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, opts)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "optional YAML configuration file")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level (overrides LOGLEVEL)")
	cmd.PersistentFlags().BoolVar(&opts.DryRun, "dry-run", false, "fetch and transform but do not write to the workbook")

	cmd.AddCommand(newRunCommand(opts))
	cmd.AddCommand(newBootstrapCommand(opts))

	return cmd
}

func newRunCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run one sync pass (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, opts)
		},
	}
}

func newBootstrapCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "bootstrap",
		Short: "Create the workbook and its tables without syncing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			wb, err := app.OpenWorkbook(cmd.Context(), opts.cfg)
			if err != nil {
				log.Error().Err(err).Msg("Bootstrap failed")
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), wb.SpreadsheetID())
			return nil
		},
	}
}

// setupEnvironment loads the .env file, configures logging and builds the
// configuration, in that order.
func (o *rootOptions) setupEnvironment() error {
	loaded := config.LoadDotEnv(o.EnvFile)
	app.SetupLogging(o.LogLevel, loaded)

	o.runID = uuid.NewString()
	app.WithRunID(o.runID)

	cfg, err := config.Load(o.ConfigFile)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return err
	}
	cfg.DryRun = o.DryRun
	o.cfg = cfg
	return nil
}

func runSync(cmd *cobra.Command, opts *rootOptions) error {
	ctx := cmd.Context()
	if err := opts.cfg.RequireSource(); err != nil {
		var cfgErr *config.Error
		if errors.As(err, &cfgErr) {
			log.Error().Strs("missing", cfgErr.Missing).Msg("Required configuration is missing")
		}
		return err
	}

	log.Info().Str("store_id", opts.cfg.StoreID).Bool("dry_run", opts.cfg.DryRun).Msg("Starting Ecwid order sync")

	a, err := app.Build(ctx, opts.cfg, opts.runID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize")
		return err
	}

	report, err := a.Syncer.Run(ctx)
	log.Debug().Int64("api_calls", a.Ecwid.GetAPICallCount()).Msg("Ecwid API usage")
	if err != nil {
		log.Error().Err(err).Msg("Sync failed")
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), summaryLine(report.RowsAppended, report.DryRun, report.RowsPrepared))
	return nil
}

func summaryLine(appended int, dryRun bool, prepared int) string {
	if dryRun {
		return fmt.Sprintf("dry run: %d rows would be appended", prepared)
	}
	return fmt.Sprintf("%d rows appended", appended)
}
