// Package app wires configuration into the clients and the sync orchestrator.
package app

import (
	"context"
	"fmt"

	"ecwid_order_sync/internal/config"
	"ecwid_order_sync/internal/dates"
	"ecwid_order_sync/internal/ecwid"
	"ecwid_order_sync/internal/fetch"
	"ecwid_order_sync/internal/metrics"
	"ecwid_order_sync/internal/notifications"
	"ecwid_order_sync/internal/orchestrator"
	"ecwid_order_sync/internal/processing"
	"ecwid_order_sync/internal/sheets"

	"github.com/rs/zerolog/log"
)

// App holds everything a run needs.
type App struct {
	Syncer   *orchestrator.Syncer
	Workbook *sheets.Workbook
	Ecwid    *ecwid.Client
	Metrics  *metrics.Registry
}

// OpenWorkbook creates the Sheets client and resolves the workbook, creating the
// spreadsheet and its tables when missing.
func OpenWorkbook(ctx context.Context, cfg *config.Config) (*sheets.Workbook, error) {
	log.Debug().Str("credentials", cfg.CredentialsFile).Msg("Initializing sheets client")
	client, err := sheets.NewClient(ctx, cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}

	wb, err := sheets.OpenWorkbook(ctx, client, WorkbookConfig(cfg), config.DefaultResilienceConfig())
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("spreadsheet_id", wb.SpreadsheetID()).
		Str("orders_table", cfg.OrdersTable).
		Str("log_table", cfg.LogTable).
		Msg("Workbook ready")
	return wb, nil
}

// WorkbookConfig derives the destination layout from cfg.
func WorkbookConfig(cfg *config.Config) sheets.WorkbookConfig {
	return sheets.WorkbookConfig{
		SpreadsheetID: cfg.SpreadsheetID,
		Name:          cfg.WorkbookName,
		OrdersTable:   cfg.OrdersTable,
		OrdersHeaders: processing.Headers,
		OrderColumn:   processing.OrderNumberColumn,
		LogTable:      cfg.LogTable,
	}
}

// Build initializes clients and assembles the orchestrator.
func Build(ctx context.Context, cfg *config.Config, runID string) (*App, error) {
	normalizer, err := dates.NewNormalizer(cfg.Timezone)
	if err != nil {
		return nil, &config.Error{Err: err}
	}

	wb, err := OpenWorkbook(ctx, cfg)
	if err != nil {
		return nil, err
	}

	ecwidClient := ecwid.NewClient(cfg.APIBaseURL, cfg.StoreID, cfg.SecretToken)
	fetcher := fetch.NewFetcher(ecwidClient, wb, cfg.InitialFetchDate).WithFullScan(cfg.FullScan)

	reg := metrics.NewRegistry().WithPushTarget(cfg.PushgatewayURL, cfg.StoreID)

	syncer := orchestrator.NewSyncer(fetcher, processing.NewFlattener(normalizer), wb, normalizer).
		WithNotifier(InitializeNotificationClient(cfg)).
		WithMetrics(reg).
		WithDryRun(cfg.DryRun).
		WithRunID(runID)

	log.Debug().Msg("Clients initialized successfully")
	return &App{
		Syncer:   syncer,
		Workbook: wb,
		Ecwid:    ecwidClient,
		Metrics:  reg,
	}, nil
}

// InitializeNotificationClient creates the ntfy client described by cfg.
func InitializeNotificationClient(cfg *config.Config) *notifications.Client {
	log.Debug().
		Bool("enabled", cfg.NtfyEnabled).
		Str("base_url", cfg.NtfyURL).
		Str("topic", cfg.NtfyTopic).
		Msg("Initializing notification client")

	client := notifications.NewClient(cfg.NtfyURL, cfg.NtfyTopic, cfg.NtfyEnabled)

	if cfg.NtfyEnabled {
		log.Info().Str("topic", cfg.NtfyTopic).Msg("Notifications enabled")
	} else {
		log.Debug().Msg("Notifications disabled")
	}

	return client
}
