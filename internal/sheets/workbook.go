package sheets

import (
	"context"
	"errors"
	"fmt"

	"ecwid_order_sync/internal/config"
	"ecwid_order_sync/internal/retry"

	"github.com/rs/zerolog/log"
)

// LogHeaders label the audit table.
var LogHeaders = []string{"Timestamp (Local Time)", "Timestamp (UTC)", "Description"}

// API is the subset of Client a Workbook needs.
type API interface {
	FindSpreadsheet(ctx context.Context, title string) (string, error)
	CreateSpreadsheet(ctx context.Context, title string) (string, error)
	SheetTitles(ctx context.Context, spreadsheetID string) ([]string, error)
	AddSheet(ctx context.Context, spreadsheetID, title string, columns int) error
	UpdateRange(ctx context.Context, spreadsheetID, range_ string, values [][]interface{}) error
	ReadColumn(ctx context.Context, spreadsheetID, sheetName string, column int) ([]string, error)
	AppendRows(ctx context.Context, spreadsheetID, range_ string, rows [][]interface{}) error
}

// LogEntry is one audit row.
type LogEntry struct {
	Local       string
	UTC         string
	Description string
}

func (e LogEntry) Values() []interface{} {
	return []interface{}{e.Local, e.UTC, e.Description}
}

// WorkbookConfig names the spreadsheet and its two tables.
type WorkbookConfig struct {
	SpreadsheetID string
	Name          string
	OrdersTable   string
	OrdersHeaders []string
	OrderColumn   int
	LogTable      string
}

// Workbook is the sync destination: an append-only orders table plus an audit log.
type Workbook struct {
	api        API
	id         string
	cfg        WorkbookConfig
	resilience config.ResilienceConfig
}

// OpenWorkbook resolves the spreadsheet and creates any missing table with its
// header row.
func OpenWorkbook(ctx context.Context, api API, cfg WorkbookConfig, resilience config.ResilienceConfig) (*Workbook, error) {
	if cfg.OrderColumn < 1 {
		return nil, errors.New("order number column must be 1-indexed")
	}
	w := &Workbook{api: api, cfg: cfg, resilience: resilience}

	id, err := w.resolveSpreadsheet(ctx)
	if err != nil {
		return nil, err
	}
	w.id = id

	if err := w.ensureTables(ctx); err != nil {
		return nil, err
	}
	return w, nil
}

// SpreadsheetID returns the resolved spreadsheet.
func (w *Workbook) SpreadsheetID() string {
	return w.id
}

func (w *Workbook) resolveSpreadsheet(ctx context.Context) (string, error) {
	if w.cfg.SpreadsheetID != "" {
		log.Debug().Str("spreadsheet_id", w.cfg.SpreadsheetID).Msg("Using configured spreadsheet")
		return w.cfg.SpreadsheetID, nil
	}

	log.Info().Str("name", w.cfg.Name).Msg("Connecting to spreadsheet")
	id, err := retry.WithRetry(ctx, w.resilience.SheetSetup, func(ctx context.Context) (string, error) {
		return w.api.FindSpreadsheet(ctx, w.cfg.Name)
	})
	if err != nil {
		return "", err
	}
	if id != "" {
		return id, nil
	}

	log.Info().Str("name", w.cfg.Name).Msg("Spreadsheet not found; creating it")
	id, err = w.api.CreateSpreadsheet(ctx, w.cfg.Name)
	if err != nil {
		return "", err
	}
	log.Info().Str("name", w.cfg.Name).Str("spreadsheet_id", id).Msg("Created spreadsheet")
	return id, nil
}

func (w *Workbook) ensureTables(ctx context.Context) error {
	titles, err := retry.WithRetry(ctx, w.resilience.SheetSetup, func(ctx context.Context) ([]string, error) {
		return w.api.SheetTitles(ctx, w.id)
	})
	if err != nil {
		return err
	}
	present := make(map[string]bool, len(titles))
	for _, t := range titles {
		present[t] = true
	}

	tables := []struct {
		name    string
		headers []string
	}{
		{w.cfg.OrdersTable, w.cfg.OrdersHeaders},
		{w.cfg.LogTable, LogHeaders},
	}
	for _, tbl := range tables {
		if present[tbl.name] {
			log.Debug().Str("table", tbl.name).Msg("Found existing table")
			continue
		}
		log.Info().Str("table", tbl.name).Msg("Table not found; creating it")
		if err := w.api.AddSheet(ctx, w.id, tbl.name, len(tbl.headers)); err != nil {
			return err
		}
		header := make([]interface{}, len(tbl.headers))
		for i, h := range tbl.headers {
			header[i] = h
		}
		if err := w.api.UpdateRange(ctx, w.id, QuoteSheetName(tbl.name)+"!A1", [][]interface{}{header}); err != nil {
			return fmt.Errorf("failed to write headers for %q: %w", tbl.name, err)
		}
		log.Info().Str("table", tbl.name).Msg("Created table with headers")
	}
	return nil
}

// ReadOrderNumbers returns the order number column below the header row.
func (w *Workbook) ReadOrderNumbers(ctx context.Context) ([]string, error) {
	values, err := retry.WithRetry(ctx, w.resilience.SheetRead, func(ctx context.Context) ([]string, error) {
		return w.api.ReadColumn(ctx, w.id, w.cfg.OrdersTable, w.cfg.OrderColumn)
	})
	if err != nil {
		return nil, err
	}
	if len(values) <= 1 {
		return nil, nil
	}
	log.Debug().Int("values", len(values)-1).Msg("Read existing order numbers")
	return values[1:], nil
}

// AppendOrderRows appends rows once; a failed append is not retried because the
// write may have landed.
func (w *Workbook) AppendOrderRows(ctx context.Context, rows [][]interface{}) error {
	if len(rows) == 0 {
		return nil
	}
	return w.api.AppendRows(ctx, w.id, QuoteSheetName(w.cfg.OrdersTable)+"!A1", rows)
}

func (w *Workbook) AppendLogEntry(ctx context.Context, entry LogEntry) error {
	return w.api.AppendRows(ctx, w.id, QuoteSheetName(w.cfg.LogTable)+"!A1", [][]interface{}{entry.Values()})
}

// OrdersTable returns the orders table name.
func (w *Workbook) OrdersTable() string {
	return w.cfg.OrdersTable
}
