// Package orchestrator runs one sync pass: fetch, flatten, sanitize, append and
// log.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ecwid_order_sync/internal/dates"
	"ecwid_order_sync/internal/fetch"
	"ecwid_order_sync/internal/metrics"
	"ecwid_order_sync/internal/notifications"
	"ecwid_order_sync/internal/processing"
	"ecwid_order_sync/internal/sheets"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Fetcher produces the orders to write.
type Fetcher interface {
	Fetch(ctx context.Context) fetch.Result
}

// Destination is the append-only side of the sync.
type Destination interface {
	AppendOrderRows(ctx context.Context, rows [][]interface{}) error
	AppendLogEntry(ctx context.Context, entry sheets.LogEntry) error
	OrdersTable() string
}

type Notifier interface {
	NotifySyncResult(ctx context.Context, s notifications.Summary)
}

type MetricsSink interface {
	Observe(s metrics.RunStats)
	Push(ctx context.Context) error
}

// Report summarises a run.
type Report struct {
	RunID         string
	Mode          fetch.Mode
	Watermark     int64
	OrdersFetched int
	Pages         int
	RowsPrepared  int
	RowsAppended  int
	FetchErr      error
	LogErr        error
	DryRun        bool
	Duration      time.Duration
}

type Syncer struct {
	fetcher   Fetcher
	flattener *processing.Flattener
	dest      Destination
	dates     *dates.Normalizer
	notifier  Notifier
	metrics   MetricsSink
	dryRun    bool
	runID     string
	now       func() time.Time
}

func NewSyncer(fetcher Fetcher, flattener *processing.Flattener, dest Destination, d *dates.Normalizer) *Syncer {
	return &Syncer{
		fetcher:   fetcher,
		flattener: flattener,
		dest:      dest,
		dates:     d,
		now:       time.Now,
	}
}

func (s *Syncer) WithNotifier(n Notifier) *Syncer {
	s.notifier = n
	return s
}

func (s *Syncer) WithMetrics(m MetricsSink) *Syncer {
	s.metrics = m
	return s
}

// WithDryRun skips both the row and the log append.
func (s *Syncer) WithDryRun(on bool) *Syncer {
	s.dryRun = on
	return s
}

// WithRunID fixes the run identifier. A random UUID is used otherwise.
func (s *Syncer) WithRunID(id string) *Syncer {
	s.runID = id
	return s
}

func (s *Syncer) WithClock(now func() time.Time) *Syncer {
	s.now = now
	return s
}

// Run executes one pass. A failed row append or a cancelled context is returned
// as an error; fetch and log failures are recorded on the Report.
func (s *Syncer) Run(ctx context.Context) (*Report, error) {
	start := s.now()
	report := &Report{RunID: s.runID, DryRun: s.dryRun}
	if report.RunID == "" {
		report.RunID = uuid.NewString()
	}

	res := s.fetcher.Fetch(ctx)
	report.Mode = res.Mode
	report.Watermark = res.Watermark
	report.OrdersFetched = len(res.Orders)
	report.Pages = res.Pages
	report.FetchErr = res.Err
	if err := cancelled(ctx, res.Err); err != nil {
		report.Duration = s.now().Sub(start)
		log.Warn().Err(err).Msg("Sync run cancelled, nothing written")
		return report, fmt.Errorf("sync run cancelled: %w", err)
	}
	if res.Failed() {
		log.Error().Err(res.Err).Str("mode", res.Mode.String()).Msg("Fetch failed, continuing with no orders")
	}

	rows := processing.Sanitize(s.flattener.FlattenAll(res.Orders))
	report.RowsPrepared = len(rows)
	log.Info().
		Str("mode", res.Mode.String()).
		Int64("watermark", res.Watermark).
		Int("orders", report.OrdersFetched).
		Int("rows", len(rows)).
		Msg("Prepared rows")

	if len(rows) > 0 {
		if s.dryRun {
			log.Info().Int("rows", len(rows)).Msg("Dry run, not appending rows")
		} else {
			if err := s.dest.AppendOrderRows(ctx, processing.CellRows(rows)); err != nil {
				report.Duration = s.now().Sub(start)
				s.record(ctx, report, false)
				return report, fmt.Errorf("append %d rows to %q: %w", len(rows), s.dest.OrdersTable(), err)
			}
			report.RowsAppended = len(rows)
			log.Info().Int("rows", len(rows)).Str("table", s.dest.OrdersTable()).Msg("Appended rows")
		}
	}

	entry := s.logEntry(report.RowsAppended)
	if s.dryRun {
		log.Info().Str("description", entry.Description).Msg("Dry run, not writing log entry")
	} else if err := s.dest.AppendLogEntry(ctx, entry); err != nil {
		report.LogErr = err
		log.Error().Err(err).Msg("Failed to write update log entry")
	}

	if s.notifier != nil && report.RowsAppended > 0 {
		s.notifier.NotifySyncResult(ctx, summarize(report, rows, s.dest.OrdersTable()))
	}

	report.Duration = s.now().Sub(start)
	s.record(ctx, report, true)

	log.Info().
		Int("rows_appended", report.RowsAppended).
		Bool("fetch_failed", report.FetchErr != nil).
		Bool("log_failed", report.LogErr != nil).
		Dur("duration", report.Duration).
		Msg("Sync run completed")
	return report, nil
}

// cancelled reports the context error when the run was interrupted, either
// directly or through the fetch.
func cancelled(ctx context.Context, fetchErr error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if errors.Is(fetchErr, context.Canceled) {
		return fetchErr
	}
	return nil
}

func (s *Syncer) logEntry(appended int) sheets.LogEntry {
	now := s.now()
	return sheets.LogEntry{
		Local:       s.dates.FormatLogTimestamp(now),
		UTC:         dates.FormatUTCTimestamp(now),
		Description: LogMessage(appended, s.dest.OrdersTable()),
	}
}

// LogMessage is the description written to the update log.
func LogMessage(appended int, table string) string {
	return fmt.Sprintf("Incremental update completed. Added %d new records to '%s'.", appended, table)
}

func (s *Syncer) record(ctx context.Context, report *Report, completed bool) {
	if s.metrics == nil {
		return
	}
	var mode string
	if report.Mode != fetch.ModeUnknown {
		mode = report.Mode.String()
	}
	s.metrics.Observe(metrics.RunStats{
		Mode:          mode,
		Watermark:     report.Watermark,
		OrdersFetched: report.OrdersFetched,
		RowsAppended:  report.RowsAppended,
		Pages:         report.Pages,
		FetchFailed:   report.FetchErr != nil,
		LogFailed:     report.LogErr != nil,
		Succeeded:     completed,
		Duration:      report.Duration,
		FinishedAt:    s.now(),
	})
	if err := s.metrics.Push(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to push metrics")
	}
}

func summarize(report *Report, rows []processing.Row, table string) notifications.Summary {
	sum := notifications.Summary{
		RowsAppended: report.RowsAppended,
		OrdersTable:  table,
		Mode:         report.Mode.String(),
	}
	for _, r := range rows {
		if r.OrderNumber == nil {
			continue
		}
		if sum.FirstOrder == 0 {
			sum.FirstOrder = *r.OrderNumber
		}
		sum.LastOrder = *r.OrderNumber
	}
	return sum
}
