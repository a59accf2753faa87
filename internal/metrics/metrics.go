// Package metrics records per-run gauges on a private registry and pushes them
// to a Prometheus Pushgateway.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// JobName is the Pushgateway job label.
const JobName = "ecwid_order_sync"

// RunStats is what a single sync run reports.
type RunStats struct {
	Mode          string
	Watermark     int64
	OrdersFetched int
	RowsAppended  int
	Pages         int
	FetchFailed   bool
	LogFailed     bool
	Succeeded     bool
	Duration      time.Duration
	FinishedAt    time.Time
}

type Registry struct {
	reg           *prometheus.Registry
	pushURL       string
	storeID       string
	OrdersFetched prometheus.Gauge
	RowsAppended  prometheus.Gauge
	PagesFetched  prometheus.Gauge
	FetchFailed   prometheus.Gauge
	LogFailed     prometheus.Gauge
	Watermark     prometheus.Gauge
	DurationSec   prometheus.Gauge
	LastSuccess   prometheus.Gauge
	Mode          *prometheus.GaugeVec
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	fetched := prometheus.NewGauge(prometheus.GaugeOpts{Name: "ecwid_sync_orders_fetched", Help: "Orders accepted from Ecwid in the last run."})
	appended := prometheus.NewGauge(prometheus.GaugeOpts{Name: "ecwid_sync_rows_appended", Help: "Rows appended to the orders table in the last run."})
	pages := prometheus.NewGauge(prometheus.GaugeOpts{Name: "ecwid_sync_pages_fetched", Help: "Order pages requested in the last run."})
	fetchFailed := prometheus.NewGauge(prometheus.GaugeOpts{Name: "ecwid_sync_fetch_failed", Help: "1 if the last fetch was abandoned."})
	logFailed := prometheus.NewGauge(prometheus.GaugeOpts{Name: "ecwid_sync_log_failed", Help: "1 if the last log entry could not be written."})
	watermark := prometheus.NewGauge(prometheus.GaugeOpts{Name: "ecwid_sync_watermark", Help: "Highest order number present before the last run."})
	duration := prometheus.NewGauge(prometheus.GaugeOpts{Name: "ecwid_sync_duration_seconds", Help: "Wall time of the last run."})
	lastSuccess := prometheus.NewGauge(prometheus.GaugeOpts{Name: "ecwid_sync_last_success_timestamp_seconds", Help: "Unix time of the last completed run."})
	mode := prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: "ecwid_sync_mode", Help: "1 for the mode used by the last run."}, []string{"mode"})

	r.MustRegister(fetched, appended, pages, fetchFailed, logFailed, watermark, duration, lastSuccess, mode)
	return &Registry{
		reg:           r,
		OrdersFetched: fetched,
		RowsAppended:  appended,
		PagesFetched:  pages,
		FetchFailed:   fetchFailed,
		LogFailed:     logFailed,
		Watermark:     watermark,
		DurationSec:   duration,
		LastSuccess:   lastSuccess,
		Mode:          mode,
	}
}

// WithPushTarget sets the Pushgateway URL and the store grouping label. An empty
// URL disables Push.
func (r *Registry) WithPushTarget(url, storeID string) *Registry {
	r.pushURL = url
	r.storeID = storeID
	return r
}

func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }

func (r *Registry) Observe(s RunStats) {
	r.OrdersFetched.Set(float64(s.OrdersFetched))
	r.RowsAppended.Set(float64(s.RowsAppended))
	r.PagesFetched.Set(float64(s.Pages))
	r.FetchFailed.Set(boolGauge(s.FetchFailed))
	r.LogFailed.Set(boolGauge(s.LogFailed))
	r.Watermark.Set(float64(s.Watermark))
	r.DurationSec.Set(s.Duration.Seconds())
	r.Mode.Reset()
	if s.Mode != "" {
		r.Mode.WithLabelValues(s.Mode).Set(1)
	}
	if s.Succeeded {
		r.LastSuccess.Set(float64(s.FinishedAt.Unix()))
	}
}

// Push replaces this store's group on the Pushgateway.
func (r *Registry) Push(ctx context.Context) error {
	if r.pushURL == "" {
		return nil
	}
	p := push.New(r.pushURL, JobName).Gatherer(r.reg)
	if r.storeID != "" {
		p = p.Grouping("store", r.storeID)
	}
	if err := p.PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", r.pushURL, err)
	}
	return nil
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
