// Package fetch decides between a full and an incremental pull of orders and pages
// through the Ecwid orders endpoint accordingly.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"ecwid_order_sync/internal/ecwid"

	"github.com/rs/zerolog/log"
)

const (
	// PageSize is the limit sent with every orders request.
	PageSize = 100

	// DefaultMaxPages stops a source that never returns a short page.
	DefaultMaxPages = 10000
)

// ErrPageLimit is returned when pagination exceeds the configured page ceiling.
var ErrPageLimit = errors.New("page limit reached before the last page")

// Mode is the strategy chosen for a run. ModeUnknown means the destination
// could not be read, so no strategy was chosen.
type Mode int

const (
	ModeUnknown Mode = iota
	ModeFull
	ModeIncremental
)

func (m Mode) String() string {
	switch m {
	case ModeFull:
		return "full"
	case ModeIncremental:
		return "incremental"
	default:
		return "unknown"
	}
}

// OrderLister is the source side of the sync.
type OrderLister interface {
	ListOrders(ctx context.Context, p ecwid.ListParams) (*ecwid.OrdersPage, error)
}

// StateReader returns the order numbers already present in the destination,
// header excluded.
type StateReader interface {
	ReadOrderNumbers(ctx context.Context) ([]string, error)
}

// Result is the outcome of a fetch. When Err is set Orders is always empty.
type Result struct {
	Mode      Mode
	Watermark int64
	Orders    []ecwid.Order
	Pages     int
	Err       error
}

// Failed reports whether the fetch was abandoned.
func (r Result) Failed() bool {
	return r.Err != nil
}

type Fetcher struct {
	source      OrderLister
	state       StateReader
	createdFrom string
	maxPages    int
	fullScan    bool
}

// NewFetcher builds a Fetcher. createdFrom bounds the initial full fetch.
func NewFetcher(source OrderLister, state StateReader, createdFrom string) *Fetcher {
	return &Fetcher{
		source:      source,
		state:       state,
		createdFrom: createdFrom,
		maxPages:    DefaultMaxPages,
	}
}

// WithMaxPages overrides the page ceiling.
func (f *Fetcher) WithMaxPages(n int) *Fetcher {
	if n > 0 {
		f.maxPages = n
	}
	return f
}

// WithFullScan disables the incremental early exit so every page is read until a
// short or empty one. Use it when the source's ascending sort cannot be trusted or
// the watermark lies beyond the first page.
func (f *Fetcher) WithFullScan(on bool) *Fetcher {
	f.fullScan = on
	return f
}

// Fetch reads the destination watermark and pulls every order not yet written.
func (f *Fetcher) Fetch(ctx context.Context) Result {
	existing, err := f.state.ReadOrderNumbers(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to read existing order numbers")
		return Result{Mode: ModeUnknown, Err: fmt.Errorf("failed to read destination state: %w", err)}
	}

	watermark, ok := Watermark(existing)
	if !ok {
		log.Info().
			Int("existing_rows", len(existing)).
			Str("created_from", f.createdFrom).
			Msg("No valid order numbers in destination; performing full fetch")
		return f.fetchFull(ctx)
	}

	log.Info().
		Int("existing_rows", len(existing)).
		Int64("watermark", watermark).
		Msg("Performing incremental fetch")
	return f.fetchIncremental(ctx, watermark)
}

func (f *Fetcher) fetchFull(ctx context.Context) Result {
	res := Result{Mode: ModeFull}
	var all []ecwid.Order

	for offset := 0; ; offset += PageSize {
		if res.Pages >= f.maxPages {
			return failed(res, ErrPageLimit)
		}
		page, err := f.source.ListOrders(ctx, ecwid.ListParams{
			Offset:      offset,
			Limit:       PageSize,
			CreatedFrom: f.createdFrom,
		})
		if err != nil {
			return failed(res, fmt.Errorf("failed to fetch orders at offset %d: %w", offset, err))
		}
		res.Pages++
		all = append(all, page.Items...)

		if len(page.Items) < PageSize {
			break
		}
	}

	res.Orders = all
	log.Info().Int("orders", len(all)).Int("pages", res.Pages).Msg("Fetched orders from initial fetch")
	return res
}

func (f *Fetcher) fetchIncremental(ctx context.Context, watermark int64) Result {
	res := Result{Mode: ModeIncremental, Watermark: watermark}
	var fresh []ecwid.Order

	for offset := 0; ; offset += PageSize {
		if res.Pages >= f.maxPages {
			return failed(res, ErrPageLimit)
		}
		page, err := f.source.ListOrders(ctx, ecwid.ListParams{
			Offset:    offset,
			Limit:     PageSize,
			SortBy:    "orderNumber",
			SortOrder: "asc",
		})
		if err != nil {
			return failed(res, fmt.Errorf("failed to fetch orders at offset %d: %w", offset, err))
		}
		res.Pages++

		if len(page.Items) == 0 {
			break
		}

		above := aboveWatermark(page.Items, watermark)
		fresh = append(fresh, above...)

		log.Debug().
			Int("offset", offset).
			Int("page_items", len(page.Items)).
			Int("new_orders", len(above)).
			Msg("Filtered orders page")

		if len(page.Items) < PageSize {
			break
		}
		// Early exit assumes the source honours sortOrder=asc.
		if len(above) == 0 && !f.fullScan {
			break
		}
	}

	res.Orders = fresh
	log.Info().Int("orders", len(fresh)).Int("pages", res.Pages).Msg("Fetched new orders")
	return res
}

func failed(res Result, err error) Result {
	log.Error().Err(err).Str("mode", res.Mode.String()).Int("pages", res.Pages).Msg("Fetch aborted; continuing with no new orders")
	res.Orders = nil
	res.Err = err
	return res
}

func aboveWatermark(orders []ecwid.Order, watermark int64) []ecwid.Order {
	var out []ecwid.Order
	for _, o := range orders {
		if n, ok := o.Number(); ok && n > watermark {
			out = append(out, o)
		}
	}
	return out
}

// Watermark returns the highest order number among values that are entirely ASCII
// digits and positive. It reports false when there is none.
func Watermark(values []string) (int64, bool) {
	var highest int64
	found := false
	for _, v := range values {
		v = strings.TrimSpace(v)
		if !isDigits(v) {
			continue
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			continue
		}
		if !found || n > highest {
			highest = n
			found = true
		}
	}
	return highest, found
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
