// Package dates parses the handful of date layouts the Ecwid API emits and renders
// them in the store's local civil timezone.
package dates

import (
	"fmt"
	"time"
	_ "time/tzdata" // embedded zone database for minimal container images
)

const (
	// DefaultZone is the civil timezone the store reports in.
	DefaultZone = "Africa/Lagos"

	// RowLayout is the create_date format written to the orders table.
	RowLayout = "02-01-2006 15:04:05"

	// LogLayout renders zone abbreviation followed by the numeric offset, e.g. "WAT+0100".
	LogLayout = "2006-01-02 15:04:05 MST-0700"
)

// sourceLayouts are tried in order; the first that parses wins.
var sourceLayouts = []string{
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05 -07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Normalizer converts source timestamps into a fixed target zone.
type Normalizer struct {
	loc *time.Location
}

// NewNormalizer loads the named IANA zone. An empty name selects DefaultZone.
func NewNormalizer(zone string) (*Normalizer, error) {
	if zone == "" {
		zone = DefaultZone
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", zone, err)
	}
	return &Normalizer{loc: loc}, nil
}

// Location returns the target zone.
func (n *Normalizer) Location() *time.Location {
	return n.loc
}

// Parse returns raw as an instant in the target zone. Layouts without an offset are
// read as UTC. It reports false for empty or unrecognised input.
func (n *Normalizer) Parse(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range sourceLayouts {
		t, err := time.ParseInLocation(layout, raw, time.UTC)
		if err != nil {
			continue
		}
		return t.In(n.loc), true
	}
	return time.Time{}, false
}

// FormatCreateDate renders raw with RowLayout. Unparsable values are passed through
// untouched and nil stays nil.
func (n *Normalizer) FormatCreateDate(raw *string) *string {
	if raw == nil {
		return nil
	}
	t, ok := n.Parse(*raw)
	if !ok {
		v := *raw
		return &v
	}
	s := t.Format(RowLayout)
	return &s
}

// FormatLogTimestamp renders t in the target zone with LogLayout.
func (n *Normalizer) FormatLogTimestamp(t time.Time) string {
	return t.In(n.loc).Format(LogLayout)
}

// FormatUTCTimestamp renders t in UTC with LogLayout.
func FormatUTCTimestamp(t time.Time) string {
	return t.UTC().Format(LogLayout)
}
