// Package processing turns fetched orders into rows for the orders table.
package processing

import (
	"encoding/json"

	"ecwid_order_sync/internal/dates"
	"ecwid_order_sync/internal/ecwid"
	"ecwid_order_sync/internal/options"

	"github.com/rs/zerolog/log"
)

// FlatRow is one (order, line item) pair before sanitization.
type FlatRow struct {
	CreateDate  *string
	OrderNumber json.Number
	ProductName *string
	Category    *string
	Size        *string
	Color       *string
}

// Flattener expands orders into FlatRows.
type Flattener struct {
	dates *dates.Normalizer
}

func NewFlattener(d *dates.Normalizer) *Flattener {
	return &Flattener{dates: d}
}

// Flatten emits one row per line item, or a single row with empty item fields
// when the order has no items.
func (f *Flattener) Flatten(order ecwid.Order) []FlatRow {
	base := FlatRow{CreateDate: f.dates.FormatCreateDate(order.CreateDate)}
	if order.OrderNumber != nil {
		base.OrderNumber = *order.OrderNumber
	}

	if len(order.Items) == 0 {
		return []FlatRow{base}
	}

	rows := make([]FlatRow, 0, len(order.Items))
	for _, item := range order.Items {
		row := base
		row.ProductName = item.Name
		for _, opt := range item.SelectedOptions {
			switch options.Normalize(opt.Name) {
			case options.Color:
				row.Color = opt.Value
			case options.Size:
				row.Size = opt.Value
			case options.Category:
				row.Category = opt.Value
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// FlattenAll flattens orders in input order.
func (f *Flattener) FlattenAll(orders []ecwid.Order) []FlatRow {
	var rows []FlatRow
	for _, order := range orders {
		rows = append(rows, f.Flatten(order)...)
	}
	log.Debug().
		Int("orders", len(orders)).
		Int("rows", len(rows)).
		Msg("Flattened orders")
	return rows
}
