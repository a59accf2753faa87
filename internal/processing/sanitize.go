package processing

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// Headers are the orders table column labels, in schema order.
var Headers = []string{
	"ORDER DATETIME",
	"ORDER NO",
	"PRODUCT NAME",
	"PRODUCT CATEGORY",
	"PRODUCT SIZE",
	"PRODUCT COLOUR",
}

// OrderNumberColumn is the 1-indexed position of ORDER NO.
const OrderNumberColumn = 2

// Row is a sanitized FlatRow. A nil field is written as an empty cell.
type Row struct {
	CreateDate  *string
	OrderNumber *int64
	ProductName *string
	Category    *string
	Size        *string
	Color       *string
}

// Values returns the cells in schema order.
func (r Row) Values() []interface{} {
	return []interface{}{
		stringCell(r.CreateDate),
		intCell(r.OrderNumber),
		stringCell(r.ProductName),
		stringCell(r.Category),
		stringCell(r.Size),
		stringCell(r.Color),
	}
}

func stringCell(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func intCell(n *int64) interface{} {
	if n == nil {
		return nil
	}
	return *n
}

// Sanitize coerces rows into cell-safe values and orders them by ascending order
// number. Rows whose order number cannot be coerced keep their relative order at
// the end.
func Sanitize(rows []FlatRow) []Row {
	out := make([]Row, 0, len(rows))
	for _, fr := range rows {
		out = append(out, Row{
			CreateDate:  fr.CreateDate,
			OrderNumber: coerceInt(string(fr.OrderNumber)),
			ProductName: fr.ProductName,
			Category:    fr.Category,
			Size:        fr.Size,
			Color:       fr.Color,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].OrderNumber, out[j].OrderNumber
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a < *b
		}
	})
	return out
}

// coerceInt parses s as an integer. Integral floats are accepted; NaN, infinities,
// fractions and garbage yield nil.
func coerceInt(s string) *int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return &n
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return nil
	}
	if f >= math.MaxInt64 || f < math.MinInt64 {
		return nil
	}
	n := int64(f)
	return &n
}

// CellRows converts sanitized rows into the [][]interface{} the sheets client writes.
func CellRows(rows []Row) [][]interface{} {
	cells := make([][]interface{}, 0, len(rows))
	for _, r := range rows {
		cells = append(cells, r.Values())
	}
	return cells
}
