package processing

import (
	"encoding/json"
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func orderNumbers(rows []Row) []interface{} {
	var out []interface{}
	for _, r := range rows {
		out = append(out, intCell(r.OrderNumber))
	}
	return out
}

func TestSanitize_SortsByOrderNumber(t *testing.T) {
	rows := Sanitize([]FlatRow{
		{OrderNumber: "105"},
		{OrderNumber: "103"},
		{OrderNumber: "107"},
	})
	assert.Equal(t, []interface{}{int64(103), int64(105), int64(107)}, orderNumbers(rows))
}

func TestSanitize_NumericSortNotLexical(t *testing.T) {
	rows := Sanitize([]FlatRow{{OrderNumber: "1000"}, {OrderNumber: "999"}, {OrderNumber: "20"}})
	assert.Equal(t, []interface{}{int64(20), int64(999), int64(1000)}, orderNumbers(rows))
}

func TestSanitize_UncoercibleSortLastStable(t *testing.T) {
	rows := Sanitize([]FlatRow{
		{OrderNumber: "", ProductName: sp("a")},
		{OrderNumber: "12"},
		{OrderNumber: "NaN", ProductName: sp("b")},
		{OrderNumber: "3"},
	})
	require.Len(t, rows, 4)
	assert.Equal(t, []interface{}{int64(3), int64(12), nil, nil}, orderNumbers(rows))
	assert.Equal(t, "a", *rows[2].ProductName)
	assert.Equal(t, "b", *rows[3].ProductName)
}

func TestCoerceInt(t *testing.T) {
	tests := []struct {
		in   string
		want interface{}
	}{
		{"42", int64(42)},
		{" 42 ", int64(42)},
		{"42.0", int64(42)},
		{"1e3", int64(1000)},
		{"42.5", nil},
		{"NaN", nil},
		{"nan", nil},
		{"Inf", nil},
		{"-Infinity", nil},
		{"", nil},
		{"abc", nil},
		{strconv.FormatFloat(math.MaxFloat64, 'g', -1, 64), nil},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, intCell(coerceInt(tt.in)))
		})
	}
}

func TestRowValues_NullsStayNull(t *testing.T) {
	rows := Sanitize([]FlatRow{{OrderNumber: json.Number("8"), ProductName: nil, Color: sp("Red")}})
	require.Len(t, rows, 1)

	vals := rows[0].Values()
	require.Len(t, vals, len(Headers))
	assert.Nil(t, vals[0])
	assert.Equal(t, int64(8), vals[1])
	assert.Nil(t, vals[2])
	assert.Equal(t, "Red", vals[5])
	for _, v := range vals {
		assert.NotEqual(t, "None", v)
		assert.NotEqual(t, "nan", v)
	}
}

func TestCellRows(t *testing.T) {
	cells := CellRows(Sanitize([]FlatRow{{OrderNumber: "2"}, {OrderNumber: "1"}}))
	require.Len(t, cells, 2)
	assert.Equal(t, int64(1), cells[0][1])
	assert.Equal(t, int64(2), cells[1][1])
}
