package sheets

import "strings"

// ColumnLetter converts a 1-indexed column number to its A1 letters.
func ColumnLetter(column int) string {
	if column < 1 {
		return ""
	}
	var b []byte
	for column > 0 {
		column--
		b = append([]byte{byte('A' + column%26)}, b...)
		column /= 26
	}
	return string(b)
}

// QuoteSheetName wraps a sheet title for use in an A1 range.
func QuoteSheetName(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
