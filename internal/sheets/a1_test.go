package sheets

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestColumnLetter(t *testing.T) {
	tests := map[int]string{0: "", 1: "A", 2: "B", 26: "Z", 27: "AA", 52: "AZ", 53: "BA", 702: "ZZ", 703: "AAA"}
	for in, want := range tests {
		assert.Equal(t, want, ColumnLetter(in), "column %d", in)
	}
}

func TestQuoteSheetName(t *testing.T) {
	assert.Equal(t, "'Orders Data'", QuoteSheetName("Orders Data"))
	assert.Equal(t, "'Bob''s Orders'", QuoteSheetName("Bob's Orders"))
}

func TestEscapeDriveQuery(t *testing.T) {
	assert.Equal(t, `Bob\'s \\ Data`, escapeDriveQuery(`Bob's \ Data`))
}
