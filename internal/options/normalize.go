// Package options maps free-text product option labels onto a small set of
// canonical keys.
package options

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Canonical option keys.
const (
	Color            = "color"
	Size             = "size"
	Category         = "category"
	DesignerCategory = "designer_category"
	Thickness        = "thickness"
)

type rule struct {
	key      string
	keywords []string
}

// rules are checked in order. The keyword lists carry the misspellings seen in
// the store's product catalogue.
var rules = []rule{
	{Color, []string{"color", "colour", "coloue", "colours", "cours"}},
	{Size, []string{"size", "sizing", "sizs"}},
	{Category, []string{"category", "caregory", "categories", "catgory"}},
	{DesignerCategory, []string{"designer"}},
	{Thickness, []string{"thickness"}},
}

// Normalize returns the canonical key for an option label. Labels that match no
// rule are lower-cased with spaces replaced by underscores.
func Normalize(name string) string {
	folded := cases.Lower(language.Und).String(norm.NFKC.String(name))
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(folded, kw) {
				return r.key
			}
		}
	}
	return strings.ReplaceAll(folded, " ", "_")
}
