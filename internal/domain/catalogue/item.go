package catalogue

import "strings"

// ProductRecord is an item as supplied by the Catalog Source, with every
// display field populated as stored
type ProductRecord struct {
	ID               int64
	Name             string
	Price            string // pre-formatted, currency-aware
	SKU              string
	Categories       []string
	CategoryIDs      []int64
	ShortDescription string // sanitized rich text
	LongDescription  string // sanitized rich text
	ImageRef         string
}

// CategoryLabel returns the category names joined for display
func (r ProductRecord) CategoryLabel() string {
	return strings.Join(r.Categories, ", ")
}

// CatalogItem is the read-only projection of one item for a single
// document. Optional fields are empty when unset.
type CatalogItem struct {
	ID               int64
	Name             string
	Price            string
	SKU              string
	Categories       string
	ShortDescription string
	LongDescription  string
	ImageRef         string
}
