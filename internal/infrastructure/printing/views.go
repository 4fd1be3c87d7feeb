package printing

import "html/template"

// Theme carries the typography and colors shared by every template
type Theme struct {
	FontFamily     string
	BaseFontSize   int
	PrimaryColor   string
	SecondaryColor string
}

// CoverView is the data for the cover templates
type CoverView struct {
	Theme
	Title    string
	Date     string
	ImageSrc template.URL
	// PageHeight is the printable cover height in millimeters
	PageHeight int
}

// ItemView is one listing block. Empty optional fields are not rendered.
type ItemView struct {
	ID               int64
	Name             string
	Price            string
	SKU              string
	Categories       string
	ShortDescription template.HTML
	LongDescription  template.HTML
	ImageSrc         template.URL
}

// BodyView is the data for the listing templates
type BodyView struct {
	Theme
	Title string
	Items []ItemView
}

// BandView is the data for the repeating header and footer bands
type BandView struct {
	Theme
	Text string
}
