package catalogue

import (
	"html/template"
	"strings"
	"time"

	"github.com/mg-gouda/e-catalogue-for-woocommerce/internal/domain/catalogue"
	infra "github.com/mg-gouda/e-catalogue-for-woocommerce/internal/infrastructure/printing"
	"github.com/microcosm-cc/bluemonday"
)

// richText keeps the formatting markup of stored descriptions and strips
// scripts, event handlers and other active content
var richText = bluemonday.UGCPolicy()

// Markup is one composed logical document ready for the renderer
type Markup struct {
	Title   string
	Head    string
	Content string
	// HeaderHTML and FooterHTML repeat on every body page
	HeaderHTML string
	FooterHTML string
}

// Fragment returns the markup as a renderer fragment
func (m Markup) Fragment() infra.Fragment {
	return infra.Fragment{
		Title:   m.Title,
		Head:    m.Head,
		Content: m.Content,
	}
}

// TemplateComposer renders the cover and listing documents. Both operations
// are pure: identical inputs give byte-identical markup.
type TemplateComposer struct {
	engine *infra.TemplateEngine
}

// NewTemplateComposer creates a new TemplateComposer
func NewTemplateComposer(engine *infra.TemplateEngine) *TemplateComposer {
	return &TemplateComposer{engine: engine}
}

// ComposeCover renders the single cover page. cfg.CoverImageRef must already
// be resolved to a URL or data URI; date is printed in cfg.DateFormat.
func (c *TemplateComposer) ComposeCover(cfg catalogue.RenderConfig, date time.Time) (Markup, error) {
	view := infra.CoverView{
		Theme:      themeOf(cfg),
		Title:      cfg.CoverTitle,
		Date:       formatCoverDate(date, cfg.DateFormat),
		ImageSrc:   template.URL(cfg.CoverImageRef),
		PageHeight: coverHeight(cfg.Layout),
	}

	head, err := c.engine.Execute(infra.TemplateCoverHead, view)
	if err != nil {
		return Markup{}, err
	}
	content, err := c.engine.Execute(infra.TemplateCoverBody, view)
	if err != nil {
		return Markup{}, err
	}

	return Markup{
		Title:   cfg.CoverTitle,
		Head:    head,
		Content: content,
	}, nil
}

// ComposeBody renders the listing, one block per item in the given order.
// An empty item list yields an empty listing container.
func (c *TemplateComposer) ComposeBody(items []catalogue.CatalogItem, cfg catalogue.RenderConfig) (Markup, error) {
	theme := themeOf(cfg)
	view := infra.BodyView{
		Theme: theme,
		Title: cfg.HeaderText,
		Items: make([]infra.ItemView, 0, len(items)),
	}
	for _, item := range items {
		view.Items = append(view.Items, itemView(item, cfg.ContentSelection))
	}

	head, err := c.engine.Execute(infra.TemplateBodyHead, view)
	if err != nil {
		return Markup{}, err
	}
	content, err := c.engine.Execute(infra.TemplateBodyContent, view)
	if err != nil {
		return Markup{}, err
	}

	markup := Markup{
		Title:   cfg.HeaderText,
		Head:    head,
		Content: content,
	}

	if strings.TrimSpace(cfg.HeaderText) != "" {
		markup.HeaderHTML, err = c.engine.Execute(infra.TemplateHeaderBand, infra.BandView{Theme: theme, Text: cfg.HeaderText})
		if err != nil {
			return Markup{}, err
		}
	}
	if strings.TrimSpace(cfg.FooterText) != "" {
		markup.FooterHTML, err = c.engine.Execute(infra.TemplateFooterBand, infra.BandView{Theme: theme, Text: cfg.FooterText})
		if err != nil {
			return Markup{}, err
		}
	}

	return markup, nil
}

// itemView re-applies the content selection so an item built elsewhere can
// never leak a deselected field into the document
func itemView(item catalogue.CatalogItem, sel catalogue.ContentSelection) infra.ItemView {
	v := infra.ItemView{
		ID:       item.ID,
		Name:     item.Name,
		Price:    item.Price,
		ImageSrc: template.URL(item.ImageRef),
	}
	if sel.Has(catalogue.FieldSKU) {
		v.SKU = item.SKU
	}
	if sel.Has(catalogue.FieldCategories) {
		v.Categories = item.Categories
	}
	if sel.Has(catalogue.FieldShortDescription) {
		v.ShortDescription = template.HTML(richText.Sanitize(item.ShortDescription))
	}
	if sel.Has(catalogue.FieldLongDescription) {
		v.LongDescription = template.HTML(richText.Sanitize(item.LongDescription))
	}
	return v
}

func themeOf(cfg catalogue.RenderConfig) infra.Theme {
	return infra.Theme{
		FontFamily:     cssFontFamily(cfg.FontFamily),
		BaseFontSize:   cfg.BaseFontSize,
		PrimaryColor:   cfg.PrimaryColor,
		SecondaryColor: cfg.SecondaryColor,
	}
}

// cssFontFamily keeps the characters a bare font-family list needs.
// Quoted family names lose their quotes, which CSS accepts for
// space-separated identifiers.
func cssFontFamily(family string) string {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == ' ', r == ',', r == '-', r == '_':
			return r
		}
		return -1
	}, family)
	clean = strings.Join(strings.Fields(clean), " ")
	if clean == "" {
		return catalogue.DefaultFontFamily
	}
	return clean
}

func formatCoverDate(date time.Time, layout string) string {
	if date.IsZero() {
		return ""
	}
	if layout == "" {
		layout = catalogue.DefaultDateFormat
	}
	return date.Format(layout)
}

// coverHeight returns the printable page height in millimeters, one
// millimeter short so rounding never spills the cover onto a second page
func coverHeight(layout catalogue.Layout) int {
	width, height := layout.PaperSize.Dimensions()
	if layout.Orientation == catalogue.OrientationLandscape {
		height = width
	}
	margins := effectiveMargins(layout)
	return max(height-margins.Top-margins.Bottom-1, 1)
}

// effectiveMargins substitutes the default margins for an unset layout
func effectiveMargins(layout catalogue.Layout) catalogue.Margins {
	if layout.Margins.IsZero() {
		return catalogue.DefaultMargins()
	}
	return layout.Margins
}
