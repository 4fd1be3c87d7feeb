package catalogue

import (
	"fmt"
	"regexp"
	"strings"
)

// Footer placeholders replaced by the renderer during pagination
const (
	PlaceholderPageNumber = "{PAGE_NUM}"
	PlaceholderTotalPages = "{TOTAL_PAGES}"
)

// Setting defaults
const (
	DefaultFontFamily     = "DejaVu Sans, sans-serif"
	DefaultBaseFontSize   = 12
	DefaultPrimaryColor   = "#333333"
	DefaultSecondaryColor = "#666666"
	DefaultCoverTitle     = "Product Catalog"
	DefaultHeaderText     = "Product Catalog"
	DefaultFooterText     = "Page " + PlaceholderPageNumber + " of " + PlaceholderTotalPages
	DefaultDateFormat     = "January 2, 2006"
	DefaultFilenamePrefix = "woocommerce-catalog"
	DefaultEmailSubject   = "Product Catalog for %s"
	DefaultEmailMessage   = "Please find attached the product catalog."
	DefaultSubjectName    = "Selected Product(s)"
)

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// RenderConfig is an immutable snapshot of the catalogue settings taken at
// request time. It is passed explicitly through every pipeline stage.
type RenderConfig struct {
	FontFamily       string
	BaseFontSize     int
	PrimaryColor     string
	SecondaryColor   string
	CoverTitle       string
	CoverImageRef    string
	HeaderText       string
	FooterText       string
	ContentSelection ContentSelection
	DateFormat       string
	Layout           Layout
	FilenamePrefix   string
	EmailSubject     string // format string taking the subject name
	EmailMessage     string
	Buttons          ButtonPolicy
}

// DefaultRenderConfig returns the out-of-the-box settings
func DefaultRenderConfig() RenderConfig {
	return RenderConfig{
		FontFamily:       DefaultFontFamily,
		BaseFontSize:     DefaultBaseFontSize,
		PrimaryColor:     DefaultPrimaryColor,
		SecondaryColor:   DefaultSecondaryColor,
		CoverTitle:       DefaultCoverTitle,
		HeaderText:       DefaultHeaderText,
		FooterText:       DefaultFooterText,
		ContentSelection: NewContentSelection(FieldSKU, FieldShortDescription),
		DateFormat:       DefaultDateFormat,
		Layout:           DefaultLayout(),
		FilenamePrefix:   DefaultFilenamePrefix,
		EmailSubject:     DefaultEmailSubject,
		EmailMessage:     DefaultEmailMessage,
		Buttons:          DefaultButtonPolicy(),
	}
}

// WithDefaults fills blank settings with their defaults
func (c RenderConfig) WithDefaults() RenderConfig {
	d := DefaultRenderConfig()
	if strings.TrimSpace(c.FontFamily) == "" {
		c.FontFamily = d.FontFamily
	}
	if c.BaseFontSize <= 0 {
		c.BaseFontSize = d.BaseFontSize
	}
	if c.PrimaryColor == "" {
		c.PrimaryColor = d.PrimaryColor
	}
	if c.SecondaryColor == "" {
		c.SecondaryColor = d.SecondaryColor
	}
	if c.DateFormat == "" {
		c.DateFormat = d.DateFormat
	}
	if c.Layout.PaperSize == "" {
		c.Layout.PaperSize = d.Layout.PaperSize
	}
	if c.Layout.Orientation == "" {
		c.Layout.Orientation = d.Layout.Orientation
	}
	if c.FilenamePrefix == "" {
		c.FilenamePrefix = d.FilenamePrefix
	}
	if c.EmailSubject == "" {
		c.EmailSubject = d.EmailSubject
	}
	if c.EmailMessage == "" {
		c.EmailMessage = d.EmailMessage
	}
	c.Buttons = c.Buttons.WithDefaults()
	return c
}

// Validate checks the values the renderer cannot recover from
func (c RenderConfig) Validate() error {
	if c.BaseFontSize <= 0 || c.BaseFontSize > 72 {
		return fmt.Errorf("base font size must be between 1 and 72, got %d", c.BaseFontSize)
	}
	if !hexColor.MatchString(c.PrimaryColor) {
		return fmt.Errorf("invalid primary color %q", c.PrimaryColor)
	}
	if !hexColor.MatchString(c.SecondaryColor) {
		return fmt.Errorf("invalid secondary color %q", c.SecondaryColor)
	}
	if !c.Layout.PaperSize.IsValid() {
		return fmt.Errorf("invalid paper size %q", c.Layout.PaperSize)
	}
	if !c.Layout.Orientation.IsValid() {
		return fmt.Errorf("invalid orientation %q", c.Layout.Orientation)
	}
	if _, err := NewMargins(c.Layout.Margins.Top, c.Layout.Margins.Right, c.Layout.Margins.Bottom, c.Layout.Margins.Left); err != nil {
		return err
	}
	if strings.ContainsAny(c.FilenamePrefix, `/\`) {
		return fmt.Errorf("filename prefix must not contain path separators")
	}
	return nil
}

// SubjectFor returns the default email subject for a named product, or for
// an anonymous selection when name is blank
func (c RenderConfig) SubjectFor(name string) string {
	if strings.TrimSpace(name) == "" {
		name = DefaultSubjectName
	}
	if !strings.Contains(c.EmailSubject, "%s") {
		return c.EmailSubject
	}
	return fmt.Sprintf(c.EmailSubject, name)
}
