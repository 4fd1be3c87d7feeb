package printing

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"maps"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/mg-gouda/e-catalogue-for-woocommerce/internal/domain/catalogue"
)

//go:embed templates/*.html
var templateFS embed.FS

// Template names defined by the embedded catalogue templates
const (
	TemplateCoverHead   = "cover_head"
	TemplateCoverBody   = "cover_content"
	TemplateBodyHead    = "body_head"
	TemplateBodyContent = "body_content"
	TemplateHeaderBand  = "header_band"
	TemplateFooterBand  = "footer_band"
)

// TemplateEngine renders the catalogue templates with html/template.
// Templates are parsed once at construction, so rendering is a pure
// function of its inputs.
type TemplateEngine struct {
	funcMap   template.FuncMap
	templates *template.Template
	source    fs.FS
	patterns  []string
}

// TemplateEngineOption configures the template engine
type TemplateEngineOption func(*TemplateEngine)

// WithTemplateFS overrides the embedded templates, e.g. with os.DirFS for a
// theme directory. Every template name above must still be defined.
func WithTemplateFS(source fs.FS, patterns ...string) TemplateEngineOption {
	return func(e *TemplateEngine) {
		e.source = source
		if len(patterns) > 0 {
			e.patterns = patterns
		}
	}
}

// WithFuncs adds template functions
func WithFuncs(funcs template.FuncMap) TemplateEngineOption {
	return func(e *TemplateEngine) {
		maps.Copy(e.funcMap, funcs)
	}
}

// NewTemplateEngine creates a template engine and parses its templates
func NewTemplateEngine(opts ...TemplateEngineOption) (*TemplateEngine, error) {
	e := &TemplateEngine{
		source:   templateFS,
		patterns: []string{"templates/*.html"},
	}

	e.funcMap = template.FuncMap{
		// Formatting
		"formatDate": formatDate,
		"scalePx":    scalePx,
		"mm":         mm,

		// String utilities
		"trim":    strings.TrimSpace,
		"default": defaultString,

		// Safe content
		"safeHTML":   safeHTML,
		"safeURL":    safeURL,
		"pageTokens": pageTokens,
	}

	for _, opt := range opts {
		opt(e)
	}

	tmpl, err := template.New("catalogue").Funcs(e.funcMap).ParseFS(e.source, e.patterns...)
	if err != nil {
		return nil, NewRenderError(ErrCodeInvalidHTML, "failed to parse templates", err)
	}
	for _, name := range []string{TemplateCoverHead, TemplateCoverBody, TemplateBodyHead, TemplateBodyContent, TemplateHeaderBand, TemplateFooterBand} {
		if tmpl.Lookup(name) == nil {
			return nil, NewRenderError(ErrCodeInvalidHTML, fmt.Sprintf("template %q is not defined", name), nil)
		}
	}
	e.templates = tmpl

	return e, nil
}

// Execute renders a named template
func (e *TemplateEngine) Execute(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := e.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", NewRenderError(ErrCodeRenderFailed, "failed to execute template "+name, err)
	}
	return buf.String(), nil
}

// GetFuncMap returns a copy of the template function map
func (e *TemplateEngine) GetFuncMap() template.FuncMap {
	funcMap := make(template.FuncMap, len(e.funcMap))
	maps.Copy(funcMap, e.funcMap)
	return funcMap
}

// =============================================================================
// Template Functions - Formatting
// =============================================================================

// formatDate formats a time with a Go layout, defaulting to a long date
// Example: 2026-03-09 -> "March 9, 2026"
func formatDate(t time.Time, layout string) string {
	if t.IsZero() {
		return ""
	}
	if layout == "" {
		layout = "January 2, 2006"
	}
	return t.Format(layout)
}

// scalePx scales a base font size and returns a CSS pixel length
// Example: scalePx 12 1.5 -> "18px"
func scalePx(base int, factor float64) string {
	v := math.Round(float64(base)*factor*100) / 100
	return strconv.FormatFloat(v, 'f', -1, 64) + "px"
}

// mm returns a CSS millimetre length
func mm(v int) string {
	return strconv.Itoa(v) + "mm"
}

func defaultString(def, val string) string {
	if strings.TrimSpace(val) == "" {
		return def
	}
	return val
}

// =============================================================================
// Template Functions - Safe Content
//
// Only use with content that has already been sanitized or generated by the
// service itself (stored rich-text descriptions, resolved image sources).
// =============================================================================

// safeHTML marks a string as safe HTML, bypassing automatic escaping
func safeHTML(s string) template.HTML {
	return template.HTML(s)
}

// safeURL marks a string as a safe URL, allowing data: image sources
func safeURL(s string) template.URL {
	return template.URL(s)
}

// pageTokens escapes text and turns the {PAGE_NUM} and {TOTAL_PAGES} tokens
// into elements the renderer fills in during pagination
func pageTokens(text string) template.HTML {
	escaped := template.HTMLEscapeString(text)
	escaped = strings.ReplaceAll(escaped, catalogue.PlaceholderPageNumber, `<span class="pageNumber"></span>`)
	escaped = strings.ReplaceAll(escaped, catalogue.PlaceholderTotalPages, `<span class="totalPages"></span>`)
	return template.HTML(escaped)
}
