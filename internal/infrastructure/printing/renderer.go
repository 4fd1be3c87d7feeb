package printing

import (
	"bytes"
	"context"
	"html/template"
	"strings"
	"time"

	"github.com/mg-gouda/e-catalogue-for-woocommerce/internal/domain/catalogue"
)

// Fragment is one logical document: head markup (style elements) and body content
type Fragment struct {
	Title   string
	Head    string
	Content string
}

// IsBlank reports whether the fragment has no body content
func (f Fragment) IsBlank() bool {
	return strings.TrimSpace(f.Content) == ""
}

// Document returns the fragment as a standalone HTML document
func (f Fragment) Document() string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	b.WriteString("<meta charset=\"UTF-8\">\n")
	b.WriteString("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	if f.Title != "" {
		b.WriteString("<title>")
		b.WriteString(template.HTMLEscapeString(f.Title))
		b.WriteString("</title>\n")
	}
	if f.Head != "" {
		b.WriteString(f.Head)
		b.WriteString("\n")
	}
	b.WriteString("</head>\n<body>\n")
	b.WriteString(f.Content)
	b.WriteString("\n</body>\n</html>\n")
	return b.String()
}

// RenderRequest contains the parameters for rendering HTML to PDF
type RenderRequest struct {
	// Body is the paginated listing
	Body Fragment
	// Cover is rendered as the single first page, without header or footer (optional)
	Cover *Fragment
	// PaperSize defines the output paper dimensions
	PaperSize catalogue.PaperSize
	// Orientation defines portrait or landscape
	Orientation catalogue.Orientation
	// Margins in millimeters
	Margins catalogue.Margins
	// Title for the PDF document metadata
	Title string
	// HeaderHTML repeats at the top of every body page (optional)
	HeaderHTML string
	// FooterHTML repeats at the bottom of every body page (optional).
	// Elements with class pageNumber or totalPages are filled in by the renderer.
	FooterHTML string
	// EnableLocalFileAccess allows loading local images
	EnableLocalFileAccess bool
	// Timeout overrides the default rendering timeout
	Timeout time.Duration
}

// RenderResult contains the output from PDF rendering
type RenderResult struct {
	// PDFData is the raw PDF file content
	PDFData []byte
	// PageCount is the number of pages in the PDF
	PageCount int
	// RenderDuration is how long the rendering took
	RenderDuration time.Duration
}

// PDFRenderer defines the interface for rendering HTML to PDF
type PDFRenderer interface {
	// Render converts the cover and body into a single PDF document
	Render(ctx context.Context, req *RenderRequest) (*RenderResult, error)
	// Close releases any resources held by the renderer
	Close() error
}

// RenderError represents an error during PDF rendering
type RenderError struct {
	Code    string
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// Error codes for rendering failures
const (
	ErrCodeRenderTimeout    = "RENDER_TIMEOUT"
	ErrCodeRenderFailed     = "RENDER_FAILED"
	ErrCodeInvalidHTML      = "INVALID_HTML"
	ErrCodeBinaryNotFound   = "BINARY_NOT_FOUND"
	ErrCodeInvalidPaperSize = "INVALID_PAPER_SIZE"
	ErrCodeSpoolFailed      = "SPOOL_FAILED"
)

// NewRenderError creates a new RenderError
func NewRenderError(code, message string, cause error) *RenderError {
	return &RenderError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// validateRequest performs the checks shared by every engine
func validateRequest(req *RenderRequest) error {
	if req == nil {
		return NewRenderError(ErrCodeInvalidHTML, "render request is nil", nil)
	}
	if req.Body.IsBlank() && (req.Cover == nil || req.Cover.IsBlank()) {
		return NewRenderError(ErrCodeInvalidHTML, "HTML content is empty", nil)
	}
	if !req.PaperSize.IsValid() {
		return NewRenderError(ErrCodeInvalidPaperSize, "invalid paper size: "+string(req.PaperSize), nil)
	}
	return nil
}

// estimatePageCount estimates the page count from PDF data
// by counting "/Type /Page" objects minus the "/Type /Pages" tree nodes
func estimatePageCount(pdfData []byte) int {
	count := bytes.Count(pdfData, []byte("/Type /Page"))
	parentCount := bytes.Count(pdfData, []byte("/Type /Pages"))
	return max(count-parentCount, 1)
}
