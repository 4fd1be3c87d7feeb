package printing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/mg-gouda/e-catalogue-for-woocommerce/internal/domain/catalogue"
	"go.uber.org/zap"
)

const (
	defaultBinaryPath   = "wkhtmltopdf"
	defaultTimeout      = 30 * time.Second
	defaultDPI          = 96
	defaultImageQuality = 94
)

// substScript fills elements with class pageNumber/totalPages from the
// query string wkhtmltopdf passes to header and footer pages
const substScript = `<script>
function subst() {
  var vars = {};
  var query = document.location.search.substring(1).split('&');
  for (var i = 0; i < query.length; i++) {
    var kv = query[i].split('=', 2);
    vars[kv[0]] = decodeURIComponent(kv[1] || '');
  }
  var map = {pageNumber: 'page', totalPages: 'topage'};
  for (var cls in map) {
    var els = document.getElementsByClassName(cls);
    for (var j = 0; j < els.length; j++) {
      els[j].textContent = vars[map[cls]] || '';
    }
  }
}
</script>`

// WkhtmltopdfConfig contains configuration for the wkhtmltopdf renderer
type WkhtmltopdfConfig struct {
	// BinaryPath is the path to the wkhtmltopdf binary
	// If empty, will search in PATH
	BinaryPath string
	// DefaultTimeout for rendering operations
	DefaultTimeout time.Duration
	// TempDir for temporary files during rendering
	TempDir string
	// EnableJavaScript enables JavaScript for every page object. Header and
	// footer bands load with the settings of their page object, so JavaScript
	// is also enabled whenever a band is present to run the page-number script.
	EnableJavaScript bool
	// JavaScriptDelay in milliseconds to wait for JS to complete
	JavaScriptDelay int
	// DPI for rendering (default: 96)
	DPI int
	// ImageQuality (0-100, default: 94)
	ImageQuality int
	// Logger for debug output
	Logger *zap.Logger
}

// tempFiles holds paths to temporary files created during rendering
type tempFiles struct {
	paths []string
}

func (t *tempFiles) add(path string) {
	t.paths = append(t.paths, path)
}

// cleanup removes all temporary files
func (t *tempFiles) cleanup() {
	for _, p := range t.paths {
		os.Remove(p)
	}
}

// WkhtmltopdfRenderer renders HTML to PDF using the wkhtmltopdf command-line
// tool. The cover is passed as a native cover object so it gets no header or
// footer.
type WkhtmltopdfRenderer struct {
	config *WkhtmltopdfConfig
	logger *zap.Logger
}

// NewWkhtmltopdfRenderer creates a new wkhtmltopdf-based PDF renderer
func NewWkhtmltopdfRenderer(config *WkhtmltopdfConfig) (*WkhtmltopdfRenderer, error) {
	if config == nil {
		config = &WkhtmltopdfConfig{}
	}

	if config.BinaryPath == "" {
		config.BinaryPath = defaultBinaryPath
	}
	if config.DefaultTimeout == 0 {
		config.DefaultTimeout = defaultTimeout
	}
	if config.TempDir == "" {
		config.TempDir = os.TempDir()
	}
	if config.DPI == 0 {
		config.DPI = defaultDPI
	}
	if config.ImageQuality == 0 {
		config.ImageQuality = defaultImageQuality
	}

	binaryPath, err := resolveBinaryPath(config.BinaryPath)
	if err != nil {
		return nil, NewRenderError(ErrCodeBinaryNotFound,
			fmt.Sprintf("wkhtmltopdf binary not found: %s", config.BinaryPath), err)
	}
	config.BinaryPath = binaryPath

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &WkhtmltopdfRenderer{
		config: config,
		logger: logger,
	}, nil
}

// resolveBinaryPath finds the full path to the binary
func resolveBinaryPath(path string) (string, error) {
	if filepath.IsAbs(path) {
		if _, err := os.Stat(path); err != nil {
			return "", err
		}
		return path, nil
	}
	return exec.LookPath(path)
}

// Render converts the cover and body to a single PDF
func (r *WkhtmltopdfRenderer) Render(ctx context.Context, req *RenderRequest) (*RenderResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	startTime := time.Now()

	timeout := req.Timeout
	if timeout == 0 {
		timeout = r.config.DefaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	temps := &tempFiles{}
	defer temps.cleanup()

	bodyPath, err := r.writeTempHTML(req.Body.Document(), "catalogue-body-*.html")
	if err != nil {
		return nil, NewRenderError(ErrCodeRenderFailed, "failed to write body HTML to temp file", err)
	}
	temps.add(bodyPath)

	var coverPath string
	if req.Cover != nil && !req.Cover.IsBlank() {
		coverPath, err = r.writeTempHTML(req.Cover.Document(), "catalogue-cover-*.html")
		if err != nil {
			return nil, NewRenderError(ErrCodeRenderFailed, "failed to write cover HTML to temp file", err)
		}
		temps.add(coverPath)
	}

	pdfFile, err := os.CreateTemp(r.config.TempDir, "catalogue-*.pdf")
	if err != nil {
		return nil, NewRenderError(ErrCodeRenderFailed, "failed to create temp PDF file", err)
	}
	pdfPath := pdfFile.Name()
	pdfFile.Close()
	temps.add(pdfPath)

	args := r.buildArgs(req, coverPath, bodyPath, pdfPath, temps)

	r.logger.Debug("executing wkhtmltopdf",
		zap.String("binary", r.config.BinaryPath),
		zap.Strings("args", args))

	cmd := exec.CommandContext(ctx, r.config.BinaryPath, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, NewRenderError(ErrCodeRenderTimeout,
				fmt.Sprintf("PDF rendering timed out after %v", timeout), err)
		}
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, NewRenderError(ErrCodeRenderTimeout, "PDF rendering was cancelled", err)
		}

		r.logger.Error("wkhtmltopdf failed",
			zap.Error(err),
			zap.String("stderr", stderr.String()),
			zap.String("stdout", stdout.String()))

		return nil, NewRenderError(ErrCodeRenderFailed,
			"wkhtmltopdf execution failed: "+stderr.String(), err)
	}

	pdfData, err := os.ReadFile(pdfPath)
	if err != nil {
		return nil, NewRenderError(ErrCodeRenderFailed, "failed to read generated PDF", err)
	}
	if len(pdfData) == 0 {
		return nil, NewRenderError(ErrCodeRenderFailed, "generated PDF is empty", nil)
	}

	pageCount := estimatePageCount(pdfData)
	renderDuration := time.Since(startTime)

	r.logger.Info("PDF rendered successfully",
		zap.Int("bytes", len(pdfData)),
		zap.Int("pages", pageCount),
		zap.Duration("duration", renderDuration))

	return &RenderResult{
		PDFData:        pdfData,
		PageCount:      pageCount,
		RenderDuration: renderDuration,
	}, nil
}

// buildArgs constructs the command-line arguments for wkhtmltopdf:
// global options, then the optional cover object, then the body page object
// with its header/footer options, then the output path
func (r *WkhtmltopdfRenderer) buildArgs(req *RenderRequest, coverPath, bodyPath, pdfPath string, temps *tempFiles) []string {
	args := []string{
		"--quiet",
		"--encoding", "UTF-8",
		"--dpi", strconv.Itoa(r.config.DPI),
		"--image-quality", strconv.Itoa(r.config.ImageQuality),
	}

	args = append(args, buildPaperSizeArgs(req.PaperSize, req.Orientation)...)

	args = append(args,
		"--margin-top", fmt.Sprintf("%dmm", req.Margins.Top),
		"--margin-right", fmt.Sprintf("%dmm", req.Margins.Right),
		"--margin-bottom", fmt.Sprintf("%dmm", req.Margins.Bottom),
		"--margin-left", fmt.Sprintf("%dmm", req.Margins.Left),
	)

	if req.Title != "" {
		args = append(args, "--title", req.Title)
	}

	if coverPath != "" {
		args = append(args, "cover", coverPath)
		args = append(args, r.pageOptions(req)...)
	}

	args = append(args, "page", bodyPath)
	args = append(args, r.pageOptions(req)...)

	if req.HeaderHTML != "" {
		headerFile, err := r.writeTempHTML(headerFooterDocument(req.HeaderHTML), "catalogue-header-*.html")
		if err != nil {
			r.logger.Warn("failed to create header temp file", zap.Error(err))
		} else {
			args = append(args, "--header-html", headerFile)
			temps.add(headerFile)
		}
	}

	if req.FooterHTML != "" {
		footerFile, err := r.writeTempHTML(headerFooterDocument(req.FooterHTML), "catalogue-footer-*.html")
		if err != nil {
			r.logger.Warn("failed to create footer temp file", zap.Error(err))
		} else {
			args = append(args, "--footer-html", footerFile)
			temps.add(footerFile)
		}
	}

	args = append(args, pdfPath)
	return args
}

// pageOptions are repeated for every page object
func (r *WkhtmltopdfRenderer) pageOptions(req *RenderRequest) []string {
	var args []string
	if r.config.EnableJavaScript || req.HeaderHTML != "" || req.FooterHTML != "" {
		args = append(args, "--enable-javascript")
		if r.config.JavaScriptDelay > 0 {
			args = append(args, "--javascript-delay", strconv.Itoa(r.config.JavaScriptDelay))
		}
	} else {
		args = append(args, "--disable-javascript")
	}

	if req.EnableLocalFileAccess {
		args = append(args, "--enable-local-file-access")
	} else {
		args = append(args, "--disable-local-file-access")
	}
	return args
}

// buildPaperSizeArgs generates paper size arguments
func buildPaperSizeArgs(paperSize catalogue.PaperSize, orientation catalogue.Orientation) []string {
	var args []string

	switch paperSize {
	case catalogue.PaperSizeA5:
		args = append(args, "--page-size", "A5")
	case catalogue.PaperSizeLetter:
		args = append(args, "--page-size", "Letter")
	case catalogue.PaperSizeLegal:
		args = append(args, "--page-size", "Legal")
	default:
		args = append(args, "--page-size", "A4")
	}

	if orientation == catalogue.OrientationLandscape {
		args = append(args, "--orientation", "Landscape")
	} else {
		args = append(args, "--orientation", "Portrait")
	}

	return args
}

// headerFooterDocument wraps a header or footer fragment in a document that
// substitutes the page counters on load
func headerFooterDocument(fragment string) string {
	return "<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"UTF-8\">\n" + substScript +
		"\n</head>\n<body style=\"margin:0\" onload=\"subst()\">\n" + fragment + "\n</body>\n</html>\n"
}

// writeTempHTML writes HTML content to a temporary file
func (r *WkhtmltopdfRenderer) writeTempHTML(html, pattern string) (string, error) {
	file, err := os.CreateTemp(r.config.TempDir, pattern)
	if err != nil {
		return "", err
	}
	defer file.Close()

	if _, err := file.WriteString(html); err != nil {
		os.Remove(file.Name())
		return "", err
	}

	return file.Name(), nil
}

// Close releases resources (no-op for wkhtmltopdf)
func (r *WkhtmltopdfRenderer) Close() error {
	return nil
}

// Ensure WkhtmltopdfRenderer implements PDFRenderer
var _ PDFRenderer = (*WkhtmltopdfRenderer)(nil)
