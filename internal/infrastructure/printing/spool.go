package printing

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultSpoolDirName is the directory created under the system temp dir
const DefaultSpoolDirName = "ecfw-temp-pdfs"

// AttachmentSpoolConfig contains configuration for the attachment spool
type AttachmentSpoolConfig struct {
	// BaseDir holds spooled attachments
	// Default: $TMPDIR/ecfw-temp-pdfs
	BaseDir string
	// Logger for operations
	Logger *zap.Logger
}

// AttachmentSpool writes documents to uniquely named temporary files so they
// can be handed to an attachment-based mail transport. The directory is
// created lazily on first use.
type AttachmentSpool struct {
	config *AttachmentSpoolConfig
	logger *zap.Logger

	mu    sync.Mutex
	ready bool
}

// SpooledFile is a document written to the spool. Callers must Release it.
type SpooledFile struct {
	Path string
	Size int64

	logger *zap.Logger
}

// NewAttachmentSpool creates a new attachment spool
func NewAttachmentSpool(config *AttachmentSpoolConfig) *AttachmentSpool {
	if config == nil {
		config = &AttachmentSpoolConfig{}
	}
	if config.BaseDir == "" {
		config.BaseDir = filepath.Join(os.TempDir(), DefaultSpoolDirName)
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &AttachmentSpool{
		config: config,
		logger: logger,
	}
}

// Dir returns the spool directory
func (s *AttachmentSpool) Dir() string {
	return s.config.BaseDir
}

// ensureDir creates the spool directory once. A failed attempt is retried on
// the next call.
func (s *AttachmentSpool) ensureDir(force bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ready && !force {
		return nil
	}
	if err := os.MkdirAll(s.config.BaseDir, 0o700); err != nil {
		s.ready = false
		return NewRenderError(ErrCodeSpoolFailed,
			fmt.Sprintf("failed to create spool directory: %s", s.config.BaseDir), err)
	}
	s.ready = true
	return nil
}

// Acquire writes data to a new file named <stem>-<uuid>.pdf
func (s *AttachmentSpool) Acquire(ctx context.Context, stem string, data []byte) (*SpooledFile, error) {
	select {
	case <-ctx.Done():
		return nil, NewRenderError(ErrCodeSpoolFailed, "operation cancelled", ctx.Err())
	default:
	}

	if len(data) == 0 {
		return nil, NewRenderError(ErrCodeSpoolFailed, "document is empty", nil)
	}
	if stem == "" || containsDotDot(stem) || strings.ContainsAny(stem, `/\`) {
		s.logger.Warn("blocked invalid spool file stem", zap.String("stem", stem))
		return nil, NewRenderError(ErrCodeSpoolFailed, "invalid file name", nil)
	}

	if err := s.ensureDir(false); err != nil {
		return nil, err
	}

	path := filepath.Join(s.config.BaseDir, fmt.Sprintf("%s-%s.pdf", stem, uuid.NewString()))
	err := os.WriteFile(path, data, 0o600)
	if errors.Is(err, fs.ErrNotExist) {
		// directory removed by an external cleaner since it was created
		if err = s.ensureDir(true); err == nil {
			err = os.WriteFile(path, data, 0o600)
		}
	}
	if err != nil {
		_ = os.Remove(path)
		return nil, NewRenderError(ErrCodeSpoolFailed, "failed to write spool file", err)
	}

	s.logger.Debug("attachment spooled",
		zap.String("path", path),
		zap.Int("size", len(data)))

	return &SpooledFile{
		Path:   path,
		Size:   int64(len(data)),
		logger: s.logger,
	}, nil
}

// Name returns the base name of the spooled file
func (f *SpooledFile) Name() string {
	return filepath.Base(f.Path)
}

// Release removes the spooled file. A file that is already gone is not an error.
func (f *SpooledFile) Release() error {
	if f == nil {
		return nil
	}
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return NewRenderError(ErrCodeSpoolFailed, "failed to remove spool file", err)
	}
	f.logger.Debug("attachment released", zap.String("path", f.Path))
	return nil
}

// CleanupOlderThan removes spooled files older than the specified duration,
// left behind by a crashed process
func (s *AttachmentSpool) CleanupOlderThan(ctx context.Context, age time.Duration) (int, error) {
	cutoff := time.Now().Add(-age)
	deletedCount := 0

	entries, err := os.ReadDir(s.config.BaseDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, NewRenderError(ErrCodeSpoolFailed, "failed to read spool directory", err)
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return deletedCount, nil
		}
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".pdf" {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			path := filepath.Join(s.config.BaseDir, entry.Name())
			if err := os.Remove(path); err == nil {
				deletedCount++
				s.logger.Debug("deleted stale attachment", zap.String("path", path))
			}
		}
	}

	s.logger.Info("spool cleanup completed",
		zap.Int("deleted", deletedCount),
		zap.Duration("age", age))

	return deletedCount, nil
}

// containsDotDot checks if a path contains ".." components
func containsDotDot(path string) bool {
	parts := strings.FieldsFunc(path, func(r rune) bool {
		return r == '/' || r == '\\' || r == filepath.Separator
	})
	return slices.Contains(parts, "..")
}
