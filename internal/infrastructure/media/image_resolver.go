// Package media turns stored product image references into sources the PDF
// renderer can load without further network or filesystem access.
package media

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/mg-gouda/e-catalogue-for-woocommerce/internal/domain/catalogue"
	"github.com/mg-gouda/e-catalogue-for-woocommerce/internal/infrastructure/config"
	"github.com/mg-gouda/e-catalogue-for-woocommerce/internal/infrastructure/storage"
	"go.uber.org/zap"
)

// ObjectSource is the object storage used for s3:// references
type ObjectSource interface {
	Download(ctx context.Context, key string) (*storage.Object, error)
	GenerateDownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, time.Time, error)
}

// ImageResolver implements catalogue.ImageResolver.
//
// Reference forms:
//   - http(s):// and data: references pass through unchanged
//   - s3://bucket/key is read from object storage; the bucket segment is
//     informational, objects always come from the configured bucket
//   - anything else is a path below the local media root
//
// Stored images are shrunk to fit MaxWidth x MaxHeight and inlined as JPEG
// data URIs.
type ImageResolver struct {
	baseDir    string
	maxWidth   int
	maxHeight  int
	quality    int
	objects    ObjectSource
	presignFor time.Duration
	logger     *zap.Logger
}

var _ catalogue.ImageResolver = (*ImageResolver)(nil)

// Option configures an ImageResolver
type Option func(*ImageResolver)

// WithObjectSource enables s3:// references
func WithObjectSource(src ObjectSource) Option {
	return func(r *ImageResolver) {
		r.objects = src
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(r *ImageResolver) {
		r.logger = logger
	}
}

// NewImageResolver creates an ImageResolver from the images configuration
func NewImageResolver(cfg config.ImagesConfig, opts ...Option) *ImageResolver {
	r := &ImageResolver{
		baseDir:    cfg.BaseDir,
		maxWidth:   cfg.MaxWidth,
		maxHeight:  cfg.MaxHeight,
		quality:    cfg.JPEGQuality,
		presignFor: 30 * time.Minute,
		logger:     zap.NewNop(),
	}
	if r.maxWidth <= 0 {
		r.maxWidth = 600
	}
	if r.maxHeight <= 0 {
		r.maxHeight = 600
	}
	if r.quality <= 0 || r.quality > 100 {
		r.quality = 85
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns a renderer-loadable source for ref
func (r *ImageResolver) Resolve(ctx context.Context, ref string) (string, bool) {
	ref = strings.TrimSpace(ref)
	switch {
	case ref == "":
		return "", false
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"), strings.HasPrefix(ref, "data:"):
		return ref, true
	case strings.HasPrefix(ref, "s3://"):
		return r.resolveObject(ctx, ref)
	default:
		return r.resolveFile(ref)
	}
}

func (r *ImageResolver) resolveObject(ctx context.Context, ref string) (string, bool) {
	if r.objects == nil {
		r.logger.Debug("object storage disabled, skipping image", zap.String("ref", ref))
		return "", false
	}
	key, err := objectKey(ref)
	if err != nil {
		r.logger.Warn("invalid image reference", zap.String("ref", ref), zap.Error(err))
		return "", false
	}

	obj, err := r.objects.Download(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			r.logger.Debug("image object not found", zap.String("key", key))
			return "", false
		}
		// the renderer may still reach the object directly
		url, _, perr := r.objects.GenerateDownloadURL(ctx, key, r.presignFor)
		if perr != nil {
			r.logger.Warn("failed to load image object",
				zap.String("key", key), zap.Error(err), zap.NamedError("presign_error", perr))
			return "", false
		}
		return url, true
	}

	uri, err := r.inline(obj.Data)
	if err != nil {
		r.logger.Warn("failed to process image object", zap.String("key", key), zap.Error(err))
		return "", false
	}
	return uri, true
}

func (r *ImageResolver) resolveFile(ref string) (string, bool) {
	if r.baseDir == "" {
		return "", false
	}
	path, err := r.localPath(ref)
	if err != nil {
		r.logger.Warn("rejected image path", zap.String("ref", ref), zap.Error(err))
		return "", false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		r.logger.Debug("image file unreadable", zap.String("path", path), zap.Error(err))
		return "", false
	}
	uri, err := r.inline(data)
	if err != nil {
		r.logger.Warn("failed to process image file", zap.String("path", path), zap.Error(err))
		return "", false
	}
	return uri, true
}

// localPath maps ref below baseDir and refuses anything that escapes it
func (r *ImageResolver) localPath(ref string) (string, error) {
	ref = strings.TrimPrefix(ref, "file://")
	root, err := filepath.Abs(r.baseDir)
	if err != nil {
		return "", err
	}
	var path string
	if filepath.IsAbs(ref) {
		path = filepath.Clean(ref)
	} else {
		path = filepath.Join(root, ref)
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q is outside the media root", ref)
	}
	return path, nil
}

// inline decodes data, shrinks it to the configured box and returns a JPEG
// data URI. Transparent areas are flattened onto white.
func (r *ImageResolver) inline(data []byte) (string, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	b := img.Bounds()
	if b.Dx() > r.maxWidth || b.Dy() > r.maxHeight {
		img = imaging.Fit(img, r.maxWidth, r.maxHeight, imaging.Lanczos)
	}
	img = flatten(img)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(r.quality)); err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func flatten(img image.Image) image.Image {
	b := img.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)
}

// objectKey extracts the key from s3://bucket/key
func objectKey(ref string) (string, error) {
	rest := strings.TrimPrefix(ref, "s3://")
	_, key, ok := strings.Cut(rest, "/")
	if !ok || key == "" {
		return "", errors.New("missing object key")
	}
	return key, nil
}
