package printing

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSpool(t *testing.T) *AttachmentSpool {
	t.Helper()
	return NewAttachmentSpool(&AttachmentSpoolConfig{
		BaseDir: filepath.Join(t.TempDir(), DefaultSpoolDirName),
	})
}

func TestNewAttachmentSpool_Defaults(t *testing.T) {
	spool := NewAttachmentSpool(nil)
	assert.Equal(t, filepath.Join(os.TempDir(), DefaultSpoolDirName), spool.Dir())
}

func TestAttachmentSpool_AcquireRelease(t *testing.T) {
	spool := newTestSpool(t)
	ctx := context.Background()

	_, err := os.Stat(spool.Dir())
	require.True(t, os.IsNotExist(err), "directory is created lazily")

	file, err := spool.Acquire(ctx, "woocommerce-catalog-product-42", []byte("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, spool.Dir(), filepath.Dir(file.Path))
	assert.True(t, strings.HasPrefix(file.Name(), "woocommerce-catalog-product-42-"))
	assert.Equal(t, ".pdf", filepath.Ext(file.Path))
	assert.Equal(t, int64(8), file.Size)

	data, err := os.ReadFile(file.Path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))

	require.NoError(t, file.Release())
	_, err = os.Stat(file.Path)
	assert.True(t, os.IsNotExist(err))

	// releasing twice is harmless
	assert.NoError(t, file.Release())
}

func TestAttachmentSpool_UniquePaths(t *testing.T) {
	spool := newTestSpool(t)
	ctx := context.Background()

	a, err := spool.Acquire(ctx, "doc", []byte("a"))
	require.NoError(t, err)
	b, err := spool.Acquire(ctx, "doc", []byte("b"))
	require.NoError(t, err)
	assert.NotEqual(t, a.Path, b.Path)

	require.NoError(t, a.Release())
	_, err = os.Stat(b.Path)
	assert.NoError(t, err, "releasing one file must not remove another")
	require.NoError(t, b.Release())
}

func TestAttachmentSpool_RecreatesRemovedDir(t *testing.T) {
	spool := newTestSpool(t)
	ctx := context.Background()

	first, err := spool.Acquire(ctx, "doc", []byte("a"))
	require.NoError(t, err)
	require.NoError(t, first.Release())
	require.NoError(t, os.RemoveAll(spool.Dir()))

	second, err := spool.Acquire(ctx, "doc", []byte("b"))
	require.NoError(t, err)
	_, err = os.Stat(second.Path)
	assert.NoError(t, err)
	require.NoError(t, second.Release())
}

func TestAttachmentSpool_Acquire_Invalid(t *testing.T) {
	spool := newTestSpool(t)
	ctx := context.Background()

	tests := []struct {
		name string
		stem string
		data []byte
	}{
		{"empty data", "doc", nil},
		{"empty stem", "", []byte("x")},
		{"traversal", "../etc/passwd", []byte("x")},
		{"separator", "a/b", []byte("x")},
		{"backslash", `a\b`, []byte("x")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file, err := spool.Acquire(ctx, tt.stem, tt.data)
			require.Error(t, err)
			assert.Nil(t, file)

			var renderErr *RenderError
			require.ErrorAs(t, err, &renderErr)
			assert.Equal(t, ErrCodeSpoolFailed, renderErr.Code)
		})
	}
}

func TestAttachmentSpool_Acquire_Cancelled(t *testing.T) {
	spool := newTestSpool(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := spool.Acquire(ctx, "doc", []byte("x"))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAttachmentSpool_CleanupOlderThan(t *testing.T) {
	spool := newTestSpool(t)
	ctx := context.Background()

	stale, err := spool.Acquire(ctx, "stale", []byte("a"))
	require.NoError(t, err)
	fresh, err := spool.Acquire(ctx, "fresh", []byte("b"))
	require.NoError(t, err)

	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(stale.Path, old, old))

	deleted, err := spool.CleanupOlderThan(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	_, err = os.Stat(stale.Path)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(fresh.Path)
	assert.NoError(t, err)
}

func TestAttachmentSpool_CleanupMissingDir(t *testing.T) {
	spool := newTestSpool(t)
	deleted, err := spool.CleanupOlderThan(context.Background(), time.Hour)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestContainsDotDot(t *testing.T) {
	assert.True(t, containsDotDot("../x"))
	assert.True(t, containsDotDot(`a\..\b`))
	assert.False(t, containsDotDot("a..b"))
	assert.False(t, containsDotDot("plain"))
}
