package migration

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/mg-gouda/e-catalogue-for-woocommerce/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add image column", "add_image_column"},
		{"Add-Image-Column", "add_image_column"},
		{"ADD_IMAGE_COLUMN", "add_image_column"},
		{"add__image__column", "add_image_column"},
		{"Add Index 123", "add_index_123"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"trailing_", "trailing"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "migrations")
	now := time.Date(2026, time.May, 6, 7, 8, 9, 0, time.UTC)

	mf, err := CreateMigration(dir, "add product weight", "Weight column for shipping", now)
	require.NoError(t, err)

	assert.Equal(t, "20260506070809", mf.Version)
	assert.Equal(t, filepath.Join(dir, "20260506070809_add_product_weight.up.sql"), mf.UpPath)
	assert.Equal(t, filepath.Join(dir, "20260506070809_add_product_weight.down.sql"), mf.DownPath)

	up, err := os.ReadFile(mf.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "-- Migration: add_product_weight\n")
	assert.Contains(t, string(up), "-- Description: Weight column for shipping")

	down, err := os.ReadFile(mf.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "-- Migration: add_product_weight (Rollback)")
}

func TestCreateMigration_Errors(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, time.May, 6, 7, 8, 9, 0, time.UTC)

	_, err := CreateMigration(dir, "!!!", "", now)
	assert.Error(t, err)

	_, err = CreateMigration(dir, "twice", "", now)
	require.NoError(t, err)
	_, err = CreateMigration(dir, "twice", "", now)
	assert.Error(t, err, "existing files are never overwritten")
}

func TestListMigrations(t *testing.T) {
	source := fstest.MapFS{
		"20260302000000_second.up.sql":   {Data: []byte("SELECT 1;")},
		"20260302000000_second.down.sql": {Data: []byte("SELECT 1;")},
		"20260301000000_first.up.sql":    {Data: []byte("SELECT 1;")},
		"20260301000000_first.down.sql":  {Data: []byte("SELECT 1;")},
		"README.md":                      {Data: []byte("notes")},
	}

	names, err := ListMigrations(source)
	require.NoError(t, err)
	assert.Equal(t, []string{"20260301000000_first", "20260302000000_second"}, names)
}

func TestListMigrations_MissingDir(t *testing.T) {
	names, err := ListMigrations(os.DirFS(filepath.Join(t.TempDir(), "absent")))
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	names, err := ListMigrations(migrations.FS)
	require.NoError(t, err)
	require.NotEmpty(t, names)

	for _, name := range names {
		_, err := migrations.FS.ReadFile(name + downSuffix)
		assert.NoError(t, err, "missing rollback for %s", name)
	}
}
