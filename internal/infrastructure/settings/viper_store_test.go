package settings

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mg-gouda/e-catalogue-for-woocommerce/internal/domain/catalogue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const sampleSettings = `
[catalogue]
font_family = "Roboto, sans-serif"
base_font_size = 11
primary_color = "#112233"
cover_title = "Spring Collection"
cover_image = "covers/spring.jpg"
header_text = ""
content_selection = ["sku", "categories", "long_description"]
paper_size = "letter"
orientation = "landscape"
margin_top = 10
margin_bottom = 10
filename_prefix = "acme-catalog"
email_subject = "Catalog: %s"

[catalogue.buttons]
conditional_logic_enabled = true
conditional_categories = [4, 0, 9]
share_enabled = false
`

func writeSettings(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestNewViperStore_MissingFileUsesDefaults(t *testing.T) {
	store, err := NewViperStore(filepath.Join(t.TempDir(), "settings.toml"))
	require.NoError(t, err)

	assert.Equal(t, catalogue.DefaultRenderConfig(), store.Snapshot())
}

func TestNewViperStore_ReadsCatalogueSection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	writeSettings(t, path, sampleSettings)

	store, err := NewViperStore(path, WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	cfg := store.Snapshot()

	assert.Equal(t, "Roboto, sans-serif", cfg.FontFamily)
	assert.Equal(t, 11, cfg.BaseFontSize)
	assert.Equal(t, "#112233", cfg.PrimaryColor)
	assert.Equal(t, catalogue.DefaultSecondaryColor, cfg.SecondaryColor)
	assert.Equal(t, "Spring Collection", cfg.CoverTitle)
	assert.Equal(t, "covers/spring.jpg", cfg.CoverImageRef)
	assert.Empty(t, cfg.HeaderText, "an explicit blank header stays blank")
	assert.Equal(t, catalogue.DefaultFooterText, cfg.FooterText)
	assert.Equal(t, []string{"sku", "categories", "long_description"}, cfg.ContentSelection.Keys())
	assert.Equal(t, catalogue.PaperSizeLetter, cfg.Layout.PaperSize)
	assert.Equal(t, catalogue.OrientationLandscape, cfg.Layout.Orientation)
	assert.Equal(t, catalogue.Margins{Top: 10, Right: 13, Bottom: 10, Left: 13}, cfg.Layout.Margins)
	assert.Equal(t, "acme-catalog", cfg.FilenamePrefix)
	assert.Equal(t, "Catalog: Desk", cfg.SubjectFor("Desk"))

	assert.True(t, cfg.Buttons.SingleProductEnabled)
	assert.True(t, cfg.Buttons.ConditionalLogicEnabled)
	assert.Equal(t, []int64{4, 9}, cfg.Buttons.ConditionalCategories)
	assert.False(t, cfg.Buttons.ShareEnabled)
	assert.Equal(t, catalogue.DefaultShareText, cfg.Buttons.ShareText)
}

func TestNewViperStore_InvalidSettings(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad color", "[catalogue]\nprimary_color = \"red\"\n"},
		{"unknown field", "[catalogue]\ncontent_selection = [\"weight\"]\n"},
		{"bad paper", "[catalogue]\npaper_size = \"B5\"\n"},
		{"malformed toml", "[catalogue\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "settings.toml")
			writeSettings(t, path, tt.body)
			_, err := NewViperStore(path)
			assert.Error(t, err)
		})
	}
}

func TestViperStore_SnapshotIsACopy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	writeSettings(t, path, sampleSettings)
	store, err := NewViperStore(path)
	require.NoError(t, err)

	snap := store.Snapshot()
	snap.Buttons.ConditionalCategories[0] = 99
	snap.CoverTitle = "changed"

	again := store.Snapshot()
	assert.Equal(t, []int64{4, 9}, again.Buttons.ConditionalCategories)
	assert.Equal(t, "Spring Collection", again.CoverTitle)
}

func TestViperStore_Reload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	writeSettings(t, path, "[catalogue]\ncover_title = \"First\"\n")
	store, err := NewViperStore(path)
	require.NoError(t, err)

	var notified atomic.Int32
	store.OnChange(func(cfg catalogue.RenderConfig) {
		notified.Add(1)
	})

	writeSettings(t, path, "[catalogue]\ncover_title = \"Second\"\n")
	require.NoError(t, store.Reload())
	assert.Equal(t, "Second", store.Snapshot().CoverTitle)
	assert.Equal(t, int32(1), notified.Load())

	writeSettings(t, path, "[catalogue]\nbase_font_size = 500\n")
	assert.Error(t, store.Reload())
	assert.Equal(t, "Second", store.Snapshot().CoverTitle, "rejected reload keeps previous settings")
	assert.Equal(t, int32(1), notified.Load())
}

func TestViperStore_Watch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	writeSettings(t, path, "[catalogue]\ncover_title = \"Before\"\n")
	store, err := NewViperStore(path, WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	require.NoError(t, store.Watch())

	writeSettings(t, path, "[catalogue]\ncover_title = \"After\"\n")

	assert.Eventually(t, func() bool {
		return store.Snapshot().CoverTitle == "After"
	}, 5*time.Second, 20*time.Millisecond)
}

func TestViperStore_WatchMissingFile(t *testing.T) {
	store, err := NewViperStore(filepath.Join(t.TempDir(), "settings.toml"))
	require.NoError(t, err)
	assert.Error(t, store.Watch())
}
