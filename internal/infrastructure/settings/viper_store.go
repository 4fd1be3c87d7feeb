// Package settings serves the catalogue rendering settings from a TOML file
// and reloads them when the file changes.
package settings

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/mg-gouda/e-catalogue-for-woocommerce/internal/domain/catalogue"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Keys under the [catalogue] table of the settings file
const (
	keyFontFamily       = "catalogue.font_family"
	keyBaseFontSize     = "catalogue.base_font_size"
	keyPrimaryColor     = "catalogue.primary_color"
	keySecondaryColor   = "catalogue.secondary_color"
	keyCoverTitle       = "catalogue.cover_title"
	keyCoverImage       = "catalogue.cover_image"
	keyHeaderText       = "catalogue.header_text"
	keyFooterText       = "catalogue.footer_text"
	keyContentSelection = "catalogue.content_selection"
	keyDateFormat       = "catalogue.date_format"
	keyPaperSize        = "catalogue.paper_size"
	keyOrientation      = "catalogue.orientation"
	keyMarginTop        = "catalogue.margin_top"
	keyMarginRight      = "catalogue.margin_right"
	keyMarginBottom     = "catalogue.margin_bottom"
	keyMarginLeft       = "catalogue.margin_left"
	keyFilenamePrefix   = "catalogue.filename_prefix"
	keyEmailSubject     = "catalogue.email_subject"
	keyEmailMessage     = "catalogue.email_message"

	keySingleProduct   = "catalogue.buttons.single_product_enabled"
	keyConditional     = "catalogue.buttons.conditional_logic_enabled"
	keyConditionalCats = "catalogue.buttons.conditional_categories"
	keyDownloadText    = "catalogue.buttons.download_text"
	keyShareEnabled    = "catalogue.buttons.share_enabled"
	keyShareText       = "catalogue.buttons.share_text"
)

// ViperStore implements catalogue.SettingsStore. Readers always see a
// complete, validated snapshot; a reload that fails validation keeps the
// previous one.
type ViperStore struct {
	v       *viper.Viper
	path    string
	current atomic.Pointer[catalogue.RenderConfig]
	logger  *zap.Logger

	mu        sync.Mutex
	listeners []func(catalogue.RenderConfig)
}

var _ catalogue.SettingsStore = (*ViperStore)(nil)

// Option configures a ViperStore
type Option func(*ViperStore)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *ViperStore) {
		s.logger = logger
	}
}

// NewViperStore loads the settings file at path. A missing file yields the
// default settings; a present but invalid one is an error.
func NewViperStore(path string, opts ...Option) (*ViperStore, error) {
	s := &ViperStore{
		v:      viper.New(),
		path:   path,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.v.SetConfigFile(path)
	s.v.SetConfigType("toml")
	setDefaults(s.v)

	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Snapshot returns the current settings. The result shares nothing with
// the store.
func (s *ViperStore) Snapshot() catalogue.RenderConfig {
	cfg := *s.current.Load()
	cfg.Buttons.ConditionalCategories = slices.Clone(cfg.Buttons.ConditionalCategories)
	return cfg
}

// Reload re-reads the settings file
func (s *ViperStore) Reload() error {
	return s.load()
}

// OnChange registers fn to be called with every successfully reloaded
// snapshot
func (s *ViperStore) OnChange(fn func(catalogue.RenderConfig)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Watch reloads the settings whenever the file is written. The file must
// exist when Watch is called.
func (s *ViperStore) Watch() error {
	if _, err := os.Stat(s.path); err != nil {
		return fmt.Errorf("cannot watch settings file: %w", err)
	}
	s.v.OnConfigChange(func(e fsnotify.Event) {
		if err := s.load(); err != nil {
			s.logger.Warn("settings reload rejected, keeping previous settings",
				zap.String("file", e.Name), zap.Error(err))
		}
	})
	s.v.WatchConfig()
	s.logger.Info("watching settings file", zap.String("file", s.path))
	return nil
}

func (s *ViperStore) load() error {
	if err := s.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.Is(err, os.ErrNotExist) && !errors.As(err, &notFound) {
			return fmt.Errorf("error reading settings file: %w", err)
		}
		s.logger.Info("settings file not found, using defaults", zap.String("file", s.path))
	}

	cfg, err := decode(s.v)
	if err != nil {
		return fmt.Errorf("invalid settings in %s: %w", s.path, err)
	}

	s.current.Store(&cfg)
	s.logger.Debug("settings loaded",
		zap.String("paper_size", cfg.Layout.PaperSize.String()),
		zap.String("orientation", cfg.Layout.Orientation.String()),
		zap.String("content", cfg.ContentSelection.String()))

	s.mu.Lock()
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()
	for _, fn := range listeners {
		fn(s.Snapshot())
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	d := catalogue.DefaultRenderConfig()
	v.SetDefault(keyFontFamily, d.FontFamily)
	v.SetDefault(keyBaseFontSize, d.BaseFontSize)
	v.SetDefault(keyPrimaryColor, d.PrimaryColor)
	v.SetDefault(keySecondaryColor, d.SecondaryColor)
	v.SetDefault(keyCoverTitle, d.CoverTitle)
	v.SetDefault(keyCoverImage, d.CoverImageRef)
	v.SetDefault(keyHeaderText, d.HeaderText)
	v.SetDefault(keyFooterText, d.FooterText)
	v.SetDefault(keyContentSelection, d.ContentSelection.Keys())
	v.SetDefault(keyDateFormat, d.DateFormat)
	v.SetDefault(keyPaperSize, d.Layout.PaperSize.String())
	v.SetDefault(keyOrientation, d.Layout.Orientation.String())
	v.SetDefault(keyMarginTop, d.Layout.Margins.Top)
	v.SetDefault(keyMarginRight, d.Layout.Margins.Right)
	v.SetDefault(keyMarginBottom, d.Layout.Margins.Bottom)
	v.SetDefault(keyMarginLeft, d.Layout.Margins.Left)
	v.SetDefault(keyFilenamePrefix, d.FilenamePrefix)
	v.SetDefault(keyEmailSubject, d.EmailSubject)
	v.SetDefault(keyEmailMessage, d.EmailMessage)
	v.SetDefault(keySingleProduct, d.Buttons.SingleProductEnabled)
	v.SetDefault(keyConditional, d.Buttons.ConditionalLogicEnabled)
	v.SetDefault(keyConditionalCats, []int{})
	v.SetDefault(keyDownloadText, d.Buttons.DownloadText)
	v.SetDefault(keyShareEnabled, d.Buttons.ShareEnabled)
	v.SetDefault(keyShareText, d.Buttons.ShareText)
}

func decode(v *viper.Viper) (catalogue.RenderConfig, error) {
	selection, err := catalogue.ParseContentSelection(v.GetStringSlice(keyContentSelection))
	if err != nil {
		return catalogue.RenderConfig{}, err
	}

	var categories []int64
	for _, id := range v.GetIntSlice(keyConditionalCats) {
		if id > 0 {
			categories = append(categories, int64(id))
		}
	}

	cfg := catalogue.RenderConfig{
		FontFamily:       v.GetString(keyFontFamily),
		BaseFontSize:     v.GetInt(keyBaseFontSize),
		PrimaryColor:     v.GetString(keyPrimaryColor),
		SecondaryColor:   v.GetString(keySecondaryColor),
		CoverTitle:       v.GetString(keyCoverTitle),
		CoverImageRef:    v.GetString(keyCoverImage),
		HeaderText:       v.GetString(keyHeaderText),
		FooterText:       v.GetString(keyFooterText),
		ContentSelection: selection,
		DateFormat:       v.GetString(keyDateFormat),
		Layout: catalogue.Layout{
			PaperSize:   catalogue.PaperSize(strings.ToUpper(v.GetString(keyPaperSize))),
			Orientation: catalogue.Orientation(strings.ToUpper(v.GetString(keyOrientation))),
			Margins: catalogue.Margins{
				Top:    v.GetInt(keyMarginTop),
				Right:  v.GetInt(keyMarginRight),
				Bottom: v.GetInt(keyMarginBottom),
				Left:   v.GetInt(keyMarginLeft),
			},
		},
		FilenamePrefix: v.GetString(keyFilenamePrefix),
		EmailSubject:   v.GetString(keyEmailSubject),
		EmailMessage:   v.GetString(keyEmailMessage),
		Buttons: catalogue.ButtonPolicy{
			SingleProductEnabled:    v.GetBool(keySingleProduct),
			ConditionalLogicEnabled: v.GetBool(keyConditional),
			ConditionalCategories:   categories,
			DownloadText:            v.GetString(keyDownloadText),
			ShareEnabled:            v.GetBool(keyShareEnabled),
			ShareText:               v.GetString(keyShareText),
		},
	}.WithDefaults()

	if err := cfg.Validate(); err != nil {
		return catalogue.RenderConfig{}, err
	}
	return cfg, nil
}
