package catalogue_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	domain "github.com/mg-gouda/e-catalogue-for-woocommerce/internal/domain/catalogue"
	"github.com/mg-gouda/e-catalogue-for-woocommerce/internal/infrastructure/mail"
	infra "github.com/mg-gouda/e-catalogue-for-woocommerce/internal/infrastructure/printing"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Mock Implementations
// =============================================================================

type MockCatalogSource struct {
	mock.Mock
}

func (m *MockCatalogSource) FilterExisting(ctx context.Context, ids []int64) ([]int64, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockCatalogSource) FindIDsByCategories(ctx context.Context, categoryIDs []int64) ([]int64, error) {
	args := m.Called(ctx, categoryIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockCatalogSource) FindByIDs(ctx context.Context, ids []int64) ([]domain.ProductRecord, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ProductRecord), args.Error(1)
}

func (m *MockCatalogSource) FindCategoryIDs(ctx context.Context, id int64) ([]int64, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

type MockImageResolver struct {
	mock.Mock
}

func (m *MockImageResolver) Resolve(ctx context.Context, ref string) (string, bool) {
	args := m.Called(ctx, ref)
	return args.String(0), args.Bool(1)
}

type MockPDFRenderer struct {
	mock.Mock
}

func (m *MockPDFRenderer) Render(ctx context.Context, req *infra.RenderRequest) (*infra.RenderResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*infra.RenderResult), args.Error(1)
}

func (m *MockPDFRenderer) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockMailer records the attachment paths it was handed and whether each
// file existed at send time
type MockMailer struct {
	mock.Mock

	mu              sync.Mutex
	attachmentPaths []string
	existedAtSend   []bool
}

func (m *MockMailer) Send(ctx context.Context, msg *mail.Message) error {
	m.mu.Lock()
	for _, a := range msg.Attachments {
		m.attachmentPaths = append(m.attachmentPaths, a.Path)
		m.existedAtSend = append(m.existedAtSend, fileExists(a.Path))
	}
	m.mu.Unlock()

	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockMailer) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.attachmentPaths...)
}

func (m *MockMailer) ExistedAtSend() []bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]bool(nil), m.existedAtSend...)
}

type StaticSettings struct {
	Config domain.RenderConfig
}

func (s StaticSettings) Snapshot() domain.RenderConfig {
	return s.Config
}

// MemoryIdempotencyStore is a minimal in-memory store for share tests
type MemoryIdempotencyStore struct {
	mu       sync.Mutex
	keys     map[string]struct{}
	released []string
}

func NewMemoryIdempotencyStore() *MemoryIdempotencyStore {
	return &MemoryIdempotencyStore{keys: make(map[string]struct{})}
}

func (s *MemoryIdempotencyStore) MarkProcessed(_ context.Context, key string, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.keys[key]; ok {
		return false, nil
	}
	s.keys[key] = struct{}{}
	return true, nil
}

func (s *MemoryIdempotencyStore) IsProcessed(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.keys[key]
	return ok, nil
}

func (s *MemoryIdempotencyStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, key)
	s.released = append(s.released, key)
	return nil
}

func (s *MemoryIdempotencyStore) Close() error { return nil }

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// newTestEngine parses the embedded templates
func newTestEngine(t *testing.T) *infra.TemplateEngine {
	t.Helper()
	engine, err := infra.NewTemplateEngine()
	require.NoError(t, err)
	return engine
}

// newTestSpool returns a spool rooted in a per-test directory
func newTestSpool(t *testing.T) *infra.AttachmentSpool {
	t.Helper()
	return infra.NewAttachmentSpool(&infra.AttachmentSpoolConfig{BaseDir: filepath.Join(t.TempDir(), "spool")})
}

func spoolEntries(t *testing.T, spool *infra.AttachmentSpool) []os.DirEntry {
	t.Helper()
	entries, err := os.ReadDir(spool.Dir())
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	return entries
}

func sampleRecords() []domain.ProductRecord {
	return []domain.ProductRecord{
		{
			ID:               101,
			Name:             "Walnut Desk",
			Price:            "$249.00",
			SKU:              "WD-101",
			Categories:       []string{"Furniture", "Office"},
			CategoryIDs:      []int64{3, 4},
			ShortDescription: "<p>Solid walnut</p>",
			LongDescription:  "<p>Hand finished in small batches.</p>",
			ImageRef:         "https://shop.example.com/img/101.jpg",
		},
		{
			ID:               102,
			Name:             "Oak Chair",
			Price:            "$89.00",
			SKU:              "OC-102",
			Categories:       []string{"Furniture"},
			CategoryIDs:      []int64{3},
			ShortDescription: "<p>Matching chair</p>",
		},
	}
}
