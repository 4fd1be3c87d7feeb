package catalogue_test

import (
	"context"
	"errors"
	"testing"

	app "github.com/mg-gouda/e-catalogue-for-woocommerce/internal/application/catalogue"
	domain "github.com/mg-gouda/e-catalogue-for-woocommerce/internal/domain/catalogue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectRecord_SelectionOnlySKU(t *testing.T) {
	rec := sampleRecords()[0]

	item := app.ProjectRecord(rec, domain.NewContentSelection(domain.FieldSKU))

	assert.Equal(t, int64(101), item.ID)
	assert.Equal(t, "Walnut Desk", item.Name)
	assert.Equal(t, "$249.00", item.Price)
	assert.Equal(t, "WD-101", item.SKU)
	assert.Empty(t, item.Categories)
	assert.Empty(t, item.ShortDescription)
	assert.Empty(t, item.LongDescription)
	assert.Empty(t, item.ImageRef)
}

func TestProjectRecord_AllFields(t *testing.T) {
	rec := sampleRecords()[0]

	item := app.ProjectRecord(rec, domain.NewContentSelection(domain.AllContentFields()...))

	assert.Equal(t, "WD-101", item.SKU)
	assert.Equal(t, "Furniture, Office", item.Categories)
	assert.Equal(t, "<p>Solid walnut</p>", item.ShortDescription)
	assert.Equal(t, "<p>Hand finished in small batches.</p>", item.LongDescription)
}

func TestItemProjector_Project(t *testing.T) {
	ctx := context.Background()
	records := sampleRecords()

	source := new(MockCatalogSource)
	// returned out of order and without item 150
	source.On("FindByIDs", ctx, []int64{102, 150, 101}).Return([]domain.ProductRecord{records[0], records[1]}, nil)
	images := new(MockImageResolver)
	images.On("Resolve", ctx, "https://shop.example.com/img/101.jpg").Return("https://shop.example.com/img/101.jpg", true)

	projector := app.NewItemProjector(source, images, nil)
	cfg := domain.DefaultRenderConfig()

	items, err := projector.Project(ctx, domain.ResolvedSelection{102, 150, 101}, cfg)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, int64(102), items[0].ID)
	assert.Equal(t, int64(101), items[1].ID)
	assert.Empty(t, items[0].ImageRef)
	assert.Equal(t, "https://shop.example.com/img/101.jpg", items[1].ImageRef)
	assert.Empty(t, items[1].Categories, "categories are not selected by default")

	source.AssertExpectations(t)
	images.AssertExpectations(t)
}

func TestItemProjector_UnresolvedImageIsOmitted(t *testing.T) {
	ctx := context.Background()
	records := sampleRecords()

	source := new(MockCatalogSource)
	source.On("FindByIDs", ctx, []int64{101}).Return([]domain.ProductRecord{records[0]}, nil)
	images := new(MockImageResolver)
	images.On("Resolve", ctx, records[0].ImageRef).Return("", false)

	items, err := app.NewItemProjector(source, images, nil).Project(ctx, domain.ResolvedSelection{101}, domain.DefaultRenderConfig())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Empty(t, items[0].ImageRef)
}

func TestItemProjector_EmptySelection(t *testing.T) {
	source := new(MockCatalogSource)

	items, err := app.NewItemProjector(source, nil, nil).Project(context.Background(), domain.ResolvedSelection{}, domain.DefaultRenderConfig())
	require.NoError(t, err)
	assert.Empty(t, items)
	source.AssertNotCalled(t, "FindByIDs")
}

func TestItemProjector_SourceError(t *testing.T) {
	ctx := context.Background()
	dbErr := errors.New("timeout")
	source := new(MockCatalogSource)
	source.On("FindByIDs", ctx, []int64{1}).Return(nil, dbErr)

	_, err := app.NewItemProjector(source, nil, nil).Project(ctx, domain.ResolvedSelection{1}, domain.DefaultRenderConfig())
	assert.ErrorIs(t, err, dbErr)
}
