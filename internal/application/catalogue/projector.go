package catalogue

import (
	"context"
	"fmt"

	"github.com/mg-gouda/e-catalogue-for-woocommerce/internal/domain/catalogue"
	"go.uber.org/zap"
)

// ItemProjector maps resolved IDs to display records
type ItemProjector struct {
	source catalogue.CatalogSource
	images catalogue.ImageResolver
	logger *zap.Logger
}

// NewItemProjector creates a new ItemProjector. images may be nil, in which
// case every item is rendered without an image.
func NewItemProjector(source catalogue.CatalogSource, images catalogue.ImageResolver, logger *zap.Logger) *ItemProjector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ItemProjector{
		source: source,
		images: images,
		logger: logger,
	}
}

// Project loads the items for ids in order. IDs that no longer resolve to a
// live item are skipped.
func (p *ItemProjector) Project(ctx context.Context, ids catalogue.ResolvedSelection, cfg catalogue.RenderConfig) ([]catalogue.CatalogItem, error) {
	if ids.IsEmpty() {
		return []catalogue.CatalogItem{}, nil
	}

	records, err := p.source.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	byID := make(map[int64]catalogue.ProductRecord, len(records))
	for _, rec := range records {
		byID[rec.ID] = rec
	}

	items := make([]catalogue.CatalogItem, 0, len(ids))
	for _, id := range ids {
		rec, ok := byID[id]
		if !ok {
			p.logger.Debug("skipping product that no longer exists", zap.Int64("product_id", id))
			continue
		}

		item := ProjectRecord(rec, cfg.ContentSelection)
		item.ImageRef = p.resolveImage(ctx, rec.ImageRef)
		items = append(items, item)
	}

	return items, nil
}

func (p *ItemProjector) resolveImage(ctx context.Context, ref string) string {
	if ref == "" || p.images == nil {
		return ""
	}
	resolved, ok := p.images.Resolve(ctx, ref)
	if !ok {
		p.logger.Debug("omitting unresolved image", zap.String("ref", ref))
		return ""
	}
	return resolved
}

// ProjectRecord copies the always-shown fields of rec and the optional
// fields named by sel. Fields outside sel stay empty. The image reference
// is left for the caller to resolve.
func ProjectRecord(rec catalogue.ProductRecord, sel catalogue.ContentSelection) catalogue.CatalogItem {
	item := catalogue.CatalogItem{
		ID:    rec.ID,
		Name:  rec.Name,
		Price: rec.Price,
	}
	if sel.Has(catalogue.FieldSKU) {
		item.SKU = rec.SKU
	}
	if sel.Has(catalogue.FieldCategories) {
		item.Categories = rec.CategoryLabel()
	}
	if sel.Has(catalogue.FieldShortDescription) {
		item.ShortDescription = rec.ShortDescription
	}
	if sel.Has(catalogue.FieldLongDescription) {
		item.LongDescription = rec.LongDescription
	}
	return item
}
