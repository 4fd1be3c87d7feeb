package catalogue

import (
	"context"
	"fmt"

	"github.com/mg-gouda/e-catalogue-for-woocommerce/internal/domain/catalogue"
	"go.uber.org/zap"
)

// SelectionResolver turns a generation request into the ordered list of
// live item IDs that go into the document
type SelectionResolver struct {
	source catalogue.CatalogSource
	logger *zap.Logger
}

// NewSelectionResolver creates a new SelectionResolver
func NewSelectionResolver(source catalogue.CatalogSource, logger *zap.Logger) *SelectionResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SelectionResolver{
		source: source,
		logger: logger,
	}
}

// Resolve returns the selection for req. Explicit IDs win over categories,
// even when none of them survive validation. A blank request fails with
// InvalidRequest; a request that matches nothing yields an empty selection.
func (r *SelectionResolver) Resolve(ctx context.Context, req catalogue.GenerationRequest) (catalogue.ResolvedSelection, error) {
	if req.IsBlank() {
		return nil, catalogue.ErrInvalidRequest
	}

	if len(req.ExplicitIDs) > 0 {
		ids := catalogue.NormalizeIDs(req.ExplicitIDs)
		if len(ids) == 0 {
			r.logger.Debug("explicit selection has no valid IDs",
				zap.Strings("tokens", req.ExplicitIDs))
			return catalogue.ResolvedSelection{}, nil
		}

		existing, err := r.source.FilterExisting(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("failed to check product existence: %w", err)
		}
		return keepOrder(ids, existing), nil
	}

	categoryIDs := catalogue.NormalizeCategoryIDs(req.CategoryIDs)
	if len(categoryIDs) == 0 {
		return catalogue.ResolvedSelection{}, nil
	}

	ids, err := r.source.FindIDsByCategories(ctx, categoryIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to find products by category: %w", err)
	}
	return keepOrder(ids, ids), nil
}

// keepOrder returns the members of present in the order of want, once each
func keepOrder(want, present []int64) catalogue.ResolvedSelection {
	live := make(map[int64]struct{}, len(present))
	for _, id := range present {
		live[id] = struct{}{}
	}
	out := make(catalogue.ResolvedSelection, 0, len(present))
	for _, id := range want {
		if _, ok := live[id]; !ok {
			continue
		}
		delete(live, id)
		out = append(out, id)
	}
	return out
}
