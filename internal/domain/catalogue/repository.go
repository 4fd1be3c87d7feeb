package catalogue

import "context"

// CatalogSource supplies product records. Implementations only read.
type CatalogSource interface {
	// FilterExisting returns the subset of ids that reference live items,
	// in the order given
	FilterExisting(ctx context.Context, ids []int64) ([]int64, error)

	// FindIDsByCategories returns the distinct IDs of live items belonging
	// to any of the categories
	FindIDsByCategories(ctx context.Context, categoryIDs []int64) ([]int64, error)

	// FindByIDs returns the live records among ids. Order is not guaranteed
	// and missing IDs are simply absent.
	FindByIDs(ctx context.Context, ids []int64) ([]ProductRecord, error)

	// FindCategoryIDs returns the categories of one item
	FindCategoryIDs(ctx context.Context, id int64) ([]int64, error)
}

// SettingsStore supplies the current settings snapshot
type SettingsStore interface {
	Snapshot() RenderConfig
}

// ImageResolver turns a stored image reference into a form the renderer can
// dereference (an absolute URL or an inline data URI). ok is false when the
// image cannot be resolved.
type ImageResolver interface {
	Resolve(ctx context.Context, ref string) (resolved string, ok bool)
}
