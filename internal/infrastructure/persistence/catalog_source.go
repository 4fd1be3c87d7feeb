package persistence

import (
	"context"
	"fmt"

	"github.com/mg-gouda/e-catalogue-for-woocommerce/internal/domain/catalogue"
	"github.com/mg-gouda/e-catalogue-for-woocommerce/internal/infrastructure/persistence/models"
	"golang.org/x/text/language"
	"gorm.io/gorm"
)

// GormCatalogSource implements catalogue.CatalogSource over the products,
// categories and product_categories tables. Only published products are
// considered live.
type GormCatalogSource struct {
	db       *gorm.DB
	locale   language.Tag
	currency string
}

// CatalogSourceOption configures a GormCatalogSource
type CatalogSourceOption func(*GormCatalogSource)

// WithPriceLocale sets the locale and fallback currency used to format prices
func WithPriceLocale(tag language.Tag, currency string) CatalogSourceOption {
	return func(s *GormCatalogSource) {
		s.locale = tag
		if currency != "" {
			s.currency = currency
		}
	}
}

// NewGormCatalogSource creates a new GormCatalogSource
func NewGormCatalogSource(db *gorm.DB, opts ...CatalogSourceOption) *GormCatalogSource {
	s := &GormCatalogSource{
		db:       db,
		locale:   language.AmericanEnglish,
		currency: "USD",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FilterExisting returns the published products among ids in the order given
func (s *GormCatalogSource) FilterExisting(ctx context.Context, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return []int64{}, nil
	}

	var found []int64
	if err := s.db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Where("id IN ? AND status = ?", ids, models.ProductStatusPublish).
		Pluck("id", &found).Error; err != nil {
		return nil, fmt.Errorf("failed to filter products: %w", err)
	}

	live := make(map[int64]struct{}, len(found))
	for _, id := range found {
		live[id] = struct{}{}
	}
	out := make([]int64, 0, len(found))
	for _, id := range ids {
		if _, ok := live[id]; ok {
			delete(live, id)
			out = append(out, id)
		}
	}
	return out, nil
}

// FindIDsByCategories returns published products in any of the categories,
// newest first
func (s *GormCatalogSource) FindIDsByCategories(ctx context.Context, categoryIDs []int64) ([]int64, error) {
	if len(categoryIDs) == 0 {
		return []int64{}, nil
	}

	var rows []struct {
		ID int64
	}
	err := s.db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Select("products.id, products.created_at").
		Distinct().
		Joins("JOIN product_categories pc ON pc.product_id = products.id").
		Where("pc.category_id IN ? AND products.status = ?", categoryIDs, models.ProductStatusPublish).
		Order("products.created_at DESC, products.id DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find products by category: %w", err)
	}

	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	return ids, nil
}

// FindByIDs loads the published products among ids with their categories
func (s *GormCatalogSource) FindByIDs(ctx context.Context, ids []int64) ([]catalogue.ProductRecord, error) {
	if len(ids) == 0 {
		return []catalogue.ProductRecord{}, nil
	}

	var products []models.ProductModel
	err := s.db.WithContext(ctx).
		Preload("Categories", func(db *gorm.DB) *gorm.DB {
			return db.Order("categories.name ASC")
		}).
		Where("id IN ? AND status = ?", ids, models.ProductStatusPublish).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	records := make([]catalogue.ProductRecord, 0, len(products))
	for i := range products {
		records = append(records, products[i].ToRecord(s.locale, s.currency))
	}
	return records, nil
}

// FindCategoryIDs returns the category IDs of one product
func (s *GormCatalogSource) FindCategoryIDs(ctx context.Context, id int64) ([]int64, error) {
	var categoryIDs []int64
	if err := s.db.WithContext(ctx).
		Model(&models.ProductCategoryModel{}).
		Where("product_id = ?", id).
		Order("category_id ASC").
		Pluck("category_id", &categoryIDs).Error; err != nil {
		return nil, fmt.Errorf("failed to load product categories: %w", err)
	}
	return categoryIDs, nil
}

// AutoMigrate creates the catalog tables. It is meant for tests and local
// sqlite databases; production schemas come from the SQL migrations.
func AutoMigrate(db *gorm.DB) error {
	if err := db.SetupJoinTable(&models.ProductModel{}, "Categories", &models.ProductCategoryModel{}); err != nil {
		return fmt.Errorf("failed to set up product_categories: %w", err)
	}
	return db.AutoMigrate(&models.CategoryModel{}, &models.ProductModel{}, &models.ProductCategoryModel{})
}
