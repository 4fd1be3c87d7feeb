package models

import (
	"github.com/mg-gouda/e-catalogue-for-woocommerce/internal/domain/catalogue"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
)

// Product statuses as stored by the storefront
const (
	ProductStatusPublish = "publish"
	ProductStatusDraft   = "draft"
	ProductStatusPrivate = "private"
	ProductStatusTrash   = "trash"
)

// ProductModel is the persistence model for a storefront product
type ProductModel struct {
	BaseModel
	Name             string          `gorm:"type:varchar(200);not null"`
	SKU              string          `gorm:"column:sku;type:varchar(100);index"`
	Status           string          `gorm:"type:varchar(20);not null;default:'publish';index"`
	Price            decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Currency         string          `gorm:"type:varchar(3)"`
	ShortDescription string          `gorm:"type:text"`
	LongDescription  string          `gorm:"type:text"`
	ImageRef         string          `gorm:"type:varchar(500)"`
	Categories       []CategoryModel `gorm:"many2many:product_categories;foreignKey:ID;joinForeignKey:ProductID;references:ID;joinReferences:CategoryID"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// IsLive reports whether the product may appear in a catalogue
func (m *ProductModel) IsLive() bool {
	return m.Status == ProductStatusPublish
}

// ToRecord converts the model to a domain record. The price is formatted
// for tag in the product currency, or defaultCurrency when it has none.
func (m *ProductModel) ToRecord(tag language.Tag, defaultCurrency string) catalogue.ProductRecord {
	rec := catalogue.ProductRecord{
		ID:               m.ID,
		Name:             m.Name,
		SKU:              m.SKU,
		ShortDescription: m.ShortDescription,
		LongDescription:  m.LongDescription,
		ImageRef:         m.ImageRef,
	}

	code := m.Currency
	if code == "" {
		code = defaultCurrency
	}
	rec.Price = FormatPrice(m.Price, code, tag)

	for _, c := range m.Categories {
		rec.Categories = append(rec.Categories, c.Name)
		rec.CategoryIDs = append(rec.CategoryIDs, c.ID)
	}
	return rec
}

// CategoryModel is the persistence model for a product category
type CategoryModel struct {
	BaseModel
	Name     string `gorm:"type:varchar(100);not null"`
	Slug     string `gorm:"type:varchar(100);not null;uniqueIndex"`
	ParentID *int64 `gorm:"index"`
}

// TableName returns the table name for GORM
func (CategoryModel) TableName() string {
	return "categories"
}

// ProductCategoryModel is the join row between products and categories
type ProductCategoryModel struct {
	ProductID  int64 `gorm:"primaryKey"`
	CategoryID int64 `gorm:"primaryKey;index"`
}

// TableName returns the table name for GORM
func (ProductCategoryModel) TableName() string {
	return "product_categories"
}
