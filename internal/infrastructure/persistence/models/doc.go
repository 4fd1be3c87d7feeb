// Package models contains GORM persistence models for the catalog tables.
// They are kept apart from the domain types so the domain layer stays free
// of ORM concerns; repositories map them to domain records.
//
// Tables:
//   - products: one row per storefront item, with its lifecycle status
//   - categories: product categories
//   - product_categories: the many-to-many join between the two
package models
