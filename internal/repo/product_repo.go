// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for products,
// their external links, and maker registrations.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/als904204/detalk-api/internal/domain"
)

// FindProductByName looks a product up by exact name, or ErrNotFound.
func FindProductByName(ctx context.Context, db *gorm.DB, name string) (*domain.Product, error) {
	var p domain.Product
	if err := db.WithContext(ctx).Where("name = ?", name).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProduct inserts a product row.
func CreateProduct(ctx context.Context, db *gorm.DB, name string, now time.Time) (*domain.Product, error) {
	p := &domain.Product{Name: name, CreatedAt: now}
	if err := db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// ResolveProduct returns the product for a name, creating it on first use.
// Lost duplicate-insert races fall back to a fresh lookup.
func ResolveProduct(ctx context.Context, db *gorm.DB, name string, now time.Time) (*domain.Product, error) {
	if p, err := FindProductByName(ctx, db, name); err == nil {
		return p, nil
	} else if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	p, err := CreateProduct(ctx, db, name, now)
	if err == nil {
		return p, nil
	}
	if !IsDuplicate(err) {
		return nil, err
	}
	return FindProductByName(ctx, db, name)
}

// AddProductLinks attaches external URLs to a product, silently skipping
// URLs the product already carries.
func AddProductLinks(ctx context.Context, db *gorm.DB, productID int64, urls []string) error {
	if len(urls) == 0 {
		return nil
	}
	rows := make([]domain.ProductLink, 0, len(urls))
	seen := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		rows = append(rows, domain.ProductLink{ProductID: productID, URL: u})
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows).Error
}

// EnsureProductMaker registers memberID as a maker of productID, doing
// nothing when the registration already exists.
func EnsureProductMaker(ctx context.Context, db *gorm.DB, productID, memberID int64, now time.Time) error {
	rec := &domain.ProductMaker{
		ProductID: productID,
		MemberID:  memberID,
		CreatedAt: now,
	}
	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(rec).Error
	if err != nil && IsDuplicate(err) {
		return nil
	}
	return err
}

// FindPricingPlanByName resolves a pricing plan by its catalog name, or
// ErrNotFound for names outside the seeded catalog.
func FindPricingPlanByName(ctx context.Context, db *gorm.DB, name string) (*domain.PricingPlan, error) {
	var plan domain.PricingPlan
	if err := db.WithContext(ctx).Where("name = ?", name).First(&plan).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}
