package domain

import "time"

// Product is the underlying product a post advertises. Products are
// found-or-created by exact name when a post is published; multiple posts
// may reference the same product over time.
type Product struct {
	ID        int64     `json:"id"         gorm:"primaryKey;autoIncrement"`
	Name      string    `json:"name"       gorm:"type:varchar(255);not null;uniqueIndex:ux_products_name"`
	CreatedAt time.Time `json:"created_at" gorm:"not null"`
}

// TableName returns the database table name for Product.
func (Product) TableName() string { return "products" }

// ProductLink is an external URL attached to a product (homepage, store
// page). Links are deduplicated per product.
type ProductLink struct {
	ID        int64  `json:"id"         gorm:"primaryKey;autoIncrement"`
	ProductID int64  `json:"product_id" gorm:"not null;uniqueIndex:ux_product_links,priority:1"`
	URL       string `json:"url"        gorm:"type:varchar(2048);not null;uniqueIndex:ux_product_links,priority:2"`
}

// TableName returns the database table name for ProductLink.
func (ProductLink) TableName() string { return "product_links" }

// ProductMaker marks a member as a maker of a product. The feed projection
// reports whether a post's author is a maker of the product it advertises.
type ProductMaker struct {
	ID        int64     `json:"id"         gorm:"primaryKey;autoIncrement"`
	ProductID int64     `json:"product_id" gorm:"not null;uniqueIndex:ux_product_makers,priority:1"`
	MemberID  int64     `json:"member_id"  gorm:"not null;uniqueIndex:ux_product_makers,priority:2"`
	CreatedAt time.Time `json:"created_at" gorm:"not null"`
}

// TableName returns the database table name for ProductMaker.
func (ProductMaker) TableName() string { return "product_makers" }

// PricingPlan is a catalog row naming a pricing model ("Free", "Paid").
// The catalog is seeded at startup; snapshots reference plans by ID.
type PricingPlan struct {
	ID   int64  `json:"id"   gorm:"primaryKey;autoIncrement"`
	Name string `json:"name" gorm:"type:varchar(100);not null;uniqueIndex:ux_pricing_plans_name"`
}

// TableName returns the database table name for PricingPlan.
func (PricingPlan) TableName() string { return "pricing_plans" }
