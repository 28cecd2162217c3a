// Package domain defines the persistence models for product posts, their
// content snapshots, tags, recommendations, and supporting lookup tables.
// These types are mapped with GORM and form the core data layer of the
// application.
package domain

import "time"

// ProductPost is the post aggregate root. A post is created once, then
// mutated only by snapshot-pointer advances and recommend-count increments.
// It is never physically deleted.
//
// Fields:
//   - ID: monotonically assigned numeric key; doubles as the feed cursor.
//   - WriterID: owning member.
//   - ProductID: the product this post is about.
//   - RecommendCount: denormalized counter, kept consistent with the
//     recommend_products rows via atomic increments.
type ProductPost struct {
	ID             int64     `json:"id"              gorm:"primaryKey;autoIncrement"`
	WriterID       int64     `json:"writer_id"       gorm:"not null;index"`
	ProductID      int64     `json:"product_id"      gorm:"not null;index"`
	RecommendCount int64     `json:"recommend_count" gorm:"not null;default:0"`
	CreatedAt      time.Time `json:"created_at"      gorm:"not null"`
}

// TableName returns the database table name for ProductPost.
func (ProductPost) TableName() string { return "product_posts" }

// ProductPostSnapshot is one immutable version of a post's editable content.
// Snapshots are append-only: an update writes a new row and repoints the
// post's last-snapshot record; old rows remain for history.
type ProductPostSnapshot struct {
	ID            int64     `json:"id"              gorm:"primaryKey;autoIncrement"`
	PostID        int64     `json:"post_id"         gorm:"not null;index"`
	Title         string    `json:"title"           gorm:"type:varchar(255);not null"`
	Description   string    `json:"description"     gorm:"type:text;not null"`
	PricingPlanID int64     `json:"pricing_plan_id" gorm:"not null"`
	CreatedAt     time.Time `json:"created_at"      gorm:"not null"`

	Post ProductPost `json:"-" gorm:"foreignKey:PostID;references:ID"`
}

// TableName returns the database table name for ProductPostSnapshot.
func (ProductPostSnapshot) TableName() string { return "product_post_snapshots" }

// ProductPostLastSnapshot is the single indirection record naming which
// snapshot is currently active for a post. Keeping the pointer in its own
// one-row-per-post table makes a pointer flip a single atomic write and
// lets reads follow one join instead of scanning for max(created_at).
type ProductPostLastSnapshot struct {
	PostID     int64 `json:"post_id"     gorm:"primaryKey"`
	SnapshotID int64 `json:"snapshot_id" gorm:"not null"`
}

// TableName returns the database table name for ProductPostLastSnapshot.
func (ProductPostLastSnapshot) TableName() string { return "product_post_last_snapshots" }

// ProductPostSnapshotImage attaches an image file to a snapshot. Display
// order is the explicit Sequence field, not insertion order.
type ProductPostSnapshotImage struct {
	SnapshotID int64 `json:"snapshot_id" gorm:"primaryKey;autoIncrement:false"`
	Sequence   int   `json:"sequence"    gorm:"primaryKey;autoIncrement:false"`
	FileID     int64 `json:"file_id"     gorm:"not null"`
}

// TableName returns the database table name for ProductPostSnapshotImage.
func (ProductPostSnapshotImage) TableName() string { return "product_post_snapshot_images" }

// ProductPostSnapshotTag links a snapshot to a canonical tag. The pair is
// unique; tag sets carry no order.
type ProductPostSnapshotTag struct {
	SnapshotID int64 `json:"snapshot_id" gorm:"primaryKey;autoIncrement:false"`
	TagID      int64 `json:"tag_id"      gorm:"primaryKey;autoIncrement:false"`
}

// TableName returns the database table name for ProductPostSnapshotTag.
func (ProductPostSnapshotTag) TableName() string { return "product_post_snapshot_tags" }
