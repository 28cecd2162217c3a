package domain

import "time"

// Recommend is a canonical recommendation reason ("cheap", "clean design").
// Like Tag it is a deduplicated value object: created on first use, shared by
// every recommendation citing the same reason text, never mutated.
type Recommend struct {
	ID        int64     `json:"id"         gorm:"primaryKey;autoIncrement"`
	Value     string    `json:"value"      gorm:"type:varchar(100);not null;uniqueIndex:ux_recommends_value"`
	CreatedAt time.Time `json:"created_at" gorm:"not null"`
}

// TableName returns the database table name for Recommend.
func (Recommend) TableName() string { return "recommends" }

// RecommendProduct is one member's endorsement of one post for one reason.
// The (member, reason, post) triple is unique; the database index is the
// authoritative guard behind the service-level pre-check, so a lost race
// still cannot produce a duplicate row.
type RecommendProduct struct {
	ID            int64     `json:"id"              gorm:"primaryKey;autoIncrement"`
	RecommendID   int64     `json:"recommend_id"    gorm:"not null;uniqueIndex:ux_member_recommend_post,priority:2"`
	ProductPostID int64     `json:"product_post_id" gorm:"not null;uniqueIndex:ux_member_recommend_post,priority:3;index"`
	MemberID      int64     `json:"member_id"       gorm:"not null;uniqueIndex:ux_member_recommend_post,priority:1;index"`
	Content       string    `json:"content"         gorm:"type:text;not null"`
	CreatedAt     time.Time `json:"created_at"      gorm:"not null"`

	Recommend Recommend   `json:"-" gorm:"foreignKey:RecommendID;references:ID"`
	Post      ProductPost `json:"-" gorm:"foreignKey:ProductPostID;references:ID"`
}

// TableName returns the database table name for RecommendProduct.
func (RecommendProduct) TableName() string { return "recommend_products" }
