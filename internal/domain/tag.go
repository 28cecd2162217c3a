package domain

// Tag is a canonical, deduplicated label shared by many snapshots. Rows are
// created lazily on first use and never updated or deleted, so a resolved ID
// stays valid for the lifetime of the record.
type Tag struct {
	ID   int64  `json:"id"   gorm:"primaryKey;autoIncrement"`
	Name string `json:"name" gorm:"type:varchar(100);not null;uniqueIndex:ux_tags_name"`
}

// TableName returns the database table name for Tag.
func (Tag) TableName() string { return "tags" }
