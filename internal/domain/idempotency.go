package domain

import "time"

// PostIdempotencyKey records a client-supplied submission key that has been
// consumed by a successful post creation. A key is written once and never
// expires; a second claim of the same key is rejected, which is what makes
// create-post retries safe.
type PostIdempotencyKey struct {
	Key       string    `gorm:"type:char(36);primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the database table name for PostIdempotencyKey.
func (PostIdempotencyKey) TableName() string { return "product_post_idempotency_keys" }
