package domain

import "time"

// Media is one image of a post's current snapshot, in display order.
type Media struct {
	URL      string `json:"url"`
	Sequence int    `json:"sequence"`
}

// PostView is the denormalized read projection served by the feed queries:
// the post joined with its author profile, current snapshot, pricing plan,
// tag set, image list, and product links. All three feed shapes (global,
// by author, by recommender) and the single-post lookup return this type.
//
// Reason is populated only by the recommender feed: it carries the reason
// text of the requesting member's own recommendation for that post.
type PostView struct {
	ID             int64     `json:"id"`
	Nickname       string    `json:"nickname"`
	UserHandle     string    `json:"user_handle"`
	CreatedAt      time.Time `json:"created_at"`
	IsMaker        bool      `json:"is_maker"`
	AvatarURL      string    `json:"avatar_url"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	PricingPlan    string    `json:"pricing_plan"`
	RecommendCount int64     `json:"recommend_count"`
	Tags           []string  `json:"tags"`
	Images         []Media   `json:"images"`
	URLs           []string  `json:"urls"`
	Reason         string    `json:"reason,omitempty"`
}
