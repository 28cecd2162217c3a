package domain

// MemberProfile is the read-only projection of a member consumed by the feed
// queries: nickname, handle, and avatar. Profile lifecycle (signup, edits)
// is owned by the member service and out of scope here.
type MemberProfile struct {
	ID         int64  `json:"id"          gorm:"primaryKey;autoIncrement"`
	MemberID   int64  `json:"member_id"   gorm:"not null;uniqueIndex:ux_member_profiles_member"`
	Nickname   string `json:"nickname"    gorm:"type:varchar(100);not null"`
	UserHandle string `json:"user_handle" gorm:"type:varchar(100);not null"`
	AvatarID   *int64 `json:"avatar_id,omitempty"`
}

// TableName returns the database table name for MemberProfile.
func (MemberProfile) TableName() string { return "member_profiles" }

// AttachmentFile is an uploaded file reference with its resolved public URL.
// Used both for member avatars and for snapshot images. Upload and URL
// signing happen elsewhere; this layer only reads.
type AttachmentFile struct {
	ID  int64  `json:"id"  gorm:"primaryKey;autoIncrement"`
	URL string `json:"url" gorm:"type:varchar(2048);not null"`
}

// TableName returns the database table name for AttachmentFile.
func (AttachmentFile) TableName() string { return "attachment_files" }
