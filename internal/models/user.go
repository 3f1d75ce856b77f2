package models

import (
	"time"
)

// DefaultAvatar is used until the user uploads an image or picks a glyph.
const DefaultAvatar = "👤"

// User is keyed by the handle chosen at registration. The handle is immutable;
// the display name is not. Avatar holds either a short glyph or an embedded
// data-URL image payload.
type User struct {
	UserID    string    `gorm:"primaryKey;size:50" json:"user_id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Password  string    `gorm:"not null" json:"-"`
	Bio       string    `gorm:"type:text" json:"bio"`
	Avatar    string    `gorm:"type:text" json:"avatar"`
	FCMToken  string    `gorm:"type:text" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
