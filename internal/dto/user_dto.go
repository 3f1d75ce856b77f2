package dto

import "time"

type ProfileResponse struct {
	UserID         string    `json:"user_id"`
	Name           string    `json:"name"`
	Bio            string    `json:"bio"`
	Avatar         string    `json:"avatar"`
	FollowerCount  int64     `json:"follower_count"`
	FollowingCount int64     `json:"following_count"`
	FollowsYou     bool      `json:"follows_you"`
	Relationship   string    `json:"relationship"`
	CreatedAt      time.Time `json:"created_at"`
}

// UpdateProfileRequest fields are pointers so callers can change one field
// without clearing the others.
type UpdateProfileRequest struct {
	Name   *string `json:"name"`
	Bio    *string `json:"bio"`
	Avatar *string `json:"avatar"`
}

type FCMTokenRequest struct {
	Token string `json:"token"`
}

type UserSummary struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}
