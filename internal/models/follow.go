package models

import (
	"time"

	"github.com/google/uuid"
)

// Follow is a directed edge: follower reads followee.
type Follow struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FollowerID string    `gorm:"size:50;not null;uniqueIndex:idx_follows_edge;index" json:"follower_id"`
	FolloweeID string    `gorm:"size:50;not null;uniqueIndex:idx_follows_edge;index" json:"followee_id"`
	CreatedAt  time.Time `json:"created_at"`
	Follower   User      `gorm:"foreignKey:FollowerID" json:"-"`
	Followee   User      `gorm:"foreignKey:FolloweeID" json:"-"`
}

func (Follow) TableName() string {
	return "follows"
}
