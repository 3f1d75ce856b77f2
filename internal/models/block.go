package models

import (
	"time"

	"github.com/google/uuid"
)

// Block is one-directional in storage; creation forces the follow edges in
// both directions to be severed (see RelationshipService.Block).
type Block struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	BlockerID string    `gorm:"size:50;not null;uniqueIndex:idx_blocks_edge;index" json:"blocker_id"`
	BlockedID string    `gorm:"size:50;not null;uniqueIndex:idx_blocks_edge;index" json:"blocked_id"`
	CreatedAt time.Time `json:"created_at"`
	Blocker   User      `gorm:"foreignKey:BlockerID" json:"-"`
	Blocked   User      `gorm:"foreignKey:BlockedID" json:"-"`
}

func (Block) TableName() string {
	return "blocks"
}
