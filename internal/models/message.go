package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ReplyRef is a denormalized snapshot of the message being replied to. It is a
// copy, not a live reference: a later rename of the quoted author never
// rewrites historical snippets.
type ReplyRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Text string `json:"text"`
}

// Message carries sender/recipient display-name snapshots so the log stays
// stable across profile renames. RootID absent means the message is itself a
// thread root. IsRead is recipient-scoped.
type Message struct {
	ID        uuid.UUID                    `gorm:"type:uuid;primaryKey" json:"id"`
	FromID    string                       `gorm:"size:50;not null;index" json:"from_id"`
	FromName  string                       `gorm:"size:100;not null" json:"from_name"`
	ToID      string                       `gorm:"size:50;not null;index" json:"to_id"`
	ToName    string                       `gorm:"size:100;not null" json:"to_name"`
	Body      string                       `gorm:"type:text;not null" json:"body"`
	IsRead    bool                         `gorm:"not null;default:false" json:"is_read"`
	ReplyTo   datatypes.JSONType[ReplyRef] `gorm:"type:jsonb" json:"-"`
	RootID    *uuid.UUID                   `gorm:"type:uuid;index" json:"root_id,omitempty"`
	CreatedAt time.Time                    `gorm:"index" json:"created_at"`
}

// Reply returns the reply snapshot, or nil when the message is not a reply.
func (m *Message) Reply() *ReplyRef {
	ref := m.ReplyTo.Data()
	if ref.ID == "" {
		return nil
	}
	return &ref
}

// ThreadRoot resolves the thread this message belongs to: its RootID if set,
// otherwise the message itself.
func (m *Message) ThreadRoot() uuid.UUID {
	if m.RootID != nil {
		return *m.RootID
	}
	return m.ID
}
