package dto

import "time"

type SendMessageRequest struct {
	ToID string `json:"to_id"`
	Body string `json:"body"`
	// ReplyToID references the message being quoted; the server snapshots
	// its id/name/text into the new message. It does not start a thread.
	ReplyToID *string `json:"reply_to_id"`
}

type ReplyRequest struct {
	Body string `json:"body"`
}

type ReplySnippet struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Text string `json:"text"`
}

type MessageResponse struct {
	ID        string        `json:"id"`
	FromID    string        `json:"from_id"`
	FromName  string        `json:"from_name"`
	ToID      string        `json:"to_id"`
	ToName    string        `json:"to_name"`
	Body      string        `json:"body"`
	IsRead    bool          `json:"is_read"`
	ReplyTo   *ReplySnippet `json:"reply_to,omitempty"`
	RootID    *string       `json:"root_id,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// InboxGroup summarizes one conversation counterpart in the received or sent
// box: message count, newest timestamp and (for received) unread presence.
type InboxGroup struct {
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Count     int       `json:"count"`
	Latest    time.Time `json:"latest"`
	HasUnread bool      `json:"has_unread"`
}

type UnreadCountResponse struct {
	Count int64 `json:"count"`
}
