package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/arigatojournal/arigato-backend/internal/identity"
	"github.com/arigatojournal/arigato-backend/internal/models"
	"github.com/arigatojournal/arigato-backend/internal/notify"
)

var (
	ErrNoSender  = errors.New("authenticated sender required")
	ErrEmptyBody = errors.New("message body is required")
)

// SendOptions carries the optional reply fields of a send. ReplyTo is a
// denormalized quote of an earlier message; RootID links the new message
// into an existing thread.
type SendOptions struct {
	ReplyTo *models.ReplyRef
	RootID  *uuid.UUID
}

// MessageService owns the append-only message log and the visibility rules
// over it.
type MessageService struct {
	db         *gorm.DB
	dispatcher notify.Dispatcher
}

func NewMessageService(db *gorm.DB, dispatcher notify.Dispatcher) *MessageService {
	return &MessageService{db: db, dispatcher: dispatcher}
}

// Send appends a message from the caller to a recipient. Sender and
// recipient display names are snapshotted onto the message so the log reads
// the same even after a rename. A push notification is dispatched
// best-effort after the write.
func (s *MessageService) Send(ctx context.Context, p identity.Principal, toID, body string, opts SendOptions) (*models.Message, error) {
	if p.UserID == "" {
		return nil, ErrNoSender
	}
	if strings.TrimSpace(body) == "" {
		return nil, ErrEmptyBody
	}

	var sender models.User
	if err := s.db.WithContext(ctx).Where("user_id = ?", p.UserID).First(&sender).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoSender
		}
		return nil, err
	}

	var recipient models.User
	if err := s.db.WithContext(ctx).Where("user_id = ?", toID).First(&recipient).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	rootID := opts.RootID
	if rootID != nil {
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.Message{}).
			Where("id = ?", *rootID).
			Count(&count).Error; err != nil {
			return nil, err
		}
		if count == 0 {
			slog.Warn("thread root no longer exists, sending unthreaded",
				slog.String("root_id", rootID.String()),
				slog.String("from_id", p.UserID))
			rootID = nil
		}
	}

	msg := models.Message{
		ID:       uuid.New(),
		FromID:   sender.UserID,
		FromName: sender.Name,
		ToID:     recipient.UserID,
		ToName:   recipient.Name,
		Body:     body,
		IsRead:   false,
		RootID:   rootID,
	}
	if opts.ReplyTo != nil {
		msg.ReplyTo = datatypes.NewJSONType(*opts.ReplyTo)
	}

	if err := s.db.WithContext(ctx).Create(&msg).Error; err != nil {
		return nil, err
	}

	if s.dispatcher != nil {
		payload := notify.PushPayload{
			MessageID: msg.ID.String(),
			FromID:    msg.FromID,
			FromName:  msg.FromName,
			ToID:      msg.ToID,
			Body:      msg.Body,
		}
		if err := s.dispatcher.MessageCreated(ctx, payload); err != nil {
			slog.Error("push dispatch failed",
				slog.String("message_id", msg.ID.String()),
				slog.String("error", err.Error()))
		}
	}

	return &msg, nil
}

// ReplyRefFor builds a quote snapshot of an existing message. A missing
// message yields no snapshot rather than an error: the quote is decoration,
// not a reference that must hold.
func (s *MessageService) ReplyRefFor(ctx context.Context, messageID uuid.UUID) (*models.ReplyRef, error) {
	var msg models.Message
	err := s.db.WithContext(ctx).Where("id = ?", messageID).First(&msg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &models.ReplyRef{
		ID:   msg.ID.String(),
		Name: msg.FromName,
		Text: msg.Body,
	}, nil
}

// ReceivedFor returns the viewer's inbox, newest first. Messages from users
// the viewer has blocked are hidden; messages from users who blocked the
// viewer still show.
func (s *MessageService) ReceivedFor(ctx context.Context, viewerID string) ([]models.Message, error) {
	var msgs []models.Message
	err := s.db.WithContext(ctx).
		Where("to_id = ?", viewerID).
		Where("from_id NOT IN (?)", s.blockedBy(viewerID)).
		Order("created_at DESC").
		Find(&msgs).Error
	return msgs, err
}

// SentBy returns the viewer's own sent messages, newest first. The sent box
// is never filtered: your own words stay visible regardless of blocks.
func (s *MessageService) SentBy(ctx context.Context, viewerID string) ([]models.Message, error) {
	var msgs []models.Message
	err := s.db.WithContext(ctx).
		Where("from_id = ?", viewerID).
		Order("created_at DESC").
		Find(&msgs).Error
	return msgs, err
}

// Timeline returns every message with neither endpoint in the viewer's
// blocked set, newest first.
func (s *MessageService) Timeline(ctx context.Context, viewerID string) ([]models.Message, error) {
	var msgs []models.Message
	err := s.db.WithContext(ctx).
		Where("from_id NOT IN (?)", s.blockedBy(viewerID)).
		Where("to_id NOT IN (?)", s.blockedBy(viewerID)).
		Order("created_at DESC").
		Find(&msgs).Error
	return msgs, err
}

// MarkRead marks every message from one sender to the viewer as read in a
// single update.
func (s *MessageService) MarkRead(ctx context.Context, viewerID, fromID string) error {
	return s.db.WithContext(ctx).Model(&models.Message{}).
		Where("to_id = ? AND from_id = ? AND is_read = ?", viewerID, fromID, false).
		Update("is_read", true).Error
}

// UnreadCount counts unread inbox messages under the same visibility rules
// as ReceivedFor, so the badge never advertises a message the inbox hides.
func (s *MessageService) UnreadCount(ctx context.Context, viewerID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Message{}).
		Where("to_id = ? AND is_read = ?", viewerID, false).
		Where("from_id NOT IN (?)", s.blockedBy(viewerID)).
		Count(&count).Error
	return count, err
}

func (s *MessageService) blockedBy(viewerID string) *gorm.DB {
	return s.db.Model(&models.Block{}).
		Select("blocked_id").
		Where("blocker_id = ?", viewerID)
}
