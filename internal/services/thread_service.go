package services

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/arigatojournal/arigato-backend/internal/dto"
	"github.com/arigatojournal/arigato-backend/internal/identity"
	"github.com/arigatojournal/arigato-backend/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

// ThreadService resolves conversation threads and inbox groupings on top of
// the message log.
type ThreadService struct {
	db       *gorm.DB
	messages *MessageService
}

func NewThreadService(db *gorm.DB, messages *MessageService) *ThreadService {
	return &ThreadService{db: db, messages: messages}
}

// Thread returns the full conversation containing the given message, oldest
// first. The thread is the root message plus everything pointing at it; a
// message with no root is its own root. A missing message yields an empty
// thread.
func (s *ThreadService) Thread(ctx context.Context, messageID uuid.UUID) ([]models.Message, error) {
	var target models.Message
	err := s.db.WithContext(ctx).Where("id = ?", messageID).First(&target).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return []models.Message{}, nil
	}
	if err != nil {
		return nil, err
	}

	root := target.ThreadRoot()
	var msgs []models.Message
	err = s.db.WithContext(ctx).
		Where("id = ? OR root_id = ?", root, root).
		Order("created_at ASC").
		Find(&msgs).Error
	return msgs, err
}

// Reply sends a message into the thread containing openedID, addressed to
// the other party of that message. The reply carries the thread root and
// quotes the other party's latest message in the thread, if any.
func (s *ThreadService) Reply(ctx context.Context, p identity.Principal, openedID uuid.UUID, body string) (*models.Message, error) {
	var opened models.Message
	err := s.db.WithContext(ctx).Where("id = ?", openedID).First(&opened).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMessageNotFound
	}
	if err != nil {
		return nil, err
	}

	otherID := opened.FromID
	if opened.FromID == p.UserID {
		otherID = opened.ToID
	}

	thread, err := s.Thread(ctx, openedID)
	if err != nil {
		return nil, err
	}

	opts := SendOptions{}
	root := opened.ThreadRoot()
	opts.RootID = &root

	for i := len(thread) - 1; i >= 0; i-- {
		if thread[i].FromID == otherID {
			opts.ReplyTo = &models.ReplyRef{
				ID:   thread[i].ID.String(),
				Name: thread[i].FromName,
				Text: thread[i].Body,
			}
			break
		}
	}

	return s.messages.Send(ctx, p, otherID, body, opts)
}

// ReceivedGroups groups the viewer's inbox by sender: message count, newest
// timestamp and whether anything is still unread, ordered by most recent
// conversation first. The sender's name comes from their newest message, so
// the inbox shows the latest name snapshot.
func (s *ThreadService) ReceivedGroups(ctx context.Context, viewerID string) ([]dto.InboxGroup, error) {
	msgs, err := s.messages.ReceivedFor(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	return groupByCounterpart(msgs, func(m models.Message) (string, string) {
		return m.FromID, m.FromName
	}, true), nil
}

// SentGroups groups the viewer's sent box by recipient.
func (s *ThreadService) SentGroups(ctx context.Context, viewerID string) ([]dto.InboxGroup, error) {
	msgs, err := s.messages.SentBy(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	return groupByCounterpart(msgs, func(m models.Message) (string, string) {
		return m.ToID, m.ToName
	}, false), nil
}

// ReceivedDetail returns the viewer's messages from one sender, newest
// first, and marks them read. The returned messages reflect their state as
// fetched, before the mark.
func (s *ThreadService) ReceivedDetail(ctx context.Context, p identity.Principal, fromID string) ([]models.Message, error) {
	msgs, err := s.messages.ReceivedFor(ctx, p.UserID)
	if err != nil {
		return nil, err
	}

	detail := make([]models.Message, 0, len(msgs))
	for _, m := range msgs {
		if m.FromID == fromID {
			detail = append(detail, m)
		}
	}

	if err := s.messages.MarkRead(ctx, p.UserID, fromID); err != nil {
		return nil, err
	}
	return detail, nil
}

// SentDetail returns the viewer's messages to one recipient, newest first.
// Nothing is marked: read state belongs to the recipient.
func (s *ThreadService) SentDetail(ctx context.Context, p identity.Principal, toID string) ([]models.Message, error) {
	msgs, err := s.messages.SentBy(ctx, p.UserID)
	if err != nil {
		return nil, err
	}

	detail := make([]models.Message, 0, len(msgs))
	for _, m := range msgs {
		if m.ToID == toID {
			detail = append(detail, m)
		}
	}
	return detail, nil
}

func groupByCounterpart(msgs []models.Message, key func(models.Message) (string, string), trackUnread bool) []dto.InboxGroup {
	index := make(map[string]int)
	groups := make([]dto.InboxGroup, 0)

	// msgs arrive newest first, so the first message seen for a counterpart
	// carries their freshest name and the group's latest timestamp.
	for _, m := range msgs {
		id, name := key(m)
		i, ok := index[id]
		if !ok {
			index[id] = len(groups)
			groups = append(groups, dto.InboxGroup{
				UserID: id,
				Name:   name,
				Latest: m.CreatedAt,
			})
			i = len(groups) - 1
		}
		groups[i].Count++
		if trackUnread && !m.IsRead {
			groups[i].HasUnread = true
		}
	}

	sort.SliceStable(groups, func(a, b int) bool {
		return groups[a].Latest.After(groups[b].Latest)
	})
	return groups
}
