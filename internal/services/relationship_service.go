package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/arigatojournal/arigato-backend/internal/identity"
	"github.com/arigatojournal/arigato-backend/internal/models"
	"github.com/arigatojournal/arigato-backend/internal/session"
)

var (
	ErrBlockedRelation = errors.New("cannot follow while a block exists between the users")
	ErrSelfBlock       = errors.New("cannot block yourself")
)

// RelationshipService owns the follow and block edges between users.
type RelationshipService struct {
	db       *gorm.DB
	sessions *session.Store
}

func NewRelationshipService(db *gorm.DB, sessions *session.Store) *RelationshipService {
	return &RelationshipService{db: db, sessions: sessions}
}

// Follow adds a follow edge from the caller to target. Following yourself or
// a user that does not exist is a no-op; following someone while a block
// exists in either direction is rejected. Repeating an existing follow
// changes nothing.
func (s *RelationshipService) Follow(ctx context.Context, p identity.Principal, targetID string) error {
	if targetID == "" || targetID == p.UserID {
		return nil
	}

	var target models.User
	err := s.db.WithContext(ctx).Where("user_id = ?", targetID).First(&target).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	var blockCount int64
	err = s.db.WithContext(ctx).Model(&models.Block{}).
		Where("(blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)",
			p.UserID, targetID, targetID, p.UserID).
		Count(&blockCount).Error
	if err != nil {
		return err
	}
	if blockCount > 0 {
		return ErrBlockedRelation
	}

	var existing models.Follow
	err = s.db.WithContext(ctx).
		Where("follower_id = ? AND followee_id = ?", p.UserID, targetID).
		First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	edge := models.Follow{
		ID:         uuid.New(),
		FollowerID: p.UserID,
		FolloweeID: targetID,
	}
	if err := s.db.WithContext(ctx).Create(&edge).Error; err != nil {
		return err
	}

	s.refreshSnapshot(ctx, p)
	return nil
}

// Unfollow removes the follow edge from the caller to target. Removing an
// edge that does not exist is a no-op.
func (s *RelationshipService) Unfollow(ctx context.Context, p identity.Principal, targetID string) error {
	res := s.db.WithContext(ctx).
		Where("follower_id = ? AND followee_id = ?", p.UserID, targetID).
		Delete(&models.Follow{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		s.refreshSnapshot(ctx, p)
	}
	return nil
}

// Block adds target to the caller's blocked set and severs the follow
// relationship in both directions in the same transaction. Blocking an
// already-blocked user changes nothing. Unblocking later does not restore
// the severed follows.
func (s *RelationshipService) Block(ctx context.Context, p identity.Principal, targetID string) error {
	if targetID == p.UserID {
		return ErrSelfBlock
	}

	var target models.User
	err := s.db.WithContext(ctx).Where("user_id = ?", targetID).First(&target).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	var existing models.Block
	err = s.db.WithContext(ctx).
		Where("blocker_id = ? AND blocked_id = ?", p.UserID, targetID).
		First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		edge := models.Block{
			ID:        uuid.New(),
			BlockerID: p.UserID,
			BlockedID: targetID,
		}
		if err := tx.Create(&edge).Error; err != nil {
			return err
		}
		// A block is never a half-state: both follow directions go with it.
		if err := tx.Where("follower_id = ? AND followee_id = ?", p.UserID, targetID).
			Delete(&models.Follow{}).Error; err != nil {
			return err
		}
		if err := tx.Where("follower_id = ? AND followee_id = ?", targetID, p.UserID).
			Delete(&models.Follow{}).Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.refreshSnapshot(ctx, p)
	return nil
}

// Unblock removes target from the caller's blocked set. Unblocking a user
// that is not blocked is a no-op.
func (s *RelationshipService) Unblock(ctx context.Context, p identity.Principal, targetID string) error {
	res := s.db.WithContext(ctx).
		Where("blocker_id = ? AND blocked_id = ?", p.UserID, targetID).
		Delete(&models.Block{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		s.refreshSnapshot(ctx, p)
	}
	return nil
}

func (s *RelationshipService) IsFollowing(ctx context.Context, userID, targetID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND followee_id = ?", userID, targetID).
		Count(&count).Error
	return count > 0, err
}

func (s *RelationshipService) IsBlocked(ctx context.Context, userID, targetID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Block{}).
		Where("blocker_id = ? AND blocked_id = ?", userID, targetID).
		Count(&count).Error
	return count > 0, err
}

func (s *RelationshipService) FollowerCount(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Follow{}).
		Where("followee_id = ?", userID).
		Count(&count).Error
	return count, err
}

func (s *RelationshipService) FollowingCount(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ?", userID).
		Count(&count).Error
	return count, err
}

// Following lists the users the given user follows.
func (s *RelationshipService) Following(ctx context.Context, userID string) ([]models.User, error) {
	var users []models.User
	sub := s.db.Model(&models.Follow{}).
		Select("followee_id").
		Where("follower_id = ?", userID)
	err := s.db.WithContext(ctx).
		Where("user_id IN (?)", sub).
		Order("created_at ASC").
		Find(&users).Error
	return users, err
}

// Followers lists the users following the given user.
func (s *RelationshipService) Followers(ctx context.Context, userID string) ([]models.User, error) {
	var users []models.User
	sub := s.db.Model(&models.Follow{}).
		Select("follower_id").
		Where("followee_id = ?", userID)
	err := s.db.WithContext(ctx).
		Where("user_id IN (?)", sub).
		Order("created_at ASC").
		Find(&users).Error
	return users, err
}

// Blocked lists the users the given user has blocked.
func (s *RelationshipService) Blocked(ctx context.Context, userID string) ([]models.User, error) {
	var users []models.User
	sub := s.db.Model(&models.Block{}).
		Select("blocked_id").
		Where("blocker_id = ?", userID)
	err := s.db.WithContext(ctx).
		Where("user_id IN (?)", sub).
		Order("created_at ASC").
		Find(&users).Error
	return users, err
}

// Recipients lists the users the caller can address a message to: everyone
// they follow, minus anyone they have blocked since.
func (s *RelationshipService) Recipients(ctx context.Context, userID string) ([]models.User, error) {
	var users []models.User
	following := s.db.Model(&models.Follow{}).
		Select("followee_id").
		Where("follower_id = ?", userID)
	blocked := s.db.Model(&models.Block{}).
		Select("blocked_id").
		Where("blocker_id = ?", userID)
	err := s.db.WithContext(ctx).
		Where("user_id IN (?)", following).
		Where("user_id NOT IN (?)", blocked).
		Order("created_at ASC").
		Find(&users).Error
	return users, err
}

// refreshSnapshot pushes the caller's current relationship sets into their
// session so reads in the same session observe the mutation immediately.
// The primary store has already committed, so a refresh failure is logged
// and the session catches up on next login.
func (s *RelationshipService) refreshSnapshot(ctx context.Context, p identity.Principal) {
	if s.sessions == nil || p.SessionID == "" {
		return
	}

	snap, err := loadSnapshot(ctx, s.db, p.UserID)
	if err != nil {
		slog.Error("session refresh: load snapshot failed",
			slog.String("user_id", p.UserID),
			slog.String("error", err.Error()))
		return
	}

	if err := s.sessions.Refresh(ctx, p.SessionID, snap); err != nil {
		slog.Error("session refresh failed",
			slog.String("user_id", p.UserID),
			slog.String("error", err.Error()))
	}
}
