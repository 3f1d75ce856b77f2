package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"gorm.io/gorm"

	"github.com/arigatojournal/arigato-backend/internal/dto"
	"github.com/arigatojournal/arigato-backend/internal/identity"
	"github.com/arigatojournal/arigato-backend/internal/models"
	"github.com/arigatojournal/arigato-backend/internal/session"
)

var ErrUserNotFound = errors.New("user not found")

// Relationship of the viewer to a profile, from the viewer's side.
const (
	RelationshipSelf      = "self"
	RelationshipFollowing = "following"
	RelationshipBlocked   = "blocked"
	RelationshipNone      = "none"
)

type UserService struct {
	db       *gorm.DB
	sessions *session.Store
}

func NewUserService(db *gorm.DB, sessions *session.Store) *UserService {
	return &UserService{db: db, sessions: sessions}
}

// Me returns the caller's session snapshot, rebuilding it from the primary
// store when the session has expired but the access token is still valid.
func (s *UserService) Me(ctx context.Context, p identity.Principal) (session.Snapshot, error) {
	if s.sessions != nil && p.SessionID != "" {
		snap, err := s.sessions.Current(ctx, p.SessionID)
		if err == nil {
			return snap, nil
		}
		if !errors.Is(err, session.ErrNoSession) {
			return session.Snapshot{}, err
		}
	}

	snap, err := loadSnapshot(ctx, s.db, p.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return session.Snapshot{}, ErrUserNotFound
		}
		return session.Snapshot{}, err
	}

	if s.sessions != nil && p.SessionID != "" {
		if err := s.sessions.Set(ctx, p.SessionID, snap); err != nil {
			slog.Error("session rebuild failed",
				slog.String("user_id", p.UserID),
				slog.String("error", err.Error()))
		}
	}
	return snap, nil
}

// Profile returns a user's public profile as seen by the caller: counts,
// whether they follow the caller, and the caller's relationship to them.
func (s *UserService) Profile(ctx context.Context, p identity.Principal, userID string) (*dto.ProfileResponse, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	var followerCount, followingCount int64
	if err := s.db.WithContext(ctx).Model(&models.Follow{}).
		Where("followee_id = ?", userID).Count(&followerCount).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ?", userID).Count(&followingCount).Error; err != nil {
		return nil, err
	}

	relationship := RelationshipNone
	followsYou := false
	switch {
	case p.UserID == userID:
		relationship = RelationshipSelf
	default:
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.Block{}).
			Where("blocker_id = ? AND blocked_id = ?", p.UserID, userID).
			Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			relationship = RelationshipBlocked
			break
		}
		if err := s.db.WithContext(ctx).Model(&models.Follow{}).
			Where("follower_id = ? AND followee_id = ?", p.UserID, userID).
			Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			relationship = RelationshipFollowing
		}
	}

	if p.UserID != userID {
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.Follow{}).
			Where("follower_id = ? AND followee_id = ?", userID, p.UserID).
			Count(&count).Error; err != nil {
			return nil, err
		}
		followsYou = count > 0
	}

	return &dto.ProfileResponse{
		UserID:         user.UserID,
		Name:           user.Name,
		Bio:            user.Bio,
		Avatar:         user.Avatar,
		FollowerCount:  followerCount,
		FollowingCount: followingCount,
		FollowsYou:     followsYou,
		Relationship:   relationship,
		CreatedAt:      user.CreatedAt,
	}, nil
}

// UpdateProfile changes the caller's display fields. Name and avatar flow
// into the session snapshot; messages already sent keep their name snapshot.
func (s *UserService) UpdateProfile(ctx context.Context, p identity.Principal, req *dto.UpdateProfileRequest) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("user_id = ?", p.UserID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, errors.New("name cannot be empty")
		}
		updates["name"] = *req.Name
	}
	if req.Bio != nil {
		updates["bio"] = *req.Bio
	}
	if req.Avatar != nil {
		updates["avatar"] = *req.Avatar
	}
	if len(updates) == 0 {
		return &user, nil
	}

	if err := s.db.WithContext(ctx).Model(&user).Updates(updates).Error; err != nil {
		return nil, err
	}

	if s.sessions != nil && p.SessionID != "" {
		snap, err := loadSnapshot(ctx, s.db, p.UserID)
		if err == nil {
			if err := s.sessions.Refresh(ctx, p.SessionID, snap); err != nil {
				slog.Error("session refresh failed",
					slog.String("user_id", p.UserID),
					slog.String("error", err.Error()))
			}
		}
	}

	return &user, nil
}

// Search looks a user up by exact handle. The caller's own handle and
// anyone they have blocked come back as not found, so blocked users cannot
// be rediscovered through search.
func (s *UserService) Search(ctx context.Context, p identity.Principal, userID string) (*dto.UserSummary, error) {
	if userID == p.UserID {
		return nil, ErrUserNotFound
	}

	var blockCount int64
	if err := s.db.WithContext(ctx).Model(&models.Block{}).
		Where("blocker_id = ? AND blocked_id = ?", p.UserID, userID).
		Count(&blockCount).Error; err != nil {
		return nil, err
	}
	if blockCount > 0 {
		return nil, ErrUserNotFound
	}

	var user models.User
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return &dto.UserSummary{
		UserID: user.UserID,
		Name:   user.Name,
		Avatar: user.Avatar,
	}, nil
}

// SetFCMToken stores the caller's device token for push delivery.
func (s *UserService) SetFCMToken(ctx context.Context, p identity.Principal, token string) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("user_id = ?", p.UserID).
		Update("fcm_token", token)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}
