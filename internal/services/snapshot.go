package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/arigatojournal/arigato-backend/internal/models"
	"github.com/arigatojournal/arigato-backend/internal/session"
)

// loadSnapshot assembles a session snapshot for a user from the primary
// store: profile fields plus the current following and blocked sets.
func loadSnapshot(ctx context.Context, db *gorm.DB, userID string) (session.Snapshot, error) {
	var user models.User
	if err := db.WithContext(ctx).Where("user_id = ?", userID).First(&user).Error; err != nil {
		return session.Snapshot{}, err
	}

	var following []string
	if err := db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ?", userID).
		Pluck("followee_id", &following).Error; err != nil {
		return session.Snapshot{}, err
	}

	var blocked []string
	if err := db.WithContext(ctx).Model(&models.Block{}).
		Where("blocker_id = ?", userID).
		Pluck("blocked_id", &blocked).Error; err != nil {
		return session.Snapshot{}, err
	}

	return session.Snapshot{
		UserID:    user.UserID,
		Name:      user.Name,
		Avatar:    user.Avatar,
		Following: following,
		Blocked:   blocked,
		CreatedAt: user.CreatedAt,
	}, nil
}
