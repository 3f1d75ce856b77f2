package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/arigatojournal/arigato-backend/internal/identity"
	"github.com/arigatojournal/arigato-backend/internal/models"
	"github.com/arigatojournal/arigato-backend/internal/session"
)

var testDBSeq atomic.Int64

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:services_test_%d?mode=memory&cache=shared", testDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Follow{},
		&models.Block{},
		&models.Message{},
		&models.RefreshToken{},
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func newTestSessions(t *testing.T) (*session.Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := session.NewStoreWithClient(client, time.Hour)
	t.Cleanup(func() { store.Close() })
	return store, mr
}

func createUser(t *testing.T, db *gorm.DB, userID, name string) models.User {
	t.Helper()

	user := models.User{
		UserID:   userID,
		Name:     name,
		Password: "x",
		Avatar:   models.DefaultAvatar,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func principal(userID string) identity.Principal {
	return identity.Principal{UserID: userID}
}

func mustFollow(t *testing.T, svc *RelationshipService, follower, followee string) {
	t.Helper()
	require.NoError(t, svc.Follow(context.Background(), principal(follower), followee))
}
