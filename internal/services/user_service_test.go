package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arigatojournal/arigato-backend/internal/dto"
	"github.com/arigatojournal/arigato-backend/internal/identity"
)

func TestProfileCountsAndRelationship(t *testing.T) {
	db := newTestDB(t)
	users := NewUserService(db, nil)
	relationships := NewRelationshipService(db, nil)
	createUser(t, db, "hanako", "花子")
	createUser(t, db, "taro", "太郎")
	createUser(t, db, "jiro", "次郎")

	ctx := context.Background()
	mustFollow(t, relationships, "hanako", "taro")
	mustFollow(t, relationships, "jiro", "taro")
	mustFollow(t, relationships, "taro", "hanako")

	profile, err := users.Profile(ctx, principal("hanako"), "taro")
	require.NoError(t, err)
	assert.Equal(t, int64(2), profile.FollowerCount)
	assert.Equal(t, int64(1), profile.FollowingCount)
	assert.Equal(t, RelationshipFollowing, profile.Relationship)
	assert.True(t, profile.FollowsYou)

	profile, err = users.Profile(ctx, principal("taro"), "taro")
	require.NoError(t, err)
	assert.Equal(t, RelationshipSelf, profile.Relationship)
	assert.False(t, profile.FollowsYou)

	require.NoError(t, relationships.Block(ctx, principal("hanako"), "taro"))
	profile, err = users.Profile(ctx, principal("hanako"), "taro")
	require.NoError(t, err)
	assert.Equal(t, RelationshipBlocked, profile.Relationship)

	_, err = users.Profile(ctx, principal("hanako"), "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestSearchHidesSelfAndBlocked(t *testing.T) {
	db := newTestDB(t)
	users := NewUserService(db, nil)
	relationships := NewRelationshipService(db, nil)
	createUser(t, db, "hanako", "花子")
	createUser(t, db, "taro", "太郎")

	ctx := context.Background()

	summary, err := users.Search(ctx, principal("hanako"), "taro")
	require.NoError(t, err)
	assert.Equal(t, "太郎", summary.Name)

	_, err = users.Search(ctx, principal("hanako"), "hanako")
	assert.ErrorIs(t, err, ErrUserNotFound)

	require.NoError(t, relationships.Block(ctx, principal("hanako"), "taro"))
	_, err = users.Search(ctx, principal("hanako"), "taro")
	assert.ErrorIs(t, err, ErrUserNotFound)

	// The block is one-way: Taro can still find Hanako.
	summary, err = users.Search(ctx, principal("taro"), "hanako")
	require.NoError(t, err)
	assert.Equal(t, "花子", summary.Name)
}

func TestUpdateProfileRefreshesSession(t *testing.T) {
	db := newTestDB(t)
	sessions, _ := newTestSessions(t)
	users := NewUserService(db, sessions)
	createUser(t, db, "hanako", "花子")

	ctx := context.Background()
	snap, err := loadSnapshot(ctx, db, "hanako")
	require.NoError(t, err)
	require.NoError(t, sessions.Set(ctx, "sess-1", snap))

	p := identity.Principal{UserID: "hanako", SessionID: "sess-1"}
	name := "華子"
	bio := "ありがとうを集めています"
	_, err = users.UpdateProfile(ctx, p, &dto.UpdateProfileRequest{Name: &name, Bio: &bio})
	require.NoError(t, err)

	got, err := sessions.Current(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "華子", got.Name)

	empty := ""
	_, err = users.UpdateProfile(ctx, p, &dto.UpdateProfileRequest{Name: &empty})
	require.Error(t, err)
}

func TestMeFallsBackToPrimaryStore(t *testing.T) {
	db := newTestDB(t)
	sessions, _ := newTestSessions(t)
	users := NewUserService(db, sessions)
	createUser(t, db, "hanako", "花子")

	ctx := context.Background()
	p := identity.Principal{UserID: "hanako", SessionID: "expired-session"}

	// No snapshot in Redis: Me rebuilds it from the database.
	snap, err := users.Me(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, "花子", snap.Name)

	// And the rebuilt snapshot is stored for the next read.
	stored, err := sessions.Current(ctx, "expired-session")
	require.NoError(t, err)
	assert.Equal(t, snap.UserID, stored.UserID)

	_, err = users.Me(ctx, identity.Principal{UserID: "ghost", SessionID: "s"})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestSetFCMToken(t *testing.T) {
	db := newTestDB(t)
	users := NewUserService(db, nil)
	createUser(t, db, "hanako", "花子")

	ctx := context.Background()
	require.NoError(t, users.SetFCMToken(ctx, principal("hanako"), "device-token-1"))

	err := users.SetFCMToken(ctx, principal("ghost"), "device-token-1")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
