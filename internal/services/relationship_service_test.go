package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arigatojournal/arigato-backend/internal/identity"
	"github.com/arigatojournal/arigato-backend/internal/models"
)

func TestFollowCreatesEdge(t *testing.T) {
	db := newTestDB(t)
	svc := NewRelationshipService(db, nil)
	createUser(t, db, "hanako", "花子")
	createUser(t, db, "taro", "太郎")

	require.NoError(t, svc.Follow(context.Background(), principal("hanako"), "taro"))

	following, err := svc.IsFollowing(context.Background(), "hanako", "taro")
	require.NoError(t, err)
	assert.True(t, following)

	// One direction only.
	following, err = svc.IsFollowing(context.Background(), "taro", "hanako")
	require.NoError(t, err)
	assert.False(t, following)
}

func TestFollowIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	svc := NewRelationshipService(db, nil)
	createUser(t, db, "hanako", "花子")
	createUser(t, db, "taro", "太郎")

	require.NoError(t, svc.Follow(context.Background(), principal("hanako"), "taro"))
	require.NoError(t, svc.Follow(context.Background(), principal("hanako"), "taro"))

	var count int64
	require.NoError(t, db.Model(&models.Follow{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestFollowSelfAndMissingAreNoOps(t *testing.T) {
	db := newTestDB(t)
	svc := NewRelationshipService(db, nil)
	createUser(t, db, "hanako", "花子")

	require.NoError(t, svc.Follow(context.Background(), principal("hanako"), "hanako"))
	require.NoError(t, svc.Follow(context.Background(), principal("hanako"), "ghost"))

	var count int64
	require.NoError(t, db.Model(&models.Follow{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestFollowRejectedWhileBlocked(t *testing.T) {
	db := newTestDB(t)
	svc := NewRelationshipService(db, nil)
	createUser(t, db, "hanako", "花子")
	createUser(t, db, "taro", "太郎")

	require.NoError(t, svc.Block(context.Background(), principal("hanako"), "taro"))

	// Blocker cannot follow, and the blocked side cannot follow back either.
	err := svc.Follow(context.Background(), principal("hanako"), "taro")
	assert.ErrorIs(t, err, ErrBlockedRelation)
	err = svc.Follow(context.Background(), principal("taro"), "hanako")
	assert.ErrorIs(t, err, ErrBlockedRelation)
}

func TestBlockSeversFollowsBothWays(t *testing.T) {
	db := newTestDB(t)
	svc := NewRelationshipService(db, nil)
	createUser(t, db, "hanako", "花子")
	createUser(t, db, "taro", "太郎")

	mustFollow(t, svc, "hanako", "taro")
	mustFollow(t, svc, "taro", "hanako")

	require.NoError(t, svc.Block(context.Background(), principal("hanako"), "taro"))

	var follows int64
	require.NoError(t, db.Model(&models.Follow{}).Count(&follows).Error)
	assert.Equal(t, int64(0), follows)

	blocked, err := svc.IsBlocked(context.Background(), "hanako", "taro")
	require.NoError(t, err)
	assert.True(t, blocked)

	// The block is one-sided even though the unfollow is not.
	blocked, err = svc.IsBlocked(context.Background(), "taro", "hanako")
	require.NoError(t, err)
	assert.False(t, blocked)
}

func TestBlockIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	svc := NewRelationshipService(db, nil)
	createUser(t, db, "hanako", "花子")
	createUser(t, db, "taro", "太郎")

	require.NoError(t, svc.Block(context.Background(), principal("hanako"), "taro"))
	require.NoError(t, svc.Block(context.Background(), principal("hanako"), "taro"))

	var count int64
	require.NoError(t, db.Model(&models.Block{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestBlockSelfRejected(t *testing.T) {
	db := newTestDB(t)
	svc := NewRelationshipService(db, nil)
	createUser(t, db, "hanako", "花子")

	err := svc.Block(context.Background(), principal("hanako"), "hanako")
	assert.ErrorIs(t, err, ErrSelfBlock)
}

func TestUnblockDoesNotRestoreFollows(t *testing.T) {
	db := newTestDB(t)
	svc := NewRelationshipService(db, nil)
	createUser(t, db, "hanako", "花子")
	createUser(t, db, "taro", "太郎")

	mustFollow(t, svc, "hanako", "taro")
	require.NoError(t, svc.Block(context.Background(), principal("hanako"), "taro"))
	require.NoError(t, svc.Unblock(context.Background(), principal("hanako"), "taro"))

	following, err := svc.IsFollowing(context.Background(), "hanako", "taro")
	require.NoError(t, err)
	assert.False(t, following)

	// The block is gone, so following again is allowed.
	require.NoError(t, svc.Follow(context.Background(), principal("hanako"), "taro"))
}

func TestUnfollowMissingEdgeIsNoOp(t *testing.T) {
	db := newTestDB(t)
	svc := NewRelationshipService(db, nil)
	createUser(t, db, "hanako", "花子")
	createUser(t, db, "taro", "太郎")

	require.NoError(t, svc.Unfollow(context.Background(), principal("hanako"), "taro"))
	require.NoError(t, svc.Unblock(context.Background(), principal("hanako"), "taro"))
}

func TestRecipientsExcludeBlocked(t *testing.T) {
	db := newTestDB(t)
	svc := NewRelationshipService(db, nil)
	createUser(t, db, "hanako", "花子")
	createUser(t, db, "taro", "太郎")
	createUser(t, db, "jiro", "次郎")

	mustFollow(t, svc, "hanako", "taro")
	mustFollow(t, svc, "hanako", "jiro")

	recipients, err := svc.Recipients(context.Background(), "hanako")
	require.NoError(t, err)
	require.Len(t, recipients, 2)

	require.NoError(t, svc.Block(context.Background(), principal("hanako"), "jiro"))

	recipients, err = svc.Recipients(context.Background(), "hanako")
	require.NoError(t, err)
	require.Len(t, recipients, 1)
	assert.Equal(t, "taro", recipients[0].UserID)
}

func TestFollowRefreshesSessionSnapshot(t *testing.T) {
	db := newTestDB(t)
	sessions, _ := newTestSessions(t)
	svc := NewRelationshipService(db, sessions)
	createUser(t, db, "hanako", "花子")
	createUser(t, db, "taro", "太郎")

	ctx := context.Background()
	snap, err := loadSnapshot(ctx, db, "hanako")
	require.NoError(t, err)
	require.NoError(t, sessions.Set(ctx, "sess-1", snap))

	p := identity.Principal{UserID: "hanako", SessionID: "sess-1"}
	require.NoError(t, svc.Follow(ctx, p, "taro"))

	got, err := sessions.Current(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"taro"}, got.Following)

	require.NoError(t, svc.Block(ctx, p, "taro"))

	got, err = sessions.Current(ctx, "sess-1")
	require.NoError(t, err)
	assert.Empty(t, got.Following)
	assert.Equal(t, []string{"taro"}, got.Blocked)
}
