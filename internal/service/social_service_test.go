package service

import (
	"context"
	"testing"

	"warbler/internal/models"
	"warbler/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSocialService_FollowSymmetry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u1 := env.signup(t, "testuser1")
	u2 := env.signup(t, "testuser2")

	require.NoError(t, env.social.Follow(ctx, session.Authenticated(u1.ID), u2.ID))

	following, err := env.social.IsFollowing(ctx, u1.ID, u2.ID)
	require.NoError(t, err)
	assert.True(t, following)
	followedBy, err := env.social.IsFollowedBy(ctx, u2.ID, u1.ID)
	require.NoError(t, err)
	assert.True(t, followedBy)

	following, err = env.social.IsFollowing(ctx, u2.ID, u1.ID)
	require.NoError(t, err)
	assert.False(t, following)
	followedBy, err = env.social.IsFollowedBy(ctx, u1.ID, u2.ID)
	require.NoError(t, err)
	assert.False(t, followedBy)

	viewer := session.Authenticated(u1.ID)
	_, followers, err := env.social.Followers(ctx, viewer, u2.ID)
	require.NoError(t, err)
	require.Len(t, followers, 1)
	assert.Equal(t, u1.ID, followers[0].ID)

	_, followers, err = env.social.Followers(ctx, viewer, u1.ID)
	require.NoError(t, err)
	assert.Empty(t, followers)

	_, followingOf, err := env.social.Following(ctx, viewer, u1.ID)
	require.NoError(t, err)
	require.Len(t, followingOf, 1)
	assert.Equal(t, u2.ID, followingOf[0].ID)
}

func TestSocialService_FollowEdgeCases(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u1 := env.signup(t, "one")
	u2 := env.signup(t, "two")
	s1 := session.Authenticated(u1.ID)

	assertValidationError(t, env.social.Follow(ctx, s1, u1.ID))
	assertCode(t, env.social.Follow(ctx, s1, 999), models.CodeNotFound)

	require.NoError(t, env.social.Follow(ctx, s1, u2.ID))
	require.NoError(t, env.social.Follow(ctx, s1, u2.ID), "second follow is a no-op")
	assert.Equal(t, int64(1), env.count(t, &models.Follow{}))

	require.NoError(t, env.social.Unfollow(ctx, s1, u2.ID))
	require.NoError(t, env.social.Unfollow(ctx, s1, u2.ID))
	assert.Zero(t, env.count(t, &models.Follow{}))
}

func TestSocialService_AnonymousRefused(t *testing.T) {
	t.Parallel()
	svc := NewSocialService(untouchableStore{t: t})
	ctx := context.Background()

	assertUnauthorized(t, svc.Follow(ctx, session.Anonymous(), 1))
	assertUnauthorized(t, svc.Unfollow(ctx, session.Anonymous(), 1))
	_, _, err := svc.Followers(ctx, session.Anonymous(), 1)
	assertUnauthorized(t, err)
	_, _, err = svc.Following(ctx, session.Anonymous(), 1)
	assertUnauthorized(t, err)
}
