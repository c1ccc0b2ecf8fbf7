package service

import (
	"context"
	"testing"

	"warbler/internal/models"
	"warbler/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLikeService(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.signup(t, "author")
	fan := env.signup(t, "fan")
	fanSess := session.Authenticated(fan.ID)

	msg, err := env.messages.Create(ctx, session.Authenticated(author.ID), "like me")
	require.NoError(t, err)

	require.NoError(t, env.likes.Like(ctx, fanSess, msg.ID))
	require.NoError(t, env.likes.Like(ctx, fanSess, msg.ID))
	assert.Equal(t, int64(1), env.count(t, &models.Like{}))

	_, liked, err := env.likes.LikesOf(ctx, fanSess, fan.ID)
	require.NoError(t, err)
	require.Len(t, liked, 1)
	assert.Equal(t, msg.ID, liked[0].ID)

	ids, err := env.likes.LikedIDs(ctx, fanSess)
	require.NoError(t, err)
	assert.Equal(t, []uint{msg.ID}, ids)

	require.NoError(t, env.likes.Unlike(ctx, fanSess, msg.ID))
	require.NoError(t, env.likes.Unlike(ctx, fanSess, msg.ID))
	assert.Zero(t, env.count(t, &models.Like{}))

	assertCode(t, env.likes.Like(ctx, fanSess, 999), models.CodeNotFound)
}

func TestLikeService_Toggle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.signup(t, "self")
	sess := session.Authenticated(u.ID)

	msg, err := env.messages.Create(ctx, sess, "own message")
	require.NoError(t, err)

	liked, err := env.likes.Toggle(ctx, sess, msg.ID)
	require.NoError(t, err)
	assert.True(t, liked, "liking your own message is allowed")

	liked, err = env.likes.Toggle(ctx, sess, msg.ID)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Zero(t, env.count(t, &models.Like{}))
}

func TestLikeService_AnonymousRefused(t *testing.T) {
	t.Parallel()
	svc := NewLikeService(untouchableStore{t: t})
	ctx := context.Background()

	assertUnauthorized(t, svc.Like(ctx, session.Anonymous(), 1))
	assertUnauthorized(t, svc.Unlike(ctx, session.Anonymous(), 1))
	_, err := svc.Toggle(ctx, session.Anonymous(), 1)
	assertUnauthorized(t, err)
	_, _, err = svc.LikesOf(ctx, session.Anonymous(), 1)
	assertUnauthorized(t, err)

	ids, err := svc.LikedIDs(ctx, session.Anonymous())
	require.NoError(t, err)
	assert.Empty(t, ids)
}
