package service

import (
	"context"
	"testing"
	"time"

	"warbler/internal/models"
	"warbler/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_Signup(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	u := env.signup(t, "testuser")
	assert.NotZero(t, u.ID)
	assert.NotEqual(t, "password", u.Password)
	assert.Equal(t, models.DefaultImageURL, u.ImageURL)
	assert.Equal(t, models.DefaultHeaderImageURL, u.HeaderImageURL)
	assert.Equal(t, "User#1: testuser, testuser@test.com", u.String())

	t.Run("duplicate username", func(t *testing.T) {
		_, err := env.users.Signup(ctx, SignupInput{Username: "testuser", Email: "new@test.com", Password: "password"})
		assertValidationError(t, err)
		assert.Equal(t, "Username already taken", err.Error())
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := env.users.Signup(ctx, SignupInput{Username: "other", Email: "testuser@test.com", Password: "password"})
		assertValidationError(t, err)
		assert.Equal(t, "Email already taken", err.Error())
	})

	assert.Equal(t, int64(1), env.count(t, &models.User{}), "failed signups write nothing")

	custom, err := env.users.Signup(ctx, SignupInput{Username: "pic", Email: "pic@test.com", Password: "password", ImageURL: "/me.png"})
	require.NoError(t, err)
	assert.Equal(t, "/me.png", custom.ImageURL)
}

func TestUserService_Authenticate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.signup(t, "testuser")

	got, err := env.users.Authenticate(ctx, "testuser", "password")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.ID, got.ID)

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"wrong username", "badusername", "password"},
		{"wrong password", "testuser", "badpassword"},
		{"both wrong", "nobody", "nothing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := env.users.Authenticate(ctx, tt.username, tt.password)
			assert.NoError(t, err)
			assert.Nil(t, got)
		})
	}
}

func TestUserService_Profile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.signup(t, "author")
	fan := env.signup(t, "fan")

	first, err := env.messages.Create(ctx, session.Authenticated(u.ID), "first")
	require.NoError(t, err)
	env.messages.now = func() time.Time { return first.Timestamp.Add(time.Minute) }
	_, err = env.messages.Create(ctx, session.Authenticated(u.ID), "second")
	require.NoError(t, err)
	require.NoError(t, env.social.Follow(ctx, session.Authenticated(fan.ID), u.ID))
	require.NoError(t, env.likes.Like(ctx, session.Authenticated(u.ID), first.ID))

	p, err := env.users.Profile(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "author", p.User.Username)
	require.Len(t, p.Messages, 2)
	assert.Equal(t, "second", p.Messages[0].Text)
	assert.Equal(t, models.UserStats{Messages: 2, Followers: 1, Following: 0, Likes: 1}, *p.Stats)

	_, err = env.users.Profile(ctx, 999)
	assertCode(t, err, models.CodeNotFound)
}

func TestUserService_Search(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "alice")
	env.signup(t, "bob")

	users, err := env.users.Search(context.Background(), "bo")
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "bob", users[0].Username)
}

func TestUserService_UpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.signup(t, "testuser")
	other := env.signup(t, "other")

	in := UpdateProfileInput{
		Username: "renamed",
		Email:    "renamed@test.com",
		Bio:      "hello",
		Location: "Earth",
		Password: "password",
	}

	t.Run("anonymous refused", func(t *testing.T) {
		_, err := env.users.UpdateProfile(ctx, session.Anonymous(), u.ID, in)
		assertUnauthorized(t, err)
	})

	t.Run("other user refused", func(t *testing.T) {
		_, err := env.users.UpdateProfile(ctx, session.Authenticated(other.ID), u.ID, in)
		assertUnauthorized(t, err)
	})

	t.Run("wrong password", func(t *testing.T) {
		bad := in
		bad.Password = "nope-nope"
		_, err := env.users.UpdateProfile(ctx, session.Authenticated(u.ID), u.ID, bad)
		assertValidationError(t, err)
		assert.Equal(t, WrongPassword, err.Error())
	})

	t.Run("taken email rolls back", func(t *testing.T) {
		bad := in
		bad.Email = "other@test.com"
		_, err := env.users.UpdateProfile(ctx, session.Authenticated(u.ID), u.ID, bad)
		assertValidationError(t, err)

		fresh, err := env.users.GetUser(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, "testuser", fresh.Username)
	})

	t.Run("success", func(t *testing.T) {
		updated, err := env.users.UpdateProfile(ctx, session.Authenticated(u.ID), u.ID, in)
		require.NoError(t, err)
		assert.Equal(t, "renamed", updated.Username)
		assert.Equal(t, models.DefaultImageURL, updated.ImageURL)

		again, err := env.users.Authenticate(ctx, "renamed", "password")
		require.NoError(t, err)
		require.NotNil(t, again, "password hash survives the edit")
	})
}

func TestUserService_DeleteAccountCascades(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	victim := env.signup(t, "victim")
	other := env.signup(t, "other")
	vs, os := session.Authenticated(victim.ID), session.Authenticated(other.ID)

	vm, err := env.messages.Create(ctx, vs, "mine")
	require.NoError(t, err)
	om, err := env.messages.Create(ctx, os, "theirs")
	require.NoError(t, err)
	require.NoError(t, env.likes.Like(ctx, os, vm.ID))
	require.NoError(t, env.likes.Like(ctx, vs, om.ID))
	require.NoError(t, env.social.Follow(ctx, vs, other.ID))
	require.NoError(t, env.social.Follow(ctx, os, victim.ID))

	assertUnauthorized(t, env.users.DeleteAccount(ctx, os, victim.ID))
	assertUnauthorized(t, env.users.DeleteAccount(ctx, session.Anonymous(), victim.ID))
	assert.Equal(t, int64(2), env.count(t, &models.User{}))

	require.NoError(t, env.users.DeleteAccount(ctx, vs, victim.ID))

	assert.Equal(t, int64(1), env.count(t, &models.User{}))
	assert.Equal(t, int64(1), env.count(t, &models.Message{}))
	assert.Zero(t, env.count(t, &models.Like{}))
	assert.Zero(t, env.count(t, &models.Follow{}))

	assertUnauthorized(t, env.users.DeleteAccount(ctx, vs, victim.ID))
}

func TestDeletedAccountSessionIsRefused(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.signup(t, "alice")
	bob := env.signup(t, "bob")
	stale := session.Authenticated(alice.ID)
	bs := session.Authenticated(bob.ID)

	msg, err := env.messages.Create(ctx, bs, "hello")
	require.NoError(t, err)
	require.NoError(t, env.users.DeleteAccount(ctx, stale, alice.ID))

	assertUnauthorized(t, env.social.Follow(ctx, stale, bob.ID))
	assertUnauthorized(t, env.social.Unfollow(ctx, stale, bob.ID))
	assertUnauthorized(t, env.likes.Like(ctx, stale, msg.ID))
	_, err = env.likes.Toggle(ctx, stale, msg.ID)
	assertUnauthorized(t, err)
	_, err = env.messages.Create(ctx, stale, "ghost")
	assertUnauthorized(t, err)
	_, err = env.users.UpdateProfile(ctx, stale, alice.ID, UpdateProfileInput{
		Username: "alice2",
		Email:    "alice2@test.com",
		Password: "password",
	})
	assertUnauthorized(t, err)

	assert.Zero(t, env.count(t, &models.Follow{}))
	assert.Zero(t, env.count(t, &models.Like{}))
	assert.Equal(t, int64(1), env.count(t, &models.Message{}))
}
