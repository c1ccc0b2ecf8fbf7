package service

import (
	"context"
	"errors"
	"testing"

	"warbler/internal/credential"
	"warbler/internal/models"
	"warbler/internal/repository"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEnv struct {
	db       *gorm.DB
	store    repository.Store
	users    *UserService
	social   *SocialService
	messages *MessageService
	likes    *LikeService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.Exec("PRAGMA foreign_keys = ON").Error)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Message{}, &models.Follow{}, &models.Like{}))

	hasher, err := credential.NewHasher(bcrypt.MinCost)
	require.NoError(t, err)

	store := repository.NewStore(db)
	return &testEnv{
		db:       db,
		store:    store,
		users:    NewUserService(store, hasher),
		social:   NewSocialService(store),
		messages: NewMessageService(store),
		likes:    NewLikeService(store),
	}
}

func (e *testEnv) signup(t *testing.T, name string) *models.User {
	t.Helper()
	u, err := e.users.Signup(context.Background(), SignupInput{
		Username: name,
		Email:    name + "@test.com",
		Password: "password",
	})
	require.NoError(t, err)
	return u
}

func (e *testEnv) count(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(model).Count(&n).Error)
	return n
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected *models.AppError, got %T", err)
	require.Equal(t, code, appErr.Code)
}

func assertUnauthorized(t *testing.T, err error) {
	t.Helper()
	assertCode(t, err, models.CodeUnauthorized)
	require.Equal(t, models.AccessUnauthorized, err.Error())
}

func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertCode(t, err, models.CodeValidation)
}

// untouchableStore fails the test if anything reaches the database.
type untouchableStore struct {
	t *testing.T
}

func (s untouchableStore) fail() {
	s.t.Helper()
	s.t.Fatal("store must not be touched")
}

func (s untouchableStore) Users() repository.UserRepository       { s.fail(); return nil }
func (s untouchableStore) Messages() repository.MessageRepository { s.fail(); return nil }
func (s untouchableStore) Follows() repository.FollowRepository   { s.fail(); return nil }
func (s untouchableStore) Likes() repository.LikeRepository       { s.fail(); return nil }
func (s untouchableStore) Transaction(context.Context, func(repository.Store) error) error {
	s.fail()
	return nil
}
