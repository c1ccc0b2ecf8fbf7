package seed

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"warbler/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		t.Fatalf("pragma: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Message{}, &models.Follow{}, &models.Like{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func countRows(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	if err := db.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func TestSeeder_Run(t *testing.T) {
	db := openTestDB(t)
	s, err := NewSeeder(db, Options{
		Users:           6,
		MessagesPerUser: 3,
		FollowsPerUser:  2,
		LikesPerUser:    4,
		BcryptCost:      bcrypt.MinCost,
		RandomSeed:      42,
		Accounts:        []string{"testuser"},
	})
	if err != nil {
		t.Fatalf("NewSeeder: %v", err)
	}

	res, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Users != 6 || res.Messages != 18 || res.Follows != 12 || res.Likes != 24 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if got := countRows(t, db, &models.User{}); got != 6 {
		t.Fatalf("users = %d", got)
	}
	if got := countRows(t, db, &models.Follow{}); got != 12 {
		t.Fatalf("follows = %d", got)
	}
	if got := countRows(t, db, &models.Like{}); got != 24 {
		t.Fatalf("likes = %d", got)
	}

	var self int64
	db.Model(&models.Follow{}).Where("user_following_id = user_being_followed_id").Count(&self)
	if self != 0 {
		t.Fatalf("found %d self-follows", self)
	}
	var ownLikes int64
	db.Table("likes").Joins("JOIN messages ON messages.id = likes.message_id").
		Where("messages.user_id = likes.user_id").Count(&ownLikes)
	if ownLikes != 0 {
		t.Fatalf("found %d likes on own messages", ownLikes)
	}

	var account models.User
	if err := db.Where("username = ?", "testuser").First(&account).Error; err != nil {
		t.Fatalf("fixed account missing: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.Password), []byte(DefaultPassword)); err != nil {
		t.Fatalf("seeded password does not verify: %v", err)
	}
}

func TestSeeder_CleanRemovesEverything(t *testing.T) {
	db := openTestDB(t)
	opts := Options{Users: 3, MessagesPerUser: 2, FollowsPerUser: 1, LikesPerUser: 1, BcryptCost: bcrypt.MinCost}
	s, err := NewSeeder(db, opts)
	if err != nil {
		t.Fatalf("NewSeeder: %v", err)
	}
	if _, err := s.Run(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := s.ClearAll(context.Background()); err != nil {
		t.Fatalf("ClearAll: %v", err)
	}
	for _, model := range []any{&models.User{}, &models.Message{}, &models.Follow{}, &models.Like{}} {
		if got := countRows(t, db, model); got != 0 {
			t.Fatalf("%T rows left: %d", model, got)
		}
	}
}

func TestSeeder_DryRunWritesNothing(t *testing.T) {
	db := openTestDB(t)
	s, err := NewSeeder(db, Options{Users: 4, MessagesPerUser: 2, FollowsPerUser: 2, BcryptCost: bcrypt.MinCost, DryRun: true})
	if err != nil {
		t.Fatalf("NewSeeder: %v", err)
	}
	res, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Users != 4 || res.Messages != 8 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if got := countRows(t, db, &models.User{}); got != 0 {
		t.Fatalf("dry run wrote %d users", got)
	}
}

func TestFactory_BuildMessage(t *testing.T) {
	f, err := NewFactory(nil, Options{BcryptCost: bcrypt.MinCost, MaxDays: 3, RandomSeed: 7})
	if err != nil {
		t.Fatalf("NewFactory: %v", err)
	}
	author := &models.User{ID: 9}
	for i := 0; i < 50; i++ {
		m := f.BuildMessage(author)
		if n := utf8.RuneCountInString(m.Text); n == 0 || n > models.MaxMessageLength {
			t.Fatalf("text length %d out of range: %q", n, m.Text)
		}
		if m.UserID != 9 {
			t.Fatalf("author not set")
		}
		if f.now().Sub(m.Timestamp) > 3*24*time.Hour+time.Minute {
			t.Fatalf("timestamp too old: %v", m.Timestamp)
		}
	}
}

func TestFactory_BuildUserNamesAreValid(t *testing.T) {
	f, err := NewFactory(nil, Options{BcryptCost: bcrypt.MinCost, RandomSeed: 11})
	if err != nil {
		t.Fatalf("NewFactory: %v", err)
	}
	for i := 0; i < 50; i++ {
		u := f.BuildUser()
		if len(u.Username) < 3 || strings.ContainsAny(u.Username, " .@") {
			t.Fatalf("bad username %q", u.Username)
		}
		if u.ImageURL == "" || u.HeaderImageURL == "" {
			t.Fatalf("image defaults missing: %+v", u)
		}
	}
}

func TestTruncate(t *testing.T) {
	long := strings.Repeat("é", 200)
	if got := utf8.RuneCountInString(truncate(long, 140)); got != 140 {
		t.Fatalf("got %d runes", got)
	}
	if got := truncate("  short  ", 140); got != "short" {
		t.Fatalf("got %q", got)
	}
}
