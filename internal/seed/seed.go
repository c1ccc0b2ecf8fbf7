package seed

import (
	"context"
	"fmt"
	"log/slog"

	"warbler/internal/models"

	"gorm.io/gorm"
)

const maxUserFailures = 20

// Options configures a seeding run.
type Options struct {
	Users           int   `yaml:"users"`
	MessagesPerUser int   `yaml:"messages_per_user"`
	FollowsPerUser  int   `yaml:"follows_per_user"`
	LikesPerUser    int   `yaml:"likes_per_user"`
	MaxDays         int   `yaml:"max_days"`
	BatchSize       int   `yaml:"batch_size"`
	BcryptCost      int   `yaml:"bcrypt_cost"`
	RandomSeed      int64 `yaml:"random_seed"`
	Clean           bool  `yaml:"clean"`
	// Accounts are created first with fixed usernames, e.g. for demos.
	Accounts []string `yaml:"accounts"`
	DryRun   bool     `yaml:"-"`
}

// Result summarizes what a run created.
type Result struct {
	Users    int
	Messages int
	Follows  int
	Likes    int
}

// Seeder populates the database.
type Seeder struct {
	db      *gorm.DB
	opts    Options
	factory *Factory
}

// NewSeeder creates a Seeder for db.
func NewSeeder(db *gorm.DB, opts Options) (*Seeder, error) {
	f, err := NewFactory(db, opts)
	if err != nil {
		return nil, err
	}
	return &Seeder{db: db, opts: opts, factory: f}, nil
}

// Run seeds users, then messages, the follow graph and likes.
func (s *Seeder) Run(ctx context.Context) (*Result, error) {
	slog.InfoContext(ctx, "seeding started",
		slog.Int("users", s.opts.Users),
		slog.Int("messages_per_user", s.opts.MessagesPerUser),
		slog.Bool("dry_run", s.opts.DryRun))

	if s.opts.Clean && !s.opts.DryRun {
		if err := s.ClearAll(ctx); err != nil {
			return nil, fmt.Errorf("clear data: %w", err)
		}
	}

	res := &Result{}
	users, err := s.SeedUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("seed users: %w", err)
	}
	res.Users = len(users)

	msgs, err := s.SeedMessages(ctx, users)
	if err != nil {
		return nil, fmt.Errorf("seed messages: %w", err)
	}
	res.Messages = len(msgs)

	if res.Follows, err = s.SeedFollowGraph(ctx, users); err != nil {
		return nil, fmt.Errorf("seed follows: %w", err)
	}
	if res.Likes, err = s.SeedLikes(ctx, users, msgs); err != nil {
		return nil, fmt.Errorf("seed likes: %w", err)
	}

	slog.InfoContext(ctx, "seeding completed",
		slog.Int("users", res.Users),
		slog.Int("messages", res.Messages),
		slog.Int("follows", res.Follows),
		slog.Int("likes", res.Likes))
	return res, nil
}

// ClearAll deletes every row, children first.
func (s *Seeder) ClearAll(ctx context.Context) error {
	db := s.db.WithContext(ctx)
	if db.Dialector.Name() == "postgres" {
		return db.Exec(`TRUNCATE TABLE likes, follows, messages, users RESTART IDENTITY CASCADE`).Error
	}
	return db.Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&models.Like{}, &models.Follow{}, &models.Message{}, &models.User{}} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// SeedUsers creates the fixed accounts followed by random users up to
// Options.Users in total.
func (s *Seeder) SeedUsers(ctx context.Context) ([]models.User, error) {
	users := make([]models.User, 0, max(s.opts.Users, len(s.opts.Accounts)))
	f := s.factory.withDB(s.db.WithContext(ctx))

	for _, name := range s.opts.Accounts {
		u, err := f.CreateUser(func(u *models.User) {
			u.Username = name
			u.Email = name + "@example.com"
		})
		if err != nil {
			return nil, fmt.Errorf("account %s: %w", name, err)
		}
		users = append(users, *u)
	}

	failures := 0
	for len(users) < s.opts.Users {
		u, err := f.CreateUser()
		if err != nil {
			// Random usernames can collide; try another.
			failures++
			if failures > maxUserFailures {
				return nil, fmt.Errorf("too many failed inserts: %w", err)
			}
			slog.WarnContext(ctx, "seed user skipped", slog.String("error", err.Error()))
			continue
		}
		users = append(users, *u)
	}
	return users, nil
}

// SeedMessages gives every user MessagesPerUser messages.
func (s *Seeder) SeedMessages(ctx context.Context, users []models.User) ([]*models.Message, error) {
	f := s.factory.withDB(s.db.WithContext(ctx))
	msgs := make([]*models.Message, 0, len(users)*s.opts.MessagesPerUser)
	for i := range users {
		for j := 0; j < s.opts.MessagesPerUser; j++ {
			msgs = append(msgs, f.BuildMessage(&users[i]))
		}
	}
	if err := f.CreateMessagesBatch(msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// SeedFollowGraph makes each user follow up to FollowsPerUser others.
func (s *Seeder) SeedFollowGraph(ctx context.Context, users []models.User) (int, error) {
	f := s.factory.withDB(s.db.WithContext(ctx))
	var edges []models.Follow
	for i := range users {
		for _, j := range f.pick(len(users), s.opts.FollowsPerUser, i) {
			edges = append(edges, models.Follow{
				UserFollowingID:     users[i].ID,
				UserBeingFollowedID: users[j].ID,
			})
		}
	}
	return len(edges), f.CreateFollows(edges)
}

// SeedLikes makes each user like up to LikesPerUser messages by others.
func (s *Seeder) SeedLikes(ctx context.Context, users []models.User, msgs []*models.Message) (int, error) {
	f := s.factory.withDB(s.db.WithContext(ctx))
	var likes []models.Like
	for i := range users {
		taken := 0
		for _, j := range f.pick(len(msgs), len(msgs), -1) {
			if taken >= s.opts.LikesPerUser {
				break
			}
			if msgs[j].UserID == users[i].ID {
				continue
			}
			likes = append(likes, models.Like{UserID: users[i].ID, MessageID: msgs[j].ID})
			taken++
		}
	}
	return len(likes), f.CreateLikes(likes)
}

func (f *Factory) withDB(db *gorm.DB) *Factory {
	clone := *f
	clone.db = db
	return &clone
}
