// Package seed creates demo and test data: users, their messages, the
// follow graph between them and likes. Intended for development only.
package seed

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"warbler/internal/credential"
	"warbler/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultPassword is the plain password of every seeded account.
const DefaultPassword = "password"

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db     *gorm.DB
	opts   Options
	faker  *gofakeit.Faker
	hash   string
	now    func() time.Time
	nextID uint
}

// NewFactory creates a Factory bound to db. The password hash is computed
// once and shared by every user it builds.
func NewFactory(db *gorm.DB, opts Options) (*Factory, error) {
	hasher, err := credential.NewHasher(opts.BcryptCost)
	if err != nil {
		return nil, err
	}
	hash, err := hasher.Hash(DefaultPassword)
	if err != nil {
		return nil, fmt.Errorf("hash seed password: %w", err)
	}

	seed := opts.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Factory{
		db:     db,
		opts:   opts,
		faker:  gofakeit.New(seed),
		hash:   hash,
		now:    time.Now,
		nextID: 1000,
	}, nil
}

// BuildUser returns an unsaved user with a unique-ish username.
func (f *Factory) BuildUser(overrides ...func(*models.User)) *models.User {
	username := strings.ToLower(f.faker.Username())
	username = strings.Map(func(r rune) rune {
		if r == '_' || r == '-' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, username)
	username = strings.Trim(username, "_-")
	if len(username) < 3 {
		username = "user" + username
	}
	if len(username) > 24 {
		username = username[:24]
	}
	username = fmt.Sprintf("%s%d", username, f.faker.Number(100, 999))

	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: f.hash,
		ImageURL: fmt.Sprintf("https://i.pravatar.cc/150?u=%s", f.faker.UUID()),
		Bio:      f.faker.Sentence(10),
		Location: f.faker.City(),
	}
	for _, override := range overrides {
		override(user)
	}
	user.ApplyImageDefaults()
	return user
}

// CreateUser builds and persists a user.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	user := f.BuildUser(overrides...)
	if f.opts.DryRun {
		f.nextID++
		user.ID = f.nextID
		return user, nil
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// BuildMessage returns an unsaved message by author with a timestamp
// spread over the last MaxDays days.
func (f *Factory) BuildMessage(author *models.User, overrides ...func(*models.Message)) *models.Message {
	msg := &models.Message{
		Text:      truncate(f.faker.HipsterSentence(f.faker.Number(4, 18)), models.MaxMessageLength),
		Timestamp: f.pastTime(),
		UserID:    author.ID,
	}
	for _, override := range overrides {
		override(msg)
	}
	return msg
}

// CreateMessagesBatch persists messages in chunks of BatchSize.
func (f *Factory) CreateMessagesBatch(msgs []*models.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	if f.opts.DryRun {
		for _, m := range msgs {
			f.nextID++
			m.ID = f.nextID
		}
		return nil
	}
	return f.db.CreateInBatches(&msgs, f.batchSize()).Error
}

// CreateFollows persists follow edges, skipping ones that already exist.
func (f *Factory) CreateFollows(edges []models.Follow) error {
	if len(edges) == 0 || f.opts.DryRun {
		return nil
	}
	return f.db.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(&edges, f.batchSize()).Error
}

// CreateLikes persists likes, skipping ones that already exist.
func (f *Factory) CreateLikes(likes []models.Like) error {
	if len(likes) == 0 || f.opts.DryRun {
		return nil
	}
	return f.db.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(&likes, f.batchSize()).Error
}

func (f *Factory) batchSize() int {
	if f.opts.BatchSize > 0 {
		return f.opts.BatchSize
	}
	return 200
}

func (f *Factory) pastTime() time.Time {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 30
	}
	back := time.Duration(f.faker.Number(0, maxDays*24*60)) * time.Minute
	return f.now().Add(-back).UTC()
}

// pick returns up to n distinct indexes in [0, size) other than skip.
func (f *Factory) pick(size, n, skip int) []int {
	if n <= 0 || size <= 1 {
		return nil
	}
	perm := make([]int, 0, size)
	for i := 0; i < size; i++ {
		if i != skip {
			perm = append(perm, i)
		}
	}
	f.faker.ShuffleInts(perm)
	if n > len(perm) {
		n = len(perm)
	}
	return perm[:n]
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:max]))
}
