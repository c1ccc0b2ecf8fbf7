// Package repository implements the data access layer for the application.
package repository

import (
	"context"

	"warbler/internal/cache"

	"gorm.io/gorm"
)

// Store groups the repositories that share one database handle.
// Transaction runs fn against a Store bound to a single database
// transaction; any error returned by fn rolls back every write in it.
type Store interface {
	Users() UserRepository
	Messages() MessageRepository
	Follows() FollowRepository
	Likes() LikeRepository
	Transaction(ctx context.Context, fn func(Store) error) error
}

type gormStore struct {
	db  *gorm.DB
	inv *invalidator
}

// NewStore returns a Store backed by db. Reads outside a transaction go
// through the Redis cache when one is configured.
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db, inv: &invalidator{}}
}

func (s *gormStore) Users() UserRepository {
	return &userRepository{db: s.db, inv: s.inv}
}

func (s *gormStore) Messages() MessageRepository {
	return &messageRepository{db: s.db, inv: s.inv}
}

func (s *gormStore) Follows() FollowRepository {
	return &followRepository{db: s.db, inv: s.inv}
}

func (s *gormStore) Likes() LikeRepository {
	return &likeRepository{db: s.db, inv: s.inv}
}

func (s *gormStore) Transaction(ctx context.Context, fn func(Store) error) error {
	if s.inv.deferred {
		// Already inside a transaction; gorm turns this into a savepoint.
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(&gormStore{db: tx, inv: s.inv})
		})
	}

	inv := &invalidator{deferred: true}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx, inv: inv})
	})
	if err != nil {
		return err
	}
	inv.flush(ctx)
	return nil
}

// invalidator evicts cached user data. Inside a transaction evictions are
// held until commit so a rolled back write never clears or repopulates
// the cache with uncommitted state. Cached reads are skipped while deferred.
type invalidator struct {
	deferred bool
	users    []uint
	stats    []uint
}

func (i *invalidator) cached() bool {
	return !i.deferred
}

func (i *invalidator) user(ctx context.Context, id uint) {
	if i.deferred {
		i.users = append(i.users, id)
		return
	}
	cache.InvalidateUser(ctx, id)
}

func (i *invalidator) userStats(ctx context.Context, ids ...uint) {
	if i.deferred {
		i.stats = append(i.stats, ids...)
		return
	}
	cache.InvalidateStats(ctx, ids...)
}

func (i *invalidator) flush(ctx context.Context) {
	for _, id := range i.users {
		cache.InvalidateUser(ctx, id)
	}
	if len(i.stats) > 0 {
		cache.InvalidateStats(ctx, i.stats...)
	}
	i.users, i.stats = nil, nil
}
