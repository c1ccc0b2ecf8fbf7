package service

import (
	"context"
	"log/slog"

	"warbler/internal/models"
	"warbler/internal/observability"
	"warbler/internal/repository"
	"warbler/internal/session"
)

// SocialService manages the follow graph.
type SocialService struct {
	store repository.Store
}

func NewSocialService(store repository.Store) *SocialService {
	return &SocialService{store: store}
}

// Follow makes the session user follow targetID. Following someone twice
// is a no-op.
func (s *SocialService) Follow(ctx context.Context, sess session.Session, targetID uint) (err error) {
	ctx, span := observability.StartSpan(ctx, "SocialService.Follow")
	defer observability.EndSpan(span, &err)

	if err := session.RequireUser(sess); err != nil {
		return err
	}
	if sess.UserID() == targetID {
		return models.NewValidationError("You cannot follow yourself.")
	}

	var created bool
	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		if _, err := sessionUser(ctx, tx, sess); err != nil {
			return err
		}
		if _, err := tx.Users().GetByID(ctx, targetID); err != nil {
			return err
		}
		var err error
		created, err = tx.Follows().Follow(ctx, sess.UserID(), targetID)
		return err
	})
	if err != nil {
		return err
	}

	if created {
		observability.FollowEdgesTotal.WithLabelValues("follow").Inc()
		slog.InfoContext(ctx, "user followed", "follower_id", sess.UserID(), "followed_id", targetID)
	}
	return nil
}

// Unfollow removes the edge from the session user to targetID, if any.
func (s *SocialService) Unfollow(ctx context.Context, sess session.Session, targetID uint) (err error) {
	ctx, span := observability.StartSpan(ctx, "SocialService.Unfollow")
	defer observability.EndSpan(span, &err)

	if err := session.RequireUser(sess); err != nil {
		return err
	}

	var removed bool
	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		if _, err := sessionUser(ctx, tx, sess); err != nil {
			return err
		}
		var err error
		removed, err = tx.Follows().Unfollow(ctx, sess.UserID(), targetID)
		return err
	})
	if err != nil {
		return err
	}

	if removed {
		observability.FollowEdgesTotal.WithLabelValues("unfollow").Inc()
		slog.InfoContext(ctx, "user unfollowed", "follower_id", sess.UserID(), "followed_id", targetID)
	}
	return nil
}

// IsFollowing reports whether a follows b.
func (s *SocialService) IsFollowing(ctx context.Context, a, b uint) (bool, error) {
	return s.store.Follows().Exists(ctx, a, b)
}

// IsFollowedBy reports whether b follows a.
func (s *SocialService) IsFollowedBy(ctx context.Context, a, b uint) (bool, error) {
	return s.store.Follows().Exists(ctx, b, a)
}

// Followers lists who follows userID. Requires a logged-in session.
func (s *SocialService) Followers(ctx context.Context, sess session.Session, userID uint) (*models.User, []models.User, error) {
	return s.listing(ctx, sess, userID, s.store.Follows().Followers)
}

// Following lists who userID follows. Requires a logged-in session.
func (s *SocialService) Following(ctx context.Context, sess session.Session, userID uint) (*models.User, []models.User, error) {
	return s.listing(ctx, sess, userID, s.store.Follows().Following)
}

func (s *SocialService) listing(ctx context.Context, sess session.Session, userID uint, list func(context.Context, uint) ([]models.User, error)) (*models.User, []models.User, error) {
	if err := session.RequireUser(sess); err != nil {
		return nil, nil, err
	}
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	users, err := list(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return user, users, nil
}
