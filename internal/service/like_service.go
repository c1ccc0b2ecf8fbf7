package service

import (
	"context"
	"log/slog"

	"warbler/internal/models"
	"warbler/internal/observability"
	"warbler/internal/repository"
	"warbler/internal/session"
)

type LikeService struct {
	store repository.Store
}

func NewLikeService(store repository.Store) *LikeService {
	return &LikeService{store: store}
}

// Like records that the session user likes messageID. Liking twice is a no-op.
func (s *LikeService) Like(ctx context.Context, sess session.Session, messageID uint) (err error) {
	ctx, span := observability.StartSpan(ctx, "LikeService.Like")
	defer observability.EndSpan(span, &err)

	return s.mutate(ctx, sess, messageID, func(tx repository.Store) (string, error) {
		created, err := tx.Likes().Like(ctx, sess.UserID(), messageID)
		if !created {
			return "", err
		}
		return "like", err
	})
}

// Unlike removes the session user's like on messageID, if any.
func (s *LikeService) Unlike(ctx context.Context, sess session.Session, messageID uint) (err error) {
	ctx, span := observability.StartSpan(ctx, "LikeService.Unlike")
	defer observability.EndSpan(span, &err)

	return s.mutate(ctx, sess, messageID, func(tx repository.Store) (string, error) {
		removed, err := tx.Likes().Unlike(ctx, sess.UserID(), messageID)
		if !removed {
			return "", err
		}
		return "unlike", err
	})
}

// Toggle likes messageID, or unlikes it when already liked, and reports
// whether it is liked afterwards.
func (s *LikeService) Toggle(ctx context.Context, sess session.Session, messageID uint) (liked bool, err error) {
	ctx, span := observability.StartSpan(ctx, "LikeService.Toggle")
	defer observability.EndSpan(span, &err)

	err = s.mutate(ctx, sess, messageID, func(tx repository.Store) (string, error) {
		exists, err := tx.Likes().Exists(ctx, sess.UserID(), messageID)
		if err != nil {
			return "", err
		}
		if exists {
			_, err = tx.Likes().Unlike(ctx, sess.UserID(), messageID)
			return "unlike", err
		}
		_, err = tx.Likes().Like(ctx, sess.UserID(), messageID)
		liked = true
		return "like", err
	})
	if err != nil {
		return false, err
	}
	return liked, nil
}

// LikesOf lists the messages userID has liked. Requires a logged-in session.
func (s *LikeService) LikesOf(ctx context.Context, sess session.Session, userID uint) (*models.User, []models.Message, error) {
	if err := session.RequireUser(sess); err != nil {
		return nil, nil, err
	}
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	msgs, err := s.store.Likes().LikedMessages(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return user, msgs, nil
}

// LikedIDs returns the ids of messages the session user has liked.
func (s *LikeService) LikedIDs(ctx context.Context, sess session.Session) ([]uint, error) {
	if !sess.IsAuthenticated() {
		return []uint{}, nil
	}
	return s.store.Likes().LikedMessageIDs(ctx, sess.UserID())
}

// mutate gates on a live session user, checks the message exists and runs fn in one
// transaction. fn returns the metric op to count, or "" for a no-op.
func (s *LikeService) mutate(ctx context.Context, sess session.Session, messageID uint, fn func(repository.Store) (string, error)) error {
	if err := session.RequireUser(sess); err != nil {
		return err
	}

	var op string
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		if _, err := sessionUser(ctx, tx, sess); err != nil {
			return err
		}
		msg, err := tx.Messages().GetByID(ctx, messageID)
		if err != nil {
			return err
		}
		if msg == nil {
			return models.NewNotFoundError("Message", messageID)
		}
		op, err = fn(tx)
		return err
	})
	if err != nil {
		return err
	}

	if op != "" {
		observability.LikesTotal.WithLabelValues(op).Inc()
		slog.InfoContext(ctx, "like "+op, "user_id", sess.UserID(), "message_id", messageID)
	}
	return nil
}
