package service

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"warbler/internal/models"
	"warbler/internal/observability"
	"warbler/internal/repository"
	"warbler/internal/session"
)

// TimelineLimit caps the home timeline.
const TimelineLimit = 100

type MessageService struct {
	store repository.Store
	now   func() time.Time
}

func NewMessageService(store repository.Store) *MessageService {
	return &MessageService{store: store, now: time.Now}
}

// Create posts text as the session user.
func (s *MessageService) Create(ctx context.Context, sess session.Session, text string) (msg *models.Message, err error) {
	ctx, span := observability.StartSpan(ctx, "MessageService.Create")
	defer observability.EndSpan(span, &err)

	if err := session.RequireUser(sess); err != nil {
		return nil, err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, models.NewValidationError("Message text is required")
	}
	if utf8.RuneCountInString(text) > models.MaxMessageLength {
		return nil, models.NewValidationError("Message text must be at most 140 characters")
	}

	msg = &models.Message{
		Text:      text,
		Timestamp: s.now().UTC(),
		UserID:    sess.UserID(),
	}
	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		if _, err := sessionUser(ctx, tx, sess); err != nil {
			return err
		}
		return tx.Messages().Create(ctx, msg)
	})
	if err != nil {
		return nil, err
	}

	observability.MessagesTotal.WithLabelValues("create").Inc()
	slog.InfoContext(ctx, "message created", "message_id", msg.ID, "user_id", msg.UserID)
	return msg, nil
}

// Delete removes a message owned by the session user. A missing message
// is refused the same way as someone else's.
func (s *MessageService) Delete(ctx context.Context, sess session.Session, id uint) (err error) {
	ctx, span := observability.StartSpan(ctx, "MessageService.Delete")
	defer observability.EndSpan(span, &err)

	if err := session.RequireUser(sess); err != nil {
		return err
	}

	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		msg, err := tx.Messages().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if msg == nil {
			return models.NewUnauthorizedError(models.AccessUnauthorized)
		}
		if err := session.RequireOwner(sess, msg.UserID); err != nil {
			return err
		}
		return tx.Messages().Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	observability.MessagesTotal.WithLabelValues("delete").Inc()
	slog.InfoContext(ctx, "message deleted", "message_id", id, "user_id", sess.UserID())
	return nil
}

// Get returns the message or (nil, nil) when there is none.
func (s *MessageService) Get(ctx context.Context, id uint) (*models.Message, error) {
	return s.store.Messages().GetByID(ctx, id)
}

// Timeline is the session user's messages plus those of everyone they
// follow, newest first. Anonymous sessions get an empty timeline.
func (s *MessageService) Timeline(ctx context.Context, sess session.Session) ([]models.Message, error) {
	if !sess.IsAuthenticated() {
		return []models.Message{}, nil
	}
	ids, err := s.store.Follows().FollowingIDs(ctx, sess.UserID())
	if err != nil {
		return nil, err
	}
	ids = append(ids, sess.UserID())
	return s.store.Messages().ListByUsers(ctx, ids, TimelineLimit)
}
