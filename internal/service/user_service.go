// Package service holds the application's use cases. Every mutating
// operation runs inside a single store transaction.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"warbler/internal/credential"
	"warbler/internal/models"
	"warbler/internal/observability"
	"warbler/internal/repository"
	"warbler/internal/session"

	"go.opentelemetry.io/otel/attribute"
)

// WrongPassword is shown when a profile edit fails the password re-check.
const WrongPassword = "Wrong password, please try again."

// profileMessageLimit caps the messages shown on a user's page.
const profileMessageLimit = 100

type UserService struct {
	store  repository.Store
	hasher *credential.Hasher
}

type SignupInput struct {
	Username string
	Email    string
	Password string
	ImageURL string
}

type UpdateProfileInput struct {
	Username       string
	Email          string
	ImageURL       string
	HeaderImageURL string
	Bio            string
	Location       string
	// Password is the current password, checked before anything changes.
	Password string
}

// UserProfile is a user with their messages (newest first) and counters.
type UserProfile struct {
	User     *models.User      `json:"user"`
	Messages []models.Message  `json:"messages"`
	Stats    *models.UserStats `json:"stats"`
}

func NewUserService(store repository.Store, hasher *credential.Hasher) *UserService {
	return &UserService{store: store, hasher: hasher}
}

// Signup creates a user with a hashed password. A taken username or email
// is a validation error and nothing is written.
func (s *UserService) Signup(ctx context.Context, in SignupInput) (user *models.User, err error) {
	ctx, span := observability.StartSpan(ctx, "UserService.Signup")
	defer observability.EndSpan(span, &err)

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user = &models.User{
		Username: strings.TrimSpace(in.Username),
		Email:    strings.TrimSpace(in.Email),
		Password: hash,
		ImageURL: strings.TrimSpace(in.ImageURL),
	}
	user.ApplyImageDefaults()

	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		existing, err := tx.Users().GetByUsername(ctx, user.Username)
		if err != nil {
			return err
		}
		if existing != nil {
			return models.NewValidationError("Username already taken")
		}
		existing, err = tx.Users().GetByEmail(ctx, user.Email)
		if err != nil {
			return err
		}
		if existing != nil {
			return models.NewValidationError("Email already taken")
		}
		return tx.Users().Create(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	observability.SignupsTotal.Inc()
	span.SetAttributes(attribute.Int64("user.id", int64(user.ID)))
	slog.InfoContext(ctx, "user signed up", slog.Uint64("user_id", uint64(user.ID)))
	return user, nil
}

// Authenticate returns the user when username exists and password matches
// its hash. Any other outcome is (nil, nil); callers cannot tell an unknown
// username from a wrong password.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	ctx, span := observability.StartSpan(ctx, "UserService.Authenticate")
	defer span.End()

	user, err := s.store.Users().GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		s.hasher.Burn(password)
		observability.LoginsTotal.WithLabelValues("failure").Inc()
		return nil, nil
	}

	ok, err := s.hasher.Verify(user.Password, password)
	if err != nil {
		slog.WarnContext(ctx, "stored password hash unreadable", "user_id", user.ID, "err", err)
	}
	if !ok {
		observability.LoginsTotal.WithLabelValues("failure").Inc()
		return nil, nil
	}

	observability.LoginsTotal.WithLabelValues("success").Inc()
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	return s.store.Users().GetByID(ctx, id)
}

// Search lists users whose username contains query; empty lists all.
func (s *UserService) Search(ctx context.Context, query string) ([]models.User, error) {
	return s.store.Users().Search(ctx, query, 0)
}

func (s *UserService) Profile(ctx context.Context, id uint) (*UserProfile, error) {
	user, err := s.store.Users().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	msgs, err := s.store.Messages().ListByUser(ctx, id, profileMessageLimit)
	if err != nil {
		return nil, err
	}
	stats, err := s.store.Users().Stats(ctx, id)
	if err != nil {
		return nil, err
	}
	return &UserProfile{User: user, Messages: msgs, Stats: stats}, nil
}

// UpdateProfile edits the session user's own profile after re-checking the
// current password. Empty image fields reset to the defaults.
func (s *UserService) UpdateProfile(ctx context.Context, sess session.Session, targetID uint, in UpdateProfileInput) (user *models.User, err error) {
	ctx, span := observability.StartSpan(ctx, "UserService.UpdateProfile")
	defer observability.EndSpan(span, &err)

	if err := session.RequireOwner(sess, targetID); err != nil {
		return nil, err
	}

	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		u, err := sessionUser(ctx, tx, sess)
		if err != nil {
			return err
		}

		ok, err := s.hasher.Verify(u.Password, in.Password)
		if err != nil || !ok {
			return models.NewValidationError(WrongPassword)
		}

		u.Username = strings.TrimSpace(in.Username)
		u.Email = strings.TrimSpace(in.Email)
		u.ImageURL = strings.TrimSpace(in.ImageURL)
		u.HeaderImageURL = strings.TrimSpace(in.HeaderImageURL)
		u.Bio = in.Bio
		u.Location = strings.TrimSpace(in.Location)
		u.ApplyImageDefaults()

		if err := tx.Users().Update(ctx, u); err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "profile updated", slog.Uint64("user_id", uint64(targetID)))
	return user, nil
}

// DeleteAccount removes the session user and everything that hangs off
// them: likes on their messages, their likes, follow edges both ways,
// their messages, then the user row.
func (s *UserService) DeleteAccount(ctx context.Context, sess session.Session, targetID uint) (err error) {
	ctx, span := observability.StartSpan(ctx, "UserService.DeleteAccount")
	defer observability.EndSpan(span, &err)

	if err := session.RequireOwner(sess, targetID); err != nil {
		return err
	}

	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		if _, err := tx.Users().GetByID(ctx, targetID); err != nil {
			return err
		}
		steps := []func(context.Context, uint) error{
			tx.Likes().DeleteOnMessagesOf,
			tx.Likes().DeleteByUser,
			tx.Follows().DeleteAllFor,
			tx.Messages().DeleteByUser,
			tx.Users().Delete,
		}
		for _, step := range steps {
			if err := step(ctx, targetID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) && appErr.Code == models.CodeNotFound {
			return models.NewUnauthorizedError(models.AccessUnauthorized)
		}
		return err
	}

	slog.InfoContext(ctx, "account deleted", slog.Uint64("user_id", uint64(targetID)))
	return nil
}

// sessionUser loads the session user inside tx. A token that outlived its
// account is refused like any other unauthorized caller.
func sessionUser(ctx context.Context, tx repository.Store, sess session.Session) (*models.User, error) {
	if err := session.RequireUser(sess); err != nil {
		return nil, err
	}
	u, err := tx.Users().GetByID(ctx, sess.UserID())
	if models.ErrorCode(err) == models.CodeNotFound {
		return nil, models.NewUnauthorizedError(models.AccessUnauthorized)
	}
	return u, err
}
