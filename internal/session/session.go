// Package session models who is making a request and gates mutations on it.
package session

import (
	"warbler/internal/models"
)

// CurrUserKey names the cookie that carries the session token.
const CurrUserKey = "curr_user"

// Session is either Anonymous or Authenticated as a single user.
// The zero value is Anonymous.
type Session struct {
	userID uint
}

// Anonymous returns a session with no user.
func Anonymous() Session {
	return Session{}
}

// Authenticated returns a session for userID. A zero id yields Anonymous.
func Authenticated(userID uint) Session {
	return Session{userID: userID}
}

func (s Session) IsAuthenticated() bool {
	return s.userID != 0
}

// UserID returns the authenticated user's id, or 0 for Anonymous.
func (s Session) UserID() uint {
	return s.userID
}

// RequireUser refuses Anonymous sessions.
func RequireUser(s Session) error {
	if !s.IsAuthenticated() {
		return models.NewUnauthorizedError(models.AccessUnauthorized)
	}
	return nil
}

// RequireOwner refuses unless s is authenticated as ownerID.
func RequireOwner(s Session, ownerID uint) error {
	if err := RequireUser(s); err != nil {
		return err
	}
	if s.userID != ownerID {
		return models.NewUnauthorizedError(models.AccessUnauthorized)
	}
	return nil
}
