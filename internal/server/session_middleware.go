package server

import (
	"context"
	"strings"
	"time"

	"warbler/internal/middleware"
	"warbler/internal/session"

	"github.com/gofiber/fiber/v2"
)

const sessionLocal = "session"

// SessionMiddleware resolves the caller's session from the curr_user cookie
// or an Authorization bearer token. Invalid or revoked tokens make the
// request Anonymous and drop the cookie; they are never an error.
func (s *Server) SessionMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess := session.Anonymous()

		if token := requestToken(c); token != "" {
			parsed, err := s.sessions.Parse(c.UserContext(), token)
			if err != nil {
				if c.Cookies(session.CurrUserKey) != "" {
					expireCookie(c, session.CurrUserKey)
				}
			} else {
				sess = parsed
			}
		}

		c.Locals(sessionLocal, sess)
		if sess.IsAuthenticated() {
			c.Locals("userID", sess.UserID())
			ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, sess.UserID())
			c.SetUserContext(ctx)
		}
		return c.Next()
	}
}

func requestToken(c *fiber.Ctx) string {
	if auth := c.Get(fiber.HeaderAuthorization); auth != "" {
		parts := strings.SplitN(auth, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return strings.TrimSpace(parts[1])
		}
	}
	return c.Cookies(session.CurrUserKey)
}

// currentSession returns the session resolved by SessionMiddleware.
func currentSession(c *fiber.Ctx) session.Session {
	if sess, ok := c.Locals(sessionLocal).(session.Session); ok {
		return sess
	}
	return session.Anonymous()
}

// login issues a session token for the user into the curr_user cookie.
func (s *Server) login(c *fiber.Ctx, userID uint, username string) error {
	token, err := s.sessions.Issue(userID, username)
	if err != nil {
		return err
	}
	c.Cookie(&fiber.Cookie{
		Name:     session.CurrUserKey,
		Value:    token,
		Path:     "/",
		HTTPOnly: true,
		Secure:   s.config.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
		Expires:  time.Now().Add(s.sessions.TTL()),
	})
	c.Locals(sessionLocal, session.Authenticated(userID))
	c.Locals("userID", userID)
	return nil
}

// logout revokes the request's token and drops the cookie.
func (s *Server) logout(c *fiber.Ctx) {
	if token := requestToken(c); token != "" {
		if err := s.sessions.Revoke(c.UserContext(), token); err != nil {
			middleware.Logger.WarnContext(c.UserContext(), "token revocation failed", "error", err)
		}
	}
	expireCookie(c, session.CurrUserKey)
	c.Locals(sessionLocal, session.Anonymous())
}
