package server

import (
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Flash categories.
const (
	FlashSuccess = "success"
	FlashDanger  = "danger"
)

const flashCookie = "flash"

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Message  string `json:"message"`
	Category string `json:"category"`
}

// setFlash queues msg for the next render. Flashes set earlier in the same
// request or carried in from the previous one are kept.
func setFlash(c *fiber.Ctx, msg, category string) {
	pending := pendingFlashes(c)
	pending = append(pending, Flash{Message: msg, Category: category})
	c.Locals(flashCookie, pending)

	raw, err := json.Marshal(pending)
	if err != nil {
		return
	}
	c.Cookie(&fiber.Cookie{
		Name:     flashCookie,
		Value:    base64.RawURLEncoding.EncodeToString(raw),
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Expires:  time.Now().Add(5 * time.Minute),
	})
}

// consumeFlashes returns pending flashes and clears the cookie.
func consumeFlashes(c *fiber.Ctx) []Flash {
	pending := pendingFlashes(c)
	c.Locals(flashCookie, []Flash{})
	if c.Cookies(flashCookie) != "" || len(pending) > 0 {
		expireCookie(c, flashCookie)
	}
	return pending
}

func pendingFlashes(c *fiber.Ctx) []Flash {
	if v, ok := c.Locals(flashCookie).([]Flash); ok {
		return v
	}
	flashes := []Flash{}
	if raw := c.Cookies(flashCookie); raw != "" {
		if b, err := base64.RawURLEncoding.DecodeString(raw); err == nil {
			_ = json.Unmarshal(b, &flashes)
		}
	}
	return flashes
}

// expireCookie tells the client to drop name on every path.
func expireCookie(c *fiber.Ctx, name string) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
	})
}
