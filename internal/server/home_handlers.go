package server

import (
	"warbler/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Homepage handles GET /
// @Summary Landing page
// @Description Anonymous callers get the landing view; logged-in users get their timeline.
// @Tags pages
// @Produce json
// @Success 200 {object} object{view=string,messages=[]models.Message,likes=[]int}
// @Router / [get]
func (s *Server) Homepage(c *fiber.Ctx) error {
	sess := currentSession(c)
	if !sess.IsAuthenticated() {
		return render(c, "home-anon", nil)
	}

	ctx := c.UserContext()
	user, err := s.userService.GetUser(ctx, sess.UserID())
	if err != nil {
		if models.ErrorCode(err) == models.CodeNotFound {
			// Session outlived its account.
			s.logout(c)
			return render(c, "home-anon", nil)
		}
		return respondServiceError(c, err, "", nil)
	}

	msgs, err := s.messageService.Timeline(ctx, sess)
	if err != nil {
		return respondServiceError(c, err, "", nil)
	}
	likes, err := s.likeService.LikedIDs(ctx, sess)
	if err != nil {
		return respondServiceError(c, err, "", nil)
	}

	return render(c, "home", fiber.Map{
		"user":     user,
		"messages": msgs,
		"likes":    likes,
	})
}
