package server

import (
	"github.com/gofiber/fiber/v2"
)

// ToggleLike handles POST /users/add_like/:id
// @Summary Like or unlike a message
// @Tags messages
// @Param id path int true "Message ID"
// @Success 302 "Redirect to /"
// @Router /users/add_like/{id} [post]
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	sess := currentSession(c)
	if !sess.IsAuthenticated() {
		return refuse(c)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	if _, err := s.likeService.Toggle(c.UserContext(), sess, id); err != nil {
		return respondServiceError(c, err, "", nil)
	}
	return redirect(c, "/")
}
