package server

import (
	"warbler/internal/models"
	"warbler/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// NewMessageForm handles GET /messages/new
// @Summary New message form
// @Tags messages
// @Produce json
// @Success 200 {object} object{view=string,fields=[]string}
// @Success 302 "Access unauthorized"
// @Router /messages/new [get]
func (s *Server) NewMessageForm(c *fiber.Ctx) error {
	if !currentSession(c).IsAuthenticated() {
		return refuse(c)
	}
	return render(c, "messages/new", fiber.Map{"fields": []string{"text"}})
}

// CreateMessage handles POST /messages/new
// @Summary Post a message
// @Tags messages
// @Accept json,x-www-form-urlencoded
// @Param request body validation.MessageForm true "Message body"
// @Success 302 "Redirect to the author's page"
// @Router /messages/new [post]
func (s *Server) CreateMessage(c *fiber.Ctx) error {
	sess := currentSession(c)
	if !sess.IsAuthenticated() {
		return refuse(c)
	}

	var form validation.MessageForm
	if err := parseForm(c, &form, "messages/new"); err != nil {
		if err == errResponseWritten {
			return nil
		}
		return err
	}

	msg, err := s.messageService.Create(c.UserContext(), sess, form.Text)
	if err != nil {
		return respondServiceError(c, err, "messages/new", fiber.Map{"form": fiber.Map{"text": form.Text}})
	}
	return redirect(c, userPath(msg.UserID))
}

// ShowMessage handles GET /messages/:id
// @Summary Show a message
// @Tags messages
// @Produce json
// @Param id path int true "Message ID"
// @Success 200 {object} object{view=string,message=models.Message}
// @Failure 404 {object} models.ErrorResponse
// @Router /messages/{id} [get]
func (s *Server) ShowMessage(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	msg, err := s.messageService.Get(c.UserContext(), id)
	if err != nil {
		return respondServiceError(c, err, "", nil)
	}
	if msg == nil {
		return models.RespondWithError(c, fiber.StatusNotFound, models.NewNotFoundError("Message", id))
	}
	return render(c, "messages/show", fiber.Map{"message": msg})
}

// DeleteMessage handles POST /messages/:id/delete
// @Summary Delete own message
// @Tags messages
// @Param id path int true "Message ID"
// @Success 302 "Redirect to the author's page, or / when refused"
// @Router /messages/{id}/delete [post]
func (s *Server) DeleteMessage(c *fiber.Ctx) error {
	sess := currentSession(c)
	if !sess.IsAuthenticated() {
		return refuse(c)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.messageService.Delete(c.UserContext(), sess, id); err != nil {
		return respondServiceError(c, err, "", nil)
	}
	return redirect(c, userPath(sess.UserID()))
}
