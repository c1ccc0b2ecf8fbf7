package server

import (
	"context"
	"errors"
	"fmt"

	"warbler/internal/models"
	"warbler/internal/service"
	"warbler/internal/session"
	"warbler/internal/validation"

	"github.com/gofiber/fiber/v2"
)

func userPath(id uint) string {
	return fmt.Sprintf("/users/%d", id)
}

// ListUsers handles GET /users/
// @Summary Search users
// @Tags users
// @Produce json
// @Param q query string false "Username substring"
// @Success 200 {object} object{view=string,users=[]models.User}
// @Router /users/ [get]
func (s *Server) ListUsers(c *fiber.Ctx) error {
	q := c.Query("q")
	users, err := s.userService.Search(c.UserContext(), q)
	if err != nil {
		return respondServiceError(c, err, "", nil)
	}
	return render(c, "users/index", fiber.Map{"users": users, "q": q})
}

// ShowUser handles GET /users/:id
// @Summary User profile
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} object{view=string,user=models.User,messages=[]models.Message,stats=models.UserStats}
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{id} [get]
func (s *Server) ShowUser(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	profile, err := s.userService.Profile(c.UserContext(), id)
	if err != nil {
		return respondServiceError(c, err, "", nil)
	}

	data := fiber.Map{
		"user":     profile.User,
		"messages": profile.Messages,
		"stats":    profile.Stats,
	}
	if sess := currentSession(c); sess.IsAuthenticated() && sess.UserID() != id {
		following, err := s.socialService.IsFollowing(c.UserContext(), sess.UserID(), id)
		if err != nil {
			return respondServiceError(c, err, "", nil)
		}
		data["is_following"] = following
	}
	return render(c, "users/show", data)
}

// ShowFollowing handles GET /users/:id/following
// @Summary Users followed by a user
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} object{view=string,user=models.User,users=[]models.User}
// @Success 302 "Access unauthorized"
// @Router /users/{id}/following [get]
func (s *Server) ShowFollowing(c *fiber.Ctx) error {
	return s.showGraph(c, "users/following", s.socialService.Following)
}

// ShowFollowers handles GET /users/:id/followers
// @Summary Followers of a user
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} object{view=string,user=models.User,users=[]models.User}
// @Success 302 "Access unauthorized"
// @Router /users/{id}/followers [get]
func (s *Server) ShowFollowers(c *fiber.Ctx) error {
	return s.showGraph(c, "users/followers", s.socialService.Followers)
}

type graphListing func(ctx context.Context, sess session.Session, userID uint) (*models.User, []models.User, error)

func (s *Server) showGraph(c *fiber.Ctx, view string, list graphListing) error {
	sess := currentSession(c)
	if !sess.IsAuthenticated() {
		return refuse(c)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	user, users, err := list(c.UserContext(), sess, id)
	if err != nil {
		return respondServiceError(c, err, "", nil)
	}
	return render(c, view, fiber.Map{"user": user, "users": users})
}

// ShowLikes handles GET /users/:id/likes
// @Summary Messages liked by a user
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} object{view=string,user=models.User,messages=[]models.Message}
// @Success 302 "Access unauthorized"
// @Router /users/{id}/likes [get]
func (s *Server) ShowLikes(c *fiber.Ctx) error {
	sess := currentSession(c)
	if !sess.IsAuthenticated() {
		return refuse(c)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	user, msgs, err := s.likeService.LikesOf(c.UserContext(), sess, id)
	if err != nil {
		return respondServiceError(c, err, "", nil)
	}
	return render(c, "users/likes", fiber.Map{"user": user, "messages": msgs})
}

// Follow handles POST /users/follow/:id
// @Summary Follow a user
// @Tags users
// @Param id path int true "User to follow"
// @Success 302 "Redirect to the caller's following list"
// @Router /users/follow/{id} [post]
func (s *Server) Follow(c *fiber.Ctx) error {
	sess := currentSession(c)
	if !sess.IsAuthenticated() {
		return refuse(c)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.socialService.Follow(c.UserContext(), sess, id); err != nil {
		return respondServiceError(c, err, "", nil)
	}
	return redirect(c, userPath(sess.UserID())+"/following")
}

// StopFollowing handles POST /users/stop-following/:id
// @Summary Unfollow a user
// @Tags users
// @Param id path int true "User to unfollow"
// @Success 302 "Redirect to the caller's following list"
// @Router /users/stop-following/{id} [post]
func (s *Server) StopFollowing(c *fiber.Ctx) error {
	sess := currentSession(c)
	if !sess.IsAuthenticated() {
		return refuse(c)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.socialService.Unfollow(c.UserContext(), sess, id); err != nil {
		return respondServiceError(c, err, "", nil)
	}
	return redirect(c, userPath(sess.UserID())+"/following")
}

// ProfileForm handles GET /users/profile
// @Summary Profile edit form
// @Tags users
// @Produce json
// @Success 200 {object} object{view=string,form=object}
// @Success 302 "Access unauthorized"
// @Router /users/profile [get]
func (s *Server) ProfileForm(c *fiber.Ctx) error {
	sess := currentSession(c)
	if !sess.IsAuthenticated() {
		return refuse(c)
	}

	user, err := s.userService.GetUser(c.UserContext(), sess.UserID())
	if err != nil {
		if models.ErrorCode(err) == models.CodeNotFound {
			return refuse(c)
		}
		return respondServiceError(c, err, "", nil)
	}
	return render(c, "users/edit", fiber.Map{"form": profileFormData(user)})
}

func profileFormData(u *models.User) fiber.Map {
	return fiber.Map{
		"username":         u.Username,
		"email":            u.Email,
		"image_url":        u.ImageURL,
		"header_image_url": u.HeaderImageURL,
		"bio":              u.Bio,
		"location":         u.Location,
	}
}

// UpdateProfile handles POST /users/profile
// @Summary Update own profile
// @Description The current password must be supplied to confirm the edit.
// @Tags users
// @Accept json,x-www-form-urlencoded
// @Param request body validation.ProfileForm true "Profile fields"
// @Success 302 "Redirect to the profile page, or to / on a wrong password"
// @Router /users/profile [post]
func (s *Server) UpdateProfile(c *fiber.Ctx) error {
	sess := currentSession(c)
	if !sess.IsAuthenticated() {
		return refuse(c)
	}

	var form validation.ProfileForm
	if err := parseForm(c, &form, "users/edit"); err != nil {
		if err == errResponseWritten {
			return nil
		}
		return err
	}

	user, err := s.userService.UpdateProfile(c.UserContext(), sess, sess.UserID(), service.UpdateProfileInput{
		Username:       form.Username,
		Email:          form.Email,
		ImageURL:       form.ImageURL,
		HeaderImageURL: form.HeaderImageURL,
		Bio:            form.Bio,
		Location:       form.Location,
		Password:       form.Password,
	})
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) && appErr.Message == service.WrongPassword {
			setFlash(c, service.WrongPassword, FlashDanger)
			return redirect(c, "/")
		}
		return respondServiceError(c, err, "users/edit", fiber.Map{
			"form": fiber.Map{
				"username":         form.Username,
				"email":            form.Email,
				"image_url":        form.ImageURL,
				"header_image_url": form.HeaderImageURL,
				"bio":              form.Bio,
				"location":         form.Location,
			},
		})
	}
	return redirect(c, userPath(user.ID))
}

// DeleteUser handles POST /users/delete
// @Summary Delete own account
// @Description Removes the account with its messages, likes and follow edges, then logs out.
// @Tags users
// @Success 302 "Redirect to /signup"
// @Router /users/delete [post]
func (s *Server) DeleteUser(c *fiber.Ctx) error {
	sess := currentSession(c)
	if !sess.IsAuthenticated() {
		return refuse(c)
	}

	if err := s.userService.DeleteAccount(c.UserContext(), sess, sess.UserID()); err != nil {
		return respondServiceError(c, err, "", nil)
	}
	s.logout(c)
	return redirect(c, "/signup")
}
