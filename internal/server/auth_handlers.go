package server

import (
	"fmt"

	"warbler/internal/service"
	"warbler/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// SignupForm handles GET /signup
// @Summary Signup form
// @Tags auth
// @Produce json
// @Success 200 {object} object{view=string,fields=[]string}
// @Router /signup [get]
func (s *Server) SignupForm(c *fiber.Ctx) error {
	return render(c, "signup", fiber.Map{
		"fields": []string{"username", "email", "password", "image_url"},
	})
}

// Signup handles POST /signup
// @Summary User signup
// @Description Register a new account and log it in
// @Tags auth
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param request body validation.SignupForm true "Signup request"
// @Success 302 "Redirect to /"
// @Success 200 {object} object{view=string,errors=object} "Form re-rendered with errors"
// @Router /signup [post]
func (s *Server) Signup(c *fiber.Ctx) error {
	var form validation.SignupForm
	if err := parseForm(c, &form, "signup"); err != nil {
		if err == errResponseWritten {
			return nil
		}
		return err
	}

	user, err := s.userService.Signup(c.UserContext(), service.SignupInput{
		Username: form.Username,
		Email:    form.Email,
		Password: form.Password,
		ImageURL: form.ImageURL,
	})
	if err != nil {
		return respondServiceError(c, err, "signup", fiber.Map{
			"form": fiber.Map{"username": form.Username, "email": form.Email, "image_url": form.ImageURL},
		})
	}

	if err := s.login(c, user.ID, user.Username); err != nil {
		return err
	}
	return redirect(c, "/")
}

// LoginForm handles GET /login
// @Summary Login form
// @Tags auth
// @Produce json
// @Success 200 {object} object{view=string,fields=[]string}
// @Router /login [get]
func (s *Server) LoginForm(c *fiber.Ctx) error {
	return render(c, "login", fiber.Map{
		"fields": []string{"username", "password"},
	})
}

// Login handles POST /login
// @Summary User login
// @Tags auth
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param request body validation.LoginForm true "Login credentials"
// @Success 302 "Redirect to /"
// @Success 200 {object} object{view=string,error=string} "Invalid credentials"
// @Router /login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var form validation.LoginForm
	if err := parseForm(c, &form, "login"); err != nil {
		if err == errResponseWritten {
			return nil
		}
		return err
	}

	user, err := s.userService.Authenticate(c.UserContext(), form.Username, form.Password)
	if err != nil {
		return respondServiceError(c, err, "", nil)
	}
	if user == nil {
		setFlash(c, "Invalid credentials.", FlashDanger)
		return render(c, "login", fiber.Map{
			"error": "Invalid credentials.",
			"form":  fiber.Map{"username": form.Username},
		})
	}

	if err := s.login(c, user.ID, user.Username); err != nil {
		return err
	}
	setFlash(c, fmt.Sprintf("Hello, %s!", user.Username), FlashSuccess)
	return redirect(c, "/")
}

// Logout handles GET and POST /logout
// @Summary Log out
// @Tags auth
// @Success 302 "Redirect to /login"
// @Router /logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	s.logout(c)
	setFlash(c, "You have successfully logged out.", FlashSuccess)
	return redirect(c, "/login")
}
