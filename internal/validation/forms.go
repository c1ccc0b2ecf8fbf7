package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// SignupForm is the body of POST /signup.
type SignupForm struct {
	Username string `json:"username" form:"username" validate:"required,username"`
	Email    string `json:"email" form:"email" validate:"required,warbler_email"`
	Password string `json:"password" form:"password" validate:"required,password"`
	ImageURL string `json:"image_url" form:"image_url" validate:"omitempty,max=2048"`
}

// LoginForm is the body of POST /login.
type LoginForm struct {
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required,min=6"`
}

// MessageForm is the body of POST /messages/new.
type MessageForm struct {
	Text string `json:"text" form:"text" validate:"required,max=140"`
}

// ProfileForm is the body of POST /users/profile. Password is the
// current password and is only used to confirm the edit.
type ProfileForm struct {
	Username       string `json:"username" form:"username" validate:"required,username"`
	Email          string `json:"email" form:"email" validate:"required,warbler_email"`
	ImageURL       string `json:"image_url" form:"image_url" validate:"omitempty,max=2048"`
	HeaderImageURL string `json:"header_image_url" form:"header_image_url" validate:"omitempty,max=2048"`
	Bio            string `json:"bio" form:"bio" validate:"omitempty,max=1000"`
	Location       string `json:"location" form:"location" validate:"omitempty,max=128"`
	Password       string `json:"password" form:"password" validate:"required"`
}

// FieldErrors maps a form field (its json name) to the messages for it.
type FieldErrors map[string][]string

func (f FieldErrors) Error() string {
	fields := make([]string, 0, len(f))
	for field := range f {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, strings.Join(f[field], "; ")))
	}
	return strings.Join(parts, ", ")
}

// Add records msg against field.
func (f FieldErrors) Add(field, msg string) {
	f[field] = append(f[field], msg)
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func instance() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		mustRegister(v, "username", func(fl validator.FieldLevel) bool {
			return ValidateUsername(fl.Field().String()) == nil
		})
		mustRegister(v, "password", func(fl validator.FieldLevel) bool {
			return ValidatePassword(fl.Field().String()) == nil
		})
		mustRegister(v, "warbler_email", func(fl validator.FieldLevel) bool {
			return ValidateEmail(fl.Field().String()) == nil
		})
		validate = v
	})
	return validate
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s validation: %v", tag, err))
	}
}

// Struct validates form and returns FieldErrors, or nil when it is valid.
func Struct(form any) error {
	err := instance().Struct(form)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := FieldErrors{}
	for _, fe := range verrs {
		out.Add(fe.Field(), message(fe))
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "max":
		return fmt.Sprintf("Must be at most %s characters.", fe.Param())
	case "min":
		return fmt.Sprintf("Must be at least %s characters.", fe.Param())
	case "username":
		if err := ValidateUsername(fe.Value().(string)); err != nil {
			return err.Error()
		}
	case "password":
		if err := ValidatePassword(fe.Value().(string)); err != nil {
			return err.Error()
		}
	case "warbler_email":
		return "Invalid email address."
	}
	return fmt.Sprintf("Failed the %q check.", fe.Tag())
}
