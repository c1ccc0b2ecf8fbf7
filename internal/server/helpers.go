package server

import (
	"errors"
	"strings"
	"unicode"

	"warbler/internal/models"
	"warbler/internal/observability"
	"warbler/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+humanizeParam(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// humanizeParam converts a route param name into a human-readable label.
// Examples: "id" -> "ID", "userId" -> "user ID", "messageId" -> "message ID".
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	if strings.HasSuffix(param, "Id") {
		words := splitCamel(param[:len(param)-2])
		return strings.ToLower(strings.Join(words, " ")) + " ID"
	}
	return param
}

// splitCamel splits a camelCase string into words.
func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	words = append(words, s[start:])
	return words
}

// render writes a 200 JSON view document. Pending flashes are included
// and consumed.
func render(c *fiber.Ctx, view string, data fiber.Map) error {
	body := fiber.Map{"view": view}
	for k, v := range data {
		body[k] = v
	}
	body["flashes"] = consumeFlashes(c)
	return c.Status(fiber.StatusOK).JSON(body)
}

// redirect answers 302 to location.
func redirect(c *fiber.Ctx, location string) error {
	return c.Redirect(location, fiber.StatusFound)
}

// refuse is the single outcome for every failed gate check.
func refuse(c *fiber.Ctx) error {
	route := c.Path()
	if r := c.Route(); r != nil && r.Path != "" {
		route = r.Path
	}
	observability.UnauthorizedTotal.WithLabelValues(route).Inc()
	setFlash(c, models.AccessUnauthorized, FlashDanger)
	return redirect(c, "/")
}

// respondServiceError maps a service error onto the HTTP contract.
// formView, when set, re-renders that form for validation failures.
func respondServiceError(c *fiber.Ctx, err error, formView string, formData fiber.Map) error {
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}

	switch appErr.Code {
	case models.CodeUnauthorized:
		return refuse(c)
	case models.CodeValidation:
		if formView != "" {
			setFlash(c, appErr.Message, FlashDanger)
			return render(c, formView, formData)
		}
		return models.RespondWithError(c, fiber.StatusBadRequest, appErr)
	case models.CodeNotFound:
		return models.RespondWithError(c, fiber.StatusNotFound, appErr)
	default:
		return models.RespondWithError(c, fiber.StatusInternalServerError, appErr)
	}
}

// parseForm binds and validates the request body into form. On failure it
// re-renders view with the field errors and returns errResponseWritten.
func parseForm(c *fiber.Ctx, form any, view string) error {
	if err := c.BodyParser(form); err != nil {
		_ = render(c, view, fiber.Map{"errors": validation.FieldErrors{"form": {"Could not read form data."}}})
		return errResponseWritten
	}
	if err := validation.Struct(form); err != nil {
		var fields validation.FieldErrors
		if errors.As(err, &fields) {
			_ = render(c, view, fiber.Map{"errors": fields})
			return errResponseWritten
		}
		return err
	}
	return nil
}
