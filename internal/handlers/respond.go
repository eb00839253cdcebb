package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/muhammadsaim216/prime-esports/internal/baas"
	"github.com/muhammadsaim216/prime-esports/internal/middleware"
	"github.com/muhammadsaim216/prime-esports/internal/store"
	"github.com/muhammadsaim216/prime-esports/internal/validation"
)

// ErrorHandler turns the errors handlers return into JSON responses:
//
//	*validation.Error      422 {"error", "fields"}
//	store.ErrNotFound      404
//	store.ErrDuplicate     409
//	store.ErrStale         409 {"stale": true}
//	store.ErrForbidden     403
//	baas.ErrInvalidToken   401
//	*baas.Error (4xx)      same status, auth service message
//	*fiber.Error           its code and message
//
// Anything else is a 500 with a generic message; the detail only goes to the log.
func ErrorHandler(log *logrus.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var (
			verr  *validation.Error
			ferr  *fiber.Error
			apiEr *baas.Error
		)
		switch {
		case errors.As(err, &verr):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error":  "validation failed",
				"fields": verr.Fields,
			})
		case errors.Is(err, store.ErrStale):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "this record was changed by someone else, reload and try again",
				"stale": true,
			})
		case errors.Is(err, store.ErrDuplicate):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "already exists"})
		case errors.Is(err, store.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
		case errors.Is(err, store.ErrForbidden):
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden"})
		case errors.Is(err, baas.ErrInvalidToken):
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid token"})
		case errors.As(err, &ferr):
			return c.Status(ferr.Code).JSON(fiber.Map{"error": ferr.Message})
		case errors.As(err, &apiEr) && apiEr.Status >= 400 && apiEr.Status < 500:
			return c.Status(apiEr.Status).JSON(fiber.Map{"error": apiEr.Message})
		}

		log.WithError(err).WithFields(logrus.Fields{
			"method": c.Method(),
			"path":   c.Path(),
		}).Error("unhandled error")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "something went wrong",
		})
	}
}

// bind parses the JSON body into form and validates it.
func bind(c *fiber.Ctx, v *validation.Validator, form any) error {
	if err := c.BodyParser(form); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	return v.Validate(form)
}

// paramID reads a uuid route parameter.
func paramID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

// optionalQueryID reads an optional uuid query parameter.
func optionalQueryID(c *fiber.Ctx, name string) (*uuid.UUID, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid "+name)
	}
	return &id, nil
}

// requireVersion rejects edits that do not say which version they were made
// against.
func requireVersion(expected *time.Time) error {
	if expected == nil || expected.IsZero() {
		return &validation.Error{Fields: map[string]string{"version": "This field is required"}}
	}
	return nil
}

// caller returns the authenticated user's id. Routes using it sit behind Auth.
func caller(c *fiber.Ctx) (uuid.UUID, error) {
	id, ok := middleware.UserID(c)
	if !ok {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "not signed in")
	}
	return id, nil
}
