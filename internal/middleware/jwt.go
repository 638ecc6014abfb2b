package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/fathima-sithara/campus-connect/internal/apperr"
	"github.com/fathima-sithara/campus-connect/internal/auth"
)

const userIDKey = "user_id"

// JWT verifies the bearer token and stores the caller id in c.Locals("user_id").
func JWT(v *auth.Validator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		h := c.Get(fiber.HeaderAuthorization)
		if h == "" {
			return unauthorized(c, "missing authorization header")
		}
		parts := strings.SplitN(h, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return unauthorized(c, "invalid authorization header")
		}
		uid, err := v.Validate(strings.TrimSpace(parts[1]))
		if err != nil {
			return unauthorized(c, "invalid or expired token")
		}
		c.Locals(userIDKey, uid)
		return c.Next()
	}
}

// UserID returns the id set by JWT, or "" on unauthenticated routes.
func UserID(c *fiber.Ctx) string {
	uid, _ := c.Locals(userIDKey).(string)
	return uid
}

func unauthorized(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": msg,
		"code":  apperr.KindUnauthenticated,
	})
}
