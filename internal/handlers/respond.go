package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/fathima-sithara/campus-connect/internal/apperr"
)

var statusByKind = map[apperr.Kind]int{
	apperr.KindUnauthenticated: fiber.StatusUnauthorized,
	apperr.KindForbidden:       fiber.StatusForbidden,
	apperr.KindNotFound:        fiber.StatusNotFound,
	apperr.KindInvalidInput:    fiber.StatusBadRequest,
	apperr.KindUnavailable:     fiber.StatusServiceUnavailable,
	apperr.KindRateLimited:     fiber.StatusTooManyRequests,
	apperr.KindInternal:        fiber.StatusInternalServerError,
}

// StatusOf maps an error kind to its HTTP status.
func StatusOf(kind apperr.Kind) int {
	if s, ok := statusByKind[kind]; ok {
		return s
	}
	return fiber.StatusInternalServerError
}

func (h *Handler) respondError(c *fiber.Ctx, err error) error {
	kind := apperr.KindOf(err)
	msg := "internal server error"
	var e *apperr.Error
	if errors.As(err, &e) {
		msg = e.Msg
	}
	switch kind {
	case apperr.KindUnavailable, apperr.KindInternal:
		h.log.Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err))
	}
	return c.Status(StatusOf(kind)).JSON(fiber.Map{"error": msg, "code": kind})
}

// ErrorHandler renders errors that escape handlers (unknown routes, fiber
// errors) in the same envelope.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			kind := apperr.KindInternal
			for k, s := range statusByKind {
				if s == fe.Code {
					kind = k
					break
				}
			}
			if kind == apperr.KindInternal && fe.Code < fiber.StatusInternalServerError {
				kind = apperr.KindInvalidInput
			}
			return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message, "code": kind})
		}
		log.Error("unhandled error", zap.String("path", c.Path()), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal server error",
			"code":  apperr.KindInternal,
		})
	}
}
