package handlers

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/fathima-sithara/campus-connect/internal/middleware"
	"github.com/fathima-sithara/campus-connect/internal/service"
)

type Handler struct {
	chat     *service.ChatService
	groups   *service.GroupService
	notifs   *service.NotificationService
	log      *zap.Logger
	validate *validator.Validate
	timeout  time.Duration
}

func New(chat *service.ChatService, groups *service.GroupService, notifs *service.NotificationService, log *zap.Logger, timeout time.Duration) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Handler{
		chat:     chat,
		groups:   groups,
		notifs:   notifs,
		log:      log,
		validate: newValidator(),
		timeout:  timeout,
	}
}

func (h *Handler) ctx(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.UserContext(), h.timeout)
}

func session(c *fiber.Ctx) service.Session {
	return service.Session{UserID: middleware.UserID(c)}
}

// Health is unauthenticated.
func Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}
