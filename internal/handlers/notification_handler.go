package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fathima-sithara/campus-connect/internal/service"
)

type createNotificationReq struct {
	UserID    string `json:"user_id" validate:"required"`
	Type      string `json:"type" validate:"required,max=50"`
	Content   string `json:"content" validate:"required,max=1000"`
	RelatedID string `json:"related_id"`
}

// CreateNotification is for internal callers; any authenticated service
// account may notify any user.
func (h *Handler) CreateNotification(c *fiber.Ctx) error {
	var req createNotificationReq
	if err := h.bind(c, &req); err != nil {
		return h.respondError(c, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	n, err := h.notifs.Create(ctx, service.CreateNotificationInput{
		UserID:    req.UserID,
		Type:      req.Type,
		Content:   req.Content,
		RelatedID: req.RelatedID,
	})
	if err != nil {
		return h.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(n)
}

func (h *Handler) ListNotifications(c *fiber.Ctx) error {
	ctx, cancel := h.ctx(c)
	defer cancel()
	list, err := h.notifs.List(ctx, session(c), c.Params("userId"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(list)
}

func (h *Handler) MarkRead(c *fiber.Ctx) error {
	ctx, cancel := h.ctx(c)
	defer cancel()
	n, err := h.notifs.MarkRead(ctx, session(c), c.Params("id"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(n)
}

func (h *Handler) MarkAllRead(c *fiber.Ctx) error {
	ctx, cancel := h.ctx(c)
	defer cancel()
	if err := h.notifs.MarkAllRead(ctx, session(c), c.Params("userId")); err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "all notifications marked as read"})
}

func (h *Handler) UnreadCount(c *fiber.Ctx) error {
	ctx, cancel := h.ctx(c)
	defer cancel()
	n, err := h.notifs.UnreadCount(ctx, session(c), c.Params("userId"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(fiber.Map{"count": n})
}
