package handlers

import (
	"github.com/gofiber/fiber/v2"
)

type contentReq struct {
	Content string `json:"content" validate:"required,max=4000"`
}

// GetOrCreateThread handles GET /chat/:userId.
func (h *Handler) GetOrCreateThread(c *fiber.Ctx) error {
	ctx, cancel := h.ctx(c)
	defer cancel()
	t, err := h.chat.GetOrCreateThread(ctx, session(c), c.Params("userId"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(t)
}

func (h *Handler) SendMessage(c *fiber.Ctx) error {
	var req contentReq
	if err := h.bind(c, &req); err != nil {
		return h.respondError(c, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	t, err := h.chat.SendMessage(ctx, session(c), c.Params("chatId"), req.Content)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(t)
}

func (h *Handler) EditMessage(c *fiber.Ctx) error {
	var req contentReq
	if err := h.bind(c, &req); err != nil {
		return h.respondError(c, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	t, err := h.chat.EditMessage(ctx, session(c), c.Params("chatId"), c.Params("messageId"), req.Content)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(t)
}

func (h *Handler) DeleteMessage(c *fiber.Ctx) error {
	ctx, cancel := h.ctx(c)
	defer cancel()
	t, err := h.chat.DeleteMessage(ctx, session(c), c.Params("chatId"), c.Params("messageId"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(t)
}

func (h *Handler) GetMessages(c *fiber.Ctx) error {
	ctx, cancel := h.ctx(c)
	defer cancel()
	t, err := h.chat.GetMessages(ctx, session(c), c.Params("chatId"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(t)
}

func (h *Handler) ListThreads(c *fiber.Ctx) error {
	ctx, cancel := h.ctx(c)
	defer cancel()
	threads, err := h.chat.ListThreads(ctx, session(c))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(threads)
}
