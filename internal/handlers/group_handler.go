package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fathima-sithara/campus-connect/internal/models"
	"github.com/fathima-sithara/campus-connect/internal/service"
)

type createGroupReq struct {
	Name        string   `json:"name" validate:"required,max=100"`
	Description string   `json:"description" validate:"max=500"`
	Type        string   `json:"type" validate:"omitempty,oneof=world custom club"`
	ClubID      string   `json:"club_id"`
	Members     []string `json:"members" validate:"omitempty,dive,required"`
}

type groupMessageReq struct {
	Message string `json:"message" validate:"required,max=4000"`
}

type membersReq struct {
	Members []string `json:"members" validate:"required,min=1,dive,required"`
}

func (h *Handler) ListGroups(c *fiber.Ctx) error {
	ctx, cancel := h.ctx(c)
	defer cancel()
	groups, err := h.groups.ListGroups(ctx, session(c))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(groups)
}

func (h *Handler) CreateGroup(c *fiber.Ctx) error {
	var req createGroupReq
	if err := h.bind(c, &req); err != nil {
		return h.respondError(c, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	g, err := h.groups.CreateGroup(ctx, session(c), service.CreateGroupInput{
		Name:        req.Name,
		Description: req.Description,
		Type:        models.GroupType(req.Type),
		ClubID:      req.ClubID,
		Members:     req.Members,
	})
	if err != nil {
		return h.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(g)
}

func (h *Handler) PostGroupMessage(c *fiber.Ctx) error {
	var req groupMessageReq
	if err := h.bind(c, &req); err != nil {
		return h.respondError(c, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	msg, err := h.groups.PostGroupMessage(ctx, session(c), c.Params("groupId"), req.Message)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}

func (h *Handler) ListGroupMessages(c *fiber.Ctx) error {
	ctx, cancel := h.ctx(c)
	defer cancel()
	msgs, err := h.groups.ListGroupMessages(ctx, session(c), c.Params("groupId"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(msgs)
}

func (h *Handler) AddMembers(c *fiber.Ctx) error {
	var req membersReq
	if err := h.bind(c, &req); err != nil {
		return h.respondError(c, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	g, err := h.groups.AddMembers(ctx, session(c), c.Params("groupId"), req.Members)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(g)
}

func (h *Handler) RemoveMember(c *fiber.Ctx) error {
	ctx, cancel := h.ctx(c)
	defer cancel()
	g, err := h.groups.RemoveMember(ctx, session(c), c.Params("groupId"), c.Params("memberId"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(g)
}

func (h *Handler) ListMembers(c *fiber.Ctx) error {
	ctx, cancel := h.ctx(c)
	defer cancel()
	users, err := h.groups.ListMembers(ctx, session(c), c.Params("groupId"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(users)
}
