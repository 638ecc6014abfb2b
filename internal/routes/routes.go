package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"go.uber.org/zap"

	"github.com/fathima-sithara/campus-connect/internal/auth"
	"github.com/fathima-sithara/campus-connect/internal/handlers"
	"github.com/fathima-sithara/campus-connect/internal/metrics"
	"github.com/fathima-sithara/campus-connect/internal/middleware"
	"github.com/fathima-sithara/campus-connect/internal/ws"
)

type Deps struct {
	Handler   *handlers.Handler
	Validator *auth.Validator
	Limiter   middleware.Limiter
	Hub       *ws.Hub
	Log       *zap.Logger
}

// NewApp builds the fiber app with the shared middleware stack.
func NewApp(log *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "campus-connect",
		ErrorHandler: handlers.ErrorHandler(log),
	})
	app.Use(middleware.Recovery(log))
	app.Use(middleware.RequestLogger(log))
	app.Use(metrics.Middleware())
	return app
}

func Register(app *fiber.App, d Deps) {
	h := d.Handler

	app.Get("/health", handlers.Health)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	if d.Hub != nil {
		app.Get("/ws", ws.Upgrade(d.Validator), ws.NewWebsocketHandler(d.Hub))
	}

	jwtMw := middleware.JWT(d.Validator)
	send := func(c *fiber.Ctx) error { return c.Next() }
	if d.Limiter != nil {
		send = middleware.RateLimit(d.Limiter, d.Log)
	}

	// Direct messages
	app.Get("/chats", jwtMw, h.ListThreads)
	chat := app.Group("/chat", jwtMw)
	chat.Get("/:userId", h.GetOrCreateThread)
	chat.Get("/:chatId/messages", h.GetMessages)
	chat.Post("/:chatId/message", send, h.SendMessage)
	chat.Put("/:chatId/message/:messageId", h.EditMessage)
	chat.Delete("/:chatId/message/:messageId", h.DeleteMessage)

	// Group chats
	groups := app.Group("/group-chats", jwtMw)
	groups.Get("/", h.ListGroups)
	groups.Post("/", h.CreateGroup)
	groups.Get("/:groupId/messages", h.ListGroupMessages)
	groups.Post("/:groupId/messages", send, h.PostGroupMessage)
	groups.Get("/:groupId/members", h.ListMembers)
	groups.Post("/:groupId/members", h.AddMembers)
	groups.Delete("/:groupId/members/:memberId", h.RemoveMember)

	// Notifications
	notifs := app.Group("/notifications", jwtMw)
	notifs.Post("/", h.CreateNotification)
	notifs.Put("/user/:userId/read-all", h.MarkAllRead)
	notifs.Put("/:id/read", h.MarkRead)
	notifs.Get("/:userId/unread-count", h.UnreadCount)
	notifs.Get("/:userId", h.ListNotifications)
}
