package routes

import (
	"Cooki-Backend/internal/api/handlers"
	"Cooki-Backend/internal/middleware"
	"Cooki-Backend/pkg/jwt"
	"Cooki-Backend/pkg/pantry"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

type Config struct {
	App                *fiber.App
	UserHandler        handlers.UserHandler
	PantryHandler      handlers.PantryHandler
	ItemHandler        handlers.ItemHandler
	ReceiptHandler     handlers.ReceiptHandler
	JoinRequestHandler handlers.JoinRequestHandler
	EventHandler       handlers.EventHandler
	StreamHandler      handlers.StreamHandler
	Middleware         middleware.Middleware
	JWTService         jwt.JWTService
	PantryService      pantry.PantryService
}

func (c *Config) Setup() {
	c.App.Use(c.Middleware.CORSMiddleware())
	c.GuestRoute()
	c.User()
	c.Pantries()
	c.Items()
	c.Receipts()
	c.JoinRequests()
	c.Events()
	c.Streams()
}

func (c *Config) auth() fiber.Handler {
	return c.Middleware.AuthMiddleware(c.JWTService)
}

func (c *Config) session() fiber.Handler {
	return c.Middleware.SessionMiddleware(c.PantryService)
}

func (c *Config) GuestRoute() {
	c.App.Get("/api/ping", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "pong"})
	})
}

func (c *Config) User() {
	user := c.App.Group("/api/v1/users")
	{
		user.Post("/register", c.UserHandler.Register)
		user.Post("/login", c.UserHandler.Login)
		user.Get("/me", c.auth(), c.UserHandler.Me)
		user.Post("/current-pantry", c.auth(), c.UserHandler.SelectPantry)
	}
}

func (c *Config) Pantries() {
	pantries := c.App.Group("/api/v1/pantries", c.auth())
	{
		pantries.Get("", c.PantryHandler.GetPantries)
		pantries.Post("", c.PantryHandler.CreatePantry)
		pantries.Get("/current", c.session(), c.PantryHandler.GetCurrentPantry)
		pantries.Get("/:id", c.PantryHandler.GetPantry)
		pantries.Patch("/:id", c.PantryHandler.UpdatePantry)
		pantries.Post("/:id/join-token/rotate", c.PantryHandler.RotateJoinToken)
		pantries.Get("/:id/join-token/qr", c.PantryHandler.GetJoinQRCode)
		pantries.Post("/:id/members", c.PantryHandler.AddMember)
		pantries.Delete("/:id/members/:userId", c.PantryHandler.RemoveMember)
		pantries.Get("/:id/stats", c.PantryHandler.GetPantryStats)

		pantries.Get("/:id/join-requests", c.JoinRequestHandler.GetJoinRequests)
		pantries.Post("/:id/join-requests/:requestId/approve", c.JoinRequestHandler.ApproveJoinRequest)
		pantries.Post("/:id/join-requests/:requestId/reject", c.JoinRequestHandler.RejectJoinRequest)

		pantries.Get("/:id/events", c.EventHandler.GetPantryEvents)
		pantries.Post("/:id/events/:eventId/read", c.EventHandler.MarkPantryEventRead)
	}
}

func (c *Config) Items() {
	items := c.App.Group("/api/v1/items", c.auth(), c.session())
	{
		items.Get("", c.ItemHandler.GetItems)
		items.Post("", c.ItemHandler.AddItem)
		items.Get("/:id", c.ItemHandler.GetItemDetails)
		items.Put("/:id", c.ItemHandler.UpdateItem)
		items.Delete("/:id", c.ItemHandler.DeleteItem)
		items.Post("/:id/image", c.ItemHandler.UploadItemImage)
	}
}

func (c *Config) Receipts() {
	receipts := c.App.Group("/api/v1/receipts", c.auth(), c.session())
	{
		receipts.Post("", c.ReceiptHandler.UploadReceipt)
		receipts.Get("/:id", c.ReceiptHandler.GetReceiptScan)
		receipts.Post("/:id/retry", c.ReceiptHandler.RetryReceipt)
		receipts.Post("/:id/save", c.ReceiptHandler.SaveScannedItems)
	}
}

func (c *Config) JoinRequests() {
	c.App.Post("/api/v1/join-requests", c.auth(), c.JoinRequestHandler.CreateJoinRequest)
}

func (c *Config) Events() {
	events := c.App.Group("/api/v1/events", c.auth())
	{
		events.Get("", c.EventHandler.GetUserEvents)
		events.Post("/:id/read", c.EventHandler.MarkUserEventRead)
	}
}

func (c *Config) Streams() {
	ws := c.App.Group("/ws", c.StreamHandler.RequireUpgrade, c.auth())
	{
		ws.Get("/events", c.session(), websocket.New(c.StreamHandler.Events))
		ws.Get("/pantries/:id/join-requests", websocket.New(c.StreamHandler.PendingJoinRequests))
	}
}
