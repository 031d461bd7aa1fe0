package http

import (
	"github.com/dabd2323/music-store/internal/service"
	"github.com/dabd2323/music-store/internal/transport/http/handler"
	"github.com/dabd2323/music-store/internal/transport/http/middleware"
	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Auth     *handler.AuthHandler
	Catalog  *handler.CatalogHandler
	Cart     *handler.CartHandler
	Checkout *handler.CheckoutHandler
	Webhook  *handler.WebhookHandler
	Admin    *handler.AdminHandler
}

func RegisterRoutes(app *fiber.App, h *Handlers, authService service.AuthService) {
	authGroup := app.Group("/auth")
	authGroup.Post("/register", h.Auth.Register)
	authGroup.Post("/login", h.Auth.Login)

	app.Get("/products", h.Catalog.List)
	app.Get("/products/:id", h.Catalog.FindByID)

	app.Post("/webhook/payments", h.Webhook.HandleProcessorEvent)

	api := app.Group("/api", middleware.NewAuthMiddleware(authService))
	api.Get("/me", h.Auth.GetMe)

	cart := api.Group("/cart")
	cart.Get("", h.Cart.GetCart)
	cart.Post("/items", h.Cart.AddItem)
	cart.Delete("/clear", h.Cart.ClearCart)
	cart.Delete("/items/:productId", h.Cart.RemoveItem)

	checkout := api.Group("/checkout")
	checkout.Post("/session", h.Checkout.CreateSession)
	checkout.Get("/session/:sessionId", h.Checkout.SessionStatus)

	orders := api.Group("/orders")
	orders.Get("", h.Checkout.ListOrders)
	orders.Get("/:id", h.Checkout.GetOrder)

	api.Get("/downloads/:token", h.Checkout.Download)

	admin := api.Group("/admin", middleware.NewAdminMiddleware())
	admin.Get("/stats", h.Admin.Stats)
	admin.Get("/users", h.Admin.ListUsers)
	admin.Patch("/users/:id/role", h.Admin.UpdateUserRole)
	admin.Delete("/users/:id", h.Admin.DeleteUser)
	admin.Get("/orders", h.Admin.ListOrders)
	admin.Post("/products", h.Admin.CreateProduct)
	admin.Put("/products/:id", h.Admin.UpdateProduct)
	admin.Delete("/products/:id", h.Admin.DeleteProduct)
	admin.Post("/send-newsletter", h.Admin.SendNewsletter)
}
