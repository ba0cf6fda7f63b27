package routes

import (
	"github.com/AleDet01/smartdeck-sub000/handlers"
	"github.com/AleDet01/smartdeck-sub000/middleware"
	"github.com/gofiber/fiber/v2"
)

func AdminRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	admin := api.Group("/admin", middleware.Protected(), middleware.AdminRequired())
	admin.Get("/users", handlers.ListUsers)
	admin.Patch("/users/:userId/active", handlers.SetUserActive)
}
