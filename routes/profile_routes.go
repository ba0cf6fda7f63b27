package routes

import (
	"github.com/AleDet01/smartdeck-sub000/handlers"
	"github.com/AleDet01/smartdeck-sub000/middleware"
	"github.com/gofiber/fiber/v2"
)

func ProfileRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	profile := api.Group("/profile/me", middleware.Protected())
	profile.Get("", handlers.GetProfile)
	profile.Put("", handlers.UpdateProfile)
}
