package routes

import (
	"github.com/AleDet01/smartdeck-sub000/handlers"
	"github.com/AleDet01/smartdeck-sub000/middleware"
	"github.com/gofiber/fiber/v2"
)

func TestRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	tests := api.Group("/tests")
	tests.Post("/sessions", middleware.Protected(), handlers.RecordTestSession)

	// Legacy entry point kept for older clients: not behind Protected()
	// because it may carry the owner id in the body instead of a token.
	tests.Post("/results", handlers.RecordTestResult)
}
