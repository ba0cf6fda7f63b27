package routes

import (
	"github.com/AleDet01/smartdeck-sub000/handlers"
	"github.com/AleDet01/smartdeck-sub000/middleware"
	"github.com/gofiber/fiber/v2"
)

func StatsRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	stats := api.Group("/statistics", middleware.Protected())
	stats.Get("", handlers.GetGeneralStatistics)
	stats.Get("/report", handlers.GetStudyReport)
	stats.Get("/area/:area", handlers.GetAreaStatistics)
}
