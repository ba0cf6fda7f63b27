package routes

import (
	"github.com/AleDet01/smartdeck-sub000/handlers"
	"github.com/AleDet01/smartdeck-sub000/middleware"
	"github.com/gofiber/fiber/v2"
)

func FlashcardRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	cards := api.Group("/flashcards", middleware.Protected())
	cards.Post("", handlers.CreateFlashcard)
	cards.Get("", handlers.ListFlashcards)
	cards.Post("/generate", handlers.GenerateFlashcards)
	cards.Get("/:cardId", handlers.GetFlashcard)
	cards.Put("/:cardId", handlers.UpdateFlashcard)
	cards.Delete("/:cardId", handlers.DeleteFlashcard)

	api.Get("/areas", middleware.Protected(), handlers.ListAreas)
}
