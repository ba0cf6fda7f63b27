package handlers

import (
	"encoding/json"

	config "github.com/AleDet01/smartdeck-sub000/configs"
	"github.com/AleDet01/smartdeck-sub000/database"
	"github.com/AleDet01/smartdeck-sub000/middleware"
	"github.com/AleDet01/smartdeck-sub000/models"
	"github.com/AleDet01/smartdeck-sub000/services"
	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
)

type FlashcardRequest struct {
	ThematicArea string   `json:"thematic_area" validate:"required"`
	Question     string   `json:"question" validate:"required"`
	Options      []string `json:"options" validate:"required,min=2,max=6,dive,required"`
	CorrectIndex int      `json:"correct_index" validate:"gte=0"`
}

func CreateFlashcard(c *fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Not authenticated"})
	}

	var req FlashcardRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if req.CorrectIndex >= len(req.Options) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "correct_index is out of range"})
	}

	optionsJSON, err := json.Marshal(req.Options)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to encode options"})
	}

	card := models.Flashcard{
		UserID:       userID,
		ThematicArea: req.ThematicArea,
		Question:     req.Question,
		Options:      datatypes.JSON(optionsJSON),
		CorrectIndex: req.CorrectIndex,
	}
	if err := database.DB.Create(&card).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create flashcard"})
	}

	return c.Status(fiber.StatusCreated).JSON(card)
}

func ListFlashcards(c *fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Not authenticated"})
	}

	query := database.DB.Where("user_id = ?", userID)
	if area := c.Query("area"); area != "" {
		query = query.Where("thematic_area = ?", area)
	}

	var cards []models.Flashcard
	if err := query.Order("created_at DESC").Find(&cards).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list flashcards"})
	}
	return c.JSON(cards)
}

func GetFlashcard(c *fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Not authenticated"})
	}

	cardID := c.Params("cardId")
	var card models.Flashcard
	if err := database.DB.First(&card, "id = ? AND user_id = ?", cardID, userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Flashcard not found"})
	}
	return c.JSON(card)
}

func UpdateFlashcard(c *fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Not authenticated"})
	}

	cardID := c.Params("cardId")
	var card models.Flashcard
	if err := database.DB.First(&card, "id = ? AND user_id = ?", cardID, userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Flashcard not found"})
	}

	var req FlashcardRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if req.CorrectIndex >= len(req.Options) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "correct_index is out of range"})
	}

	optionsJSON, err := json.Marshal(req.Options)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to encode options"})
	}

	card.ThematicArea = req.ThematicArea
	card.Question = req.Question
	card.Options = datatypes.JSON(optionsJSON)
	card.CorrectIndex = req.CorrectIndex
	database.DB.Save(&card)

	return c.JSON(card)
}

func DeleteFlashcard(c *fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Not authenticated"})
	}

	cardID := c.Params("cardId")
	result := database.DB.Delete(&models.Flashcard{}, "id = ? AND user_id = ?", cardID, userID)

	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete flashcard"})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Flashcard not found"})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListAreas returns the distinct thematic areas of the caller's flashcards,
// as typed. Labels are never normalized, so "Storia" and "storia" are two
// areas.
func ListAreas(c *fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Not authenticated"})
	}

	var areas []string
	err := database.DB.Model(&models.Flashcard{}).
		Where("user_id = ?", userID).
		Distinct().
		Order("thematic_area ASC").
		Pluck("thematic_area", &areas).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list areas"})
	}
	return c.JSON(areas)
}

type GenerateFlashcardsRequest struct {
	ThematicArea string `json:"thematic_area" validate:"required"`
	Topic        string `json:"topic" validate:"required"`
	Count        int    `json:"count" validate:"required,gte=1,lte=20"`
}

// GenerateFlashcards asks the configured LLM endpoint for new cards on a
// topic, validates them, and stores them under the caller's area.
func GenerateFlashcards(c *fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Not authenticated"})
	}

	var req GenerateFlashcardsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	generator := services.NewFlashcardGenerator(
		config.Config("LLM_URL"),
		config.Config("LLM_MODEL"),
		config.Config("LLM_API_KEY"),
	)

	generated, err := generator.Generate(c.Context(), req.ThematicArea, req.Topic, req.Count)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "Flashcard generation failed", "details": err.Error()})
	}

	cards := make([]models.Flashcard, 0, len(generated))
	for _, g := range generated {
		optionsJSON, err := json.Marshal(g.Options)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to encode options"})
		}
		cards = append(cards, models.Flashcard{
			UserID:       userID,
			ThematicArea: req.ThematicArea,
			Question:     g.Question,
			Options:      datatypes.JSON(optionsJSON),
			CorrectIndex: g.CorrectIndex,
			AIGenerated:  true,
		})
	}

	if err := database.DB.Create(&cards).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save generated flashcards"})
	}

	return c.Status(fiber.StatusCreated).JSON(cards)
}
