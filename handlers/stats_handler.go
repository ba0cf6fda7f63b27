package handlers

import (
	"net/url"

	"github.com/AleDet01/smartdeck-sub000/cache"
	"github.com/AleDet01/smartdeck-sub000/database"
	"github.com/AleDet01/smartdeck-sub000/middleware"
	"github.com/AleDet01/smartdeck-sub000/models"
	"github.com/AleDet01/smartdeck-sub000/services"
	"github.com/gofiber/fiber/v2"
)

var (
	statsService *services.StatsService
	statsCache   *cache.Cache
)

// InitStats wires the statistics service and its cache into the handlers.
// Called from main after the database is connected, and from tests with an
// in-memory store.
func InitStats(svc *services.StatsService, c *cache.Cache) {
	statsService = svc
	statsCache = c
}

func GetGeneralStatistics(c *fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Not authenticated"})
	}

	key := cache.Key(userID, "general")
	if statsCache != nil {
		if cached, hit := statsCache.Get(key); hit {
			return c.JSON(cached)
		}
	}

	stats, err := statsService.GetGeneralStatistics(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Statistics unavailable", "details": err.Error()})
	}

	if statsCache != nil {
		statsCache.Set(key, stats)
	}
	return c.JSON(stats)
}

func GetAreaStatistics(c *fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Not authenticated"})
	}

	area, err := url.PathUnescape(c.Params("area"))
	if err != nil || area == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing required field", "details": "area"})
	}

	key := cache.Key(userID, "area", area)
	if statsCache != nil {
		if cached, hit := statsCache.Get(key); hit {
			return c.JSON(cached)
		}
	}

	stats, err := statsService.GetAreaStatistics(userID, area)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Statistics unavailable", "details": err.Error()})
	}
	if stats == nil {
		return c.JSON(fiber.Map{
			"message":  "No sessions found for this area",
			"sessions": []services.AreaSession{},
		})
	}

	if statsCache != nil {
		statsCache.Set(key, stats)
	}
	return c.JSON(stats)
}

// GetStudyReport renders the caller's statistics to a PDF and returns the
// uploaded document's URL.
func GetStudyReport(c *fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Not authenticated"})
	}

	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}

	stats, err := statsService.GetGeneralStatistics(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Statistics unavailable", "details": err.Error()})
	}

	reportURL, err := services.GenerateStudyReport(c.Context(), user, stats)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to generate report", "details": err.Error()})
	}

	return c.JSON(fiber.Map{"reportUrl": reportURL})
}
