package handlers

import (
	"time"

	"github.com/AleDet01/smartdeck-sub000/database"
	"github.com/AleDet01/smartdeck-sub000/middleware"
	"github.com/AleDet01/smartdeck-sub000/models"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type QuestionResultRequest struct {
	Question      string `json:"question" validate:"required"`
	UserAnswer    string `json:"userAnswer"`
	UserIndex     *int   `json:"userIndex"`
	CorrectAnswer string `json:"correctAnswer"`
	CorrectIndex  *int   `json:"correctIndex"`
	IsCorrect     bool   `json:"isCorrect"`
	TimeTaken     int    `json:"timeTaken" validate:"gte=0"`
}

type TestSessionRequest struct {
	UserID         *string                 `json:"userId"`
	ThematicArea   *string                 `json:"thematicArea"`
	TotalQuestions *int                    `json:"totalQuestions" validate:"omitempty,gt=0"`
	CorrectAnswers *int                    `json:"correctAnswers" validate:"omitempty,gte=0"`
	WrongAnswers   *int                    `json:"wrongAnswers" validate:"omitempty,gte=0"`
	Score          *float64                `json:"score" validate:"omitempty,gte=0,lte=100"`
	Duration       *int                    `json:"duration" validate:"omitempty,gte=0"`
	Results        []QuestionResultRequest `json:"results" validate:"omitempty,dive"`
}

// missingField returns the name of the first absent mandatory field, or "".
func (r *TestSessionRequest) missingField() string {
	switch {
	case r.ThematicArea == nil || *r.ThematicArea == "":
		return "thematicArea"
	case r.TotalQuestions == nil:
		return "totalQuestions"
	case r.CorrectAnswers == nil:
		return "correctAnswers"
	case r.Score == nil:
		return "score"
	}
	return ""
}

func buildTestSession(userID uuid.UUID, req *TestSessionRequest) models.TestSession {
	wrong := *req.TotalQuestions - *req.CorrectAnswers
	if req.WrongAnswers != nil {
		wrong = *req.WrongAnswers
	}
	duration := 0
	if req.Duration != nil {
		duration = *req.Duration
	}

	session := models.TestSession{
		UserID:         userID,
		ThematicArea:   *req.ThematicArea,
		TotalQuestions: *req.TotalQuestions,
		CorrectAnswers: *req.CorrectAnswers,
		WrongAnswers:   wrong,
		Score:          *req.Score,
		Duration:       duration,
		CompletedAt:    time.Now(),
	}

	for i, result := range req.Results {
		session.Results = append(session.Results, models.QuestionResult{
			Position:      i + 1,
			Question:      result.Question,
			UserAnswer:    result.UserAnswer,
			UserIndex:     result.UserIndex,
			CorrectAnswer: result.CorrectAnswer,
			CorrectIndex:  result.CorrectIndex,
			IsCorrect:     result.IsCorrect,
			TimeTaken:     result.TimeTaken,
		})
	}

	return session
}

// checkSessionRequest validates a parsed request and writes the 400 response
// itself when something is wrong, reporting whether the request is usable.
func checkSessionRequest(c *fiber.Ctx, req *TestSessionRequest) (bool, error) {
	if field := req.missingField(); field != "" {
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing required field", "details": field})
	}
	if err := validate.Struct(req); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if *req.CorrectAnswers > *req.TotalQuestions {
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "correctAnswers cannot exceed totalQuestions"})
	}
	return true, nil
}

// RecordTestSession stores a completed quiz for the authenticated user.
// Sessions are write-once; duplicate submissions create two records on
// purpose (no dedup key exists).
func RecordTestSession(c *fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Not authenticated"})
	}

	var req TestSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if ok, err := checkSessionRequest(c, &req); !ok {
		return err
	}

	session := buildTestSession(userID, &req)
	if err := saveSession(&session); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save test session", "details": err.Error()})
	}

	invalidateStatsFor(userID)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":   true,
		"sessionId": session.ID,
	})
}

// RecordTestResult is the legacy entry point. It accepts a caller-supplied
// userId in the body, but a valid bearer token always wins over it, and with
// neither the request is rejected.
func RecordTestResult(c *fiber.Ctx) error {
	var req TestSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}

	userID, ok := middleware.OptionalUserID(c)
	if !ok {
		if req.UserID == nil || *req.UserID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Not authenticated"})
		}
		parsed, err := uuid.Parse(*req.UserID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid userId", "details": err.Error()})
		}
		userID = parsed
	}

	if ok, err := checkSessionRequest(c, &req); !ok {
		return err
	}

	session := buildTestSession(userID, &req)
	if err := saveSession(&session); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save test result", "details": err.Error()})
	}

	invalidateStatsFor(userID)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":    "Test result saved",
		"testResult": session,
	})
}

// saveSession inserts the session and its question results in one explicit
// transaction. The connection skips GORM's default transaction, so without
// this a failed result insert would leave a results-less session behind.
func saveSession(session *models.TestSession) error {
	return database.DB.Transaction(func(tx *gorm.DB) error {
		return tx.Create(session).Error
	})
}

func invalidateStatsFor(userID uuid.UUID) {
	if statsCache != nil {
		statsCache.InvalidateOwner(userID)
	}
}
