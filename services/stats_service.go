package services

import (
	"fmt"
	"math"
	"time"

	"github.com/AleDet01/smartdeck-sub000/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	// A session counts toward a streak when its score reaches this value.
	PassThreshold = 60.0

	recentSessionsLimit = 10
	progressWindow      = 30
	streakWindow        = 50
)

// StatsService computes aggregated performance statistics over a user's
// recorded test sessions. Sessions are insert-only, so every query here is a
// plain read; the service holds no state of its own.
type StatsService struct {
	db *gorm.DB
}

func NewStatsService(db *gorm.DB) *StatsService {
	return &StatsService{db: db}
}

type RecentSession struct {
	ID             uuid.UUID `json:"id"`
	ThematicArea   string    `json:"thematicArea"`
	Score          float64   `json:"score"`
	CorrectAnswers int       `json:"correctAnswers"`
	TotalQuestions int       `json:"totalQuestions"`
	Duration       int       `json:"duration"`
	CompletedAt    time.Time `json:"completedAt"`
}

type AreaBreakdown struct {
	ThematicArea   string  `json:"thematicArea"`
	TotalSessions  int     `json:"totalSessions"`
	TotalQuestions int     `json:"totalQuestions"`
	TotalCorrect   int     `json:"totalCorrect"`
	TotalWrong     int     `json:"totalWrong"`
	AverageScore   float64 `json:"averageScore"`
	BestScore      float64 `json:"bestScore"`
	WorstScore     float64 `json:"worstScore"`
}

type ProgressPoint struct {
	SequenceNumber int       `json:"sequenceNumber"`
	Score          float64   `json:"score"`
	Timestamp      time.Time `json:"timestamp"`
	ThematicArea   string    `json:"thematicArea"`
}

type SessionExtreme struct {
	ThematicArea string    `json:"thematicArea"`
	Score        float64   `json:"score"`
	Date         time.Time `json:"date"`
}

type GeneralStatistics struct {
	TotalSessions    int             `json:"totalSessions"`
	TotalQuestions   int             `json:"totalQuestions"`
	TotalCorrect     int             `json:"totalCorrect"`
	TotalWrong       int             `json:"totalWrong"`
	AverageScore     float64         `json:"averageScore"`
	AverageDuration  int             `json:"averageDuration"`
	ByArea           []AreaBreakdown `json:"byArea"`
	RecentSessions   []RecentSession `json:"recentSessions"`
	ProgressOverTime []ProgressPoint `json:"progressOverTime"`
	BestSession      *SessionExtreme `json:"bestSession"`
	WorstSession     *SessionExtreme `json:"worstSession"`
	CurrentStreak    int             `json:"currentStreak"`
	MaxStreak        int             `json:"maxStreak"`
}

type AreaSession struct {
	ID             uuid.UUID `json:"id"`
	Score          float64   `json:"score"`
	CorrectAnswers int       `json:"correctAnswers"`
	TotalQuestions int       `json:"totalQuestions"`
	Duration       int       `json:"duration"`
	CompletedAt    time.Time `json:"completedAt"`
}

type AreaStatistics struct {
	ThematicArea   string        `json:"thematicArea"`
	TotalSessions  int           `json:"totalSessions"`
	TotalQuestions int           `json:"totalQuestions"`
	TotalCorrect   int           `json:"totalCorrect"`
	TotalWrong     int           `json:"totalWrong"`
	AverageScore   float64       `json:"averageScore"`
	BestScore      float64       `json:"bestScore"`
	WorstScore     float64       `json:"worstScore"`
	Sessions       []AreaSession `json:"sessions"`
}

// GetGeneralStatistics aggregates a user's full session history. A user with
// no sessions gets a well-formed zero result, never an error: the UI branches
// on structural emptiness.
func (s *StatsService) GetGeneralStatistics(userID uuid.UUID) (*GeneralStatistics, error) {
	owned := func() *gorm.DB {
		return s.db.Model(&models.TestSession{}).Where("user_id = ?", userID)
	}

	var totals struct {
		TotalSessions   int
		TotalQuestions  int
		TotalCorrect    int
		TotalWrong      int
		AverageScore    float64
		AverageDuration float64
	}
	err := owned().
		Select("COUNT(*) AS total_sessions, " +
			"COALESCE(SUM(total_questions), 0) AS total_questions, " +
			"COALESCE(SUM(correct_answers), 0) AS total_correct, " +
			"COALESCE(SUM(wrong_answers), 0) AS total_wrong, " +
			"COALESCE(AVG(score), 0) AS average_score, " +
			"COALESCE(AVG(duration), 0) AS average_duration").
		Scan(&totals).Error
	if err != nil {
		return nil, fmt.Errorf("statistics unavailable: %w", err)
	}

	stats := &GeneralStatistics{
		TotalSessions:    totals.TotalSessions,
		TotalQuestions:   totals.TotalQuestions,
		TotalCorrect:     totals.TotalCorrect,
		TotalWrong:       totals.TotalWrong,
		AverageScore:     roundOneDecimal(totals.AverageScore),
		AverageDuration:  int(math.Round(totals.AverageDuration)),
		ByArea:           []AreaBreakdown{},
		RecentSessions:   []RecentSession{},
		ProgressOverTime: []ProgressPoint{},
	}
	if stats.TotalSessions == 0 {
		return stats, nil
	}

	var areas []AreaBreakdown
	err = owned().
		Select("thematic_area, " +
			"COUNT(*) AS total_sessions, " +
			"COALESCE(SUM(total_questions), 0) AS total_questions, " +
			"COALESCE(SUM(correct_answers), 0) AS total_correct, " +
			"COALESCE(SUM(wrong_answers), 0) AS total_wrong, " +
			"COALESCE(AVG(score), 0) AS average_score, " +
			"COALESCE(MAX(score), 0) AS best_score, " +
			"COALESCE(MIN(score), 0) AS worst_score").
		Group("thematic_area").
		Order("total_sessions DESC").
		Scan(&areas).Error
	if err != nil {
		return nil, fmt.Errorf("statistics unavailable: %w", err)
	}
	for i := range areas {
		areas[i].AverageScore = roundOneDecimal(areas[i].AverageScore)
	}
	stats.ByArea = areas

	var recent []models.TestSession
	err = owned().
		Order("completed_at DESC").
		Limit(recentSessionsLimit).
		Find(&recent).Error
	if err != nil {
		return nil, fmt.Errorf("statistics unavailable: %w", err)
	}
	for _, sess := range recent {
		stats.RecentSessions = append(stats.RecentSessions, RecentSession{
			ID:             sess.ID,
			ThematicArea:   sess.ThematicArea,
			Score:          sess.Score,
			CorrectAnswers: sess.CorrectAnswers,
			TotalQuestions: sess.TotalQuestions,
			Duration:       sess.Duration,
			CompletedAt:    sess.CompletedAt,
		})
	}

	// The progress series reads the oldest sessions, not the newest: once a
	// user passes the window size their trend line keeps showing the earliest
	// history. Documented behavior the frontend expects.
	var earliest []models.TestSession
	err = owned().
		Order("completed_at ASC").
		Limit(progressWindow).
		Find(&earliest).Error
	if err != nil {
		return nil, fmt.Errorf("statistics unavailable: %w", err)
	}
	for i, sess := range earliest {
		stats.ProgressOverTime = append(stats.ProgressOverTime, ProgressPoint{
			SequenceNumber: i + 1,
			Score:          sess.Score,
			Timestamp:      sess.CompletedAt,
			ThematicArea:   sess.ThematicArea,
		})
	}

	var best, worst []models.TestSession
	if err := owned().Order("score DESC").Limit(1).Find(&best).Error; err != nil {
		return nil, fmt.Errorf("statistics unavailable: %w", err)
	}
	if err := owned().Order("score ASC").Limit(1).Find(&worst).Error; err != nil {
		return nil, fmt.Errorf("statistics unavailable: %w", err)
	}
	if len(best) > 0 {
		stats.BestSession = newSessionExtreme(best[0])
	}
	if len(worst) > 0 {
		stats.WorstSession = newSessionExtreme(worst[0])
	}

	var windowScores []float64
	err = owned().
		Order("completed_at DESC").
		Limit(streakWindow).
		Pluck("score", &windowScores).Error
	if err != nil {
		return nil, fmt.Errorf("statistics unavailable: %w", err)
	}
	stats.CurrentStreak, stats.MaxStreak = computeStreaks(windowScores)

	return stats, nil
}

// GetAreaStatistics aggregates the sessions matching one thematic area.
// Matching is exact string equality: "Storia" and " storia" are different
// areas. Returns nil when the user has no sessions in the area.
func (s *StatsService) GetAreaStatistics(userID uuid.UUID, area string) (*AreaStatistics, error) {
	var sessions []models.TestSession
	err := s.db.
		Where("user_id = ? AND thematic_area = ?", userID, area).
		Order("completed_at DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("statistics unavailable: %w", err)
	}
	if len(sessions) == 0 {
		return nil, nil
	}

	stats := &AreaStatistics{
		ThematicArea:  area,
		TotalSessions: len(sessions),
		BestScore:     sessions[0].Score,
		WorstScore:    sessions[0].Score,
	}

	var scoreSum float64
	for _, sess := range sessions {
		stats.TotalQuestions += sess.TotalQuestions
		stats.TotalCorrect += sess.CorrectAnswers
		stats.TotalWrong += sess.WrongAnswers
		scoreSum += sess.Score
		if sess.Score > stats.BestScore {
			stats.BestScore = sess.Score
		}
		if sess.Score < stats.WorstScore {
			stats.WorstScore = sess.Score
		}
		stats.Sessions = append(stats.Sessions, AreaSession{
			ID:             sess.ID,
			Score:          sess.Score,
			CorrectAnswers: sess.CorrectAnswers,
			TotalQuestions: sess.TotalQuestions,
			Duration:       sess.Duration,
			CompletedAt:    sess.CompletedAt,
		})
	}
	// Unlike the per-area averages inside the general statistics, this value
	// is reported unrounded. The difference is intentional and pinned by a
	// test; do not align the two without a product decision.
	stats.AverageScore = scoreSum / float64(len(sessions))

	return stats, nil
}

// computeStreaks scans scores newest-first. currentStreak only accumulates
// until the first failing score; maxStreak keeps tracking runs through the
// whole window, so a long run buried behind a failure still counts.
func computeStreaks(newestFirst []float64) (current, max int) {
	run := 0
	broken := false
	for _, score := range newestFirst {
		if score >= PassThreshold {
			run++
			if run > max {
				max = run
			}
			if !broken {
				current = run
			}
		} else {
			run = 0
			broken = true
		}
	}
	return current, max
}

func newSessionExtreme(sess models.TestSession) *SessionExtreme {
	area := sess.ThematicArea
	if area == "" {
		area = "N/A"
	}
	date := sess.CompletedAt
	if date.IsZero() {
		date = time.Now()
	}
	return &SessionExtreme{ThematicArea: area, Score: sess.Score, Date: date}
}

func roundOneDecimal(v float64) float64 {
	return math.Round(v*10) / 10
}
