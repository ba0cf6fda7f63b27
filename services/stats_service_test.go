package services

import (
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/AleDet01/smartdeck-sub000/models"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	err = db.AutoMigrate(&models.User{}, &models.Flashcard{}, &models.TestSession{}, &models.QuestionResult{})
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func seedSession(t *testing.T, db *gorm.DB, userID uuid.UUID, area string, score float64, completedAt time.Time) models.TestSession {
	t.Helper()

	correct := int(score / 10)
	session := models.TestSession{
		UserID:         userID,
		ThematicArea:   area,
		TotalQuestions: 10,
		CorrectAnswers: correct,
		WrongAnswers:   10 - correct,
		Score:          score,
		Duration:       60,
		CompletedAt:    completedAt,
	}
	if err := db.Create(&session).Error; err != nil {
		t.Fatalf("failed to seed session: %v", err)
	}
	return session
}

func TestGetGeneralStatistics_EmptyHistory(t *testing.T) {
	svc := NewStatsService(newTestDB(t))

	stats, err := svc.GetGeneralStatistics(uuid.New())
	if err != nil {
		t.Fatalf("expected no error for empty history, got %v", err)
	}

	if stats.TotalSessions != 0 {
		t.Errorf("expected 0 sessions, got %d", stats.TotalSessions)
	}
	if len(stats.ByArea) != 0 {
		t.Errorf("expected empty byArea, got %d entries", len(stats.ByArea))
	}
	if len(stats.RecentSessions) != 0 {
		t.Errorf("expected empty recentSessions, got %d", len(stats.RecentSessions))
	}
	if len(stats.ProgressOverTime) != 0 {
		t.Errorf("expected empty progressOverTime, got %d", len(stats.ProgressOverTime))
	}
	if stats.BestSession != nil || stats.WorstSession != nil {
		t.Error("expected nil best/worst sessions for empty history")
	}
	if stats.CurrentStreak != 0 || stats.MaxStreak != 0 {
		t.Errorf("expected zero streaks, got current=%d max=%d", stats.CurrentStreak, stats.MaxStreak)
	}
}

func TestGetGeneralStatistics_TotalsAndExtremes(t *testing.T) {
	db := newTestDB(t)
	svc := NewStatsService(db)
	userID := uuid.New()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	seedSession(t, db, userID, "Storia", 55, base)
	seedSession(t, db, userID, "Storia", 90, base.Add(time.Hour))
	seedSession(t, db, userID, "Geografia", 72, base.Add(2*time.Hour))

	stats, err := svc.GetGeneralStatistics(userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stats.TotalSessions != 3 {
		t.Errorf("expected 3 sessions, got %d", stats.TotalSessions)
	}
	if stats.TotalQuestions != 30 {
		t.Errorf("expected 30 questions, got %d", stats.TotalQuestions)
	}
	if stats.TotalCorrect+stats.TotalWrong != stats.TotalQuestions {
		t.Errorf("correct+wrong should equal total: %d+%d != %d", stats.TotalCorrect, stats.TotalWrong, stats.TotalQuestions)
	}

	// (55+90+72)/3 = 72.333..., rounded to one decimal
	if stats.AverageScore != 72.3 {
		t.Errorf("expected averageScore 72.3, got %v", stats.AverageScore)
	}
	if stats.AverageDuration != 60 {
		t.Errorf("expected averageDuration 60, got %d", stats.AverageDuration)
	}

	if stats.BestSession == nil || stats.BestSession.Score != 90 {
		t.Errorf("expected best session score 90, got %+v", stats.BestSession)
	}
	if stats.WorstSession == nil || stats.WorstSession.Score != 55 {
		t.Errorf("expected worst session score 55, got %+v", stats.WorstSession)
	}

	// Storia has 2 sessions, Geografia 1: most-practiced first.
	if len(stats.ByArea) != 2 {
		t.Fatalf("expected 2 areas, got %d", len(stats.ByArea))
	}
	if stats.ByArea[0].ThematicArea != "Storia" {
		t.Errorf("expected Storia first, got %s", stats.ByArea[0].ThematicArea)
	}
	if stats.ByArea[0].BestScore != 90 || stats.ByArea[0].WorstScore != 55 {
		t.Errorf("expected Storia best/worst 90/55, got %v/%v", stats.ByArea[0].BestScore, stats.ByArea[0].WorstScore)
	}
	if stats.ByArea[0].AverageScore != 72.5 {
		t.Errorf("expected Storia average 72.5, got %v", stats.ByArea[0].AverageScore)
	}
}

func TestGetGeneralStatistics_Ordering(t *testing.T) {
	db := newTestDB(t)
	svc := NewStatsService(db)
	userID := uuid.New()

	t1 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	t3 := t2.Add(time.Hour)
	seedSession(t, db, userID, "Storia", 60, t1)
	seedSession(t, db, userID, "Storia", 70, t2)
	seedSession(t, db, userID, "Storia", 80, t3)

	stats, err := svc.GetGeneralStatistics(userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(stats.RecentSessions) != 3 {
		t.Fatalf("expected 3 recent sessions, got %d", len(stats.RecentSessions))
	}
	recentScores := []float64{stats.RecentSessions[0].Score, stats.RecentSessions[1].Score, stats.RecentSessions[2].Score}
	if !reflect.DeepEqual(recentScores, []float64{80, 70, 60}) {
		t.Errorf("recentSessions should be newest-first, got scores %v", recentScores)
	}

	if len(stats.ProgressOverTime) != 3 {
		t.Fatalf("expected 3 progress points, got %d", len(stats.ProgressOverTime))
	}
	for i, point := range stats.ProgressOverTime {
		if point.SequenceNumber != i+1 {
			t.Errorf("expected sequenceNumber %d, got %d", i+1, point.SequenceNumber)
		}
	}
	progressScores := []float64{stats.ProgressOverTime[0].Score, stats.ProgressOverTime[1].Score, stats.ProgressOverTime[2].Score}
	if !reflect.DeepEqual(progressScores, []float64{60, 70, 80}) {
		t.Errorf("progressOverTime should be oldest-first, got scores %v", progressScores)
	}
}

func TestGetGeneralStatistics_ProgressWindowKeepsEarliestHistory(t *testing.T) {
	db := newTestDB(t)
	svc := NewStatsService(db)
	userID := uuid.New()

	base := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 35; i++ {
		seedSession(t, db, userID, "Storia", 70, base.Add(time.Duration(i)*time.Hour))
	}

	stats, err := svc.GetGeneralStatistics(userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(stats.ProgressOverTime) != 30 {
		t.Fatalf("expected progress window of 30, got %d", len(stats.ProgressOverTime))
	}
	// The window covers the 30 earliest sessions, not the 30 most recent.
	if !stats.ProgressOverTime[0].Timestamp.Equal(base) {
		t.Errorf("expected first progress point at %v, got %v", base, stats.ProgressOverTime[0].Timestamp)
	}
	last := stats.ProgressOverTime[29].Timestamp
	if !last.Equal(base.Add(29 * time.Hour)) {
		t.Errorf("expected last progress point at %v, got %v", base.Add(29*time.Hour), last)
	}
}

func TestGetGeneralStatistics_Idempotent(t *testing.T) {
	db := newTestDB(t)
	svc := NewStatsService(db)
	userID := uuid.New()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	seedSession(t, db, userID, "Storia", 55, base)
	seedSession(t, db, userID, "Geografia", 90, base.Add(time.Hour))

	first, err := svc.GetGeneralStatistics(userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.GetGeneralStatistics(userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("two reads with no writes in between should match:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestGetGeneralStatistics_Monotonicity(t *testing.T) {
	db := newTestDB(t)
	svc := NewStatsService(db)
	userID := uuid.New()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	seedSession(t, db, userID, "Storia", 80, base)

	before, err := svc.GetGeneralStatistics(userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	added := seedSession(t, db, userID, "Geografia", 60, base.Add(time.Hour))

	after, err := svc.GetGeneralStatistics(userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if after.TotalSessions != before.TotalSessions+1 {
		t.Errorf("expected totalSessions %d, got %d", before.TotalSessions+1, after.TotalSessions)
	}
	if after.TotalQuestions != before.TotalQuestions+added.TotalQuestions {
		t.Errorf("expected totalQuestions %d, got %d", before.TotalQuestions+added.TotalQuestions, after.TotalQuestions)
	}
	if after.TotalCorrect != before.TotalCorrect+added.CorrectAnswers {
		t.Errorf("expected totalCorrect %d, got %d", before.TotalCorrect+added.CorrectAnswers, after.TotalCorrect)
	}
	if after.TotalWrong != before.TotalWrong+added.WrongAnswers {
		t.Errorf("expected totalWrong %d, got %d", before.TotalWrong+added.WrongAnswers, after.TotalWrong)
	}
}

func TestGetGeneralStatistics_UserScoping(t *testing.T) {
	db := newTestDB(t)
	svc := NewStatsService(db)
	owner := uuid.New()
	other := uuid.New()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	seedSession(t, db, owner, "Storia", 80, base)
	seedSession(t, db, other, "Storia", 20, base.Add(time.Minute))

	stats, err := svc.GetGeneralStatistics(owner)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.TotalSessions != 1 {
		t.Errorf("expected 1 session for owner, got %d", stats.TotalSessions)
	}
	if stats.WorstSession == nil || stats.WorstSession.Score != 80 {
		t.Errorf("another user's session leaked into the aggregation: %+v", stats.WorstSession)
	}
}

func TestComputeStreaks(t *testing.T) {
	tests := []struct {
		name        string
		newestFirst []float64
		wantCurrent int
		wantMax     int
	}{
		{
			name:        "documented scenario",
			newestFirst: []float64{70, 65, 40, 90, 60},
			wantCurrent: 2,
			wantMax:     2,
		},
		{
			name:        "empty window",
			newestFirst: nil,
			wantCurrent: 0,
			wantMax:     0,
		},
		{
			name:        "all passing",
			newestFirst: []float64{60, 75, 100},
			wantCurrent: 3,
			wantMax:     3,
		},
		{
			name:        "leading failure buries a long run",
			newestFirst: []float64{30, 80, 80, 80},
			wantCurrent: 0,
			wantMax:     3,
		},
		{
			name:        "longer run behind the break",
			newestFirst: []float64{70, 40, 90, 60, 80, 100},
			wantCurrent: 1,
			wantMax:     4,
		},
		{
			name:        "threshold is inclusive",
			newestFirst: []float64{60, 59.9},
			wantCurrent: 1,
			wantMax:     1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			current, max := computeStreaks(tt.newestFirst)
			if current != tt.wantCurrent || max != tt.wantMax {
				t.Errorf("computeStreaks(%v) = (%d, %d), want (%d, %d)",
					tt.newestFirst, current, max, tt.wantCurrent, tt.wantMax)
			}
		})
	}
}

func TestGetGeneralStatistics_StreakWindowForgetsOldHistory(t *testing.T) {
	db := newTestDB(t)
	svc := NewStatsService(db)
	userID := uuid.New()

	base := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	// Oldest session fails, the following 50 all pass. The failure falls
	// outside the 50-session window, so the streak never sees it.
	seedSession(t, db, userID, "Storia", 20, base)
	for i := 1; i <= 50; i++ {
		seedSession(t, db, userID, "Storia", 75, base.Add(time.Duration(i)*time.Hour))
	}

	stats, err := svc.GetGeneralStatistics(userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stats.CurrentStreak != 50 {
		t.Errorf("expected currentStreak 50, got %d", stats.CurrentStreak)
	}
	if stats.MaxStreak != 50 {
		t.Errorf("expected maxStreak 50, got %d", stats.MaxStreak)
	}
}

func TestGetAreaStatistics_ExactMatchOnly(t *testing.T) {
	db := newTestDB(t)
	svc := NewStatsService(db)
	userID := uuid.New()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	seedSession(t, db, userID, "Storia", 80, base)
	seedSession(t, db, userID, "storia", 40, base.Add(time.Hour))
	seedSession(t, db, userID, " Storia", 50, base.Add(2*time.Hour))

	stats, err := svc.GetAreaStatistics(userID, "Storia")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats == nil {
		t.Fatal("expected statistics for area Storia")
	}
	if stats.TotalSessions != 1 {
		t.Errorf("expected exactly 1 session for \"Storia\", got %d", stats.TotalSessions)
	}
	if stats.Sessions[0].Score != 80 {
		t.Errorf("wrong session matched: score %v", stats.Sessions[0].Score)
	}
}

func TestGetAreaStatistics_NoSessions(t *testing.T) {
	svc := NewStatsService(newTestDB(t))

	stats, err := svc.GetAreaStatistics(uuid.New(), "Storia")
	if err != nil {
		t.Fatalf("expected no error for missing area, got %v", err)
	}
	if stats != nil {
		t.Errorf("expected nil statistics for missing area, got %+v", stats)
	}
}

func TestGetAreaStatistics_SessionsNewestFirst(t *testing.T) {
	db := newTestDB(t)
	svc := NewStatsService(db)
	userID := uuid.New()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	seedSession(t, db, userID, "Storia", 60, base)
	seedSession(t, db, userID, "Storia", 70, base.Add(time.Hour))

	stats, err := svc.GetAreaStatistics(userID, "Storia")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Sessions[0].Score != 70 || stats.Sessions[1].Score != 60 {
		t.Errorf("expected sessions newest-first, got %v then %v", stats.Sessions[0].Score, stats.Sessions[1].Score)
	}
	if stats.BestScore != 70 || stats.WorstScore != 60 {
		t.Errorf("expected best/worst 70/60, got %v/%v", stats.BestScore, stats.WorstScore)
	}
}

// The per-area average inside general statistics is rounded to one decimal;
// the dedicated area query reports it unrounded. Both behaviors are
// documented, so this test pins the difference instead of fixing it.
func TestAverageScoreRoundingDiffersBetweenQueries(t *testing.T) {
	db := newTestDB(t)
	svc := NewStatsService(db)
	userID := uuid.New()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	seedSession(t, db, userID, "Storia", 70, base)
	seedSession(t, db, userID, "Storia", 65, base.Add(time.Hour))
	seedSession(t, db, userID, "Storia", 50, base.Add(2*time.Hour))

	general, err := svc.GetGeneralStatistics(userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	area, err := svc.GetAreaStatistics(userID, "Storia")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// (70+65+50)/3 = 61.666...
	if general.ByArea[0].AverageScore != 61.7 {
		t.Errorf("expected rounded byArea average 61.7, got %v", general.ByArea[0].AverageScore)
	}
	unrounded := (70.0 + 65.0 + 50.0) / 3.0
	if area.AverageScore != unrounded {
		t.Errorf("expected unrounded area average %v, got %v", unrounded, area.AverageScore)
	}
	if area.AverageScore == general.ByArea[0].AverageScore {
		t.Error("area average should stay unrounded while the byArea value is rounded")
	}
}
