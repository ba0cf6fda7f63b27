package jobs

import (
	"fmt"
	"log"
	"strings"

	"github.com/AleDet01/smartdeck-sub000/database"
	"github.com/AleDet01/smartdeck-sub000/models"
	"github.com/AleDet01/smartdeck-sub000/notifications"
	"github.com/AleDet01/smartdeck-sub000/services"
)

// SendWeeklyDigests emails every opted-in user a summary of their study
// statistics. Users with no recorded sessions are skipped.
func SendWeeklyDigests() {
	log.Println("Running job: SendWeeklyDigests...")

	var users []models.User
	err := database.DB.
		Where("is_active = ? AND digest_opt_in = ?", true, true).
		Find(&users).Error
	if err != nil {
		log.Printf("Error loading users for weekly digest: %v", err)
		return
	}

	stats := services.NewStatsService(database.DB)

	for _, user := range users {
		general, err := stats.GetGeneralStatistics(user.ID)
		if err != nil {
			log.Printf("Error computing digest statistics for user %s: %v", user.ID, err)
			continue
		}
		if general.TotalSessions == 0 {
			continue
		}

		go notifications.SendEmail(user.FullName, user.Email, "Your Weekly Study Digest", buildDigestBody(user.FullName, general))
	}
}

func buildDigestBody(name string, stats *services.GeneralStatistics) string {
	var b strings.Builder

	fmt.Fprintf(&b, "<h1>Your week in review</h1><p>Hi %s,</p>", name)
	fmt.Fprintf(&b, "<p>You have completed <b>%d</b> quiz sessions so far, answering <b>%d</b> questions (%d correct).</p>",
		stats.TotalSessions, stats.TotalQuestions, stats.TotalCorrect)
	fmt.Fprintf(&b, "<p>Average score: <b>%.1f</b> &mdash; current streak: <b>%d</b> passing sessions.</p>",
		stats.AverageScore, stats.CurrentStreak)

	if len(stats.ByArea) > 0 {
		top := stats.ByArea[0]
		fmt.Fprintf(&b, "<p>Your most practiced area is <b>%s</b> (%d sessions, average %.1f).</p>",
			top.ThematicArea, top.TotalSessions, top.AverageScore)
	}

	b.WriteString("<p>Keep it up!</p>")
	return b.String()
}
