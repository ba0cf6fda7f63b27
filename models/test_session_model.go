package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TestSession is one completed quiz attempt. Rows are insert-only: no code
// path updates or deletes a session once it is recorded.
type TestSession struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID         uuid.UUID `gorm:"not null;index" json:"user_id"`
	ThematicArea   string    `gorm:"size:255;not null;index" json:"thematic_area"`
	TotalQuestions int       `gorm:"not null" json:"total_questions"`
	CorrectAnswers int       `gorm:"not null" json:"correct_answers"`
	WrongAnswers   int       `gorm:"not null" json:"wrong_answers"`
	Score          float64   `gorm:"not null" json:"score"`
	Duration       int       `gorm:"not null;default:0" json:"duration"`
	CompletedAt    time.Time `gorm:"not null;index" json:"completed_at"`

	Results []QuestionResult `gorm:"foreignkey:TestSessionID" json:"results,omitempty"`

	User User `gorm:"foreignkey:UserID" json:"-"`
}

func (s *TestSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// QuestionResult is one answered question inside a session. The index fields
// are nullable because the legacy submission shape only carries the flattened
// answer texts.
type QuestionResult struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	TestSessionID uuid.UUID `gorm:"not null;index" json:"test_session_id"`
	Position      int       `gorm:"not null" json:"position"`
	Question      string    `gorm:"type:text;not null" json:"question"`
	UserAnswer    string    `gorm:"type:text" json:"user_answer"`
	UserIndex     *int      `json:"user_index,omitempty"`
	CorrectAnswer string    `gorm:"type:text" json:"correct_answer"`
	CorrectIndex  *int      `json:"correct_index,omitempty"`
	IsCorrect     bool      `gorm:"not null" json:"is_correct"`
	TimeTaken     int       `gorm:"not null;default:0" json:"time_taken"`

	TestSession TestSession `gorm:"foreignkey:TestSessionID" json:"-"`
}

func (r *QuestionResult) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
