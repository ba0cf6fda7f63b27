package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Flashcard struct {
	ID           uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	UserID       uuid.UUID      `gorm:"not null;index" json:"user_id"`
	ThematicArea string         `gorm:"size:255;not null;index" json:"thematic_area"`
	Question     string         `gorm:"type:text;not null" json:"question"`
	Options      datatypes.JSON `gorm:"not null" json:"options"`
	CorrectIndex int            `gorm:"not null" json:"correct_index"`
	AIGenerated  bool           `gorm:"default:false" json:"ai_generated"`

	User User `gorm:"foreignkey:UserID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (f *Flashcard) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
