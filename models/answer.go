package models

import (
	"time"

	"gorm.io/gorm"
)

// SavedAnswer is the immutable record of a user's finalized response to one
// question of one interview, together with the AI grading. Question text and
// reference answer are denormalized so the record survives interview edits.
// The composite unique index enforces at most one answer per
// (interview, user, question index) at the storage layer.
type SavedAnswer struct {
	ID            string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	InterviewID   string         `gorm:"type:uuid;not null;uniqueIndex:idx_saved_answer_unique" json:"interview_id"`
	UserID        string         `gorm:"type:uuid;not null;uniqueIndex:idx_saved_answer_unique;index" json:"user_id"`
	QuestionIndex int            `gorm:"not null;uniqueIndex:idx_saved_answer_unique" json:"question_index"`
	Question      string         `gorm:"type:text;not null" json:"question"`
	CorrectAnswer string         `gorm:"type:text;not null" json:"correct_answer"` // Denormalized reference answer
	UserAnswer    string         `gorm:"type:text;not null" json:"user_answer"`
	Rating        int            `gorm:"not null;check:rating >= 1 AND rating <= 10" json:"rating"`
	Feedback      string         `gorm:"type:text" json:"feedback"`
	CreatedAt     time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt     time.Time      `json:"-"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Interview Interview `gorm:"foreignKey:InterviewID" json:"-"`
	User      User      `gorm:"foreignKey:UserID" json:"-"`
}

// TableName returns the table name for the SavedAnswer model
func (SavedAnswer) TableName() string {
	return "saved_answers"
}
