package models

import (
	"time"

	"gorm.io/gorm"
)

// Interview is a mock-interview template: a target role plus the generated
// set of question/reference-answer pairs the user practices against.
type Interview struct {
	ID          string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID      string         `gorm:"type:uuid;not null;index" json:"user_id"`
	Position    string         `gorm:"size:255;not null" json:"position"`
	Description string         `gorm:"type:text" json:"description"`
	Experience  int            `gorm:"not null;check:experience >= 0" json:"experience"` // Required years of experience
	TechStack   string         `gorm:"size:500" json:"tech_stack"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	User      User                `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Questions []InterviewQuestion `gorm:"foreignKey:InterviewID;constraint:OnDelete:CASCADE" json:"questions,omitempty"`
}

// InterviewQuestion is one question/reference-answer pair of an interview.
// Questions have no identity outside their parent interview; they are always
// addressed by QuestionIndex within the interview's ordered sequence.
type InterviewQuestion struct {
	ID            string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"-"`
	InterviewID   string         `gorm:"type:uuid;not null;index;uniqueIndex:idx_interview_question_pos" json:"-"`
	QuestionIndex int            `gorm:"not null;uniqueIndex:idx_interview_question_pos" json:"question_index"`
	Question      string         `gorm:"type:text;not null" json:"question"`
	Answer        string         `gorm:"type:text;not null" json:"answer"` // Reference/model answer
	CreatedAt     time.Time      `json:"-"`
	UpdatedAt     time.Time      `json:"-"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Interview Interview `gorm:"foreignKey:InterviewID" json:"-"`
}
