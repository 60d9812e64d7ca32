package models

import (
	"time"

	"gorm.io/gorm"
)

// CVFile records an uploaded resume. Score is denormalized from the latest
// analysis so list views don't need a join.
type CVFile struct {
	ID         string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID     string         `gorm:"type:uuid;not null;index" json:"user_id"`
	FileName   string         `gorm:"size:255;not null" json:"file_name"`
	FilePath   string         `gorm:"size:500;not null" json:"-"` // Server-side storage path
	TargetRole string         `gorm:"size:255" json:"target_role,omitempty"`
	Score      int            `gorm:"default:0" json:"score"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	User     User            `gorm:"foreignKey:UserID" json:"-"`
	Analysis *AnalysisResult `gorm:"foreignKey:CVFileID;constraint:OnDelete:CASCADE" json:"analysis,omitempty"`
}

// AnalysisResult holds the AI resume analysis. Exactly one per CVFile,
// enforced by the unique index on CVFileID.
type AnalysisResult struct {
	ID              string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CVFileID        string         `gorm:"type:uuid;not null;uniqueIndex" json:"cv_file_id"`
	UserID          string         `gorm:"type:uuid;not null;index" json:"user_id"`
	ATSScore        int            `gorm:"not null" json:"ats_score"`
	Feedback        string         `gorm:"type:text" json:"feedback"`
	MissingKeywords string         `gorm:"type:text" json:"missing_keywords"` // Comma-separated keyword list
	ImprovedSummary string         `gorm:"type:text" json:"improved_summary"`
	CreatedAt       time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt       time.Time      `json:"-"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	CVFile CVFile `gorm:"foreignKey:CVFileID" json:"-"`
}
