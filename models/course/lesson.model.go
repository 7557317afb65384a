package course

import (
	"time"

	"gorm.io/gorm"
)

// Lesson belongs to exactly one course, ordered by Position
type Lesson struct {
	gorm.Model
	CourseID  uint   `json:"course_id" gorm:"index;not null"`
	Title     string `json:"title"`
	Type      string `json:"type" gorm:"default:'VIDEO'"` // VIDEO, DOCUMENT, IMAGE, QUIZ
	Content   string `json:"content" gorm:"type:text"`    // html body for DOCUMENT type
	MediaURL  string `json:"media_url"`                   // for VIDEO / IMAGE types
	Position  int    `json:"position" gorm:"default:0"`
	Duration  int    `json:"duration" gorm:"default:0"` // minutes
	IsDeleted bool   `json:"-" gorm:"default:false"`
}

// LessonProgress tracks a user's state on a single lesson.
// Once COMPLETED it never reverts.
type LessonProgress struct {
	gorm.Model
	UserID       uint       `json:"user_id" gorm:"uniqueIndex:idx_progress_user_lesson;not null"`
	LessonID     uint       `json:"lesson_id" gorm:"uniqueIndex:idx_progress_user_lesson;not null"`
	CourseID     uint       `json:"course_id" gorm:"index;not null"`
	Status       string     `json:"status" gorm:"default:'STARTED'"` // STARTED, COMPLETED
	LastPosition int        `json:"last_position" gorm:"default:0"`  // playback/scroll bookmark
	CompletedAt  *time.Time `json:"completed_at"`
	IsDeleted    bool       `json:"-" gorm:"default:false"`
}
