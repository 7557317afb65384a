package course

import (
	"time"

	"gorm.io/gorm"
)

// Badge rule kinds, matched against the UserPoints counters
const (
	RuleLessonsCompleted = "LESSONS_COMPLETED"
	RuleQuizzesPassed    = "QUIZZES_PASSED"
	RuleCoursesCompleted = "COURSES_COMPLETED"
)

// Badge is a named one-time-per-user achievement
type Badge struct {
	gorm.Model
	Name        string `json:"name" gorm:"unique;not null"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Color       string `json:"color" gorm:"default:'#FFD700'"`
	Rule        string `json:"rule" gorm:"not null"`
	Threshold   int    `json:"threshold" gorm:"default:1"`
	IsDeleted   bool   `json:"-" gorm:"default:false"`
}

// UserBadge links a user to an earned badge. The unique index is what makes
// badge awarding safe under concurrent triggers.
type UserBadge struct {
	gorm.Model
	UserID   uint      `json:"user_id" gorm:"uniqueIndex:idx_user_badge;not null"`
	BadgeID  uint      `json:"badge_id" gorm:"uniqueIndex:idx_user_badge;not null"`
	EarnedAt time.Time `json:"earned_at"`
	IsNew    bool      `json:"is_new" gorm:"default:true"`
}
