package course

import "gorm.io/gorm"

// PointsEntry is an append-only ledger row. Totals are never decremented;
// every mutation is "add N points for event E, once".
type PointsEntry struct {
	gorm.Model
	UserID uint   `json:"user_id" gorm:"index;not null"`
	Points int    `json:"points" gorm:"not null"`
	Reason string `json:"reason"`
}

// UserPoints is the per-user aggregate kept in step with the ledger.
// The counters drive badge rules.
type UserPoints struct {
	gorm.Model
	UserID           uint   `json:"user_id" gorm:"uniqueIndex;not null"`
	TotalPoints      int    `json:"total_points" gorm:"default:0"`
	BadgeLevel       string `json:"badge_level" gorm:"default:'Newbie'"`
	LessonsCompleted int    `json:"lessons_completed" gorm:"default:0"`
	QuizzesPassed    int    `json:"quizzes_passed" gorm:"default:0"`
	CoursesCompleted int    `json:"courses_completed" gorm:"default:0"`
}
