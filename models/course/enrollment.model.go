package course

import (
	"time"

	"gorm.io/gorm"
)

// Enrollment tracks a user's enrollment in a course with aggregated progress.
// One row per (user, course); re-enrolling returns the existing row unchanged.
type Enrollment struct {
	gorm.Model
	UserID           uint       `json:"user_id" gorm:"uniqueIndex:idx_enrollment_user_course;not null"`
	CourseID         uint       `json:"course_id" gorm:"uniqueIndex:idx_enrollment_user_course;not null"`
	Status           string     `json:"status" gorm:"default:'NOT_STARTED'"` // NOT_STARTED, IN_PROGRESS, COMPLETED
	Progress         int        `json:"progress" gorm:"default:0"`           // completion percentage 0-100
	CompletedLessons int        `json:"completed_lessons" gorm:"default:0"`
	TotalLessons     int        `json:"total_lessons" gorm:"default:0"`
	IsPaid           bool       `json:"is_paid" gorm:"default:false"`
	PaymentRef       string     `json:"payment_ref"`
	CompletedAt      *time.Time `json:"completed_at"`
	IsDeleted        bool       `json:"-" gorm:"default:false"`
}
