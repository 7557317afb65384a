package course

import (
	"time"

	"gorm.io/gorm"
)

// Certificate is issued exactly once per (user, course) on completion
type Certificate struct {
	gorm.Model
	UserID            uint      `json:"user_id" gorm:"uniqueIndex:idx_certificate_user_course;not null"`
	CourseID          uint      `json:"course_id" gorm:"uniqueIndex:idx_certificate_user_course;not null"`
	CertificateNumber string    `json:"certificate_number" gorm:"unique;not null"`
	Grade             string    `json:"grade"`
	IssuedAt          time.Time `json:"issued_at"`
	CompletionDate    time.Time `json:"completion_date"`
	IsDownloaded      bool      `json:"is_downloaded" gorm:"default:false"`
	IsSeen            bool      `json:"is_seen" gorm:"default:false"`
	IsDeleted         bool      `json:"-" gorm:"default:false"`
}
