package course

import "gorm.io/gorm"

// Course represents a learning course
type Course struct {
	gorm.Model
	Title        string  `json:"title"`
	Description  string  `json:"description" gorm:"type:text"`
	Category     string  `json:"category" gorm:"index"`
	Tags         string  `json:"tags"` // comma separated, used by catalog search
	InstructorID uint    `json:"instructor_id" gorm:"index;not null"`
	Access       string  `json:"access" gorm:"default:'FREE'"` // FREE, PAID, INVITATION
	Price        float64 `json:"price" gorm:"default:0"`
	Duration     int64   `json:"duration" gorm:"default:0"` // total duration in minutes
	Rating       float64 `json:"rating" gorm:"default:0"`
	RatingCount  int     `json:"rating_count" gorm:"default:0"`
	ThumbnailURL string  `json:"thumbnail_url"`
	IsPublished  bool    `json:"is_published" gorm:"default:false"`
	IsDeleted    bool    `json:"-" gorm:"default:false"`
}
