package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	ProfileImage string     `json:"profile_image" gorm:"default:''"`
	Name         string     `json:"name" gorm:"default:''"`
	Email        string     `json:"email" gorm:"unique;not null"`
	Role         string     `json:"role" gorm:"default:'LEARNER'"` // LEARNER, INSTRUCTOR, ADMIN
	Password     string     `json:"-" gorm:"not null"`
	Bio          string     `json:"bio" gorm:"default:''"`
	IsApproved   bool       `json:"is_approved" gorm:"default:false"` // instructors need admin approval
	LastLogin    *time.Time `json:"last_login"`
	IsDeleted    bool       `json:"-" gorm:"default:false"`
}
