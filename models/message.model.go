package models

import "gorm.io/gorm"

// Message is a direct note between two platform users
type Message struct {
	gorm.Model
	SenderID    uint   `json:"sender_id" gorm:"index;not null"`
	RecipientID uint   `json:"recipient_id" gorm:"index;not null"`
	Subject     string `json:"subject"`
	Body        string `json:"body" gorm:"type:text"`
	IsRead      bool   `json:"is_read" gorm:"default:false"`
	IsDeleted   bool   `json:"-" gorm:"default:false"`
}
