package models

import (
	"time"

	"gorm.io/gorm"
)

// ContactMessage is a message left through the contact form.
type ContactMessage struct {
	ID        string    `gorm:"primaryKey;size:36"           json:"id"`
	Name      string    `gorm:"size:255;not null"            json:"name"`
	Email     string    `gorm:"size:255;not null"            json:"email"`
	Subject   string    `gorm:"size:255;not null"            json:"subject"`
	Message   string    `gorm:"type:text;not null"           json:"message"`
	Read      bool      `gorm:"not null;default:false;index" json:"read"`
	CreatedAt time.Time `gorm:"index"                        json:"created_at"`
}

func (m *ContactMessage) BeforeCreate(*gorm.DB) error {
	if m.ID == "" {
		m.ID = NewID()
	}
	return nil
}
