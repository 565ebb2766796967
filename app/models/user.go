package models

import (
	"time"

	"gorm.io/gorm"
)

// User is a storefront customer or an admin.
type User struct {
	ID        string    `gorm:"primaryKey;size:36"            json:"id"`
	Email     string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password  string    `gorm:"size:255;not null"             json:"-"` // bcrypt hash
	FirstName string    `gorm:"size:100;not null"             json:"first_name"`
	LastName  string    `gorm:"size:100;not null"             json:"last_name"`
	Phone     *string   `gorm:"size:30"                       json:"phone"`
	IsAdmin   bool      `gorm:"not null;default:false;index"  json:"is_admin"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == "" {
		u.ID = NewID()
	}
	return nil
}

// ReviewerName is "First L.", or just the first name when there is no last
// name.
func (u *User) ReviewerName() string {
	for _, r := range u.LastName {
		return u.FirstName + " " + string(r) + "."
	}
	return u.FirstName
}
