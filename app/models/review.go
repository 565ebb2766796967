package models

import (
	"time"

	"gorm.io/gorm"
)

// Review is one customer's rating of a product. A user reviews a product at
// most once.
type Review struct {
	ID        string    `gorm:"primaryKey;size:36"                                    json:"id"`
	ProductID string    `gorm:"size:36;not null;uniqueIndex:idx_reviews_product_user" json:"product_id"`
	UserID    string    `gorm:"size:36;not null;uniqueIndex:idx_reviews_product_user" json:"user_id"`
	UserName  string    `gorm:"size:120;not null"                                     json:"user_name"`
	Rating    int       `gorm:"not null"                                              json:"rating"`
	Comment   string    `gorm:"type:text"                                             json:"comment"`
	CreatedAt time.Time `gorm:"index"                                                 json:"created_at"`
}

func (r *Review) BeforeCreate(*gorm.DB) error {
	if r.ID == "" {
		r.ID = NewID()
	}
	return nil
}
