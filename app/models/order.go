package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Order statuses.
const (
	OrderPending    = "pending"
	OrderProcessing = "processing"
	OrderShipped    = "shipped"
	OrderDelivered  = "delivered"
	OrderCancelled  = "cancelled"
)

// OrderStatuses lists every status an admin may set.
var OrderStatuses = []string{OrderPending, OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled}

// Payment statuses shared by orders and transactions.
const (
	PaymentPending   = "pending"
	PaymentInitiated = "initiated"
	PaymentPaid      = "paid"
	PaymentUnpaid    = "unpaid"
	PaymentExpired   = "expired"
)

// Payment methods.
const (
	MethodStripe = "stripe"
	MethodForm   = "form"
)

// Order is a placed order with its line snapshot.
type Order struct {
	ID              string          `gorm:"primaryKey;size:36"          json:"id"`
	UserID          string          `gorm:"size:36;not null;index"      json:"user_id"`
	UserEmail       string          `gorm:"size:255;not null"           json:"user_email"`
	Items           []OrderItem     `gorm:"foreignKey:OrderID"          json:"items"`
	TotalBBD        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_bbd"`
	TotalUSD        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_usd"`
	ShippingAddress string          `gorm:"size:500;not null"           json:"shipping_address"`
	City            string          `gorm:"size:120;not null"           json:"city"`
	PostalCode      string          `gorm:"size:20"                     json:"postal_code"`
	Country         string          `gorm:"size:120;not null"           json:"country"`
	Phone           string          `gorm:"size:30;not null"            json:"phone"`
	Notes           *string         `gorm:"type:text"                   json:"notes"`
	Status          string          `gorm:"size:20;not null;index"      json:"status"`
	PaymentStatus   string          `gorm:"size:20;not null"            json:"payment_status"`
	PaymentMethod   string          `gorm:"size:20;not null"            json:"payment_method"`
	CreatedAt       time.Time       `gorm:"index"                       json:"created_at"`
	UpdatedAt       time.Time       `json:"-"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == "" {
		o.ID = NewID()
	}
	return nil
}

// OrderItem snapshots a product at the moment the order was placed.
type OrderItem struct {
	ID          uint            `gorm:"primaryKey;autoIncrement"    json:"-"`
	OrderID     string          `gorm:"size:36;not null;index"      json:"-"`
	ProductID   string          `gorm:"size:36;not null"            json:"product_id"`
	ProductName string          `gorm:"size:255;not null"           json:"product_name"`
	Quantity    int             `gorm:"not null"                    json:"quantity"`
	PriceBBD    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price_bbd"`
	PriceUSD    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price_usd"`
	Image       string          `gorm:"size:1000"                   json:"image"`
}

// PaymentTransaction records one hosted checkout session for an order.
type PaymentTransaction struct {
	ID            string          `gorm:"primaryKey;size:36"              json:"id"`
	SessionID     string          `gorm:"size:255;not null;uniqueIndex"   json:"session_id"`
	OrderID       string          `gorm:"size:36;not null;index"          json:"order_id"`
	UserID        string          `gorm:"size:36;not null;index"          json:"user_id"`
	UserEmail     string          `gorm:"size:255"                        json:"user_email"`
	Amount        decimal.Decimal `gorm:"type:decimal(12,2);not null"     json:"amount"`
	Currency      string          `gorm:"size:3;not null"                 json:"currency"`
	PaymentStatus string          `gorm:"size:20;not null;index"          json:"payment_status"`
	CreatedAt     time.Time       `gorm:"index"                           json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (t *PaymentTransaction) BeforeCreate(*gorm.DB) error {
	if t.ID == "" {
		t.ID = NewID()
	}
	return nil
}
