package model

import (
	"time"

	"gorm.io/gorm"
)

type PaymentMethod string

const (
	PaymentMethodCard     PaymentMethod = "card"
	PaymentMethodKakaoPay PaymentMethod = "kakaopay"
	PaymentMethodTransfer PaymentMethod = "bank_transfer"
)

// OrderDraftItem is what the order placement API needs per line.
type OrderDraftItem struct {
	SKU           string `json:"sku"`
	Quantity      int    `json:"quantity"`
	SelectedSize  string `json:"selected_size,omitempty"`
	SelectedColor string `json:"selected_color,omitempty"`
}

// OrderDraft is built from the local cart at checkout time.
type OrderDraft struct {
	Items           []OrderDraftItem `json:"items"`
	ShippingAddress Address          `json:"shipping_address"`
	BillingAddress  Address          `json:"billing_address"`
	PaymentMethod   PaymentMethod    `json:"payment_method"`

	// Display lines and total copied from the cart; not sent for pricing.
	Lines []CartLineItem `json:"lines"`
	Total float64        `json:"total"`
}

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
)

// OrderItem is a line of an order persisted by the backend.
type OrderItem struct {
	SKU           string  `json:"sku"`
	Name          string  `json:"name"`
	Quantity      int     `json:"quantity"`
	Price         float64 `json:"price"`
	SelectedSize  string  `json:"selected_size,omitempty"`
	SelectedColor string  `json:"selected_color,omitempty"`
}

// Order is the order placement API's response.
type Order struct {
	ID          string      `json:"id"`
	Status      OrderStatus `json:"status"`
	Items       []OrderItem `json:"items"`
	TotalAmount float64     `json:"total_amount"`
	Currency    string      `json:"currency,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}

// OrderDraftRecord keeps the last draft per session so the confirmation
// page can render even when the placed order cannot be read back.
type OrderDraftRecord struct {
	ID        uint           `gorm:"primarykey" json:"id"`                            // 레코드 ID
	SessionID string         `gorm:"type:varchar(64);not null;index" json:"session_id"` // 스토어프론트 세션
	OrderID   string         `gorm:"type:varchar(64);index" json:"order_id,omitempty"`  // 생성된 주문 ID
	Payload   string         `gorm:"type:text;not null" json:"-"`                     // OrderDraft JSON
	CreatedAt time.Time      `json:"created_at"`                                      // 생성 시각
	UpdatedAt time.Time      `json:"updated_at"`                                      // 수정 시각
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                                  // 삭제 시각(소프트 삭제)
}

func (OrderDraftRecord) TableName() string {
	return "order_drafts"
}
