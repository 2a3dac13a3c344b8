package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Delivery status values for DIY kit orders. Mutated only by an admin actor,
// independent of payment state.
const (
	DeliveryStatusPendingApproval = "pending_approval"
	DeliveryStatusConfirmed       = "order_confirmed"
	DeliveryStatusOnTheWay        = "on_the_way"
	DeliveryStatusDelivered       = "delivered"
)

// DIYOrder is a non-slotted merchandise purchase. It shares the payment
// sub-state shape with Booking but has no date/slot and no refund path.
type DIYOrder struct {
	ID     uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	BillID string    `gorm:"type:varchar(40);uniqueIndex;not null" json:"bill_id"`

	GatewayOrderID       string `gorm:"type:varchar(100);uniqueIndex" json:"gateway_order_id"`
	LegacyGatewayOrderID string `gorm:"type:varchar(100);index" json:"legacy_gateway_order_id,omitempty"`

	Name  string `gorm:"type:varchar(120);not null" json:"name"`
	Email string `gorm:"type:varchar(255);not null;index" json:"email"`
	Phone string `gorm:"type:varchar(15);not null" json:"phone"`

	Items   string `gorm:"type:jsonb;not null" json:"items"`
	Address string `gorm:"type:varchar(500)" json:"address,omitempty"`

	Amount   int64  `gorm:"not null" json:"amount"`
	Currency string `gorm:"type:varchar(10);not null" json:"currency"`

	PaymentStatus    string `gorm:"type:varchar(20);not null;index" json:"payment_status"`
	GatewayPaymentID string `gorm:"type:varchar(100);index" json:"gateway_payment_id,omitempty"`
	PaymentMethod    string `gorm:"type:varchar(40)" json:"payment_method,omitempty"`

	DeliveryStatus string `gorm:"type:varchar(30);not null" json:"delivery_status"`

	Version int `gorm:"not null;default:0" json:"-"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// OrderItem is one line of a DIY order's item list (serialized into Items).
type OrderItem struct {
	KitName  string `json:"kit_name"`
	Quantity int    `json:"quantity"`
	Price    int64  `json:"price"` // minor units per unit
}
