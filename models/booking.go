package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Payment status values. paid and refunded are terminal with respect to failed:
// a late payment_failed webhook must never downgrade them.
const (
	PaymentStatusPending  = "pending_payment"
	PaymentStatusPaid     = "paid"
	PaymentStatusFailed   = "failed"
	PaymentStatusRefunded = "refunded"
)

// Booking status values.
const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusCancelled = "cancelled"
	BookingStatusCompleted = "completed"
)

// Refund sub-state on a booking.
const (
	RefundStatusNone      = ""
	RefundStatusInitiated = "initiated"
	RefundStatusProcessed = "processed"
	RefundStatusFailed    = "failed"
)

// Booking is a reservation of one activity/time-slot combination.
// Amounts are stored in minor units (paise).
type Booking struct {
	ID     uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	BillID string    `gorm:"type:varchar(40);uniqueIndex;not null" json:"bill_id"`

	// GatewayOrderID is the current provider's checkout-session id.
	// LegacyGatewayOrderID keeps in-flight orders addressable across a
	// provider migration.
	GatewayOrderID       string `gorm:"type:varchar(100);uniqueIndex" json:"gateway_order_id"`
	LegacyGatewayOrderID string `gorm:"type:varchar(100);index" json:"legacy_gateway_order_id,omitempty"`

	Name  string `gorm:"type:varchar(120);not null" json:"name"`
	Email string `gorm:"type:varchar(255);not null;index" json:"email"`
	Phone string `gorm:"type:varchar(15);not null" json:"phone"`

	Activity     string `gorm:"type:varchar(120);not null" json:"activity"`
	ComboName    string `gorm:"type:varchar(120)" json:"combo_name,omitempty"`
	Activities   string `gorm:"type:jsonb" json:"activities,omitempty"` // selected activity list
	Date         string `gorm:"type:varchar(10);not null;index" json:"date"`
	TimeSlot     string `gorm:"type:varchar(40);not null" json:"time_slot"`
	Participants int    `gorm:"not null;default:1" json:"participants"`

	Amount   int64  `gorm:"not null" json:"amount"`
	Currency string `gorm:"type:varchar(10);not null" json:"currency"`

	PaymentStatus    string `gorm:"type:varchar(20);not null;index" json:"payment_status"`
	GatewayPaymentID string `gorm:"type:varchar(100);index" json:"gateway_payment_id,omitempty"`
	PaymentMethod    string `gorm:"type:varchar(40)" json:"payment_method,omitempty"`

	Status string `gorm:"type:varchar(20);not null;index" json:"status"`

	RefundID          string     `gorm:"type:varchar(40)" json:"refund_id,omitempty"`
	RefundStatus      string     `gorm:"type:varchar(20)" json:"refund_status,omitempty"`
	RefundAmount      int64      `json:"refund_amount"`
	RefundReason      string     `gorm:"type:varchar(500)" json:"refund_reason,omitempty"`
	RefundInitiatedAt *time.Time `json:"refund_initiated_at,omitempty"`
	RefundProcessedAt *time.Time `json:"refund_processed_at,omitempty"`

	// Reschedule bookkeeping: the original date/slot is retained and any
	// balance owed is collected through a separate gateway order.
	OriginalDate          string `gorm:"type:varchar(10)" json:"original_date,omitempty"`
	OriginalTimeSlot      string `gorm:"type:varchar(40)" json:"original_time_slot,omitempty"`
	BalanceAmount         int64  `json:"balance_amount,omitempty"`
	BalanceGatewayOrderID string `gorm:"type:varchar(100)" json:"balance_gateway_order_id,omitempty"`

	// Version guards concurrent verifier/webhook writes; every state
	// transition is a conditional update on it.
	Version int `gorm:"not null;default:0" json:"-"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Active reports whether the booking consumes its time slot: not cancelled
// and not refunded.
func (b *Booking) Active() bool {
	if b.Status != BookingStatusPending && b.Status != BookingStatusConfirmed {
		return false
	}
	return b.PaymentStatus != PaymentStatusRefunded
}
