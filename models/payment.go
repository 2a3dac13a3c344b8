package models

import (
	"time"

	"github.com/google/uuid"
)

// Aggregate refund status on the ledger row, derived by comparing the
// refunded total against the captured amount.
const (
	LedgerRefundNone    = ""
	LedgerRefundPartial = "partial"
	LedgerRefundFull    = "full"
)

// Payment is the append-style ledger row created once a payment is confirmed
// captured. Its refund totals are the authoritative "how much has actually
// been refunded" figure when the owning booking/order row is ambiguous.
type Payment struct {
	ID     uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	BillID string    `gorm:"type:varchar(40);index;not null" json:"bill_id"`

	GatewayOrderID   string `gorm:"type:varchar(100);index;not null" json:"gateway_order_id"`
	GatewayPaymentID string `gorm:"type:varchar(100);uniqueIndex;not null" json:"gateway_payment_id"`

	Amount   int64  `gorm:"not null" json:"amount"`
	Currency string `gorm:"type:varchar(10);not null" json:"currency"`

	Method      string `gorm:"type:varchar(40)" json:"method,omitempty"`
	CardNetwork string `gorm:"type:varchar(40)" json:"card_network,omitempty"`
	CardLast4   string `gorm:"type:varchar(4)" json:"card_last4,omitempty"`
	UPIVPA      string `gorm:"type:varchar(120)" json:"upi_vpa,omitempty"`
	Bank        string `gorm:"type:varchar(120)" json:"bank,omitempty"`
	Wallet      string `gorm:"type:varchar(60)" json:"wallet,omitempty"`

	// GatewayPayload is a verbatim copy of the provider's payment object,
	// kept for audit alongside the Mongo copy.
	GatewayPayload string `gorm:"type:jsonb" json:"-"`

	RefundIDs      string `gorm:"type:jsonb" json:"refund_ids,omitempty"` // JSON array of refund ids
	RefundedAmount int64  `json:"refunded_amount"`
	RefundStatus   string `gorm:"type:varchar(20)" json:"refund_status,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
