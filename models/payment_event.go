package models

import "time"

// PaymentEvent is the message published to Kafka when a payment or refund
// changes state.
type PaymentEvent struct {
	Type             string    `json:"type"` // payment_succeeded, payment_failed, refund_initiated, refund_processed
	BillID           string    `json:"bill_id"`
	GatewayOrderID   string    `json:"gateway_order_id"`
	GatewayPaymentID string    `json:"gateway_payment_id,omitempty"`
	Amount           int64     `json:"amount"`
	Currency         string    `json:"currency"`
	Timestamp        time.Time `json:"timestamp"`
}
