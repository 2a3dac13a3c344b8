package gateway

import (
	"context"
	"encoding/json"
)

// Neutral payment statuses reported by FetchPayment.
const (
	PaymentCaptured = "captured"
	PaymentFailed   = "failed"
	PaymentPending  = "pending"
)

// Webhook event classification.
const (
	EventPaymentSuccess = "payment_success"
	EventPaymentFailed  = "payment_failed"
	EventRefund         = "refund"
	EventIgnored        = "ignored"
)

// Refund statuses carried on refund webhook events.
const (
	RefundProcessed = "processed"
	RefundFailed    = "failed"
	RefundCreated   = "created"
)

// Customer is the contact block passed to the provider at order creation.
type Customer struct {
	Name  string
	Email string
	Phone string
}

// OrderRequest asks the provider for a checkout session. BillID is this
// system's idempotency key and becomes the provider-side order receipt.
// CallbackURL must be HTTPS; providers reject plain-HTTP callbacks.
type OrderRequest struct {
	BillID      string
	Amount      int64 // minor units
	Currency    string
	Customer    Customer
	CallbackURL string
	NotifyURL   string
	Notes       map[string]string
}

// Order is the provider's handle for a checkout session.
type Order struct {
	ID          string
	Amount      int64
	Currency    string
	Status      string
	CheckoutURL string
}

// PaymentDetails is the authoritative view of a single payment, fetched from
// the provider rather than trusted from the client.
type PaymentDetails struct {
	ID          string
	OrderID     string
	Status      string // PaymentCaptured, PaymentFailed, PaymentPending
	Amount      int64
	Currency    string
	Method      string
	CardNetwork string
	CardLast4   string
	UPIVPA      string
	Bank        string
	Wallet      string
	Raw         json.RawMessage
}

// Refund is one entry in a payment's refund history.
type Refund struct {
	ID        string
	PaymentID string
	Amount    int64
	Status    string
}

// WebhookEvent is a verified, classified provider callback.
type WebhookEvent struct {
	Type         string
	OrderID      string
	PaymentID    string
	Payment      *PaymentDetails // set on payment events
	RefundID     string
	RefundStatus string
	RefundAmount int64
	Raw          []byte
}

// PaymentGateway abstracts a payment provider. The reconciliation flow is
// written once against this interface; provider specifics live in adapters.
type PaymentGateway interface {
	Name() string

	CreateOrder(ctx context.Context, req OrderRequest) (*Order, error)
	FetchPayment(ctx context.Context, paymentID string) (*PaymentDetails, error)
	CreateRefund(ctx context.Context, paymentID string, amount int64, refundID, reason string) (*Refund, error)
	ListRefunds(ctx context.Context, paymentID string) ([]Refund, error)

	// VerifyPaymentSignature authenticates a client-supplied verification
	// triple. Providers whose protocol has no client-side signature return nil;
	// the authoritative FetchPayment still follows.
	VerifyPaymentSignature(orderID, paymentID, signature string) error

	// ParseWebhook authenticates the raw body against the signature header and
	// classifies the event. The body must be the unmodified request bytes:
	// re-serializing the JSON breaks the HMAC.
	ParseWebhook(body []byte, signature string) (*WebhookEvent, error)
}
