package gateway

import (
	"context"
	"encoding/json"
	"fmt"

	"craftory-backend/apperrors"

	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/paymentintent"
	"github.com/stripe/stripe-go/v80/refund"
	"github.com/stripe/stripe-go/v80/webhook"
)

// StripeProvider implements PaymentGateway on the Stripe SDK. PaymentIntents
// stand in for checkout sessions; the bill id travels in metadata.
type StripeProvider struct {
	secretKey  string
	webhookKey string
}

func NewStripeProvider(secretKey, webhookKey string) *StripeProvider {
	stripe.Key = secretKey
	return &StripeProvider{secretKey: secretKey, webhookKey: webhookKey}
}

func (s *StripeProvider) Name() string { return "stripe" }

func (s *StripeProvider) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.Amount),
		Currency: stripe.String(req.Currency),
	}
	params.Context = ctx
	params.AddMetadata("bill_id", req.BillID)
	params.AddMetadata("customer_email", req.Customer.Email)
	for k, v := range req.Notes {
		params.AddMetadata(k, v)
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, stripeErr("create payment intent", err)
	}

	return &Order{
		ID:       pi.ID,
		Amount:   pi.Amount,
		Currency: string(pi.Currency),
		Status:   string(pi.Status),
	}, nil
}

func (s *StripeProvider) FetchPayment(ctx context.Context, paymentID string) (*PaymentDetails, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := paymentintent.Get(paymentID, params)
	if err != nil {
		return nil, stripeErr("fetch payment intent", err)
	}

	raw, _ := json.Marshal(pi)
	d := &PaymentDetails{
		ID:       pi.ID,
		OrderID:  pi.ID, // Stripe has one id for session and payment
		Amount:   pi.Amount,
		Currency: string(pi.Currency),
		Method:   "card",
		Raw:      raw,
	}
	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		d.Status = PaymentCaptured
	case stripe.PaymentIntentStatusCanceled:
		d.Status = PaymentFailed
	default:
		d.Status = PaymentPending
	}
	return d, nil
}

func (s *StripeProvider) CreateRefund(ctx context.Context, paymentID string, amount int64, refundID, reason string) (*Refund, error) {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(paymentID),
		Amount:        stripe.Int64(amount),
	}
	params.Context = ctx
	params.AddMetadata("refund_id", refundID)
	params.AddMetadata("reason", reason)

	r, err := refund.New(params)
	if err != nil {
		return nil, stripeErr("create refund", err)
	}

	return &Refund{
		ID:        r.ID,
		PaymentID: paymentID,
		Amount:    r.Amount,
		Status:    string(r.Status),
	}, nil
}

func (s *StripeProvider) ListRefunds(ctx context.Context, paymentID string) ([]Refund, error) {
	params := &stripe.RefundListParams{PaymentIntent: stripe.String(paymentID)}
	params.Context = ctx

	var refunds []Refund
	it := refund.List(params)
	for it.Next() {
		r := it.Refund()
		refunds = append(refunds, Refund{
			ID:        r.ID,
			PaymentID: paymentID,
			Amount:    r.Amount,
			Status:    string(r.Status),
		})
	}
	if err := it.Err(); err != nil {
		return nil, stripeErr("list refunds", err)
	}
	return refunds, nil
}

// VerifyPaymentSignature is a no-op: Stripe's protocol carries no client-side
// verification signature, and the authoritative FetchPayment always follows.
func (s *StripeProvider) VerifyPaymentSignature(orderID, paymentID, signature string) error {
	return nil
}

func (s *StripeProvider) ParseWebhook(body []byte, signature string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEvent(body, signature, s.webhookKey)
	if err != nil {
		return nil, apperrors.ErrInvalidSignature
	}

	ev := &WebhookEvent{Raw: body}

	switch event.Type {
	case "payment_intent.succeeded", "payment_intent.payment_failed":
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("decode payment intent: %w", err)
		}
		ev.OrderID = pi.ID
		ev.PaymentID = pi.ID
		if event.Type == "payment_intent.succeeded" {
			ev.Type = EventPaymentSuccess
			ev.Payment = &PaymentDetails{
				ID: pi.ID, OrderID: pi.ID, Status: PaymentCaptured,
				Amount: pi.Amount, Currency: string(pi.Currency), Method: "card", Raw: body,
			}
		} else {
			ev.Type = EventPaymentFailed
		}
	case "refund.created", "refund.updated":
		var r stripe.Refund
		if err := json.Unmarshal(event.Data.Raw, &r); err != nil {
			return nil, fmt.Errorf("decode refund: %w", err)
		}
		ev.Type = EventRefund
		if r.PaymentIntent != nil {
			ev.PaymentID = r.PaymentIntent.ID
		}
		ev.RefundID = r.ID
		ev.RefundAmount = r.Amount
		switch r.Status {
		case stripe.RefundStatusSucceeded:
			ev.RefundStatus = RefundProcessed
		case stripe.RefundStatusFailed:
			ev.RefundStatus = RefundFailed
		default:
			ev.RefundStatus = RefundCreated
		}
	default:
		ev.Type = EventIgnored
	}

	return ev, nil
}

func stripeErr(op string, err error) error {
	if serr, ok := err.(*stripe.Error); ok {
		return apperrors.Gateway(serr.Msg, err)
	}
	return apperrors.Gateway(fmt.Sprintf("stripe %s failed", op), err)
}
