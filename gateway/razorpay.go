package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"craftory-backend/apperrors"
)

const razorpayBaseURL = "https://api.razorpay.com/v1"

// RazorpayProvider implements PaymentGateway against the Razorpay REST API.
type RazorpayProvider struct {
	keyID         string
	keySecret     string
	webhookSecret string
	baseURL       string
	httpClient    *http.Client
}

// NewRazorpayProvider creates a new RazorpayProvider.
func NewRazorpayProvider(keyID, keySecret, webhookSecret string) *RazorpayProvider {
	return &RazorpayProvider{
		keyID:         keyID,
		keySecret:     keySecret,
		webhookSecret: webhookSecret,
		baseURL:       razorpayBaseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (p *RazorpayProvider) Name() string { return "razorpay" }

// ---- Razorpay API request/response structs ----

type razorpayOrderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type razorpayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
	Receipt  string `json:"receipt"`
}

type razorpayPayment struct {
	ID       string `json:"id"`
	OrderID  string `json:"order_id"`
	Status   string `json:"status"` // created, authorized, captured, refunded, failed
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Method   string `json:"method"` // card, upi, netbanking, wallet
	Card     *struct {
		Network string `json:"network"`
		Last4   string `json:"last4"`
	} `json:"card"`
	VPA    string `json:"vpa"`
	Bank   string `json:"bank"`
	Wallet string `json:"wallet"`
}

type razorpayRefund struct {
	ID        string `json:"id"`
	PaymentID string `json:"payment_id"`
	Amount    int64  `json:"amount"`
	Status    string `json:"status"` // pending, processed, failed
}

type razorpayRefundList struct {
	Count int              `json:"count"`
	Items []razorpayRefund `json:"items"`
}

type razorpayError struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

type razorpayWebhookBody struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity razorpayPayment `json:"entity"`
		} `json:"payment"`
		Refund struct {
			Entity razorpayRefund `json:"entity"`
		} `json:"refund"`
	} `json:"payload"`
}

// ---- PaymentGateway implementation ----

// CreateOrder creates a Razorpay order with the bill id as receipt.
func (p *RazorpayProvider) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	notes := map[string]string{
		"bill_id":        req.BillID,
		"customer_name":  req.Customer.Name,
		"customer_email": req.Customer.Email,
		"callback_url":   req.CallbackURL,
	}
	for k, v := range req.Notes {
		notes[k] = v
	}

	body := razorpayOrderRequest{
		Amount:   req.Amount,
		Currency: req.Currency,
		Receipt:  req.BillID,
		Notes:    notes,
	}

	var resp razorpayOrder
	if err := p.doRequest(ctx, http.MethodPost, "/orders", body, &resp); err != nil {
		return nil, err
	}

	return &Order{
		ID:       resp.ID,
		Amount:   resp.Amount,
		Currency: resp.Currency,
		Status:   resp.Status,
	}, nil
}

// FetchPayment fetches the authoritative payment state.
func (p *RazorpayProvider) FetchPayment(ctx context.Context, paymentID string) (*PaymentDetails, error) {
	var resp razorpayPayment
	raw, err := p.doRequestRaw(ctx, http.MethodGet, "/payments/"+paymentID, nil, &resp)
	if err != nil {
		return nil, err
	}
	return toPaymentDetails(resp, raw), nil
}

// CreateRefund issues a refund against a captured payment. The locally
// generated refund id and reason travel in notes so the refund is traceable
// from the provider dashboard.
func (p *RazorpayProvider) CreateRefund(ctx context.Context, paymentID string, amount int64, refundID, reason string) (*Refund, error) {
	body := map[string]interface{}{
		"amount": amount,
		"speed":  "normal",
		"notes": map[string]string{
			"refund_id": refundID,
			"reason":    reason,
		},
	}

	var resp razorpayRefund
	if err := p.doRequest(ctx, http.MethodPost, "/payments/"+paymentID+"/refund", body, &resp); err != nil {
		return nil, err
	}

	return &Refund{
		ID:        resp.ID,
		PaymentID: resp.PaymentID,
		Amount:    resp.Amount,
		Status:    resp.Status,
	}, nil
}

// ListRefunds returns the provider-side refund history for a payment.
func (p *RazorpayProvider) ListRefunds(ctx context.Context, paymentID string) ([]Refund, error) {
	var resp razorpayRefundList
	if err := p.doRequest(ctx, http.MethodGet, "/payments/"+paymentID+"/refunds", nil, &resp); err != nil {
		return nil, err
	}

	refunds := make([]Refund, 0, len(resp.Items))
	for _, r := range resp.Items {
		refunds = append(refunds, Refund{
			ID:        r.ID,
			PaymentID: r.PaymentID,
			Amount:    r.Amount,
			Status:    r.Status,
		})
	}
	return refunds, nil
}

// VerifyPaymentSignature checks the HMAC-SHA256 of "order_id|payment_id"
// against the client-supplied signature.
func (p *RazorpayProvider) VerifyPaymentSignature(orderID, paymentID, signature string) error {
	expected := hmacHex([]byte(p.keySecret), []byte(orderID+"|"+paymentID))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return apperrors.ErrInvalidSignature
	}
	return nil
}

// ParseWebhook verifies the HMAC over the raw body and classifies the event.
func (p *RazorpayProvider) ParseWebhook(body []byte, signature string) (*WebhookEvent, error) {
	expected := hmacHex([]byte(p.webhookSecret), body)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return nil, apperrors.ErrInvalidSignature
	}

	var wb razorpayWebhookBody
	if err := json.Unmarshal(body, &wb); err != nil {
		return nil, fmt.Errorf("decode webhook body: %w", err)
	}

	ev := &WebhookEvent{Raw: body}

	switch wb.Event {
	case "payment.captured":
		pay := wb.Payload.Payment.Entity
		ev.Type = EventPaymentSuccess
		ev.OrderID = pay.OrderID
		ev.PaymentID = pay.ID
		ev.Payment = toPaymentDetails(pay, body)
	case "payment.failed":
		pay := wb.Payload.Payment.Entity
		ev.Type = EventPaymentFailed
		ev.OrderID = pay.OrderID
		ev.PaymentID = pay.ID
	case "refund.processed", "refund.created", "refund.failed":
		ref := wb.Payload.Refund.Entity
		ev.Type = EventRefund
		ev.PaymentID = ref.PaymentID
		ev.RefundID = ref.ID
		ev.RefundAmount = ref.Amount
		switch ref.Status {
		case "processed":
			ev.RefundStatus = RefundProcessed
		case "failed":
			ev.RefundStatus = RefundFailed
		default:
			ev.RefundStatus = RefundCreated
		}
	default:
		ev.Type = EventIgnored
	}

	return ev, nil
}

// ---- HTTP helpers ----

func (p *RazorpayProvider) doRequest(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	_, err := p.doRequestRaw(ctx, method, path, body, out)
	return err
}

// doRequestRaw performs an authenticated JSON request and returns the raw
// response bytes alongside decoding into out. Provider error descriptions are
// surfaced verbatim; they are what callers need to diagnose configuration.
func (p *RazorpayProvider) doRequestRaw(ctx context.Context, method, path string, body interface{}, out interface{}) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(p.keyID, p.keySecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Gateway("razorpay request failed", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr razorpayError
		if json.Unmarshal(respBytes, &apiErr) == nil && apiErr.Error.Description != "" {
			return nil, apperrors.Gateway(apiErr.Error.Description, nil)
		}
		return nil, apperrors.Gateway(fmt.Sprintf("razorpay API error (status %d): %s", resp.StatusCode, string(respBytes)), nil)
	}

	if out != nil {
		if err := json.Unmarshal(respBytes, out); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
	}
	return respBytes, nil
}

func toPaymentDetails(pay razorpayPayment, raw []byte) *PaymentDetails {
	d := &PaymentDetails{
		ID:       pay.ID,
		OrderID:  pay.OrderID,
		Amount:   pay.Amount,
		Currency: pay.Currency,
		Method:   pay.Method,
		UPIVPA:   pay.VPA,
		Bank:     pay.Bank,
		Wallet:   pay.Wallet,
		Raw:      raw,
	}
	if pay.Card != nil {
		d.CardNetwork = pay.Card.Network
		d.CardLast4 = pay.Card.Last4
	}
	switch pay.Status {
	case "captured", "refunded":
		d.Status = PaymentCaptured
	case "failed":
		d.Status = PaymentFailed
	default:
		d.Status = PaymentPending
	}
	return d
}

func hmacHex(key, message []byte) string {
	mac := hmac.New(sha256.New, key)
	mac.Write(message)
	return hex.EncodeToString(mac.Sum(nil))
}
