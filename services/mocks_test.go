package services_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"craftory-backend/apperrors"
	"craftory-backend/gateway"
	"craftory-backend/models"

	"github.com/google/uuid"
)

// ---- in-memory booking repository ----

// fakeBookingRepo mirrors the conditional-update guards of the real
// repository so service-level idempotence is observable.
type fakeBookingRepo struct {
	mu        sync.Mutex
	rows      map[uuid.UUID]*models.Booking
	createErr error
	created   int
}

func newFakeBookingRepo(rows ...*models.Booking) *fakeBookingRepo {
	r := &fakeBookingRepo{rows: make(map[uuid.UUID]*models.Booking)}
	for _, b := range rows {
		if b.ID == uuid.Nil {
			b.ID = uuid.New()
		}
		r.rows[b.ID] = b
	}
	return r
}

func (r *fakeBookingRepo) Create(_ context.Context, booking *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	r.rows[booking.ID] = booking
	r.created++
	return nil
}

func (r *fakeBookingRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.rows[id]; ok {
		copied := *b
		return &copied, nil
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeBookingRepo) GetByBillID(_ context.Context, billID string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.rows {
		if b.BillID == billID {
			copied := *b
			return &copied, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeBookingRepo) FindByGatewayOrderID(_ context.Context, orderID string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.rows {
		if b.GatewayOrderID == orderID || b.LegacyGatewayOrderID == orderID {
			copied := *b
			return &copied, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeBookingRepo) ListActiveForDate(_ context.Context, date string) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Booking
	for _, b := range r.rows {
		if b.Date == date && b.Active() {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) ListByEmail(_ context.Context, email string) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Booking
	for _, b := range r.rows {
		if b.Email == email {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) List(_ context.Context, limit, offset int) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Booking
	for _, b := range r.rows {
		out = append(out, *b)
	}
	return out, nil
}

func (r *fakeBookingRepo) MarkPaid(_ context.Context, id uuid.UUID, gatewayPaymentID, method string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.rows[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	if b.PaymentStatus == models.PaymentStatusRefunded {
		return nil
	}
	b.PaymentStatus = models.PaymentStatusPaid
	b.Status = models.BookingStatusConfirmed
	b.GatewayPaymentID = gatewayPaymentID
	b.PaymentMethod = method
	b.Version++
	return nil
}

func (r *fakeBookingRepo) MarkFailed(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.rows[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	if b.PaymentStatus == models.PaymentStatusPaid || b.PaymentStatus == models.PaymentStatusRefunded {
		return nil
	}
	b.PaymentStatus = models.PaymentStatusFailed
	b.Status = models.BookingStatusPending
	b.Version++
	return nil
}

func (r *fakeBookingRepo) MarkCancelled(_ context.Context, id uuid.UUID, refundID string, amount int64, reason string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.rows[id]
	if !ok {
		return false, apperrors.ErrNotFound
	}
	if b.Status == models.BookingStatusCancelled {
		return false, nil
	}
	b.Status = models.BookingStatusCancelled
	b.RefundID = refundID
	b.RefundStatus = models.RefundStatusInitiated
	b.RefundAmount = amount
	b.RefundReason = reason
	b.RefundInitiatedAt = &at
	b.Version++
	return true, nil
}

func (r *fakeBookingRepo) MarkRefundProcessed(_ context.Context, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.rows[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	b.PaymentStatus = models.PaymentStatusRefunded
	b.RefundStatus = models.RefundStatusProcessed
	b.RefundProcessedAt = &at
	b.Version++
	return nil
}

func (r *fakeBookingRepo) MarkRefundFailed(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.rows[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	if b.RefundStatus == models.RefundStatusProcessed {
		return nil
	}
	b.RefundStatus = models.RefundStatusFailed
	b.Version++
	return nil
}

func (r *fakeBookingRepo) Reschedule(_ context.Context, id uuid.UUID, newDate, newSlot string, balanceAmount int64, balanceOrderID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.rows[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	if b.OriginalDate == "" {
		b.OriginalDate = b.Date
		b.OriginalTimeSlot = b.TimeSlot
	}
	b.Date = newDate
	b.TimeSlot = newSlot
	b.BalanceAmount = balanceAmount
	b.BalanceGatewayOrderID = balanceOrderID
	b.Version++
	return nil
}

// ---- in-memory DIY order repository ----

type fakeOrderRepo struct {
	mu        sync.Mutex
	rows      map[uuid.UUID]*models.DIYOrder
	createErr error
	created   int
}

func newFakeOrderRepo(rows ...*models.DIYOrder) *fakeOrderRepo {
	r := &fakeOrderRepo{rows: make(map[uuid.UUID]*models.DIYOrder)}
	for _, o := range rows {
		if o.ID == uuid.Nil {
			o.ID = uuid.New()
		}
		r.rows[o.ID] = o
	}
	return r
}

func (r *fakeOrderRepo) Create(_ context.Context, order *models.DIYOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	r.rows[order.ID] = order
	r.created++
	return nil
}

func (r *fakeOrderRepo) GetByID(_ context.Context, id uuid.UUID) (*models.DIYOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o, ok := r.rows[id]; ok {
		copied := *o
		return &copied, nil
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeOrderRepo) GetByBillID(_ context.Context, billID string) (*models.DIYOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.rows {
		if o.BillID == billID {
			copied := *o
			return &copied, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeOrderRepo) FindByGatewayOrderID(_ context.Context, orderID string) (*models.DIYOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.rows {
		if o.GatewayOrderID == orderID {
			copied := *o
			return &copied, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeOrderRepo) ListByEmail(_ context.Context, email string) ([]models.DIYOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.DIYOrder
	for _, o := range r.rows {
		if o.Email == email {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) List(_ context.Context, limit, offset int) ([]models.DIYOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.DIYOrder
	for _, o := range r.rows {
		out = append(out, *o)
	}
	return out, nil
}

func (r *fakeOrderRepo) MarkPaid(_ context.Context, id uuid.UUID, gatewayPaymentID, method string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.rows[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	if o.PaymentStatus == models.PaymentStatusRefunded {
		return nil
	}
	o.PaymentStatus = models.PaymentStatusPaid
	o.DeliveryStatus = models.DeliveryStatusConfirmed
	o.GatewayPaymentID = gatewayPaymentID
	o.PaymentMethod = method
	return nil
}

func (r *fakeOrderRepo) MarkFailed(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.rows[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	if o.PaymentStatus == models.PaymentStatusPaid || o.PaymentStatus == models.PaymentStatusRefunded {
		return nil
	}
	o.PaymentStatus = models.PaymentStatusFailed
	return nil
}

func (r *fakeOrderRepo) UpdateDeliveryStatus(_ context.Context, id uuid.UUID, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.rows[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	o.DeliveryStatus = status
	return nil
}

// ---- in-memory payment ledger ----

type fakePaymentRepo struct {
	mu   sync.Mutex
	rows map[string]*models.Payment // keyed by gateway payment id
}

func newFakePaymentRepo(rows ...*models.Payment) *fakePaymentRepo {
	r := &fakePaymentRepo{rows: make(map[string]*models.Payment)}
	for _, p := range rows {
		r.rows[p.GatewayPaymentID] = p
	}
	return r
}

func (r *fakePaymentRepo) CreateIfAbsent(_ context.Context, payment *models.Payment) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.rows[payment.GatewayPaymentID]; exists {
		return false, nil
	}
	r.rows[payment.GatewayPaymentID] = payment
	return true, nil
}

func (r *fakePaymentRepo) GetByGatewayPaymentID(_ context.Context, id string) (*models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.rows[id]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakePaymentRepo) GetByGatewayOrderID(_ context.Context, orderID string) (*models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.rows {
		if p.GatewayOrderID == orderID {
			copied := *p
			return &copied, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakePaymentRepo) RecordRefund(_ context.Context, gatewayPaymentID, refundID string, amount int64) (*models.Payment, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[gatewayPaymentID]
	if !ok {
		return nil, false, apperrors.ErrNotFound
	}

	var ids []string
	if p.RefundIDs != "" {
		_ = json.Unmarshal([]byte(p.RefundIDs), &ids)
	}
	for _, id := range ids {
		if id == refundID {
			copied := *p
			return &copied, false, nil
		}
	}
	if p.RefundedAmount+amount > p.Amount {
		return nil, false, apperrors.ErrRefundExceedsBalance
	}

	p.RefundedAmount += amount
	encoded, _ := json.Marshal(append(ids, refundID))
	p.RefundIDs = string(encoded)
	if p.RefundedAmount >= p.Amount {
		p.RefundStatus = models.LedgerRefundFull
	} else {
		p.RefundStatus = models.LedgerRefundPartial
	}
	copied := *p
	return &copied, true, nil
}

// ---- scripted payment gateway ----

type fakeGateway struct {
	mu sync.Mutex

	orderCounter  int
	orderRequests []gateway.OrderRequest
	createErr     error

	payment  *gateway.PaymentDetails
	fetchErr error

	refund     *gateway.Refund
	refundErr  error
	refundReqs []int64

	refunds  []gateway.Refund
	listErr  error

	sigErr error

	webhookEv *gateway.WebhookEvent
	parseErr  error
}

func (g *fakeGateway) Name() string { return "fake" }

func (g *fakeGateway) CreateOrder(_ context.Context, req gateway.OrderRequest) (*gateway.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.orderCounter++
	g.orderRequests = append(g.orderRequests, req)
	return &gateway.Order{
		ID:       fmt.Sprintf("order_fake_%d", g.orderCounter),
		Amount:   req.Amount,
		Currency: req.Currency,
		Status:   "created",
	}, nil
}

func (g *fakeGateway) FetchPayment(_ context.Context, paymentID string) (*gateway.PaymentDetails, error) {
	if g.fetchErr != nil {
		return nil, g.fetchErr
	}
	copied := *g.payment
	if copied.ID == "" {
		copied.ID = paymentID
	}
	return &copied, nil
}

func (g *fakeGateway) CreateRefund(_ context.Context, paymentID string, amount int64, refundID, reason string) (*gateway.Refund, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.refundErr != nil {
		return nil, g.refundErr
	}
	g.refundReqs = append(g.refundReqs, amount)
	if g.refund != nil {
		return g.refund, nil
	}
	return &gateway.Refund{ID: "rfnd_fake_1", PaymentID: paymentID, Amount: amount, Status: "processed"}, nil
}

func (g *fakeGateway) ListRefunds(_ context.Context, paymentID string) ([]gateway.Refund, error) {
	if g.listErr != nil {
		return nil, g.listErr
	}
	return g.refunds, nil
}

func (g *fakeGateway) VerifyPaymentSignature(orderID, paymentID, signature string) error {
	return g.sigErr
}

func (g *fakeGateway) ParseWebhook(body []byte, signature string) (*gateway.WebhookEvent, error) {
	if g.parseErr != nil {
		return nil, g.parseErr
	}
	return g.webhookEv, nil
}
