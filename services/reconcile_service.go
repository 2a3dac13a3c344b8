package services

import (
	"context"
	"errors"
	"time"

	"craftory-backend/apperrors"
	"craftory-backend/gateway"
	"craftory-backend/kafka"
	"craftory-backend/models"
	"craftory-backend/repository"

	"go.uber.org/zap"
)

// VerifyResult is the terminal state a verification call settles on.
type VerifyResult struct {
	Kind          string           `json:"kind"` // "booking" or "diy_order"
	PaymentStatus string           `json:"payment_status"`
	Booking       *models.Booking  `json:"booking,omitempty"`
	Order         *models.DIYOrder `json:"order,omitempty"`
}

// ReconcileService applies payment state transitions from both the
// client-triggered verify call and gateway webhooks. The two can race for
// the same payment; every mutation is an idempotent, externally-keyed
// update so replays and reordering are safe.
type ReconcileService struct {
	bookings repository.BookingRepository
	orders   repository.OrderRepository
	payments repository.PaymentRepository
	gw       gateway.PaymentGateway
	events   *kafka.PaymentEventProducer
	audit    *AuditStore
	logger   *zap.Logger
}

func NewReconcileService(
	bookings repository.BookingRepository,
	orders repository.OrderRepository,
	payments repository.PaymentRepository,
	gw gateway.PaymentGateway,
	events *kafka.PaymentEventProducer,
	audit *AuditStore,
	logger *zap.Logger,
) *ReconcileService {
	return &ReconcileService{
		bookings: bookings,
		orders:   orders,
		payments: payments,
		gw:       gw,
		events:   events,
		audit:    audit,
		logger:   logger,
	}
}

// VerifyPayment authenticates a client-supplied verification triple, fetches
// the authoritative payment state from the gateway and applies it. Safe to
// call repeatedly with the same identifiers.
func (s *ReconcileService) VerifyPayment(ctx context.Context, orderID, paymentID, signature string) (*VerifyResult, error) {
	if s.gw == nil {
		return nil, apperrors.ErrGatewayNotConfigured
	}

	// A forged signature must cause no state mutation at all.
	if err := s.gw.VerifyPaymentSignature(orderID, paymentID, signature); err != nil {
		return nil, err
	}

	// Never trust client-supplied status; ask the gateway.
	details, err := s.gw.FetchPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if details.OrderID == "" {
		details.OrderID = orderID
	}

	if details.Status == gateway.PaymentCaptured {
		return s.applyCapture(ctx, details, "verify")
	}
	return s.applyFailure(ctx, details.OrderID, details.ID)
}

// HandleWebhook authenticates the raw body, classifies the event and applies
// the same transition rules as VerifyPayment. The gateway retries on non-2xx,
// so callers return non-2xx only for ErrInvalidSignature.
func (s *ReconcileService) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	if s.gw == nil {
		return apperrors.ErrGatewayNotConfigured
	}

	ev, err := s.gw.ParseWebhook(body, signature)
	if err != nil {
		return err
	}

	switch ev.Type {
	case gateway.EventPaymentSuccess:
		details := ev.Payment
		if details == nil {
			details, err = s.gw.FetchPayment(ctx, ev.PaymentID)
			if err != nil {
				return err
			}
		}
		if details.OrderID == "" {
			details.OrderID = ev.OrderID
		}
		s.audit.SavePayload("webhook", "", ev.PaymentID, ev.Raw)
		_, err = s.applyCapture(ctx, details, "webhook")
		return err

	case gateway.EventPaymentFailed:
		s.audit.SavePayload("webhook", "", ev.PaymentID, ev.Raw)
		_, err = s.applyFailure(ctx, ev.OrderID, ev.PaymentID)
		return err

	case gateway.EventRefund:
		s.audit.SavePayload("webhook", "", ev.PaymentID, ev.Raw)
		return s.applyRefundEvent(ctx, ev)

	default:
		s.logger.Info("Ignoring webhook event", zap.String("payment_id", ev.PaymentID))
		return nil
	}
}

// CheckPaymentStatus reports the stored state for a bill id.
func (s *ReconcileService) CheckPaymentStatus(ctx context.Context, billID string) (*VerifyResult, error) {
	booking, err := s.bookings.GetByBillID(ctx, billID)
	if err == nil {
		return &VerifyResult{Kind: "booking", PaymentStatus: booking.PaymentStatus, Booking: booking}, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	order, err := s.orders.GetByBillID(ctx, billID)
	if err != nil {
		return nil, err
	}
	return &VerifyResult{Kind: "diy_order", PaymentStatus: order.PaymentStatus, Order: order}, nil
}

// applyCapture confirms a captured payment on the owning booking or DIY
// order and appends the ledger row, deduped on gateway payment id.
func (s *ReconcileService) applyCapture(ctx context.Context, details *gateway.PaymentDetails, source string) (*VerifyResult, error) {
	booking, err := s.bookings.FindByGatewayOrderID(ctx, details.OrderID)
	if err == nil {
		if err := retryStore(func() error {
			return s.bookings.MarkPaid(ctx, booking.ID, details.ID, details.Method)
		}); err != nil {
			return nil, err
		}

		inserted, err := s.recordLedger(ctx, booking.BillID, details)
		if err != nil {
			return nil, err
		}
		if inserted {
			s.publishEvent(ctx, "payment_succeeded", booking.BillID, details)
			s.audit.SavePayload(source, booking.BillID, details.ID, details.Raw)
		}

		updated, err := s.bookings.GetByID(ctx, booking.ID)
		if err != nil {
			return nil, err
		}
		s.logger.Info("Payment captured",
			zap.String("source", source),
			zap.String("bill_id", booking.BillID),
			zap.String("gateway_payment_id", details.ID),
		)
		return &VerifyResult{Kind: "booking", PaymentStatus: updated.PaymentStatus, Booking: updated}, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	order, err := s.orders.FindByGatewayOrderID(ctx, details.OrderID)
	if err != nil {
		return nil, err
	}
	if err := retryStore(func() error {
		return s.orders.MarkPaid(ctx, order.ID, details.ID, details.Method)
	}); err != nil {
		return nil, err
	}

	inserted, err := s.recordLedger(ctx, order.BillID, details)
	if err != nil {
		return nil, err
	}
	if inserted {
		s.publishEvent(ctx, "payment_succeeded", order.BillID, details)
		s.audit.SavePayload(source, order.BillID, details.ID, details.Raw)
	}

	updated, err := s.orders.GetByID(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	return &VerifyResult{Kind: "diy_order", PaymentStatus: updated.PaymentStatus, Order: updated}, nil
}

// applyFailure marks a failed attempt. The repository guard keeps paid and
// refunded rows untouched, so a late failure event cannot downgrade them.
func (s *ReconcileService) applyFailure(ctx context.Context, orderID, paymentID string) (*VerifyResult, error) {
	booking, err := s.bookings.FindByGatewayOrderID(ctx, orderID)
	if err == nil {
		if err := retryStore(func() error {
			return s.bookings.MarkFailed(ctx, booking.ID)
		}); err != nil {
			return nil, err
		}
		updated, err := s.bookings.GetByID(ctx, booking.ID)
		if err != nil {
			return nil, err
		}
		if updated.PaymentStatus == models.PaymentStatusFailed {
			s.publishEvent(ctx, "payment_failed", booking.BillID, &gateway.PaymentDetails{
				ID: paymentID, OrderID: orderID, Amount: booking.Amount, Currency: booking.Currency,
			})
		}
		return &VerifyResult{Kind: "booking", PaymentStatus: updated.PaymentStatus, Booking: updated}, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	order, err := s.orders.FindByGatewayOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := retryStore(func() error {
		return s.orders.MarkFailed(ctx, order.ID)
	}); err != nil {
		return nil, err
	}
	updated, err := s.orders.GetByID(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	return &VerifyResult{Kind: "diy_order", PaymentStatus: updated.PaymentStatus, Order: updated}, nil
}

// applyRefundEvent merges a refund webhook into the ledger aggregate and the
// owning booking's refund sub-state. DIY orders have no refund path, so a
// refund event whose owner is an order is logged and dropped.
func (s *ReconcileService) applyRefundEvent(ctx context.Context, ev *gateway.WebhookEvent) error {
	payment, applied, err := s.payments.RecordRefund(ctx, ev.PaymentID, ev.RefundID, ev.RefundAmount)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.Warn("Refund event for unknown payment",
				zap.String("gateway_payment_id", ev.PaymentID),
				zap.String("refund_id", ev.RefundID),
			)
			return nil
		}
		return err
	}

	booking, err := s.bookings.FindByGatewayOrderID(ctx, payment.GatewayOrderID)
	if errors.Is(err, apperrors.ErrNotFound) {
		s.logger.Info("Refund event for non-booking payment, skipping",
			zap.String("gateway_payment_id", ev.PaymentID),
		)
		return nil
	}
	if err != nil {
		return err
	}

	switch ev.RefundStatus {
	case gateway.RefundProcessed:
		if err := retryStore(func() error {
			return s.bookings.MarkRefundProcessed(ctx, booking.ID, time.Now())
		}); err != nil {
			return err
		}
		if applied {
			s.publishEvent(ctx, "refund_processed", booking.BillID, &gateway.PaymentDetails{
				ID: ev.PaymentID, OrderID: payment.GatewayOrderID,
				Amount: ev.RefundAmount, Currency: payment.Currency,
			})
		}
	case gateway.RefundFailed:
		if err := retryStore(func() error {
			return s.bookings.MarkRefundFailed(ctx, booking.ID)
		}); err != nil {
			return err
		}
	default:
		// refund created but not settled yet; the aggregate is already
		// recorded, nothing further to apply.
	}

	s.logger.Info("Refund event reconciled",
		zap.String("bill_id", booking.BillID),
		zap.String("refund_id", ev.RefundID),
		zap.String("refund_status", ev.RefundStatus),
		zap.Bool("applied", applied),
	)
	return nil
}

func (s *ReconcileService) recordLedger(ctx context.Context, billID string, details *gateway.PaymentDetails) (bool, error) {
	row := &models.Payment{
		BillID:           billID,
		GatewayOrderID:   details.OrderID,
		GatewayPaymentID: details.ID,
		Amount:           details.Amount,
		Currency:         details.Currency,
		Method:           details.Method,
		CardNetwork:      details.CardNetwork,
		CardLast4:        details.CardLast4,
		UPIVPA:           details.UPIVPA,
		Bank:             details.Bank,
		Wallet:           details.Wallet,
		GatewayPayload:   string(details.Raw),
	}
	var inserted bool
	err := retryStore(func() error {
		var err error
		inserted, err = s.payments.CreateIfAbsent(ctx, row)
		return err
	})
	return inserted, err
}

func (s *ReconcileService) publishEvent(ctx context.Context, eventType, billID string, details *gateway.PaymentDetails) {
	if s.events == nil {
		return
	}
	_ = s.events.SendPaymentEvent(ctx, models.PaymentEvent{
		Type:             eventType,
		BillID:           billID,
		GatewayOrderID:   details.OrderID,
		GatewayPaymentID: details.ID,
		Amount:           details.Amount,
		Currency:         details.Currency,
		Timestamp:        time.Now().UTC(),
	})
}

// retryStore retries a store write a couple of times before giving up, so a
// transient persistence hiccup does not turn a processable webhook into a
// gateway retry storm.
func retryStore(op func() error) error {
	var err error
	for attempt := 0; attempt < 3; attempt++ {
		if err = op(); err == nil {
			return nil
		}
		time.Sleep(time.Duration(attempt+1) * 100 * time.Millisecond)
	}
	return err
}
