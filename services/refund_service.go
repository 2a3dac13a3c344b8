package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"craftory-backend/apperrors"
	"craftory-backend/gateway"
	"craftory-backend/kafka"
	"craftory-backend/models"
	"craftory-backend/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RefundService orchestrates booking cancellation: precondition checks,
// refundable-remainder computation and the gateway refund itself. Full
// refunds only; partial cancellation is not supported at this layer.
type RefundService struct {
	bookings repository.BookingRepository
	payments repository.PaymentRepository
	gw       gateway.PaymentGateway
	events   *kafka.PaymentEventProducer
	logger   *zap.Logger
}

func NewRefundService(
	bookings repository.BookingRepository,
	payments repository.PaymentRepository,
	gw gateway.PaymentGateway,
	events *kafka.PaymentEventProducer,
	logger *zap.Logger,
) *RefundService {
	return &RefundService{
		bookings: bookings,
		payments: payments,
		gw:       gw,
		events:   events,
		logger:   logger,
	}
}

// CancelBooking validates refundability, issues a gateway refund for the
// remaining balance and records the cancellation. Returns the updated
// booking for receipt generation.
func (s *RefundService) CancelBooking(ctx context.Context, id uuid.UUID, reason string) (*models.Booking, error) {
	if s.gw == nil {
		return nil, apperrors.ErrGatewayNotConfigured
	}

	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.Status == models.BookingStatusCancelled {
		return nil, apperrors.ErrAlreadyCancelled
	}
	if booking.PaymentStatus != models.PaymentStatusPaid {
		return nil, apperrors.ErrNotRefundable
	}

	paymentID := booking.GatewayPaymentID
	ledger, ledgerErr := s.paymentRow(ctx, booking)
	if paymentID == "" && ledger != nil {
		paymentID = ledger.GatewayPaymentID
	}
	if paymentID == "" {
		return nil, apperrors.ErrNotRefundable
	}

	remainder := s.refundableRemainder(ctx, booking, ledger, ledgerErr, paymentID)
	if remainder <= 0 {
		return nil, apperrors.ErrNothingToRefund
	}

	refundID := NewRefundID()
	gwRefund, err := s.gw.CreateRefund(ctx, paymentID, remainder, refundID, reason)
	if err != nil {
		if isExceedsBalance(err) {
			// Usually a prior partial refund the local ledger has not seen yet.
			return nil, apperrors.ErrRefundExceedsBalance
		}
		return nil, err
	}

	now := time.Now()
	applied, err := s.bookings.MarkCancelled(ctx, id, refundID, remainder, reason, now)
	if err != nil {
		// The refund is already issued; the cancelled status is not rolled
		// back on later errors. An operator reconciles manually.
		s.logger.Error("Refund issued but cancellation write failed",
			zap.String("bill_id", booking.BillID),
			zap.String("refund_id", refundID),
			zap.Error(err),
		)
		return nil, err
	}
	if !applied {
		return nil, apperrors.ErrAlreadyCancelled
	}

	// Ledger aggregate keyed by the gateway's refund id, so the refund
	// webhook that follows dedupes against this write.
	if _, _, err := s.payments.RecordRefund(ctx, paymentID, gwRefund.ID, remainder); err != nil &&
		!errors.Is(err, apperrors.ErrNotFound) {
		s.logger.Warn("Failed to update ledger refund aggregate",
			zap.String("bill_id", booking.BillID),
			zap.String("refund_id", gwRefund.ID),
			zap.Error(err),
		)
	}

	if s.events != nil {
		_ = s.events.SendPaymentEvent(ctx, models.PaymentEvent{
			Type:             "refund_initiated",
			BillID:           booking.BillID,
			GatewayOrderID:   booking.GatewayOrderID,
			GatewayPaymentID: paymentID,
			Amount:           remainder,
			Currency:         booking.Currency,
			Timestamp:        now.UTC(),
		})
	}

	s.logger.Info("Booking cancelled, refund initiated",
		zap.String("bill_id", booking.BillID),
		zap.String("refund_id", refundID),
		zap.Int64("amount", remainder),
	)

	return s.bookings.GetByID(ctx, id)
}

// refundableRemainder computes captured-minus-refunded. The gateway's live
// refund history is ground truth; the local ledger and finally the booking's
// own amount are fallbacks for when the gateway view is unavailable.
func (s *RefundService) refundableRemainder(ctx context.Context, booking *models.Booking, ledger *models.Payment, ledgerErr error, paymentID string) int64 {
	captured := booking.Amount
	if ledger != nil && ledger.Amount > 0 {
		captured = ledger.Amount
	}

	refunds, err := s.gw.ListRefunds(ctx, paymentID)
	if err == nil {
		var refunded int64
		for _, r := range refunds {
			if r.Status != "failed" {
				refunded += r.Amount
			}
		}
		return captured - refunded
	}
	s.logger.Warn("Gateway refund history unavailable, falling back to ledger",
		zap.String("gateway_payment_id", paymentID),
		zap.Error(err),
	)

	if ledger != nil {
		return ledger.Amount - ledger.RefundedAmount
	}
	if ledgerErr != nil && !errors.Is(ledgerErr, apperrors.ErrNotFound) {
		s.logger.Warn("Payment ledger unavailable, falling back to booking amount",
			zap.String("bill_id", booking.BillID),
			zap.Error(ledgerErr),
		)
	}
	return booking.Amount - booking.RefundAmount
}

func (s *RefundService) paymentRow(ctx context.Context, booking *models.Booking) (*models.Payment, error) {
	if booking.GatewayPaymentID != "" {
		return ignoreNotFound(s.payments.GetByGatewayPaymentID(ctx, booking.GatewayPaymentID))
	}
	return ignoreNotFound(s.payments.GetByGatewayOrderID(ctx, booking.GatewayOrderID))
}

func ignoreNotFound(p *models.Payment, err error) (*models.Payment, error) {
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, nil
	}
	return p, err
}

// isExceedsBalance matches gateway wordings for a refund larger than the
// remaining captured amount.
func isExceedsBalance(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "exceed") ||
		strings.Contains(msg, "greater than the") ||
		strings.Contains(msg, "fully refunded")
}
