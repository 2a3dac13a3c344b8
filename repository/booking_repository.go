package repository

import (
	"context"
	"errors"
	"time"

	"craftory-backend/apperrors"
	"craftory-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BookingRepository is the persistence boundary for bookings. State
// transitions are conditional updates so that racing verifier/webhook writes
// stay monotonic: paid and refunded are never downgraded to failed.
type BookingRepository interface {
	Create(ctx context.Context, booking *models.Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	GetByBillID(ctx context.Context, billID string) (*models.Booking, error)
	// FindByGatewayOrderID checks the current provider's order-id column
	// first, then the legacy column, so in-flight orders survive a provider
	// migration.
	FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.Booking, error)
	ListActiveForDate(ctx context.Context, date string) ([]models.Booking, error)
	ListByEmail(ctx context.Context, email string) ([]models.Booking, error)
	List(ctx context.Context, limit, offset int) ([]models.Booking, error)

	MarkPaid(ctx context.Context, id uuid.UUID, gatewayPaymentID, method string) error
	MarkFailed(ctx context.Context, id uuid.UUID) error
	MarkCancelled(ctx context.Context, id uuid.UUID, refundID string, amount int64, reason string, at time.Time) (bool, error)
	MarkRefundProcessed(ctx context.Context, id uuid.UUID, at time.Time) error
	MarkRefundFailed(ctx context.Context, id uuid.UUID) error
	Reschedule(ctx context.Context, id uuid.UUID, newDate, newSlot string, balanceAmount int64, balanceOrderID string) error
}

type gormBookingRepo struct {
	db *gorm.DB
}

func NewGormBookingRepo(db *gorm.DB) BookingRepository {
	return &gormBookingRepo{db: db}
}

func (r *gormBookingRepo) Create(ctx context.Context, booking *models.Booking) error {
	return r.db.WithContext(ctx).Create(booking).Error
}

func (r *gormBookingRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&booking).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &booking, nil
}

func (r *gormBookingRepo) GetByBillID(ctx context.Context, billID string) (*models.Booking, error) {
	var booking models.Booking
	if err := r.db.WithContext(ctx).Where("bill_id = ?", billID).First(&booking).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &booking, nil
}

func (r *gormBookingRepo) FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.WithContext(ctx).Where("gateway_order_id = ?", gatewayOrderID).First(&booking).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = r.db.WithContext(ctx).Where("legacy_gateway_order_id = ?", gatewayOrderID).First(&booking).Error
	}
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &booking, nil
}

func (r *gormBookingRepo) ListActiveForDate(ctx context.Context, date string) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.WithContext(ctx).
		Where("date = ?", date).
		Where("status IN ?", []string{models.BookingStatusPending, models.BookingStatusConfirmed}).
		Where("payment_status <> ?", models.PaymentStatusRefunded).
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *gormBookingRepo) ListByEmail(ctx context.Context, email string) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		Order("created_at DESC").
		Find(&bookings).Error
	return bookings, err
}

func (r *gormBookingRepo) List(ctx context.Context, limit, offset int) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&bookings).Error
	return bookings, err
}

// MarkPaid confirms a booking. The refunded guard keeps a late success event
// from resurrecting a refunded booking; re-marking an already-paid booking is
// an idempotent rewrite of the same values.
func (r *gormBookingRepo) MarkPaid(ctx context.Context, id uuid.UUID, gatewayPaymentID, method string) error {
	return r.db.WithContext(ctx).Model(&models.Booking{}).
		Where("id = ?", id).
		Where("payment_status <> ?", models.PaymentStatusRefunded).
		Updates(map[string]interface{}{
			"payment_status":     models.PaymentStatusPaid,
			"status":             models.BookingStatusConfirmed,
			"gateway_payment_id": gatewayPaymentID,
			"payment_method":     method,
			"version":            gorm.Expr("version + 1"),
		}).Error
}

// MarkFailed records a failed attempt. Failure is retryable, so the booking
// reverts to pending rather than cancelled; paid/refunded rows are untouched.
func (r *gormBookingRepo) MarkFailed(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&models.Booking{}).
		Where("id = ?", id).
		Where("payment_status NOT IN ?", []string{models.PaymentStatusPaid, models.PaymentStatusRefunded}).
		Updates(map[string]interface{}{
			"payment_status": models.PaymentStatusFailed,
			"status":         models.BookingStatusPending,
			"version":        gorm.Expr("version + 1"),
		}).Error
}

// MarkCancelled flips a booking to cancelled with refund bookkeeping. Returns
// false when the booking was already cancelled by a concurrent request.
func (r *gormBookingRepo) MarkCancelled(ctx context.Context, id uuid.UUID, refundID string, amount int64, reason string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Booking{}).
		Where("id = ?", id).
		Where("status <> ?", models.BookingStatusCancelled).
		Updates(map[string]interface{}{
			"status":              models.BookingStatusCancelled,
			"refund_id":           refundID,
			"refund_status":       models.RefundStatusInitiated,
			"refund_amount":       amount,
			"refund_reason":       reason,
			"refund_initiated_at": at,
			"version":             gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *gormBookingRepo) MarkRefundProcessed(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.Booking{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"payment_status":      models.PaymentStatusRefunded,
			"refund_status":       models.RefundStatusProcessed,
			"refund_processed_at": at,
			"version":             gorm.Expr("version + 1"),
		}).Error
}

func (r *gormBookingRepo) MarkRefundFailed(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&models.Booking{}).
		Where("id = ?", id).
		Where("refund_status <> ?", models.RefundStatusProcessed).
		Updates(map[string]interface{}{
			"refund_status": models.RefundStatusFailed,
			"version":       gorm.Expr("version + 1"),
		}).Error
}

func (r *gormBookingRepo) Reschedule(ctx context.Context, id uuid.UUID, newDate, newSlot string, balanceAmount int64, balanceOrderID string) error {
	return r.db.WithContext(ctx).Model(&models.Booking{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"original_date":            gorm.Expr("COALESCE(NULLIF(original_date, ''), date)"),
			"original_time_slot":       gorm.Expr("COALESCE(NULLIF(original_time_slot, ''), time_slot)"),
			"date":                     newDate,
			"time_slot":                newSlot,
			"balance_amount":           balanceAmount,
			"balance_gateway_order_id": balanceOrderID,
			"version":                  gorm.Expr("version + 1"),
		}).Error
}

func wrapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrNotFound
	}
	return err
}
