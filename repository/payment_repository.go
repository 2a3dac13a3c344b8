package repository

import (
	"context"
	"encoding/json"
	"errors"

	"craftory-backend/apperrors"
	"craftory-backend/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PaymentRepository owns the payment ledger. Rows are append/update only and
// deduped on the gateway payment id, which is what makes verifier/webhook
// races safe to replay.
type PaymentRepository interface {
	// CreateIfAbsent inserts the ledger row unless one already exists for the
	// same gateway payment id. Returns true when a row was inserted.
	CreateIfAbsent(ctx context.Context, payment *models.Payment) (bool, error)
	GetByGatewayPaymentID(ctx context.Context, gatewayPaymentID string) (*models.Payment, error)
	GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.Payment, error)

	// RecordRefund merges one refund into the ledger aggregate. It is
	// idempotent on refund id and rejects totals that would exceed the
	// captured amount. Returns the updated row and whether anything changed.
	RecordRefund(ctx context.Context, gatewayPaymentID, refundID string, amount int64) (*models.Payment, bool, error)
}

type gormPaymentRepo struct {
	db *gorm.DB
}

func NewGormPaymentRepo(db *gorm.DB) PaymentRepository {
	return &gormPaymentRepo{db: db}
}

func (r *gormPaymentRepo) CreateIfAbsent(ctx context.Context, payment *models.Payment) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "gateway_payment_id"}},
			DoNothing: true,
		}).
		Create(payment)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *gormPaymentRepo) GetByGatewayPaymentID(ctx context.Context, gatewayPaymentID string) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).Where("gateway_payment_id = ?", gatewayPaymentID).First(&payment).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &payment, nil
}

func (r *gormPaymentRepo) GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).Where("gateway_order_id = ?", gatewayOrderID).First(&payment).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &payment, nil
}

func (r *gormPaymentRepo) RecordRefund(ctx context.Context, gatewayPaymentID, refundID string, amount int64) (*models.Payment, bool, error) {
	// Compare-and-set on the aggregate: re-read and retry once if a
	// concurrent webhook advanced it between the read and the update.
	for attempt := 0; attempt < 2; attempt++ {
		payment, err := r.GetByGatewayPaymentID(ctx, gatewayPaymentID)
		if err != nil {
			return nil, false, err
		}

		ids := decodeRefundIDs(payment.RefundIDs)
		for _, id := range ids {
			if id == refundID {
				return payment, false, nil // replayed event
			}
		}

		newTotal := payment.RefundedAmount + amount
		if newTotal > payment.Amount {
			return nil, false, apperrors.ErrRefundExceedsBalance
		}

		status := models.LedgerRefundPartial
		if newTotal >= payment.Amount {
			status = models.LedgerRefundFull
		}
		encoded, err := json.Marshal(append(ids, refundID))
		if err != nil {
			return nil, false, err
		}

		res := r.db.WithContext(ctx).Model(&models.Payment{}).
			Where("gateway_payment_id = ?", gatewayPaymentID).
			Where("refunded_amount = ?", payment.RefundedAmount).
			Updates(map[string]interface{}{
				"refunded_amount": newTotal,
				"refund_ids":      string(encoded),
				"refund_status":   status,
			})
		if res.Error != nil {
			return nil, false, res.Error
		}
		if res.RowsAffected > 0 {
			payment.RefundedAmount = newTotal
			payment.RefundIDs = string(encoded)
			payment.RefundStatus = status
			return payment, true, nil
		}
	}
	return nil, false, errors.New("refund aggregate contention, giving up")
}

func decodeRefundIDs(raw string) []string {
	if raw == "" {
		return nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil
	}
	return ids
}
