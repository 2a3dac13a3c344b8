package repository

import (
	"context"
	"errors"

	"craftory-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderRepository persists DIY kit orders. Orders share the booking payment
// sub-state shape but have no refund path.
type OrderRepository interface {
	Create(ctx context.Context, order *models.DIYOrder) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.DIYOrder, error)
	GetByBillID(ctx context.Context, billID string) (*models.DIYOrder, error)
	FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.DIYOrder, error)
	ListByEmail(ctx context.Context, email string) ([]models.DIYOrder, error)
	List(ctx context.Context, limit, offset int) ([]models.DIYOrder, error)

	MarkPaid(ctx context.Context, id uuid.UUID, gatewayPaymentID, method string) error
	MarkFailed(ctx context.Context, id uuid.UUID) error
	UpdateDeliveryStatus(ctx context.Context, id uuid.UUID, status string) error
}

type gormOrderRepo struct {
	db *gorm.DB
}

func NewGormOrderRepo(db *gorm.DB) OrderRepository {
	return &gormOrderRepo{db: db}
}

func (r *gormOrderRepo) Create(ctx context.Context, order *models.DIYOrder) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *gormOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.DIYOrder, error) {
	var order models.DIYOrder
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&order).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &order, nil
}

func (r *gormOrderRepo) GetByBillID(ctx context.Context, billID string) (*models.DIYOrder, error) {
	var order models.DIYOrder
	if err := r.db.WithContext(ctx).Where("bill_id = ?", billID).First(&order).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &order, nil
}

func (r *gormOrderRepo) FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.DIYOrder, error) {
	var order models.DIYOrder
	err := r.db.WithContext(ctx).Where("gateway_order_id = ?", gatewayOrderID).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = r.db.WithContext(ctx).Where("legacy_gateway_order_id = ?", gatewayOrderID).First(&order).Error
	}
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &order, nil
}

func (r *gormOrderRepo) ListByEmail(ctx context.Context, email string) ([]models.DIYOrder, error) {
	var orders []models.DIYOrder
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		Order("created_at DESC").
		Find(&orders).Error
	return orders, err
}

func (r *gormOrderRepo) List(ctx context.Context, limit, offset int) ([]models.DIYOrder, error) {
	var orders []models.DIYOrder
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&orders).Error
	return orders, err
}

func (r *gormOrderRepo) MarkPaid(ctx context.Context, id uuid.UUID, gatewayPaymentID, method string) error {
	return r.db.WithContext(ctx).Model(&models.DIYOrder{}).
		Where("id = ?", id).
		Where("payment_status <> ?", models.PaymentStatusRefunded).
		Updates(map[string]interface{}{
			"payment_status":     models.PaymentStatusPaid,
			"gateway_payment_id": gatewayPaymentID,
			"payment_method":     method,
			"delivery_status":    models.DeliveryStatusConfirmed,
			"version":            gorm.Expr("version + 1"),
		}).Error
}

func (r *gormOrderRepo) MarkFailed(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&models.DIYOrder{}).
		Where("id = ?", id).
		Where("payment_status NOT IN ?", []string{models.PaymentStatusPaid, models.PaymentStatusRefunded}).
		Updates(map[string]interface{}{
			"payment_status": models.PaymentStatusFailed,
			"version":        gorm.Expr("version + 1"),
		}).Error
}

// UpdateDeliveryStatus is the admin-only delivery transition, independent of
// payment state.
func (r *gormOrderRepo) UpdateDeliveryStatus(ctx context.Context, id uuid.UUID, status string) error {
	return r.db.WithContext(ctx).Model(&models.DIYOrder{}).
		Where("id = ?", id).
		Update("delivery_status", status).Error
}
