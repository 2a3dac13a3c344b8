package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// AuditStore keeps verbatim copies of gateway payloads for audit. It is
// strictly best-effort: reconciliation never fails on an audit write.
type AuditStore struct {
	col    *mongo.Collection
	logger *zap.Logger
}

// NewAuditStore returns nil when the audit database is not configured.
func NewAuditStore(db *mongo.Database, logger *zap.Logger) *AuditStore {
	if db == nil {
		return nil
	}
	return &AuditStore{col: db.Collection("gateway_payloads"), logger: logger}
}

// SavePayload stores one raw gateway payload. kind distinguishes verify
// responses from webhook deliveries.
func (a *AuditStore) SavePayload(kind, billID, gatewayPaymentID string, payload []byte) {
	if a == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := a.col.InsertOne(ctx, bson.M{
		"kind":               kind,
		"bill_id":            billID,
		"gateway_payment_id": gatewayPaymentID,
		"payload":            string(payload),
		"received_at":        time.Now().UTC(),
	})
	if err != nil {
		a.logger.Warn("Failed to write gateway payload audit record",
			zap.String("kind", kind),
			zap.String("bill_id", billID),
			zap.Error(err),
		)
	}
}
