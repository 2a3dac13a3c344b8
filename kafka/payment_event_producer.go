package kafka

import (
	"context"
	"encoding/json"

	"craftory-backend/models"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// PaymentEventProducer publishes payment/refund events, keyed by gateway
// order id so per-order ordering survives partitioning. Publishing is
// best-effort: reconciliation never fails because Kafka is down.
type PaymentEventProducer struct {
	writer *kafka.Writer
	logger *zap.Logger
}

// NewPaymentEventProducer returns nil when no brokers are configured; callers
// treat a nil producer as events disabled.
func NewPaymentEventProducer(brokers []string, topic string, logger *zap.Logger) *PaymentEventProducer {
	if len(brokers) == 0 || brokers[0] == "" {
		logger.Info("Kafka brokers not configured, payment events disabled")
		return nil
	}

	w := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}
	logger.Info("Kafka payment event producer initialized",
		zap.String("topic", topic),
		zap.Strings("brokers", brokers),
	)
	return &PaymentEventProducer{writer: w, logger: logger}
}

func (p *PaymentEventProducer) SendPaymentEvent(ctx context.Context, event models.PaymentEvent) error {
	if p == nil {
		return nil
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(event.GatewayOrderID),
		Value: data,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to send payment event",
			zap.String("event_type", event.Type),
			zap.Error(err),
		)
		return err
	}

	p.logger.Info("Payment event published",
		zap.String("event_type", event.Type),
		zap.String("bill_id", event.BillID),
	)
	return nil
}

func (p *PaymentEventProducer) Close() {
	if p == nil {
		return
	}
	_ = p.writer.Close()
	p.logger.Info("Kafka producer closed")
}
