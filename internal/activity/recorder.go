// Package activity publishes catalog events to the activity log topic.
// Recording is fire-and-forget: a broker outage must never abort the
// operation that produced the event.
package activity

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/nuvora/catalog-service/pkg/broker"
	"github.com/nuvora/catalog-service/pkg/logger"
)

const (
	EventProductCreated     = "product.created"
	EventProductUpdated     = "product.updated"
	EventProductDuplicated  = "product.duplicated"
	EventProductPublished   = "product.published"
	EventProductUnpublished = "product.unpublished"
	EventProductArchived    = "product.archived"
	EventProductUnarchived  = "product.unarchived"
	EventOptionsReplaced    = "product.options_replaced"
)

type Event struct {
	Type       string            `json:"type"`
	ProductID  string            `json:"product_id"`
	Title      string            `json:"title,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

type Recorder interface {
	Record(event Event)
}

type kafkaRecorder struct {
	producer *broker.KafkaProducer
	logger   logger.ZapLogger
}

func NewKafkaRecorder(producer *broker.KafkaProducer, log logger.ZapLogger) Recorder {
	return &kafkaRecorder{producer: producer, logger: log}
}

func (r *kafkaRecorder) Record(event Event) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.producer.Produce(ctx, event.ProductID, event); err != nil {
			r.logger.Warn("activity event dropped",
				zap.String("type", event.Type),
				zap.String("product_id", event.ProductID),
				zap.Error(err))
		}
	}()
}

// NopRecorder discards events; used when the broker is not configured.
type NopRecorder struct{}

func (NopRecorder) Record(Event) {}
