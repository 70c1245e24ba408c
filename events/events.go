package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"pharmacy-storefront/models"
	aws_pkg "pharmacy-storefront/pkg/aws"
)

const (
	OrderPlaced    = "order.placed"
	OrderCancelled = "order.cancelled"
)

// OrderEvent announces an order lifecycle change.
type OrderEvent struct {
	Event         string             `json:"event"`
	OrderID       string             `json:"order_id"`
	UserID        int64              `json:"user_id"`
	Status        models.OrderStatus `json:"status"`
	Items         []models.OrderItem `json:"items"`
	Total         decimal.Decimal    `json:"total"`
	PaymentMethod string             `json:"payment_method"`
	Timestamp     time.Time          `json:"timestamp"`
}

// NewOrderEvent builds an event of the given type for o.
func NewOrderEvent(event string, o *models.Order, at time.Time) OrderEvent {
	return OrderEvent{
		Event:         event,
		OrderID:       o.ID,
		UserID:        o.UserID,
		Status:        o.CurrentStatus(),
		Items:         append([]models.OrderItem(nil), o.Items...),
		Total:         o.Total,
		PaymentMethod: o.PaymentMethod,
		Timestamp:     at,
	}
}

type Publisher interface {
	PublishOrderEvent(ctx context.Context, evt OrderEvent) error
	Close() error
}

// SNSPublisher fans order events out through an SNS topic.
type SNSPublisher struct {
	client   aws_pkg.SNSPublisher
	topicArn string
	log      *zap.Logger
}

func NewSNSPublisher(client aws_pkg.SNSPublisher, topicArn string, log *zap.Logger) *SNSPublisher {
	return &SNSPublisher{client: client, topicArn: topicArn, log: log}
}

func (p *SNSPublisher) PublishOrderEvent(ctx context.Context, evt OrderEvent) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal order event: %w", err)
	}
	if err := p.client.Publish(ctx, p.topicArn, body, map[string]string{"event_type": evt.Event}); err != nil {
		return err
	}
	p.log.Debug("order event published", zap.String("event", evt.Event), zap.String("order_id", evt.OrderID), zap.String("topic", p.topicArn))
	return nil
}

func (p *SNSPublisher) Close() error { return nil }

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes order events keyed by user id so one user's events
// stay ordered within a partition.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
	log    *zap.Logger
}

func NewKafkaPublisher(brokers []string, topic string, log *zap.Logger) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}
	log.Info("kafka publisher initialized", zap.String("topic", topic), zap.Strings("brokers", brokers))
	return &KafkaPublisher{writer: w, topic: topic, log: log}
}

func (p *KafkaPublisher) PublishOrderEvent(ctx context.Context, evt OrderEvent) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal order event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(evt.UserID, 10)),
		Value: body,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(evt.Event)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka publish to %s: %w", p.topic, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Noop drops every event.
type Noop struct{}

func (Noop) PublishOrderEvent(context.Context, OrderEvent) error { return nil }
func (Noop) Close() error                                        { return nil }

// Counter is satisfied by *aws_pkg.MetricsClient.
type Counter interface {
	RecordCount(ctx context.Context, name string, dimensions map[string]string) error
}

// Metered counts order lifecycle events before handing them to the wrapped
// publisher. Metric failures never fail the publish.
type Metered struct {
	Publisher
	counter Counter
	log     *zap.Logger
}

func NewMetered(p Publisher, counter Counter, log *zap.Logger) *Metered {
	return &Metered{Publisher: p, counter: counter, log: log}
}

func (m *Metered) PublishOrderEvent(ctx context.Context, evt OrderEvent) error {
	var metric string
	switch evt.Event {
	case OrderPlaced:
		metric = aws_pkg.MetricOrdersCreated
	case OrderCancelled:
		metric = aws_pkg.MetricOrdersCancelled
	}
	if metric != "" {
		dims := map[string]string{"PaymentMethod": evt.PaymentMethod}
		if err := m.counter.RecordCount(ctx, metric, dims); err != nil {
			m.log.Warn("Failed to record order metric", zap.String("metric", metric), zap.Error(err))
		}
	}
	return m.Publisher.PublishOrderEvent(ctx, evt)
}
