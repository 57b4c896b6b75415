package events

import (
	"context"
	"strconv"
	"time"

	"transport-service/pkg/logger"
	"transport-service/prometheus"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	skafka "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Event types
const (
	ShipmentCreated         = "shipment.created"
	ShipmentStatusChanged   = "shipment.status_changed"
	DriverVehicleAssigned   = "driver.vehicle_assigned"
	DriverVehicleUnassigned = "driver.vehicle_unassigned"
)

// publishTimeout bounds how long a request waits on the broker
const publishTimeout = 3 * time.Second

// Event is the envelope written to the topic
type Event struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	TenantID   uint        `json:"tenantId"`
	OccurredAt time.Time   `json:"occurredAt"`
	Payload    interface{} `json:"payload"`
}

// Writer defines the subset of segmentio kafka.Writer we need. This makes the producer testable.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...skafka.Message) error
	Close() error
}

// Publisher sends events somewhere
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// KafkaPublisher writes events to one topic keyed by tenant, so each
// tenant's events stay ordered within a partition
type KafkaPublisher struct {
	writer Writer
}

// NewKafkaPublisher creates a publisher writing to the brokers and topic
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	w := &skafka.Writer{
		Addr:         skafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &skafka.Hash{},
		RequiredAcks: skafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
	}
	return &KafkaPublisher{writer: w}
}

// NewKafkaPublisherWithWriter allows injecting a test writer.
func NewKafkaPublisherWithWriter(w Writer) *KafkaPublisher {
	return &KafkaPublisher{writer: w}
}

// Publish marshals the event to JSON and writes it
func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	b, err := json.Marshal(event)
	if err != nil {
		return err
	}
	msg := skafka.Message{
		Key:   []byte(strconv.FormatUint(uint64(event.TenantID), 10)),
		Value: b,
		Headers: []skafka.Header{
			{Key: "type", Value: []byte(event.Type)},
		},
	}
	return p.writer.WriteMessages(ctx, msg)
}

// Close closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NoopPublisher drops events; used when no brokers are configured
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }
func (NoopPublisher) Close() error                         { return nil }

// Emitter stamps events and publishes them without ever failing the caller
type Emitter struct {
	publisher Publisher
	now       func() time.Time
}

// NewEmitter wraps a publisher
func NewEmitter(p Publisher) *Emitter {
	if p == nil {
		p = NoopPublisher{}
	}
	return &Emitter{publisher: p, now: time.Now}
}

// Emit publishes the event. Failures are logged and counted, never returned.
func (e *Emitter) Emit(ctx context.Context, eventType string, tenantID uint, payload interface{}) {
	event := Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		TenantID:   tenantID,
		OccurredAt: e.now().UTC(),
		Payload:    payload,
	}

	// the request may finish first; the publish keeps its own deadline
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	err := e.publisher.Publish(pctx, event)
	prometheus.RecordEventPublish(eventType, err)
	if err != nil {
		logger.FromCtx(ctx).Warn("Failed to publish event",
			zap.String("event_type", eventType),
			zap.String("event_id", event.ID),
			zap.Uint("tenant_id", tenantID),
			zap.Error(err))
	}
}

// Close releases the publisher
func (e *Emitter) Close() error {
	return e.publisher.Close()
}
