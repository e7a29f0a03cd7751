package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/kevin07696/settlement-service/internal/domain"
	"github.com/kevin07696/settlement-service/pkg/timeutil"
)

// publishBatchTimeout bounds how long a write waits for more messages. Each
// callback publishes one event, so the writer flushes almost at once.
const publishBatchTimeout = 10 * time.Millisecond

// DefaultTopic receives every transaction event unless a per-type topic is configured
const DefaultTopic = "settlement.transaction-events"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher mirrors transaction events to Kafka, keyed by order id so one
// order's events stay ordered within a partition.
type KafkaPublisher struct {
	writer       messageWriter
	topicByEvent map[domain.EventType]string
	defaultTopic string
}

// NewKafkaPublisher creates a publisher writing to brokers
func NewKafkaPublisher(brokers []string, defaultTopic string, topicByEvent map[domain.EventType]string) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka publisher requires at least one broker")
	}
	if defaultTopic == "" {
		defaultTopic = DefaultTopic
	}
	return newKafkaPublisher(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		RequiredAcks: kafka.RequireAll,
		Balancer:     &kafka.Hash{},
		BatchSize:    1,
		BatchTimeout: publishBatchTimeout,
	}, defaultTopic, topicByEvent), nil
}

func newKafkaPublisher(w messageWriter, defaultTopic string, topicByEvent map[domain.EventType]string) *KafkaPublisher {
	return &KafkaPublisher{writer: w, topicByEvent: topicByEvent, defaultTopic: defaultTopic}
}

// Publish writes event with the order summary the outbound webhooks carry
func (p *KafkaPublisher) Publish(ctx context.Context, event *domain.TransactionEvent, order *domain.Order) error {
	payload, err := json.Marshal(domain.OutboundPayload{
		ID:        event.ID,
		Type:      event.Type,
		CreatedAt: event.CreatedAt,
		Data:      domain.SummarizeOrder(order),
	})
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", event.ID, err)
	}

	topic := p.defaultTopic
	if mapped, ok := p.topicByEvent[event.Type]; ok && mapped != "" {
		topic = mapped
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(event.OrderID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "event_id", Value: []byte(event.ID)},
		},
		Time: timeutil.Now(),
	})
	if err != nil {
		return fmt.Errorf("publish event %s to %s: %w", event.ID, topic, err)
	}
	return nil
}

// Close flushes and closes the writer
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
