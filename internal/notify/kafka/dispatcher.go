package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// DefaultTopic — топик событий автоматизации витрины.
const DefaultTopic = "storefront.automation.events"

// Envelope — формат сообщения в топике: имя события сверху, типизированная
// полезная нагрузка внутри.
type Envelope struct {
	Event        domain.EventName `json:"event"`
	TargetUserID string           `json:"target_user_id,omitempty"`
	OccurredAt   time.Time        `json:"occurred_at"`
	Payload      json.RawMessage  `json:"payload"`
}

// Dispatcher публикует события автоматизации в Kafka.
type Dispatcher struct {
	producer sarama.SyncProducer
	topic    string
	logger   *log.Entry
}

// NewDispatcher создаёт диспетчер с sync-producer поверх списка брокеров.
func NewDispatcher(brokers []string, topic string) (*Dispatcher, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Idempotent = true
	config.Net.MaxOpenRequests = 1 // требование идемпотентного продьюсера

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	if topic == "" {
		topic = DefaultTopic
	}

	return &Dispatcher{
		producer: producer,
		topic:    topic,
		logger:   log.WithField("component", "kafka-dispatcher"),
	}, nil
}

// Trigger сериализует событие в Envelope и публикует его, ключ — ID заказа,
// чтобы события одного заказа попадали в одну партицию по порядку.
func (d *Dispatcher) Trigger(_ context.Context, event domain.AutomationEvent) error {
	msg, err := buildMessage(d.topic, event)
	if err != nil {
		return err
	}

	partition, offset, err := d.producer.SendMessage(msg)
	if err != nil {
		d.logger.WithError(err).WithFields(log.Fields{
			"event":    event.Name(),
			"order_id": event.Context().OrderID,
		}).Error("failed to publish automation event")
		return fmt.Errorf("send automation event: %w", err)
	}

	d.logger.WithFields(log.Fields{
		"event":     event.Name(),
		"order_id":  event.Context().OrderID,
		"partition": partition,
		"offset":    offset,
	}).Debug("automation event published")
	return nil
}

// Close закрывает producer.
func (d *Dispatcher) Close() error {
	if err := d.producer.Close(); err != nil {
		return fmt.Errorf("close kafka producer: %w", err)
	}
	return nil
}

func buildMessage(topic string, event domain.AutomationEvent) (*sarama.ProducerMessage, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal automation event payload: %w", err)
	}

	envelope, err := json.Marshal(Envelope{
		Event:        event.Name(),
		TargetUserID: event.Context().UserID,
		OccurredAt:   time.Now().UTC(),
		Payload:      payload,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal automation event envelope: %w", err)
	}

	return &sarama.ProducerMessage{
		Topic:     topic,
		Key:       sarama.StringEncoder(event.Context().OrderID),
		Value:     sarama.ByteEncoder(envelope),
		Timestamp: time.Now(),
	}, nil
}

var _ domain.NotificationDispatcher = (*Dispatcher)(nil)
