package kafka

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

func confirmedEvent() domain.ConfirmedEvent {
	return domain.ConfirmedEvent{
		EventContext: domain.EventContext{
			OrderID:      "o1",
			OrderNumber:  "1042",
			TotalMinor:   114000,
			CustomerName: "Айгерим",
			UserID:       "user-1",
		},
		EstimatedTime: "30-40 минут",
	}
}

func TestBuildMessage_Envelope(t *testing.T) {
	msg, err := buildMessage("topic-a", confirmedEvent())
	if err != nil {
		t.Fatalf("build message: %v", err)
	}

	if msg.Topic != "topic-a" {
		t.Fatalf("expected topic topic-a, got %s", msg.Topic)
	}

	key, err := msg.Key.Encode()
	if err != nil {
		t.Fatalf("encode key: %v", err)
	}
	if string(key) != "o1" {
		t.Fatalf("message key must be the order id, got %s", key)
	}

	raw, err := msg.Value.Encode()
	if err != nil {
		t.Fatalf("encode value: %v", err)
	}

	var envelope Envelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if envelope.Event != domain.EventOrderConfirmed {
		t.Fatalf("expected event %s, got %s", domain.EventOrderConfirmed, envelope.Event)
	}
	if envelope.TargetUserID != "user-1" {
		t.Fatalf("expected target user-1, got %s", envelope.TargetUserID)
	}
	if envelope.OccurredAt.IsZero() {
		t.Fatal("occurred_at must be set")
	}

	var payload map[string]any
	if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload["order_id"] != "o1" {
		t.Fatalf("payload order_id: %v", payload["order_id"])
	}
	if payload["estimated_time"] != "30-40 минут" {
		t.Fatalf("payload estimated_time: %v", payload["estimated_time"])
	}
	if _, leaked := payload["user_id"]; leaked {
		t.Fatal("user_id must not appear in the payload, it lives in the envelope")
	}
}

func TestBuildMessage_StatusChangedPayload(t *testing.T) {
	event := domain.StatusChangedEvent{
		EventContext: domain.EventContext{OrderID: "o7", OrderNumber: "1050"},
		OldStatus:    domain.OrderStatusPreparing,
		NewStatus:    domain.OrderStatusReady,
	}

	msg, err := buildMessage(DefaultTopic, event)
	if err != nil {
		t.Fatalf("build message: %v", err)
	}

	raw, _ := msg.Value.Encode()
	var envelope Envelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if envelope.Event != domain.EventOrderStatusChanged {
		t.Fatalf("expected %s, got %s", domain.EventOrderStatusChanged, envelope.Event)
	}

	var payload struct {
		OldStatus domain.OrderStatus `json:"old_status"`
		NewStatus domain.OrderStatus `json:"new_status"`
	}
	if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.OldStatus != domain.OrderStatusPreparing || payload.NewStatus != domain.OrderStatusReady {
		t.Fatalf("unexpected transition in payload: %s -> %s", payload.OldStatus, payload.NewStatus)
	}
}

func TestDispatcher_TriggerPublishes(t *testing.T) {
	producer := mocks.NewSyncProducer(t, mocks.NewTestConfig())
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(value []byte) error {
		var envelope Envelope
		return json.Unmarshal(value, &envelope)
	})

	d := &Dispatcher{
		producer: producer,
		topic:    DefaultTopic,
		logger:   log.WithField("component", "kafka-dispatcher"),
	}

	if err := d.Trigger(context.Background(), confirmedEvent()); err != nil {
		t.Fatalf("trigger: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestDispatcher_TriggerPublishError(t *testing.T) {
	producer := mocks.NewSyncProducer(t, mocks.NewTestConfig())
	producer.ExpectSendMessageAndFail(sarama.ErrBrokerNotAvailable)

	d := &Dispatcher{
		producer: producer,
		topic:    DefaultTopic,
		logger:   log.WithField("component", "kafka-dispatcher"),
	}

	if err := d.Trigger(context.Background(), confirmedEvent()); err == nil {
		t.Fatal("expected publish error")
	}
	_ = d.Close()
}
