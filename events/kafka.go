package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/girmesh03/Task-Manager-sub001/observe"
)

// KafkaConfig configures the lifecycle event forwarder.
type KafkaConfig struct {
	Brokers []string
	Topic   string
	// Service is stamped on every record so that several processes can share a topic.
	Service string
}

// MessageWriter is the subset of *kafka.Writer used by KafkaSink.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink forwards lifecycle events to a Kafka topic for alerting pipelines.
type KafkaSink struct {
	writer  MessageWriter
	service string
	logger  observe.Logger
}

// Record is the JSON document written for each event.
type Record struct {
	ID        string    `json:"id"`
	Service   string    `json:"service,omitempty"`
	Topic     string    `json:"topic"`
	Source    string    `json:"source,omitempty"`
	State     string    `json:"state,omitempty"`
	SessionID string    `json:"session_id,omitempty"`
	Cause     string    `json:"cause,omitempty"`
	Time      time.Time `json:"time"`
}

// NewKafkaSink builds an asynchronous writer so that Emit never blocks on the broker.
func NewKafkaSink(cfg KafkaConfig, logger observe.Logger) (*KafkaSink, error) {
	if len(cfg.Brokers) == 0 {
		return nil, ErrNoBrokers
	}
	if cfg.Topic == "" {
		cfg.Topic = "taskstore.lifecycle"
	}
	if logger == nil {
		logger = observe.NopLogger()
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		Async:        true,
		BatchTimeout: 100 * time.Millisecond,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Warn(context.Background(), "lifecycle event delivery failed",
					observe.Field{Key: "messages", Value: len(messages)},
					observe.Field{Key: "error", Value: err.Error()},
				)
			}
		},
	}
	return NewKafkaSinkWithWriter(w, cfg.Service, logger), nil
}

// NewKafkaSinkWithWriter wraps an existing writer.
func NewKafkaSinkWithWriter(w MessageWriter, service string, logger observe.Logger) *KafkaSink {
	if logger == nil {
		logger = observe.NopLogger()
	}
	return &KafkaSink{writer: w, service: service, logger: logger}
}

// Attach subscribes the sink to every lifecycle topic on bus.
func (s *KafkaSink) Attach(bus *Bus) (detach func()) {
	return bus.SubscribeAll(s.Handle)
}

// Handle encodes ev and hands it to the writer.
func (s *KafkaSink) Handle(ctx context.Context, ev Event) error {
	rec := Record{
		ID:        uuid.NewString(),
		Service:   s.service,
		Topic:     string(ev.Topic),
		Source:    string(ev.Source),
		State:     ev.State,
		SessionID: ev.SessionID,
		Time:      ev.Time.UTC(),
	}
	if ev.Cause != nil {
		rec.Cause = ev.Cause.Error()
	}

	value, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode lifecycle record: %w", err)
	}

	return s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(rec.Topic),
		Value: value,
		Time:  rec.Time,
	})
}

// Close flushes pending records and releases the writer.
func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
