// Package kafka publishes audit events to a Kafka topic with franz-go.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"typeindex/internal/audit"
)

// payload is the JSON published per event. Field names are stable wire names.
type payload struct {
	ID         string `json:"id"`
	Category   string `json:"category"`
	Timestamp  string `json:"timestamp"`
	WebID      string `json:"webid"`
	Action     string `json:"action"`
	IndexURI   string `json:"index_uri,omitempty"`
	Class      string `json:"class,omitempty"`
	Location   string `json:"location,omitempty"`
	Visibility string `json:"visibility,omitempty"`
	RequestID  string `json:"request_id,omitempty"`
	Detail     string `json:"detail,omitempty"`
}

// Producer is the subset of *kgo.Client the publisher needs.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// Publisher implements audit.Sink by producing one record per event, keyed by
// WebID so a profile's events stay ordered within a partition.
type Publisher struct {
	producer Producer
	topic    string
}

func NewPublisher(producer Producer, topic string) (*Publisher, error) {
	if producer == nil {
		return nil, errors.New("kafka producer is required")
	}
	if topic == "" {
		return nil, errors.New("kafka topic is required")
	}
	return &Publisher{producer: producer, topic: topic}, nil
}

func (p *Publisher) Publish(ctx context.Context, event audit.Event) error {
	value, err := Encode(event)
	if err != nil {
		return err
	}
	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.WebID),
		Value: value,
	}
	if err := p.producer.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

// Encode renders an event as the JSON record value.
func Encode(event audit.Event) ([]byte, error) {
	b, err := json.Marshal(payload{
		ID:         event.ID,
		Category:   string(event.Category),
		Timestamp:  event.Timestamp.UTC().Format(time.RFC3339Nano),
		WebID:      event.WebID,
		Action:     event.Action,
		IndexURI:   event.IndexURI,
		Class:      event.Class,
		Location:   event.Location,
		Visibility: event.Visibility,
		RequestID:  event.RequestID,
		Detail:     event.Detail,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal audit payload: %w", err)
	}
	return b, nil
}

// Decode parses a record value produced by Encode.
func Decode(value []byte) (audit.Event, error) {
	var p payload
	if err := json.Unmarshal(value, &p); err != nil {
		return audit.Event{}, fmt.Errorf("unmarshal audit payload: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, p.Timestamp)
	if err != nil {
		return audit.Event{}, fmt.Errorf("parse audit timestamp: %w", err)
	}
	return audit.Event{
		ID:         p.ID,
		Category:   audit.EventCategory(p.Category),
		Timestamp:  ts,
		WebID:      p.WebID,
		Action:     p.Action,
		IndexURI:   p.IndexURI,
		Class:      p.Class,
		Location:   p.Location,
		Visibility: p.Visibility,
		RequestID:  p.RequestID,
		Detail:     p.Detail,
	}, nil
}

// NewClient connects a franz-go client producing to topic by default.
func NewClient(brokers []string, topic, clientID string) (*kgo.Client, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	opts := []kgo.Opt{
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	}
	if clientID != "" {
		opts = append(opts, kgo.ClientID(clientID))
	}
	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return client, nil
}

// EnsureTopic creates topic if it does not exist yet.
func EnsureTopic(ctx context.Context, client *kgo.Client, topic string, partitions int32, replication int16) error {
	adm := kadm.NewClient(client)
	resp, err := adm.CreateTopics(ctx, partitions, replication, nil, topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", topic, err)
	}
	for _, r := range resp {
		if r.Err != nil && !errors.Is(r.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", r.Topic, r.Err)
		}
	}
	return nil
}
