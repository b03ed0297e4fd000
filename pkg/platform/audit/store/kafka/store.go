// Package kafka streams audit events to a Kafka topic. Kafka is the durable
// record; this store only serializes and produces.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "bloodledger/pkg/platform/audit"
)

// Producer is the subset of *kgo.Client the store needs.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// Store implements audit.Store by producing one record per event, keyed by
// donation id so a unit's trail stays ordered within its partition.
type Store struct {
	producer Producer
	topic    string
}

func New(producer Producer, topic string) *Store {
	return &Store{producer: producer, topic: topic}
}

// payload is the JSON published to the topic. Field names are the wire contract
// for downstream consumers.
type payload struct {
	ID         string `json:"id"`
	Category   string `json:"category"`
	Timestamp  string `json:"timestamp"`
	LedgerTime uint64 `json:"ledger_time"`
	DonationID uint64 `json:"donation_id"`
	Subject    string `json:"subject,omitempty"`
	Action     string `json:"action"`
	Detail     string `json:"detail,omitempty"`
	RequestID  string `json:"request_id,omitempty"`
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	body, err := json.Marshal(payload{
		ID:         event.ID.String(),
		Category:   string(event.Category),
		Timestamp:  event.Timestamp.UTC().Format(time.RFC3339Nano),
		LedgerTime: event.LedgerTime,
		DonationID: event.DonationID,
		Subject:    event.Subject,
		Action:     event.Action,
		Detail:     event.Detail,
		RequestID:  event.RequestID,
	})
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(strconv.FormatUint(event.DonationID, 10)),
		Value: body,
		Headers: []kgo.RecordHeader{
			{Key: "category", Value: []byte(event.Category)},
		},
	}
	if err := s.producer.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

// Decode turns a record produced by Append back into an event. Consumers use it
// to materialize the topic.
func Decode(record *kgo.Record) (audit.Event, error) {
	var p payload
	if err := json.Unmarshal(record.Value, &p); err != nil {
		return audit.Event{}, fmt.Errorf("unmarshal audit event: %w", err)
	}
	id, err := uuid.Parse(p.ID)
	if err != nil {
		return audit.Event{}, fmt.Errorf("parse audit event id: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, p.Timestamp)
	if err != nil {
		return audit.Event{}, fmt.Errorf("parse audit timestamp: %w", err)
	}
	category := audit.EventCategory(p.Category)
	if category == "" {
		category = audit.AuditEvent(p.Action).Category()
	}
	return audit.Event{
		ID:         id,
		Category:   category,
		Timestamp:  ts,
		LedgerTime: p.LedgerTime,
		DonationID: p.DonationID,
		Subject:    p.Subject,
		Action:     p.Action,
		Detail:     p.Detail,
		RequestID:  p.RequestID,
	}, nil
}
