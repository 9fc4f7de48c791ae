// Package notifier publishes registration confirmations for delivery by the
// mail service.
package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"tramite/internal/procedure/models"
)

// Registration is the confirmation message. The mail service renders it.
type Registration struct {
	ProcedureID   int64     `json:"procedure_id"`
	Code          string    `json:"code"`
	TrackingCode  string    `json:"tracking_code,omitempty"`
	Email         string    `json:"email"`
	SenderName    string    `json:"sender_name"`
	Subject       string    `json:"subject"`
	OutOfSchedule bool      `json:"out_of_schedule"`
	RegisteredAt  time.Time `json:"registered_at"`
}

// NewRegistration builds the message for p.
func NewRegistration(p *models.Procedure, outOfSchedule bool) Registration {
	return Registration{
		ProcedureID:   int64(p.ID),
		Code:          p.Code,
		TrackingCode:  p.TrackingCode,
		Email:         p.Sender.Email,
		SenderName:    p.Sender.Name,
		Subject:       p.Subject,
		OutOfSchedule: outOfSchedule,
		RegisteredAt:  p.CreatedAt,
	}
}

// Producer is the part of *kgo.Client the notifier uses.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// Kafka publishes one record per registration, keyed by procedure code.
type Kafka struct {
	producer Producer
	topic    string
}

func NewKafka(producer Producer, topic string) *Kafka {
	return &Kafka{producer: producer, topic: topic}
}

func (k *Kafka) NotifyRegistration(ctx context.Context, p *models.Procedure, outOfSchedule bool) error {
	payload, err := json.Marshal(NewRegistration(p, outOfSchedule))
	if err != nil {
		return fmt.Errorf("marshal registration: %w", err)
	}
	record := &kgo.Record{
		Topic: k.topic,
		Key:   []byte(p.Code),
		Value: payload,
		Headers: []kgo.RecordHeader{
			{Key: "type", Value: []byte("procedure.registered")},
		},
	}
	if err := k.producer.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("publish registration %s: %w", p.Code, err)
	}
	return nil
}

// Nop drops every notification.
type Nop struct{}

func (Nop) NotifyRegistration(context.Context, *models.Procedure, bool) error { return nil }

// Recorder keeps notifications in memory. Used by tests and local runs.
type Recorder struct {
	mu   sync.Mutex
	sent []Registration
	err  error
}

// FailWith makes every later call return err.
func (r *Recorder) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

func (r *Recorder) NotifyRegistration(_ context.Context, p *models.Procedure, outOfSchedule bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, NewRegistration(p, outOfSchedule))
	return nil
}

func (r *Recorder) Sent() []Registration {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Registration, len(r.sent))
	copy(out, r.sent)
	return out
}
