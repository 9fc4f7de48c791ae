package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"tramite/internal/procedure/models"
)

type fakeProducer struct {
	records []*kgo.Record
	err     error
}

func (f *fakeProducer) ProduceSync(_ context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	f.records = append(f.records, rs...)
	out := make(kgo.ProduceResults, 0, len(rs))
	for _, r := range rs {
		out = append(out, kgo.ProduceResult{Record: r, Err: f.err})
	}
	return out
}

func procedure() *models.Procedure {
	return &models.Procedure{
		ID:           7,
		Code:         "000012-2025",
		TrackingCode: "K7PXM3",
		Subject:      "Solicitud de acceso",
		Sender:       models.Sender{Name: "Ana Quispe", Email: "ana@example.com"},
		CreatedAt:    time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
	}
}

func TestKafkaPublishesKeyedRecord(t *testing.T) {
	producer := &fakeProducer{}
	n := NewKafka(producer, "tramite.registrations")

	require.NoError(t, n.NotifyRegistration(context.Background(), procedure(), true))
	require.Len(t, producer.records, 1)

	rec := producer.records[0]
	assert.Equal(t, "tramite.registrations", rec.Topic)
	assert.Equal(t, "000012-2025", string(rec.Key))

	var msg Registration
	require.NoError(t, json.Unmarshal(rec.Value, &msg))
	assert.Equal(t, "K7PXM3", msg.TrackingCode)
	assert.Equal(t, "ana@example.com", msg.Email)
	assert.True(t, msg.OutOfSchedule)
}

func TestKafkaReturnsProduceError(t *testing.T) {
	n := NewKafka(&fakeProducer{err: errors.New("broker unavailable")}, "t")
	err := n.NotifyRegistration(context.Background(), procedure(), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "000012-2025")
}

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	require.NoError(t, r.NotifyRegistration(context.Background(), procedure(), false))
	assert.Len(t, r.Sent(), 1)

	r.FailWith(errors.New("down"))
	assert.Error(t, r.NotifyRegistration(context.Background(), procedure(), false))
	assert.Len(t, r.Sent(), 1)
}
