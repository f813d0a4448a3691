package event

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"stock_pipeline/internal/feature/currentprice/usecase"
)

type mockConsumer struct {
	received []usecase.Message
	outcome  usecase.ConsumeOutcome
}

func (m *mockConsumer) Handle(ctx context.Context, msgs ...usecase.Message) []usecase.ConsumeOutcome {
	m.received = append(m.received, msgs...)
	out := make([]usecase.ConsumeOutcome, 0, len(msgs))
	for _, msg := range msgs {
		o := m.outcome
		o.Sequence, o.HasSequence = msg.Sequence, msg.HasSequence
		out = append(out, o)
	}
	return out
}

func TestToMessage(t *testing.T) {
	t.Parallel()

	msg := ToMessage(kafka.Message{Offset: 42, Value: []byte(`{"output":[]}`)})

	assert.Equal(t, int64(42), msg.Sequence)
	assert.True(t, msg.HasSequence)
	assert.Equal(t, `{"output":[]}`, string(msg.Body))
}

func TestKafkaHandler_Handle(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)
	consumer := &mockConsumer{outcome: usecase.ConsumeOutcome{Codes: []string{"005930"}}}
	h := NewKafkaHandler(consumer, zap.New(core))

	h.Handle(context.Background(), kafka.Message{Offset: 9, Partition: 0, Value: []byte("x")})

	require.Len(t, consumer.received, 1)
	assert.Equal(t, int64(9), consumer.received[0].Sequence)

	entries := logs.FilterMessage("processed event").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(9), entries[0].ContextMap()["sequence"])
	assert.Equal(t, int64(1), entries[0].ContextMap()["codes"])
}

func TestKafkaHandler_Handle_LogsPersistError(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)
	consumer := &mockConsumer{outcome: usecase.ConsumeOutcome{PersistErr: errors.New("disk full")}}

	NewKafkaHandler(consumer, zap.New(core)).Handle(context.Background(), kafka.Message{Offset: 1})

	entries := logs.FilterMessage("processed event").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "disk full", entries[0].ContextMap()["persist_error"])
}
