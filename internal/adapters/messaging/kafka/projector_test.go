package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"pos-payment-system/internal/core/domain"
)

type fakeSink struct {
	batches [][]domain.Transaction
	err     error
}

func (f *fakeSink) InsertTransactions(_ context.Context, txs []domain.Transaction) error {
	if f.err != nil {
		return f.err
	}
	f.batches = append(f.batches, txs)
	return nil
}

func eventRecord(t *testing.T, tx domain.Transaction) *kgo.Record {
	t.Helper()
	payload, err := json.Marshal(NewTransactionEvent(tx))
	require.NoError(t, err)
	return &kgo.Record{
		Topic:   "transactions.accepted",
		Value:   payload,
		Headers: []kgo.RecordHeader{{Key: HeaderEventType, Value: []byte(EventTypeTransactionAccepted)}},
	}
}

func TestProjector_HandleBatch(t *testing.T) {
	sink := &fakeSink{}
	dlq := &fakeProducer{}
	p := newProjector(sink, dlq, "transactions.accepted.dlq", slog.Default())

	tx := sampleTx(t)
	bad := &kgo.Record{Topic: "transactions.accepted", Partition: 2, Offset: 17, Value: []byte("{not json")}
	other := &kgo.Record{Value: []byte("{}"), Headers: []kgo.RecordHeader{{Key: HeaderEventType, Value: []byte("Other")}}}

	require.NoError(t, p.HandleBatch(context.Background(), []*kgo.Record{eventRecord(t, tx), bad, other}))

	require.Len(t, sink.batches, 1)
	require.Len(t, sink.batches[0], 1)
	assert.True(t, sink.batches[0][0].Equal(tx))
	assert.Equal(t, "102.00", sink.batches[0][0].FinalPrice.String())

	require.Eventually(t, func() bool {
		dlq.mu.Lock()
		defer dlq.mu.Unlock()
		return len(dlq.records) == 1
	}, time.Second, 10*time.Millisecond)
	sent := dlq.records[0]
	assert.Equal(t, "transactions.accepted.dlq", sent.Topic)
	assert.Equal(t, ErrorTypeDecode, Header(sent.Headers, HeaderErrorType))
	assert.Equal(t, "17", Header(sent.Headers, HeaderOriginalOffset))
	assert.Equal(t, "2", Header(sent.Headers, HeaderOriginalPartition))
}

func TestProjector_SinkFailureIsReturned(t *testing.T) {
	sink := &fakeSink{err: errors.New("clickhouse down")}
	p := newProjector(sink, &fakeProducer{}, "dlq", slog.Default())

	err := p.HandleBatch(context.Background(), []*kgo.Record{eventRecord(t, sampleTx(t))})
	assert.ErrorContains(t, err, "clickhouse down")
}

func TestProjector_EmptyBatchSkipsSink(t *testing.T) {
	sink := &fakeSink{err: errors.New("must not be called")}
	p := newProjector(sink, &fakeProducer{}, "dlq", slog.Default())
	assert.NoError(t, p.HandleBatch(context.Background(), nil))
}
