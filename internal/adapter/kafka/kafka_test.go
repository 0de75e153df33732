package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/roster-geo-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	failures int
	calls    int
	written  []kafkago.Message
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	f.calls++
	if f.calls <= f.failures {
		return errors.New("leader not available")
	}
	f.written = append(f.written, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testSummary() domain.RunSummary {
	return domain.RunSummary{
		Mode:          domain.ModeResidence,
		Total:         2,
		ResolvedCount: 1,
		Buckets: []domain.LocationBucket{
			{Key: "downtown-la", DisplayName: "Downtown LA", Lat: 34.0407, Lon: -118.2468, Count: 1},
		},
		GeneratedAt: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
	}
}

func TestSerializeToMessage(t *testing.T) {
	summary := testSummary()

	msg, err := serializeToMessage(summary)
	require.NoError(t, err)

	assert.Equal(t, []byte("residence"), msg.Key)
	assert.Contains(t, string(msg.Value), `"resolved_count":1`)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "mode", msg.Headers[0].Key)
	assert.Equal(t, []byte("residence"), msg.Headers[0].Value)
	assert.Equal(t, "generated_at", msg.Headers[1].Key)
	assert.Equal(t, []byte("2026-03-14T09:30:00Z"), msg.Headers[1].Value)

	var decoded domain.RunSummary
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, summary.Buckets, decoded.Buckets)
}

func TestWriter_LoadRetriesTransientFailure(t *testing.T) {
	fw := &fakeWriter{failures: 1}
	w := &Writer{writer: fw, topic: "summaries", logger: discardLogger()}

	require.NoError(t, w.Load(context.Background(), testSummary()))
	assert.Equal(t, 2, fw.calls)
	assert.Len(t, fw.written, 1)
	assert.Equal(t, "kafka", w.Name())
}

func TestWriter_LoadGivesUp(t *testing.T) {
	fw := &fakeWriter{failures: maxAttempts}
	w := &Writer{writer: fw, topic: "summaries", logger: discardLogger()}

	err := w.Load(context.Background(), testSummary())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "summaries")
	assert.Equal(t, maxAttempts, fw.calls)
	assert.Empty(t, fw.written)
}

func TestWriter_LoadStopsOnCancel(t *testing.T) {
	fw := &fakeWriter{failures: maxAttempts}
	w := &Writer{writer: fw, topic: "summaries", logger: discardLogger()}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := w.Load(ctx, testSummary())
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, fw.calls)
}

func TestWriter_CheckReadinessWithoutBrokers(t *testing.T) {
	w := &Writer{writer: &fakeWriter{}, logger: discardLogger()}
	require.Error(t, w.CheckReadiness(context.Background()))
}
