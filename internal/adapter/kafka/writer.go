package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/roster-geo-etl/internal/config"
	"github.com/couchcryptid/roster-geo-etl/internal/domain"
	"github.com/couchcryptid/storm-data-shared/retry"
	kafkago "github.com/segmentio/kafka-go"
)

const (
	maxAttempts    = 3
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 2 * time.Second
)

// messageWriter is the part of kafkago.Writer the sink uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes run summaries to a Kafka topic.
// It implements pipeline.SummaryLoader.
type Writer struct {
	writer  messageWriter
	brokers []string
	topic   string
	logger  *slog.Logger
}

// NewWriter creates a Kafka producer for the configured summary topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaSummaryTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{
		writer:  w,
		brokers: cfg.KafkaBrokers,
		topic:   cfg.KafkaSummaryTopic,
		logger:  logger,
	}
}

func (w *Writer) Name() string { return "kafka" }

// Load serializes the summary and publishes it, retrying transient failures
// with exponential backoff.
func (w *Writer) Load(ctx context.Context, summary domain.RunSummary) error {
	msg, err := serializeToMessage(summary)
	if err != nil {
		return err
	}

	backoff := initialBackoff
	for attempt := 1; ; attempt++ {
		err = w.writer.WriteMessages(ctx, msg)
		if err == nil {
			w.logger.Info("summary published", "topic", w.topic, "mode", summary.Mode, "total", summary.Total)
			return nil
		}
		if ctx.Err() != nil {
			return fmt.Errorf("publish summary to %s: %w", w.topic, errors.Join(err, ctx.Err()))
		}
		if attempt == maxAttempts {
			return fmt.Errorf("publish summary to %s: %w", w.topic, err)
		}
		w.logger.Warn("publish summary failed, retrying", "error", err, "attempt", attempt, "backoff", backoff)
		if !retry.SleepWithContext(ctx, backoff) {
			return fmt.Errorf("publish summary to %s: %w", w.topic, errors.Join(err, ctx.Err()))
		}
		backoff = retry.NextBackoff(backoff, maxBackoff)
	}
}

// CheckReadiness dials the first reachable broker.
func (w *Writer) CheckReadiness(ctx context.Context) error {
	var errs []error
	for _, b := range w.brokers {
		conn, err := kafkago.DialContext(ctx, "tcp", b)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		return conn.Close()
	}
	if len(errs) == 0 {
		return errors.New("no kafka brokers configured")
	}
	return errors.Join(errs...)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a RunSummary into a Kafka message keyed by mode,
// so summaries of one mode stay ordered on one partition.
func serializeToMessage(summary domain.RunSummary) (kafkago.Message, error) {
	data, err := json.Marshal(summary)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize run summary: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(summary.Mode),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "mode", Value: []byte(summary.Mode)},
			{Key: "generated_at", Value: []byte(summary.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}
