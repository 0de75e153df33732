//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	csvadapter "github.com/couchcryptid/roster-geo-etl/internal/adapter/csv"
	"github.com/couchcryptid/roster-geo-etl/internal/adapter/kafka"
	"github.com/couchcryptid/roster-geo-etl/internal/config"
	"github.com/couchcryptid/roster-geo-etl/internal/domain"
	"github.com/couchcryptid/roster-geo-etl/internal/gazetteer"
	"github.com/couchcryptid/roster-geo-etl/internal/observability"
	"github.com/couchcryptid/roster-geo-etl/internal/pipeline"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

const testSummaryTopic = "test-summaries"

const roster = `Name,JET Prefecture,Address
Ann,Nagano,"123 Main St, Los Angeles CA 90012"
Ben,Hyogo Pref.兵庫県,"2 B St, Phoenix AZ 85004"
Cat,Tokyo Metropolitan Government東京都,Unknown location
Dan,N/A,"1 Broadway, New York NY 10001"
`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("roster-geo-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// TestSummaryPublishedToKafka runs both roster modes over the same CSV with the
// Kafka sink attached and reads the summaries back from the topic.
func TestSummaryPublishedToKafka(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSummaryTopic)

	cfg := &config.Config{
		KafkaEnabled:      true,
		KafkaBrokers:      []string{broker},
		KafkaSummaryTopic: testSummaryTopic,
	}
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })
	require.NoError(t, writer.CheckReadiness(ctx))

	jp, err := gazetteer.JapanPrefectures()
	require.NoError(t, err)
	us, err := gazetteer.USPostal()
	require.NoError(t, err)

	metrics := observability.NewMetricsForTesting()
	placement := pipeline.New(domain.ModePlacement,
		domain.NewPlacementResolver(domain.NewNormalizer(jp)),
		domain.SummaryOptions{}, discardLogger(), metrics, writer)
	residence := pipeline.New(domain.ModeResidence,
		domain.NewResidenceResolver(domain.NewAddressParser(us), domain.NewPostalResolver(us)),
		domain.SummaryOptions{}, discardLogger(), metrics, writer)

	for _, p := range []*pipeline.Pipeline{placement, residence} {
		src, err := csvadapter.NewReader(strings.NewReader(roster), discardLogger())
		require.NoError(t, err)
		_, err = p.Run(ctx, src, pipeline.Limits{})
		require.NoError(t, err, "run %s", p.Mode())
	}

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSummaryTopic,
		GroupID:     fmt.Sprintf("test-summaries-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	got := make(map[string]domain.RunSummary)
	for len(got) < 2 {
		readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
		msg, err := consumer.ReadMessage(readCtx)
		readCancel()
		require.NoError(t, err, "read from summary topic")

		headers := make(map[string]string, len(msg.Headers))
		for _, h := range msg.Headers {
			headers[h.Key] = string(h.Value)
		}
		assert.Equal(t, string(msg.Key), headers["mode"])
		_, err = time.Parse(time.RFC3339, headers["generated_at"])
		assert.NoError(t, err, "generated_at should be valid RFC3339")

		var s domain.RunSummary
		require.NoError(t, json.Unmarshal(msg.Value, &s))
		got[string(msg.Key)] = s
	}

	p := got["placement"]
	assert.Equal(t, 4, p.Total)
	assert.Equal(t, 3, p.ResolvedCount)
	assert.Len(t, p.Buckets, 3)

	r := got["residence"]
	assert.Equal(t, 4, r.Total)
	assert.Equal(t, 2, r.ResolvedCount)
	assert.Equal(t, 3, r.CategorizedCount)
}
