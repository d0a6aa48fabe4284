//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/air-quality-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/air-quality-etl/internal/adapter/kafka"
	"github.com/couchcryptid/air-quality-etl/internal/config"
	"github.com/couchcryptid/air-quality-etl/internal/domain"
	"github.com/couchcryptid/air-quality-etl/internal/observability"
	"github.com/couchcryptid/air-quality-etl/internal/pipeline"
)

const testTopic = "test-clean-records"

const rawCSV = `city,date,temp_max,humidity_max,wind_speed,pm25,pm10
New Delhi,2025-01-01 06:00:00,25,60,5,200,300
New Delhi,2025-01-01 18:00:00,27,62,6,220,310
New Delhi,2025-01-02,26,61,4,180,290
Thimphu,2025-01-01,12,55,3,20,30
Thimphu,2025-01-02,13,,3,22,31
Thimphu,2025-01-03,14,57,not-a-number,21,33
Lhasa,2025-01-01,5,30,8,15,20
`

// publishedRecord is a deserialized message read from the clean topic.
type publishedRecord struct {
	Fields  map[string]any
	Key     string
	Headers map[string]string
}

func readPublished(ctx context.Context, t *testing.T, consumer *kafkago.Reader) publishedRecord {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from clean topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var fields map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &fields), "unmarshal clean record")
	return publishedRecord{Fields: fields, Key: string(msg.Key), Headers: headers}
}

func newConsumer(t *testing.T, broker string) *kafkago.Reader {
	t.Helper()
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })
	return consumer
}

// TestKafkaWriter verifies that kafka.Writer publishes a clean record with its
// key, headers and JSON body.
func TestKafkaWriter(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	cfg := &config.Config{KafkaBrokers: []string{broker}, KafkaTopic: testTopic}
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	var v domain.Values
	for i := range v {
		v[i] = math.NaN()
	}
	v[domain.PM25] = 42.5
	v[domain.TempMax] = 30
	rec := domain.CleanRecord{
		City:   "Dhaka",
		Date:   time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		Values: v,
		AQI:    42.5,
	}
	require.NoError(t, writer.Load(ctx, domain.CleanDataset{
		Fields:  []domain.Field{domain.TempMax, domain.PM25},
		Records: []domain.CleanRecord{rec},
	}))

	got := readPublished(ctx, t, newConsumer(t, broker))
	assert.Equal(t, "Dhaka|2025-01-01", got.Key)
	assert.Equal(t, "Dhaka", got.Headers["city"])
	_, err := time.Parse(time.RFC3339, got.Headers["processed_at"])
	assert.NoError(t, err, "processed_at should be valid RFC3339")

	assert.Equal(t, "Dhaka", got.Fields["city"])
	assert.Equal(t, "2025-01-01", got.Fields["date"])
	assert.InDelta(t, 42.5, got.Fields["pm25"], 1e-9)
	assert.InDelta(t, 42.5, got.Fields["AQI"], 1e-9)
	assert.NotContains(t, got.Fields, "pm10", "missing values are omitted")
}

// TestPipelineEndToEnd runs the CSV source through the normalizer into both
// the clean CSV and the Kafka topic.
func TestPipelineEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "raw.csv", []byte(rawCSV), 0o644))

	cfg := &config.Config{KafkaBrokers: []string{broker}, KafkaTopic: testTopic}
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	logger := discardLogger()
	source := csvfile.NewSource(csvfile.NewReader(fs, logger), "raw.csv")
	transformer := pipeline.NewNormalizer(domain.NormalizeOptions{Scale: domain.DefaultScaleFactors()}, logger)
	metrics := observability.NewMetricsForTesting()

	p := pipeline.New(source, transformer,
		[]pipeline.Loader{csvfile.NewWriter(fs, "clean.csv"), writer},
		logger, metrics)

	report, err := p.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, report.RowsRead)
	assert.Equal(t, 1, report.DroppedMissing)
	assert.Equal(t, []string{"Lhasa"}, report.UnscaledCities)
	require.Equal(t, 5, report.Records)

	consumer := newConsumer(t, broker)
	byKey := make(map[string]publishedRecord, report.Records)
	for len(byKey) < report.Records {
		pr := readPublished(ctx, t, consumer)
		byKey[pr.Key] = pr
	}

	delhi, ok := byKey["New Delhi|2025-01-01"]
	require.True(t, ok)
	assert.InDelta(t, 210*1.3, delhi.Fields["pm25"], 1e-9)
	assert.InDelta(t, 210*1.3, delhi.Fields["AQI"], 1e-9)

	thimphu, ok := byKey["Thimphu|2025-01-03"]
	require.True(t, ok)
	assert.NotContains(t, thimphu.Fields, "wind_speed")
	assert.InDelta(t, 20.5*0.5, thimphu.Fields["pm25"], 1e-9)

	clean, _, err := csvfile.NewReader(fs, logger).ReadClean(ctx, "clean.csv")
	require.NoError(t, err)
	assert.Len(t, clean.Records, report.Records)
}
