package kafka

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/couchcryptid/air-quality-etl/internal/domain"
	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	batches [][]kafkago.Message
	err     error
	closed  bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if f.err != nil {
		return f.err
	}
	f.batches = append(f.batches, msgs)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func record(city string, day int, pm25 float64) domain.CleanRecord {
	v := domain.MissingValues()
	v[domain.PM25] = pm25
	return domain.CleanRecord{
		City:   city,
		Date:   time.Date(2024, time.January, day, 0, 0, 0, 0, time.UTC),
		Values: v,
		AQI:    pm25,
	}
}

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC)
	rec := record("Dhaka", 5, 88.5)
	rec.Values[domain.NO2] = math.NaN()

	msg, err := serializeToMessage(rec, now)
	require.NoError(t, err)

	assert.Equal(t, []byte("Dhaka|2024-01-05"), msg.Key)
	assert.JSONEq(t, `{"city":"Dhaka","date":"2024-01-05","pm25":88.5,"AQI":88.5}`, string(msg.Value))
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "city", msg.Headers[0].Key)
	assert.Equal(t, []byte("Dhaka"), msg.Headers[0].Value)
	assert.Equal(t, "processed_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[1].Value)
}

func TestWriter_Load_Batches(t *testing.T) {
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)))
	t.Cleanup(func() { domain.SetClock(nil) })

	fake := &fakeWriter{}
	w := &Writer{writer: fake, logger: slog.New(slog.NewTextHandler(io.Discard, nil)), batchSize: 2}

	ds := domain.CleanDataset{Fields: []domain.Field{domain.PM25}}
	for i := 1; i <= 5; i++ {
		ds.Records = append(ds.Records, record(fmt.Sprintf("City%d", i), i, float64(i)))
	}

	require.NoError(t, w.Load(context.Background(), ds))
	require.Len(t, fake.batches, 3)
	assert.Len(t, fake.batches[0], 2)
	assert.Len(t, fake.batches[2], 1)
	assert.Equal(t, []byte("City5|2024-01-05"), fake.batches[2][0].Key)
	assert.Equal(t, []byte("2024-06-01T00:00:00Z"), fake.batches[2][0].Headers[1].Value)

	require.NoError(t, w.Close())
	assert.True(t, fake.closed)
	assert.Equal(t, "kafka", w.Name())
}

func TestWriter_Load_Empty(t *testing.T) {
	fake := &fakeWriter{}
	w := &Writer{writer: fake, logger: slog.New(slog.NewTextHandler(io.Discard, nil)), batchSize: 2}
	require.NoError(t, w.Load(context.Background(), domain.CleanDataset{}))
	assert.Empty(t, fake.batches)
}

func TestWriter_Load_Error(t *testing.T) {
	broker := errors.New("broker unavailable")
	fake := &fakeWriter{err: broker}
	w := &Writer{writer: fake, logger: slog.New(slog.NewTextHandler(io.Discard, nil)), batchSize: 10}

	err := w.Load(context.Background(), domain.CleanDataset{Records: []domain.CleanRecord{record("A", 1, 1)}})
	require.ErrorIs(t, err, broker)
}
