package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/lst-etl/internal/domain"
	"github.com/couchcryptid/lst-etl/internal/observability"
)

type recordingSink struct {
	err  error
	jobs []string
}

func (s *recordingSink) Submit(_ context.Context, job domain.ExportJob) error {
	if s.err != nil {
		return s.err
	}
	s.jobs = append(s.jobs, job.Description)
	return nil
}

type memWriter struct {
	err    error
	msgs   []kafkago.Message
	closed bool
}

func (w *memWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *memWriter) Close() error {
	w.closed = true
	return nil
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

var submittedAt = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func testJob(t *testing.T) domain.ExportJob {
	t.Helper()
	aoi, err := domain.NewAreaOfInterest(-99.1332, 19.4326, 20000)
	require.NoError(t, err)
	return domain.NewExportJob(nil, time.Date(2023, 7, 14, 0, 0, 0, 0, time.UTC), "exports", 30, aoi, 2)
}

func newTestPublisher(sink ExportSink, w MessageWriter) (*Publisher, *observability.Metrics) {
	m := observability.NewMetricsForTesting()
	p := NewPublisher(sink, w, func(j domain.ExportJob) string { return j.Folder + "/" + j.Description + ".tif" },
		clockwork.NewFakeClockAt(submittedAt), slog.New(slog.NewTextHandler(io.Discard, nil)), m)
	return p, m
}

func TestPublisher_Submit(t *testing.T) {
	sink := &recordingSink{}
	w := &memWriter{}
	p, m := newTestPublisher(sink, w)
	job := testJob(t)

	require.NoError(t, p.Submit(context.Background(), job))

	assert.Equal(t, []string{"LST_2023-07-14"}, sink.jobs)
	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, []byte("LST_2023-07-14"), msg.Key)

	var ev ExportEvent
	require.NoError(t, json.Unmarshal(msg.Value, &ev))
	assert.Equal(t, "LST_2023-07-14", ev.Description)
	assert.Equal(t, "2023-07-14", ev.Date)
	assert.Equal(t, "exports/LST_2023-07-14.tif", ev.Path)
	assert.Equal(t, "GeoTIFF", ev.Format)
	assert.InDelta(t, 30.0, ev.Scale, 1e-9)
	assert.Equal(t, 2, ev.SceneCount)
	assert.Equal(t, job.Region.BBox(), ev.BBox)
	assert.Equal(t, submittedAt, ev.SubmittedAt)
	assert.InDelta(t, 1.0, counterValue(t, m.ExportEvents.WithLabelValues("success")), 1e-9)
}

func TestPublisher_SinkErrorSkipsPublish(t *testing.T) {
	sinkErr := errors.New("disk full")
	w := &memWriter{}
	p, m := newTestPublisher(&recordingSink{err: sinkErr}, w)

	err := p.Submit(context.Background(), testJob(t))
	require.ErrorIs(t, err, sinkErr)
	assert.Empty(t, w.msgs)
	assert.InDelta(t, 0.0, counterValue(t, m.ExportEvents.WithLabelValues("error")), 1e-9)
}

func TestPublisher_WriteError(t *testing.T) {
	writeErr := errors.New("broker unavailable")
	p, m := newTestPublisher(&recordingSink{}, &memWriter{err: writeErr})

	err := p.Submit(context.Background(), testJob(t))
	require.ErrorIs(t, err, writeErr)
	assert.Contains(t, err.Error(), "LST_2023-07-14")
	assert.InDelta(t, 1.0, counterValue(t, m.ExportEvents.WithLabelValues("error")), 1e-9)
}

func TestPublisher_Close(t *testing.T) {
	w := &memWriter{}
	p, _ := newTestPublisher(&recordingSink{}, w)
	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestSerializeToMessage(t *testing.T) {
	ev := ExportEvent{
		Description: "LST_2023-07-14",
		Date:        "2023-07-14",
		Format:      "GeoTIFF",
		SubmittedAt: submittedAt,
	}

	msg, err := serializeToMessage(ev)
	require.NoError(t, err)

	assert.Equal(t, []byte("LST_2023-07-14"), msg.Key)
	assert.Contains(t, string(msg.Value), `"description":"LST_2023-07-14"`)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "format", msg.Headers[0].Key)
	assert.Equal(t, []byte("GeoTIFF"), msg.Headers[0].Value)
	assert.Equal(t, "submitted_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(submittedAt.Format(time.RFC3339)), msg.Headers[1].Value)
}
