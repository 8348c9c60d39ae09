package pipeline_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/lst-etl/internal/domain"
	"github.com/couchcryptid/lst-etl/internal/observability"
	"github.com/couchcryptid/lst-etl/internal/pipeline"
)

type flakySink struct {
	failures int32
	calls    atomic.Int32
	err      error
}

func (s *flakySink) Submit(_ context.Context, _ domain.ExportJob) error {
	n := s.calls.Add(1)
	if n <= s.failures {
		return s.err
	}
	return nil
}

func testJob() domain.ExportJob {
	return domain.ExportJob{Description: "LST_2023-07-14", Format: domain.FormatGeoTIFF, Scale: 30}
}

func TestExporter_RetriesWithBackoff(t *testing.T) {
	fake := clockwork.NewFakeClock()
	sink := &flakySink{failures: 2, err: errors.New("quota exceeded")}
	policy := pipeline.RetryPolicy{MaxAttempts: 5, Initial: 200 * time.Millisecond, Max: 300 * time.Millisecond}
	e := pipeline.NewExporter(sink, policy, fake, discardLogger(), observability.NewMetricsForTesting())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- e.Export(ctx, testJob()) }()

	// First wait is the initial backoff, the second is capped.
	require.NoError(t, fake.BlockUntilContext(ctx, 1))
	fake.Advance(200 * time.Millisecond)
	require.NoError(t, fake.BlockUntilContext(ctx, 1))
	fake.Advance(300 * time.Millisecond)

	require.NoError(t, <-done)
	assert.Equal(t, int32(3), sink.calls.Load())
}

func TestExporter_ExhaustedRetries(t *testing.T) {
	cause := errors.New("permission denied")
	sink := &flakySink{failures: 100, err: cause}
	policy := pipeline.RetryPolicy{MaxAttempts: 3, Initial: time.Millisecond, Max: time.Millisecond}
	e := pipeline.NewExporter(sink, policy, nil, discardLogger(), observability.NewMetricsForTesting())

	err := e.Export(context.Background(), testJob())
	require.ErrorIs(t, err, domain.ErrExportFailure)
	require.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "LST_2023-07-14")
	assert.Equal(t, int32(3), sink.calls.Load())
}

func TestExporter_CanceledDuringBackoff(t *testing.T) {
	fake := clockwork.NewFakeClock()
	sink := &flakySink{failures: 100, err: errors.New("timeout")}
	policy := pipeline.RetryPolicy{MaxAttempts: 5, Initial: time.Hour, Max: time.Hour}
	e := pipeline.NewExporter(sink, policy, fake, discardLogger(), observability.NewMetricsForTesting())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Export(ctx, testJob()) }()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer waitCancel()
	require.NoError(t, fake.BlockUntilContext(waitCtx, 1))
	cancel()

	err := <-done
	require.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, domain.ErrExportFailure)
	assert.Equal(t, int32(1), sink.calls.Load())
}

func TestExporter_SingleAttempt(t *testing.T) {
	sink := &flakySink{failures: 1, err: errors.New("rejected")}
	e := pipeline.NewExporter(sink, pipeline.RetryPolicy{}, nil, discardLogger(), observability.NewMetricsForTesting())

	err := e.Export(context.Background(), testJob())
	require.ErrorIs(t, err, domain.ErrExportFailure)
	assert.Equal(t, int32(1), sink.calls.Load())
}
