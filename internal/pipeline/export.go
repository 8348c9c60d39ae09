package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	sharedretry "github.com/couchcryptid/storm-data-shared/retry"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/lst-etl/internal/domain"
	"github.com/couchcryptid/lst-etl/internal/observability"
)

// RetryPolicy bounds export retries. Backoff doubles from Initial up to Max.
type RetryPolicy struct {
	MaxAttempts int
	Initial     time.Duration
	Max         time.Duration
}

// Exporter submits export jobs with retry. Each job is retried and canceled
// independently of every other job.
type Exporter struct {
	sink    ExportSink
	policy  RetryPolicy
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewExporter wraps sink with policy. A nil clock uses real time.
func NewExporter(sink ExportSink, policy RetryPolicy, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Exporter {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Exporter{sink: sink, policy: policy, clock: clock, logger: logger, metrics: metrics}
}

// Export submits job until the sink accepts it, the attempts run out or ctx
// is canceled. Exhausted retries yield ErrExportFailure wrapping the last
// sink error.
func (e *Exporter) Export(ctx context.Context, job domain.ExportJob) error {
	backoff := e.policy.Initial
	var lastErr error

	for attempt := 1; attempt <= e.policy.MaxAttempts; attempt++ {
		e.metrics.ExportAttempts.Inc()
		lastErr = e.sink.Submit(ctx, job)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if attempt == e.policy.MaxAttempts {
			break
		}

		e.logger.Warn("export submit failed, retrying",
			"description", job.Description,
			"attempt", attempt,
			"backoff", backoff,
			"error", lastErr,
		)
		if !e.sleep(ctx, backoff) {
			return ctx.Err()
		}
		backoff = sharedretry.NextBackoff(backoff, e.policy.Max)
	}

	e.metrics.ExportFailures.Inc()
	return fmt.Errorf("%s after %d attempts: %w: %w", job.Description, e.policy.MaxAttempts, domain.ErrExportFailure, lastErr)
}

func (e *Exporter) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-ctx.Done():
		return false
	case <-e.clock.After(d):
		return true
	}
}
