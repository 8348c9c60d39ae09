package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gammazero/workerpool"

	"github.com/couchcryptid/lst-etl/internal/domain"
	"github.com/couchcryptid/lst-etl/internal/lst"
	"github.com/couchcryptid/lst-etl/internal/observability"
	"github.com/couchcryptid/lst-etl/internal/raster"
)

// Catalog lists the scenes intersecting the AOI within a date range.
type Catalog interface {
	Scenes(ctx context.Context, aoi domain.AreaOfInterest, dates domain.DateRange, collection string) ([]domain.SceneRecord, error)
}

// SceneLoader reads one scene onto a grid aligned to the AOI.
type SceneLoader interface {
	Load(ctx context.Context, scene domain.SceneRecord, aoi domain.AreaOfInterest) (*raster.Image, error)
}

// ExportSink persists one export job.
type ExportSink interface {
	Submit(ctx context.Context, job domain.ExportJob) error
}

// DisplaySink renders a layer for inspection. It never affects results.
type DisplaySink interface {
	Show(ctx context.Context, img *raster.Image, vis domain.VisParams, layer string) error
}

// Transformer turns the scenes of one date into an LST layer.
type Transformer interface {
	Transform(ctx context.Context, date time.Time, scenes []domain.SceneRecord) (lst.Layer, lst.Result, error)
}

// Options holds the run parameters threaded into every date.
type Options struct {
	AOI        domain.AreaOfInterest
	Range      domain.DateRange
	Collection string
	Folder     string
	Scale      float64

	Workers      int
	DateAttempts int

	// Dates overrides the dates derived from the catalog.
	Dates []time.Time

	// OnDate is called once per date when it finally succeeds or fails.
	OnDate func(date time.Time, err error)
}

// Pipeline runs the per-date LST chain over every acquisition date.
type Pipeline struct {
	catalog     Catalog
	transformer Transformer
	exporter    *Exporter
	display     DisplaySink
	logger      *slog.Logger
	metrics     *observability.Metrics
	opts        Options
	ready       atomic.Bool
}

// New creates a Pipeline. display may be nil.
func New(c Catalog, t Transformer, e *Exporter, display DisplaySink, logger *slog.Logger, metrics *observability.Metrics, opts Options) *Pipeline {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.DateAttempts < 1 {
		opts.DateAttempts = 1
	}
	return &Pipeline{
		catalog:     c,
		transformer: t,
		exporter:    e,
		display:     display,
		logger:      logger,
		metrics:     metrics,
		opts:        opts,
	}
}

// CheckReadiness returns nil once at least one date has been exported.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not exported any date yet")
	}
	return nil
}

// Run queries the catalog and processes every date. A failed date never
// aborts the batch; it is recorded in the report. The returned error is
// non-nil only when the catalog query itself fails.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	scenes, err := p.catalog.Scenes(ctx, p.opts.AOI, p.opts.Range, p.opts.Collection)
	if err != nil {
		return nil, fmt.Errorf("query catalog: %w", err)
	}

	dates := p.opts.Dates
	if len(dates) == 0 {
		dates = domain.DistinctDates(scenes)
	}
	p.logger.Info("pipeline started",
		"aoi", p.opts.AOI.String(),
		"range", p.opts.Range.String(),
		"scenes", len(scenes),
		"dates", len(dates),
		"workers", p.opts.Workers,
	)

	report := &Report{Dates: len(dates)}
	pending := dates
	for attempt := 1; attempt <= p.opts.DateAttempts && len(pending) > 0; attempt++ {
		if attempt > 1 {
			p.logger.Info("retrying failed dates", "attempt", attempt, "dates", len(pending))
		}
		outcomes := p.runPass(ctx, pending, scenes)

		pending = pending[:0:0]
		for _, o := range outcomes {
			switch {
			case o.err == nil:
				report.Succeeded = append(report.Succeeded, o.result)
				p.finish(o.date, nil)
			case retryable(o.err) && attempt < p.opts.DateAttempts && ctx.Err() == nil:
				pending = append(pending, o.date)
			default:
				report.Failed = append(report.Failed, DateFailure{Date: o.date, Err: o.err})
				p.metrics.DatesFailed.WithLabelValues(domain.ErrorKind(o.err)).Inc()
				p.finish(o.date, o.err)
			}
		}
	}

	report.sort()
	p.logger.Info("pipeline finished",
		"succeeded", len(report.Succeeded),
		"failed", len(report.Failed),
	)
	return report, nil
}

type outcome struct {
	date   time.Time
	result lst.Result
	err    error
}

// runPass processes dates on a bounded worker pool. Dates not yet started
// when ctx is canceled are reported with the context error.
func (p *Pipeline) runPass(ctx context.Context, dates []time.Time, scenes []domain.SceneRecord) []outcome {
	var (
		mu       sync.Mutex
		outcomes = make([]outcome, 0, len(dates))
	)
	record := func(o outcome) {
		mu.Lock()
		outcomes = append(outcomes, o)
		mu.Unlock()
	}

	wp := workerpool.New(p.opts.Workers)
	for _, date := range dates {
		if ctx.Err() != nil {
			record(outcome{date: date, err: ctx.Err()})
			continue
		}
		wp.Submit(func() {
			if err := ctx.Err(); err != nil {
				record(outcome{date: date, err: err})
				return
			}
			result, err := p.processDate(ctx, date, scenes)
			record(outcome{date: date, result: result, err: err})
		})
	}
	wp.StopWait()

	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].date.Before(outcomes[j].date) })
	return outcomes
}

// processDate builds, inverts and exports the LST layer for one date.
func (p *Pipeline) processDate(ctx context.Context, date time.Time, scenes []domain.SceneRecord) (lst.Result, error) {
	start := time.Now()
	day := date.Format(domain.DateLayout)

	layer, result, err := p.transformer.Transform(ctx, date, scenes)
	if err != nil {
		p.logDateError(day, "transform failed", err)
		return lst.Result{}, err
	}

	job := domain.NewExportJob(layer.Image, layer.Date, p.opts.Folder, p.opts.Scale, p.opts.AOI, result.SceneCount)

	if p.display != nil {
		if err := p.display.Show(ctx, layer.Image, domain.DefaultVisParams, job.Description); err != nil {
			p.logger.Warn("display failed", "date", day, "layer", job.Description, "error", err)
		}
	}

	if err := p.exporter.Export(ctx, job); err != nil {
		p.logDateError(day, "export failed", err)
		return lst.Result{}, err
	}

	p.metrics.DatesProcessed.Inc()
	p.metrics.ValidPixels.Observe(float64(result.ValidPixels))
	p.metrics.DateDuration.Observe(time.Since(start).Seconds())
	p.ready.Store(true)

	p.logger.Info("date exported",
		"date", day,
		"description", job.Description,
		"scenes", result.SceneCount,
		"ndvi_min", result.NDVIMin,
		"ndvi_max", result.NDVIMax,
		"lst_mean", result.LSTMean,
		"valid_pixels", result.ValidPixels,
	)
	return result, nil
}

func (p *Pipeline) logDateError(day, msg string, err error) {
	if domain.IsDomainError(err) {
		p.logger.Warn(msg+", skipping date", "date", day, "kind", domain.ErrorKind(err), "error", err)
		return
	}
	p.logger.Error(msg, "date", day, "kind", domain.ErrorKind(err), "error", err)
}

func (p *Pipeline) finish(date time.Time, err error) {
	if p.opts.OnDate != nil {
		p.opts.OnDate(date, err)
	}
}

// retryable reports whether another pass may succeed. Domain errors are
// deterministic and export failures were already retried.
func retryable(err error) bool {
	if domain.IsDomainError(err) || errors.Is(err, domain.ErrExportFailure) {
		return false
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}
