package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/lst-etl/internal/domain"
	"github.com/couchcryptid/lst-etl/internal/lst"
	"github.com/couchcryptid/lst-etl/internal/observability"
)

// LSTTransformer implements Transformer with the composite, emissivity and
// inversion steps of package lst.
type LSTTransformer struct {
	loader       SceneLoader
	aoi          domain.AreaOfInterest
	opts         lst.EmissivityOptions
	sceneWorkers int
	logger       *slog.Logger
	metrics      *observability.Metrics
}

// NewTransformer creates an LSTTransformer reading scenes through loader.
func NewTransformer(loader SceneLoader, aoi domain.AreaOfInterest, opts lst.EmissivityOptions, sceneWorkers int, logger *slog.Logger, metrics *observability.Metrics) *LSTTransformer {
	return &LSTTransformer{
		loader:       loader,
		aoi:          aoi,
		opts:         opts,
		sceneWorkers: sceneWorkers,
		logger:       logger,
		metrics:      metrics,
	}
}

func (t *LSTTransformer) Transform(ctx context.Context, date time.Time, scenes []domain.SceneRecord) (lst.Layer, lst.Result, error) {
	composite, err := lst.BuildComposite(ctx, date, scenes, t.aoi, t.loader, t.sceneWorkers)
	if err != nil {
		return lst.Layer{}, lst.Result{}, err
	}
	t.metrics.ScenesLoaded.Add(float64(composite.SceneCount))
	t.logger.Debug("composite built", "date", composite.Date.Format(domain.DateLayout), "scenes", composite.SceneCount)

	em, err := lst.EstimateEmissivity(composite.Image, t.aoi, t.opts)
	if err != nil {
		return lst.Layer{}, lst.Result{}, err
	}

	layer, err := lst.InvertLST(em.Image, composite.Date)
	if err != nil {
		return lst.Layer{}, lst.Result{}, err
	}

	result, err := lst.Summarize(composite, em, layer)
	if err != nil {
		return lst.Layer{}, lst.Result{}, err
	}
	return layer, result, nil
}
