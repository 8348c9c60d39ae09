package lst

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/lst-etl/internal/domain"
	"github.com/couchcryptid/lst-etl/internal/raster"
)

// SceneLoader reads every required band of one scene onto a grid aligned to
// the AOI. Loaders must return the same grid for every scene of a run.
type SceneLoader interface {
	Load(ctx context.Context, scene domain.SceneRecord, aoi domain.AreaOfInterest) (*raster.Image, error)
}

// DailyComposite is the masked median of all scenes acquired on one day,
// clipped to the AOI.
type DailyComposite struct {
	Date       time.Time
	Image      *raster.Image
	SceneCount int
}

// BuildComposite selects the scenes acquired within [date, date+1d), loads,
// normalizes and cloud-masks each of them with at most workers in flight,
// then reduces them pixel-wise by per-band median.
func BuildComposite(ctx context.Context, date time.Time, scenes []domain.SceneRecord, aoi domain.AreaOfInterest, loader SceneLoader, workers int) (DailyComposite, error) {
	day := domain.Day(date)
	selected := domain.ScenesOn(day, scenes)
	if len(selected) == 0 {
		return DailyComposite{}, fmt.Errorf("%s: %w", day.Format(domain.DateLayout), domain.ErrEmptySceneSet)
	}

	prepared := make([]*raster.Image, len(selected))
	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, scene := range selected {
		g.Go(func() error {
			img, err := prepareScene(gctx, scene, aoi, loader)
			if err != nil {
				return fmt.Errorf("scene %s: %w", scene.ID, err)
			}
			prepared[i] = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return DailyComposite{}, err
	}

	median, err := raster.MedianComposite(prepared)
	if err != nil {
		return DailyComposite{}, fmt.Errorf("median composite: %w", err)
	}
	clipped, err := median.Clip(aoi.Bound())
	if err != nil {
		return DailyComposite{}, fmt.Errorf("clip to aoi: %w", err)
	}

	return DailyComposite{Date: day, Image: clipped, SceneCount: len(selected)}, nil
}

func prepareScene(ctx context.Context, scene domain.SceneRecord, aoi domain.AreaOfInterest, loader SceneLoader) (*raster.Image, error) {
	img, err := loader.Load(ctx, scene, aoi)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateBands(img.Names()); err != nil {
		return nil, err
	}
	img, err = Normalize(img)
	if err != nil {
		return nil, err
	}
	return ApplyCloudMask(img)
}
