package lst

import (
	"errors"
	"fmt"
	"time"

	"github.com/couchcryptid/lst-etl/internal/domain"
	"github.com/couchcryptid/lst-etl/internal/raster"
)

// Result summarizes one processed date.
type Result struct {
	Date        time.Time
	SceneCount  int
	NDVIMin     float64
	NDVIMax     float64
	LSTMin      float64
	LSTMax      float64
	LSTMean     float64
	ValidPixels int
}

// Summarize reduces an LST layer to its min, max and mean over valid pixels.
// A layer without valid pixels is ErrDegenerateStatistics.
func Summarize(c DailyComposite, e Emissivity, l Layer) (Result, error) {
	r := Result{
		Date:       l.Date,
		SceneCount: c.SceneCount,
		NDVIMin:    e.NDVIMin,
		NDVIMax:    e.NDVIMax,
	}
	for _, s := range []struct {
		reducer raster.Reducer
		dst     *float64
	}{
		{raster.ReduceMin, &r.LSTMin},
		{raster.ReduceMax, &r.LSTMax},
		{raster.ReduceMean, &r.LSTMean},
	} {
		stat, err := raster.Reduce(l.Image, domain.BandLST, s.reducer, raster.ReduceOptions{})
		if errors.Is(err, raster.ErrNoValidPixels) {
			return Result{}, fmt.Errorf("summarize lst: %w: %w", domain.ErrDegenerateStatistics, err)
		}
		if err != nil {
			return Result{}, err
		}
		*s.dst = stat.Value
		r.ValidPixels = stat.Count
	}
	return r, nil
}
