package lst

import (
	"errors"
	"fmt"
	"math"

	"github.com/couchcryptid/lst-etl/internal/domain"
	"github.com/couchcryptid/lst-etl/internal/raster"
)

// Emissivity mapping em = fv*EmissivitySlope + EmissivityBase.
const (
	EmissivitySlope = 0.004
	EmissivityBase  = 0.986
)

// NDVIBounds pins the NDVI range used to scale the fraction of vegetation.
// The zero value means the range is reduced from each date's composite.
type NDVIBounds struct {
	Fixed bool
	Min   float64
	Max   float64
}

// EmissivityOptions controls the AOI-wide NDVI reductions.
type EmissivityOptions struct {
	Scale     float64 // sampling distance in meters
	MaxPixels int
	Bounds    NDVIBounds
}

// Emissivity is a composite extended with NDVI, FV and EM bands, plus the
// NDVI range that scaled FV.
type Emissivity struct {
	Image   *raster.Image
	NDVIMin float64
	NDVIMax float64
}

// NDVI computes (NIR - Red) / (NIR + Red). Pixels where the denominator is
// zero are no-data.
func NDVI(img *raster.Image) (*raster.Band, error) {
	nir, err := img.Band(domain.BandNIR)
	if err != nil {
		return nil, fmt.Errorf("ndvi: %w", domain.ErrMissingBand)
	}
	red, err := img.Band(domain.BandRed)
	if err != nil {
		return nil, fmt.Errorf("ndvi: %w", domain.ErrMissingBand)
	}
	return raster.Combine(nir, red, func(n, r float64) (float64, bool) {
		sum := n + r
		if sum == 0 {
			return 0, false
		}
		return (n - r) / sum, true
	})
}

// FractionOfVegetation returns ((ndvi-lo)/(hi-lo))^2 clamped to [0, 1].
// Callers must ensure hi > lo.
func FractionOfVegetation(ndvi, lo, hi float64) float64 {
	x := (ndvi - lo) / (hi - lo)
	x = math.Max(0, math.Min(1, x))
	return x * x
}

// EmissivityFromFV maps a fraction of vegetation to surface emissivity.
func EmissivityFromFV(fv float64) float64 {
	return fv*EmissivitySlope + EmissivityBase
}

// EstimateEmissivity derives per-pixel emissivity from the vegetation
// fraction. The NDVI range is reduced over the AOI at opts.Scale unless
// opts.Bounds pins it. An empty valid set or a flat NDVI range yields
// ErrDegenerateStatistics.
func EstimateEmissivity(img *raster.Image, aoi domain.AreaOfInterest, opts EmissivityOptions) (Emissivity, error) {
	ndvi, err := NDVI(img)
	if err != nil {
		return Emissivity{}, err
	}
	withNDVI, err := img.WithBands(map[raster.BandName]*raster.Band{domain.BandNDVI: ndvi})
	if err != nil {
		return Emissivity{}, err
	}

	lo, hi, err := ndviRange(withNDVI, aoi, opts)
	if err != nil {
		return Emissivity{}, err
	}
	if !(hi > lo) {
		return Emissivity{}, fmt.Errorf("ndvi range [%v, %v] is flat: %w", lo, hi, domain.ErrDegenerateStatistics)
	}

	fv := raster.Map(ndvi, func(v float64) (float64, bool) {
		return FractionOfVegetation(v, lo, hi), true
	})
	em := raster.Map(fv, func(v float64) (float64, bool) {
		return EmissivityFromFV(v), true
	})

	out, err := withNDVI.WithBands(map[raster.BandName]*raster.Band{
		domain.BandFV: fv,
		domain.BandEM: em,
	})
	if err != nil {
		return Emissivity{}, err
	}
	return Emissivity{Image: out, NDVIMin: lo, NDVIMax: hi}, nil
}

func ndviRange(img *raster.Image, aoi domain.AreaOfInterest, opts EmissivityOptions) (float64, float64, error) {
	if opts.Bounds.Fixed {
		return opts.Bounds.Min, opts.Bounds.Max, nil
	}
	region := aoi.Bound()
	ro := raster.ReduceOptions{Region: &region, Scale: opts.Scale, MaxPixels: opts.MaxPixels}

	lo, err := raster.Reduce(img, domain.BandNDVI, raster.ReduceMin, ro)
	if err != nil {
		return 0, 0, statsError(err)
	}
	hi, err := raster.Reduce(img, domain.BandNDVI, raster.ReduceMax, ro)
	if err != nil {
		return 0, 0, statsError(err)
	}
	return lo.Value, hi.Value, nil
}

func statsError(err error) error {
	if errors.Is(err, raster.ErrNoValidPixels) {
		return fmt.Errorf("%w: %w", domain.ErrDegenerateStatistics, err)
	}
	return err
}
