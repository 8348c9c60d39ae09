package lst

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/lst-etl/internal/domain"
	"github.com/couchcryptid/lst-etl/internal/raster"
)

func defaultOptions() EmissivityOptions {
	return EmissivityOptions{Scale: 30, MaxPixels: 1e9}
}

func reflectanceImage(t *testing.T, g raster.Grid, nir, red []float64) *raster.Image {
	t.Helper()
	img, err := raster.New(g, map[raster.BandName]*raster.Band{
		domain.BandNIR: raster.BandFromValues(nir),
		domain.BandRed: raster.BandFromValues(red),
	})
	require.NoError(t, err)
	return img
}

func TestFractionOfVegetation_Bounds(t *testing.T) {
	assert.Equal(t, 0.0, FractionOfVegetation(-0.1, -0.1, 0.7))
	assert.Equal(t, 1.0, FractionOfVegetation(0.7, -0.1, 0.7))
	assert.Equal(t, 0.0, FractionOfVegetation(-0.5, -0.1, 0.7), "clamped below")
	assert.Equal(t, 1.0, FractionOfVegetation(0.9, -0.1, 0.7), "clamped above")
}

func TestFractionOfVegetation_RandomRange(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 10000; i++ {
		lo := rng.Float64()*2 - 1
		hi := lo + rng.Float64()*(1-lo) + 1e-9
		a := lo + rng.Float64()*(hi-lo)
		b := lo + rng.Float64()*(hi-lo)
		if a > b {
			a, b = b, a
		}

		fa := FractionOfVegetation(a, lo, hi)
		fb := FractionOfVegetation(b, lo, hi)
		require.GreaterOrEqual(t, fa, 0.0)
		require.LessOrEqual(t, fb, 1.0)
		require.LessOrEqual(t, fa, fb, "fv must be non-decreasing in ndvi")
	}
}

func TestEmissivityFromFV_Range(t *testing.T) {
	assert.InDelta(t, 0.986, EmissivityFromFV(0), 1e-15)
	assert.InDelta(t, 0.990, EmissivityFromFV(1), 1e-15)
	for fv := 0.0; fv <= 1.0; fv += 0.01 {
		em := EmissivityFromFV(fv)
		assert.GreaterOrEqual(t, em, 0.986)
		assert.LessOrEqual(t, em, 0.990+1e-15)
	}
}

func TestNDVI_ZeroDenominatorIsNoData(t *testing.T) {
	g := testGrid(t, 3, 1)
	img := reflectanceImage(t, g, []float64{0.3, 0, 0.2}, []float64{0.1, 0, 0.2})

	ndvi, err := NDVI(img)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, true}, ndvi.Valid)
	assert.InDelta(t, 0.5, ndvi.Values[0], 1e-12)
	assert.Equal(t, 0.0, ndvi.Values[2])
}

func TestEstimateEmissivity_PerDateRange(t *testing.T) {
	g := testGrid(t, 2, 2)
	// NDVI: 0.5, 0, -0.5, 0.25
	img := reflectanceImage(t, g,
		[]float64{0.3, 0.2, 0.1, 0.5},
		[]float64{0.1, 0.2, 0.3, 0.3},
	)

	out, err := EstimateEmissivity(img, testAOI(t), defaultOptions())
	require.NoError(t, err)
	assert.InDelta(t, -0.5, out.NDVIMin, 1e-12)
	assert.InDelta(t, 0.5, out.NDVIMax, 1e-12)

	for _, name := range []raster.BandName{domain.BandNDVI, domain.BandFV, domain.BandEM, domain.BandNIR, domain.BandRed} {
		assert.True(t, out.Image.Has(name), "missing %s", name)
	}

	fv, err := out.Image.Band(domain.BandFV)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, fv.Values[0], 1e-12)
	assert.InDelta(t, 0.25, fv.Values[1], 1e-12)
	assert.InDelta(t, 0.0, fv.Values[2], 1e-12)

	em, err := out.Image.Band(domain.BandEM)
	require.NoError(t, err)
	assert.InDelta(t, 0.990, em.Values[0], 1e-12)
	assert.InDelta(t, 0.986, em.Values[2], 1e-12)
}

func TestEstimateEmissivity_UniformRasterIsDegenerate(t *testing.T) {
	g := testGrid(t, 2, 2)
	img := reflectanceImage(t, g, filled(4, 0.3), filled(4, 0.1))

	_, err := EstimateEmissivity(img, testAOI(t), defaultOptions())
	require.ErrorIs(t, err, domain.ErrDegenerateStatistics)
}

func TestEstimateEmissivity_NoValidPixelsIsDegenerate(t *testing.T) {
	g := testGrid(t, 2, 1)
	img, err := raster.New(g, map[raster.BandName]*raster.Band{
		domain.BandNIR: raster.NewBand(2),
		domain.BandRed: raster.NewBand(2),
	})
	require.NoError(t, err)

	_, err = EstimateEmissivity(img, testAOI(t), defaultOptions())
	require.ErrorIs(t, err, domain.ErrDegenerateStatistics)
	require.ErrorIs(t, err, raster.ErrNoValidPixels)
}

func TestEstimateEmissivity_PixelBudget(t *testing.T) {
	g := testGrid(t, 2, 2)
	img := reflectanceImage(t, g, []float64{0.3, 0.2, 0.1, 0.5}, []float64{0.1, 0.2, 0.3, 0.3})

	opts := defaultOptions()
	opts.MaxPixels = 2
	_, err := EstimateEmissivity(img, testAOI(t), opts)
	require.ErrorIs(t, err, domain.ErrPixelBudget)
}

func TestEstimateEmissivity_FixedBounds(t *testing.T) {
	g := testGrid(t, 2, 1)
	img := reflectanceImage(t, g, []float64{0.3, 0.3}, []float64{0.1, 0.1})

	opts := defaultOptions()
	opts.Bounds = NDVIBounds{Fixed: true, Min: 0, Max: 1}
	out, err := EstimateEmissivity(img, testAOI(t), opts)
	require.NoError(t, err, "uniform raster is fine once bounds are pinned")
	assert.Equal(t, 0.0, out.NDVIMin)
	assert.Equal(t, 1.0, out.NDVIMax)

	fv, err := out.Image.Band(domain.BandFV)
	require.NoError(t, err)
	assert.InDelta(t, 0.25, fv.Values[0], 1e-12)
}
