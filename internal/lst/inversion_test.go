package lst

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/lst-etl/internal/domain"
	"github.com/couchcryptid/lst-etl/internal/raster"
)

func TestSurfaceTemperature_UnitEmissivity(t *testing.T) {
	v, ok := SurfaceTemperature(300, 1)
	require.True(t, ok)
	assert.InDelta(t, 26.85, v, 1e-9)
}

func TestSurfaceTemperature_EmissivityRaisesTemperature(t *testing.T) {
	bare, ok := SurfaceTemperature(300, 0.986)
	require.True(t, ok)
	veg, ok := SurfaceTemperature(300, 0.990)
	require.True(t, ok)

	assert.Greater(t, bare, 26.85)
	assert.Greater(t, bare, veg, "lower emissivity needs a larger correction")

	want := 300/(1+(0.00115*(300/1.438))*math.Log(0.986)) - 273.15
	assert.InDelta(t, want, bare, 1e-12)
}

func TestSurfaceTemperature_NonPositiveEmissivity(t *testing.T) {
	_, ok := SurfaceTemperature(300, 0)
	assert.False(t, ok)
	_, ok = SurfaceTemperature(300, -0.5)
	assert.False(t, ok)
}

func TestInvertLST(t *testing.T) {
	g := testGrid(t, 3, 1)
	tb := raster.BandFromValues([]float64{300, 310, 290})
	em := raster.NewBand(3)
	em.Set(0, 1)
	em.Set(1, 0.988)
	img, err := raster.New(g, map[raster.BandName]*raster.Band{
		domain.BandThermal: tb,
		domain.BandEM:      em,
		domain.BandNIR:     raster.BandFromValues([]float64{0.3, 0.3, 0.3}),
	})
	require.NoError(t, err)

	layer, err := InvertLST(img, day.Add(17*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, day, layer.Date)
	assert.Equal(t, []raster.BandName{domain.BandLST}, layer.Image.Names())

	lst, err := layer.Image.Band(domain.BandLST)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, true, false}, lst.Valid)
	assert.InDelta(t, 26.85, lst.Values[0], 1e-9)
	assert.True(t, g.Equal(layer.Image.Grid()))
}

func TestInvertLST_NonFiniteIsDegenerate(t *testing.T) {
	g := testGrid(t, 1, 1)
	img, err := raster.New(g, map[raster.BandName]*raster.Band{
		domain.BandThermal: raster.BandFromValues([]float64{math.Inf(1)}),
		domain.BandEM:      raster.BandFromValues([]float64{0.99}),
	})
	require.NoError(t, err)

	_, err = InvertLST(img, day)
	require.ErrorIs(t, err, domain.ErrDegenerateStatistics)
}

func TestInvertLST_MissingEmissivity(t *testing.T) {
	g := testGrid(t, 1, 1)
	img, err := raster.New(g, map[raster.BandName]*raster.Band{
		domain.BandThermal: raster.BandFromValues([]float64{300}),
	})
	require.NoError(t, err)

	_, err = InvertLST(img, day)
	require.ErrorIs(t, err, domain.ErrMissingBand)
}

func TestSummarize(t *testing.T) {
	g := testGrid(t, 3, 1)
	lst := raster.NewBand(3)
	lst.Set(0, 20)
	lst.Set(2, 30)
	img, err := raster.New(g, map[raster.BandName]*raster.Band{domain.BandLST: lst})
	require.NoError(t, err)

	r, err := Summarize(
		DailyComposite{Date: day, SceneCount: 2},
		Emissivity{NDVIMin: -0.1, NDVIMax: 0.6},
		Layer{Date: day, Image: img},
	)
	require.NoError(t, err)
	assert.Equal(t, Result{
		Date: day, SceneCount: 2, NDVIMin: -0.1, NDVIMax: 0.6,
		LSTMin: 20, LSTMax: 30, LSTMean: 25, ValidPixels: 2,
	}, r)
}

func TestInvertLST_NoValidThermalIsDegenerate(t *testing.T) {
	g := testGrid(t, 2, 1)
	tb := raster.NewBand(2)
	img, err := raster.New(g, map[raster.BandName]*raster.Band{
		domain.BandThermal: tb,
		domain.BandEM:      raster.BandFromValues([]float64{0.99, 0.988}),
	})
	require.NoError(t, err)

	_, err = InvertLST(img, day)
	require.ErrorIs(t, err, domain.ErrDegenerateStatistics)
	assert.Equal(t, "degenerate_statistics", domain.ErrorKind(err))
}

func TestSummarize_EmptyLayerIsDegenerate(t *testing.T) {
	g := testGrid(t, 2, 1)
	img, err := raster.New(g, map[raster.BandName]*raster.Band{domain.BandLST: raster.NewBand(2)})
	require.NoError(t, err)

	_, err = Summarize(DailyComposite{Date: day, SceneCount: 1}, Emissivity{}, Layer{Date: day, Image: img})
	require.ErrorIs(t, err, domain.ErrDegenerateStatistics)
	require.ErrorIs(t, err, raster.ErrNoValidPixels)
}
