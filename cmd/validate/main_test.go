package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/lst-etl/internal/adapter/gdal"
	"github.com/couchcryptid/lst-etl/internal/domain"
	"github.com/couchcryptid/lst-etl/internal/raster"
	"github.com/couchcryptid/lst-etl/internal/report"
)

func testExport(t *testing.T, name string, values []float64) *export {
	t.Helper()
	g, err := raster.NewGrid(len(values), 1, -99.0, 19.0, 0.001, 4326)
	require.NoError(t, err)
	b := raster.BandFromValues(values)
	img, err := raster.New(g, map[raster.BandName]*raster.Band{domain.BandLST: b})
	require.NoError(t, err)
	return &export{
		name: name,
		raster: &gdal.Raster{Image: img, Metadata: map[string]string{
			"DESCRIPTION": name,
			"DATE":        name[len("LST_"):],
			"SCALE_M":     "30",
			"SCENE_COUNT": "2",
			"AOI_BBOX":    "[-99.1, 19.4, -99.0, 19.5]",
			"CREATED_AT":  "2024-03-01T12:00:00Z",
		}},
		stats: bandStats(b),
	}
}

func TestBandStats(t *testing.T) {
	b := raster.BandFromValues([]float64{10, 20, 30, 99})
	b.Invalidate(3)

	s := bandStats(b)
	assert.Equal(t, 3, s.valid)
	assert.InDelta(t, 10.0, s.min, 1e-9)
	assert.InDelta(t, 30.0, s.max, 1e-9)
	assert.InDelta(t, 20.0, s.mean, 1e-9)
}

func TestValidateStructure(t *testing.T) {
	good := testExport(t, "LST_2023-07-05", []float64{20, 30})
	p := validateStructure([]*export{good}, nil)
	assert.True(t, p.passed(), p.errors)

	bad := testExport(t, "LST_2023-07-21", []float64{20})
	bad.raster.Metadata["DATE"] = "2023-07-22"
	delete(bad.raster.Metadata, "CREATED_AT")
	p = validateStructure([]*export{bad}, []string{"open broken.tif: not a raster"})
	assert.Len(t, p.errors, 3)
}

func TestValidateValues(t *testing.T) {
	p := validateValues([]*export{
		testExport(t, "LST_2023-07-05", []float64{20, 30}),
		testExport(t, "LST_2023-07-21", []float64{20, 180}),
	})
	require.Len(t, p.errors, 1)
	assert.Contains(t, p.errors[0], "LST_2023-07-21")
}

func TestValidateManifest(t *testing.T) {
	exports := []*export{
		testExport(t, "LST_2023-07-05", []float64{20, 30}),
		testExport(t, "LST_2023-07-09", []float64{25}),
	}
	rows := []*report.Row{
		{Description: "LST_2023-07-05", Status: report.StatusExported, SceneCount: 2, ValidPixels: 2,
			LSTMin: "20.0000", LSTMax: "30.0000", LSTMean: "25.0000"},
		{Description: "LST_2023-07-13", Status: report.StatusFailed, ErrorKind: "degenerate_statistics"},
		{Description: "LST_2023-07-21", Status: report.StatusExported, SceneCount: 1, ValidPixels: 1,
			LSTMin: "1.0000", LSTMax: "1.0000", LSTMean: "1.0000"},
	}

	p := validateManifest(rows, exports)
	require.Len(t, p.errors, 2)
	assert.Contains(t, p.errors[0], "LST_2023-07-21: exported in manifest but missing")
	assert.Contains(t, p.errors[1], "LST_2023-07-09: present in folder but not in manifest")
}

func TestValidateManifest_StatMismatch(t *testing.T) {
	exports := []*export{testExport(t, "LST_2023-07-05", []float64{20, 30})}
	rows := []*report.Row{
		{Description: "LST_2023-07-05", Status: report.StatusExported, SceneCount: 3, ValidPixels: 5,
			LSTMin: "20.0000", LSTMax: "31.0000", LSTMean: "25.0000"},
	}

	p := validateManifest(rows, exports)
	assert.Len(t, p.errors, 3)
}
