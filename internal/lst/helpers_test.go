package lst

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/lst-etl/internal/domain"
	"github.com/couchcryptid/lst-etl/internal/raster"
)

const clearQA = 21824 // Landsat "clear, low confidence cloud" value, bits 3 and 5 unset

func testGrid(t *testing.T, w, h int) raster.Grid {
	t.Helper()
	g, err := raster.NewGrid(w, h, -99.001, 19.001, 0.001, 4326)
	require.NoError(t, err)
	return g
}

func testAOI(t *testing.T) domain.AreaOfInterest {
	t.Helper()
	aoi, err := domain.NewAreaOfInterest(-99, 19, 1000)
	require.NoError(t, err)
	return aoi
}

func filled(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// rawScene builds a scene with every required band. Bands missing from dn are
// filled with a constant digital number.
func rawScene(t *testing.T, g raster.Grid, dn map[raster.BandName][]float64, qa []float64) *raster.Image {
	t.Helper()
	bands := make(map[raster.BandName]*raster.Band, len(domain.RequiredBands))
	for _, name := range domain.RequiredBands {
		switch {
		case name == domain.BandQA:
			if qa == nil {
				qa = filled(g.Len(), clearQA)
			}
			bands[name] = raster.BandFromValues(qa)
		case dn[name] != nil:
			bands[name] = raster.BandFromValues(dn[name])
		case name == domain.BandThermal:
			bands[name] = raster.BandFromValues(filled(g.Len(), 44000))
		default:
			bands[name] = raster.BandFromValues(filled(g.Len(), 10000))
		}
	}
	img, err := raster.New(g, bands)
	require.NoError(t, err)
	return img
}

type fakeLoader struct {
	images map[string]*raster.Image
	errs   map[string]error
}

func (f *fakeLoader) Load(_ context.Context, scene domain.SceneRecord, _ domain.AreaOfInterest) (*raster.Image, error) {
	if err := f.errs[scene.ID]; err != nil {
		return nil, err
	}
	img, ok := f.images[scene.ID]
	if !ok {
		return nil, fmt.Errorf("unknown scene %s", scene.ID)
	}
	return img, nil
}

func scene(id string, acquired time.Time) domain.SceneRecord {
	return domain.SceneRecord{ID: id, Collection: "landsat-c2-l2", Acquired: acquired}
}
