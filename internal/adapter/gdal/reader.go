package gdal

import (
	"fmt"
	"math"

	"github.com/airbusgeo/godal"

	"github.com/couchcryptid/lst-etl/internal/raster"
)

// MetadataKeys are the dataset metadata items written by GeoTIFFSink.
var MetadataKeys = []string{"DESCRIPTION", "DATE", "SCALE_M", "SCENE_COUNT", "AOI_BBOX", "CREATED_AT"}

// Raster is an exported GeoTIFF read back into memory.
type Raster struct {
	Image    *raster.Image
	Metadata map[string]string
}

// ReadGeoTIFF opens an exported raster. Bands are named by their
// description; pixels equal to the band's nodata value are invalid.
func ReadGeoTIFF(path string) (*Raster, error) {
	ds, err := godal.Open(path, godal.ErrLogger(quietWarnings))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer ds.Close()

	gt, err := ds.GeoTransform()
	if err != nil {
		return nil, fmt.Errorf("geotransform %s: %w", path, err)
	}
	st := ds.Structure()
	g := raster.Grid{Width: st.SizeX, Height: st.SizeY, GeoTransform: gt, EPSG: 4326}

	bands := make(map[raster.BandName]*raster.Band, st.NBands)
	data := make([]float64, g.Len())
	for i, band := range ds.Bands() {
		if err := band.Read(0, 0, data, g.Width, g.Height); err != nil {
			return nil, fmt.Errorf("read band %d of %s: %w", i+1, path, err)
		}
		nodata, hasNoData := band.NoData()
		out := raster.NewBand(g.Len())
		for p, v := range data {
			if math.IsNaN(v) || (hasNoData && v == nodata) {
				continue
			}
			out.Set(p, v)
		}
		name := raster.BandName(band.Description())
		if name == "" {
			name = raster.BandName(fmt.Sprintf("band_%d", i+1))
		}
		bands[name] = out
	}

	img, err := raster.New(g, bands)
	if err != nil {
		return nil, err
	}
	meta := make(map[string]string, len(MetadataKeys))
	for _, k := range MetadataKeys {
		if v := ds.Metadata(k); v != "" {
			meta[k] = v
		}
	}
	return &Raster{Image: img, Metadata: meta}, nil
}
