package gdal

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/airbusgeo/godal"

	"github.com/couchcryptid/lst-etl/internal/domain"
	"github.com/couchcryptid/lst-etl/internal/raster"
)

// Loader reads the required bands of a scene onto the AOI grid.
type Loader struct {
	scale  float64
	bands  []raster.BandName
	logger *slog.Logger
}

// NewLoader creates a Loader sampling at scale meters. RegisterAll must have
// been called on the godal package.
func NewLoader(scale float64, logger *slog.Logger) *Loader {
	return &Loader{scale: scale, bands: domain.RequiredBands, logger: logger}
}

// AOIGrid returns the EPSG:4326 grid covering the AOI at scale meters. Its
// top-left corner is the AOI's north-west corner; width and height are
// rounded up so the grid always covers the whole AOI.
func AOIGrid(aoi domain.AreaOfInterest, scale float64) (raster.Grid, error) {
	px := raster.DegreesForMeters(scale)
	b := aoi.Bound()
	width := int(math.Ceil((b.Max[0] - b.Min[0]) / px))
	height := int(math.Ceil((b.Max[1] - b.Min[1]) / px))
	return raster.NewGrid(width, height, b.Min[0], b.Max[1], px, 4326)
}

// Load implements pipeline.SceneLoader.
func (l *Loader) Load(ctx context.Context, scene domain.SceneRecord, aoi domain.AreaOfInterest) (*raster.Image, error) {
	if err := domain.ValidateBands(scene.Bands()); err != nil {
		return nil, fmt.Errorf("scene %s assets: %w", scene.ID, err)
	}
	grid, err := AOIGrid(aoi, l.scale)
	if err != nil {
		return nil, err
	}

	bands := make(map[raster.BandName]*raster.Band, len(l.bands))
	for _, name := range l.bands {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b, err := l.readBand(scene.Assets[name], grid)
		if err != nil {
			return nil, fmt.Errorf("band %s: %w", name, err)
		}
		bands[name] = b
	}
	l.logger.Debug("scene loaded", "scene", scene.ID, "grid", grid.String())
	return raster.New(grid, bands)
}

// readBand warps the first band of href onto grid in memory.
func (l *Loader) readBand(href string, grid raster.Grid) (*raster.Band, error) {
	src, err := godal.Open(vsiPath(href), godal.ErrLogger(quietWarnings))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", href, err)
	}
	defer src.Close()

	warped, err := src.Warp("", warpSwitches(grid), godal.ErrLogger(quietWarnings))
	if err != nil {
		return nil, fmt.Errorf("warp %s: %w", href, err)
	}
	defer warped.Close()

	st := warped.Structure()
	if st.SizeX != grid.Width || st.SizeY != grid.Height {
		return nil, fmt.Errorf("warped size %dx%d, grid %s: %w", st.SizeX, st.SizeY, grid, raster.ErrGridMismatch)
	}
	band := warped.Bands()[0]
	data := make([]float64, grid.Len())
	if err := band.Read(0, 0, data, grid.Width, grid.Height); err != nil {
		return nil, fmt.Errorf("read %s: %w", href, err)
	}

	out := raster.NewBand(grid.Len())
	nodata, hasNoData := band.NoData()
	for i, v := range data {
		if math.IsNaN(v) || (hasNoData && v == nodata) {
			continue
		}
		out.Set(i, v)
	}
	return out, nil
}

func warpSwitches(grid raster.Grid) []string {
	b := grid.Bounds()
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	return []string{
		"-of", "MEM",
		"-t_srs", "EPSG:4326",
		"-te", f(b[0]), f(b[1]), f(b[2]), f(b[3]),
		"-ts", strconv.Itoa(grid.Width), strconv.Itoa(grid.Height),
		"-ot", "Float64",
		"-r", "near",
		"-dstnodata", f(NoDataValue),
	}
}

// vsiPath routes remote assets through GDAL's virtual curl file system.
func vsiPath(href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return "/vsicurl/" + href
	}
	return href
}

func quietWarnings(ec godal.ErrorCategory, _ int, msg string) error {
	if ec <= godal.CE_Warning {
		return nil
	}
	return fmt.Errorf("gdal: %s", msg)
}
