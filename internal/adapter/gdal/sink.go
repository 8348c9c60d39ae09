package gdal

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/airbusgeo/godal"

	"github.com/couchcryptid/lst-etl/internal/domain"
	"github.com/couchcryptid/lst-etl/internal/raster"
)

// NoDataValue marks invalid pixels in written rasters.
const NoDataValue = -9999.0

// GeoTIFFSink writes each export job to <folder>/<description>.tif.
type GeoTIFFSink struct {
	logger *slog.Logger
}

// NewGeoTIFFSink creates a GeoTIFF export sink.
func NewGeoTIFFSink(logger *slog.Logger) *GeoTIFFSink {
	return &GeoTIFFSink{logger: logger}
}

// Path returns where job is written.
func Path(job domain.ExportJob) string {
	return filepath.Join(job.Folder, job.Description+".tif")
}

// Submit implements pipeline.ExportSink. The raster is written to a
// .partial file and renamed into place once closed.
func (s *GeoTIFFSink) Submit(ctx context.Context, job domain.ExportJob) error {
	if job.Format != domain.FormatGeoTIFF {
		return fmt.Errorf("unsupported export format %q", job.Format)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(job.Folder, 0o755); err != nil {
		return fmt.Errorf("create export folder: %w", err)
	}

	path := Path(job)
	tmp := path + ".partial"
	if err := writeGeoTIFF(tmp, job); err != nil {
		os.Remove(tmp) //nolint:errcheck // best-effort cleanup
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("finalize %s: %w", path, err)
	}

	s.logger.Debug("geotiff written", "path", path, "description", job.Description)
	return nil
}

func writeGeoTIFF(path string, job domain.ExportJob) error {
	img := job.Image
	if img == nil {
		return fmt.Errorf("export %s: no image", job.Description)
	}
	names := img.Names()
	g := img.Grid()

	ds, err := godal.Create(godal.GTiff, path, len(names), godal.Float64, g.Width, g.Height,
		godal.CreationOption("COMPRESS=DEFLATE", "TILED=YES"))
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	if err := fillDataset(ds, img, names, job); err != nil {
		ds.Close() //nolint:errcheck // already failing
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := ds.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

func fillDataset(ds *godal.Dataset, img *raster.Image, names []raster.BandName, job domain.ExportJob) error {
	g := img.Grid()
	if err := ds.SetGeoTransform(g.GeoTransform); err != nil {
		return err
	}
	sr, err := godal.NewSpatialRefFromEPSG(g.EPSG)
	if err != nil {
		return err
	}
	defer sr.Close()
	if err := ds.SetSpatialRef(sr); err != nil {
		return err
	}

	meta := map[string]string{
		"DESCRIPTION": job.Description,
		"DATE":        job.Date.Format(domain.DateLayout),
		"SCALE_M":     strconv.FormatFloat(job.Scale, 'f', -1, 64),
		"SCENE_COUNT": strconv.Itoa(job.SceneCount),
		"AOI_BBOX":    job.Region.String(),
		"CREATED_AT":  job.CreatedAt.Format(time.RFC3339),
	}
	for k, v := range meta {
		if err := ds.SetMetadata(k, v); err != nil {
			return err
		}
	}

	buf := make([]float64, g.Len())
	for i, name := range names {
		b, err := img.Band(name)
		if err != nil {
			return err
		}
		for p, v := range b.Values {
			if b.Valid[p] {
				buf[p] = v
			} else {
				buf[p] = NoDataValue
			}
		}
		band := ds.Bands()[i]
		if err := band.SetNoData(NoDataValue); err != nil {
			return err
		}
		if err := band.SetDescription(string(name)); err != nil {
			return err
		}
		if err := band.Write(0, 0, buf, g.Width, g.Height); err != nil {
			return err
		}
	}
	return nil
}
