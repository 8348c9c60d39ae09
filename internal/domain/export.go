package domain

import (
	"time"

	"github.com/couchcryptid/lst-etl/internal/raster"
)

// Format is an export file format.
type Format string

// FormatGeoTIFF is the only format the GDAL sink writes today.
const FormatGeoTIFF Format = "GeoTIFF"

// ExportJob describes one persisted output raster.
type ExportJob struct {
	Image       *raster.Image
	Description string
	Folder      string
	Scale       float64
	Region      AreaOfInterest
	Format      Format
	Date        time.Time
	SceneCount  int
	CreatedAt   time.Time
}

// JobDescription names the output for date. Names are unique per day.
func JobDescription(date time.Time) string {
	return "LST_" + Day(date).Format(DateLayout)
}

// NewExportJob builds the export job for one date's LST raster.
func NewExportJob(img *raster.Image, date time.Time, folder string, scale float64, region AreaOfInterest, sceneCount int) ExportJob {
	return ExportJob{
		Image:       img,
		Description: JobDescription(date),
		Folder:      folder,
		Scale:       scale,
		Region:      region,
		Format:      FormatGeoTIFF,
		Date:        Day(date),
		SceneCount:  sceneCount,
		CreatedAt:   clock.Now().UTC(),
	}
}

// VisParams are display-only rendering settings for an LST layer.
type VisParams struct {
	Min     float64
	Max     float64
	Palette []string
}

// DefaultVisParams is the fixed LST color ramp in degrees Celsius.
var DefaultVisParams = VisParams{
	Min: 7.0,
	Max: 50.0,
	Palette: []string{
		"040274", "040281", "0502a3", "0502b8", "0502ce", "0502e6",
		"0602ff", "235cb1", "307ef3", "269db1", "30c8e2", "32d3ef",
		"3be285", "3ff38f", "86e26f", "3ae237", "b5e22e", "d6e21f",
		"fff705", "ffd611", "ffb613", "ff8b13", "ff6e08", "ff500d",
		"ff0000", "de0101", "c21301", "a71001", "911003",
	},
}
