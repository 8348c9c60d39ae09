package domain

import (
	"time"

	"github.com/couchcryptid/lst-etl/internal/raster"
)

// SceneRecord is one satellite capture as listed by the catalog.
type SceneRecord struct {
	ID         string
	Collection string
	Platform   string
	Acquired   time.Time
	CloudCover float64

	// Assets maps each band to the location of its raster.
	Assets map[raster.BandName]string
}

// Bands returns the band names with an asset.
func (s SceneRecord) Bands() []raster.BandName {
	names := make([]raster.BandName, 0, len(s.Assets))
	for name := range s.Assets {
		names = append(names, name)
	}
	return names
}
