package lst

import (
	"fmt"

	"github.com/couchcryptid/lst-etl/internal/domain"
	"github.com/couchcryptid/lst-etl/internal/raster"
)

// QA_PIXEL bits that disqualify a pixel.
const (
	QACloudShadow = 1 << 3
	QACloud       = 1 << 5

	// QACloudBits is 0b101000.
	QACloudBits = QACloudShadow | QACloud
)

// ClearSky reports whether a QA_PIXEL value has both cloud flags unset.
func ClearSky(qa uint16) bool {
	return qa&QACloudBits == 0
}

// CloudMask derives the validity mask from the image's QA_PIXEL band. Pixels
// whose QA value is itself no-data or out of the 16-bit range are invalid.
func CloudMask(img *raster.Image) (raster.Mask, error) {
	qa, err := img.Band(domain.BandQA)
	if err != nil {
		return raster.Mask{}, fmt.Errorf("cloud mask: %w", domain.ErrMissingBand)
	}
	m := raster.NewMask(img.Grid(), false)
	for i, v := range qa.Values {
		if !qa.Valid[i] || v < 0 || v > 0xFFFF {
			continue
		}
		m.Valid[i] = ClearSky(uint16(v))
	}
	return m, nil
}

// ApplyCloudMask returns img with every cloudy or shadowed pixel set to
// no-data in all bands.
func ApplyCloudMask(img *raster.Image) (*raster.Image, error) {
	m, err := CloudMask(img)
	if err != nil {
		return nil, err
	}
	return img.Mask(m)
}
