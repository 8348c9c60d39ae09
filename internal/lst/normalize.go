package lst

import (
	"github.com/couchcryptid/lst-etl/internal/domain"
	"github.com/couchcryptid/lst-etl/internal/raster"
)

// Collection 2 Level-2 rescaling factors.
const (
	OpticalScale  = 0.0000275
	OpticalOffset = -0.2
	ThermalScale  = 0.00341802
	ThermalOffset = 149.0 // Kelvin
)

// ScaleFactors returns the affine rescaling of a band family. ok is false for
// bands that are carried over as-is.
func ScaleFactors(f domain.BandFamily) (scale, offset float64, ok bool) {
	switch f {
	case domain.FamilyOptical:
		return OpticalScale, OpticalOffset, true
	case domain.FamilyThermal:
		return ThermalScale, ThermalOffset, true
	default:
		return 0, 0, false
	}
}

// Normalize converts raw digital numbers to surface reflectance (optical
// bands) and brightness temperature in Kelvin (thermal bands). Other bands,
// QA_PIXEL included, are carried over untouched.
//
// The transform is affine and must be applied exactly once to raw data.
func Normalize(img *raster.Image) (*raster.Image, error) {
	scaled := make(map[raster.BandName]*raster.Band)
	for _, name := range img.Names() {
		scale, offset, ok := ScaleFactors(domain.FamilyOf(name))
		if !ok {
			continue
		}
		src, err := img.Band(name)
		if err != nil {
			return nil, err
		}
		scaled[name] = raster.Map(src, func(v float64) (float64, bool) {
			return v*scale + offset, true
		})
	}
	return img.WithBands(scaled)
}
