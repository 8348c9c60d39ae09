package lst

import (
	"fmt"
	"math"
	"time"

	"github.com/couchcryptid/lst-etl/internal/domain"
	"github.com/couchcryptid/lst-etl/internal/raster"
)

// Single-channel Planck inversion constants.
const (
	// Wavelength is the emitted radiance wavelength of ST_B10 (cm).
	Wavelength = 0.00115
	// Rho is h*c/sigma (cm K).
	Rho = 1.438
	// KelvinOffset converts Kelvin to degrees Celsius.
	KelvinOffset = 273.15
)

// Layer is a single-band LST raster in degrees Celsius for one date.
type Layer struct {
	Date  time.Time
	Image *raster.Image
}

// SurfaceTemperature applies the inversion to one pixel:
//
//	LST = TB / (1 + (Wavelength * TB / Rho) * ln(em)) - 273.15
//
// ok is false for non-positive emissivity or a non-finite result.
func SurfaceTemperature(tb, em float64) (float64, bool) {
	if em <= 0 {
		return 0, false
	}
	lst := tb/(1+(Wavelength*(tb/Rho))*math.Log(em)) - KelvinOffset
	if math.IsNaN(lst) || math.IsInf(lst, 0) {
		return 0, false
	}
	return lst, true
}

// InvertLST computes surface temperature from the ST_B10 brightness
// temperature and EM bands. A pixel is valid only where both inputs are. A
// valid input pair producing a non-finite value is a domain error.
func InvertLST(img *raster.Image, date time.Time) (Layer, error) {
	tb, err := img.Band(domain.BandThermal)
	if err != nil {
		return Layer{}, fmt.Errorf("invert: %w: %w", domain.ErrMissingBand, err)
	}
	em, err := img.Band(domain.BandEM)
	if err != nil {
		return Layer{}, fmt.Errorf("invert: %w: %w", domain.ErrMissingBand, err)
	}

	var bad int
	lst, err := raster.Combine(tb, em, func(t, e float64) (float64, bool) {
		v, ok := SurfaceTemperature(t, e)
		if !ok && e > 0 {
			bad++
		}
		return v, ok
	})
	if err != nil {
		return Layer{}, err
	}
	if bad > 0 {
		return Layer{}, fmt.Errorf("%d non-finite lst pixels: %w", bad, domain.ErrDegenerateStatistics)
	}
	if lst.ValidCount() == 0 {
		return Layer{}, fmt.Errorf("lst layer has no valid pixels: %w", domain.ErrDegenerateStatistics)
	}

	out, err := raster.New(img.Grid(), map[raster.BandName]*raster.Band{domain.BandLST: lst})
	if err != nil {
		return Layer{}, err
	}
	return Layer{Date: domain.Day(date), Image: out}, nil
}
