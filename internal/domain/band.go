package domain

import (
	"fmt"
	"strings"

	"github.com/couchcryptid/lst-etl/internal/raster"
)

// Landsat Collection 2 Level-2 band names.
const (
	BandBlue    raster.BandName = "SR_B2"
	BandGreen   raster.BandName = "SR_B3"
	BandRed     raster.BandName = "SR_B4"
	BandNIR     raster.BandName = "SR_B5"
	BandSWIR1   raster.BandName = "SR_B6"
	BandSWIR2   raster.BandName = "SR_B7"
	BandThermal raster.BandName = "ST_B10"
	BandQA      raster.BandName = "QA_PIXEL"
)

// Bands derived by the pipeline.
const (
	BandNDVI raster.BandName = "NDVI"
	BandFV   raster.BandName = "FV"
	BandEM   raster.BandName = "EM"
	BandLST  raster.BandName = "LST"
)

// BandFamily groups bands sharing one radiometric scale.
type BandFamily int

const (
	FamilyOther BandFamily = iota
	FamilyOptical
	FamilyThermal
)

// RequiredBands are the bands every scene must provide.
var RequiredBands = []raster.BandName{
	BandBlue, BandGreen, BandRed, BandNIR, BandSWIR1, BandSWIR2, BandThermal, BandQA,
}

// FamilyOf classifies a band by its name prefix.
func FamilyOf(name raster.BandName) BandFamily {
	switch {
	case strings.HasPrefix(string(name), "SR_B"):
		return FamilyOptical
	case strings.HasPrefix(string(name), "ST_B"):
		return FamilyThermal
	default:
		return FamilyOther
	}
}

// ValidateBands checks that every required band is present.
func ValidateBands(available []raster.BandName) error {
	have := make(map[raster.BandName]struct{}, len(available))
	for _, name := range available {
		have[name] = struct{}{}
	}
	var missing []string
	for _, name := range RequiredBands {
		if _, ok := have[name]; !ok {
			missing = append(missing, string(name))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s: %w", strings.Join(missing, ", "), ErrMissingBand)
	}
	return nil
}
