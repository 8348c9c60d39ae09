package domain

import (
	"errors"

	"github.com/couchcryptid/lst-etl/internal/raster"
)

var (
	// ErrEmptySceneSet means no scene qualified for a date, so its composite
	// is undefined.
	ErrEmptySceneSet = errors.New("no scenes for date")

	// ErrDegenerateStatistics means an AOI-wide reduction found no valid
	// pixels, NDVI has no spread (max == min), or the inversion produced a
	// non-finite value.
	ErrDegenerateStatistics = errors.New("degenerate statistics")

	// ErrGridMismatch means rasters with incompatible grids were combined.
	ErrGridMismatch = raster.ErrGridMismatch

	// ErrExportFailure means the export sink rejected a job after all retries.
	ErrExportFailure = errors.New("export failed")

	// ErrInvalidAOI means the area of interest is empty or not finite.
	ErrInvalidAOI = errors.New("invalid area of interest")

	// ErrInvalidDateRange means start is after end.
	ErrInvalidDateRange = errors.New("invalid date range")

	// ErrMissingBand means a scene lacks a band the pipeline needs.
	ErrMissingBand = errors.New("missing band")

	// ErrPixelBudget means an AOI reduction would sample more pixels than
	// MAX_PIXELS allows.
	ErrPixelBudget = raster.ErrPixelBudget
)

// IsDomainError reports whether err is a per-date data problem that retrying
// cannot fix.
func IsDomainError(err error) bool {
	return errors.Is(err, ErrEmptySceneSet) ||
		errors.Is(err, ErrDegenerateStatistics) ||
		errors.Is(err, ErrGridMismatch) ||
		errors.Is(err, ErrMissingBand) ||
		errors.Is(err, ErrPixelBudget)
}

// ErrorKind returns a short label for metrics and reports.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmptySceneSet):
		return "empty_scene_set"
	case errors.Is(err, ErrDegenerateStatistics):
		return "degenerate_statistics"
	case errors.Is(err, ErrGridMismatch):
		return "grid_mismatch"
	case errors.Is(err, ErrMissingBand):
		return "missing_band"
	case errors.Is(err, ErrPixelBudget):
		return "pixel_budget"
	case errors.Is(err, ErrExportFailure):
		return "export_failure"
	default:
		return "transient"
	}
}
