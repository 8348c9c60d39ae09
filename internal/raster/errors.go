package raster

import "errors"

var (
	// ErrGridMismatch is returned when a pixel-wise operation combines rasters
	// laid out on different grids.
	ErrGridMismatch = errors.New("raster grids do not match")

	// ErrNoValidPixels is returned by reductions over a region with no valid pixels.
	ErrNoValidPixels = errors.New("no valid pixels")

	// ErrPixelBudget is returned when a reduction would visit more pixels than allowed.
	ErrPixelBudget = errors.New("pixel budget exceeded")

	// ErrBandNotFound is returned when a named band is not present in an image.
	ErrBandNotFound = errors.New("band not found")

	// ErrEmptyGrid is returned for grids without pixels.
	ErrEmptyGrid = errors.New("empty grid")
)
