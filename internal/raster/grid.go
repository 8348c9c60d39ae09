// Package raster implements in-memory raster algebra over a fixed pixel grid:
// named float64 bands with explicit no-data flags, pixel-wise combination,
// masking, masked median compositing and spatial reductions.
//
// Images are treated as values. Every operation returns a new Image and leaves
// its inputs untouched; the only way to replace a band is WithBands.
package raster

import (
	"fmt"
	"math"
)

// Grid describes the spatial layout shared by every band of an Image.
//
// GeoTransform follows the GDAL convention:
//
//	lon = gt[0] + x*gt[1] + y*gt[2]
//	lat = gt[3] + x*gt[4] + y*gt[5]
type Grid struct {
	Width        int
	Height       int
	GeoTransform [6]float64
	EPSG         int
}

// NewGrid builds a north-up grid with square pixels whose top-left corner is
// at (west, north).
func NewGrid(width, height int, west, north, pixelSize float64, epsg int) (Grid, error) {
	if width <= 0 || height <= 0 {
		return Grid{}, fmt.Errorf("grid size %dx%d: %w", width, height, ErrEmptyGrid)
	}
	if pixelSize <= 0 || math.IsNaN(pixelSize) || math.IsInf(pixelSize, 0) {
		return Grid{}, fmt.Errorf("grid pixel size %v must be positive", pixelSize)
	}
	return Grid{
		Width:        width,
		Height:       height,
		GeoTransform: [6]float64{west, pixelSize, 0, north, 0, -pixelSize},
		EPSG:         epsg,
	}, nil
}

// Len is the number of pixels in the grid.
func (g Grid) Len() int { return g.Width * g.Height }

// Equal reports whether two grids describe the same pixels.
func (g Grid) Equal(o Grid) bool {
	return g.Width == o.Width && g.Height == o.Height && g.EPSG == o.EPSG && g.GeoTransform == o.GeoTransform
}

// PixelSize returns the absolute pixel width and height in grid units.
func (g Grid) PixelSize() (float64, float64) {
	return math.Abs(g.GeoTransform[1]), math.Abs(g.GeoTransform[5])
}

// PixelCenter returns the grid coordinates of the center of pixel (x, y).
func (g Grid) PixelCenter(x, y int) (float64, float64) {
	fx, fy := float64(x)+0.5, float64(y)+0.5
	gt := g.GeoTransform
	return gt[0] + fx*gt[1] + fy*gt[2], gt[3] + fx*gt[4] + fy*gt[5]
}

// Bounds returns the grid extent as [west, south, east, north].
func (g Grid) Bounds() [4]float64 {
	gt := g.GeoTransform
	x0, y0 := gt[0], gt[3]
	x1 := gt[0] + float64(g.Width)*gt[1] + float64(g.Height)*gt[2]
	y1 := gt[3] + float64(g.Width)*gt[4] + float64(g.Height)*gt[5]
	return [4]float64{math.Min(x0, x1), math.Min(y0, y1), math.Max(x0, x1), math.Max(y0, y1)}
}

func (g Grid) String() string {
	return fmt.Sprintf("%dx%d EPSG:%d %v", g.Width, g.Height, g.EPSG, g.GeoTransform)
}
