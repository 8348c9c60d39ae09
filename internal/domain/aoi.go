package domain

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// metersPerDegree is the length of one degree of latitude.
const metersPerDegree = 111320.0

// AreaOfInterest is the fixed analysis region: the bounding rectangle of a
// circle buffered around a center point, in EPSG:4326 longitude/latitude.
type AreaOfInterest struct {
	center orb.Point
	radius float64
	bound  orb.Bound
}

// NewAreaOfInterest builds the AOI around (lon, lat) with a radius in meters.
func NewAreaOfInterest(lon, lat, radiusMeters float64) (AreaOfInterest, error) {
	for _, v := range []float64{lon, lat, radiusMeters} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return AreaOfInterest{}, fmt.Errorf("non-finite value %v: %w", v, ErrInvalidAOI)
		}
	}
	if radiusMeters <= 0 {
		return AreaOfInterest{}, fmt.Errorf("radius %v m: %w", radiusMeters, ErrInvalidAOI)
	}
	if lat <= -90 || lat >= 90 || lon < -180 || lon > 180 {
		return AreaOfInterest{}, fmt.Errorf("center (%v, %v) out of range: %w", lon, lat, ErrInvalidAOI)
	}

	dLat := radiusMeters / metersPerDegree
	dLon := radiusMeters / (metersPerDegree * math.Cos(lat*math.Pi/180))
	if lat-dLat <= -90 || lat+dLat >= 90 {
		return AreaOfInterest{}, fmt.Errorf("radius %v m crosses a pole: %w", radiusMeters, ErrInvalidAOI)
	}

	return AreaOfInterest{
		center: orb.Point{lon, lat},
		radius: radiusMeters,
		bound: orb.Bound{
			Min: orb.Point{lon - dLon, lat - dLat},
			Max: orb.Point{lon + dLon, lat + dLat},
		},
	}, nil
}

// Center returns the point the AOI was buffered around.
func (a AreaOfInterest) Center() orb.Point { return a.center }

// RadiusMeters returns the buffer radius.
func (a AreaOfInterest) RadiusMeters() float64 { return a.radius }

// Bound returns the AOI rectangle.
func (a AreaOfInterest) Bound() orb.Bound { return a.bound }

// Polygon returns the AOI as a closed counter-clockwise ring.
func (a AreaOfInterest) Polygon() orb.Polygon {
	return a.bound.ToPolygon()
}

// BBox returns [west, south, east, north].
func (a AreaOfInterest) BBox() [4]float64 {
	return [4]float64{a.bound.Min[0], a.bound.Min[1], a.bound.Max[0], a.bound.Max[1]}
}

// IsZero reports whether the AOI was never initialized.
func (a AreaOfInterest) IsZero() bool {
	return a.radius == 0
}

func (a AreaOfInterest) String() string {
	b := a.BBox()
	return fmt.Sprintf("[%.5f, %.5f, %.5f, %.5f]", b[0], b[1], b[2], b[3])
}
