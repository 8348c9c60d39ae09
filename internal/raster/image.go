package raster

import (
	"fmt"
	"sort"

	"github.com/paulmach/orb"
)

// Image is a set of named bands sharing one grid.
//
// Bands returned by Band are shared with the image and must be treated as
// read-only; build new bands and attach them with WithBands instead.
type Image struct {
	grid  Grid
	bands map[BandName]*Band
}

// New creates an image from bands that must all cover g.
func New(g Grid, bands map[BandName]*Band) (*Image, error) {
	if g.Len() == 0 {
		return nil, ErrEmptyGrid
	}
	img := &Image{grid: g, bands: make(map[BandName]*Band, len(bands))}
	for name, b := range bands {
		if b == nil || b.Len() != g.Len() || len(b.Valid) != g.Len() {
			return nil, fmt.Errorf("band %s does not cover grid %s: %w", name, g, ErrGridMismatch)
		}
		img.bands[name] = b
	}
	return img, nil
}

// Grid returns the image grid.
func (img *Image) Grid() Grid { return img.grid }

// Has reports whether the image carries the named band.
func (img *Image) Has(name BandName) bool {
	_, ok := img.bands[name]
	return ok
}

// Band returns the named band.
func (img *Image) Band(name BandName) (*Band, error) {
	b, ok := img.bands[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrBandNotFound)
	}
	return b, nil
}

// Names returns the band names in lexical order.
func (img *Image) Names() []BandName {
	names := make([]BandName, 0, len(img.bands))
	for name := range img.bands {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// WithBands returns a new image holding every band of img plus the given
// bands. A band whose name already exists is replaced.
func (img *Image) WithBands(bands map[BandName]*Band) (*Image, error) {
	merged := make(map[BandName]*Band, len(img.bands)+len(bands))
	for name, b := range img.bands {
		merged[name] = b
	}
	for name, b := range bands {
		merged[name] = b
	}
	return New(img.grid, merged)
}

// Select returns a new image holding only the named bands.
func (img *Image) Select(names ...BandName) (*Image, error) {
	out := make(map[BandName]*Band, len(names))
	for _, name := range names {
		b, err := img.Band(name)
		if err != nil {
			return nil, err
		}
		out[name] = b
	}
	return New(img.grid, out)
}

// Mask returns a copy of img where every pixel rejected by m is no-data in
// every band.
func (img *Image) Mask(m Mask) (*Image, error) {
	if !img.grid.Equal(m.Grid) {
		return nil, fmt.Errorf("mask grid %s, image grid %s: %w", m.Grid, img.grid, ErrGridMismatch)
	}
	out := make(map[BandName]*Band, len(img.bands))
	for name, b := range img.bands {
		c := b.Clone()
		for i, ok := range m.Valid {
			if !ok {
				c.Invalidate(i)
			}
		}
		out[name] = c
	}
	return New(img.grid, out)
}

// ValidMask returns the pixels valid in every band of the image.
func (img *Image) ValidMask() Mask {
	m := NewMask(img.grid, true)
	for _, b := range img.bands {
		for i, ok := range b.Valid {
			if !ok {
				m.Valid[i] = false
			}
		}
	}
	return m
}

// Clip returns a copy of img where pixels whose center falls outside region
// are no-data. region must be expressed in the grid's coordinate system.
func (img *Image) Clip(region orb.Bound) (*Image, error) {
	return img.Mask(RegionMask(img.grid, region))
}

// RegionMask flags the pixels of g whose center lies inside region.
func RegionMask(g Grid, region orb.Bound) Mask {
	m := NewMask(g, false)
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			cx, cy := g.PixelCenter(x, y)
			m.Valid[y*g.Width+x] = region.Contains(orb.Point{cx, cy})
		}
	}
	return m
}

// Map applies fn to every valid pixel of src. fn reports false to turn a
// pixel into no-data.
func Map(src *Band, fn func(v float64) (float64, bool)) *Band {
	out := NewBand(src.Len())
	for i, v := range src.Values {
		if !src.Valid[i] {
			continue
		}
		if r, ok := fn(v); ok {
			out.Set(i, r)
		}
	}
	return out
}

// Combine applies fn pixel-wise to two aligned bands. A pixel is computed only
// where both inputs are valid; fn reports false to turn it into no-data.
func Combine(a, b *Band, fn func(x, y float64) (float64, bool)) (*Band, error) {
	if a.Len() != b.Len() {
		return nil, fmt.Errorf("combine %d and %d pixels: %w", a.Len(), b.Len(), ErrGridMismatch)
	}
	out := NewBand(a.Len())
	for i := range a.Values {
		if !a.Valid[i] || !b.Valid[i] {
			continue
		}
		if r, ok := fn(a.Values[i], b.Values[i]); ok {
			out.Set(i, r)
		}
	}
	return out, nil
}
