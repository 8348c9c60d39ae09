package raster

import (
	"errors"
	"fmt"
	"sort"
)

// MedianComposite reduces a stack of aligned images pixel-wise by per-band
// median. Only the values valid at a pixel take part; a pixel with no valid
// contributor stays no-data. With an even number of contributors the mean of
// the two middle values is used.
//
// Every image must be on the same grid and carry the bands of the first one.
func MedianComposite(images []*Image) (*Image, error) {
	if len(images) == 0 {
		return nil, errors.New("median composite of zero images")
	}
	first := images[0]
	for i, img := range images[1:] {
		if !img.grid.Equal(first.grid) {
			return nil, fmt.Errorf("image %d grid %s, expected %s: %w", i+1, img.grid, first.grid, ErrGridMismatch)
		}
	}

	n := first.grid.Len()
	out := make(map[BandName]*Band, len(first.bands))
	stack := make([]*Band, len(images))
	values := make([]float64, 0, len(images))

	for _, name := range first.Names() {
		for i, img := range images {
			b, err := img.Band(name)
			if err != nil {
				return nil, fmt.Errorf("image %d: %w", i, err)
			}
			stack[i] = b
		}

		result := NewBand(n)
		for p := 0; p < n; p++ {
			values = values[:0]
			for _, b := range stack {
				if b.Valid[p] {
					values = append(values, b.Values[p])
				}
			}
			if len(values) == 0 {
				continue
			}
			result.Set(p, median(values))
		}
		out[name] = result
	}

	return New(first.grid, out)
}

// median sorts values in place.
func median(values []float64) float64 {
	sort.Float64s(values)
	mid := len(values) / 2
	if len(values)%2 == 1 {
		return values[mid]
	}
	return (values[mid-1] + values[mid]) / 2
}
