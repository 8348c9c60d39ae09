package raster

// BandName identifies a band inside an Image.
type BandName string

// Band holds one value per grid pixel. Valid[i] is false for no-data pixels,
// in which case Values[i] carries no meaning.
type Band struct {
	Values []float64
	Valid  []bool
}

// NewBand allocates a band of n pixels, all no-data.
func NewBand(n int) *Band {
	return &Band{
		Values: make([]float64, n),
		Valid:  make([]bool, n),
	}
}

// BandFromValues builds a fully valid band from a copy of values.
func BandFromValues(values []float64) *Band {
	b := NewBand(len(values))
	copy(b.Values, values)
	for i := range b.Valid {
		b.Valid[i] = true
	}
	return b
}

// Len is the number of pixels.
func (b *Band) Len() int { return len(b.Values) }

// At returns the value at pixel i and whether it is valid.
func (b *Band) At(i int) (float64, bool) {
	return b.Values[i], b.Valid[i]
}

// Set stores a valid value at pixel i.
func (b *Band) Set(i int, v float64) {
	b.Values[i] = v
	b.Valid[i] = true
}

// Invalidate marks pixel i as no-data.
func (b *Band) Invalidate(i int) {
	b.Values[i] = 0
	b.Valid[i] = false
}

// Clone returns a deep copy.
func (b *Band) Clone() *Band {
	c := &Band{
		Values: make([]float64, len(b.Values)),
		Valid:  make([]bool, len(b.Valid)),
	}
	copy(c.Values, b.Values)
	copy(c.Valid, b.Valid)
	return c
}

// ValidCount returns the number of valid pixels.
func (b *Band) ValidCount() int {
	n := 0
	for _, ok := range b.Valid {
		if ok {
			n++
		}
	}
	return n
}
