package raster

// Mask is a per-pixel validity flag over a grid. Pixels set to false are
// excluded from every subsequent operation.
type Mask struct {
	Grid  Grid
	Valid []bool
}

// NewMask returns a mask over g with every pixel set to valid.
func NewMask(g Grid, valid bool) Mask {
	m := Mask{Grid: g, Valid: make([]bool, g.Len())}
	if valid {
		for i := range m.Valid {
			m.Valid[i] = true
		}
	}
	return m
}

// And combines two masks on the same grid.
func (m Mask) And(o Mask) (Mask, error) {
	if !m.Grid.Equal(o.Grid) {
		return Mask{}, ErrGridMismatch
	}
	out := Mask{Grid: m.Grid, Valid: make([]bool, len(m.Valid))}
	for i := range m.Valid {
		out.Valid[i] = m.Valid[i] && o.Valid[i]
	}
	return out, nil
}

// ValidCount returns the number of pixels that pass the mask.
func (m Mask) ValidCount() int {
	n := 0
	for _, ok := range m.Valid {
		if ok {
			n++
		}
	}
	return n
}
