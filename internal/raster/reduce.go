package raster

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// metersPerDegree is the length of one degree of latitude on the WGS-84 sphere
// approximation used for scale conversions.
const metersPerDegree = 111320.0

// Reducer selects the statistic computed by Reduce.
type Reducer int

const (
	ReduceMin Reducer = iota
	ReduceMax
	ReduceMean
	ReduceMedian
)

func (r Reducer) String() string {
	switch r {
	case ReduceMin:
		return "min"
	case ReduceMax:
		return "max"
	case ReduceMean:
		return "mean"
	case ReduceMedian:
		return "median"
	default:
		return fmt.Sprintf("reducer(%d)", int(r))
	}
}

// ScalarStat is the result of a spatial reduction.
type ScalarStat struct {
	Value float64
	Count int // valid pixels that contributed
}

// ReduceOptions bounds a spatial reduction.
type ReduceOptions struct {
	// Region restricts the reduction to pixels whose center lies inside it.
	// Nil means the whole grid.
	Region *orb.Bound

	// Scale is the sampling distance in meters. Pixels are sampled every
	// round(Scale/pixel size) rows and columns; zero samples every pixel.
	Scale float64

	// MaxPixels caps the number of sampled pixels inside the region. Zero
	// disables the cap.
	MaxPixels int
}

// Reduce computes a statistic of one band over the valid pixels selected by opts.
func Reduce(img *Image, name BandName, r Reducer, opts ReduceOptions) (ScalarStat, error) {
	b, err := img.Band(name)
	if err != nil {
		return ScalarStat{}, err
	}

	g := img.grid
	stride := samplingStride(g, opts.Scale)

	var (
		sampled int
		values  []float64
	)
	for y := 0; y < g.Height; y += stride {
		for x := 0; x < g.Width; x += stride {
			if opts.Region != nil {
				cx, cy := g.PixelCenter(x, y)
				if !opts.Region.Contains(orb.Point{cx, cy}) {
					continue
				}
			}
			sampled++
			if opts.MaxPixels > 0 && sampled > opts.MaxPixels {
				return ScalarStat{}, fmt.Errorf("reduce %s of %s: more than %d pixels: %w", r, name, opts.MaxPixels, ErrPixelBudget)
			}
			i := y*g.Width + x
			if b.Valid[i] {
				values = append(values, b.Values[i])
			}
		}
	}

	if len(values) == 0 {
		return ScalarStat{}, fmt.Errorf("reduce %s of %s: %w", r, name, ErrNoValidPixels)
	}
	return ScalarStat{Value: reduceValues(r, values), Count: len(values)}, nil
}

func reduceValues(r Reducer, values []float64) float64 {
	switch r {
	case ReduceMin:
		m := math.Inf(1)
		for _, v := range values {
			m = math.Min(m, v)
		}
		return m
	case ReduceMax:
		m := math.Inf(-1)
		for _, v := range values {
			m = math.Max(m, v)
		}
		return m
	case ReduceMean:
		sum := 0.0
		for _, v := range values {
			sum += v
		}
		return sum / float64(len(values))
	default:
		return median(values)
	}
}

// samplingStride converts a sampling scale in meters into a pixel stride.
func samplingStride(g Grid, scale float64) int {
	if scale <= 0 {
		return 1
	}
	stride := int(math.Round(scale / PixelSizeMeters(g)))
	if stride < 1 {
		return 1
	}
	return stride
}

// PixelSizeMeters approximates the ground size of one pixel. Geographic grids
// (EPSG:4326) are converted at the grid's center latitude; any other grid is
// assumed to be in meters.
func PixelSizeMeters(g Grid) float64 {
	w, h := g.PixelSize()
	if g.EPSG != 4326 {
		return math.Max(w, h)
	}
	bounds := g.Bounds()
	lat := (bounds[1] + bounds[3]) / 2
	dx := w * metersPerDegree * math.Cos(lat*math.Pi/180)
	dy := h * metersPerDegree
	return math.Max(dx, dy)
}

// DegreesForMeters returns the pixel size in degrees matching a ground
// distance at the equator.
func DegreesForMeters(m float64) float64 {
	return m / metersPerDegree
}
