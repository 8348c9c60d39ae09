// Package preview renders LST layers to PNG quicklooks.
package preview

import (
	"context"
	"fmt"
	"image/color"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fogleman/gg"

	"github.com/couchcryptid/lst-etl/internal/domain"
	"github.com/couchcryptid/lst-etl/internal/raster"
)

// Renderer writes one PNG per layer into a directory. It implements
// pipeline.DisplaySink.
type Renderer struct {
	dir    string
	band   raster.BandName
	logger *slog.Logger
}

// NewRenderer creates a Renderer writing into dir.
func NewRenderer(dir string, logger *slog.Logger) *Renderer {
	return &Renderer{dir: dir, band: domain.BandLST, logger: logger}
}

// Path returns the PNG path for layer.
func (r *Renderer) Path(layer string) string {
	return filepath.Join(r.dir, layer+".png")
}

// Show colors the LST band with the palette stretched over [vis.Min,
// vis.Max]. No-data pixels are transparent.
func (r *Renderer) Show(ctx context.Context, img *raster.Image, vis domain.VisParams, layer string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	band, err := img.Band(r.band)
	if err != nil {
		return fmt.Errorf("preview %s: %w", layer, err)
	}
	ramp, err := newRamp(vis)
	if err != nil {
		return fmt.Errorf("preview %s: %w", layer, err)
	}

	g := img.Grid()
	dc := gg.NewContext(g.Width, g.Height)
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			v, ok := band.At(y*g.Width + x)
			if !ok {
				continue
			}
			c := ramp.at(v)
			dc.SetRGB255(int(c.R), int(c.G), int(c.B))
			dc.SetPixel(x, y)
		}
	}

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("create preview dir: %w", err)
	}
	path := r.Path(layer)
	if err := dc.SavePNG(path); err != nil {
		return fmt.Errorf("save preview %s: %w", path, err)
	}
	r.logger.Debug("preview written", "layer", layer, "path", path)
	return nil
}

// ramp maps values onto a linearly interpolated color palette.
type ramp struct {
	min, max float64
	colors   []color.RGBA
}

func newRamp(vis domain.VisParams) (ramp, error) {
	if !(vis.Max > vis.Min) {
		return ramp{}, fmt.Errorf("invalid stretch [%v, %v]", vis.Min, vis.Max)
	}
	if len(vis.Palette) == 0 {
		return ramp{}, fmt.Errorf("empty palette")
	}
	colors := make([]color.RGBA, len(vis.Palette))
	for i, hex := range vis.Palette {
		c, err := parseHex(hex)
		if err != nil {
			return ramp{}, err
		}
		colors[i] = c
	}
	return ramp{min: vis.Min, max: vis.Max, colors: colors}, nil
}

func (r ramp) at(v float64) color.RGBA {
	if len(r.colors) == 1 {
		return r.colors[0]
	}
	t := (v - r.min) / (r.max - r.min)
	t = math.Max(0, math.Min(1, t))
	pos := t * float64(len(r.colors)-1)
	i := int(pos)
	if i >= len(r.colors)-1 {
		return r.colors[len(r.colors)-1]
	}
	frac := pos - float64(i)
	a, b := r.colors[i], r.colors[i+1]
	return color.RGBA{
		R: lerp(a.R, b.R, frac),
		G: lerp(a.G, b.G, frac),
		B: lerp(a.B, b.B, frac),
		A: 0xff,
	}
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*t))
}

func parseHex(s string) (color.RGBA, error) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return color.RGBA{}, fmt.Errorf("palette color %q: want RRGGBB", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("palette color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
