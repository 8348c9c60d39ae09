// Command validate checks the integrity of an export folder: every GeoTIFF
// carries the expected metadata and a plausible LST band, and, when a
// manifest is given, the manifest and the folder agree.
//
// Usage:
//
//	go run ./cmd/validate -dir exports -manifest exports/manifest.csv
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/airbusgeo/godal"

	"github.com/couchcryptid/lst-etl/internal/adapter/gdal"
	"github.com/couchcryptid/lst-etl/internal/domain"
	"github.com/couchcryptid/lst-etl/internal/raster"
	"github.com/couchcryptid/lst-etl/internal/report"
)

// Plausible land surface temperatures in degrees Celsius.
const (
	minPlausibleLST = -90.0
	maxPlausibleLST = 80.0
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// export is one GeoTIFF read back from the folder.
type export struct {
	path   string
	name   string
	raster *gdal.Raster
	stats  stats
}

type stats struct {
	valid          int
	min, max, mean float64
}

func main() {
	dir := flag.String("dir", "", "export folder containing LST_*.tif files")
	manifest := flag.String("manifest", "", "optional CSV manifest written by the run")
	flag.Parse()

	if *dir == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*dir, *manifest); code != 0 {
		os.Exit(code)
	}
}

func run(dir, manifestPath string) int {
	godal.RegisterAll()

	fmt.Println("=== LST Export Validation ===")
	fmt.Println()

	exports, loadErrs := loadExports(dir)
	if len(exports) == 0 && len(loadErrs) == 0 {
		fmt.Fprintf(os.Stderr, "FATAL: no LST_*.tif files in %s\n", dir)
		return 1
	}

	phases := []*phase{
		validateStructure(exports, loadErrs),
		validateValues(exports),
	}
	if manifestPath != "" {
		rows, err := report.ReadFile(manifestPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
			return 1
		}
		phases = append(phases, validateManifest(rows, exports))
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Exports: %d readable, %d unreadable\n", len(exports), len(loadErrs))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Loading ──

func loadExports(dir string) ([]*export, []string) {
	paths, err := filepath.Glob(filepath.Join(dir, "LST_*.tif"))
	if err != nil {
		return nil, []string{err.Error()}
	}
	sort.Strings(paths)

	var (
		out  []*export
		errs []string
	)
	for _, path := range paths {
		r, err := gdal.ReadGeoTIFF(path)
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}
		e := &export{
			path:   path,
			name:   strings.TrimSuffix(filepath.Base(path), ".tif"),
			raster: r,
		}
		if band, err := r.Image.Band(domain.BandLST); err == nil {
			e.stats = bandStats(band)
		}
		out = append(out, e)
	}
	return out, errs
}

func bandStats(b *raster.Band) stats {
	s := stats{min: math.Inf(1), max: math.Inf(-1)}
	var sum float64
	for i := range b.Len() {
		v, ok := b.At(i)
		if !ok {
			continue
		}
		s.valid++
		sum += v
		s.min = math.Min(s.min, v)
		s.max = math.Max(s.max, v)
	}
	if s.valid > 0 {
		s.mean = sum / float64(s.valid)
	}
	return s
}

// ── Phases ──

func validateStructure(exports []*export, loadErrs []string) *phase {
	p := &phase{name: "GeoTIFF structure"}
	for _, msg := range loadErrs {
		p.errorf("unreadable: %s", msg)
	}
	for _, e := range exports {
		meta := e.raster.Metadata
		for _, key := range gdal.MetadataKeys {
			if meta[key] == "" {
				p.errorf("%s: missing metadata %s", e.name, key)
			}
		}
		if meta["DESCRIPTION"] != "" && meta["DESCRIPTION"] != e.name {
			p.errorf("%s: DESCRIPTION is %q", e.name, meta["DESCRIPTION"])
		}
		if date, err := time.Parse(domain.DateLayout, meta["DATE"]); err != nil {
			p.errorf("%s: DATE %q: %v", e.name, meta["DATE"], err)
		} else if domain.JobDescription(date) != e.name {
			p.errorf("%s: DATE %s does not match the file name", e.name, meta["DATE"])
		}
		if n, err := strconv.Atoi(meta["SCENE_COUNT"]); err != nil || n < 1 {
			p.errorf("%s: SCENE_COUNT %q must be a positive integer", e.name, meta["SCENE_COUNT"])
		}
		if names := e.raster.Image.Names(); len(names) != 1 || names[0] != domain.BandLST {
			p.errorf("%s: bands %v, want [%s]", e.name, names, domain.BandLST)
		}
		if px, py := e.raster.Image.Grid().PixelSize(); px <= 0 || px != py {
			p.errorf("%s: pixel size %vx%v is not square", e.name, px, py)
		}
	}
	return p
}

func validateValues(exports []*export) *phase {
	p := &phase{name: "LST value range"}
	for _, e := range exports {
		if e.stats.valid == 0 {
			p.errorf("%s: no valid pixels", e.name)
			continue
		}
		if e.stats.min < minPlausibleLST || e.stats.max > maxPlausibleLST {
			p.errorf("%s: LST range [%.2f, %.2f] outside [%.0f, %.0f]",
				e.name, e.stats.min, e.stats.max, minPlausibleLST, maxPlausibleLST)
		}
	}
	return p
}

func validateManifest(rows []*report.Row, exports []*export) *phase {
	p := &phase{name: "Manifest consistency"}

	byName := make(map[string]*export, len(exports))
	for _, e := range exports {
		byName[e.name] = e
	}

	listed := make(map[string]bool, len(rows))
	for _, row := range rows {
		listed[row.Description] = true
		e, found := byName[row.Description]
		switch row.Status {
		case report.StatusExported:
			if !found {
				p.errorf("%s: exported in manifest but missing from folder", row.Description)
				continue
			}
			checkManifestRow(p, row, e)
		case report.StatusFailed:
			if found {
				p.errorf("%s: failed in manifest but present in folder", row.Description)
			}
			if row.ErrorKind == "" {
				p.errorf("%s: failed row without error_kind", row.Description)
			}
		default:
			p.errorf("%s: unknown status %q", row.Description, row.Status)
		}
	}

	for _, e := range exports {
		if !listed[e.name] {
			p.errorf("%s: present in folder but not in manifest", e.name)
		}
	}
	return p
}

func checkManifestRow(p *phase, row *report.Row, e *export) {
	if row.ValidPixels != e.stats.valid {
		p.errorf("%s: valid_pixels %d, raster has %d", row.Description, row.ValidPixels, e.stats.valid)
	}
	if strconv.Itoa(row.SceneCount) != e.raster.Metadata["SCENE_COUNT"] {
		p.errorf("%s: scene_count %d, raster metadata %q", row.Description, row.SceneCount, e.raster.Metadata["SCENE_COUNT"])
	}
	for _, c := range []struct {
		column string
		listed string
		actual float64
	}{
		{"lst_min_c", row.LSTMin, e.stats.min},
		{"lst_max_c", row.LSTMax, e.stats.max},
		{"lst_mean_c", row.LSTMean, e.stats.mean},
	} {
		v, err := strconv.ParseFloat(c.listed, 64)
		if err != nil {
			p.errorf("%s: %s %q: %v", row.Description, c.column, c.listed, err)
			continue
		}
		if !floatEq(v, c.actual) {
			p.errorf("%s: %s %s, raster gives %.4f", row.Description, c.column, c.listed, c.actual)
		}
	}
}

// floatEq compares at the manifest's four-decimal precision.
func floatEq(a, b float64) bool {
	return math.Abs(a-b) < 1e-3
}
