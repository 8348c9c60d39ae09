// Package report writes the per-date manifest of a batch run.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/gocarina/gocsv"

	"github.com/couchcryptid/lst-etl/internal/domain"
	"github.com/couchcryptid/lst-etl/internal/pipeline"
)

// Status values of a manifest row.
const (
	StatusExported = "exported"
	StatusFailed   = "failed"
)

// Row is one date of the manifest.
type Row struct {
	Date        string `csv:"date"`
	Description string `csv:"description"`
	Status      string `csv:"status"`
	SceneCount  int    `csv:"scene_count"`
	NDVIMin     string `csv:"ndvi_min"`
	NDVIMax     string `csv:"ndvi_max"`
	LSTMin      string `csv:"lst_min_c"`
	LSTMax      string `csv:"lst_max_c"`
	LSTMean     string `csv:"lst_mean_c"`
	ValidPixels int    `csv:"valid_pixels"`
	ErrorKind   string `csv:"error_kind"`
	Error       string `csv:"error"`
}

// Rows flattens r into date-ordered manifest rows.
func Rows(r *pipeline.Report) []*Row {
	rows := make([]*Row, 0, len(r.Succeeded)+len(r.Failed))
	for _, res := range r.Succeeded {
		rows = append(rows, &Row{
			Date:        res.Date.Format(domain.DateLayout),
			Description: domain.JobDescription(res.Date),
			Status:      StatusExported,
			SceneCount:  res.SceneCount,
			NDVIMin:     formatFloat(res.NDVIMin),
			NDVIMax:     formatFloat(res.NDVIMax),
			LSTMin:      formatFloat(res.LSTMin),
			LSTMax:      formatFloat(res.LSTMax),
			LSTMean:     formatFloat(res.LSTMean),
			ValidPixels: res.ValidPixels,
		})
	}
	for _, f := range r.Failed {
		rows = append(rows, &Row{
			Date:        f.Date.Format(domain.DateLayout),
			Description: domain.JobDescription(f.Date),
			Status:      StatusFailed,
			ErrorKind:   f.Kind(),
			Error:       f.Err.Error(),
		})
	}
	// YYYY-MM-DD sorts chronologically.
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date < rows[j].Date })
	return rows
}

// Write encodes the manifest of r as CSV with a header row.
func Write(w io.Writer, r *pipeline.Report) error {
	rows := Rows(r)
	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	return nil
}

// WriteFile writes the manifest of r to path, creating parent directories.
func WriteFile(path string, r *pipeline.Report) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create manifest dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create manifest: %w", err)
	}
	if err := Write(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadFile decodes a manifest written by WriteFile.
func ReadFile(path string) ([]*Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()

	var rows []*Row
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	return rows, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
