package pipeline

import (
	"sort"
	"time"

	"github.com/couchcryptid/lst-etl/internal/domain"
	"github.com/couchcryptid/lst-etl/internal/lst"
)

// DateFailure records why a date produced no export.
type DateFailure struct {
	Date time.Time
	Err  error
}

// Kind is the error label used in metrics and the manifest.
func (f DateFailure) Kind() string {
	return domain.ErrorKind(f.Err)
}

// Report is the outcome of one batch run.
type Report struct {
	Dates     int
	Succeeded []lst.Result
	Failed    []DateFailure
}

// OK reports whether every date was exported.
func (r *Report) OK() bool {
	return len(r.Failed) == 0
}

func (r *Report) sort() {
	sort.Slice(r.Succeeded, func(i, j int) bool { return r.Succeeded[i].Date.Before(r.Succeeded[j].Date) })
	sort.Slice(r.Failed, func(i, j int) bool { return r.Failed[i].Date.Before(r.Failed[j].Date) })
}
