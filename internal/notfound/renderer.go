package notfound

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/pandeptwidyaop/simple404/internal/options"
)

// DisplayFormats controls how timestamps are shown. Date and Time are Go
// time layouts joined with a single space.
type DisplayFormats struct {
	Date     string
	Time     string
	Location *time.Location
}

// Format renders ts in the configured location.
func (f DisplayFormats) Format(ts int64) string {
	loc := f.Location
	if loc == nil {
		loc = time.UTC
	}
	layout := strings.TrimSpace(f.Date + " " + f.Time)
	if layout == "" {
		layout = time.RFC3339
	}
	return time.Unix(ts, 0).In(loc).Format(layout)
}

// Row is one rendered log line.
type Row struct {
	URL           string `json:"url"`
	ClientAddress string `json:"client_address"`
	LastAccess    string `json:"last_access"`
	LastSeen      *int64 `json:"last_seen,omitempty"`
}

// Renderer turns the stored log into display rows.
type Renderer struct {
	store   options.Store
	option  string
	formats atomic.Pointer[DisplayFormats]
}

// NewRenderer returns a Renderer reading the option called name.
func NewRenderer(store options.Store, name string, formats DisplayFormats) *Renderer {
	r := &Renderer{store: store, option: name}
	r.SetFormats(formats)
	return r
}

// SetFormats swaps the display formats. Safe for concurrent use with Render.
func (r *Renderer) SetFormats(f DisplayFormats) {
	r.formats.Store(&f)
}

// Formats returns the current display formats.
func (r *Renderer) Formats() DisplayFormats {
	return *r.formats.Load()
}

// Render reads the log once and returns its rows in log order. URLs that
// fail re-validation render as an empty string; entries without a timestamp
// have an empty LastAccess.
func (r *Renderer) Render(ctx context.Context) ([]Row, error) {
	log, err := LoadLog(ctx, r.store, r.option)
	if err != nil {
		return nil, err
	}

	formats := r.Formats()
	rows := make([]Row, 0, log.Len())
	log.Each(func(url string, e Entry) {
		row := Row{
			URL:           SafeURL(url),
			ClientAddress: e.ClientAddress,
			LastSeen:      e.LastSeen,
		}
		if e.LastSeen != nil {
			row.LastAccess = formats.Format(*e.LastSeen)
		}
		rows = append(rows, row)
	})

	return rows, nil
}
