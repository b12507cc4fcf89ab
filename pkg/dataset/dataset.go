// Package dataset provides an in-memory report.Provider backed by a
// fixed set of rows.
//
// A Dataset filters, counts and paginates its rows on every fetch, and
// doubles as a filter.OptionSource by deriving each column's option list
// from the distinct values present in the data. It backs tests, demos
// and datasets loaded from object storage.
package dataset

import (
	"context"
	"fmt"

	"github.com/reportkit-dev/reportkit/pkg/filter"
	"github.com/reportkit-dev/reportkit/pkg/report"
)

// Dataset is an immutable in-memory dataset.
type Dataset struct {
	columns []report.Column
	rows    []report.Row
	titles  map[string]string
}

// New creates a dataset from columns and rows. The inputs are not
// copied; callers must not mutate them afterwards.
func New(columns []report.Column, rows []report.Row) *Dataset {
	titles := make(map[string]string, len(columns))
	for _, c := range columns {
		titles[c.Key] = c.Title
	}
	return &Dataset{columns: columns, rows: rows, titles: titles}
}

// Len returns the number of rows in the dataset.
func (d *Dataset) Len() int {
	return len(d.rows)
}

// GetReport filters the rows by p.Filters (a row matches when, for every
// filter entry, its value for that key is one of the selected values),
// then returns the requested page and the filtered total.
func (d *Dataset) GetReport(ctx context.Context, p report.Params) (*report.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.Limit < 1 {
		return nil, fmt.Errorf("dataset: invalid limit %d", p.Limit)
	}

	filtered := make([]report.Row, 0, len(d.rows))
	for _, row := range d.rows {
		if matches(row, p.Filters) {
			filtered = append(filtered, row)
		}
	}

	start := (p.Page - 1) * p.Limit
	end := start + p.Limit
	if start < 0 || start > len(filtered) {
		start = len(filtered)
	}
	if end > len(filtered) {
		end = len(filtered)
	}

	return &report.Result{
		Columns: d.columns,
		Rows:    filtered[start:end],
		Total:   len(filtered),
	}, nil
}

// Options returns the distinct values of the column in first-seen row
// order, making the dataset usable as a filter.OptionSource.
func (d *Dataset) Options(key string) []string {
	if _, ok := d.titles[key]; !ok {
		return nil
	}
	seen := make(map[string]struct{})
	var out []string
	for _, row := range d.rows {
		v, ok := stringValue(row, key)
		if !ok {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Title returns the column title for key, or "" if unknown.
func (d *Dataset) Title(key string) string {
	return d.titles[key]
}

func matches(row report.Row, filters filter.Selection) bool {
	for _, e := range filters.Active() {
		v, ok := stringValue(row, e.Key)
		if !ok {
			return false
		}
		found := false
		for _, want := range e.Values {
			if v == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func stringValue(row report.Row, key string) (string, bool) {
	raw, ok := row[key]
	if !ok || raw == nil {
		return "", false
	}
	if s, ok := raw.(string); ok {
		return s, true
	}
	return fmt.Sprintf("%v", raw), true
}
