package report

import (
	"context"

	"github.com/reportkit-dev/reportkit/pkg/filter"
)

// Column describes one report column in display order.
type Column struct {
	Key   string `json:"key"`
	Title string `json:"title"`
}

// Row is one report record, keyed by column key.
type Row map[string]any

// Result is the outcome of one report fetch. It replaces the previous
// result wholesale; results are never merged.
type Result struct {
	Columns []Column
	Rows    []Row
	Total   int
}

// Params are the fetch parameters derived from the view state.
// Page is 1-indexed at this boundary.
type Params struct {
	Page    int
	Limit   int
	Filters filter.Selection
}

// Provider fetches report data. Implementations must honor ctx and
// report failures as errors; a nil Result with a nil error, or an error
// wrapping ErrMalformed, marks a malformed response the view recovers
// from as an empty result.
type Provider interface {
	GetReport(ctx context.Context, p Params) (*Result, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context, p Params) (*Result, error)

func (f ProviderFunc) GetReport(ctx context.Context, p Params) (*Result, error) {
	return f(ctx, p)
}

// Mode determines how a URL update is applied to the browser history.
type Mode int

const (
	// ModePush adds a new navigable history entry.
	ModePush Mode = iota

	// ModeReplace replaces the current entry, so the back button does
	// not return to the URL being corrected.
	ModeReplace
)

// String returns the wire name of the mode.
func (m Mode) String() string {
	if m == ModeReplace {
		return "replace"
	}
	return "push"
}

// Navigator applies canonical query strings to the URL boundary.
type Navigator interface {
	Navigate(query string, mode Mode)
}

// NavigatorFunc adapts a function to the Navigator interface.
type NavigatorFunc func(query string, mode Mode)

func (f NavigatorFunc) Navigate(query string, mode Mode) { f(query, mode) }
