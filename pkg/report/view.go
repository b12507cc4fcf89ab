package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/reportkit-dev/reportkit/pkg/filter"
	"github.com/reportkit-dev/reportkit/pkg/notice"
	"github.com/reportkit-dev/reportkit/pkg/query"
)

// Phase is the lifecycle phase of a View.
type Phase int

const (
	// Uninitialized is the phase before Init has completed. No URL sync
	// and no fetch may run in this phase.
	Uninitialized Phase = iota

	// Ready means the view is initialized and no fetch is outstanding.
	Ready

	// Fetching means a fetch is outstanding; the view is loading.
	Fetching
)

// String returns a human-readable name for the phase.
func (p Phase) String() string {
	switch p {
	case Uninitialized:
		return "uninitialized"
	case Ready:
		return "ready"
	case Fetching:
		return "fetching"
	default:
		return "unknown"
	}
}

var (
	// ErrNotInitialized is returned by state transitions before Init.
	ErrNotInitialized = errors.New("report: view not initialized")

	// ErrAlreadyInitialized is returned by a second Init.
	ErrAlreadyInitialized = errors.New("report: view already initialized")

	// ErrLoading is returned when an operation is refused while a fetch
	// is outstanding, such as opening the filter editor.
	ErrLoading = errors.New("report: fetch in progress")

	// ErrFiltersClosed is returned by filter edits while the editor is
	// not open.
	ErrFiltersClosed = errors.New("report: filter editor not open")
)

// Config configures a View.
type Config struct {
	// Provider fetches the report data. Required.
	Provider Provider

	// AllowedFilterKeys whitelists query parsing and drives which filter
	// controls exist. Required for filtering; may be empty.
	AllowedFilterKeys []string

	// Options supplies the valid values per filter key. Defaults to a
	// source with no options, which drops every filter value.
	Options filter.OptionSource

	// Navigator receives canonical query strings. Defaults to a no-op.
	Navigator Navigator

	// Notifier receives user notices. Defaults to notice.Discard.
	Notifier notice.Notifier

	// OnUpdate, if set, is called after every display commit, including
	// commits that clear the display after a failure. It is called
	// without internal locks held.
	OnUpdate func(Snapshot)

	// Logger defaults to slog.Default() scoped to this component.
	Logger *slog.Logger
}

func (c *Config) normalize() {
	if c.Options == nil {
		c.Options = filter.NewStaticSource()
	}
	if c.Navigator == nil {
		c.Navigator = NavigatorFunc(func(string, Mode) {})
	}
	if c.Notifier == nil {
		c.Notifier = notice.Discard
	}
	if c.Logger == nil {
		c.Logger = slog.Default().With("component", "report")
	}
}

// State is the canonical view state. Page is 0-indexed internally; it
// becomes 1-indexed only at the URL and provider boundaries.
type State struct {
	Page    int
	Limit   int
	Filters filter.Selection
}

// Snapshot is an immutable copy of the view's state and display for
// renderers.
type Snapshot struct {
	State   State
	Columns []Column
	Rows    []Row
	Total   int
	Loading bool

	// Query is the canonical query string currently mirrored to the URL.
	Query string
}

// TotalPages returns the page count for the current total and limit.
func (s Snapshot) TotalPages() int {
	if s.State.Limit <= 0 {
		return 0
	}
	return (s.Total + s.State.Limit - 1) / s.State.Limit
}

// View owns the canonical state of one report view and keeps it
// isomorphic with the URL. All methods are safe for concurrent use;
// mutation happens by atomic replacement of immutable snapshots under a
// single mutex, and fetches resolve against the snapshot that triggered
// them.
type View struct {
	cfg    Config
	editor *filter.Editor

	mu        sync.Mutex
	phase     Phase
	state     State
	lastQuery string
	fetchID   uint64

	columns []Column
	rows    []Row
	total   int
}

// NewView creates an uninitialized View. Call Init before any other
// state transition.
func NewView(cfg Config) (*View, error) {
	if cfg.Provider == nil {
		return nil, fmt.Errorf("report: Config.Provider is required")
	}
	cfg.normalize()
	return &View{
		cfg:    cfg,
		editor: filter.NewEditor(cfg.AllowedFilterKeys, cfg.Options),
	}, nil
}

// Init derives the initial state from the raw URL query string, exactly
// once per view. The decoded state is clamped, whitelisted and validated
// against the option source; if the canonical re-serialization differs
// from the raw query, the URL is corrected in replace mode so the back
// button does not return to a malformed URL. Init then triggers the
// first fetch.
func (v *View) Init(ctx context.Context, rawQuery string) error {
	rawQuery = strings.TrimPrefix(rawQuery, "?")

	v.mu.Lock()
	if v.phase != Uninitialized {
		v.mu.Unlock()
		return ErrAlreadyInitialized
	}

	dec := query.Decode(rawQuery, v.cfg.AllowedFilterKeys)
	v.state = State{
		Page:    dec.Page - 1,
		Limit:   dec.Limit,
		Filters: filter.Revalidate(dec.Filters, v.cfg.Options),
	}
	canonical := v.encodeLocked()
	v.lastQuery = canonical
	v.phase = Fetching
	v.fetchID++
	id, snap := v.fetchID, v.state
	v.mu.Unlock()

	if canonical != rawQuery {
		v.cfg.Navigator.Navigate(canonical, ModeReplace)
	}
	v.cfg.Logger.Debug("view initialized", "query", canonical)
	go v.fetch(ctx, id, snap)
	return nil
}

// SetPage moves to the given 0-indexed page.
func (v *View) SetPage(ctx context.Context, page int) error {
	if page < 0 {
		page = 0
	}
	return v.transition(ctx, func(s State) State {
		s.Page = page
		return s
	})
}

// SetLimit changes the items-per-page, clamped into range.
func (v *View) SetLimit(ctx context.Context, limit int) error {
	limit = query.ClampLimit(limit)
	return v.transition(ctx, func(s State) State {
		s.Limit = limit
		return s
	})
}

// OpenFilters opens the filter editor, seeding the staged selection from
// the applied one. It refuses while a fetch is outstanding.
func (v *View) OpenFilters() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	switch v.phase {
	case Uninitialized:
		return ErrNotInitialized
	case Fetching:
		return ErrLoading
	}
	v.editor.Open(v.state.Filters)
	return nil
}

// FiltersOpen reports whether the filter editor is open.
func (v *View) FiltersOpen() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.editor.IsOpen()
}

// StageFilter replaces the staged values for one filter key. The applied
// selection and the URL are untouched until ApplyFilters.
func (v *View) StageFilter(key string, values []string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.editor.IsOpen() {
		return ErrFiltersClosed
	}
	v.editor.Set(key, values)
	return nil
}

// StagedFilters returns the editor's current staged selection.
func (v *View) StagedFilters() filter.Selection {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.editor.Staged()
}

// ApplyFilters commits the staged selection, keeping only keys with at
// least one value, and closes the editor. This is the only user filter
// action that changes the applied selection.
func (v *View) ApplyFilters(ctx context.Context) error {
	v.mu.Lock()
	if !v.editor.IsOpen() {
		v.mu.Unlock()
		return ErrFiltersClosed
	}
	committed := v.editor.Apply()
	v.mu.Unlock()
	return v.transition(ctx, func(s State) State {
		s.Filters = committed
		return s
	})
}

// ClearFilters empties the staged selection, immediately commits an
// empty applied selection and closes the editor.
func (v *View) ClearFilters(ctx context.Context) error {
	v.mu.Lock()
	if !v.editor.IsOpen() {
		v.mu.Unlock()
		return ErrFiltersClosed
	}
	cleared := v.editor.Clear()
	v.mu.Unlock()
	return v.transition(ctx, func(s State) State {
		s.Filters = cleared
		return s
	})
}

// CloseFilters discards the staged edits and closes the editor; the
// applied selection is untouched.
func (v *View) CloseFilters() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.editor.Discard(v.state.Filters)
}

// Loading reports whether a fetch is outstanding.
func (v *View) Loading() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.phase == Fetching
}

// Phase returns the current lifecycle phase.
func (v *View) Phase() Phase {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.phase
}

// Snapshot returns an immutable copy of the current state and display.
func (v *View) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snapshotLocked()
}

func (v *View) snapshotLocked() Snapshot {
	return Snapshot{
		State:   v.state,
		Columns: v.columns,
		Rows:    v.rows,
		Total:   v.total,
		Loading: v.phase == Fetching,
		Query:   v.lastQuery,
	}
}

// transition applies a state change. If the new state differs from the
// current one, the canonical query is pushed to the URL and exactly one
// fetch is triggered, superseding any outstanding fetch.
func (v *View) transition(ctx context.Context, apply func(State) State) error {
	v.mu.Lock()
	if v.phase == Uninitialized {
		v.mu.Unlock()
		return ErrNotInitialized
	}

	next := apply(v.state)
	if next.Page == v.state.Page && next.Limit == v.state.Limit &&
		next.Filters.Equal(v.state.Filters) {
		v.mu.Unlock()
		return nil
	}
	v.state = next
	navQuery, id, snap := v.beginFetchLocked()
	v.mu.Unlock()

	if navQuery != "" {
		v.cfg.Navigator.Navigate(navQuery, ModePush)
	}
	go v.fetch(ctx, id, snap)
	return nil
}

// beginFetchLocked marks the new state as current: it computes the
// canonical query (returned non-empty only when it changed), bumps the
// fetch ID so any outstanding fetch becomes stale, and enters Fetching.
func (v *View) beginFetchLocked() (navQuery string, id uint64, snap State) {
	q := v.encodeLocked()
	if q != v.lastQuery {
		v.lastQuery = q
		navQuery = q
	}
	v.fetchID++
	v.phase = Fetching
	return navQuery, v.fetchID, v.state
}

func (v *View) encodeLocked() string {
	return query.Encode(query.State{
		Page:    v.state.Page + 1,
		Limit:   v.state.Limit,
		Filters: v.state.Filters,
	})
}

// fetch calls the provider for the given state snapshot and resolves the
// result against the view. Only the most recently triggered fetch may
// update the display: every state commit bumps fetchID, so id still
// matching means snap is still the current state.
func (v *View) fetch(ctx context.Context, id uint64, snap State) {
	params := Params{Page: snap.Page + 1, Limit: snap.Limit, Filters: snap.Filters}
	res, err := v.cfg.Provider.GetReport(ctx, params)

	v.mu.Lock()
	if id != v.fetchID {
		v.mu.Unlock()
		return // superseded by a newer state change
	}

	if err != nil && !errors.Is(err, ErrMalformed) {
		v.columns, v.rows, v.total = nil, nil, 0
		v.phase = Ready
		update := v.snapshotLocked()
		v.mu.Unlock()

		v.cfg.Logger.Error("report fetch failed", "page", params.Page, "error", err)
		notice.Error(v.cfg.Notifier, err.Error())
		v.emit(update)
		return
	}
	if err != nil || res == nil {
		v.columns, v.rows, v.total = nil, nil, 0
		v.phase = Ready
		update := v.snapshotLocked()
		v.mu.Unlock()

		v.cfg.Logger.Warn("report response malformed", "page", params.Page, "error", err)
		notice.Warning(v.cfg.Notifier, "report data had an unexpected shape")
		v.emit(update)
		return
	}

	// Pagination correction: never display a page known to be out of
	// range for the current filter set. The received rows are not
	// committed; the reset is itself a state change and re-fetches.
	totalPages := (res.Total + snap.Limit - 1) / snap.Limit
	if (res.Total > 0 && snap.Page >= totalPages) || (res.Total == 0 && snap.Page != 0) {
		v.state.Page = 0
		navQuery, nextID, nextSnap := v.beginFetchLocked()
		v.mu.Unlock()

		v.cfg.Logger.Debug("page out of range, resetting to first page",
			"requested", snap.Page+1, "totalPages", totalPages)
		if navQuery != "" {
			v.cfg.Navigator.Navigate(navQuery, ModePush)
		}
		go v.fetch(ctx, nextID, nextSnap)
		return
	}

	v.columns, v.rows, v.total = res.Columns, res.Rows, res.Total
	v.phase = Ready
	update := v.snapshotLocked()
	v.mu.Unlock()

	switch {
	case res.Total == 0:
		notice.Info(v.cfg.Notifier, "no data found matching current filters")
	case len(res.Rows) == 0:
		notice.Info(v.cfg.Notifier, "no data for current page — adjust filters or page")
	}
	v.emit(update)
}

func (v *View) emit(s Snapshot) {
	if v.cfg.OnUpdate != nil {
		v.cfg.OnUpdate(s)
	}
}
