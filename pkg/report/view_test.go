package report

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/reportkit-dev/reportkit/pkg/filter"
	"github.com/reportkit-dev/reportkit/pkg/notice"
)

var testAllowed = []string{"studentClass", "gender", "house"}

func testOptions() filter.OptionSource {
	return filter.NewStaticSource(
		filter.Field{Key: "studentClass", Title: "Class", Options: []string{"9A", "9B", "10A"}},
		filter.Field{Key: "gender", Title: "Gender", Options: []string{"Female", "Male"}},
		filter.Field{Key: "house", Title: "House", Options: []string{"Crimson", "Azure"}},
	)
}

type navEvent struct {
	query string
	mode  Mode
}

type navRecorder struct {
	mu     sync.Mutex
	events []navEvent
}

func (n *navRecorder) Navigate(query string, mode Mode) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, navEvent{query: query, mode: mode})
}

func (n *navRecorder) all() []navEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]navEvent(nil), n.events...)
}

// countingProvider records every call and delegates to fn.
type countingProvider struct {
	mu    sync.Mutex
	calls []Params
	fn    func(p Params) (*Result, error)
}

func (c *countingProvider) GetReport(ctx context.Context, p Params) (*Result, error) {
	c.mu.Lock()
	c.calls = append(c.calls, p)
	c.mu.Unlock()
	return c.fn(p)
}

func (c *countingProvider) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

func (c *countingProvider) call(i int) Params {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[i]
}

type testView struct {
	view    *View
	nav     *navRecorder
	notices *notice.Recorder
	updates chan Snapshot
}

func newTestView(t *testing.T, provider Provider) *testView {
	t.Helper()
	tv := &testView{
		nav:     &navRecorder{},
		notices: notice.NewRecorder(),
		updates: make(chan Snapshot, 16),
	}
	view, err := NewView(Config{
		Provider:          provider,
		AllowedFilterKeys: testAllowed,
		Options:           testOptions(),
		Navigator:         tv.nav,
		Notifier:          tv.notices,
		OnUpdate:          func(s Snapshot) { tv.updates <- s },
	})
	if err != nil {
		t.Fatalf("NewView failed: %v", err)
	}
	tv.view = view
	return tv
}

func (tv *testView) waitUpdate(t *testing.T) Snapshot {
	t.Helper()
	select {
	case s := <-tv.updates:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("Timeout waiting for view update")
		return Snapshot{}
	}
}

// staticResult serves a fixed total with synthetic rows for the
// requested page.
func staticResult(total int) func(p Params) (*Result, error) {
	return func(p Params) (*Result, error) {
		start := (p.Page - 1) * p.Limit
		var rows []Row
		for i := start; i < total && i < start+p.Limit; i++ {
			rows = append(rows, Row{"id": i})
		}
		return &Result{
			Columns: []Column{{Key: "id", Title: "ID"}},
			Rows:    rows,
			Total:   total,
		}, nil
	}
}

func TestNewViewRequiresProvider(t *testing.T) {
	if _, err := NewView(Config{}); err == nil {
		t.Error("Expected error for missing provider")
	}
}

func TestInitCanonicalizesMalformedURL(t *testing.T) {
	provider := &countingProvider{fn: staticResult(45)}
	tv := newTestView(t, provider)

	// Bad page, oversized limit, unknown key, one stale filter value.
	err := tv.view.Init(context.Background(),
		"page=0&limit=99&bogus=1&gender[]=Female&gender[]=Robot")
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	snap := tv.waitUpdate(t)

	if snap.State.Page != 0 || snap.State.Limit != 50 {
		t.Errorf("Expected page 0 limit 50, got %+v", snap.State)
	}
	if got := snap.State.Filters.Get("gender"); len(got) != 1 || got[0] != "Female" {
		t.Errorf("Expected stale value dropped, got %v", got)
	}

	events := tv.nav.all()
	if len(events) != 1 {
		t.Fatalf("Expected exactly one navigation, got %v", events)
	}
	if events[0].mode != ModeReplace {
		t.Error("Expected init correction to replace, not push")
	}
	want := "page=1&limit=50&gender[]=Female"
	if events[0].query != want {
		t.Errorf("Expected canonical query %q, got %q", want, events[0].query)
	}
}

func TestInitCanonicalURLNotRewritten(t *testing.T) {
	provider := &countingProvider{fn: staticResult(45)}
	tv := newTestView(t, provider)

	if err := tv.view.Init(context.Background(), "page=1&limit=20"); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	tv.waitUpdate(t)

	if events := tv.nav.all(); len(events) != 0 {
		t.Errorf("Expected no navigation for an already-canonical URL, got %v", events)
	}
}

func TestInitAcceptsLeadingQuestionMark(t *testing.T) {
	provider := &countingProvider{fn: staticResult(45)}
	tv := newTestView(t, provider)

	if err := tv.view.Init(context.Background(), "?page=1&limit=20"); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	tv.waitUpdate(t)

	if events := tv.nav.all(); len(events) != 0 {
		t.Errorf("Expected no navigation, got %v", events)
	}
}

func TestInitRunsExactlyOnce(t *testing.T) {
	provider := &countingProvider{fn: staticResult(45)}
	tv := newTestView(t, provider)

	if err := tv.view.Init(context.Background(), ""); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	tv.waitUpdate(t)

	if err := tv.view.Init(context.Background(), ""); !errors.Is(err, ErrAlreadyInitialized) {
		t.Errorf("Expected ErrAlreadyInitialized, got %v", err)
	}
}

func TestTransitionsRefusedBeforeInit(t *testing.T) {
	provider := &countingProvider{fn: staticResult(45)}
	tv := newTestView(t, provider)

	if err := tv.view.SetPage(context.Background(), 1); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Expected ErrNotInitialized from SetPage, got %v", err)
	}
	if err := tv.view.OpenFilters(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Expected ErrNotInitialized from OpenFilters, got %v", err)
	}
}

func TestSetPagePushesAndFetches(t *testing.T) {
	provider := &countingProvider{fn: staticResult(45)}
	tv := newTestView(t, provider)
	tv.view.Init(context.Background(), "page=1&limit=20")
	tv.waitUpdate(t)

	if err := tv.view.SetPage(context.Background(), 1); err != nil {
		t.Fatalf("SetPage failed: %v", err)
	}
	snap := tv.waitUpdate(t)

	if snap.State.Page != 1 {
		t.Errorf("Expected page 1, got %d", snap.State.Page)
	}
	events := tv.nav.all()
	if len(events) != 1 || events[0].mode != ModePush {
		t.Fatalf("Expected one push navigation, got %v", events)
	}
	if events[0].query != "page=2&limit=20" {
		t.Errorf("Expected 1-indexed page in URL, got %q", events[0].query)
	}
	if provider.callCount() != 2 {
		t.Errorf("Expected 2 fetches, got %d", provider.callCount())
	}
	if got := provider.call(1); got.Page != 2 {
		t.Errorf("Expected fetch with page=2, got %d", got.Page)
	}
}

func TestUnchangedStateIsNoop(t *testing.T) {
	provider := &countingProvider{fn: staticResult(45)}
	tv := newTestView(t, provider)
	tv.view.Init(context.Background(), "page=1&limit=20")
	tv.waitUpdate(t)

	if err := tv.view.SetPage(context.Background(), 0); err != nil {
		t.Fatalf("SetPage failed: %v", err)
	}
	if err := tv.view.SetLimit(context.Background(), 20); err != nil {
		t.Fatalf("SetLimit failed: %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	if n := provider.callCount(); n != 1 {
		t.Errorf("Expected no extra fetches, got %d", n)
	}
	if events := tv.nav.all(); len(events) != 0 {
		t.Errorf("Expected no navigation, got %v", events)
	}
}

func TestSetLimitClamps(t *testing.T) {
	provider := &countingProvider{fn: staticResult(45)}
	tv := newTestView(t, provider)
	tv.view.Init(context.Background(), "page=1&limit=20")
	tv.waitUpdate(t)

	if err := tv.view.SetLimit(context.Background(), 1000); err != nil {
		t.Fatalf("SetLimit failed: %v", err)
	}
	snap := tv.waitUpdate(t)

	if snap.State.Limit != 50 {
		t.Errorf("Expected limit clamped to 50, got %d", snap.State.Limit)
	}
}

func TestPaginationCorrection(t *testing.T) {
	// total=45, limit=20: pages 1..3. Requesting page 6 must reset to
	// the first page and re-fetch rather than display an empty page.
	provider := &countingProvider{fn: staticResult(45)}
	tv := newTestView(t, provider)

	if err := tv.view.Init(context.Background(), "page=6&limit=20"); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	snap := tv.waitUpdate(t)

	if snap.State.Page != 0 {
		t.Errorf("Expected corrected page 0, got %d", snap.State.Page)
	}
	if len(snap.Rows) != 20 || snap.Total != 45 {
		t.Errorf("Expected first page of 20/45 rows, got %d/%d", len(snap.Rows), snap.Total)
	}
	if provider.callCount() != 2 {
		t.Fatalf("Expected out-of-range fetch plus corrected fetch, got %d", provider.callCount())
	}
	if provider.call(0).Page != 6 || provider.call(1).Page != 1 {
		t.Errorf("Expected fetches for pages 6 then 1, got %d then %d",
			provider.call(0).Page, provider.call(1).Page)
	}

	events := tv.nav.all()
	if len(events) != 1 || events[0].mode != ModePush || events[0].query != "page=1&limit=20" {
		t.Errorf("Expected corrected URL push, got %v", events)
	}
}

func TestPaginationCorrectionEmptyResult(t *testing.T) {
	provider := &countingProvider{fn: staticResult(0)}
	tv := newTestView(t, provider)

	if err := tv.view.Init(context.Background(), "page=4&limit=20"); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	snap := tv.waitUpdate(t)

	if snap.State.Page != 0 || snap.Total != 0 {
		t.Errorf("Expected reset to empty first page, got %+v", snap)
	}
	last, ok := tv.notices.Last()
	if !ok || last.Level != notice.LevelInfo {
		t.Errorf("Expected info notice for empty result, got %+v", last)
	}
}

func TestStaleFetchDiscarded(t *testing.T) {
	// The first fetch blocks until released; a second state change
	// triggers a newer fetch. The stale result must not be displayed
	// even though it resolves last.
	release := make(chan struct{})
	provider := &countingProvider{}
	provider.fn = func(p Params) (*Result, error) {
		if p.Page == 1 {
			<-release
			return &Result{Rows: []Row{{"from": "stale"}}, Total: 1}, nil
		}
		return &Result{Rows: []Row{{"from": "fresh"}}, Total: 100}, nil
	}
	tv := newTestView(t, provider)

	if err := tv.view.Init(context.Background(), "page=1&limit=20"); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if err := tv.view.SetPage(context.Background(), 1); err != nil {
		t.Fatalf("SetPage failed: %v", err)
	}
	snap := tv.waitUpdate(t)
	if snap.Rows[0]["from"] != "fresh" {
		t.Fatalf("Expected fresh result, got %v", snap.Rows)
	}

	close(release)
	time.Sleep(50 * time.Millisecond)

	final := tv.view.Snapshot()
	if final.Total != 100 || final.Rows[0]["from"] != "fresh" {
		t.Errorf("Expected stale result discarded, got total=%d rows=%v", final.Total, final.Rows)
	}
	select {
	case s := <-tv.updates:
		t.Errorf("Expected no update from the stale fetch, got %+v", s)
	default:
	}
}

func TestProviderFailureClearsDisplay(t *testing.T) {
	provider := &countingProvider{}
	provider.fn = func(p Params) (*Result, error) {
		if p.Page == 1 {
			return staticResult(45)(p)
		}
		return nil, fmt.Errorf("backend unavailable")
	}
	tv := newTestView(t, provider)
	tv.view.Init(context.Background(), "page=1&limit=20")
	tv.waitUpdate(t)

	tv.view.SetPage(context.Background(), 1)
	snap := tv.waitUpdate(t)

	if len(snap.Rows) != 0 || snap.Total != 0 || len(snap.Columns) != 0 {
		t.Errorf("Expected cleared display, got %+v", snap)
	}
	if snap.Loading {
		t.Error("Expected view to leave loading state after failure")
	}
	last, ok := tv.notices.Last()
	if !ok || last.Level != notice.LevelError || last.Message != "backend unavailable" {
		t.Errorf("Expected error notice with failure message, got %+v", last)
	}

	// The view stays usable: a later change retries implicitly.
	tv.view.SetPage(context.Background(), 0)
	recovered := tv.waitUpdate(t)
	if recovered.Total != 45 {
		t.Errorf("Expected recovery on next fetch, got %+v", recovered)
	}
}

func TestMalformedResultTreatedAsEmpty(t *testing.T) {
	cases := map[string]func(p Params) (*Result, error){
		"nil result": func(p Params) (*Result, error) { return nil, nil },
		"malformed error": func(p Params) (*Result, error) {
			return nil, fmt.Errorf("%w: not an object", ErrMalformed)
		},
	}
	for name, fn := range cases {
		provider := &countingProvider{fn: fn}
		tv := newTestView(t, provider)
		tv.view.Init(context.Background(), "page=1&limit=20")
		snap := tv.waitUpdate(t)

		if len(snap.Rows) != 0 || snap.Total != 0 {
			t.Errorf("%s: expected empty display, got %+v", name, snap)
		}
		last, ok := tv.notices.Last()
		if !ok || last.Level != notice.LevelWarning {
			t.Errorf("%s: expected warning notice, got %+v", name, last)
		}
	}
}

func TestEmptyPageNotice(t *testing.T) {
	// An in-range page with no rows but a positive total surfaces an
	// informational notice instead of a silent blank table.
	provider := &countingProvider{fn: func(p Params) (*Result, error) {
		return &Result{Total: 5}, nil
	}}
	tv := newTestView(t, provider)
	tv.view.Init(context.Background(), "page=1&limit=20")
	tv.waitUpdate(t)

	last, ok := tv.notices.Last()
	if !ok || last.Level != notice.LevelInfo {
		t.Fatalf("Expected info notice, got %+v", last)
	}
	if last.Message == "no data found matching current filters" {
		t.Error("Expected the empty-page notice, not the no-data notice")
	}
}

func TestNoDataNotice(t *testing.T) {
	provider := &countingProvider{fn: staticResult(0)}
	tv := newTestView(t, provider)
	tv.view.Init(context.Background(), "page=1&limit=20")
	tv.waitUpdate(t)

	last, ok := tv.notices.Last()
	if !ok || last.Message != "no data found matching current filters" {
		t.Errorf("Expected no-data notice, got %+v", last)
	}
}

func TestFilterCommitIsolation(t *testing.T) {
	provider := &countingProvider{fn: staticResult(45)}
	tv := newTestView(t, provider)
	tv.view.Init(context.Background(), "page=1&limit=20")
	tv.waitUpdate(t)

	if err := tv.view.OpenFilters(); err != nil {
		t.Fatalf("OpenFilters failed: %v", err)
	}
	if err := tv.view.StageFilter("gender", []string{"Male"}); err != nil {
		t.Fatalf("StageFilter failed: %v", err)
	}

	// Staged only: applied selection, URL and fetches are untouched.
	if tv.view.Snapshot().State.Filters.Has("gender") {
		t.Error("Expected applied filters unchanged while staging")
	}
	if events := tv.nav.all(); len(events) != 0 {
		t.Errorf("Expected no navigation while staging, got %v", events)
	}
	if provider.callCount() != 1 {
		t.Errorf("Expected no fetch while staging, got %d", provider.callCount())
	}

	// Closing without applying discards the edit.
	tv.view.CloseFilters()
	if tv.view.FiltersOpen() {
		t.Error("Expected editor closed")
	}
	tv.view.OpenFilters()
	if tv.view.StagedFilters().Has("gender") {
		t.Error("Expected discarded edit to not survive reopening")
	}
}

func TestApplyFiltersCommitsAndSyncs(t *testing.T) {
	provider := &countingProvider{fn: staticResult(45)}
	tv := newTestView(t, provider)
	tv.view.Init(context.Background(), "page=1&limit=20")
	tv.waitUpdate(t)

	tv.view.OpenFilters()
	tv.view.StageFilter("gender", []string{"Male"})
	if err := tv.view.ApplyFilters(context.Background()); err != nil {
		t.Fatalf("ApplyFilters failed: %v", err)
	}
	snap := tv.waitUpdate(t)

	if got := snap.State.Filters.Get("gender"); len(got) != 1 || got[0] != "Male" {
		t.Errorf("Expected committed gender [Male], got %v", got)
	}
	if tv.view.FiltersOpen() {
		t.Error("Expected editor closed after apply")
	}

	events := tv.nav.all()
	if len(events) != 1 || events[0].query != "page=1&limit=20&gender[]=Male" {
		t.Errorf("Expected filter in pushed URL, got %v", events)
	}
	if got := provider.call(1).Filters.Get("gender"); len(got) != 1 || got[0] != "Male" {
		t.Errorf("Expected filters in fetch params, got %v", got)
	}
}

func TestApplyUnchangedFiltersIsNoop(t *testing.T) {
	provider := &countingProvider{fn: staticResult(45)}
	tv := newTestView(t, provider)
	tv.view.Init(context.Background(), "page=1&limit=20&gender[]=Female")
	tv.waitUpdate(t)

	tv.view.OpenFilters()
	if err := tv.view.ApplyFilters(context.Background()); err != nil {
		t.Fatalf("ApplyFilters failed: %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	if provider.callCount() != 1 {
		t.Errorf("Expected no fetch for unchanged filters, got %d", provider.callCount())
	}
	if tv.view.FiltersOpen() {
		t.Error("Expected editor closed even without changes")
	}
}

func TestClearFilters(t *testing.T) {
	provider := &countingProvider{fn: staticResult(45)}
	tv := newTestView(t, provider)
	tv.view.Init(context.Background(), "page=2&limit=20&gender[]=Female")
	tv.waitUpdate(t)

	tv.view.OpenFilters()
	if err := tv.view.ClearFilters(context.Background()); err != nil {
		t.Fatalf("ClearFilters failed: %v", err)
	}
	snap := tv.waitUpdate(t)

	if len(snap.State.Filters.Active()) != 0 {
		t.Errorf("Expected all filters cleared, got %v", snap.State.Filters)
	}
	events := tv.nav.all()
	if len(events) != 1 || events[0].query != "page=2&limit=20" {
		t.Errorf("Expected filterless URL push, got %v", events)
	}
}

func TestOpenFiltersRefusedWhileLoading(t *testing.T) {
	release := make(chan struct{})
	provider := &countingProvider{fn: func(p Params) (*Result, error) {
		<-release
		return staticResult(45)(p)
	}}
	tv := newTestView(t, provider)
	tv.view.Init(context.Background(), "page=1&limit=20")

	if err := tv.view.OpenFilters(); !errors.Is(err, ErrLoading) {
		t.Errorf("Expected ErrLoading while fetch outstanding, got %v", err)
	}
	if !tv.view.Loading() {
		t.Error("Expected view to report loading")
	}

	close(release)
	tv.waitUpdate(t)
	if err := tv.view.OpenFilters(); err != nil {
		t.Errorf("Expected OpenFilters to succeed after fetch, got %v", err)
	}
}

func TestFilterEditsRequireOpenEditor(t *testing.T) {
	provider := &countingProvider{fn: staticResult(45)}
	tv := newTestView(t, provider)
	tv.view.Init(context.Background(), "page=1&limit=20")
	tv.waitUpdate(t)

	if err := tv.view.StageFilter("gender", []string{"Male"}); !errors.Is(err, ErrFiltersClosed) {
		t.Errorf("Expected ErrFiltersClosed from StageFilter, got %v", err)
	}
	if err := tv.view.ApplyFilters(context.Background()); !errors.Is(err, ErrFiltersClosed) {
		t.Errorf("Expected ErrFiltersClosed from ApplyFilters, got %v", err)
	}
}

func TestSnapshotTotalPages(t *testing.T) {
	s := Snapshot{State: State{Limit: 20}, Total: 45}
	if got := s.TotalPages(); got != 3 {
		t.Errorf("Expected 3 pages, got %d", got)
	}
	s.Total = 0
	if got := s.TotalPages(); got != 0 {
		t.Errorf("Expected 0 pages, got %d", got)
	}
}

func TestPhaseString(t *testing.T) {
	tests := []struct {
		phase Phase
		want  string
	}{
		{Uninitialized, "uninitialized"},
		{Ready, "ready"},
		{Fetching, "fetching"},
		{Phase(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.phase.String(); got != tt.want {
			t.Errorf("Expected %q, got %q", tt.want, got)
		}
	}
}
