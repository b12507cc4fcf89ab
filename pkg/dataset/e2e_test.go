package dataset

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/reportkit-dev/reportkit/pkg/report"
)

// End-to-end: a view over the student roster with the URL driving the
// whole state.
func TestViewOverStudents(t *testing.T) {
	ds := Students()

	var (
		navMu  sync.Mutex
		navLog []string
	)
	updates := make(chan report.Snapshot, 16)

	view, err := report.NewView(report.Config{
		Provider:          ds,
		AllowedFilterKeys: []string{"studentClass", "gender", "house"},
		Options:           ds,
		Navigator: report.NavigatorFunc(func(query string, mode report.Mode) {
			navMu.Lock()
			navLog = append(navLog, mode.String()+" "+query)
			navMu.Unlock()
		}),
		OnUpdate: func(s report.Snapshot) { updates <- s },
	})
	if err != nil {
		t.Fatalf("NewView failed: %v", err)
	}

	if err := view.Init(context.Background(), "page=1&limit=20&gender[]=Female"); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	snap := waitSnapshot(t, updates)

	if snap.Total != 13 {
		t.Errorf("Expected total 13 female students, got %d", snap.Total)
	}
	if len(snap.Rows) != 13 {
		t.Errorf("Expected 13 rows within the 20-row page, got %d", len(snap.Rows))
	}
	if snap.Query != "page=1&limit=20&gender[]=Female" {
		t.Errorf("Expected URL to reflect the state, got %q", snap.Query)
	}
	navMu.Lock()
	if len(navLog) != 0 {
		t.Errorf("Expected no rewrite of a canonical URL, got %v", navLog)
	}
	navMu.Unlock()

	// Switch to a 5-row page size, then walk past the last page; the
	// view must correct rather than display an empty page.
	if err := view.SetLimit(context.Background(), 5); err != nil {
		t.Fatalf("SetLimit failed: %v", err)
	}
	snap = waitSnapshot(t, updates)
	if len(snap.Rows) != 5 || snap.TotalPages() != 3 {
		t.Errorf("Expected 5 rows over 3 pages, got %d rows, %d pages", len(snap.Rows), snap.TotalPages())
	}

	if err := view.SetPage(context.Background(), 7); err != nil {
		t.Fatalf("SetPage failed: %v", err)
	}
	snap = waitSnapshot(t, updates)
	if snap.State.Page != 0 {
		t.Errorf("Expected out-of-range page corrected to 0, got %d", snap.State.Page)
	}

	navMu.Lock()
	last := navLog[len(navLog)-1]
	navMu.Unlock()
	if last != "push page=1&limit=5&gender[]=Female" {
		t.Errorf("Expected corrected URL pushed, got %q", last)
	}
}

func waitSnapshot(t *testing.T, ch <-chan report.Snapshot) report.Snapshot {
	t.Helper()
	select {
	case s := <-ch:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("Timeout waiting for view update")
		return report.Snapshot{}
	}
}
