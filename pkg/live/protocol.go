// Package live drives a report view over a WebSocket connection.
//
// Each connection owns one report.View. The thin browser client sends
// state-change events (page, limit, filter edits); the server answers
// with patches: URL updates in push or replace mode, wholesale data
// replacements, loading toggles, filter editor contents and user
// notices. The client contributes no logic beyond rendering patches and
// applying URL updates to the history.
package live

import "github.com/reportkit-dev/reportkit/pkg/report"

// EventType identifies a client event.
type EventType string

const (
	// EventInit carries the current URL query string; it must be the
	// first event on a connection.
	EventInit EventType = "init"

	EventSetPage      EventType = "setPage"
	EventSetLimit     EventType = "setLimit"
	EventOpenFilters  EventType = "openFilters"
	EventStageFilter  EventType = "stageFilter"
	EventApplyFilters EventType = "applyFilters"
	EventClearFilters EventType = "clearFilters"
	EventCloseFilters EventType = "closeFilters"
)

// Event is one message from the client.
type Event struct {
	Type EventType `json:"type"`

	// Query is the raw URL query string (EventInit).
	Query string `json:"query,omitempty"`

	// Page is the 0-indexed page (EventSetPage).
	Page *int `json:"page,omitempty"`

	// Limit is the items-per-page (EventSetLimit).
	Limit *int `json:"limit,omitempty"`

	// Key and Values carry one staged filter edit (EventStageFilter).
	Key    string   `json:"key,omitempty"`
	Values []string `json:"values,omitempty"`
}

// PatchType identifies a server patch.
type PatchType string

const (
	PatchURL     PatchType = "url"
	PatchData    PatchType = "data"
	PatchLoading PatchType = "loading"
	PatchNotice  PatchType = "notice"
	PatchFilters PatchType = "filters"
)

// FilterField is one filter control of the editor patch.
type FilterField struct {
	Key      string   `json:"key"`
	Title    string   `json:"title"`
	Options  []string `json:"options"`
	Selected []string `json:"selected"`
}

// Patch is one message to the client.
type Patch struct {
	Type PatchType `json:"type"`

	// Mode ("push" or "replace") and Query describe a URL update.
	Mode  string `json:"mode,omitempty"`
	Query string `json:"query,omitempty"`

	// Data replacement.
	Columns []report.Column `json:"columns,omitempty"`
	Rows    []report.Row    `json:"rows,omitempty"`
	Total   int             `json:"total,omitempty"`
	Page    int             `json:"page,omitempty"`
	Limit   int             `json:"limit,omitempty"`

	// Loading toggle.
	Loading bool `json:"loading,omitempty"`

	// Notice.
	Level   string `json:"level,omitempty"`
	Message string `json:"message,omitempty"`

	// Filter editor contents.
	Open   bool          `json:"open,omitempty"`
	Fields []FilterField `json:"fields,omitempty"`
}
