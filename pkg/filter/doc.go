// Package filter models the filter selections of a report view.
//
// A Selection is an ordered mapping from filter key to selected values.
// Selections are immutable snapshots: every mutation returns a new value,
// so a committed selection can be handed to renderers and providers
// without defensive copying.
//
// An OptionSource supplies the finite set of valid values for each filter
// key. The Editor stages a candidate selection against an OptionSource
// without touching the committed selection until it is applied.
package filter
