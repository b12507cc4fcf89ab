// Package report implements the state synchronizer of a paginated,
// filterable report view.
//
// A View owns the canonical page/limit/filters state of one mounted
// report. The state is initialized from the current URL exactly once,
// re-serialized to the URL after every change, and drives one data fetch
// per change. Fetches run asynchronously with last-triggered-wins
// semantics: a stale response never overwrites a newer one. When a fetch
// reveals that the current page is out of range for the result set, the
// view resets to the first page and re-fetches instead of rendering an
// empty page.
//
// The View collaborates with a Provider (the data source), a Navigator
// (the URL history boundary), a notice.Notifier (user notices) and a
// filter.OptionSource (valid filter values). All of them are interfaces;
// the sibling packages dataset, reporthttp, middleware and live supply
// implementations.
package report
