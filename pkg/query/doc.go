// Package query converts between a URL query string and the typed
// page/limit/filters state of a report view.
//
// Decode and Encode are pure, total functions. Decode never fails:
// malformed input is recovered by clamping numbers into range and by
// dropping unknown filter keys. Encode is deterministic, so a given
// state has exactly one canonical query string, and
// Decode(Encode(Decode(q))) == Decode(q) for any raw q.
package query
