package query

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/reportkit-dev/reportkit/pkg/filter"
)

// Reserved pagination parameter names. They never appear as filter keys.
const (
	ParamPage  = "page"
	ParamLimit = "limit"
)

// Pagination defaults and bounds at the URL boundary.
const (
	DefaultPage  = 1
	DefaultLimit = 20
	MinLimit     = 1
	MaxLimit     = 50
)

// State is the decoded query state. Page is 1-indexed here, as it appears
// in the URL; callers converting to an internal 0-indexed page do so at
// this boundary.
type State struct {
	Page    int
	Limit   int
	Filters filter.Selection
}

// Decode parses a raw query string into a State. A leading "?" is
// accepted and ignored.
//
// page and limit are clamped: absent, non-numeric or sub-minimum values
// fall back to the defaults, limits above MaxLimit are capped. Filter
// parameters use the array style `key[]=value` (bare `key=value` is also
// accepted); all occurrences of a key accumulate, in encounter order,
// into that key's value list. Keys outside allowed, and the reserved
// page/limit keys, never enter the filter selection. The resulting
// fragments follow the allowed-key order, which makes the decoded state
// canonical regardless of the order the fragments appeared in.
func Decode(rawQuery string, allowed []string) State {
	values := parseValues(strings.TrimPrefix(rawQuery, "?"))

	s := State{Page: DefaultPage, Limit: DefaultLimit}
	if raw := firstValue(values, ParamPage); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 1 {
			s.Page = n
		}
	}
	if raw := firstValue(values, ParamLimit); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			s.Limit = ClampLimit(n)
		}
	}

	for _, key := range allowed {
		if key == ParamPage || key == ParamLimit {
			continue
		}
		if vals := values[key]; len(vals) > 0 {
			s.Filters = s.Filters.With(key, vals)
		}
	}
	return s
}

// Encode serializes a State to its canonical query string. page and
// limit are always present; each filter value becomes one `key[]=value`
// occurrence, keys in the selection's own order, values in their
// selected order.
func Encode(s State) string {
	page := s.Page
	if page < 1 {
		page = DefaultPage
	}
	limit := ClampLimit(s.Limit)

	var b strings.Builder
	b.WriteString(ParamPage)
	b.WriteByte('=')
	b.WriteString(strconv.Itoa(page))
	b.WriteByte('&')
	b.WriteString(ParamLimit)
	b.WriteByte('=')
	b.WriteString(strconv.Itoa(limit))

	for _, e := range s.Filters.Active() {
		for _, v := range e.Values {
			b.WriteByte('&')
			b.WriteString(url.QueryEscape(e.Key))
			b.WriteString("[]=")
			b.WriteString(url.QueryEscape(v))
		}
	}
	return b.String()
}

// ClampLimit normalizes an items-per-page value into [MinLimit, MaxLimit].
// Values below the minimum fall back to DefaultLimit, values above the
// maximum are capped at MaxLimit.
func ClampLimit(n int) int {
	if n < MinLimit {
		return DefaultLimit
	}
	if n > MaxLimit {
		return MaxLimit
	}
	return n
}

// parseValues splits a query string into key to values, preserving the
// encounter order of each key's values. The array-style "[]" suffix is
// stripped from keys after unescaping, so `k[]=v`, `k%5B%5D=v` and `k=v`
// all accumulate under "k". Segments that fail to unescape are skipped.
func parseValues(rawQuery string) map[string][]string {
	values := make(map[string][]string)
	for _, segment := range strings.Split(rawQuery, "&") {
		if segment == "" {
			continue
		}
		key, value, _ := strings.Cut(segment, "=")
		key, err := url.QueryUnescape(key)
		if err != nil || key == "" {
			continue
		}
		key = strings.TrimSuffix(key, "[]")
		if key == "" {
			continue
		}
		value, err = url.QueryUnescape(value)
		if err != nil {
			continue
		}
		values[key] = append(values[key], value)
	}
	return values
}

func firstValue(values map[string][]string, key string) string {
	if vals := values[key]; len(vals) > 0 {
		return vals[0]
	}
	return ""
}
