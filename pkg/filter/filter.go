package filter

// Entry is one key's selected values. Value order is preserved as supplied.
type Entry struct {
	Key    string
	Values []string
}

// Selection is an ordered set of filter entries.
//
// The zero value is an empty selection. Selections are treated as
// immutable: With, Without and Active return new selections and never
// modify the receiver.
type Selection []Entry

// Get returns the values selected for key, or nil if the key has no entry.
func (s Selection) Get(key string) []string {
	for _, e := range s {
		if e.Key == key {
			return e.Values
		}
	}
	return nil
}

// Has reports whether key has at least one selected value.
func (s Selection) Has(key string) bool {
	return len(s.Get(key)) > 0
}

// With returns a copy of s with key's values replaced. Duplicate values
// are removed, keeping the first occurrence. If the key has no entry yet
// it is appended at the end.
func (s Selection) With(key string, values []string) Selection {
	values = dedupe(values)
	out := make(Selection, 0, len(s)+1)
	replaced := false
	for _, e := range s {
		if e.Key == key {
			out = append(out, Entry{Key: key, Values: values})
			replaced = true
			continue
		}
		out = append(out, e)
	}
	if !replaced {
		out = append(out, Entry{Key: key, Values: values})
	}
	return out
}

// Without returns a copy of s with key's entry removed.
func (s Selection) Without(key string) Selection {
	out := make(Selection, 0, len(s))
	for _, e := range s {
		if e.Key != key {
			out = append(out, e)
		}
	}
	return out
}

// Active returns the entries that carry at least one value. Keys with an
// empty value list are dropped, not stored as empty entries.
func (s Selection) Active() Selection {
	out := make(Selection, 0, len(s))
	for _, e := range s {
		if len(e.Values) > 0 {
			out = append(out, Entry{Key: e.Key, Values: e.Values})
		}
	}
	return out
}

// Keys returns the entry keys in selection order.
func (s Selection) Keys() []string {
	keys := make([]string, len(s))
	for i, e := range s {
		keys[i] = e.Key
	}
	return keys
}

// Flatten returns the selection as a plain key to values map, for
// collaborators that do not care about entry order.
func (s Selection) Flatten() map[string][]string {
	out := make(map[string][]string, len(s))
	for _, e := range s {
		out[e.Key] = append([]string(nil), e.Values...)
	}
	return out
}

// Equal reports whether two selections carry the same active entries in
// the same order with the same values.
func (s Selection) Equal(other Selection) bool {
	a, b := s.Active(), other.Active()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Key != b[i].Key || len(a[i].Values) != len(b[i].Values) {
			return false
		}
		for j := range a[i].Values {
			if a[i].Values[j] != b[i].Values[j] {
				return false
			}
		}
	}
	return true
}

// dedupe removes duplicate values, preserving first-occurrence order.
func dedupe(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
