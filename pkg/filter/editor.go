package filter

// Editor stages a candidate filter selection independently of the
// committed one. The staged selection is seeded from the committed
// selection when the editor opens and can be discarded without side
// effects; only Apply hands a new selection back to the caller.
//
// The editor never validates at edit time: the staged values come either
// from the committed selection (validated on seed) or from the option
// list a selection control offers, so invalid values cannot enter here.
type Editor struct {
	allowed []string
	source  OptionSource
	staged  Selection
	open    bool
}

// NewEditor creates an editor over the allowed filter keys. Keys outside
// the allowed list are ignored by every editor operation.
func NewEditor(allowed []string, source OptionSource) *Editor {
	return &Editor{
		allowed: append([]string(nil), allowed...),
		source:  source,
	}
}

// Open seeds the staged selection from the committed one and opens the
// editor. Each committed value is re-checked against the option source at
// open time, not against a cached copy: options may have changed since
// the filter was applied, and stale values are dropped silently.
func (e *Editor) Open(applied Selection) {
	e.staged = e.seed(applied)
	e.open = true
}

// IsOpen reports whether the editor is currently open.
func (e *Editor) IsOpen() bool {
	return e.open
}

// Set replaces the staged values for one key. Other keys and the
// committed selection are untouched. Unknown keys are ignored.
func (e *Editor) Set(key string, values []string) {
	if !e.allowedKey(key) {
		return
	}
	e.staged = e.staged.With(key, values)
}

// Staged returns the current staged selection.
func (e *Editor) Staged() Selection {
	return e.staged
}

// Apply builds a fresh selection from the staged one, keeping only keys
// with at least one value, and closes the editor.
func (e *Editor) Apply() Selection {
	committed := e.staged.Active()
	e.open = false
	return committed
}

// Clear empties every allowed key's staged entry, closes the editor and
// returns the empty selection for immediate commit.
func (e *Editor) Clear() Selection {
	staged := make(Selection, 0, len(e.allowed))
	for _, key := range e.allowed {
		staged = append(staged, Entry{Key: key})
	}
	e.staged = staged
	e.open = false
	return Selection{}
}

// Discard throws the staged edits away, re-deriving the staged selection
// from the committed one exactly as Open does, and closes the editor.
func (e *Editor) Discard(applied Selection) {
	e.staged = e.seed(applied)
	e.open = false
}

func (e *Editor) seed(applied Selection) Selection {
	staged := make(Selection, 0, len(e.allowed))
	for _, key := range e.allowed {
		staged = append(staged, Entry{
			Key:    key,
			Values: keepValid(applied.Get(key), e.source.Options(key)),
		})
	}
	return staged
}

func (e *Editor) allowedKey(key string) bool {
	for _, k := range e.allowed {
		if k == key {
			return true
		}
	}
	return false
}
