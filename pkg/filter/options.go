package filter

// OptionSource supplies the valid values for each filter key.
//
// Implementations must be total: an unknown key returns an empty option
// list and an empty title, never an error.
type OptionSource interface {
	// Options returns the valid values for key in display order.
	Options(key string) []string

	// Title returns the display title for key, or "" if unknown.
	Title(key string) string
}

// Field describes one filter of a StaticSource.
type Field struct {
	Key     string
	Title   string
	Options []string
}

// StaticSource is an OptionSource over a fixed field table.
type StaticSource struct {
	fields []Field
	index  map[string]int
}

// NewStaticSource creates an OptionSource from a fixed list of fields.
func NewStaticSource(fields ...Field) *StaticSource {
	s := &StaticSource{
		fields: fields,
		index:  make(map[string]int, len(fields)),
	}
	for i, f := range fields {
		s.index[f.Key] = i
	}
	return s
}

func (s *StaticSource) Options(key string) []string {
	if i, ok := s.index[key]; ok {
		return s.fields[i].Options
	}
	return nil
}

func (s *StaticSource) Title(key string) string {
	if i, ok := s.index[key]; ok {
		return s.fields[i].Title
	}
	return ""
}

// Revalidate drops every value that is not currently offered by the
// source for its key. Keys left without values are dropped entirely.
// Stale values disappear silently; they are recovered state, not errors.
func Revalidate(s Selection, src OptionSource) Selection {
	out := make(Selection, 0, len(s))
	for _, e := range s {
		valid := keepValid(e.Values, src.Options(e.Key))
		if len(valid) > 0 {
			out = append(out, Entry{Key: e.Key, Values: valid})
		}
	}
	return out
}

func keepValid(values, options []string) []string {
	if len(values) == 0 || len(options) == 0 {
		return nil
	}
	allowed := make(map[string]struct{}, len(options))
	for _, o := range options {
		allowed[o] = struct{}{}
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := allowed[v]; ok {
			out = append(out, v)
		}
	}
	return out
}
