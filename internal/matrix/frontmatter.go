package matrix

// MarkerKey identifies a document as a matrix. It is written on every save.
const (
	MarkerKey   = "notematrix-plugin"
	MarkerValue = "basic"
)

// Field is one front-matter entry. Value holds whatever the raw text decoded
// to: string, json.Number, bool, nil, []any or map[string]any.
type Field struct {
	Key   string
	Value any
}

// FrontMatter is an ordered key/value bag preserved round-trip.
type FrontMatter []Field

// Get returns the value stored under key.
func (fm FrontMatter) Get(key string) (any, bool) {
	for _, f := range fm {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Set replaces the value under key or appends a new field.
func (fm FrontMatter) Set(key string, value any) FrontMatter {
	for i, f := range fm {
		if f.Key == key {
			out := fm.Clone()
			out[i].Value = value
			return out
		}
	}
	return append(fm.Clone(), Field{Key: key, Value: value})
}

// Without returns fm minus key.
func (fm FrontMatter) Without(key string) FrontMatter {
	out := make(FrontMatter, 0, len(fm))
	for _, f := range fm {
		if f.Key != key {
			out = append(out, f)
		}
	}
	return out
}

// HasMarker reports whether the marker key is present.
func (fm FrontMatter) HasMarker() bool {
	_, ok := fm.Get(MarkerKey)
	return ok
}

// Clone copies the field list. Values are treated as immutable.
func (fm FrontMatter) Clone() FrontMatter {
	if fm == nil {
		return nil
	}
	out := make(FrontMatter, len(fm))
	copy(out, fm)
	return out
}
