package content

import "time"

// Fields is the kind-specific payload of a document: string values,
// numbers (float64 after JSON decoding) and string slices for tags and
// requirement lists.
type Fields map[string]interface{}

// Document is the persistent model shared by all content kinds. The
// primary store (MongoDB) is authoritative; the search index holds a
// derived projection that may lag behind between a primary commit and
// its propagation.
type Document struct {
	ID        string    `json:"id" bson:"id"`
	Fields    Fields    `json:"fields" bson:"fields"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Clone returns a copy whose Fields map and slice values are independent
// of the receiver.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	cp := *d
	cp.Fields = d.Fields.Clone()
	return &cp
}

// Clone copies the map and any string-slice values.
func (f Fields) Clone() Fields {
	if f == nil {
		return nil
	}
	out := make(Fields, len(f))
	for k, v := range f {
		if ss, ok := asStrings(v); ok {
			cpy := make([]string, len(ss))
			copy(cpy, ss)
			out[k] = cpy
			continue
		}
		out[k] = v
	}
	return out
}

// Str returns the field as a string when present.
func (f Fields) Str(key string) (string, bool) {
	v, ok := f[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Num returns the field as a float64 when present. Integer values are
// widened so callers never care how the payload was decoded.
func (f Fields) Num(key string) (float64, bool) {
	v, ok := f[key]
	if !ok {
		return 0, false
	}
	return asNumber(v)
}

// Strings returns the field as a string slice when present. JSON arrays
// decode as []interface{}, so both shapes are accepted.
func (f Fields) Strings(key string) ([]string, bool) {
	v, ok := f[key]
	if !ok {
		return nil, false
	}
	return asStrings(v)
}

func asNumber(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func asStrings(v interface{}) ([]string, bool) {
	switch s := v.(type) {
	case []string:
		return s, true
	case []interface{}:
		out := make([]string, 0, len(s))
		for _, e := range s {
			str, ok := e.(string)
			if !ok {
				return nil, false
			}
			out = append(out, str)
		}
		return out, true
	}
	return nil, false
}

// Page is the paginated envelope returned by List regardless of which
// backend served the request.
type Page struct {
	Items []*Document `json:"items"`
	Total int64       `json:"total"`
}
