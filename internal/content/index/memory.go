package index

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/johnallens/content-platform/internal/content"
	"github.com/johnallens/content-platform/internal/content/query"
)

// MemoryIndex is an in-memory Index for unit tests and local runs. Its
// scoring is a crude term-frequency weighted by the schema's text-field
// weights — enough to preserve the "title hits outrank body hits"
// behavior the Redis engine provides.
type MemoryIndex struct {
	schema *content.Schema

	mu   sync.RWMutex
	docs map[string]*content.Document
}

func NewMemoryIndex(schema *content.Schema) *MemoryIndex {
	return &MemoryIndex{schema: schema, docs: make(map[string]*content.Document)}
}

func (x *MemoryIndex) Upsert(_ context.Context, doc *content.Document) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.docs[doc.ID] = doc.Clone()
	return nil
}

func (x *MemoryIndex) Delete(_ context.Context, id string) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	delete(x.docs, id)
	return nil
}

// Contains reports whether an id is currently indexed.
func (x *MemoryIndex) Contains(id string) bool {
	x.mu.RLock()
	defer x.mu.RUnlock()
	_, ok := x.docs[id]
	return ok
}

// Snapshot returns the indexed fields for an id, for assertions on
// propagation state.
func (x *MemoryIndex) Snapshot(id string) (*content.Document, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	d, ok := x.docs[id]
	if !ok {
		return nil, false
	}
	return d.Clone(), true
}

func (x *MemoryIndex) Search(_ context.Context, q query.IndexQuery, skip, limit int64) ([]*content.Document, int64, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	type hit struct {
		doc   *content.Document
		score float64
	}
	terms := strings.Fields(strings.ToLower(q.Text))

	var hits []hit
	for _, d := range x.docs {
		if !x.matchesClauses(d, q.Clauses) {
			continue
		}
		score := x.score(d, terms)
		if len(terms) > 0 && score == 0 {
			continue
		}
		hits = append(hits, hit{doc: d, score: score})
	}

	if q.Sort != nil {
		field, asc := q.Sort.Field, q.Sort.Ascending
		sort.SliceStable(hits, func(i, j int) bool {
			a := x.sortValue(hits[i].doc, field)
			b := x.sortValue(hits[j].doc, field)
			if asc {
				return a < b
			}
			return a > b
		})
	} else {
		sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	}

	total := int64(len(hits))
	if skip >= total {
		return []*content.Document{}, total, nil
	}
	end := skip + limit
	if end > total {
		end = total
	}
	out := make([]*content.Document, 0, end-skip)
	for _, h := range hits[skip:end] {
		out = append(out, h.doc.Clone())
	}
	return out, total, nil
}

func (x *MemoryIndex) matchesClauses(d *content.Document, clauses []query.Clause) bool {
	for _, c := range clauses {
		switch c.Op {
		case content.FilterEq:
			s, ok := d.Fields.Str(c.Field)
			if !ok || s != c.Str {
				return false
			}
		case content.FilterMin, content.FilterMax:
			n, ok := x.numericValue(d, c.Field)
			if !ok {
				return false
			}
			if c.Op == content.FilterMin && n < c.Num {
				return false
			}
			if c.Op == content.FilterMax && n > c.Num {
				return false
			}
		case content.FilterAnyOf:
			have, _ := d.Fields.Strings(c.Field)
			if s, ok := d.Fields.Str(c.Field); ok {
				have = append(have, s)
			}
			found := false
			for _, h := range have {
				for _, w := range c.Set {
					if h == w {
						found = true
					}
				}
			}
			if !found {
				return false
			}
		}
	}
	return true
}

func (x *MemoryIndex) score(d *content.Document, terms []string) float64 {
	var total float64
	for _, tf := range x.schema.TextFields {
		var text string
		if s, ok := d.Fields.Str(tf.Name); ok {
			text = s
		} else if ss, ok := d.Fields.Strings(tf.Name); ok {
			text = strings.Join(ss, " ")
		}
		text = strings.ToLower(text)
		for _, term := range terms {
			total += tf.Weight * float64(strings.Count(text, term))
		}
	}
	return total
}

func (x *MemoryIndex) numericValue(d *content.Document, field string) (float64, bool) {
	if n, ok := d.Fields.Num(field); ok {
		return n, true
	}
	if s, ok := d.Fields.Str(field); ok {
		if t, err := content.ParseDeadline(s); err == nil {
			return float64(t.Unix()), true
		}
	}
	return 0, false
}

func (x *MemoryIndex) sortValue(d *content.Document, field string) float64 {
	n, _ := x.numericValue(d, field)
	return n
}
