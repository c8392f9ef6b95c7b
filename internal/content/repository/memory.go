package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/johnallens/content-platform/internal/content"
)

// MemoryStore is an in-memory Store used for unit tests and local runs
// without MongoDB. It preserves insertion order so plain listings
// paginate the same way the Mongo adapter does, and it interprets the
// filter shapes the query builder emits (equality, $gte/$lte, $in).
type MemoryStore struct {
	mu    sync.RWMutex
	order []string
	docs  map[string]*content.Document
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]*content.Document)}
}

func (m *MemoryStore) Insert(_ context.Context, doc *content.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[doc.ID] = doc.Clone()
	m.order = append(m.order, doc.ID)
	return nil
}

func (m *MemoryStore) FindByID(_ context.Context, id string) (*content.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if d, ok := m.docs[id]; ok {
		return d.Clone(), nil
	}
	return nil, content.ErrNotFound
}

func (m *MemoryStore) FindMany(_ context.Context, filter bson.M, skip, limit int64) ([]*content.Document, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := []*content.Document{}
	for _, id := range m.order {
		d := m.docs[id]
		if matchesFilter(d, filter) {
			matched = append(matched, d)
		}
	}
	total := int64(len(matched))

	if skip >= total {
		return []*content.Document{}, total, nil
	}
	end := skip + limit
	if end > total {
		end = total
	}
	out := make([]*content.Document, 0, end-skip)
	for _, d := range matched[skip:end] {
		out = append(out, d.Clone())
	}
	return out, total, nil
}

func (m *MemoryStore) UpdatePartial(_ context.Context, id string, fields content.Fields, updatedAt time.Time) (*content.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok {
		return nil, content.ErrNotFound
	}
	for k, v := range fields.Clone() {
		d.Fields[k] = v
	}
	d.UpdatedAt = updatedAt
	return d.Clone(), nil
}

func (m *MemoryStore) DeleteByID(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[id]; !ok {
		return false, nil
	}
	delete(m.docs, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return true, nil
}

// matchesFilter evaluates the subset of Mongo filter syntax produced by
// the query builder against the embedded fields document.
func matchesFilter(d *content.Document, filter bson.M) bool {
	for path, cond := range filter {
		name := strings.TrimPrefix(path, "fields.")
		value, present := d.Fields[name]
		switch c := cond.(type) {
		case bson.M:
			if !matchesOps(value, present, c) {
				return false
			}
		default:
			if !present || !equalsValue(value, cond) {
				return false
			}
		}
	}
	return true
}

func matchesOps(value interface{}, present bool, ops bson.M) bool {
	for op, bound := range ops {
		switch op {
		case "$gte":
			if !present || !compareBound(value, bound, false) {
				return false
			}
		case "$lte":
			if !present || !compareBound(value, bound, true) {
				return false
			}
		case "$in":
			wanted, _ := bound.([]string)
			if !present || !containsAny(value, wanted) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func compareBound(value, bound interface{}, upper bool) bool {
	if bn, ok := toFloat(bound); ok {
		vn, ok := toFloat(value)
		if !ok {
			return false
		}
		if upper {
			return vn <= bn
		}
		return vn >= bn
	}
	bs, ok := bound.(string)
	if !ok {
		return false
	}
	vs, ok := value.(string)
	if !ok {
		return false
	}
	if upper {
		return vs <= bs
	}
	return vs >= bs
}

func containsAny(value interface{}, wanted []string) bool {
	var have []string
	switch v := value.(type) {
	case string:
		have = []string{v}
	case []string:
		have = v
	case []interface{}:
		for _, e := range v {
			if s, ok := e.(string); ok {
				have = append(have, s)
			}
		}
	}
	for _, h := range have {
		for _, w := range wanted {
			if h == w {
				return true
			}
		}
	}
	return false
}

func equalsValue(value, want interface{}) bool {
	if vn, ok := toFloat(value); ok {
		if wn, ok := toFloat(want); ok {
			return vn == wn
		}
	}
	return value == want
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
