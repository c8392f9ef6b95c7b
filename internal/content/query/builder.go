// Package query classifies a listing request and translates it into the
// native shape of whichever backend will serve it: a MongoDB filter for
// plain browsing, or a structured index query for ranked text search.
package query

import (
	"fmt"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/johnallens/content-platform/internal/content"
)

// Params is a raw listing request. Filters carries request parameters
// verbatim (URL query values); parameters without a matching schema
// rule are ignored.
type Params struct {
	Page     int
	PageSize int
	Query    string
	Filters  map[string][]string
}

// Target selects the backend a plan executes against.
type Target int

const (
	// TargetStore serves the request from the primary document store.
	TargetStore Target = iota
	// TargetIndex serves the request from the search index.
	TargetIndex
)

// Plan is a fully translated listing request.
type Plan struct {
	Target Target
	Skip   int64
	Limit  int64
	Store  StoreQuery
	Index  IndexQuery
}

// StoreQuery is the Mongo-native side of a plan. Results follow
// creation order, so repeated listings paginate stably.
type StoreQuery struct {
	Filter bson.M
}

// IndexQuery is the index-native side of a plan. The index adapter owns
// the final query syntax; the clauses here are engine-agnostic
// conjunctive constraints.
type IndexQuery struct {
	Text    string
	Clauses []Clause
	Sort    *content.SortSpec
}

// Clause is one structured constraint on an indexed field. Exactly one
// of Num/Str/Set is meaningful depending on Op.
type Clause struct {
	Field string
	Op    content.FilterOp
	Num   float64
	Str   string
	Set   []string
}

// Build validates pagination, decides routing and translates filters.
// A non-empty free-text query routes to the search index; anything else
// is a plain listing served by the primary store.
func Build(schema *content.Schema, p Params) (*Plan, error) {
	if p.Page < 1 || p.PageSize <= 0 {
		return nil, fmt.Errorf("%w: page=%d pageSize=%d", content.ErrInvalidPagination, p.Page, p.PageSize)
	}

	plan := &Plan{
		Skip:  int64(p.Page-1) * int64(p.PageSize),
		Limit: int64(p.PageSize),
	}

	if strings.TrimSpace(p.Query) != "" {
		plan.Target = TargetIndex
		plan.Index = IndexQuery{
			Text:    strings.TrimSpace(p.Query),
			Clauses: buildClauses(schema, p.Filters),
			Sort:    schema.SearchSort,
		}
		return plan, nil
	}

	plan.Target = TargetStore
	plan.Store = StoreQuery{Filter: buildStoreFilter(schema, p.Filters)}
	return plan, nil
}

// buildClauses maps known filter parameters to structured constraints.
// Unparseable values are dropped rather than rejected.
func buildClauses(schema *content.Schema, filters map[string][]string) []Clause {
	var out []Clause
	for _, rule := range schema.Filters {
		values := filters[rule.Param]
		if len(values) == 0 || values[0] == "" {
			continue
		}
		switch rule.Op {
		case content.FilterEq:
			out = append(out, Clause{Field: rule.Field, Op: content.FilterEq, Str: values[0]})
		case content.FilterMin, content.FilterMax:
			n, ok := ruleNumber(rule, values[0])
			if !ok {
				continue
			}
			out = append(out, Clause{Field: rule.Field, Op: rule.Op, Num: n})
		case content.FilterAnyOf:
			out = append(out, Clause{Field: rule.Field, Op: content.FilterAnyOf, Set: splitValues(values)})
		}
	}
	return out
}

// buildStoreFilter translates the same rules into a Mongo filter over
// the embedded fields document.
func buildStoreFilter(schema *content.Schema, filters map[string][]string) bson.M {
	out := bson.M{}
	for _, rule := range schema.Filters {
		values := filters[rule.Param]
		if len(values) == 0 || values[0] == "" {
			continue
		}
		path := "fields." + rule.Field
		switch rule.Op {
		case content.FilterEq:
			out[path] = values[0]
		case content.FilterMin, content.FilterMax:
			op := "$gte"
			if rule.Op == content.FilterMax {
				op = "$lte"
			}
			var bound interface{} = values[0]
			if rule.Numeric {
				n, ok := ruleNumber(rule, values[0])
				if !ok {
					continue
				}
				bound = n
			}
			// deadline-style bounds stay strings: RFC3339 compares
			// lexicographically in UTC
			existing, ok := out[path].(bson.M)
			if !ok {
				existing = bson.M{}
			}
			existing[op] = bound
			out[path] = existing
		case content.FilterAnyOf:
			out[path] = bson.M{"$in": splitValues(values)}
		}
	}
	return out
}

// ruleNumber parses a filter value according to the rule type. Time
// rules become unix seconds so the index can treat them as numerics.
func ruleNumber(rule content.FilterRule, raw string) (float64, bool) {
	if rule.Time {
		t, err := content.ParseDeadline(raw)
		if err != nil {
			return 0, false
		}
		return float64(t.Unix()), true
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// splitValues flattens repeated parameters and comma-separated lists.
func splitValues(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
