package content

import (
	"fmt"
	"time"
)

// FilterOp is the constraint shape a filter parameter maps to.
type FilterOp int

const (
	FilterEq    FilterOp = iota // equality on a field
	FilterMin                   // lower bound (inclusive)
	FilterMax                   // upper bound (inclusive)
	FilterAnyOf                 // set membership on a tag field
)

// FilterRule maps one request parameter to a constraint on a field.
// Parameters not covered by any rule are ignored, so newer clients can
// send filters an older deployment does not know about.
type FilterRule struct {
	Param   string
	Field   string
	Op      FilterOp
	Numeric bool // parse the parameter as a number
	Time    bool // parse the parameter as RFC3339
}

// TextField is a free-text searchable field with its ranking weight.
type TextField struct {
	Name   string
	Weight float64
}

// SortSpec is an explicit sort applied on top of relevance for kinds
// that require it.
type SortSpec struct {
	Field     string
	Ascending bool
}

// Schema describes one content kind: where it lives, what its payload
// must contain and how it is searched. The three kinds share one
// service implementation parameterized by their schema.
type Schema struct {
	Kind       string
	Collection string
	IndexName  string
	KeyPrefix  string

	Required      []string
	TextFields    []TextField
	NumericFields []string
	TagFields     []string // indexed as tag sets; single strings and lists both allowed
	ListFields    []string // must be string lists when supplied
	Filters       []FilterRule

	// SearchSort overrides relevance ordering for text-search listings.
	SearchSort *SortSpec

	// NotifyTemplate, when set, names the notification template sent
	// after a successful create.
	NotifyTemplate string

	// check runs kind-specific rules on fields that are present.
	check func(f Fields) map[string]string
}

// Validate checks a payload against the schema. For creates every
// required field must be present; for partial updates only the fields
// actually supplied are checked.
func (s *Schema) Validate(f Fields, partial bool) error {
	problems := map[string]string{}
	if !partial {
		for _, name := range s.Required {
			v, ok := f[name]
			if !ok || v == nil {
				problems[name] = "required"
				continue
			}
			if str, isStr := v.(string); isStr && str == "" {
				problems[name] = "required"
			}
		}
	}
	for _, name := range s.ListFields {
		if v, ok := f[name]; ok {
			if _, isList := asStrings(v); !isList {
				problems[name] = "must be a list of strings"
			}
		}
	}
	if s.check != nil {
		for k, msg := range s.check(f) {
			problems[k] = msg
		}
	}
	if len(problems) > 0 {
		return &ValidationError{FieldErrors: problems}
	}
	return nil
}

// IsNumericField reports whether the schema indexes the field as a number.
func (s *Schema) IsNumericField(name string) bool {
	for _, f := range s.NumericFields {
		if f == name {
			return true
		}
	}
	return false
}

// IsTagField reports whether the schema indexes the field as a tag set.
func (s *Schema) IsTagField(name string) bool {
	for _, f := range s.TagFields {
		if f == name {
			return true
		}
	}
	return false
}

// Key returns the index hash key for a document id.
func (s *Schema) Key(id string) string { return s.KeyPrefix + id }

// CatalogItem is the schema for browsable catalog posts.
func CatalogItem() *Schema {
	return &Schema{
		Kind:       "catalog",
		Collection: "catalog_items",
		IndexName:  "idx:catalog",
		KeyPrefix:  "content:catalog:",
		Required:   []string{"title", "description", "category"},
		TextFields: []TextField{
			{Name: "title", Weight: 5},
			{Name: "description", Weight: 1},
		},
		TagFields:  []string{"tags", "category"},
		ListFields: []string{"tags"},
		Filters: []FilterRule{
			{Param: "category", Field: "category", Op: FilterEq},
			{Param: "tags", Field: "tags", Op: FilterAnyOf},
		},
	}
}

// MediaEntry is the schema for uploaded media. The binary itself lives
// in object storage; documents carry only the returned url and key.
func MediaEntry() *Schema {
	return &Schema{
		Kind:       "media",
		Collection: "media_entries",
		IndexName:  "idx:media",
		KeyPrefix:  "content:media:",
		Required:   []string{"title", "description", "category"},
		TextFields: []TextField{
			{Name: "title", Weight: 5},
			{Name: "description", Weight: 1},
		},
		TagFields:  []string{"tags", "category"},
		ListFields: []string{"tags"},
		Filters: []FilterRule{
			{Param: "category", Field: "category", Op: FilterEq},
			{Param: "tags", Field: "tags", Op: FilterAnyOf},
		},
	}
}

// AwardListing is the schema for award and scholarship listings.
func AwardListing() *Schema {
	return &Schema{
		Kind:       "awards",
		Collection: "award_listings",
		IndexName:  "idx:awards",
		KeyPrefix:  "content:awards:",
		Required:   []string{"title", "description", "amount", "deadline", "requirements"},
		TextFields: []TextField{
			{Name: "title", Weight: 5},
			{Name: "description", Weight: 1},
			{Name: "requirements", Weight: 1},
		},
		NumericFields: []string{"amount", "deadline"},
		TagFields:     []string{"tags"},
		ListFields:    []string{"tags", "requirements"},
		Filters: []FilterRule{
			{Param: "min_amount", Field: "amount", Op: FilterMin, Numeric: true},
			{Param: "max_amount", Field: "amount", Op: FilterMax, Numeric: true},
			{Param: "deadline_after", Field: "deadline", Op: FilterMin, Time: true},
			{Param: "tags", Field: "tags", Op: FilterAnyOf},
		},
		SearchSort:     &SortSpec{Field: "deadline", Ascending: true},
		NotifyTemplate: "award_listing_published",
		check:          checkAwardListing,
	}
}

func checkAwardListing(f Fields) map[string]string {
	problems := map[string]string{}
	if v, ok := f["amount"]; ok {
		n, isNum := asNumber(v)
		if !isNum {
			problems["amount"] = "must be a number"
		} else if n <= 0 {
			problems["amount"] = "must be greater than zero"
		}
	}
	if v, ok := f["deadline"]; ok {
		s, isStr := v.(string)
		if !isStr {
			problems["deadline"] = "must be an RFC3339 timestamp"
		} else if _, err := ParseDeadline(s); err != nil {
			problems["deadline"] = "must be an RFC3339 timestamp"
		}
	}
	return problems
}

// ParseDeadline accepts RFC3339 timestamps and bare dates.
func ParseDeadline(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
