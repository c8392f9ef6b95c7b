package index

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/johnallens/content-platform/internal/content"
	"github.com/johnallens/content-platform/internal/content/query"
)

func TestBuildQueryTextOnly(t *testing.T) {
	got := BuildQuery(content.CatalogItem(), query.IndexQuery{Text: "denim jacket"})
	require.Equal(t, "(denim jacket)", got)
}

func TestBuildQueryEscapesSpecials(t *testing.T) {
	got := BuildQuery(content.CatalogItem(), query.IndexQuery{Text: "a-b (c)"})
	require.Equal(t, `(a\-b \(c\))`, got)
}

func TestBuildQueryWithClauses(t *testing.T) {
	got := BuildQuery(content.AwardListing(), query.IndexQuery{
		Text: "scholarship",
		Clauses: []query.Clause{
			{Field: "amount", Op: content.FilterMin, Num: 4000},
			{Field: "amount", Op: content.FilterMax, Num: 6000},
			{Field: "tags", Op: content.FilterAnyOf, Set: []string{"design", "stem"}},
		},
	})
	require.Equal(t, "@amount:[4000 +inf] @amount:[-inf 6000] @tags:{design|stem} (scholarship)", got)
}

func TestBuildQueryEqualityOnTagField(t *testing.T) {
	got := BuildQuery(content.CatalogItem(), query.IndexQuery{
		Text:    "silk",
		Clauses: []query.Clause{{Field: "category", Op: content.FilterEq, Str: "runway"}},
	})
	require.Equal(t, "@category:{runway} (silk)", got)
}

func TestBuildQueryEmptyMatchesAll(t *testing.T) {
	require.Equal(t, "*", BuildQuery(content.CatalogItem(), query.IndexQuery{}))
}
