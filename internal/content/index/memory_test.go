package index

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/johnallens/content-platform/internal/content"
	"github.com/johnallens/content-platform/internal/content/query"
)

func catalogDoc(id, title, description string) *content.Document {
	now := time.Now().UTC()
	return &content.Document{
		ID:        id,
		Fields:    content.Fields{"title": title, "description": description, "category": "general"},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestMemoryIndexUpsertIdempotent(t *testing.T) {
	ctx := context.Background()
	x := NewMemoryIndex(content.CatalogItem())
	d := catalogDoc("1", "Silk scarf", "Handmade")

	require.NoError(t, x.Upsert(ctx, d))
	require.NoError(t, x.Upsert(ctx, d))

	docs, total, err := x.Search(ctx, query.IndexQuery{Text: "silk"}, 0, 10)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Len(t, docs, 1)

	snap, ok := x.Snapshot("1")
	require.True(t, ok)
	require.Equal(t, d.Fields, snap.Fields)
}

func TestMemoryIndexTitleOutranksDescription(t *testing.T) {
	ctx := context.Background()
	x := NewMemoryIndex(content.CatalogItem())
	require.NoError(t, x.Upsert(ctx, catalogDoc("body", "Plain tee", "A scholarship mention in the body")))
	require.NoError(t, x.Upsert(ctx, catalogDoc("title", "Scholarship lookbook", "Nothing else")))

	docs, total, err := x.Search(ctx, query.IndexQuery{Text: "scholarship"}, 0, 10)
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	require.Equal(t, "title", docs[0].ID)
	require.Equal(t, "body", docs[1].ID)
}

func TestMemoryIndexClauseFiltering(t *testing.T) {
	ctx := context.Background()
	x := NewMemoryIndex(content.AwardListing())
	a := awardDoc("a")
	b := awardDoc("b")
	b.Fields["amount"] = 9000.0
	require.NoError(t, x.Upsert(ctx, a))
	require.NoError(t, x.Upsert(ctx, b))

	docs, total, err := x.Search(ctx, query.IndexQuery{
		Text: "scholarship",
		Clauses: []query.Clause{
			{Field: "amount", Op: content.FilterMin, Num: 4000},
			{Field: "amount", Op: content.FilterMax, Num: 6000},
		},
	}, 0, 10)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, "a", docs[0].ID)
}

func TestMemoryIndexSortOverride(t *testing.T) {
	ctx := context.Background()
	x := NewMemoryIndex(content.AwardListing())
	late := awardDoc("late")
	late.Fields["deadline"] = "2025-12-01T00:00:00Z"
	early := awardDoc("early")
	early.Fields["deadline"] = "2025-02-01T00:00:00Z"
	require.NoError(t, x.Upsert(ctx, late))
	require.NoError(t, x.Upsert(ctx, early))

	docs, _, err := x.Search(ctx, query.IndexQuery{
		Text: "scholarship",
		Sort: &content.SortSpec{Field: "deadline", Ascending: true},
	}, 0, 10)
	require.NoError(t, err)
	require.Equal(t, "early", docs[0].ID)
	require.Equal(t, "late", docs[1].ID)
}

func TestMemoryIndexDelete(t *testing.T) {
	ctx := context.Background()
	x := NewMemoryIndex(content.CatalogItem())
	require.NoError(t, x.Upsert(ctx, catalogDoc("1", "Silk scarf", "")))
	require.NoError(t, x.Delete(ctx, "1"))
	require.False(t, x.Contains("1"))

	_, total, err := x.Search(ctx, query.IndexQuery{Text: "silk"}, 0, 10)
	require.NoError(t, err)
	require.Zero(t, total)
}
