// Package index mirrors committed documents into a secondary full-text
// search engine. The index is best-effort and derived: it never serves
// single-id lookups and is rebuilt from the primary store when drift
// accumulates (cmd/reindex).
package index

import (
	"context"

	"github.com/johnallens/content-platform/internal/content"
	"github.com/johnallens/content-platform/internal/content/query"
)

// Index is the secondary-store contract consumed by the content
// service. Upsert replaces the whole projection for an id, so retrying
// a propagation with the same snapshot is a no-op.
type Index interface {
	Upsert(ctx context.Context, doc *content.Document) error
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, q query.IndexQuery, skip, limit int64) ([]*content.Document, int64, error)
}
