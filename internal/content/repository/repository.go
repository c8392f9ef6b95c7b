package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/johnallens/content-platform/internal/content"
)

// Store is the primary-store contract consumed by the content service.
// It owns only mechanical persistence; write ordering and index
// propagation are the service's concern.
type Store interface {
	Insert(ctx context.Context, doc *content.Document) error
	FindByID(ctx context.Context, id string) (*content.Document, error)
	FindMany(ctx context.Context, filter bson.M, skip, limit int64) ([]*content.Document, int64, error)
	UpdatePartial(ctx context.Context, id string, fields content.Fields, updatedAt time.Time) (*content.Document, error)
	DeleteByID(ctx context.Context, id string) (bool, error)
}
