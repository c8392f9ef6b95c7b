package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/johnallens/content-platform/internal/content"
)

// MongoStore implements Store on one MongoDB collection per content
// kind. Documents are addressed by their service-assigned "id" field,
// which carries a unique index so ids are never reused.
type MongoStore struct {
	col *mongo.Collection
}

func NewMongoStore(col *mongo.Collection) *MongoStore {
	idx := mongo.IndexModel{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)}
	col.Indexes().CreateOne(context.Background(), idx)
	return &MongoStore{col: col}
}

func (s *MongoStore) Insert(ctx context.Context, doc *content.Document) error {
	if _, err := s.col.InsertOne(ctx, doc); err != nil {
		return backendErr("insert", err)
	}
	return nil
}

func (s *MongoStore) FindByID(ctx context.Context, id string) (*content.Document, error) {
	var d content.Document
	if err := s.col.FindOne(ctx, bson.M{"id": id}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, content.ErrNotFound
		}
		return nil, backendErr("find", err)
	}
	return &d, nil
}

// FindMany returns one page in creation order plus the total count of
// the full matching set.
func (s *MongoStore) FindMany(ctx context.Context, filter bson.M, skip, limit int64) ([]*content.Document, int64, error) {
	if filter == nil {
		filter = bson.M{}
	}
	total, err := s.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, backendErr("count", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: 1}}).
		SetSkip(skip).
		SetLimit(limit)
	cur, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, backendErr("find", err)
	}
	defer cur.Close(ctx)

	out := []*content.Document{}
	for cur.Next(ctx) {
		var d content.Document
		if err := cur.Decode(&d); err != nil {
			return nil, 0, backendErr("decode", err)
		}
		out = append(out, &d)
	}
	if err := cur.Err(); err != nil {
		return nil, 0, backendErr("cursor", err)
	}
	return out, total, nil
}

// UpdatePartial merges the supplied fields into the stored document and
// bumps updatedAt, returning the post-update state.
func (s *MongoStore) UpdatePartial(ctx context.Context, id string, fields content.Fields, updatedAt time.Time) (*content.Document, error) {
	set := bson.M{"updatedAt": updatedAt}
	for k, v := range fields {
		set["fields."+k] = v
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated content.Document
	err := s.col.FindOneAndUpdate(ctx, bson.M{"id": id}, bson.M{"$set": set}, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, content.ErrNotFound
		}
		return nil, backendErr("update", err)
	}
	return &updated, nil
}

func (s *MongoStore) DeleteByID(ctx context.Context, id string) (bool, error) {
	res, err := s.col.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return false, backendErr("delete", err)
	}
	return res.DeletedCount > 0, nil
}

func backendErr(op string, err error) error {
	return fmt.Errorf("%w: mongo %s: %v", content.ErrBackendUnavailable, op, err)
}
