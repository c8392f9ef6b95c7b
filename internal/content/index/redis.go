package index

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/johnallens/content-platform/internal/content"
	"github.com/johnallens/content-platform/internal/content/query"
)

// docField holds the JSON snapshot of the full document so search hits
// can be returned without a round-trip to the primary store.
const docField = "__doc"

// RedisIndex implements Index on a RediSearch-capable Redis (8+) via
// rueidis. One FT index per content kind, over hashes keyed
// content:<kind>:<id>.
type RedisIndex struct {
	client rueidis.Client
	schema *content.Schema
}

func NewRedisIndex(client rueidis.Client, schema *content.Schema) *RedisIndex {
	return &RedisIndex{client: client, schema: schema}
}

// EnsureIndex creates the kind's FT index if it does not exist yet.
func (x *RedisIndex) EnsureIndex(ctx context.Context) error {
	args := []string{x.schema.IndexName, "ON", "HASH", "PREFIX", "1", x.schema.KeyPrefix, "SCHEMA"}
	for _, tf := range x.schema.TextFields {
		args = append(args, tf.Name, "TEXT")
		if tf.Weight > 0 && tf.Weight != 1 {
			args = append(args, "WEIGHT", strconv.FormatFloat(tf.Weight, 'g', -1, 64))
		}
	}
	for _, nf := range x.schema.NumericFields {
		args = append(args, nf, "NUMERIC", "SORTABLE")
	}
	for _, tf := range x.schema.TagFields {
		args = append(args, tf, "TAG", "SEPARATOR", ",")
	}
	args = append(args, "createdAt", "NUMERIC", "SORTABLE")

	cmd := x.client.B().Arbitrary("FT.CREATE").Args(args...).Build()
	if err := x.client.Do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "index already exists") {
			return nil
		}
		return backendErr("create index", err)
	}
	return nil
}

// DropIndex removes the kind's FT index together with its indexed
// hashes. A missing index is not an error.
func (x *RedisIndex) DropIndex(ctx context.Context) error {
	cmd := x.client.B().Arbitrary("FT.DROPINDEX").Args(x.schema.IndexName, "DD").Build()
	if err := x.client.Do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "unknown index") || isRedisErr(err, "no such index") {
			return nil
		}
		return backendErr("drop index", err)
	}
	return nil
}

// Upsert writes the flattened projection plus the JSON snapshot in one
// HSET. Field names are stable per schema, so rewriting the same
// snapshot leaves the hash unchanged.
func (x *RedisIndex) Upsert(ctx context.Context, doc *content.Document) error {
	fields, err := x.flatten(doc)
	if err != nil {
		return err
	}
	cmd := x.client.B().Hset().Key(x.schema.Key(doc.ID)).FieldValue()
	for k, v := range fields {
		cmd = cmd.FieldValue(k, v)
	}
	if err := x.client.Do(ctx, cmd.Build()).Error(); err != nil {
		return backendErr("upsert", err)
	}
	return nil
}

func (x *RedisIndex) Delete(ctx context.Context, id string) error {
	cmd := x.client.B().Del().Key(x.schema.Key(id)).Build()
	if err := x.client.Do(ctx, cmd).Error(); err != nil {
		return backendErr("delete", err)
	}
	return nil
}

// Search runs FT.SEARCH with the engine's default relevance scoring,
// optionally overridden by the schema's explicit sort. The reported
// total covers the full matching set, not just the returned page.
func (x *RedisIndex) Search(ctx context.Context, q query.IndexQuery, skip, limit int64) ([]*content.Document, int64, error) {
	args := []string{x.schema.IndexName, BuildQuery(x.schema, q), "RETURN", "1", docField}
	if q.Sort != nil {
		dir := "DESC"
		if q.Sort.Ascending {
			dir = "ASC"
		}
		args = append(args, "SORTBY", q.Sort.Field, dir)
	}
	args = append(args,
		"LIMIT", strconv.FormatInt(skip, 10), strconv.FormatInt(limit, 10),
		"DIALECT", "2",
	)

	cmd := x.client.B().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := x.client.Do(ctx, cmd).ToArray()
	if err != nil {
		return nil, 0, backendErr("search", err)
	}
	return parseSearchResult(raw)
}

// flatten projects a document into hash fields per the schema mapping:
// TEXT fields as plain strings, numerics via strconv, tag sets joined
// with the TAG separator, timestamps as unix seconds.
func (x *RedisIndex) flatten(doc *content.Document) (map[string]string, error) {
	snapshot, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal document %s: %w", doc.ID, err)
	}
	out := map[string]string{
		docField:    string(snapshot),
		"createdAt": strconv.FormatInt(doc.CreatedAt.Unix(), 10),
	}
	for _, tf := range x.schema.TextFields {
		if s, ok := doc.Fields.Str(tf.Name); ok {
			out[tf.Name] = s
		} else if ss, ok := doc.Fields.Strings(tf.Name); ok {
			out[tf.Name] = strings.Join(ss, " ")
		}
	}
	for _, nf := range x.schema.NumericFields {
		if n, ok := doc.Fields.Num(nf); ok {
			out[nf] = strconv.FormatFloat(n, 'g', -1, 64)
			continue
		}
		// RFC3339 deadlines index as unix seconds
		if s, ok := doc.Fields.Str(nf); ok {
			if t, err := content.ParseDeadline(s); err == nil {
				out[nf] = strconv.FormatInt(t.Unix(), 10)
			}
		}
	}
	for _, tf := range x.schema.TagFields {
		if s, ok := doc.Fields.Str(tf); ok {
			out[tf] = s
		} else if ss, ok := doc.Fields.Strings(tf); ok {
			out[tf] = strings.Join(ss, ",")
		}
	}
	return out, nil
}

// parseSearchResult decodes the RESP2 FT.SEARCH reply:
// [total, key1, fields1, key2, fields2, ...].
func parseSearchResult(raw []rueidis.RedisMessage) ([]*content.Document, int64, error) {
	if len(raw) == 0 {
		return []*content.Document{}, 0, nil
	}
	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, 0, fmt.Errorf("parse total: %w", err)
	}

	docs := []*content.Document{}
	for i := 1; i+1 < len(raw); i += 2 {
		fields, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}
		for j := 0; j+1 < len(fields); j += 2 {
			name, err := fields[j].ToString()
			if err != nil || name != docField {
				continue
			}
			payload, err := fields[j+1].ToString()
			if err != nil {
				continue
			}
			var d content.Document
			if err := json.Unmarshal([]byte(payload), &d); err != nil {
				continue
			}
			docs = append(docs, &d)
		}
	}
	return docs, total, nil
}

func backendErr(op string, err error) error {
	return fmt.Errorf("%w: index %s: %v", content.ErrBackendUnavailable, op, err)
}

func isRedisErr(err error, substr string) bool {
	re, ok := rueidis.IsRedisErr(err)
	if !ok {
		return false
	}
	return strings.Contains(strings.ToLower(re.Error()), substr)
}
