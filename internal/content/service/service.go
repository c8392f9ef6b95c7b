// Package service implements the dual-store content service: writes
// commit to the primary document store first and are then propagated to
// the search index best-effort; reads are routed to whichever backend
// matches the query shape.
package service

import (
	"context"
	"time"

	"github.com/johnallens/content-platform/internal/content"
	"github.com/johnallens/content-platform/internal/content/index"
	"github.com/johnallens/content-platform/internal/content/query"
	"github.com/johnallens/content-platform/internal/content/repository"
	"github.com/johnallens/content-platform/internal/identity"
	"github.com/johnallens/content-platform/internal/notify"
	"github.com/johnallens/content-platform/pkg/logger"
	"github.com/johnallens/content-platform/pkg/metrics"
)

// Service serves one content kind. All three kinds share this
// implementation parameterized by their schema; construct one instance
// per kind at startup and inject the backend handles explicitly.
type Service struct {
	schema *content.Schema
	store  repository.Store
	index  index.Index
	ids    identity.Generator

	notifier        notify.Sender
	notifyRecipient string

	now func() time.Time
}

func New(schema *content.Schema, store repository.Store, idx index.Index, ids identity.Generator) *Service {
	return &Service{
		schema: schema,
		store:  store,
		index:  idx,
		ids:    ids,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithNotifier enables post-create notifications for kinds whose schema
// names a template.
func (s *Service) WithNotifier(sender notify.Sender, recipient string) *Service {
	s.notifier = sender
	s.notifyRecipient = recipient
	return s
}

// WithClock overrides the timestamp source, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Kind returns the content kind this instance serves.
func (s *Service) Kind() string { return s.schema.Kind }

// Schema returns the kind schema, for callers that need filter rules.
func (s *Service) Schema() *content.Schema { return s.schema }

// Create validates the payload, commits it to the primary store and
// propagates the committed document to the search index. A failed
// primary commit aborts the operation; a failed propagation does not —
// the document exists, is retrievable by id and by plain listing, and
// becomes searchable on a later successful propagation.
func (s *Service) Create(ctx context.Context, fields content.Fields) (*content.Document, error) {
	if err := s.schema.Validate(fields, false); err != nil {
		return nil, err
	}

	now := s.now()
	doc := &content.Document{
		ID:        s.ids.NewID(),
		Fields:    fields.Clone(),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.Insert(ctx, doc); err != nil {
		return nil, err
	}

	s.propagate(ctx, doc)
	s.notifyCreated(ctx, doc)
	return doc, nil
}

// GetByID reads from the primary store only; the index is never the
// source of truth for a single-id lookup.
func (s *Service) GetByID(ctx context.Context, id string) (*content.Document, error) {
	return s.store.FindByID(ctx, id)
}

// Update merges the partial payload into the stored document, bumps
// updatedAt and re-propagates the merged state to the index. Fields
// omitted from the payload are left untouched. An empty payload is a
// valid touch: it still bumps updatedAt.
func (s *Service) Update(ctx context.Context, id string, partial content.Fields) (*content.Document, error) {
	if err := s.schema.Validate(partial, true); err != nil {
		return nil, err
	}

	doc, err := s.store.UpdatePartial(ctx, id, partial, s.now())
	if err != nil {
		return nil, err
	}

	s.propagate(ctx, doc)
	return doc, nil
}

// Delete removes the document from the primary store and, only when
// something was actually removed, from the index. Index removal is
// best-effort; a leftover entry is reaped by a later reindex run.
func (s *Service) Delete(ctx context.Context, id string) (bool, error) {
	deleted, err := s.store.DeleteByID(ctx, id)
	if err != nil {
		return false, err
	}
	if !deleted {
		return false, nil
	}

	if err := s.index.Delete(ctx, id); err != nil {
		s.reportIndexFailure(&content.IndexPropagationError{
			Kind: s.schema.Kind, ID: id, Op: "delete", Err: err,
		})
	}
	return true, nil
}

// List serves one page. The query builder decides the backend: a
// free-text query goes to the search index (relevance-ranked, schema
// sort override applied), everything else is a plain listing from the
// primary store in creation order. Both paths report the total size of
// the matching set.
func (s *Service) List(ctx context.Context, p query.Params) (*content.Page, error) {
	plan, err := query.Build(s.schema, p)
	if err != nil {
		return nil, err
	}

	switch plan.Target {
	case query.TargetIndex:
		metrics.ListQueries.WithLabelValues(s.schema.Kind, "index").Inc()
		items, total, err := s.index.Search(ctx, plan.Index, plan.Skip, plan.Limit)
		if err != nil {
			return nil, err
		}
		return &content.Page{Items: items, Total: total}, nil
	default:
		metrics.ListQueries.WithLabelValues(s.schema.Kind, "store").Inc()
		items, total, err := s.store.FindMany(ctx, plan.Store.Filter, plan.Skip, plan.Limit)
		if err != nil {
			return nil, err
		}
		return &content.Page{Items: items, Total: total}, nil
	}
}

// Reindex re-propagates every document in the primary store to the
// search index and returns how many were written. This is the manual
// reconciliation path for drift left behind by failed propagations or
// a crash between the two write phases.
func (s *Service) Reindex(ctx context.Context, batchSize int64) (int, error) {
	if batchSize <= 0 {
		batchSize = 200
	}
	var indexed int
	for skip := int64(0); ; skip += batchSize {
		docs, _, err := s.store.FindMany(ctx, nil, skip, batchSize)
		if err != nil {
			return indexed, err
		}
		if len(docs) == 0 {
			return indexed, nil
		}
		for _, doc := range docs {
			if err := s.index.Upsert(ctx, doc); err != nil {
				return indexed, err
			}
			indexed++
		}
	}
}

// propagate mirrors a committed document into the index. Failures are
// recoverable by definition: they are logged and counted, never
// surfaced to the caller.
func (s *Service) propagate(ctx context.Context, doc *content.Document) {
	if err := s.index.Upsert(ctx, doc); err != nil {
		s.reportIndexFailure(&content.IndexPropagationError{
			Kind: s.schema.Kind, ID: doc.ID, Op: "upsert", Err: err,
		})
	}
}

func (s *Service) reportIndexFailure(err *content.IndexPropagationError) {
	metrics.IndexPropagationFailures.WithLabelValues(err.Kind).Inc()
	logger.Warnf("%v", err)
}

func (s *Service) notifyCreated(ctx context.Context, doc *content.Document) {
	if s.notifier == nil || s.schema.NotifyTemplate == "" || s.notifyRecipient == "" {
		return
	}
	title, _ := doc.Fields.Str("title")
	data := map[string]string{"id": doc.ID, "title": title}
	if err := s.notifier.Send(ctx, s.schema.NotifyTemplate, s.notifyRecipient, data); err != nil {
		logger.Warnf("notification failed for %s/%s: %v", s.schema.Kind, doc.ID, err)
	}
}
