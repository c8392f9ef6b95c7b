package content

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound indicates the requested id is absent from the primary store.
	ErrNotFound = errors.New("document not found")

	// ErrBackendUnavailable indicates a store or index backend could not be
	// reached. Adapters wrap all connectivity failures into this kind.
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrInvalidPagination indicates page < 1 or pageSize <= 0.
	ErrInvalidPagination = errors.New("invalid pagination")
)

// ValidationError reports missing or malformed fields in a create/update
// payload. Keys are field names, values describe the problem.
type ValidationError struct {
	FieldErrors map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.FieldErrors))
	for k := range e.FieldErrors {
		names = append(names, k)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, n := range names {
		parts = append(parts, n+": "+e.FieldErrors[n])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// IndexPropagationError marks a search-index write that failed after the
// primary commit already succeeded. It is logged and counted, never
// returned to the caller: the document exists and remains retrievable
// by id and by direct listing until a later propagation succeeds.
type IndexPropagationError struct {
	Kind string
	ID   string
	Op   string
	Err  error
}

func (e *IndexPropagationError) Error() string {
	return fmt.Sprintf("index propagation failed (%s %s/%s): %v", e.Op, e.Kind, e.ID, e.Err)
}

func (e *IndexPropagationError) Unwrap() error { return e.Err }
