package identity

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// Generator allocates opaque document identifiers. IDs are unique within
// a content kind and never reused after deletion.
type Generator interface {
	NewID() string
}

// UUID returns a Generator backed by random UUIDv4 strings.
func UUID() Generator { return uuidGenerator{} }

type uuidGenerator struct{}

func (uuidGenerator) NewID() string { return uuid.NewString() }

// Sequence returns a deterministic generator producing "<prefix>-1",
// "<prefix>-2", ... for tests.
func Sequence(prefix string) Generator {
	return &seqGenerator{prefix: prefix}
}

type seqGenerator struct {
	prefix string
	n      atomic.Int64
}

func (g *seqGenerator) NewID() string {
	return fmt.Sprintf("%s-%d", g.prefix, g.n.Add(1))
}
