package loader

import (
	"strconv"

	"github.com/google/uuid"
)

// IDGenerator hands out document identifiers that are unique for the whole load
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator returns time-ordered UUIDv7 strings. Ids stay unique across
// separate runs as well as within one.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// SequenceGenerator returns prefix0, prefix1, ... It is unique only within a
// single generator and is meant for deterministic runs and tests.
type SequenceGenerator struct {
	prefix string
	next   int64
}

func NewSequenceGenerator(prefix string) *SequenceGenerator {
	return &SequenceGenerator{prefix: prefix}
}

func (g *SequenceGenerator) NewID() string {
	id := g.prefix + strconv.FormatInt(g.next, 10)
	g.next++
	return id
}
