package process

import (
	"sync/atomic"

	"github.com/rs/xid"
)

// IDGenerator can generate process IDs.
type IDGenerator interface {
	// Generate an ID
	Generate() ID
}

// NewIDGenerator returns a sequential generator whose first emitted ID is 1.
func NewIDGenerator() IDGenerator {
	return &sequentialIDGenerator{}
}

type sequentialIDGenerator struct {
	nextID uint64
}

func (g *sequentialIDGenerator) Generate() ID {
	return ID(atomic.AddUint64(&g.nextID, 1))
}

// NewRunID returns a globally unique name for one simulation run. Run IDs
// name output artifacts such as trace databases.
func NewRunID() string {
	return xid.New().String()
}
