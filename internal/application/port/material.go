package port

import (
	"context"

	"github.com/procurelab/procuresim/internal/domain/entity"
)

// MaterialDirectory is the master-data lookup consumed by the lifecycle
// managers to validate item references. Unknown IDs return an error matching
// entity.ErrNotFound.
type MaterialDirectory interface {
	Lookup(ctx context.Context, id string) (entity.Material, error)
}
