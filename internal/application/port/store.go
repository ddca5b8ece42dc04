// Package port defines the interfaces the application services depend on.
// Implementations live under internal/infrastructure.
package port

import (
	"context"

	"github.com/procurelab/procuresim/internal/domain/entity"
)

// StateStore is the process-wide document store. Every operation is atomic:
// a reader never observes a torn record, and returned documents are deep
// copies that never share memory with the stored state. Lifecycle managers
// receive the store as an explicit dependency; there is no ambient global.
type StateStore interface {
	// NextRequisitionNumber returns a fresh, never-reused requisition number
	NextRequisitionNumber() string

	// NextOrderNumber returns a fresh, never-reused order number
	NextOrderNumber() string

	GetRequisition(number string) (entity.Requisition, bool)
	PutRequisition(req entity.Requisition)
	DeleteRequisition(number string) bool
	ListRequisitions() []entity.Requisition

	GetOrder(number string) (entity.Order, bool)
	PutOrder(order entity.Order)
	DeleteOrder(number string) bool
	ListOrders() []entity.Order

	// Snapshot returns a consistent copy of the full store state, including
	// the number sequences, suitable for persistence.
	Snapshot() Snapshot

	// Restore replaces the store state with the given snapshot
	Restore(snap Snapshot)
}

// Snapshot is the serializable representation of the store state. Sequences
// are part of it so document numbers are not reused after a reload.
type Snapshot struct {
	Requisitions map[string]entity.Requisition `json:"requisitions"`
	Orders       map[string]entity.Order       `json:"orders"`
	Sequences    map[string]int64              `json:"sequences"`
}

// Snapshotter persists store snapshots. Saves are best-effort from the
// store's point of view: a failed flush never fails a document operation.
type Snapshotter interface {
	// Save replaces the persisted snapshot with the given one
	Save(ctx context.Context, snap Snapshot) error

	// Load returns the persisted snapshot; found is false when nothing has
	// been saved yet.
	Load(ctx context.Context) (snap Snapshot, found bool, err error)
}
