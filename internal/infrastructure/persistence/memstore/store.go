// Package memstore is the in-memory implementation of the state store: typed
// document maps behind a single mutex, clone-on-read/write, monotonic number
// sequences, and an optional periodic snapshot flush.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/procurelab/procuresim/internal/application/port"
	"github.com/procurelab/procuresim/internal/domain/entity"
)

const (
	seqRequisition = "requisition"
	seqOrder       = "order"
)

// Store holds all documents for the process. One lock serializes every
// operation so individual reads and writes are atomic per document.
type Store struct {
	mu           sync.RWMutex
	requisitions map[string]entity.Requisition
	orders       map[string]entity.Order
	sequences    map[string]int64
	logger       *zap.Logger
}

// New creates an empty store
func New(logger *zap.Logger) *Store {
	return &Store{
		requisitions: make(map[string]entity.Requisition),
		orders:       make(map[string]entity.Order),
		sequences:    make(map[string]int64),
		logger:       logger,
	}
}

// NextRequisitionNumber returns a fresh requisition number (REQ-000001, ...)
func (s *Store) NextRequisitionNumber() string {
	return s.next(seqRequisition, "REQ")
}

// NextOrderNumber returns a fresh order number (ORD-000001, ...)
func (s *Store) NextOrderNumber() string {
	return s.next(seqOrder, "ORD")
}

func (s *Store) next(kind, prefix string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sequences[kind]++
	return fmt.Sprintf("%s-%06d", prefix, s.sequences[kind])
}

// GetRequisition returns a deep copy of the requisition with the given number
func (s *Store) GetRequisition(number string) (entity.Requisition, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.requisitions[number]
	if !ok {
		return entity.Requisition{}, false
	}
	return req.Clone(), true
}

// PutRequisition stores a deep copy of the requisition, keyed by its number
func (s *Store) PutRequisition(req entity.Requisition) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requisitions[req.Number] = req.Clone()
}

// DeleteRequisition removes the requisition; returns false if it was absent
func (s *Store) DeleteRequisition(number string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.requisitions[number]
	delete(s.requisitions, number)
	return ok
}

// ListRequisitions returns copies of all requisitions ordered by number
func (s *Store) ListRequisitions() []entity.Requisition {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entity.Requisition, 0, len(s.requisitions))
	for _, req := range s.requisitions {
		out = append(out, req.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

// GetOrder returns a deep copy of the order with the given number
func (s *Store) GetOrder(number string) (entity.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	order, ok := s.orders[number]
	if !ok {
		return entity.Order{}, false
	}
	return order.Clone(), true
}

// PutOrder stores a deep copy of the order, keyed by its number
func (s *Store) PutOrder(order entity.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[order.Number] = order.Clone()
}

// DeleteOrder removes the order; returns false if it was absent
func (s *Store) DeleteOrder(number string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.orders[number]
	delete(s.orders, number)
	return ok
}

// ListOrders returns copies of all orders ordered by number
func (s *Store) ListOrders() []entity.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entity.Order, 0, len(s.orders))
	for _, order := range s.orders {
		out = append(out, order.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

// Snapshot returns a consistent copy of the full store state, sequences included
func (s *Store) Snapshot() port.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := port.Snapshot{
		Requisitions: make(map[string]entity.Requisition, len(s.requisitions)),
		Orders:       make(map[string]entity.Order, len(s.orders)),
		Sequences:    make(map[string]int64, len(s.sequences)),
	}
	for number, req := range s.requisitions {
		snap.Requisitions[number] = req.Clone()
	}
	for number, order := range s.orders {
		snap.Orders[number] = order.Clone()
	}
	for kind, n := range s.sequences {
		snap.Sequences[kind] = n
	}
	return snap
}

// Restore replaces the store state with the given snapshot
func (s *Store) Restore(snap port.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requisitions = make(map[string]entity.Requisition, len(snap.Requisitions))
	for number, req := range snap.Requisitions {
		s.requisitions[number] = req.Clone()
	}
	s.orders = make(map[string]entity.Order, len(snap.Orders))
	for number, order := range snap.Orders {
		s.orders[number] = order.Clone()
	}
	s.sequences = make(map[string]int64, len(snap.Sequences))
	for kind, n := range snap.Sequences {
		s.sequences[kind] = n
	}
}

// RunSnapshots flushes the store to the snapshotter every interval until the
// context is canceled. Flushes are best-effort: failures are logged and the
// loop keeps going; no document operation ever depends on one succeeding.
func (s *Store) RunSnapshots(ctx context.Context, interval time.Duration, snapshotter port.Snapshotter) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Final flush on shutdown, same best-effort contract.
			if err := snapshotter.Save(context.Background(), s.Snapshot()); err != nil {
				s.logger.Error("Final snapshot flush failed", zap.Error(err))
			}
			return
		case <-ticker.C:
			if err := snapshotter.Save(ctx, s.Snapshot()); err != nil {
				s.logger.Error("Snapshot flush failed", zap.Error(err))
			}
		}
	}
}
