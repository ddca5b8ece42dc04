package memstore

import (
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/procurelab/procuresim/internal/domain/entity"
)

func newTestStore() *Store {
	return New(zap.NewNop())
}

func TestStore_NumberSequences(t *testing.T) {
	store := newTestStore()

	assert.Equal(t, "REQ-000001", store.NextRequisitionNumber())
	assert.Equal(t, "REQ-000002", store.NextRequisitionNumber())
	assert.Equal(t, "ORD-000001", store.NextOrderNumber())
	assert.Equal(t, "REQ-000003", store.NextRequisitionNumber())
}

func TestStore_GetPutDeleteRequisition(t *testing.T) {
	store := newTestStore()

	_, ok := store.GetRequisition("REQ-000001")
	assert.False(t, ok)

	req := entity.Requisition{
		Number: "REQ-000001",
		Status: entity.RequisitionDraft,
		Items: []entity.RequisitionItem{
			{ItemNumber: 1, Description: "keyboards", Quantity: decimal.NewFromInt(10), Status: entity.ReqItemOpen},
		},
	}
	store.PutRequisition(req)

	got, ok := store.GetRequisition("REQ-000001")
	require.True(t, ok)
	assert.Equal(t, entity.RequisitionDraft, got.Status)
	require.Len(t, got.Items, 1)

	assert.True(t, store.DeleteRequisition("REQ-000001"))
	assert.False(t, store.DeleteRequisition("REQ-000001"))
	_, ok = store.GetRequisition("REQ-000001")
	assert.False(t, ok)
}

func TestStore_CloneIsolation(t *testing.T) {
	store := newTestStore()

	req := entity.Requisition{
		Number: "REQ-000001",
		Status: entity.RequisitionDraft,
		Items: []entity.RequisitionItem{
			{ItemNumber: 1, Description: "original", Status: entity.ReqItemOpen},
		},
	}
	store.PutRequisition(req)

	// Mutating the caller's copy after Put must not affect the stored record.
	req.Items[0].Description = "mutated after put"
	got, ok := store.GetRequisition("REQ-000001")
	require.True(t, ok)
	assert.Equal(t, "original", got.Items[0].Description)

	// Mutating a read copy must not affect the stored record either.
	got.Items[0].Status = entity.ReqItemAssigned
	again, _ := store.GetRequisition("REQ-000001")
	assert.Equal(t, entity.ReqItemOpen, again.Items[0].Status)
}

func TestStore_ListOrderedByNumber(t *testing.T) {
	store := newTestStore()

	store.PutOrder(entity.Order{Number: "ORD-000002", Status: entity.OrderDraft})
	store.PutOrder(entity.Order{Number: "ORD-000001", Status: entity.OrderDraft})

	orders := store.ListOrders()
	require.Len(t, orders, 2)
	assert.Equal(t, "ORD-000001", orders[0].Number)
	assert.Equal(t, "ORD-000002", orders[1].Number)
}

func TestStore_SnapshotRestore(t *testing.T) {
	store := newTestStore()
	store.NextRequisitionNumber()
	store.NextRequisitionNumber()
	store.NextOrderNumber()
	store.PutRequisition(entity.Requisition{Number: "REQ-000001", Status: entity.RequisitionApproved})
	store.PutOrder(entity.Order{Number: "ORD-000001", Status: entity.OrderDraft})

	snap := store.Snapshot()

	restored := newTestStore()
	restored.Restore(snap)

	req, ok := restored.GetRequisition("REQ-000001")
	require.True(t, ok)
	assert.Equal(t, entity.RequisitionApproved, req.Status)

	_, ok = restored.GetOrder("ORD-000001")
	require.True(t, ok)

	// Sequences carry over: numbers are never reused after a restore.
	assert.Equal(t, "REQ-000003", restored.NextRequisitionNumber())
	assert.Equal(t, "ORD-000002", restored.NextOrderNumber())
}

func TestStore_ConcurrentAccess(t *testing.T) {
	store := newTestStore()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			number := store.NextRequisitionNumber()
			store.PutRequisition(entity.Requisition{Number: number, Status: entity.RequisitionDraft})
			store.GetRequisition(number)
			store.ListRequisitions()
			store.Snapshot()
		}(i)
	}
	wg.Wait()

	reqs := store.ListRequisitions()
	assert.Len(t, reqs, 16)

	seen := make(map[string]bool)
	for _, req := range reqs {
		assert.False(t, seen[req.Number], fmt.Sprintf("duplicate number %s", req.Number))
		seen[req.Number] = true
	}
}
