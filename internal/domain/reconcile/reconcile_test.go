package reconcile

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/procurelab/procuresim/internal/domain/entity"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestRequisitionTotal(t *testing.T) {
	tests := []struct {
		name  string
		items []entity.RequisitionItem
		want  string
	}{
		{
			name: "two items",
			items: []entity.RequisitionItem{
				{ItemNumber: 1, Quantity: dec("10"), UnitPrice: dec("5")},
				{ItemNumber: 2, Quantity: dec("3"), UnitPrice: dec("20")},
			},
			want: "110",
		},
		{
			name:  "no items",
			items: nil,
			want:  "0",
		},
		{
			name: "fractional quantities",
			items: []entity.RequisitionItem{
				{ItemNumber: 1, Quantity: dec("2.5"), UnitPrice: dec("0.40")},
			},
			want: "1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RequisitionTotal(tt.items)
			assert.True(t, got.Equal(dec(tt.want)), "got %s, want %s", got, tt.want)
		})
	}
}

func TestOrderTotal(t *testing.T) {
	items := []entity.OrderItem{
		{ItemNumber: 1, Quantity: dec("10"), UnitPrice: dec("5")},
		{ItemNumber: 2, Quantity: dec("3"), UnitPrice: dec("20")},
	}
	assert.True(t, OrderTotal(items).Equal(dec("110")))
}

func TestReceiptCompleteness(t *testing.T) {
	tests := []struct {
		name            string
		items           []entity.OrderItem
		wantAllComplete bool
		wantAnyReceived bool
	}{
		{
			name: "nothing received",
			items: []entity.OrderItem{
				{ItemNumber: 1, Quantity: dec("10"), QuantityReceived: dec("0")},
			},
			wantAllComplete: false,
			wantAnyReceived: false,
		},
		{
			name: "partially received",
			items: []entity.OrderItem{
				{ItemNumber: 1, Quantity: dec("10"), QuantityReceived: dec("6")},
				{ItemNumber: 2, Quantity: dec("4"), QuantityReceived: dec("4")},
			},
			wantAllComplete: false,
			wantAnyReceived: true,
		},
		{
			name: "fully received",
			items: []entity.OrderItem{
				{ItemNumber: 1, Quantity: dec("10"), QuantityReceived: dec("10")},
				{ItemNumber: 2, Quantity: dec("4"), QuantityReceived: dec("4")},
			},
			wantAllComplete: true,
			wantAnyReceived: true,
		},
		{
			name:            "no items is never complete",
			items:           nil,
			wantAllComplete: false,
			wantAnyReceived: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ReceiptCompleteness(tt.items)
			assert.Equal(t, tt.wantAllComplete, got.AllComplete)
			assert.Equal(t, tt.wantAnyReceived, got.AnyReceived)
			assert.Len(t, got.Items, len(tt.items))
		})
	}
}

func TestReceiptCompleteness_PerItem(t *testing.T) {
	got := ReceiptCompleteness([]entity.OrderItem{
		{ItemNumber: 1, Quantity: dec("10"), QuantityReceived: dec("6")},
		{ItemNumber: 2, Quantity: dec("4"), QuantityReceived: dec("4")},
	})

	require.Len(t, got.Items, 2)
	assert.False(t, got.Items[0].Complete)
	assert.True(t, got.Items[1].Complete)
	assert.True(t, got.Items[0].Received.Equal(dec("6")))
}

func TestAssignItemsToOrder(t *testing.T) {
	req := entity.Requisition{
		Number: "REQ-000001",
		Items: []entity.RequisitionItem{
			{ItemNumber: 1, Status: entity.ReqItemOpen},
			{ItemNumber: 2, Status: entity.ReqItemOpen},
		},
	}

	t.Run("partial assignment", func(t *testing.T) {
		items, all, err := AssignItemsToOrder(req, []int{1}, "ORD-000001")
		require.NoError(t, err)
		assert.False(t, all)
		assert.Equal(t, entity.ReqItemAssigned, items[0].Status)
		assert.Equal(t, "ORD-000001", items[0].OrderNumber)
		assert.Equal(t, entity.ReqItemOpen, items[1].Status)
	})

	t.Run("full assignment", func(t *testing.T) {
		items, all, err := AssignItemsToOrder(req, []int{1, 2}, "ORD-000001")
		require.NoError(t, err)
		assert.True(t, all)
		for _, item := range items {
			assert.Equal(t, entity.ReqItemAssigned, item.Status)
			assert.Equal(t, "ORD-000001", item.OrderNumber)
		}
	})

	t.Run("unknown item number", func(t *testing.T) {
		_, _, err := AssignItemsToOrder(req, []int{9}, "ORD-000001")
		assert.Error(t, err)
	})

	t.Run("input not mutated", func(t *testing.T) {
		_, _, err := AssignItemsToOrder(req, []int{1, 2}, "ORD-000001")
		require.NoError(t, err)
		assert.Equal(t, entity.ReqItemOpen, req.Items[0].Status)
		assert.Empty(t, req.Items[0].OrderNumber)
	})
}
