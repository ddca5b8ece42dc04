// Package reconcile holds the pure cross-document computations: value totals,
// receipt completeness, and requisition-item assignment. Nothing here touches
// the state store; callers own all reads and writes.
package reconcile

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/procurelab/procuresim/internal/domain/entity"
)

// RequisitionTotal returns the sum of quantity x unit price across items.
// Totals are always recomputed from items, never stored.
func RequisitionTotal(items []entity.RequisitionItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Quantity.Mul(item.UnitPrice))
	}
	return total
}

// OrderTotal returns the sum of quantity x unit price across items
func OrderTotal(items []entity.OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Quantity.Mul(item.UnitPrice))
	}
	return total
}

// ItemCompleteness is the receipt progress of a single order item
type ItemCompleteness struct {
	ItemNumber int
	Ordered    decimal.Decimal
	Received   decimal.Decimal
	Complete   bool
}

// Completeness is the receipt progress of a whole order
type Completeness struct {
	Items       []ItemCompleteness
	AllComplete bool
	AnyReceived bool
}

// ReceiptCompleteness computes per-item and aggregate receipt progress.
// An order is RECEIVED when every item's received quantity equals its ordered
// quantity; PARTIALLY_RECEIVED otherwise once anything has arrived.
func ReceiptCompleteness(items []entity.OrderItem) Completeness {
	result := Completeness{
		Items:       make([]ItemCompleteness, 0, len(items)),
		AllComplete: len(items) > 0,
	}
	for _, item := range items {
		complete := item.QuantityReceived.Equal(item.Quantity)
		result.Items = append(result.Items, ItemCompleteness{
			ItemNumber: item.ItemNumber,
			Ordered:    item.Quantity,
			Received:   item.QuantityReceived,
			Complete:   complete,
		})
		if !complete {
			result.AllComplete = false
		}
		if item.QuantityReceived.IsPositive() {
			result.AnyReceived = true
		}
	}
	return result
}

// AssignItemsToOrder returns a new item slice with the named items marked
// ASSIGNED and back-referenced to the order, plus whether every item of the
// requisition is now assigned. The input requisition is not mutated; the
// caller owns the state-store write. An unknown item number is an error.
func AssignItemsToOrder(req entity.Requisition, itemNumbers []int, orderNumber string) ([]entity.RequisitionItem, bool, error) {
	items := append([]entity.RequisitionItem(nil), req.Items...)

	byNumber := make(map[int]int, len(items))
	for i, item := range items {
		byNumber[item.ItemNumber] = i
	}

	for _, n := range itemNumbers {
		i, ok := byNumber[n]
		if !ok {
			return nil, false, fmt.Errorf("requisition %s has no item %d", req.Number, n)
		}
		items[i].Status = entity.ReqItemAssigned
		items[i].OrderNumber = orderNumber
	}

	allAssigned := true
	for _, item := range items {
		if item.Status != entity.ReqItemAssigned {
			allAssigned = false
			break
		}
	}

	return items, allAssigned, nil
}
