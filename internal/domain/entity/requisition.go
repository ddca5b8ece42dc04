package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// RequisitionStatus is the lifecycle status of a requisition document
type RequisitionStatus string

const (
	RequisitionDraft     RequisitionStatus = "DRAFT"
	RequisitionSubmitted RequisitionStatus = "SUBMITTED"
	RequisitionApproved  RequisitionStatus = "APPROVED"
	RequisitionRejected  RequisitionStatus = "REJECTED"
	RequisitionOrdered   RequisitionStatus = "ORDERED"
	RequisitionCanceled  RequisitionStatus = "CANCELED"
)

var validRequisitionStatuses = map[RequisitionStatus]bool{
	RequisitionDraft:     true,
	RequisitionSubmitted: true,
	RequisitionApproved:  true,
	RequisitionRejected:  true,
	RequisitionOrdered:   true,
	RequisitionCanceled:  true,
}

var terminalRequisitionStatuses = map[RequisitionStatus]bool{
	RequisitionRejected: true,
	RequisitionOrdered:  true,
	RequisitionCanceled: true,
}

// IsValid returns true if the status is a known requisition status
func (s RequisitionStatus) IsValid() bool {
	return validRequisitionStatuses[s]
}

// IsTerminal returns true if no further transition is legal from the status
func (s RequisitionStatus) IsTerminal() bool {
	return terminalRequisitionStatuses[s]
}

// String returns the string representation of the status
func (s RequisitionStatus) String() string {
	return string(s)
}

// RequisitionItemStatus is the lifecycle status of a requisition line
type RequisitionItemStatus string

const (
	ReqItemOpen     RequisitionItemStatus = "OPEN"
	ReqItemAssigned RequisitionItemStatus = "ASSIGNED"
	ReqItemCanceled RequisitionItemStatus = "CANCELED"
)

// Requisition is an internal request to procure goods or services, the
// precursor to an order. The state store owns the authoritative copy; it is
// mutated only through lifecycle operations and never physically deleted.
type Requisition struct {
	Number          string            `json:"number"`
	Description     string            `json:"description"`
	Requester       string            `json:"requester"`
	Department      string            `json:"department,omitempty"`
	ProcurementType ProcurementType   `json:"procurement_type"`
	Urgent          bool              `json:"urgent"`
	Items           []RequisitionItem `json:"items"`
	Status          RequisitionStatus `json:"status"`
	RejectionReason string            `json:"rejection_reason,omitempty"`
	History         []StatusChange    `json:"history,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// RequisitionItem is one line of a requisition. Item numbers are 1-based and
// sequential within the document. OrderNumber is set exactly when the item has
// been assigned to an order (status ASSIGNED).
type RequisitionItem struct {
	ItemNumber  int                   `json:"item_number"`
	MaterialID  string                `json:"material_id,omitempty"`
	Description string                `json:"description"`
	Quantity    decimal.Decimal       `json:"quantity"`
	Unit        string                `json:"unit"`
	UnitPrice   decimal.Decimal       `json:"unit_price"`
	Currency    string                `json:"currency"`
	Status      RequisitionItemStatus `json:"status"`
	OrderNumber string                `json:"order_number,omitempty"`
}

// Item returns the item with the given 1-based number, or nil if absent
func (r *Requisition) Item(itemNumber int) *RequisitionItem {
	for i := range r.Items {
		if r.Items[i].ItemNumber == itemNumber {
			return &r.Items[i]
		}
	}
	return nil
}

// Clone returns a deep copy so callers never share item or history slices
// with the stored document.
func (r Requisition) Clone() Requisition {
	out := r
	out.Items = append([]RequisitionItem(nil), r.Items...)
	out.History = append([]StatusChange(nil), r.History...)
	return out
}

// RecordTransition appends a history entry and bumps the update timestamp
func (r *Requisition) RecordTransition(from, to RequisitionStatus, operation, note string, at time.Time) {
	r.History = append(r.History, StatusChange{
		From:      from.String(),
		To:        to.String(),
		Operation: operation,
		Note:      note,
		At:        at,
	})
	r.UpdatedAt = at
}
