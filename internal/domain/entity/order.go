package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle status of a purchase order document
type OrderStatus string

const (
	OrderDraft             OrderStatus = "DRAFT"
	OrderSubmitted         OrderStatus = "SUBMITTED"
	OrderApproved          OrderStatus = "APPROVED"
	OrderRejected          OrderStatus = "REJECTED"
	OrderPartiallyReceived OrderStatus = "PARTIALLY_RECEIVED"
	OrderReceived          OrderStatus = "RECEIVED"
	OrderCompleted         OrderStatus = "COMPLETED"
	OrderCanceled          OrderStatus = "CANCELED"
)

var validOrderStatuses = map[OrderStatus]bool{
	OrderDraft:             true,
	OrderSubmitted:         true,
	OrderApproved:          true,
	OrderRejected:          true,
	OrderPartiallyReceived: true,
	OrderReceived:          true,
	OrderCompleted:         true,
	OrderCanceled:          true,
}

var terminalOrderStatuses = map[OrderStatus]bool{
	OrderRejected:  true,
	OrderCompleted: true,
	OrderCanceled:  true,
}

// IsValid returns true if the status is a known order status
func (s OrderStatus) IsValid() bool {
	return validOrderStatuses[s]
}

// IsTerminal returns true if no further transition is legal from the status
func (s OrderStatus) IsTerminal() bool {
	return terminalOrderStatuses[s]
}

// String returns the string representation of the status
func (s OrderStatus) String() string {
	return string(s)
}

// Order is a document sent to a vendor to fulfill some or all of a
// requisition's items, or created standalone.
type Order struct {
	Number            string          `json:"number"`
	Description       string          `json:"description"`
	Requester         string          `json:"requester"`
	Vendor            string          `json:"vendor"`
	PaymentTerms      string          `json:"payment_terms,omitempty"`
	ProcurementType   ProcurementType `json:"procurement_type"`
	Urgent            bool            `json:"urgent"`
	Items             []OrderItem     `json:"items"`
	Status            OrderStatus     `json:"status"`
	RequisitionNumber string          `json:"requisition_number,omitempty"`
	RejectionReason   string          `json:"rejection_reason,omitempty"`
	History           []StatusChange  `json:"history,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// OrderItem is one line of an order. QuantityReceived is cumulative and never
// exceeds Quantity. Origin is set when the item was converted from a
// requisition line.
type OrderItem struct {
	ItemNumber       int             `json:"item_number"`
	MaterialID       string          `json:"material_id,omitempty"`
	Description      string          `json:"description"`
	Quantity         decimal.Decimal `json:"quantity"`
	QuantityReceived decimal.Decimal `json:"quantity_received"`
	Unit             string          `json:"unit"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	Currency         string          `json:"currency"`
	DeliveryDate     *time.Time      `json:"delivery_date,omitempty"`
	Origin           *ItemOrigin     `json:"origin,omitempty"`
}

// Item returns the item with the given 1-based number, or nil if absent
func (o *Order) Item(itemNumber int) *OrderItem {
	for i := range o.Items {
		if o.Items[i].ItemNumber == itemNumber {
			return &o.Items[i]
		}
	}
	return nil
}

// Clone returns a deep copy so callers never share memory with the stored document
func (o Order) Clone() Order {
	out := o
	out.Items = make([]OrderItem, len(o.Items))
	for i, item := range o.Items {
		out.Items[i] = item
		if item.DeliveryDate != nil {
			d := *item.DeliveryDate
			out.Items[i].DeliveryDate = &d
		}
		if item.Origin != nil {
			ref := *item.Origin
			out.Items[i].Origin = &ref
		}
	}
	out.History = append([]StatusChange(nil), o.History...)
	return out
}

// RecordTransition appends a history entry and bumps the update timestamp
func (o *Order) RecordTransition(from, to OrderStatus, operation, note string, at time.Time) {
	o.History = append(o.History, StatusChange{
		From:      from.String(),
		To:        to.String(),
		Operation: operation,
		Note:      note,
		At:        at,
	})
	o.UpdatedAt = at
}
