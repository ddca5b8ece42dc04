package entity

import "time"

// DocumentType identifies the kind of a P2P document, used for store keys and errors
type DocumentType string

const (
	DocRequisition DocumentType = "requisition"
	DocOrder       DocumentType = "order"
)

// String returns the string representation of the document type
func (d DocumentType) String() string {
	return string(d)
}

// ProcurementType classifies what a document procures
type ProcurementType string

const (
	ProcurementStandard   ProcurementType = "STANDARD"
	ProcurementConsumable ProcurementType = "CONSUMABLE"
	ProcurementService    ProcurementType = "SERVICE"
	ProcurementCapex      ProcurementType = "CAPEX"
)

var validProcurementTypes = map[ProcurementType]bool{
	ProcurementStandard:   true,
	ProcurementConsumable: true,
	ProcurementService:    true,
	ProcurementCapex:      true,
}

// IsValid returns true if the procurement type is one of the known values
func (p ProcurementType) IsValid() bool {
	return validProcurementTypes[p]
}

// StatusChange is one entry in a document's transition history
type StatusChange struct {
	From      string    `json:"from"`
	To        string    `json:"to"`
	Operation string    `json:"operation"`
	Note      string    `json:"note,omitempty"`
	At        time.Time `json:"at"`
}

// ItemOrigin is a typed reference from an order item back to the requisition
// item it was converted from.
type ItemOrigin struct {
	RequisitionNumber string `json:"requisition_number"`
	ItemNumber        int    `json:"item_number"`
}
