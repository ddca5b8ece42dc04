package entity

// MaterialStatus is the master-data status of a material
type MaterialStatus string

const (
	MaterialActive     MaterialStatus = "ACTIVE"
	MaterialInactive   MaterialStatus = "INACTIVE"
	MaterialDeprecated MaterialStatus = "DEPRECATED"
)

// String returns the string representation of the status
func (s MaterialStatus) String() string {
	return string(s)
}

// Material is a master-data record consumed read-only by the workflow engine.
// Only ACTIVE materials may be referenced by newly created document items;
// existing references are never revalidated.
type Material struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	BaseUnit string         `json:"base_unit"`
	Status   MaterialStatus `json:"status"`
}
