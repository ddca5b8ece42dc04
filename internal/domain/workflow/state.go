package workflow

// State represents a document status in a lifecycle graph. The concrete state
// sets belong to the document types; this package only moves between them.
type State string

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}
