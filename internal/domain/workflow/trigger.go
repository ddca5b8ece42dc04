package workflow

// Trigger represents an operation that can cause a state transition
type Trigger string

// Document lifecycle triggers shared by requisitions and orders. Receive and
// Complete only apply to orders; MarkOrdered only to requisitions.
const (
	TriggerSubmit      Trigger = "SUBMIT"
	TriggerApprove     Trigger = "APPROVE"
	TriggerReject      Trigger = "REJECT"
	TriggerCancel      Trigger = "CANCEL"
	TriggerMarkOrdered Trigger = "MARK_ORDERED"
	TriggerReceive     Trigger = "RECEIVE"
	TriggerComplete    Trigger = "COMPLETE"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
