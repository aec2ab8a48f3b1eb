package dispatch

// State is the lifecycle position of a batch.
type State int

const (
	StateIdle State = iota
	StateValidating
	StateSendingBatch
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateSendingBatch:
		return "sending_batch"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}
