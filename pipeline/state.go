package pipeline

// state tracks how far a single grasp request has progressed. Requests move
// strictly forward; any error leaves the machine at the state where it
// failed, which the error message records.
type state int

const (
	stateReceived state = iota
	stateDepthPrepared
	stateFrameResolved
	stateInferenceRequested
	stateInferenceReceived
	stateSelecting
	stateAssembled
	stateResponded
)

func (s state) String() string {
	switch s {
	case stateReceived:
		return "Received"
	case stateDepthPrepared:
		return "DepthPrepared"
	case stateFrameResolved:
		return "FrameResolved"
	case stateInferenceRequested:
		return "InferenceRequested"
	case stateInferenceReceived:
		return "InferenceReceived"
	case stateSelecting:
		return "Selecting"
	case stateAssembled:
		return "Assembled"
	case stateResponded:
		return "Responded"
	}
	return "Unknown"
}
