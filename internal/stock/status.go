package stock

// transitions encodes the operation lifecycle. DONE and CANCELLED are
// terminal. READY->DONE is performed only by Service.CompleteOperation so
// the balance effects and the status flip commit together.
var transitions = map[OperationStatus][]OperationStatus{
	StatusDraft:   {StatusWaiting, StatusCancelled},
	StatusWaiting: {StatusReady, StatusCancelled},
	StatusReady:   {StatusDone, StatusCancelled},
}

// CanTransition reports whether an operation may move from one status to
// another.
func CanTransition(from, to OperationStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
