package domain

// Phase is the lifecycle stage of the single in-flight request.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseLoading   Phase = "loading"
	PhaseSucceeded Phase = "succeeded"
	PhaseFailed    Phase = "failed"
)

// RequestState is the snapshot of the orchestrator's state cell.
type RequestState struct {
	Phase Phase

	// Action is the transformation being run (Loading) or just finished.
	Action ActionKind

	// Result is set only in PhaseSucceeded.
	Result string

	// Err is set only in PhaseFailed.
	Err error
}

// Idle returns the resting state.
func Idle() RequestState {
	return RequestState{Phase: PhaseIdle}
}

// Loading returns the state while action is outstanding.
func Loading(action ActionKind) RequestState {
	return RequestState{Phase: PhaseLoading, Action: action}
}

// Succeeded returns the terminal success state.
func Succeeded(action ActionKind, result string) RequestState {
	return RequestState{Phase: PhaseSucceeded, Action: action, Result: result}
}

// Failed returns the terminal failure state.
func Failed(action ActionKind, err error) RequestState {
	return RequestState{Phase: PhaseFailed, Action: action, Err: err}
}

// Terminal reports whether the phase ends an invocation.
func (s RequestState) Terminal() bool {
	return s.Phase == PhaseSucceeded || s.Phase == PhaseFailed
}
