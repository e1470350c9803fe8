package workflow

import "fmt"

// PhaseError reports a fatal failure in a named workflow phase.
type PhaseError struct {
	Phase string
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("workflow: %s phase failed: %v", e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error { return e.Err }
