package automation

import (
	"errors"
	"fmt"
)

// ErrSessionExpired is the distinguished signal that a step landed on the
// login form instead of an authenticated page. The executor never retries
// it; the serializer re-authenticates and retries the whole action once.
var ErrSessionExpired = errors.New("session expired: login page encountered mid-action")

// PreconditionError is an expected business outcome, not a fault: the user
// does not exist, already has the course, and so on. Message is shown to the
// caller verbatim.
type PreconditionError struct {
	Message string
}

func (e *PreconditionError) Error() string { return e.Message }

// preconditionf builds a PreconditionError with a formatted message.
func preconditionf(format string, args ...any) error {
	return &PreconditionError{Message: fmt.Sprintf(format, args...)}
}

// StepError is a UI step that failed hard: its wait bound elapsed or the
// browser refused the interaction. A missing landmark (selector drift
// included) always classifies here, with the step named in the message.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %q failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }
