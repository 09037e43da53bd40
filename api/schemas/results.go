package schemas

// ErrorKind classifies a non-success outcome. The taxonomy is internal; the
// reporter strips it before anything crosses the wire.
type ErrorKind string

const (
	// ErrKindValidation marks a malformed or incomplete action, rejected
	// before it reached the queue.
	ErrKindValidation ErrorKind = "VALIDATION_ERROR"
	// ErrKindAuthenticationFailed marks a rejected target-site login.
	// Terminal for the credential set until the credentials change.
	ErrKindAuthenticationFailed ErrorKind = "AUTHENTICATION_FAILED"
	// ErrKindSessionExpired is the transient login-redirect signal. It is
	// consumed internally by the single automatic re-login retry and only
	// appears in a result if classification happens before the retry loop.
	ErrKindSessionExpired ErrorKind = "SESSION_EXPIRED"
	// ErrKindSessionUnavailable marks two consecutive expiries or an
	// authentication failure during the retry. The session is left Failed
	// for manual intervention.
	ErrKindSessionUnavailable ErrorKind = "SESSION_UNAVAILABLE"
	// ErrKindPreconditionNotMet is an expected business outcome (user not
	// found, already enrolled). Not a fault.
	ErrKindPreconditionNotMet ErrorKind = "PRECONDITION_NOT_MET"
	// ErrKindAutomationTimeout marks a UI step that exceeded its bound; the
	// message names the step.
	ErrKindAutomationTimeout ErrorKind = "AUTOMATION_TIMEOUT"
	// ErrKindOverloaded marks a submission rejected because the queue is at
	// its configured depth.
	ErrKindOverloaded ErrorKind = "OVERLOADED"
)

// ExecutionResult is the engine's normalized outcome for one action. Every
// failure mode inside the executor and serializer collapses into one of
// these; nothing escapes as an unhandled fault.
type ExecutionResult struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	ErrorKind ErrorKind `json:"error_kind,omitempty"`
}

// Response is the stable success/message contract exposed to callers. It is
// the only shape the transport layer ever sees.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
