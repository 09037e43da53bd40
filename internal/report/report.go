// Package report translates internal execution results into the external
// response contract. The wire shape is deliberately narrow: a boolean and a
// human-readable message, nothing else. Error kinds, step names and session
// state stay on the inside where the logs can use them.
package report

import (
	"go.uber.org/zap"

	"github.com/techpathai/learnyst-automator/api/schemas"
)

// Reporter renders ExecutionResults for callers.
type Reporter struct {
	logger *zap.Logger
}

func New(logger *zap.Logger) *Reporter {
	return &Reporter{logger: logger.With(zap.String("component", "report"))}
}

// Response maps a result onto the wire contract. Success responses carry a
// confirmation message; failure responses carry a description a human can
// act on. The mapping is total: every result produces exactly one response.
func (r *Reporter) Response(action schemas.Action, res schemas.ExecutionResult) schemas.Response {
	if res.Success {
		r.logger.Info("Action completed.",
			zap.String("kind", string(action.Kind)),
			zap.String("target", action.Target()))
	} else {
		r.logger.Warn("Action failed.",
			zap.String("kind", string(action.Kind)),
			zap.String("target", action.Target()),
			zap.String("error_kind", string(res.ErrorKind)),
			zap.String("message", res.Message))
	}
	return schemas.Response{
		Success: res.Success,
		Message: res.Message,
	}
}

// StatusCode maps an error kind onto the HTTP status the transport layer
// should use. Successful results are always 200.
func StatusCode(res schemas.ExecutionResult) int {
	if res.Success {
		return 200
	}
	switch res.ErrorKind {
	case schemas.ErrKindValidation:
		return 400
	case schemas.ErrKindOverloaded:
		return 429
	default:
		// Everything else, including precondition failures and automation
		// timeouts, is a completed request that reports success=false. The
		// consumer keys off the body, not the status.
		return 200
	}
}
