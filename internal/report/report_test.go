package report

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/techpathai/learnyst-automator/api/schemas"
)

func TestResponseCarriesOnlySuccessAndMessage(t *testing.T) {
	r := New(zap.NewNop())
	action := schemas.Action{Kind: schemas.ActionGiveAccess, Email: "a@example.com"}

	resp := r.Response(action, schemas.ExecutionResult{
		Success: true,
		Message: "Successfully gave access to Fullstack Batch 1 for user a@example.com",
	})
	assert.True(t, resp.Success)
	assert.Equal(t, "Successfully gave access to Fullstack Batch 1 for user a@example.com", resp.Message)

	resp = r.Response(action, schemas.ExecutionResult{
		Success:   false,
		Message:   "User with email a@example.com not found. Please provide full name to enroll them.",
		ErrorKind: schemas.ErrKindPreconditionNotMet,
	})
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Message)
}

func TestStatusCode(t *testing.T) {
	cases := []struct {
		name string
		res  schemas.ExecutionResult
		want int
	}{
		{"success", schemas.ExecutionResult{Success: true}, http.StatusOK},
		{"validation", schemas.ExecutionResult{ErrorKind: schemas.ErrKindValidation}, http.StatusBadRequest},
		{"overloaded", schemas.ExecutionResult{ErrorKind: schemas.ErrKindOverloaded}, http.StatusTooManyRequests},
		{"precondition", schemas.ExecutionResult{ErrorKind: schemas.ErrKindPreconditionNotMet}, http.StatusOK},
		{"timeout", schemas.ExecutionResult{ErrorKind: schemas.ErrKindAutomationTimeout}, http.StatusOK},
		{"auth", schemas.ExecutionResult{ErrorKind: schemas.ErrKindAuthenticationFailed}, http.StatusOK},
		{"unavailable", schemas.ExecutionResult{ErrorKind: schemas.ErrKindSessionUnavailable}, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StatusCode(tc.res))
		})
	}
}
