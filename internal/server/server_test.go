package server

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/techpathai/learnyst-automator/api/schemas"
	"github.com/techpathai/learnyst-automator/internal/config"
	"github.com/techpathai/learnyst-automator/internal/report"
)

type fakeSubmitter struct {
	lastAction schemas.Action
	result     schemas.ExecutionResult
	err        error
	calls      int
}

func (f *fakeSubmitter) Submit(_ context.Context, action schemas.Action) (schemas.ExecutionResult, error) {
	f.calls++
	f.lastAction = action
	return f.result, f.err
}

func newTestServer(t *testing.T, sub *fakeSubmitter) (*Server, *config.Config) {
	t.Helper()
	cfg := config.NewDefault()
	cfg.Server.APIKey = "sekrit"
	srv, err := New(cfg, zap.NewNop(), sub, report.New(zap.NewNop()))
	require.NoError(t, err)
	return srv, cfg
}

func postExecute(t *testing.T, srv *Server, body map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := jsoniter.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/learnyst/execute", bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) schemas.Response {
	t.Helper()
	var resp schemas.Response
	require.NoError(t, jsoniter.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func validBody() map[string]any {
	return map[string]any{
		"api_key":           "sekrit",
		"action":            "give_access",
		"email":             "learner@example.com",
		"course_name":       "fs1",
		"learnyst_username": "admin@techpath.ai",
		"learnyst_password": "hunter2",
	}
}

func TestExecuteSuccess(t *testing.T) {
	sub := &fakeSubmitter{result: schemas.ExecutionResult{
		Success: true,
		Message: "Successfully gave access to Full Stack 1 for user learner@example.com",
	}}
	srv, _ := newTestServer(t, sub)

	rec := postExecute(t, srv, validBody())

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)
	assert.Contains(t, resp.Message, "Full Stack 1")

	assert.Equal(t, schemas.ActionGiveAccess, sub.lastAction.Kind)
	assert.Equal(t, "Full Stack 1", sub.lastAction.CourseName, "course code must be resolved before the engine sees it")
	assert.Equal(t, "admin@techpath.ai", sub.lastAction.Credentials.Username)
}

func TestExecuteRejectsBadAPIKey(t *testing.T) {
	sub := &fakeSubmitter{}
	srv, _ := newTestServer(t, sub)

	body := validBody()
	body["api_key"] = "wrong"
	rec := postExecute(t, srv, body)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, decodeResponse(t, rec).Success)
	assert.Zero(t, sub.calls, "rejected requests must never reach the queue")
}

func TestExecuteRejectsWhenNoAPIKeyConfigured(t *testing.T) {
	sub := &fakeSubmitter{}
	srv, cfg := newTestServer(t, sub)
	cfg.Server.APIKey = ""

	rec := postExecute(t, srv, validBody())

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Zero(t, sub.calls)
}

func TestExecuteResolvesCourseCode(t *testing.T) {
	sub := &fakeSubmitter{result: schemas.ExecutionResult{Success: true, Message: "ok"}}
	srv, _ := newTestServer(t, sub)

	body := validBody()
	body["course_name"] = "meta"
	postExecute(t, srv, body)

	require.Equal(t, 1, sub.calls)
	assert.Equal(t, "Meta Interview Advance Concepts", sub.lastAction.CourseName)
}

func TestExecutePassesDisplayNameThrough(t *testing.T) {
	sub := &fakeSubmitter{result: schemas.ExecutionResult{Success: true, Message: "ok"}}
	srv, _ := newTestServer(t, sub)

	// Callers that resolve course names themselves send them verbatim.
	body := validBody()
	body["course_name"] = "Meta Interview Advance Concepts"
	postExecute(t, srv, body)

	require.Equal(t, 1, sub.calls)
	assert.Equal(t, "Meta Interview Advance Concepts", sub.lastAction.CourseName)
}

func TestExecuteValidationFailureIs400(t *testing.T) {
	sub := &fakeSubmitter{result: schemas.ExecutionResult{
		Success:   false,
		Message:   `invalid action: field "email" is required for give_access`,
		ErrorKind: schemas.ErrKindValidation,
	}}
	srv, _ := newTestServer(t, sub)

	body := validBody()
	delete(body, "email")
	rec := postExecute(t, srv, body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, decodeResponse(t, rec).Success)
}

func TestExecuteOverloadedIs429(t *testing.T) {
	sub := &fakeSubmitter{result: schemas.ExecutionResult{
		Success:   false,
		Message:   "Service is overloaded, please retry later",
		ErrorKind: schemas.ErrKindOverloaded,
	}}
	srv, _ := newTestServer(t, sub)

	rec := postExecute(t, srv, validBody())

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.False(t, decodeResponse(t, rec).Success)
}

func TestExecuteMalformedBody(t *testing.T) {
	srv, _ := newTestServer(t, &fakeSubmitter{})

	req := httptest.NewRequest(http.MethodPost, "/learnyst/execute", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExecutePreconditionFailureIs200(t *testing.T) {
	sub := &fakeSubmitter{result: schemas.ExecutionResult{
		Success:   false,
		Message:   "User with email learner@example.com not found. Please provide full name to enroll them.",
		ErrorKind: schemas.ErrKindPreconditionNotMet,
	}}
	srv, _ := newTestServer(t, sub)

	rec := postExecute(t, srv, validBody())

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "not found")
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, &fakeSubmitter{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, &fakeSubmitter{})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
