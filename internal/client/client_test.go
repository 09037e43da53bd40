package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/techpathai/learnyst-automator/api/schemas"
)

func TestExecuteSendsWireShape(t *testing.T) {
	var seen map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/learnyst/execute", r.URL.Path)
		require.NoError(t, jsoniter.NewDecoder(r.Body).Decode(&seen))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success": true, "message": "Successfully gave access to Full Stack 1 for user a@example.com"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "sekrit", WithHTTPClient(srv.Client()))
	resp, err := c.Execute(context.Background(), ExecuteRequest{
		Action: schemas.ActionGiveAccess,
		Email:  "a@example.com",
		Course: "fs1",
		Credentials: schemas.Credentials{
			Username: "admin@techpath.ai",
			Password: "hunter2",
		},
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)

	assert.Equal(t, "sekrit", seen["api_key"])
	assert.Equal(t, "give_access", seen["action"])
	assert.Equal(t, "a@example.com", seen["email"])
	assert.Equal(t, "fs1", seen["course_name"])
	assert.Equal(t, "admin@techpath.ai", seen["learnyst_username"])
	assert.Equal(t, "hunter2", seen["learnyst_password"])
	_, hasName := seen["full_name"]
	assert.False(t, hasName, "empty optional fields are omitted")
}

func TestExecuteReturnsServiceVerdictOnErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"success": false, "message": "Service is overloaded, please retry later"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "sekrit", WithHTTPClient(srv.Client()))
	resp, err := c.Execute(context.Background(), ExecuteRequest{Action: schemas.ActionDeleteUser})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "overloaded")
}

func TestExecuteUndecodableBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>upstream error</html>"))
	}))
	defer srv.Close()

	c := New(srv.URL, "sekrit", WithHTTPClient(srv.Client()))
	_, err := c.Execute(context.Background(), ExecuteRequest{Action: schemas.ActionDeleteUser})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			_, _ = w.Write([]byte(`{"status": "ok"}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(srv.URL, "", WithHTTPClient(srv.Client()))
	assert.NoError(t, c.Health(context.Background()))
}
