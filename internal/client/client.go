// Package client is a typed HTTP client for the automation service. It is
// used by the CLI's one-shot subcommands and by integration harnesses; a
// consumer application can import it instead of hand-rolling requests.
package client

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/techpathai/learnyst-automator/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const defaultTimeout = 5 * time.Minute

// Client talks to one automation service instance.
type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
}

// Option mutates the client during construction.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client, e.g. with an
// httptest server's client.
func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) { c.httpc = httpc }
}

func New(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		// Actions queue behind a real browser; the default per-request
		// budget is generous on purpose.
		httpc: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// executePayload mirrors the server's wire shape for POST /learnyst/execute.
type executePayload struct {
	APIKey         string `json:"api_key"`
	Action         string `json:"action"`
	Email          string `json:"email,omitempty"`
	FullName       string `json:"full_name,omitempty"`
	CourseName     string `json:"course_name,omitempty"`
	UserIdentifier string `json:"user_identifier,omitempty"`
	Username       string `json:"learnyst_username"`
	Password       string `json:"learnyst_password"`
}

// ExecuteRequest describes one action from the caller's point of view.
// Course is a short course code or the full display name; the service
// resolves known codes to on-site names.
type ExecuteRequest struct {
	Action         schemas.ActionKind
	Email          string
	FullName       string
	Course         string
	UserIdentifier string
	Credentials    schemas.Credentials
}

// Execute submits the action and returns the service's verdict. A non-2xx
// status with a decodable body is returned as the Response it carries, not
// as an error: "user not found" is an answer, not a transport failure.
func (c *Client) Execute(ctx context.Context, req ExecuteRequest) (schemas.Response, error) {
	payload := executePayload{
		APIKey:         c.apiKey,
		Action:         string(req.Action),
		Email:          req.Email,
		FullName:       req.FullName,
		CourseName:     req.Course,
		UserIdentifier: req.UserIdentifier,
		Username:       req.Credentials.Username,
		Password:       req.Credentials.Password,
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return schemas.Response{}, fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/learnyst/execute", bytes.NewReader(raw))
	if err != nil {
		return schemas.Response{}, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpc.Do(httpReq)
	if err != nil {
		return schemas.Response{}, fmt.Errorf("request failed: %w", err)
	}
	defer httpResp.Body.Close()

	var resp schemas.Response
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return schemas.Response{}, fmt.Errorf("service returned status %d with an undecodable body: %w",
			httpResp.StatusCode, err)
	}
	return resp, nil
}

// Health reports whether the service answers its health endpoint.
func (c *Client) Health(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	httpResp, err := c.httpc.Do(httpReq)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer httpResp.Body.Close()
	if httpResp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", httpResp.StatusCode)
	}
	return nil
}
