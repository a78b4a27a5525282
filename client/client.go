// Package client is a thin consumer library for the chain-machine
// service. It mirrors the two read-only endpoints and leaves the
// role-dependent shape of the route payload to the caller.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultBaseURL is the conventional in-cluster address of the service.
const DefaultBaseURL = "http://chain-machine:8080"

// Client calls the chain-machine HTTP API.
type Client struct {
	baseURL string
	httpc   *http.Client
}

// New creates a Client for the given base URL; an empty baseURL falls
// back to DefaultBaseURL.
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: 30 * time.Second},
	}
}

// RouteDescriptor is one live route as reported by the service.
type RouteDescriptor struct {
	PeerID  string `json:"peer_id"`
	Address string `json:"address"`
}

// TaskResponse is the answer to a task query. Route is a single
// descriptor for role "worker" and an array for role "authority";
// decode it with WorkerRoute or AuthorityRoutes once the role is known.
type TaskResponse struct {
	TaskID  string          `json:"task_id"`
	Created time.Time       `json:"created"`
	Stage   int             `json:"stage"`
	Route   json.RawMessage `json:"route"`
}

// WorkerRoute decodes the route payload of a worker-role response.
// ok is false when the service omitted the field (the authority
// address resolved to no live routes).
func (t *TaskResponse) WorkerRoute() (route RouteDescriptor, ok bool, err error) {
	if len(t.Route) == 0 {
		return RouteDescriptor{}, false, nil
	}
	if err := json.Unmarshal(t.Route, &route); err != nil {
		return RouteDescriptor{}, false, fmt.Errorf("decode worker route: %w", err)
	}
	return route, true, nil
}

// AuthorityRoutes decodes the route payload of an authority-role
// response.
func (t *TaskResponse) AuthorityRoutes() ([]RouteDescriptor, error) {
	var routes []RouteDescriptor
	if err := json.Unmarshal(t.Route, &routes); err != nil {
		return nil, fmt.Errorf("decode authority routes: %w", err)
	}
	return routes, nil
}

// SignatureResponse is the answer to a signature query.
type SignatureResponse struct {
	AccountID string    `json:"account_id"`
	Created   time.Time `json:"created"`
	Updated   time.Time `json:"updated"`
	Signature string    `json:"signature"`
}

// APIError is a non-2xx answer from the service.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("chain-machine: status %d: %s", e.StatusCode, e.Message)
}

// QueryTask fetches the route set the given role is entitled to for a
// task.
func (c *Client) QueryTask(ctx context.Context, taskID, role string) (*TaskResponse, error) {
	q := url.Values{}
	q.Set("task_id", taskID)
	q.Set("role", role)

	var out TaskResponse
	if err := c.get(ctx, "/task", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// QuerySignature fetches an account's credential record.
func (c *Client) QuerySignature(ctx context.Context, accountID string) (*SignatureResponse, error) {
	q := url.Values{}
	q.Set("account_id", accountID)

	var out SignatureResponse
	if err := c.get(ctx, "/signature", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		msg := string(body)
		var wire struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &wire) == nil && wire.Error != "" {
			msg = wire.Error
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
