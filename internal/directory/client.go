// Package directory talks to the external routing directory, which
// maps addresses to their currently-live {peer_id, address} routes.
package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cortexchain/chain-machine/internal/chain"
)

// DefaultTimeout bounds a directory call when the config does not set
// one. The directory contract specifies no timeout at all; leaving it
// unbounded would let one dead directory node stall requests forever.
const DefaultTimeout = 10 * time.Second

// Client resolves addresses against the routing directory over HTTP.
// It implements chain.Directory.
type Client struct {
	endpoint string
	httpc    *http.Client
	logger   *zap.Logger
}

// NewClient creates a directory client for the given endpoint. A
// non-positive timeout falls back to DefaultTimeout.
func NewClient(endpoint string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		endpoint: endpoint,
		httpc:    &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

type queryRequest struct {
	Addresses []string `json:"addresses"`
}

type queryResponse struct {
	Data []chain.RouteDescriptor `json:"data"`
}

// Resolve asks the directory for the live routes of the given
// addresses. The directory's ordering is preserved as-is, and an empty
// data set is returned to the caller untouched: deciding what an empty
// resolution means is role policy, not this client's business. Every
// transport, status, or decode failure wraps
// chain.ErrDirectoryUnavailable.
func (c *Client) Resolve(ctx context.Context, addresses []string) ([]chain.RouteDescriptor, error) {
	body, err := json.Marshal(queryRequest{Addresses: addresses})
	if err != nil {
		return nil, fmt.Errorf("%w: marshal query: %v", chain.ErrDirectoryUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/routes/query", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", chain.ErrDirectoryUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", uuid.New().String())

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", chain.ErrDirectoryUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		c.logger.Error("directory returned non-OK status",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", respBody))
		return nil, fmt.Errorf("%w: directory returned status %d", chain.ErrDirectoryUnavailable, resp.StatusCode)
	}

	var result queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", chain.ErrDirectoryUnavailable, err)
	}

	return result.Data, nil
}
