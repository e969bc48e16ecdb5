// Package client owns all communication with the persistence service: the
// health probe, the product CRUD calls, and the translation of transport
// failures into UI-facing states.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/codemuse/shopping-comparison/logger"
	"github.com/codemuse/shopping-comparison/models"
)

// Status is the persistence service state as last observed by a probe.
// Process-local, re-evaluated on demand, never persisted.
type Status string

const (
	StatusChecking     Status = "checking"
	StatusConnected    Status = "connected"
	StatusDisconnected Status = "disconnected" // service unreachable
	StatusError        Status = "error"        // service reached, response unhealthy
)

// ErrNotConnected is returned when a caller submits without a connected
// status. Submission requires a prior successful health probe by contract.
var ErrNotConnected = errors.New("client: persistence service is not connected")

// ErrUnreachable wraps transport-level failures: the service gave no
// response at all.
var ErrUnreachable = errors.New("client: persistence service unreachable")

// Rejection is an application-level refusal: transport succeeded but the
// service answered success=false. Its text is surfaced verbatim.
type Rejection struct {
	Code    string // service "error" field, e.g. "Not an Amazon URL"
	Message string // service "message" field, may be empty
}

func (r *Rejection) Error() string {
	if r.Message != "" {
		return fmt.Sprintf("%s: %s", r.Code, r.Message)
	}
	return r.Code
}

// Client talks to one persistence service instance. The base endpoint is
// fixed at construction; there is no ambient global.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        logger.Logger
}

// New builds a client for the service at baseURL (no trailing slash).
func New(baseURL string, log logger.Logger) *Client {
	if log == nil {
		log = logger.NewNop()
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		log: log,
	}
}

// CheckHealth probes the service. Connected only on a 2xx response; a
// response outside 2xx means the service exists but is misbehaving (error),
// while no response at all means it is unreachable (disconnected).
func (c *Client) CheckHealth(ctx context.Context) Status {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/health", nil)
	if err != nil {
		return StatusError
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Debug("health probe failed", logger.Error(err))
		return StatusDisconnected
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return StatusError
	}
	return StatusConnected
}

// ListProducts fetches the authoritative product list. The result is fetched
// fresh on every call and is never nil on success.
func (c *Client) ListProducts(ctx context.Context) ([]models.Product, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/products", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("client: list failed with status %d", resp.StatusCode)
	}

	var list models.ProductList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("client: decoding product list: %w", err)
	}
	if !list.Success {
		return nil, &Rejection{Code: "list rejected"}
	}
	if list.Products == nil {
		list.Products = []models.Product{}
	}
	return list.Products, nil
}

// submitResponse is the scrape endpoint's reply: the stored product on
// success, error/message text on refusal.
type submitResponse struct {
	models.Product
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// SubmitSnapshot asks the service to capture and store the product at the
// snapshot's URL. The service is the sole arbiter of URL acceptance; its
// refusal is returned verbatim as a *Rejection.
func (c *Client) SubmitSnapshot(ctx context.Context, snap models.Snapshot) (*models.Product, error) {
	body, err := json.Marshal(models.ScrapeRequest{URL: snap.URL})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/scrape", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("client: submit failed with status %d", resp.StatusCode)
	}

	var sr submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("client: decoding submit response: %w", err)
	}
	if !sr.Success {
		return nil, &Rejection{Code: sr.Error, Message: sr.Message}
	}
	product := sr.Product
	return &product, nil
}

// DeleteProduct removes one stored product by its server-assigned id. Callers
// re-derive UI state from a fresh ListProducts afterwards rather than patching
// a local copy.
func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/api/products/"+id, nil)
	if err != nil {
		return err
	}
	return c.expectOK(req, "delete")
}

// ClearAll removes every stored product.
func (c *Client) ClearAll(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/clear", nil)
	if err != nil {
		return err
	}
	return c.expectOK(req, "clear")
}

func (c *Client) expectOK(req *http.Request, op string) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("client: %s failed with status %d", op, resp.StatusCode)
	}
	return nil
}
