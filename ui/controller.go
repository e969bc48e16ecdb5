// Package ui holds the popup's view-model: the displayed product list, the
// observed server status, and the transient status message, all mutated only
// in response to sync client results, never optimistically.
package ui

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/codemuse/shopping-comparison/bridge"
	"github.com/codemuse/shopping-comparison/client"
	"github.com/codemuse/shopping-comparison/logger"
	"github.com/codemuse/shopping-comparison/models"
)

// SyncClient is the slice of client.Client the controller depends on.
// Narrowed to an interface so tests can assert call discipline with a fake.
type SyncClient interface {
	CheckHealth(ctx context.Context) client.Status
	ListProducts(ctx context.Context) ([]models.Product, error)
	SubmitSnapshot(ctx context.Context, snap models.Snapshot) (*models.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	ClearAll(ctx context.Context) error
}

// Controller drives the popup surface. All state behind one mutex; the
// async operations interleave but never run the shared state concurrently.
type Controller struct {
	api SyncClient
	br  *bridge.Bridge
	log logger.Logger

	mu       sync.Mutex
	status   client.Status
	products []models.Product
	message  string
	// gen counts server-confirmed mutations. A list read issued before a
	// mutation must not overwrite the state that mutation produced.
	gen uint64
}

// NewController builds a controller. Status starts at checking and the
// product list starts empty, never nil.
func NewController(api SyncClient, br *bridge.Bridge, log logger.Logger) *Controller {
	if log == nil {
		log = logger.NewNop()
	}
	return &Controller{
		api:      api,
		br:       br,
		log:      log,
		status:   client.StatusChecking,
		products: []models.Product{},
	}
}

// Status returns the last applied server status.
func (c *Controller) Status() client.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Products returns a copy of the displayed list.
func (c *Controller) Products() []models.Product {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Product, len(c.products))
	copy(out, c.products)
	return out
}

// Message returns the current transient status message.
func (c *Controller) Message() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.message
}

// RefreshStatus probes the service and applies the result. Overlapping
// probes resolve last-write-wins by completion order.
func (c *Controller) RefreshStatus(ctx context.Context) client.Status {
	status := c.api.CheckHealth(ctx)
	c.mu.Lock()
	c.status = status
	c.mu.Unlock()
	return status
}

// LoadProducts refetches the authoritative list. A read that completes after
// an intervening mutation is discarded so it cannot roll the display back.
func (c *Controller) LoadProducts(ctx context.Context) error {
	c.mu.Lock()
	issued := c.gen
	c.mu.Unlock()

	products, err := c.api.ListProducts(ctx)
	if err != nil {
		c.log.Warn("failed to load products", logger.Error(err))
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != issued {
		c.log.Debug("discarding stale product list",
			logger.Int("issued_gen", int(issued)), logger.Int("current_gen", int(c.gen)))
		return nil
	}
	c.products = products
	return nil
}

// AddCurrentProduct extracts a snapshot from the current page over the bridge
// and submits it. Submission requires a connected status: a disconnected
// round trip would deterministically fail, so the sync client is not called
// at all.
func (c *Controller) AddCurrentProduct(ctx context.Context) error {
	c.mu.Lock()
	status := c.status
	c.mu.Unlock()

	if status != client.StatusConnected {
		c.setMessage("Persistence service is not running. Please start the server first.")
		return client.ErrNotConnected
	}

	resp, err := c.br.Send(ctx, bridge.Request{Action: bridge.ActionScrapeProduct})
	if err != nil {
		c.setMessage(fmt.Sprintf("Could not reach the page: %v", err))
		return err
	}
	if !resp.Success || resp.Data == nil {
		err := fmt.Errorf("extraction failed: %s", resp.Error)
		c.setMessage(fmt.Sprintf("Failed to scrape: %s", resp.Error))
		return err
	}

	if _, err := c.api.SubmitSnapshot(ctx, *resp.Data); err != nil {
		c.setMessage(submitFailureMessage(err))
		return err
	}

	c.bumpGen()
	c.setMessage("Product added successfully!")
	return c.LoadProducts(ctx)
}

// submitFailureMessage maps each failure class to its own user-facing text;
// the generic fallback is used only when the service gave no text.
func submitFailureMessage(err error) string {
	var rej *client.Rejection
	switch {
	case errors.As(err, &rej):
		if rej.Code == "Not an Amazon URL" {
			return "This extension currently only works on Amazon product pages"
		}
		if rej.Message != "" || rej.Code != "" {
			return fmt.Sprintf("Failed to add product: %s", rej.Error())
		}
		return "Failed to add product"
	case errors.Is(err, client.ErrUnreachable):
		return "Error: could not connect to the persistence service"
	default:
		return fmt.Sprintf("Failed to add product: %v", err)
	}
}

// RemoveProduct deletes a stored product and re-derives the list from the
// server rather than patching the local copy.
func (c *Controller) RemoveProduct(ctx context.Context, id string) error {
	if err := c.api.DeleteProduct(ctx, id); err != nil {
		c.log.Warn("failed to remove product", logger.String("id", id), logger.Error(err))
		return err
	}
	c.bumpGen()
	return c.LoadProducts(ctx)
}

// ClearProducts clears the store. The known-empty result replaces the list
// directly; no refetch needed.
func (c *Controller) ClearProducts(ctx context.Context) error {
	if err := c.api.ClearAll(ctx); err != nil {
		c.log.Warn("failed to clear products", logger.Error(err))
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.products = []models.Product{}
	return nil
}

func (c *Controller) setMessage(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.message = msg
}

func (c *Controller) bumpGen() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
}
