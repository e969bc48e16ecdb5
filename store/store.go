// Package store persists scraped products for the comparison view.
package store

import (
	"context"
	"errors"

	"github.com/codemuse/shopping-comparison/models"
)

// ErrNotFound is returned when deleting an id the store does not hold.
var ErrNotFound = errors.New("store: product not found")

// Store is the product persistence contract. List order is insertion order.
type Store interface {
	Add(ctx context.Context, p models.Product) error
	List(ctx context.Context) ([]models.Product, error)
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error
	Count(ctx context.Context) (int, error)
}
