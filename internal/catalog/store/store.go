// Package store provides an interface for product storage operations.
package store

import "context"

// Product represents a product record held by the store.
type Product struct {
	ID      string
	Name    string
	Price   float64
	Stock   int
	Deleted bool
}

// Stats counts records held by the store.
type Stats struct {
	Live  int
	Total int
}

// ProductStore is an interface for product storage operations.
// It abstracts the underlying data store so another backend can replace the
// in-memory one without changing the HTTP contract.
type ProductStore interface {
	// List returns every record that is not deleted, in insertion order.
	// Returns an empty slice if nothing is live.
	List(ctx context.Context) ([]Product, error)

	// FindByID retrieves a live product by its identifier.
	// Returns ErrProductNotFound if it does not exist or was deleted.
	FindByID(ctx context.Context, id string) (*Product, error)

	// Create appends a product under the next id. Values are stored verbatim.
	Create(ctx context.Context, name string, price float64, stock int) (*Product, error)

	// Update replaces name, price and stock of a live product.
	// Returns ErrProductNotFound, leaving the collection untouched, if no live product has the id.
	Update(ctx context.Context, id, name string, price float64, stock int) (*Product, error)

	// Delete marks a live product as deleted. The record stays in the collection.
	// Returns ErrProductNotFound if it does not exist or was already deleted.
	Delete(ctx context.Context, id string) error

	// Stats reports live and total record counts.
	Stats(ctx context.Context) (Stats, error)
}
