package store

import (
	"context"
	"strconv"
	"sync"

	"github.com/abgdnv/catalogtable/internal/catalog/errors"
)

// inMemory implements ProductStore on an ordered slice with an id index.
type inMemory struct {
	mu       sync.RWMutex
	products []Product
	index    map[string]int
	nextID   int
	live     int
}

// NewInMemoryStore creates a new, empty instance of ProductStore.
func NewInMemoryStore() ProductStore {
	return &inMemory{
		index:  make(map[string]int),
		nextID: 1,
	}
}

// List returns live products in insertion order.
func (s *inMemory) List(_ context.Context) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]Product, 0, s.live)
	for _, p := range s.products {
		if !p.Deleted {
			list = append(list, p)
		}
	}
	return list, nil
}

// FindByID retrieves a live product by its ID.
func (s *inMemory) FindByID(_ context.Context, id string) (*Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.liveIndex(id)
	if !ok {
		return nil, errors.ErrProductNotFound
	}
	p := s.products[i]
	return &p, nil
}

// Create creates a new product and returns it.
func (s *inMemory) Create(_ context.Context, name string, price float64, stock int) (*Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	product := Product{
		ID:    strconv.Itoa(s.nextID),
		Name:  name,
		Price: price,
		Stock: stock,
	}
	s.nextID++
	s.index[product.ID] = len(s.products)
	s.products = append(s.products, product)
	s.live++

	return &product, nil
}

// Update replaces the mutable fields of a live product in place.
func (s *inMemory) Update(_ context.Context, id, name string, price float64, stock int) (*Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.liveIndex(id)
	if !ok {
		return nil, errors.ErrProductNotFound
	}
	p := &s.products[i]
	p.Name = name
	p.Price = price
	p.Stock = stock

	updated := *p
	return &updated, nil
}

// Delete soft-deletes a live product.
func (s *inMemory) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.liveIndex(id)
	if !ok {
		return errors.ErrProductNotFound
	}
	s.products[i].Deleted = true
	s.live--
	return nil
}

func (s *inMemory) Stats(_ context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{Live: s.live, Total: len(s.products)}, nil
}

// liveIndex must be called with s.mu held.
func (s *inMemory) liveIndex(id string) (int, bool) {
	i, ok := s.index[id]
	if !ok || s.products[i].Deleted {
		return 0, false
	}
	return i, true
}
