// Package service provides the implementation of catalog business logic.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/abgdnv/catalogtable/internal/catalog/store"
	"github.com/abgdnv/catalogtable/pkg/messaging"
	"github.com/abgdnv/catalogtable/pkg/messaging/events"
)

// ProductService defines the methods for managing products.
// It abstracts the underlying business logic and data access.
type ProductService interface {
	// FindAll returns every live product in store order.
	// Returns an empty slice if no products exist.
	FindAll(ctx context.Context) ([]ProductDto, error)

	// FindByID retrieves a single live product by its identifier.
	// Returns ErrProductNotFound if no live product exists with the given ID.
	FindByID(ctx context.Context, id string) (*ProductDto, error)

	// Create adds a new product and announces it.
	Create(ctx context.Context, product ProductCreateDto) (*ProductDto, error)

	// Update replaces name, price and stock of a live product and announces it.
	// Returns ErrProductNotFound if no live product exists with the given ID.
	Update(ctx context.Context, product ProductUpdateDto) (*ProductDto, error)

	// Delete soft-deletes a live product and announces it.
	// Returns ErrProductNotFound if no live product exists with the given ID.
	Delete(ctx context.Context, product ProductDeleteDto) error
}

// service implements ProductService and provides methods to manage products.
type service struct {
	repository store.ProductStore
	publisher  messaging.Publisher
	subject    string
	logger     *slog.Logger
	now        func() time.Time
}

// NewService creates a new instance of ProductService. Change events go to
// subject through publisher; an empty subject uses the default one.
func NewService(repo store.ProductStore, publisher messaging.Publisher, subject string, logger *slog.Logger) ProductService {
	if publisher == nil {
		publisher = messaging.NoopPublisher{}
	}
	return &service{
		repository: repo,
		publisher:  publisher,
		subject:    subject,
		logger:     logger.With("component", "service"),
		now:        time.Now,
	}
}

// ProductDto represents the data transfer object for a product.
type ProductDto struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Price   float64 `json:"price"`
	Stock   int     `json:"stock"`
	Deleted bool    `json:"deleted"`
}

// ProductCreateDto is the body of a create request. Fields are pointers so
// a missing key can be told apart from a zero value.
type ProductCreateDto struct {
	Name  *string  `json:"name" validate:"required"`
	Price *float64 `json:"price" validate:"required"`
	Stock *int     `json:"stock" validate:"required"`
}

// ProductUpdateDto is the body of an update request.
type ProductUpdateDto struct {
	ID    *string  `json:"id" validate:"required"`
	Name  *string  `json:"name" validate:"required"`
	Price *float64 `json:"price" validate:"required"`
	Stock *int     `json:"stock" validate:"required"`
}

// ProductDeleteDto is the body of a delete request and of its response.
type ProductDeleteDto struct {
	ID *string `json:"id" validate:"required"`
}

// FindAll retrieves a list of all live products and returns them as ProductDTOs.
func (s *service) FindAll(ctx context.Context) ([]ProductDto, error) {
	products, err := s.repository.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	productDTOs := make([]ProductDto, len(products))
	for i := range products {
		productDTOs[i] = toDto(&products[i])
	}
	return productDTOs, nil
}

// FindByID retrieves a product by its ID and returns it as a ProductDto.
func (s *service) FindByID(ctx context.Context, id string) (*ProductDto, error) {
	product, err := s.repository.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product by ID %s: %w", id, err)
	}
	dto := toDto(product)
	return &dto, nil
}

// Create creates a new product and returns it as a ProductDto.
func (s *service) Create(ctx context.Context, product ProductCreateDto) (*ProductDto, error) {
	p, err := s.repository.Create(ctx, deref(product.Name), deref(product.Price), deref(product.Stock))
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	s.publish(ctx, events.ProductCreated, p.ID)
	dto := toDto(p)
	return &dto, nil
}

// Update replaces a product and returns the stored result.
func (s *service) Update(ctx context.Context, product ProductUpdateDto) (*ProductDto, error) {
	id := deref(product.ID)
	p, err := s.repository.Update(ctx, id, deref(product.Name), deref(product.Price), deref(product.Stock))
	if err != nil {
		return nil, fmt.Errorf("failed to update product %s: %w", id, err)
	}
	s.publish(ctx, events.ProductUpdated, p.ID)
	dto := toDto(p)
	return &dto, nil
}

// Delete soft-deletes a product by its ID.
func (s *service) Delete(ctx context.Context, product ProductDeleteDto) error {
	id := deref(product.ID)
	if err := s.repository.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete product %s: %w", id, err)
	}
	s.publish(ctx, events.ProductDeleted, id)
	return nil
}

// publish never fails the mutation that triggered it.
func (s *service) publish(ctx context.Context, action events.ProductAction, id string) {
	event := events.NewProductChangedEvent(s.subject, action, id, s.now())
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish product event",
			"action", action, "ID", id, "subject", event.Subject(), "error", err)
	}
}

// toDto converts a store.Product to a ProductDto.
func toDto(product *store.Product) ProductDto {
	return ProductDto{
		ID:      product.ID,
		Name:    product.Name,
		Price:   product.Price,
		Stock:   product.Stock,
		Deleted: product.Deleted,
	}
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
