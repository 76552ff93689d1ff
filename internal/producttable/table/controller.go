// Package table orchestrates the product table: reading through the query
// cache and running mutations that invalidate it.
package table

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/abgdnv/catalogtable/internal/producttable/client"
	"github.com/abgdnv/catalogtable/internal/producttable/form"
	"github.com/abgdnv/catalogtable/internal/producttable/query"
)

// ProductsKey is the cache key of the product list.
const ProductsKey = "products"

// Catalog is the subset of the catalog API the table needs.
type Catalog interface {
	List(ctx context.Context) ([]client.Product, error)
	Create(ctx context.Context, in client.ProductInput) (client.Product, error)
	Update(ctx context.Context, p client.Product) (client.Product, error)
	Delete(ctx context.Context, id string) error
}

// Outcome is how a mutation ended.
type Outcome int

const (
	// Succeeded: the catalog applied the change; the list was invalidated.
	Succeeded Outcome = iota
	// NotFound: the row was stale; the list was invalidated.
	NotFound
	// Failed: the catalog could not be reached; the list was left as it was.
	Failed
	// Abandoned: nothing was sent (empty edit field, unconfirmed delete).
	Abandoned
	// Rejected: input failed validation, locally or at the catalog.
	Rejected
)

func (o Outcome) String() string {
	switch o {
	case Succeeded:
		return "succeeded"
	case NotFound:
		return "not found"
	case Failed:
		return "failed"
	case Abandoned:
		return "abandoned"
	case Rejected:
		return "rejected"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Result describes a finished mutation.
type Result struct {
	Outcome Outcome
	// Product is the record returned by the catalog on success.
	Product client.Product
	// Fields holds per-field messages when Outcome is Rejected by local validation.
	Fields form.FieldErrors
	Err    error
}

// MutationKind names the three mutations.
type MutationKind int

const (
	CreateMutation MutationKind = iota
	UpdateMutation
	DeleteMutation
)

func (k MutationKind) String() string {
	switch k {
	case CreateMutation:
		return "create"
	case UpdateMutation:
		return "update"
	case DeleteMutation:
		return "delete"
	default:
		return fmt.Sprintf("MutationKind(%d)", int(k))
	}
}

// Status is the lifecycle of the last request of a mutation kind.
type Status int

const (
	Idle Status = iota
	Pending
	Success
	Failure
)

// MutationState is what the UI shows for a mutation kind.
type MutationState struct {
	Status Status
	Err    error
	At     time.Time
}

// Controller is safe for concurrent use.
type Controller struct {
	catalog Catalog
	cache   *query.Cache[[]client.Product]
	logger  *slog.Logger
	now     func() time.Time

	mu     sync.Mutex
	states map[MutationKind]MutationState
}

func NewController(catalog Catalog, cache *query.Cache[[]client.Product], logger *slog.Logger) *Controller {
	return &Controller{
		catalog: catalog,
		cache:   cache,
		logger:  logger.With("component", "table"),
		now:     time.Now,
		states:  make(map[MutationKind]MutationState),
	}
}

// Products returns live products, newest first, reading through the cache.
func (c *Controller) Products(ctx context.Context) ([]client.Product, error) {
	return c.cache.Get(ctx, ProductsKey, func(ctx context.Context) ([]client.Product, error) {
		list, err := c.catalog.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch products: %w", err)
		}
		return NewestFirst(list), nil
	})
}

// Cached returns the last fetched list without fetching.
func (c *Controller) Cached() (products []client.Product, fresh bool, ok bool) {
	return c.cache.Peek(ProductsKey)
}

// FetchedAt reports when the cached list was last fetched.
func (c *Controller) FetchedAt() (time.Time, bool) {
	return c.cache.FetchedAt(ProductsKey)
}

// Refresh drops the cached list so the next read fetches.
func (c *Controller) Refresh() {
	c.cache.Invalidate(ProductsKey)
}

// OnInvalidate calls fn whenever the product list is invalidated, locally or
// by a remote change. fn must not block.
func (c *Controller) OnInvalidate(fn func()) (unsubscribe func()) {
	return c.cache.Subscribe(func(key string) {
		if key == ProductsKey {
			fn()
		}
	})
}

// State returns the state of the last mutation of kind.
func (c *Controller) State(kind MutationKind) MutationState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.states[kind]
}

// Submit validates the add form and, when valid, creates the product.
// Nothing is sent while any field fails.
func (c *Controller) Submit(ctx context.Context, in form.Input) Result {
	values, fieldErrs := form.Validate(in)
	if len(fieldErrs) > 0 {
		return Result{Outcome: Rejected, Fields: fieldErrs}
	}
	return c.run(ctx, CreateMutation, "", func(ctx context.Context) (client.Product, error) {
		return c.catalog.Create(ctx, client.ProductInput{Name: values.Name, Price: values.Price, Stock: values.Stock})
	})
}

// Edit sends product with name, price and stock replaced by draft. An empty
// draft field abandons the edit without a request.
func (c *Controller) Edit(ctx context.Context, product client.Product, draft form.Input) Result {
	values, fieldErrs, err := form.ValidateEdit(draft)
	if errors.Is(err, form.ErrEditAbandoned) {
		return Result{Outcome: Abandoned, Err: err}
	}
	if len(fieldErrs) > 0 {
		return Result{Outcome: Rejected, Fields: fieldErrs}
	}
	merged := product
	merged.Name = values.Name
	merged.Price = values.Price
	merged.Stock = values.Stock
	return c.run(ctx, UpdateMutation, product.ID, func(ctx context.Context) (client.Product, error) {
		return c.catalog.Update(ctx, merged)
	})
}

// Delete removes the product with id once the user confirmed.
func (c *Controller) Delete(ctx context.Context, id string, confirmed bool) Result {
	if !confirmed {
		return Result{Outcome: Abandoned}
	}
	return c.run(ctx, DeleteMutation, id, func(ctx context.Context) (client.Product, error) {
		return client.Product{ID: id}, c.catalog.Delete(ctx, id)
	})
}

func (c *Controller) run(ctx context.Context, kind MutationKind, id string, call func(context.Context) (client.Product, error)) Result {
	c.setState(kind, Pending, nil)
	p, err := call(ctx)

	switch {
	case err == nil:
		c.setState(kind, Success, nil)
		c.cache.Invalidate(ProductsKey)
		c.logger.InfoContext(ctx, "Mutation succeeded", "kind", kind, "ID", p.ID)
		return Result{Outcome: Succeeded, Product: p}
	case errors.Is(err, client.ErrNotFound):
		c.setState(kind, Failure, err)
		c.cache.Invalidate(ProductsKey)
		c.logger.WarnContext(ctx, "Mutation target not found", "kind", kind, "ID", id)
		return Result{Outcome: NotFound, Err: err}
	case errors.Is(err, client.ErrRejected):
		c.setState(kind, Failure, err)
		c.logger.WarnContext(ctx, "Mutation rejected by catalog", "kind", kind, "ID", id, "error", err)
		return Result{Outcome: Rejected, Err: err}
	default:
		c.setState(kind, Failure, err)
		c.logger.ErrorContext(ctx, "Mutation failed", "kind", kind, "ID", id, "error", err)
		return Result{Outcome: Failed, Err: err}
	}
}

func (c *Controller) setState(kind MutationKind, status Status, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.states[kind] = MutationState{Status: status, Err: err, At: c.now()}
}

// NewestFirst drops deleted records and orders the rest by numeric id,
// highest first. Ids that are not integers go last in their original order.
func NewestFirst(list []client.Product) []client.Product {
	out := make([]client.Product, 0, len(list))
	for _, p := range list {
		if !p.Deleted {
			out = append(out, p)
		}
	}
	slices.SortStableFunc(out, func(a, b client.Product) int {
		an, aErr := strconv.ParseInt(a.ID, 10, 64)
		bn, bErr := strconv.ParseInt(b.ID, 10, 64)
		switch {
		case aErr != nil && bErr != nil:
			return 0
		case aErr != nil:
			return 1
		case bErr != nil:
			return -1
		default:
			return cmp.Compare(bn, an)
		}
	})
	return out
}
