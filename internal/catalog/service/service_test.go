package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	catalogerrors "github.com/abgdnv/catalogtable/internal/catalog/errors"
	"github.com/abgdnv/catalogtable/internal/catalog/store"
	"github.com/abgdnv/catalogtable/pkg/messaging"
	"github.com/abgdnv/catalogtable/pkg/messaging/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockProductStore is a mock implementation of the ProductStore interface
type mockProductStore struct {
	products []store.Product
	product  store.Product
	error    error

	lastID string
}

func (m *mockProductStore) List(_ context.Context) ([]store.Product, error) {
	if m.error != nil {
		return nil, m.error
	}
	return m.products, nil
}

func (m *mockProductStore) FindByID(_ context.Context, id string) (*store.Product, error) {
	m.lastID = id
	if m.error != nil {
		return nil, m.error
	}
	return &m.product, nil
}

func (m *mockProductStore) Create(_ context.Context, name string, price float64, stock int) (*store.Product, error) {
	if m.error != nil {
		return nil, m.error
	}
	return &store.Product{ID: m.product.ID, Name: name, Price: price, Stock: stock}, nil
}

func (m *mockProductStore) Update(_ context.Context, id, name string, price float64, stock int) (*store.Product, error) {
	m.lastID = id
	if m.error != nil {
		return nil, m.error
	}
	return &store.Product{ID: id, Name: name, Price: price, Stock: stock}, nil
}

func (m *mockProductStore) Delete(_ context.Context, id string) error {
	m.lastID = id
	return m.error
}

func (m *mockProductStore) Stats(_ context.Context) (store.Stats, error) {
	return store.Stats{Live: len(m.products), Total: len(m.products)}, m.error
}

// mockPublisher records published events.
type mockPublisher struct {
	events []messaging.Event
	error  error
}

func (m *mockPublisher) Publish(_ context.Context, event messaging.Event) error {
	m.events = append(m.events, event)
	return m.error
}

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func ptr[T any](v T) *T { return &v }

func newTestService(st store.ProductStore, pub messaging.Publisher) *service {
	s := NewService(st, pub, "test.products", testLogger).(*service)
	s.now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	return s
}

func Test_ProductService_FindAll(t *testing.T) {
	ErrStoreError := errors.New("store error")
	testCases := []struct {
		name         string
		mockStore    *mockProductStore
		expectedList []ProductDto
		expectError  error
	}{
		{
			name: "Success - products found",
			mockStore: &mockProductStore{
				products: []store.Product{{ID: "1", Name: "Laptop", Price: 1200, Stock: 10}},
			},
			expectedList: []ProductDto{{ID: "1", Name: "Laptop", Price: 1200, Stock: 10}},
		},
		{
			name:         "Success - no products",
			mockStore:    &mockProductStore{products: []store.Product{}},
			expectedList: []ProductDto{},
		},
		{
			name:        "Error - store error",
			mockStore:   &mockProductStore{error: ErrStoreError},
			expectError: ErrStoreError,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			service := newTestService(tc.mockStore, &mockPublisher{})
			// when
			found, err := service.FindAll(context.Background())
			// then
			if tc.expectError != nil {
				assert.ErrorIs(t, err, tc.expectError)
				assert.Nil(t, found)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, found)
			assert.Equal(t, tc.expectedList, found)
		})
	}
}

func Test_ProductService_FindByID(t *testing.T) {
	// given
	st := &mockProductStore{error: catalogerrors.ErrProductNotFound}
	service := newTestService(st, &mockPublisher{})

	// when
	found, err := service.FindByID(context.Background(), "7")

	// then
	assert.ErrorIs(t, err, catalogerrors.ErrProductNotFound)
	assert.Nil(t, found)
	assert.Equal(t, "7", st.lastID)
}

func Test_ProductService_Create(t *testing.T) {
	ErrStoreError := errors.New("store error")
	testCases := []struct {
		name        string
		mockStore   *mockProductStore
		publisher   *mockPublisher
		product     ProductCreateDto
		expected    *ProductDto
		expectError error
	}{
		{
			name:      "Success - product created and announced",
			mockStore: &mockProductStore{product: store.Product{ID: "3"}},
			publisher: &mockPublisher{},
			product:   ProductCreateDto{Name: ptr("Tablet"), Price: ptr(500.0), Stock: ptr(5)},
			expected:  &ProductDto{ID: "3", Name: "Tablet", Price: 500, Stock: 5},
		},
		{
			name:      "Success - publish failure does not fail the create",
			mockStore: &mockProductStore{product: store.Product{ID: "3"}},
			publisher: &mockPublisher{error: errors.New("bus down")},
			product:   ProductCreateDto{Name: ptr("Tablet"), Price: ptr(500.0), Stock: ptr(5)},
			expected:  &ProductDto{ID: "3", Name: "Tablet", Price: 500, Stock: 5},
		},
		{
			name:        "Error - store error",
			mockStore:   &mockProductStore{error: ErrStoreError},
			publisher:   &mockPublisher{},
			product:     ProductCreateDto{Name: ptr("Tablet"), Price: ptr(500.0), Stock: ptr(5)},
			expectError: ErrStoreError,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			service := newTestService(tc.mockStore, tc.publisher)
			// when
			created, err := service.Create(context.Background(), tc.product)
			// then
			if tc.expectError != nil {
				assert.ErrorIs(t, err, tc.expectError)
				assert.Nil(t, created)
				assert.Empty(t, tc.publisher.events)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, created)
			require.Len(t, tc.publisher.events, 1)
			event := tc.publisher.events[0].(events.ProductChangedEvent)
			assert.Equal(t, events.ProductCreated, event.Action)
			assert.Equal(t, "3", event.ProductID)
			assert.Equal(t, "test.products", event.Subject())
		})
	}
}

func Test_ProductService_Update(t *testing.T) {
	testCases := []struct {
		name        string
		mockStore   *mockProductStore
		expected    *ProductDto
		expectError error
		wantEvents  int
	}{
		{
			name:       "Success - product updated",
			mockStore:  &mockProductStore{},
			expected:   &ProductDto{ID: "1", Name: "Laptop Pro", Price: 1300, Stock: 8},
			wantEvents: 1,
		},
		{
			name:        "Error - product not found",
			mockStore:   &mockProductStore{error: catalogerrors.ErrProductNotFound},
			expectError: catalogerrors.ErrProductNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			pub := &mockPublisher{}
			service := newTestService(tc.mockStore, pub)
			dto := ProductUpdateDto{ID: ptr("1"), Name: ptr("Laptop Pro"), Price: ptr(1300.0), Stock: ptr(8)}
			// when
			updated, err := service.Update(context.Background(), dto)
			// then
			assert.Equal(t, "1", tc.mockStore.lastID)
			assert.Len(t, pub.events, tc.wantEvents)
			if tc.expectError != nil {
				assert.ErrorIs(t, err, tc.expectError)
				assert.Nil(t, updated)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, updated)
			assert.Equal(t, events.ProductUpdated, pub.events[0].(events.ProductChangedEvent).Action)
		})
	}
}

func Test_ProductService_Delete(t *testing.T) {
	testCases := []struct {
		name        string
		mockStore   *mockProductStore
		expectError error
		wantEvents  int
	}{
		{
			name:       "Success - product deleted",
			mockStore:  &mockProductStore{},
			wantEvents: 1,
		},
		{
			name:        "Error - product not found",
			mockStore:   &mockProductStore{error: catalogerrors.ErrProductNotFound},
			expectError: catalogerrors.ErrProductNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			pub := &mockPublisher{}
			service := newTestService(tc.mockStore, pub)
			// when
			err := service.Delete(context.Background(), ProductDeleteDto{ID: ptr("2")})
			// then
			assert.Equal(t, "2", tc.mockStore.lastID)
			assert.Len(t, pub.events, tc.wantEvents)
			if tc.expectError != nil {
				assert.ErrorIs(t, err, tc.expectError)
				return
			}
			require.NoError(t, err)
			event := pub.events[0].(events.ProductChangedEvent)
			assert.Equal(t, events.ProductDeleted, event.Action)
			assert.Equal(t, "2", event.ProductID)
			assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), event.OccurredAt)
		})
	}
}

func Test_NewService_NilPublisherIsNoop(t *testing.T) {
	// given
	service := NewService(&mockProductStore{product: store.Product{ID: "1"}}, nil, "", testLogger)

	// when
	_, err := service.Create(context.Background(), ProductCreateDto{Name: ptr("a"), Price: ptr(1.0), Stock: ptr(1)})

	// then
	assert.NoError(t, err)
}
