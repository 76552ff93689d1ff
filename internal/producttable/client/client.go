// Package client talks to the catalog HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/abgdnv/catalogtable/pkg/config"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const productsPath = "/products"

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 << 10

// Product is a catalog record as served by the API.
type Product struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Price   float64 `json:"price"`
	Stock   int     `json:"stock"`
	Deleted bool    `json:"deleted"`
}

// ProductInput is the body of a create request.
type ProductInput struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Stock int     `json:"stock"`
}

type updateRequest struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Stock int     `json:"stock"`
}

type deleteRequest struct {
	ID string `json:"id"`
}

type response struct {
	status int
	body   []byte
}

// Client is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*response]
	logger     *slog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default traced client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger.With("component", "catalog-client")
	}
}

// New creates a Client for the API at baseURL. Requests time out after
// timeout and run through a circuit breaker configured by cb.
func New(baseURL string, timeout time.Duration, cb config.CircuitBreakerConfig, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: newCircuitBreaker(cb),
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// newCircuitBreaker trips on consecutive or proportional unavailability.
// NotFound and rejections are answers, not failures, and never trip it.
func newCircuitBreaker(cfg config.CircuitBreakerConfig) *gobreaker.CircuitBreaker[*response] {
	st := gobreaker.Settings{
		Name:        "catalog-api-cb",
		MaxRequests: cfg.HalfOpenRequests,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			total := counts.TotalSuccesses + counts.TotalFailures
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures ||
				(total >= cfg.ConsecutiveFailures &&
					float64(counts.TotalFailures)/float64(total)*100 > float64(cfg.ErrorRatePercent))
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(err, ErrUnavailable)
		},
	}
	return gobreaker.NewCircuitBreaker[*response](st)
}

// List returns the records the catalog considers live, in catalog order.
func (c *Client) List(ctx context.Context) ([]Product, error) {
	resp, err := c.do(ctx, http.MethodGet, nil)
	if err != nil {
		return nil, err
	}
	var list []Product
	if err := json.Unmarshal(resp.body, &list); err != nil {
		return nil, fmt.Errorf("%w: invalid product list: %v", ErrUnavailable, err)
	}
	if list == nil {
		list = []Product{}
	}
	return list, nil
}

// Create adds a product and returns the stored record.
func (c *Client) Create(ctx context.Context, in ProductInput) (Product, error) {
	return c.mutate(ctx, http.MethodPost, in)
}

// Update sends the full record. Only name, price and stock change at the catalog.
func (c *Client) Update(ctx context.Context, p Product) (Product, error) {
	return c.mutate(ctx, http.MethodPut, updateRequest{ID: p.ID, Name: p.Name, Price: p.Price, Stock: p.Stock})
}

// Delete soft-deletes the product with id.
func (c *Client) Delete(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, deleteRequest{ID: id})
	return err
}

func (c *Client) mutate(ctx context.Context, method string, body any) (Product, error) {
	resp, err := c.do(ctx, method, body)
	if err != nil {
		return Product{}, err
	}
	var p Product
	if err := json.Unmarshal(resp.body, &p); err != nil {
		return Product{}, fmt.Errorf("%w: invalid product: %v", ErrUnavailable, err)
	}
	return p, nil
}

// do sends one request through the breaker and maps the outcome onto the sentinel errors.
func (c *Client) do(ctx context.Context, method string, body any) (*response, error) {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
	}

	start := time.Now()
	resp, err := c.breaker.Execute(func() (*response, error) {
		return c.roundTrip(ctx, method, payload)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		c.logger.WarnContext(ctx, "Catalog circuit open", "method", method, "state", c.breaker.State().String())
		return nil, fmt.Errorf("%w: %v", ErrCircuitOpen, err)
	}
	if err != nil {
		c.logger.DebugContext(ctx, "Catalog request failed", "method", method, "error", err,
			"duration_ms", float64(time.Since(start).Nanoseconds())/1e6)
		return nil, err
	}
	c.logger.DebugContext(ctx, "Catalog request completed", "method", method, "status", resp.status,
		"duration_ms", float64(time.Since(start).Nanoseconds())/1e6)
	return resp, nil
}

func (c *Client) roundTrip(ctx context.Context, method string, payload []byte) (*response, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+productsPath, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		// A caller that gave up is not a catalog failure.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode >= 200 && httpResp.StatusCode < 300 {
		data, err := io.ReadAll(httpResp.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read response: %v", ErrUnavailable, err)
		}
		return &response{status: httpResp.StatusCode, body: data}, nil
	}

	data, _ := io.ReadAll(io.LimitReader(httpResp.Body, maxErrorBody))
	return nil, newAPIError(httpResp.StatusCode, data)
}

func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status}
	var decoded struct {
		Error            string            `json:"error"`
		ValidationErrors map[string]string `json:"validation_errors"`
	}
	if err := json.Unmarshal(body, &decoded); err == nil {
		apiErr.Message = decoded.Error
		apiErr.Fields = decoded.ValidationErrors
	} else {
		apiErr.Message = strings.TrimSpace(string(body))
	}

	switch {
	case status == http.StatusNotFound:
		apiErr.kind = ErrNotFound
	case status >= 400 && status < 500:
		apiErr.kind = ErrRejected
	default:
		apiErr.kind = ErrUnavailable
	}
	return apiErr
}
