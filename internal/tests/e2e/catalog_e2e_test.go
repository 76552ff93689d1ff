// Package e2e drives the catalog HTTP handler, running in an httptest.Server,
// with the product table's real client and controller.
package e2e

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/abgdnv/catalogtable/internal/catalog/app"
	"github.com/abgdnv/catalogtable/internal/catalog/config"
	"github.com/abgdnv/catalogtable/internal/catalog/store"
	"github.com/abgdnv/catalogtable/internal/producttable/client"
	"github.com/abgdnv/catalogtable/internal/producttable/form"
	"github.com/abgdnv/catalogtable/internal/producttable/query"
	"github.com/abgdnv/catalogtable/internal/producttable/table"
	pkgconfig "github.com/abgdnv/catalogtable/pkg/config"
	"github.com/abgdnv/catalogtable/pkg/messaging"
	"github.com/stretchr/testify/suite"
)

// skipE2ETests is the environment variable that can be set to skip E2E tests.
const skipE2ETests = "CATALOG_SKIP_E2E_TESTS"

type CatalogE2ESuite struct {
	suite.Suite
	server *httptest.Server
	cache  *query.Cache[[]client.Product]
	ctrl   *table.Controller
	logger *slog.Logger
	ctx    context.Context
}

func TestCatalogE2E(t *testing.T) {
	if os.Getenv(skipE2ETests) != "" {
		t.Skipf("%s is set", skipE2ETests)
	}
	suite.Run(t, new(CatalogE2ESuite))
}

func (s *CatalogE2ESuite) SetupSuite() {
	s.ctx = context.Background()
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
}

// SetupTest starts a fresh catalog seeded with Laptop (1) and Phone (2).
func (s *CatalogE2ESuite) SetupTest() {
	st := store.NewInMemoryStore()
	_, err := store.Seed(s.ctx, st, store.SeedDev, 0, nil)
	s.Require().NoError(err)

	cfg := &config.Config{}
	cfg.HTTPServer.MaxBodyBytes = 1 << 20
	cfg.Metrics = pkgconfig.MetricsConfig{Enabled: true, Path: "/metrics"}
	deps := app.SetupDependencies(st, messaging.NoopPublisher{}, "", s.logger)
	s.server = httptest.NewServer(app.SetupHttpHandler(deps, cfg))

	api := client.New(s.server.URL, 2*time.Second, pkgconfig.CircuitBreakerConfig{
		ConsecutiveFailures: 5,
		ErrorRatePercent:    60,
		OpenTimeout:         time.Second,
		HalfOpenRequests:    1,
	}, client.WithLogger(s.logger))
	s.cache = query.NewCache[[]client.Product]()
	s.ctrl = table.NewController(api, s.cache, s.logger)
}

func (s *CatalogE2ESuite) TearDownTest() {
	s.server.Close()
}

func (s *CatalogE2ESuite) ids() []string {
	products, err := s.ctrl.Products(s.ctx)
	s.Require().NoError(err)
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.ID)
	}
	return out
}

func (s *CatalogE2ESuite) TestCreateAndDeleteScenario() {
	s.Equal([]string{"2", "1"}, s.ids())

	created := s.ctrl.Submit(s.ctx, form.Input{Name: "Tablet", Price: "300", Stock: "7"})
	s.Require().Equal(table.Succeeded, created.Outcome, "create: %v", created.Err)
	s.Equal("3", created.Product.ID)
	s.Equal([]string{"3", "2", "1"}, s.ids())

	deleted := s.ctrl.Delete(s.ctx, "1", true)
	s.Require().Equal(table.Succeeded, deleted.Outcome, "delete: %v", deleted.Err)
	s.Equal([]string{"3", "2"}, s.ids())
}

func (s *CatalogE2ESuite) TestEdit() {
	products, err := s.ctrl.Products(s.ctx)
	s.Require().NoError(err)
	phone := products[0]

	res := s.ctrl.Edit(s.ctx, phone, form.Input{Name: "Phone X", Price: "999.99", Stock: "0"})
	s.Require().Equal(table.Succeeded, res.Outcome, "edit: %v", res.Err)

	products, err = s.ctrl.Products(s.ctx)
	s.Require().NoError(err)
	s.Equal(client.Product{ID: phone.ID, Name: "Phone X", Price: 999.99, Stock: 0}, products[0])
}

func (s *CatalogE2ESuite) TestEditDeletedRowIsNotFound() {
	products, err := s.ctrl.Products(s.ctx)
	s.Require().NoError(err)
	laptop := products[1]
	s.Require().Equal(table.Succeeded, s.ctrl.Delete(s.ctx, laptop.ID, true).Outcome)

	res := s.ctrl.Edit(s.ctx, laptop, form.Input{Name: "Laptop", Price: "1", Stock: "1"})

	s.Equal(table.NotFound, res.Outcome)
	s.ErrorIs(res.Err, client.ErrNotFound)
	s.Equal([]string{"2"}, s.ids())
}

func (s *CatalogE2ESuite) TestPriceZeroNeverReachesCatalog() {
	res := s.ctrl.Submit(s.ctx, form.Input{Name: "Pen", Price: "0", Stock: "1"})

	s.Equal(table.Rejected, res.Outcome)
	s.Equal(form.MsgPricePositive, res.Fields[form.FieldPrice])
	s.Equal([]string{"2", "1"}, s.ids())
}

func (s *CatalogE2ESuite) TestUnknownMethodNotAllowed() {
	req, err := http.NewRequestWithContext(s.ctx, http.MethodPatch, s.server.URL+"/products", nil)
	s.Require().NoError(err)

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusMethodNotAllowed, resp.StatusCode)
	s.Contains(resp.Header.Get("Allow"), http.MethodGet)
}

func (s *CatalogE2ESuite) TestMalformedJSONRejected() {
	resp, err := http.Post(s.server.URL+"/products", "application/json", strings.NewReader(`{"name":`))
	s.Require().NoError(err)
	defer resp.Body.Close()

	var body map[string]string
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&body))
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	s.Equal("Invalid request body", body["error"])
}

func (s *CatalogE2ESuite) TestTransportFailureKeepsCache() {
	before, err := s.ctrl.Products(s.ctx)
	s.Require().NoError(err)
	s.server.Close()

	res := s.ctrl.Delete(s.ctx, "1", true)

	s.Equal(table.Failed, res.Outcome)
	s.ErrorIs(res.Err, client.ErrUnavailable)
	cached, fresh, ok := s.cache.Peek(table.ProductsKey)
	s.True(ok)
	s.True(fresh)
	s.Equal(before, cached)
}
