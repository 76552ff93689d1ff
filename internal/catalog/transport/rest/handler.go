// Package rest provides HTTP handlers for the product catalog.
package rest

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	catalogerrors "github.com/abgdnv/catalogtable/internal/catalog/errors"
	"github.com/abgdnv/catalogtable/internal/catalog/service"
	"github.com/abgdnv/catalogtable/pkg/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// ProductsPath is the collection endpoint.
const ProductsPath = "/products"

type Handler struct {
	service  service.ProductService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler creates a new instance of Handler with the provided service.
func NewHandler(service service.ProductService, logger *slog.Logger) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(),
		logger:   logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the HTTP routes for the catalog.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route(ProductsPath, func(r chi.Router) {
		r.MethodNotAllowed(web.MethodNotAllowed(h.logger,
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete))
		r.Get("/", h.FindAll)
		r.Post("/", h.Create)
		r.Put("/", h.Update)
		r.Delete("/", h.Delete)

		r.Route("/{id}", func(r chi.Router) {
			r.MethodNotAllowed(web.MethodNotAllowed(h.logger, http.MethodGet))
			r.Get("/", h.FindByID)
		})
	})

	r.Get("/healthz", h.HealthCheck)
}

// FindAll retrieves the list of live products.
func (h *Handler) FindAll(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	mLogger.DebugContext(r.Context(), "Received request to find all products")
	list, err := h.service.FindAll(r.Context())
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error retrieving product list", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to fetch products")
		return
	}
	mLogger.DebugContext(r.Context(), "Successfully retrieved product list", "count", len(list))
	web.RespondJSON(w, mLogger, http.StatusOK, list)
}

// FindByID retrieves a live product by its ID.
func (h *Handler) FindByID(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id := chi.URLParam(r, "id")

	mLogger.DebugContext(r.Context(), "Received request to find product by ID", "ID", id)
	found, err := h.service.FindByID(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, mLogger, err, id, "retrieve")
		return
	}
	mLogger.DebugContext(r.Context(), "Successfully retrieved product", "ID", found.ID, "Name", found.Name)
	web.RespondJSON(w, mLogger, http.StatusOK, found)
}

// Create handles the creation of a new product.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var productCreateDto service.ProductCreateDto
	if !h.decode(w, r, mLogger, &productCreateDto) {
		return
	}
	mLogger.DebugContext(r.Context(), "Received request to create product")
	if !web.ValidateStruct(w, r, mLogger, h.validate, productCreateDto) {
		return
	}

	newProduct, err := h.service.Create(r.Context(), productCreateDto)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error creating product", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to create product")
		return
	}
	mLogger.InfoContext(r.Context(), "Product created successfully", "ID", newProduct.ID, "Name", newProduct.Name)
	web.RespondJSON(w, mLogger, http.StatusCreated, newProduct)
}

// Update replaces name, price and stock of the product named by the body's id.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var productUpdateDto service.ProductUpdateDto
	if !h.decode(w, r, mLogger, &productUpdateDto) {
		return
	}
	if !web.ValidateStruct(w, r, mLogger, h.validate, productUpdateDto) {
		return
	}
	id := *productUpdateDto.ID
	mLogger.DebugContext(r.Context(), "Received request to update product", "ID", id)

	updated, err := h.service.Update(r.Context(), productUpdateDto)
	if err != nil {
		h.respondServiceError(w, r, mLogger, err, id, "update")
		return
	}
	mLogger.InfoContext(r.Context(), "Product updated successfully", "ID", updated.ID, "Name", updated.Name)
	web.RespondJSON(w, mLogger, http.StatusOK, updated)
}

// Delete soft-deletes the product named by the body's id and echoes the id.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var productDeleteDto service.ProductDeleteDto
	if !h.decode(w, r, mLogger, &productDeleteDto) {
		return
	}
	if !web.ValidateStruct(w, r, mLogger, h.validate, productDeleteDto) {
		return
	}
	id := *productDeleteDto.ID
	mLogger.DebugContext(r.Context(), "Received request to delete product", "ID", id)

	if err := h.service.Delete(r.Context(), productDeleteDto); err != nil {
		h.respondServiceError(w, r, mLogger, err, id, "delete")
		return
	}
	mLogger.InfoContext(r.Context(), "Product deleted successfully", "ID", id)
	web.RespondJSON(w, mLogger, http.StatusOK, productDeleteDto)
}

// HealthCheck is a simple health check endpoint.
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// decode writes the error response itself and reports whether the handler may proceed.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, mLogger *slog.Logger, dst any) bool {
	err := web.DecodeJSON(r, dst)
	if err == nil {
		return true
	}
	if errors.Is(err, web.ErrBodyTooLarge) {
		mLogger.WarnContext(r.Context(), "Request body too large", "error", err)
		web.RespondError(w, mLogger, http.StatusRequestEntityTooLarge, "Request body too large")
		return false
	}
	mLogger.WarnContext(r.Context(), "Error decoding request body", "error", err)
	web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
	return false
}

func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, mLogger *slog.Logger, err error, id, op string) {
	if errors.Is(err, catalogerrors.ErrProductNotFound) {
		mLogger.WarnContext(r.Context(), "Product not found", "ID", id, "op", op)
		web.RespondError(w, mLogger, http.StatusNotFound, fmt.Sprintf("Product with ID %s not found", id))
		return
	}
	mLogger.ErrorContext(r.Context(), "Error handling product", "ID", id, "op", op, "error", err)
	web.RespondError(w, mLogger, http.StatusInternalServerError, fmt.Sprintf("Failed to %s product with ID %s", op, id))
}

// loggerWithReqID creates a logger with the request ID from the context.
func (h *Handler) loggerWithReqID(r *http.Request) *slog.Logger {
	return h.logger.With("request_id", web.RequestID(r.Context()))
}
