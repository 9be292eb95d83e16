// Package rest provides HTTP handlers for sweet-related operations.
package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sweetlab/sweetshop/internal/auth"
	sweeterrors "github.com/sweetlab/sweetshop/internal/errors"
	"github.com/sweetlab/sweetshop/internal/service"
	"github.com/sweetlab/sweetshop/pkg/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
)

type Handler struct {
	inventory service.InventoryService
	catalog   service.CatalogService
	validate  *validator.Validate
	logger    *slog.Logger

	// ReadyCheck reports whether the store and cache are reachable.
	// Nil means always ready.
	ReadyCheck func(ctx context.Context) error
}

// NewHandler creates a new instance of the sweets API with the provided services.
func NewHandler(inventory service.InventoryService, catalog service.CatalogService, logger *slog.Logger) *Handler {
	return &Handler{
		inventory: inventory,
		catalog:   catalog,
		validate:  validator.New(),
		logger:    logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the HTTP routes for the sweets service.
func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1/sweets", func(r chi.Router) {
		r.Use(web.AuthMiddleware)

		r.Get("/", h.FindAll)
		r.Get("/search", h.Search)
		r.Post("/", h.Create)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.FindByID)
			r.Get("/total-price", h.TotalPrice)
			r.Put("/", h.Update)
			r.Delete("/", h.DeleteByID)
			r.Post("/purchase", h.Purchase)
			r.Post("/restock", h.Restock)
		})
	})

	r.Get("/healthz", h.HealthCheck)
	r.Get("/readyz", h.Readyz)
}

// FindByID retrieves a sweet by its ID.
func (h *Handler) FindByID(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}

	mLogger.DebugContext(r.Context(), "Received request to find sweet by ID", "ID", id)
	found, err := h.catalog.FindByID(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, mLogger, err, fmt.Sprintf("retrieve sweet with ID %s", id))
		return
	}
	mLogger.DebugContext(r.Context(), "Successfully retrieved sweet", "ID", found.ID, "Name", found.Name)
	web.RespondJSON(w, mLogger, http.StatusOK, found)
}

// FindAll retrieves the full catalog through the cache-aside read path.
func (h *Handler) FindAll(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	mLogger.DebugContext(r.Context(), "Received request to find all sweets")
	list, err := h.catalog.FindAll(r.Context())
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error retrieving sweet list", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to fetch sweets")
		return
	}
	mLogger.DebugContext(r.Context(), "Successfully retrieved sweet list", "count", len(list))
	web.RespondJSON(w, mLogger, http.StatusOK, list)
}

// Search runs a fuzzy catalog search with optional name, category and price bounds.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	minPrice, ok := web.ParseOptionalPriceBound(r, w, mLogger, "minPrice")
	if !ok {
		return
	}
	maxPrice, ok := web.ParseOptionalPriceBound(r, w, mLogger, "maxPrice")
	if !ok {
		return
	}
	if minPrice != nil && maxPrice != nil && *minPrice > *maxPrice {
		web.RespondError(w, mLogger, http.StatusBadRequest, "minPrice must not exceed maxPrice")
		return
	}

	criteria := service.SearchCriteria{
		Name:     r.URL.Query().Get("name"),
		Category: r.URL.Query().Get("category"),
		MinPrice: minPrice,
		MaxPrice: maxPrice,
	}
	mLogger.DebugContext(r.Context(), "Received request to search sweets",
		"name", criteria.Name, "category", criteria.Category)

	list, err := h.catalog.Search(r.Context(), criteria)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error searching sweets", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to search sweets")
		return
	}
	mLogger.DebugContext(r.Context(), "Successfully searched sweets", "count", len(list))
	web.RespondJSON(w, mLogger, http.StatusOK, list)
}

// TotalPrice returns price * stock for a single sweet.
func (h *Handler) TotalPrice(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}

	total, err := h.catalog.TotalPriceByID(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, mLogger, err, fmt.Sprintf("compute total price for sweet with ID %s", id))
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, map[string]float64{"total_price": total})
}

// Create handles the creation of a new sweet. Admin only.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var createDto service.SweetCreateDto
	if !h.decodeAndValidate(w, r, mLogger, &createDto) {
		return
	}
	mLogger.DebugContext(r.Context(), "Received request to create sweet", "sweet", createDto)

	newSweet, err := h.inventory.Create(r.Context(), h.grantFor(r), createDto)
	if err != nil {
		h.respondServiceError(w, r, mLogger, err, "create sweet")
		return
	}
	mLogger.InfoContext(r.Context(), "Sweet created successfully", "ID", newSweet.ID, "Name", newSweet.Name)
	web.RespondJSON(w, mLogger, http.StatusCreated, newSweet)
}

// Update applies a partial update to a sweet. Admin only.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	var patch service.SweetUpdateDto
	if !h.decodeAndValidate(w, r, mLogger, &patch) {
		return
	}
	if patch.IsEmpty() {
		web.RespondError(w, mLogger, http.StatusBadRequest, "At least one field must be provided")
		return
	}
	mLogger.DebugContext(r.Context(), "Received request to update sweet", "ID", id)

	updated, err := h.inventory.Update(r.Context(), h.grantFor(r), id, patch)
	if err != nil {
		h.respondServiceError(w, r, mLogger, err, fmt.Sprintf("update sweet with ID %s", id))
		return
	}
	mLogger.InfoContext(r.Context(), "Sweet updated successfully", "ID", updated.ID, "Name", updated.Name)
	web.RespondJSON(w, mLogger, http.StatusOK, updated)
}

// DeleteByID deletes a sweet by its ID. Admin only.
func (h *Handler) DeleteByID(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	mLogger.DebugContext(r.Context(), "Received request to delete sweet", "ID", id)
	if err := h.inventory.Delete(r.Context(), h.grantFor(r), id); err != nil {
		h.respondServiceError(w, r, mLogger, err, fmt.Sprintf("delete sweet with ID %s", id))
		return
	}
	mLogger.InfoContext(r.Context(), "Sweet deleted successfully", "ID", id)
	w.WriteHeader(http.StatusNoContent)
}

// Purchase decrements stock for a sweet by the requested quantity.
func (h *Handler) Purchase(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	var quantityDto service.QuantityDto
	if !h.decodeAndValidate(w, r, mLogger, &quantityDto) {
		return
	}
	mLogger.DebugContext(r.Context(), "Received request to purchase sweet", "ID", id, "Quantity", quantityDto.Quantity)

	purchased, err := h.inventory.Purchase(r.Context(), id, quantityDto.Quantity)
	if err != nil {
		h.respondServiceError(w, r, mLogger, err, fmt.Sprintf("purchase sweet with ID %s", id))
		return
	}
	mLogger.InfoContext(r.Context(), "Sweet purchased successfully",
		"ID", purchased.ID, "Quantity", quantityDto.Quantity, "Remaining", purchased.Stock)
	web.RespondJSON(w, mLogger, http.StatusOK, purchased)
}

// Restock increments stock for a sweet by the requested quantity. Admin only.
func (h *Handler) Restock(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	var quantityDto service.QuantityDto
	if !h.decodeAndValidate(w, r, mLogger, &quantityDto) {
		return
	}
	mLogger.DebugContext(r.Context(), "Received request to restock sweet", "ID", id, "Quantity", quantityDto.Quantity)

	restocked, err := h.inventory.Restock(r.Context(), h.grantFor(r), id, quantityDto.Quantity)
	if err != nil {
		h.respondServiceError(w, r, mLogger, err, fmt.Sprintf("restock sweet with ID %s", id))
		return
	}
	mLogger.InfoContext(r.Context(), "Sweet restocked successfully", "ID", restocked.ID, "NewStock", restocked.Stock)
	web.RespondJSON(w, mLogger, http.StatusOK, restocked)
}

// HealthCheck is a simple health check endpoint.
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// Readyz reports readiness of the store and cache.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	if h.ReadyCheck != nil {
		if err := h.ReadyCheck(r.Context()); err != nil {
			h.loggerWithReqID(r).WarnContext(r.Context(), "Readiness check failed", "error", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
}

// decodeAndValidate decodes the JSON body into dto and validates it.
// On failure a 400 response has already been written.
func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, mLogger *slog.Logger, dto any) bool {
	if err := json.NewDecoder(r.Body).Decode(dto); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := h.validate.Struct(dto); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			// If the error is a validation error, we can extract field-specific errors.
			errorResponse := make(map[string]string)
			for _, fieldErr := range validationErrors {
				// fieldErr.Tag() returns "required", "max", etc.
				errorResponse[fieldErr.Field()] = "failed on rule: " + fieldErr.Tag()
			}
			mLogger.WarnContext(r.Context(), "Validation errors occurred", "errors", errorResponse)
			web.RespondJSON(w, mLogger, http.StatusBadRequest, map[string]any{"validation_errors": errorResponse})
			return false
		}
		mLogger.ErrorContext(r.Context(), "Error validating request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// respondServiceError maps service error kinds to HTTP status codes.
func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, mLogger *slog.Logger, err error, action string) {
	switch {
	case errors.Is(err, sweeterrors.ErrSweetNotFound):
		mLogger.WarnContext(r.Context(), "Sweet not found", "action", action)
		web.RespondError(w, mLogger, http.StatusNotFound, "Sweet not found")
	case errors.Is(err, sweeterrors.ErrInsufficientStock):
		mLogger.WarnContext(r.Context(), "Insufficient stock", "action", action)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Insufficient stock")
	case errors.Is(err, sweeterrors.ErrAdminRequired):
		mLogger.WarnContext(r.Context(), "Admin privileges required", "action", action)
		web.RespondError(w, mLogger, http.StatusForbidden, "Admin privileges required")
	default:
		mLogger.ErrorContext(r.Context(), "Unexpected service error", "action", action, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, fmt.Sprintf("Failed to %s", action))
	}
}

// grantFor mints the admin capability from the upstream-verified caller role.
func (h *Handler) grantFor(r *http.Request) auth.AdminGrant {
	role, _ := web.GetUserRole(r.Context())
	return auth.GrantFor(auth.Role(role))
}

// loggerWithReqID creates a logger with the request ID from the context.
func (h *Handler) loggerWithReqID(r *http.Request) *slog.Logger {
	reqID := middleware.GetReqID(r.Context())
	return h.logger.With("request_id", reqID)
}
