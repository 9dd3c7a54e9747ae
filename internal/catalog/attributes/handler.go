package attributes

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/storefront-labs/storefront/internal/auth"
	"github.com/storefront-labs/storefront/internal/catalog/shared"
	"github.com/storefront-labs/storefront/internal/platform/httpx"
)

type Handler struct {
	logger       *slog.Logger
	service      *Service
	exposeErrors bool
}

func NewHandler(logger *slog.Logger, service *Service, exposeErrors bool) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, exposeErrors: exposeErrors}
}

// MountRoutes registers the attribute routes. Creating requires the admin role.
func (h *Handler) MountRoutes(r chi.Router, a auth.Middleware) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Show)
	r.With(a.RequireRole(auth.RoleAdmin)).Post("/", h.Create)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filters := shared.ParseListFilters(r.URL.Query())

	attrs, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list attributes failed", slog.Any("error", err))
		httpx.ServerError(w, "Failed to load attributes", err, h.exposeErrors)
		return
	}
	if attrs == nil {
		attrs = []Attribute{}
	}

	httpx.JSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"attributes": attrs,
		"total":      total,
		"page":       filters.Page,
		"limit":      filters.Limit,
	})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Fail(w, http.StatusBadRequest, "Invalid attribute ID")
		return
	}

	attr, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Fail(w, http.StatusNotFound, "Attribute not found")
			return
		}
		h.logger.Error("get attribute failed", slog.Int64("id", id), slog.Any("error", err))
		httpx.ServerError(w, "Failed to fetch attribute", err, h.exposeErrors)
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "attribute": attr})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	attr, err := h.service.Create(r.Context(), req)
	if err != nil {
		if errors.Is(err, ErrDuplicate) {
			httpx.Fail(w, http.StatusConflict, "Attribute already exists")
			return
		}
		var fields httpx.FieldErrors
		if !errors.As(err, &fields) {
			h.logger.Error("create attribute failed", slog.Any("error", err))
		}
		httpx.RespondError(w, err, "Failed to create attribute", h.exposeErrors)
		return
	}

	httpx.JSON(w, http.StatusCreated, map[string]any{
		"success":   true,
		"message":   "Attribute created successfully",
		"attribute": attr,
	})
}
