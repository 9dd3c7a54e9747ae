package categories

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

// MountRoutes registers the category routes. Writes require the admin role.
func (h *Handler) MountRoutes(r chi.Router, a auth.Middleware) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Show)
	r.Group(func(r chi.Router) {
		r.Use(a.RequireRole(auth.RoleAdmin))
		r.Post("/", h.Create)
		r.Post("/{id}/subcategories", h.CreateSubcategory)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filters := shared.ParseListFilters(r.URL.Query())

	categories, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list categories failed", slog.Any("error", err))
		httpx.ServerError(w, "Failed to load categories", err, h.exposeErrors)
		return
	}
	if categories == nil {
		categories = []Category{}
	}

	httpx.JSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"categories": categories,
		"total":      total,
		"page":       filters.Page,
		"limit":      filters.Limit,
	})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Fail(w, http.StatusBadRequest, "Invalid category ID")
		return
	}

	category, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Fail(w, http.StatusNotFound, "Category not found")
			return
		}
		h.logger.Error("get category failed", slog.Int64("id", id), slog.Any("error", err))
		httpx.ServerError(w, "Failed to fetch category", err, h.exposeErrors)
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "category": category})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	category, err := h.service.Create(r.Context(), req)
	if err != nil {
		if errors.Is(err, ErrDuplicate) {
			httpx.Fail(w, http.StatusConflict, "Category already exists")
			return
		}
		h.respondError(w, err, "Failed to create category")
		return
	}

	httpx.JSON(w, http.StatusCreated, map[string]any{
		"success":  true,
		"message":  "Category created successfully",
		"category": category,
	})
}

func (h *Handler) CreateSubcategory(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Fail(w, http.StatusBadRequest, "Invalid category ID")
		return
	}
	var req CreateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	sub, err := h.service.CreateSubcategory(r.Context(), id, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			httpx.Fail(w, http.StatusNotFound, "Category not found")
		case errors.Is(err, ErrDuplicate):
			httpx.Fail(w, http.StatusConflict, "Subcategory already exists")
		default:
			h.respondError(w, err, "Failed to create subcategory")
		}
		return
	}

	httpx.JSON(w, http.StatusCreated, map[string]any{
		"success":     true,
		"message":     "Subcategory created successfully",
		"subcategory": sub,
	})
}

func (h *Handler) respondError(w http.ResponseWriter, err error, fallback string) {
	var fields httpx.FieldErrors
	if !errors.As(err, &fields) {
		h.logger.Error(fallback, slog.Any("error", err))
	}
	httpx.RespondError(w, err, fallback, h.exposeErrors)
}
