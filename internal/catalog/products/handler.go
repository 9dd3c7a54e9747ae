package products

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/storefront-labs/storefront/internal/auth"
	"github.com/storefront-labs/storefront/internal/catalog/shared"
	"github.com/storefront-labs/storefront/internal/platform/httpx"
)

// imagesField is the multipart field shared by every uploaded image.
const imagesField = "images"

// multipartMemory is the part of a multipart body kept in memory; the rest
// spills to temporary files.
const multipartMemory = 8 << 20

// Handler serves the product endpoints.
type Handler struct {
	logger       *slog.Logger
	service      *Service
	maxBody      int64
	exposeErrors bool
}

// HandlerConfig tunes request handling.
type HandlerConfig struct {
	// MaxBodyBytes caps the size of a create request. Zero disables the cap.
	MaxBodyBytes int64
	// ExposeErrors attaches internal error text to 500 responses.
	ExposeErrors bool
}

// NewHandler builds a Handler.
func NewHandler(logger *slog.Logger, service *Service, cfg HandlerConfig) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:       logger,
		service:      service,
		maxBody:      cfg.MaxBodyBytes,
		exposeErrors: cfg.ExposeErrors,
	}
}

// MountRoutes registers the product routes. Writes require the admin role.
func (h *Handler) MountRoutes(r chi.Router, a auth.Middleware) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Show)
	r.Group(func(r chi.Router) {
		r.Use(a.RequireRole(auth.RoleAdmin))
		r.Post("/add", h.Create)
		r.Delete("/{id}", h.Delete)
	})
}

type detailResponse struct {
	Success bool    `json:"success"`
	Message string  `json:"message,omitempty"`
	Product *Detail `json:"product"`
}

type listResponse struct {
	Success  bool      `json:"success"`
	Products []Summary `json:"products"`
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	Limit    int       `json:"limit"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.maxBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpx.Fail(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		httpx.Fail(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			h.logger.Warn("remove multipart temp files", slog.Any("error", err))
		}
	}()

	form := CreateForm{Values: r.MultipartForm.Value}
	for _, fh := range r.MultipartForm.File[imagesField] {
		fh := fh
		form.Images = append(form.Images, ImageFile{
			Filename: fh.Filename,
			Size:     fh.Size,
			Open:     func() (io.ReadCloser, error) { return fh.Open() },
		})
	}

	detail, err := h.service.Create(r.Context(), form)
	if err != nil {
		if errors.Is(err, ErrNoImages) {
			httpx.Fail(w, http.StatusBadRequest, noImagesMessage)
			return
		}
		var fields httpx.FieldErrors
		if !errors.As(err, &fields) {
			h.logger.Error("create product failed", slog.Any("error", err))
		}
		httpx.RespondError(w, err, "Failed to create product", h.exposeErrors)
		return
	}

	httpx.JSON(w, http.StatusCreated, detailResponse{
		Success: true,
		Message: "Product created successfully",
		Product: detail,
	})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Fail(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	detail, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Fail(w, http.StatusNotFound, "Product not found")
			return
		}
		h.logger.Error("get product failed", slog.Int64("id", id), slog.Any("error", err))
		httpx.ServerError(w, "Failed to fetch product", err, h.exposeErrors)
		return
	}

	httpx.JSON(w, http.StatusOK, detailResponse{Success: true, Product: detail})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filters := shared.ParseListFilters(r.URL.Query())

	summaries, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list products failed", slog.Any("error", err))
		httpx.ServerError(w, "Failed to load products", err, h.exposeErrors)
		return
	}

	httpx.JSON(w, http.StatusOK, listResponse{
		Success:  true,
		Products: summaries,
		Total:    total,
		Page:     filters.Page,
		Limit:    filters.Limit,
	})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Fail(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Fail(w, http.StatusNotFound, "Product not found")
			return
		}
		h.logger.Error("delete product failed", slog.Int64("id", id), slog.Any("error", err))
		httpx.ServerError(w, "Failed to delete product", err, h.exposeErrors)
		return
	}

	httpx.JSON(w, http.StatusOK, httpx.Envelope{Success: true, Message: "Product deleted successfully"})
}
