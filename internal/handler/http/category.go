package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/anmar534/loctah-sub000/internal/domain"
	"github.com/anmar534/loctah-sub000/pkg/httputil"
)

// CategoryService is what the category endpoints need from the service
// layer.
type CategoryService interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
	CategoryTree(ctx context.Context) ([]*domain.Category, error)
	GetCategory(ctx context.Context, idOrSlug string) (*domain.Category, error)
	CategoryPath(ctx context.Context, idOrSlug string) ([]domain.Category, error)
	CategoryDescendants(ctx context.Context, idOrSlug string) ([]domain.Category, error)
	CreateCategory(ctx context.Context, in domain.CreateCategoryInput) (*domain.Category, error)
	UpdateCategory(ctx context.Context, id string, patch domain.UpdateCategoryInput) (*domain.Category, error)
	DeleteCategory(ctx context.Context, id string) error
}

// CategoryHandler handles HTTP requests for category endpoints.
type CategoryHandler struct {
	service CategoryService
	logger  *slog.Logger
}

// NewCategoryHandler creates a new category HTTP handler.
func NewCategoryHandler(svc CategoryService, logger *slog.Logger) *CategoryHandler {
	return &CategoryHandler{service: svc, logger: logger}
}

// ListCategories handles GET /api/v1/categories. Pass ?tree=true for the
// nested hierarchy instead of the flat list.
func (h *CategoryHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("tree") == "true" {
		tree, err := h.service.CategoryTree(r.Context())
		if err != nil {
			writeError(w, r, err, h.logger)
			return
		}
		httputil.WriteData(w, http.StatusOK, tree)
		return
	}

	flat, err := h.service.ListCategories(r.Context())
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, flat)
}

// GetCategory handles GET /api/v1/categories/{id}. The parameter may be an id
// or a slug.
func (h *CategoryHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.GetCategory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, c)
}

// GetCategoryPath handles GET /api/v1/categories/{id}/path.
func (h *CategoryHandler) GetCategoryPath(w http.ResponseWriter, r *http.Request) {
	path, err := h.service.CategoryPath(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, path)
}

// GetCategoryDescendants handles GET /api/v1/categories/{id}/descendants.
func (h *CategoryHandler) GetCategoryDescendants(w http.ResponseWriter, r *http.Request) {
	desc, err := h.service.CategoryDescendants(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, desc)
}

// CreateCategory handles POST /api/v1/categories.
func (h *CategoryHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var in domain.CreateCategoryInput
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	c, err := h.service.CreateCategory(r.Context(), in)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, c)
}

// UpdateCategory handles PUT /api/v1/categories/{id}.
func (h *CategoryHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var patch domain.UpdateCategoryInput
	if err := decode(w, r, &patch); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	c, err := h.service.UpdateCategory(r.Context(), id, patch)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, c)
}

// DeleteCategory handles DELETE /api/v1/categories/{id}.
func (h *CategoryHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.DeleteCategory(r.Context(), id); err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
