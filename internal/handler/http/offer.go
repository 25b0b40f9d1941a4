package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/anmar534/loctah-sub000/internal/domain"
	"github.com/anmar534/loctah-sub000/internal/offer"
	"github.com/anmar534/loctah-sub000/internal/repository"
	apperrors "github.com/anmar534/loctah-sub000/pkg/errors"
	"github.com/anmar534/loctah-sub000/pkg/httputil"
	"github.com/anmar534/loctah-sub000/pkg/middleware"
	"github.com/anmar534/loctah-sub000/pkg/pagination"
)

// OfferService is what the offer endpoints need from the service layer.
type OfferService interface {
	ListOffers(ctx context.Context, filter repository.OfferFilter) ([]offer.View, int, error)
	GetOffer(ctx context.Context, id string) (*offer.View, error)
	CreateOffer(ctx context.Context, actor domain.Actor, in domain.CreateOfferInput) (*offer.View, error)
	UpdateOffer(ctx context.Context, actor domain.Actor, id string, patch domain.UpdateOfferInput) (*offer.View, error)
	DeleteOffer(ctx context.Context, actor domain.Actor, id string) error
}

// OfferHandler handles HTTP requests for offer endpoints.
type OfferHandler struct {
	service OfferService
	logger  *slog.Logger
}

// NewOfferHandler creates a new offer HTTP handler.
func NewOfferHandler(svc OfferService, logger *slog.Logger) *OfferHandler {
	return &OfferHandler{service: svc, logger: logger}
}

// ListOffers handles GET /api/v1/offers with optional store_id, product_id
// and status filters.
func (h *OfferHandler) ListOffers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := pagination.FromRequest(r)
	filter := repository.OfferFilter{Page: page.Page, PerPage: page.PerPage}

	for param, dst := range map[string]**string{"store_id": &filter.StoreID, "product_id": &filter.ProductID} {
		v := q.Get(param)
		if v == "" {
			continue
		}
		if _, err := uuid.Parse(v); err != nil {
			writeError(w, r, apperrors.InvalidInput(param+" must be a valid UUID"), h.logger)
			return
		}
		*dst = &v
	}
	if v := q.Get("status"); v != "" {
		filter.Status = &v
	}

	views, total, err := h.service.ListOffers(r.Context(), filter)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(views, total, page.Page, page.PerPage))
}

// GetOffer handles GET /api/v1/offers/{id}.
func (h *OfferHandler) GetOffer(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	v, err := h.service.GetOffer(r.Context(), id)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, v)
}

// CreateOffer handles POST /api/v1/offers.
func (h *OfferHandler) CreateOffer(w http.ResponseWriter, r *http.Request) {
	var in domain.CreateOfferInput
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	v, err := h.service.CreateOffer(r.Context(), actorFrom(r), in)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, v)
}

// UpdateOffer handles PUT /api/v1/offers/{id}.
func (h *OfferHandler) UpdateOffer(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var patch domain.UpdateOfferInput
	if err := decode(w, r, &patch); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	v, err := h.service.UpdateOffer(r.Context(), actorFrom(r), id, patch)
	if err != nil {
		writeError(w, r, concealForbidden(err), h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, v)
}

// DeleteOffer handles DELETE /api/v1/offers/{id}.
func (h *OfferHandler) DeleteOffer(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.DeleteOffer(r.Context(), actorFrom(r), id); err != nil {
		writeError(w, r, concealForbidden(err), h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func actorFrom(r *http.Request) domain.Actor {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return domain.Actor{}
	}
	return domain.Actor{ID: claims.UserID, Role: domain.Role(claims.Role)}
}
