// Package handler exposes the guardian-facing region CRUD endpoints.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"roadwatch/internal/platform/middleware"
	"roadwatch/internal/region"
	"roadwatch/internal/transport/shared"
	id "roadwatch/pkg/domain"
	dErrors "roadwatch/pkg/domain-errors"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks

// Service defines the interface for region operations.
type Service interface {
	Create(ctx context.Context, guardianID id.GuardianID, r *region.Region) (*region.Region, error)
	Update(ctx context.Context, guardianID id.GuardianID, r *region.Region) (*region.Region, error)
	Delete(ctx context.Context, guardianID id.GuardianID, regionID id.RegionID) error
	Get(ctx context.Context, guardianID id.GuardianID, regionID id.RegionID) (*region.Region, error)
	List(ctx context.Context, guardianID id.GuardianID) ([]*region.Region, error)
}

// Handler handles region CRUD endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the region routes; the caller wraps them with the auth
// middleware chain.
func (h *Handler) Register(r chi.Router) {
	r.Route("/guardian/regions", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/{regionID}", h.handleGet)
		r.Put("/{regionID}", h.handleUpdate)
		r.Delete("/{regionID}", h.handleDelete)
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	guardianID := middleware.GetGuardianID(ctx)
	if guardianID.IsNil() {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing guardian context"))
		return
	}

	var req regionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	reg, err := req.toRegion()
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	created, err := h.service.Create(ctx, guardianID, reg)
	if err != nil {
		h.logError(ctx, "create region", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, toResponse(created))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	guardianID := middleware.GetGuardianID(ctx)
	regionID, err := id.ParseRegionID(chi.URLParam(r, "regionID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var req regionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	reg, err := req.toRegion()
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	reg.ID = regionID

	updated, err := h.service.Update(ctx, guardianID, reg)
	if err != nil {
		h.logError(ctx, "update region", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toResponse(updated))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	guardianID := middleware.GetGuardianID(ctx)
	regionID, err := id.ParseRegionID(chi.URLParam(r, "regionID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.service.Delete(ctx, guardianID, regionID); err != nil {
		h.logError(ctx, "delete region", err)
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	guardianID := middleware.GetGuardianID(ctx)
	regionID, err := id.ParseRegionID(chi.URLParam(r, "regionID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	reg, err := h.service.Get(ctx, guardianID, regionID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toResponse(reg))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	guardianID := middleware.GetGuardianID(ctx)
	if guardianID.IsNil() {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing guardian context"))
		return
	}
	regions, err := h.service.List(ctx, guardianID)
	if err != nil {
		h.logError(ctx, "list regions", err)
		shared.WriteError(w, err)
		return
	}
	out := make([]regionResponse, 0, len(regions))
	for _, reg := range regions {
		out = append(out, toResponse(reg))
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"regions": out})
}

func (h *Handler) logError(ctx context.Context, op string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, "region operation failed",
			"op", op,
			"error", err.Error(),
			"request_id", middleware.GetRequestID(ctx),
		)
	}
}
