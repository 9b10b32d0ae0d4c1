// Package handler exposes allowance settings and the payout trigger.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"roadwatch/internal/allowance"
	"roadwatch/internal/platform/middleware"
	"roadwatch/internal/transport/shared"
	id "roadwatch/pkg/domain"
	dErrors "roadwatch/pkg/domain-errors"
)

// Service defines the interface for allowance operations.
type Service interface {
	Set(ctx context.Context, guardianID id.GuardianID, settings *allowance.Settings) (*allowance.Settings, error)
	Get(ctx context.Context, guardianID id.GuardianID, subjectID id.SubjectID) (*allowance.Settings, error)
	RunPayout(ctx context.Context) (int, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterGuardian mounts the guardian-authenticated settings routes.
func (h *Handler) RegisterGuardian(r chi.Router) {
	r.Route("/guardian/subjects/{subjectID}/allowance", func(r chi.Router) {
		r.Get("/", h.handleGet)
		r.Put("/", h.handleSet)
	})
}

// RegisterInternal mounts the payout trigger, intended for a cron caller on
// the internal listener.
func (h *Handler) RegisterInternal(r chi.Router) {
	r.Post("/internal/allowance/payout", h.handlePayout)
}

type settingsRequest struct {
	WeeklyCents int64 `json:"weekly_cents"`
	PayoutDay   int   `json:"payout_day"`
}

type settingsResponse struct {
	SubjectID   string  `json:"subject_id"`
	WeeklyCents int64   `json:"weekly_cents"`
	PayoutDay   int     `json:"payout_day"`
	LastPaidAt  *string `json:"last_paid_at,omitempty"`
	UpdatedAt   string  `json:"updated_at"`
}

func toResponse(s *allowance.Settings) settingsResponse {
	resp := settingsResponse{
		SubjectID:   s.SubjectID.String(),
		WeeklyCents: s.WeeklyCents,
		PayoutDay:   int(s.PayoutDay),
		UpdatedAt:   s.UpdatedAt.Format(time.RFC3339),
	}
	if s.LastPaidAt != nil {
		t := s.LastPaidAt.Format(time.RFC3339)
		resp.LastPaidAt = &t
	}
	return resp
}

func (h *Handler) handleSet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subjectID, err := id.ParseSubjectID(chi.URLParam(r, "subjectID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var req settingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	settings := &allowance.Settings{
		SubjectID:   subjectID,
		WeeklyCents: req.WeeklyCents,
		PayoutDay:   time.Weekday(req.PayoutDay),
	}
	saved, err := h.service.Set(ctx, middleware.GetGuardianID(ctx), settings)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toResponse(saved))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subjectID, err := id.ParseSubjectID(chi.URLParam(r, "subjectID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	settings, err := h.service.Get(ctx, middleware.GetGuardianID(ctx), subjectID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toResponse(settings))
}

func (h *Handler) handlePayout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	paid, err := h.service.RunPayout(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "payout sweep failed",
			"error", err.Error(),
			"request_id", middleware.GetRequestID(ctx),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"paid": paid})
}
