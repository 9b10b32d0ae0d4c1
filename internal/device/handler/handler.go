// Package handler exposes device registration and token exchange endpoints.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"roadwatch/internal/device"
	"roadwatch/internal/platform/middleware"
	"roadwatch/internal/transport/shared"
	id "roadwatch/pkg/domain"
	dErrors "roadwatch/pkg/domain-errors"
)

// Service defines the interface for device operations.
type Service interface {
	Register(ctx context.Context, guardianID id.GuardianID, subjectID id.SubjectID, name string) (*device.Device, string, error)
	Authenticate(ctx context.Context, deviceID id.DeviceID, apiKey string) (string, error)
	List(ctx context.Context, guardianID id.GuardianID) ([]*device.Device, error)
	Revoke(ctx context.Context, guardianID id.GuardianID, deviceID id.DeviceID) error
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterGuardian mounts the guardian-authenticated device management routes.
func (h *Handler) RegisterGuardian(r chi.Router) {
	r.Route("/guardian/devices", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleRegister)
		r.Delete("/{deviceID}", h.handleRevoke)
	})
}

// RegisterPublic mounts the unauthenticated token exchange route.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/device/token", h.handleToken)
}

type registerRequest struct {
	SubjectID string `json:"subject_id"`
	Name      string `json:"name"`
}

type registerResponse struct {
	Device deviceResponse `json:"device"`
	APIKey string         `json:"api_key"`
}

type deviceResponse struct {
	ID         string  `json:"id"`
	SubjectID  string  `json:"subject_id"`
	Name       string  `json:"name"`
	LastSeenAt *string `json:"last_seen_at,omitempty"`
	CreatedAt  string  `json:"created_at"`
}

func toDeviceResponse(d *device.Device) deviceResponse {
	resp := deviceResponse{
		ID:        d.ID.String(),
		SubjectID: d.SubjectID.String(),
		Name:      d.Name,
		CreatedAt: d.CreatedAt.Format(time.RFC3339),
	}
	if d.LastSeenAt != nil {
		s := d.LastSeenAt.Format(time.RFC3339)
		resp.LastSeenAt = &s
	}
	return resp
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	guardianID := middleware.GetGuardianID(ctx)

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	subjectID, err := id.ParseSubjectID(req.SubjectID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	d, apiKey, err := h.service.Register(ctx, guardianID, subjectID, req.Name)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, registerResponse{
		Device: toDeviceResponse(d),
		APIKey: apiKey,
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	devices, err := h.service.List(ctx, middleware.GetGuardianID(ctx))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	out := make([]deviceResponse, 0, len(devices))
	for _, d := range devices {
		out = append(out, toDeviceResponse(d))
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"devices": out})
}

func (h *Handler) handleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	deviceID, err := id.ParseDeviceID(chi.URLParam(r, "deviceID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.service.Revoke(ctx, middleware.GetGuardianID(ctx), deviceID); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type tokenRequest struct {
	DeviceID string `json:"device_id"`
	APIKey   string `json:"api_key"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (h *Handler) handleToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	deviceID, err := id.ParseDeviceID(req.DeviceID)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid device credentials"))
		return
	}

	token, err := h.service.Authenticate(ctx, deviceID, req.APIKey)
	if err != nil {
		h.logger.WarnContext(ctx, "device token exchange rejected",
			"device_id", req.DeviceID,
			"request_id", middleware.GetRequestID(ctx),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: "Bearer"})
}
