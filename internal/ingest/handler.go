// Package ingest receives location samples from devices and feeds them to the
// fence engine.
package ingest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"roadwatch/internal/fence"
	"roadwatch/internal/platform/middleware"
	"roadwatch/internal/transport/shared"
	id "roadwatch/pkg/domain"
	dErrors "roadwatch/pkg/domain-errors"
)

// Evaluator runs geofence evaluation for incoming samples.
type Evaluator interface {
	ProcessSample(ctx context.Context, s fence.Sample) error
	ProcessBatch(ctx context.Context, samples []fence.Sample) error
}

// Handler handles the device-facing ingest endpoints. Callers authenticate
// with a device token; the subject and guardian come from the token claims,
// never from the request body.
type Handler struct {
	engine Evaluator
	logger *slog.Logger
	tracer trace.Tracer
}

func New(engine Evaluator, logger *slog.Logger) *Handler {
	return &Handler{
		engine: engine,
		logger: logger,
		tracer: otel.Tracer("roadwatch/ingest"),
	}
}

// Register mounts the ingest routes; the caller wraps them with the device
// auth chain.
func (h *Handler) Register(r chi.Router) {
	r.Post("/ingest/location", h.handleLocation)
	r.Post("/ingest/locations", h.handleLocations)
}

type locationRequest struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Address string  `json:"address,omitempty"`
	TripID  string  `json:"trip_id,omitempty"`
}

func (req locationRequest) toSample(subjectID id.SubjectID, guardianID id.GuardianID) (fence.Sample, error) {
	if req.Lat < -90 || req.Lat > 90 {
		return fence.Sample{}, dErrors.New(dErrors.CodeInvalidInput, "latitude out of range")
	}
	if req.Lon < -180 || req.Lon > 180 {
		return fence.Sample{}, dErrors.New(dErrors.CodeInvalidInput, "longitude out of range")
	}
	s := fence.Sample{
		SubjectID:  subjectID,
		GuardianID: guardianID,
		Lat:        req.Lat,
		Lon:        req.Lon,
		Address:    req.Address,
	}
	if req.TripID != "" {
		tripID, err := id.ParseTripID(req.TripID)
		if err != nil {
			return fence.Sample{}, err
		}
		s.TripID = tripID
	}
	return s, nil
}

func (h *Handler) handleLocation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subjectID := middleware.GetSubjectID(ctx)
	guardianID := middleware.GetGuardianID(ctx)
	if subjectID.IsNil() || guardianID.IsNil() {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing device context"))
		return
	}

	var req locationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	sample, err := req.toSample(subjectID, guardianID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	ctx, span := h.tracer.Start(ctx, "ingest.location",
		trace.WithAttributes(attribute.String("subject_id", subjectID.String())))
	defer span.End()

	if err := h.engine.ProcessSample(ctx, sample); err != nil {
		h.logger.ErrorContext(ctx, "sample processing failed",
			"subject_id", subjectID.String(),
			"error", err.Error(),
			"request_id", middleware.GetRequestID(ctx),
		)
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) handleLocations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subjectID := middleware.GetSubjectID(ctx)
	guardianID := middleware.GetGuardianID(ctx)
	if subjectID.IsNil() || guardianID.IsNil() {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing device context"))
		return
	}

	var req struct {
		Locations []locationRequest `json:"locations"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if len(req.Locations) == 0 {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "no locations provided"))
		return
	}

	samples := make([]fence.Sample, 0, len(req.Locations))
	for _, loc := range req.Locations {
		sample, err := loc.toSample(subjectID, guardianID)
		if err != nil {
			shared.WriteError(w, err)
			return
		}
		samples = append(samples, sample)
	}

	ctx, span := h.tracer.Start(ctx, "ingest.locations",
		trace.WithAttributes(
			attribute.String("subject_id", subjectID.String()),
			attribute.Int("count", len(samples)),
		))
	defer span.End()

	if info := middleware.GetDeviceInfo(ctx); info.Bot {
		h.logger.WarnContext(ctx, "bot user agent on ingest",
			"subject_id", subjectID.String(),
			"platform", info.Platform,
		)
	}

	if err := h.engine.ProcessBatch(ctx, samples); err != nil {
		h.logger.ErrorContext(ctx, "batch processing failed",
			"subject_id", subjectID.String(),
			"count", len(samples),
			"error", err.Error(),
			"request_id", middleware.GetRequestID(ctx),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusAccepted, map[string]any{"accepted": len(samples)})
}
