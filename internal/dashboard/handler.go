// Package dashboard serves the guardian's read views: event history, the
// allowance ledger, and alerts.
package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"roadwatch/internal/event"
	"roadwatch/internal/ledger"
	"roadwatch/internal/notify"
	"roadwatch/internal/platform/middleware"
	"roadwatch/internal/transport/shared"
	id "roadwatch/pkg/domain"
	dErrors "roadwatch/pkg/domain-errors"
	"roadwatch/pkg/platform/sentinel"
)

// EventReader serves the subject's transition history.
type EventReader interface {
	ListBySubject(ctx context.Context, subjectID id.SubjectID, regionID id.RegionID, limit int) ([]*event.Event, error)
}

// LedgerReader serves balance and statement views.
type LedgerReader interface {
	Balance(ctx context.Context, subjectID id.SubjectID) (int64, error)
	Statement(ctx context.Context, subjectID id.SubjectID, limit int) ([]*ledger.Entry, error)
}

// Handler bundles the guardian dashboard reads.
type Handler struct {
	events EventReader
	ledger LedgerReader
	alerts notify.AlertStore
	logger *slog.Logger
}

func New(events EventReader, ledgerReader LedgerReader, alerts notify.AlertStore, logger *slog.Logger) *Handler {
	return &Handler{events: events, ledger: ledgerReader, alerts: alerts, logger: logger}
}

// Register mounts the dashboard routes; the caller wraps them with the
// guardian auth chain.
func (h *Handler) Register(r chi.Router) {
	r.Get("/guardian/subjects/{subjectID}/events", h.handleEvents)
	r.Get("/guardian/subjects/{subjectID}/ledger", h.handleLedger)
	r.Get("/guardian/alerts", h.handleAlerts)
	r.Post("/guardian/alerts/{alertID}/ack", h.handleAckAlert)
}

type eventResponse struct {
	ID             string  `json:"id"`
	RegionID       string  `json:"region_id"`
	TripID         *string `json:"trip_id,omitempty"`
	Action         string  `json:"action"`
	Lat            float64 `json:"lat"`
	Lon            float64 `json:"lon"`
	Address        string  `json:"address,omitempty"`
	LedgerEntryID  *string `json:"ledger_entry_id,omitempty"`
	NotificationID *string `json:"notification_id,omitempty"`
	CreatedAt      string  `json:"created_at"`
}

func toEventResponse(e *event.Event) eventResponse {
	resp := eventResponse{
		ID:        e.ID.String(),
		RegionID:  e.RegionID.String(),
		Action:    string(e.Action),
		Lat:       e.Lat,
		Lon:       e.Lon,
		Address:   e.Address,
		CreatedAt: e.CreatedAt.Format(time.RFC3339),
	}
	if !e.TripID.IsNil() {
		s := e.TripID.String()
		resp.TripID = &s
	}
	if !e.LedgerEntryID.IsNil() {
		s := e.LedgerEntryID.String()
		resp.LedgerEntryID = &s
	}
	if !e.NotificationID.IsNil() {
		s := e.NotificationID.String()
		resp.NotificationID = &s
	}
	return resp
}

func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subjectID, err := id.ParseSubjectID(chi.URLParam(r, "subjectID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var regionID id.RegionID
	if raw := r.URL.Query().Get("region_id"); raw != "" {
		regionID, err = id.ParseRegionID(raw)
		if err != nil {
			shared.WriteError(w, err)
			return
		}
	}

	events, err := h.events.ListBySubject(ctx, subjectID, regionID, queryLimit(r))
	if err != nil {
		h.logError(ctx, "list events", err)
		shared.WriteError(w, dErrors.Wrap(dErrors.CodeInternal, "failed to list events", err))
		return
	}
	out := make([]eventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, toEventResponse(e))
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"events": out})
}

type entryResponse struct {
	ID          string `json:"id"`
	Direction   string `json:"direction"`
	AmountCents int64  `json:"amount_cents"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
}

func (h *Handler) handleLedger(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subjectID, err := id.ParseSubjectID(chi.URLParam(r, "subjectID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	balance, err := h.ledger.Balance(ctx, subjectID)
	if err != nil {
		h.logError(ctx, "ledger balance", err)
		shared.WriteError(w, err)
		return
	}
	entries, err := h.ledger.Statement(ctx, subjectID, queryLimit(r))
	if err != nil {
		h.logError(ctx, "ledger statement", err)
		shared.WriteError(w, err)
		return
	}

	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryResponse{
			ID:          e.ID.String(),
			Direction:   string(e.Direction),
			AmountCents: e.AmountCents,
			Description: e.Description,
			CreatedAt:   e.CreatedAt.Format(time.RFC3339),
		})
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"balance_cents": balance,
		"entries":       out,
	})
}

type alertResponse struct {
	ID           string `json:"id"`
	SubjectID    string `json:"subject_id"`
	Message      string `json:"message"`
	Severity     string `json:"severity"`
	Acknowledged bool   `json:"acknowledged"`
	CreatedAt    string `json:"created_at"`
}

func (h *Handler) handleAlerts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	guardianID := middleware.GetGuardianID(ctx)
	unackedOnly := r.URL.Query().Get("unacked") == "true"

	alerts, err := h.alerts.ListByGuardian(ctx, guardianID, unackedOnly)
	if err != nil {
		h.logError(ctx, "list alerts", err)
		shared.WriteError(w, dErrors.Wrap(dErrors.CodeInternal, "failed to list alerts", err))
		return
	}
	out := make([]alertResponse, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, alertResponse{
			ID:           a.ID.String(),
			SubjectID:    a.SubjectID.String(),
			Message:      a.Message,
			Severity:     string(a.Severity),
			Acknowledged: a.Acknowledged,
			CreatedAt:    a.CreatedAt.Format(time.RFC3339),
		})
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"alerts": out})
}

func (h *Handler) handleAckAlert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	alertID, err := id.ParseAlertID(chi.URLParam(r, "alertID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.alerts.Acknowledge(ctx, middleware.GetGuardianID(ctx), alertID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			err = dErrors.New(dErrors.CodeNotFound, "alert not found")
		}
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func queryLimit(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func (h *Handler) logError(ctx context.Context, op string, err error) {
	h.logger.ErrorContext(ctx, "dashboard read failed",
		"op", op,
		"error", err.Error(),
		"request_id", middleware.GetRequestID(ctx),
	)
}
