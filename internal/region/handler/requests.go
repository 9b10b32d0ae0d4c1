package handler

import (
	"time"

	"roadwatch/internal/region"
	dErrors "roadwatch/pkg/domain-errors"
)

// regionRequest is the write shape for create and update.
type regionRequest struct {
	Name          string   `json:"name"`
	Lat           float64  `json:"lat"`
	Lon           float64  `json:"lon"`
	RadiusMeters  float64  `json:"radius_meters"`
	Category      string   `json:"category"`
	AllowedDays   []int    `json:"allowed_days,omitempty"`
	StartMinute   *int     `json:"start_minute,omitempty"`
	EndMinute     *int     `json:"end_minute,omitempty"`
	BonusCents    int64    `json:"bonus_cents"`
	PenaltyCents  int64    `json:"penalty_cents"`
	NotifyOnEntry bool     `json:"notify_on_entry"`
	NotifyOnExit  bool     `json:"notify_on_exit"`
	Active        *bool    `json:"active,omitempty"`
}

func (req *regionRequest) toRegion() (*region.Region, error) {
	category, err := region.ParseCategory(req.Category)
	if err != nil {
		return nil, err
	}
	r := &region.Region{
		Name:          req.Name,
		Lat:           req.Lat,
		Lon:           req.Lon,
		RadiusMeters:  req.RadiusMeters,
		Category:      category,
		BonusCents:    req.BonusCents,
		PenaltyCents:  req.PenaltyCents,
		NotifyOnEntry: req.NotifyOnEntry,
		NotifyOnExit:  req.NotifyOnExit,
		Active:        true,
	}
	if req.Active != nil {
		r.Active = *req.Active
	}
	if len(req.AllowedDays) > 0 || req.StartMinute != nil || req.EndMinute != nil {
		w := &region.TimeWindow{StartMinute: req.StartMinute, EndMinute: req.EndMinute}
		for _, d := range req.AllowedDays {
			if d < 0 || d > 6 {
				return nil, dErrors.New(dErrors.CodeInvalidInput, "allowed_days entries must be 0..6")
			}
			w.AllowedDays = append(w.AllowedDays, time.Weekday(d))
		}
		r.Window = w
	}
	return r, nil
}

// regionResponse is the read shape.
type regionResponse struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Lat           float64 `json:"lat"`
	Lon           float64 `json:"lon"`
	RadiusMeters  float64 `json:"radius_meters"`
	Category      string  `json:"category"`
	AllowedDays   []int   `json:"allowed_days,omitempty"`
	StartMinute   *int    `json:"start_minute,omitempty"`
	EndMinute     *int    `json:"end_minute,omitempty"`
	BonusCents    int64   `json:"bonus_cents"`
	PenaltyCents  int64   `json:"penalty_cents"`
	NotifyOnEntry bool    `json:"notify_on_entry"`
	NotifyOnExit  bool    `json:"notify_on_exit"`
	Active        bool    `json:"active"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}

func toResponse(r *region.Region) regionResponse {
	resp := regionResponse{
		ID:            r.ID.String(),
		Name:          r.Name,
		Lat:           r.Lat,
		Lon:           r.Lon,
		RadiusMeters:  r.RadiusMeters,
		Category:      r.Category.String(),
		BonusCents:    r.BonusCents,
		PenaltyCents:  r.PenaltyCents,
		NotifyOnEntry: r.NotifyOnEntry,
		NotifyOnExit:  r.NotifyOnExit,
		Active:        r.Active,
		CreatedAt:     r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     r.UpdatedAt.Format(time.RFC3339),
	}
	if r.Window != nil {
		for _, d := range r.Window.AllowedDays {
			resp.AllowedDays = append(resp.AllowedDays, int(d))
		}
		resp.StartMinute = r.Window.StartMinute
		resp.EndMinute = r.Window.EndMinute
	}
	return resp
}
