package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"campreg/internal/registration"
	"campreg/internal/report"
	"campreg/internal/transport/http/shared"
	"campreg/pkg/domerrors"
)

type Service interface {
	Summarize(ctx context.Context, filter report.SummaryFilter) (report.Summary, error)
}

type Handler struct {
	svc Service
}

func New(svc Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/reports/summary", h.handleSummary)
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	summary, err := h.svc.Summarize(r.Context(), filter)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, summary)
}

func filterFromQuery(r *http.Request) (report.SummaryFilter, error) {
	q := r.URL.Query()
	filter := report.SummaryFilter{
		Filter: registration.Filter{
			EventID:  q.Get("event_id"),
			ChurchID: q.Get("church_id"),
			Status:   registration.BatchStatus(q.Get("status")),
		},
		DivisionID: q.Get("division_id"),
	}
	var err error
	if filter.SubmittedFrom, err = parseDate(q.Get("from")); err != nil {
		return report.SummaryFilter{}, err
	}
	if filter.SubmittedTo, err = parseDate(q.Get("to")); err != nil {
		return report.SummaryFilter{}, err
	}
	return filter, nil
}

func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, domerrors.NewReason(domerrors.CodeValidation, "invalid_date",
			"date must be RFC 3339: "+raw)
	}
	return t, nil
}
