package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"campreg/internal/extraction"
	"campreg/internal/filestore"
	"campreg/internal/platform/middleware"
	"campreg/internal/registration"
	"campreg/internal/transport/http/shared"
	"campreg/pkg/domerrors"
)

// Service defines the registration operations the HTTP layer exposes.
type Service interface {
	PreviewFee(ctx context.Context, eventID string) (registration.FeeQuote, error)
	PrepareSubmit(ctx context.Context, churchID, eventID string, roster registration.Roster) (registration.FeeQuote, error)
	Submit(ctx context.Context, in registration.SubmitInput) (registration.Batch, error)
	EditBatch(ctx context.Context, batchID string, roster registration.Roster, receiptURL, actorID, actorChurchID string) (registration.Batch, error)
	ReviewBatch(ctx context.Context, batchID string, decision registration.Decision, remarks, reviewerID string) (registration.Batch, error)
	CancelBatch(ctx context.Context, batchID, actorID, actorChurchID string) error
	GetRegistration(ctx context.Context, id string) (registration.View, error)
	ListByEvent(ctx context.Context, eventID string, pendingOnly bool) ([]registration.View, error)
}

// Handler is the thin HTTP layer over the workflow engine. It owns the
// two-phase submit: validate first, upload the receipt, then submit.
type Handler struct {
	svc       Service
	files     filestore.Store
	extractor extraction.Extractor
	log       zerolog.Logger
}

func New(svc Service, files filestore.Store, extractor extraction.Extractor, log zerolog.Logger) *Handler {
	return &Handler{svc: svc, files: files, extractor: extractor, log: log}
}

// Register mounts the registration routes. Review requires the admin role;
// submission routes accept presidents and admins alike.
func (h *Handler) Register(r chi.Router) {
	r.Post("/registrations", h.handleSubmit)
	r.Get("/registrations", h.handleListByEvent)
	r.Get("/registrations/{id}", h.handleGetRegistration)
	r.Put("/batches/{id}", h.handleEditBatch)
	r.Delete("/batches/{id}", h.handleCancelBatch)
	r.Get("/fees/preview", h.handlePreviewFee)
	r.Post("/extraction", h.handleExtract)

	r.Group(func(admin chi.Router) {
		admin.Use(middleware.RequireRole(middleware.RoleAdmin))
		admin.Post("/batches/{id}/review", h.handleReviewBatch)
	})
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req SubmitRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}

	churchID := middleware.GetChurchID(ctx)
	if churchID == "" {
		churchID = req.ChurchID
	}
	if churchID == "" {
		shared.WriteError(w, domerrors.New(domerrors.CodeValidation, "church_id is required"))
		return
	}

	// Phase one: run every rule before touching file storage.
	if _, err := h.svc.PrepareSubmit(ctx, churchID, req.EventID, req.Roster); err != nil {
		shared.WriteError(w, err)
		return
	}

	receiptURL, err := h.resolveReceipt(ctx, req.ReceiptURL, req.ReceiptData, req.ContentType)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	batch, err := h.svc.Submit(ctx, registration.SubmitInput{
		ChurchID:   churchID,
		EventID:    req.EventID,
		Roster:     req.Roster,
		ReceiptURL: receiptURL,
		ActorID:    middleware.GetActorID(ctx),
	})
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, batch)
}

func (h *Handler) handleEditBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req EditRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	receiptURL, err := h.resolveReceipt(ctx, req.ReceiptURL, req.ReceiptData, req.ContentType)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	batch, err := h.svc.EditBatch(ctx, chi.URLParam(r, "id"), req.Roster, receiptURL,
		middleware.GetActorID(ctx), middleware.GetChurchID(ctx))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, batch)
}

func (h *Handler) handleReviewBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req ReviewRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	batch, err := h.svc.ReviewBatch(ctx, chi.URLParam(r, "id"), req.Decision, req.Remarks,
		middleware.GetActorID(ctx))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, batch)
}

func (h *Handler) handleCancelBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	err := h.svc.CancelBatch(ctx, chi.URLParam(r, "id"),
		middleware.GetActorID(ctx), middleware.GetChurchID(ctx))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGetRegistration(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.GetRegistration(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) handleListByEvent(w http.ResponseWriter, r *http.Request) {
	eventID := r.URL.Query().Get("event_id")
	if eventID == "" {
		shared.WriteError(w, domerrors.New(domerrors.CodeValidation, "event_id query parameter is required"))
		return
	}
	pendingOnly := r.URL.Query().Get("pending") == "true"
	views, err := h.svc.ListByEvent(r.Context(), eventID, pendingOnly)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, views)
}

func (h *Handler) handlePreviewFee(w http.ResponseWriter, r *http.Request) {
	eventID := r.URL.Query().Get("event_id")
	if eventID == "" {
		shared.WriteError(w, domerrors.New(domerrors.CodeValidation, "event_id query parameter is required"))
		return
	}
	quote, err := h.svc.PreviewFee(r.Context(), eventID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, quote)
}

// handleExtract runs the extraction collaborator and validates its output
// exactly like manual input before returning candidates to confirm.
func (h *Handler) handleExtract(w http.ResponseWriter, r *http.Request) {
	if h.extractor == nil {
		shared.WriteError(w, domerrors.New(domerrors.CodeValidation, "extraction is not configured"))
		return
	}
	var req ExtractRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	roster, err := h.extractor.ExtractPersons(r.Context(), req.Image)
	if err != nil {
		h.log.Warn().Err(err).Msg("extraction failed")
		if domerrors.Is(err, domerrors.CodeValidation) {
			shared.WriteError(w, err)
			return
		}
		shared.WriteError(w, domerrors.New(domerrors.CodeInternal, "extraction failed"))
		return
	}
	validated, err := extraction.ValidateCandidate(roster, req.FirstBatch)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, validated)
}

// resolveReceipt uploads inline receipt bytes, or passes an existing URL
// through. Upload happens after validation so failures abort cleanly.
func (h *Handler) resolveReceipt(ctx context.Context, url string, data []byte, contentType string) (string, error) {
	if url != "" {
		return url, nil
	}
	if len(data) == 0 {
		return "", domerrors.NewReason(domerrors.CodeValidation, "receipt_required",
			"a receipt image or URL is required")
	}
	stored, err := h.files.StoreFile(ctx, data, contentType)
	if err != nil {
		h.log.Error().Err(err).Msg("receipt upload failed")
		return "", domerrors.Wrap(domerrors.CodeInternal, "receipt_upload_failed",
			"failed to store receipt", err)
	}
	return stored, nil
}
