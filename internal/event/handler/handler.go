package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"campreg/internal/event"
	"campreg/internal/platform/middleware"
	"campreg/internal/transport/http/shared"
)

type Service interface {
	Create(ctx context.Context, ev event.Event) (event.Event, error)
	Update(ctx context.Context, ev event.Event) (event.Event, error)
	Get(ctx context.Context, id string) (event.Event, error)
	List(ctx context.Context) ([]event.Event, error)
	Delete(ctx context.Context, id string) error
}

type Handler struct {
	svc Service
}

func New(svc Service) *Handler {
	return &Handler{svc: svc}
}

// Register mounts the event routes. Reads are open to any authenticated
// actor; writes are admin-only.
func (h *Handler) Register(r chi.Router) {
	r.Get("/events", h.handleList)
	r.Get("/events/{id}", h.handleGet)

	r.Group(func(admin chi.Router) {
		admin.Use(middleware.RequireRole(middleware.RoleAdmin))
		admin.Post("/events", h.handleCreate)
		admin.Put("/events/{id}", h.handleUpdate)
		admin.Delete("/events/{id}", h.handleDelete)
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var ev event.Event
	if err := shared.Decode(r, &ev); err != nil {
		shared.WriteError(w, err)
		return
	}
	created, err := h.svc.Create(r.Context(), ev)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var ev event.Event
	if err := shared.Decode(r, &ev); err != nil {
		shared.WriteError(w, err)
		return
	}
	ev.ID = chi.URLParam(r, "id")
	updated, err := h.svc.Update(r.Context(), ev)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ev, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, ev)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	events, err := h.svc.List(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, events)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
