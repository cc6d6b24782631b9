package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"campreg/internal/church"
	"campreg/internal/platform/middleware"
	"campreg/internal/transport/http/shared"
)

type Service interface {
	CreateDivision(ctx context.Context, d church.Division) (church.Division, error)
	GetDivision(ctx context.Context, id string) (church.Division, error)
	ListDivisions(ctx context.Context) ([]church.Division, error)

	CreateChurch(ctx context.Context, c church.Church) (church.Church, error)
	GetChurch(ctx context.Context, id string) (church.Church, error)
	ListChurches(ctx context.Context, divisionID string) ([]church.Church, error)
	UpdateChurch(ctx context.Context, c church.Church) (church.Church, error)
	DeleteChurch(ctx context.Context, id string) error

	CreatePresident(ctx context.Context, p church.President) (church.President, error)
	GetPresident(ctx context.Context, id string) (church.President, error)
	ListPresidents(ctx context.Context, churchID string) ([]church.President, error)
	DeactivatePresident(ctx context.Context, id string) (church.President, error)
}

type Handler struct {
	svc Service
}

func New(svc Service) *Handler {
	return &Handler{svc: svc}
}

// Register mounts the reference-data routes. All mutations are admin-only;
// reads are open to any authenticated actor.
func (h *Handler) Register(r chi.Router) {
	r.Get("/divisions", h.handleListDivisions)
	r.Get("/divisions/{id}", h.handleGetDivision)
	r.Get("/churches", h.handleListChurches)
	r.Get("/churches/{id}", h.handleGetChurch)
	r.Get("/presidents", h.handleListPresidents)
	r.Get("/presidents/{id}", h.handleGetPresident)

	r.Group(func(admin chi.Router) {
		admin.Use(middleware.RequireRole(middleware.RoleAdmin))
		admin.Post("/divisions", h.handleCreateDivision)
		admin.Post("/churches", h.handleCreateChurch)
		admin.Put("/churches/{id}", h.handleUpdateChurch)
		admin.Delete("/churches/{id}", h.handleDeleteChurch)
		admin.Post("/presidents", h.handleCreatePresident)
		admin.Post("/presidents/{id}/deactivate", h.handleDeactivatePresident)
	})
}

func (h *Handler) handleCreateDivision(w http.ResponseWriter, r *http.Request) {
	var d church.Division
	if err := shared.Decode(r, &d); err != nil {
		shared.WriteError(w, err)
		return
	}
	created, err := h.svc.CreateDivision(r.Context(), d)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleGetDivision(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.GetDivision(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, d)
}

func (h *Handler) handleListDivisions(w http.ResponseWriter, r *http.Request) {
	divisions, err := h.svc.ListDivisions(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, divisions)
}

func (h *Handler) handleCreateChurch(w http.ResponseWriter, r *http.Request) {
	var c church.Church
	if err := shared.Decode(r, &c); err != nil {
		shared.WriteError(w, err)
		return
	}
	created, err := h.svc.CreateChurch(r.Context(), c)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleGetChurch(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.GetChurch(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) handleListChurches(w http.ResponseWriter, r *http.Request) {
	churches, err := h.svc.ListChurches(r.Context(), r.URL.Query().Get("division_id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, churches)
}

func (h *Handler) handleUpdateChurch(w http.ResponseWriter, r *http.Request) {
	var c church.Church
	if err := shared.Decode(r, &c); err != nil {
		shared.WriteError(w, err)
		return
	}
	c.ID = chi.URLParam(r, "id")
	updated, err := h.svc.UpdateChurch(r.Context(), c)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) handleDeleteChurch(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteChurch(r.Context(), chi.URLParam(r, "id")); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleCreatePresident(w http.ResponseWriter, r *http.Request) {
	var p church.President
	if err := shared.Decode(r, &p); err != nil {
		shared.WriteError(w, err)
		return
	}
	created, err := h.svc.CreatePresident(r.Context(), p)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleGetPresident(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.GetPresident(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) handleListPresidents(w http.ResponseWriter, r *http.Request) {
	presidents, err := h.svc.ListPresidents(r.Context(), r.URL.Query().Get("church_id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, presidents)
}

func (h *Handler) handleDeactivatePresident(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.DeactivatePresident(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, p)
}
