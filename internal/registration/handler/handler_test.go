package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campreg/internal/extraction"
	"campreg/internal/filestore"
	"campreg/internal/platform/middleware"
	"campreg/internal/registration"
	"campreg/pkg/domerrors"
)

type stubService struct {
	submitted         []registration.SubmitInput
	prepareErr        error
	submitErr         error
	reviewErr         error
	reviewedWith      registration.Decision
	listedPendingOnly bool
}

func (s *stubService) PreviewFee(context.Context, string) (registration.FeeQuote, error) {
	return registration.FeeQuote{FeeType: registration.FeePreRegistration, DelegateFee: 40000}, nil
}

func (s *stubService) PrepareSubmit(context.Context, string, string, registration.Roster) (registration.FeeQuote, error) {
	return registration.FeeQuote{}, s.prepareErr
}

func (s *stubService) Submit(_ context.Context, in registration.SubmitInput) (registration.Batch, error) {
	if s.submitErr != nil {
		return registration.Batch{}, s.submitErr
	}
	s.submitted = append(s.submitted, in)
	return registration.Batch{ID: "b-1", BatchNumber: 1, Status: registration.BatchPending, ReceiptURL: in.ReceiptURL}, nil
}

func (s *stubService) EditBatch(_ context.Context, batchID string, roster registration.Roster, receiptURL, _, _ string) (registration.Batch, error) {
	return registration.Batch{ID: batchID, Roster: roster, ReceiptURL: receiptURL, Status: registration.BatchPending}, nil
}

func (s *stubService) ReviewBatch(_ context.Context, batchID string, decision registration.Decision, _, _ string) (registration.Batch, error) {
	if s.reviewErr != nil {
		return registration.Batch{}, s.reviewErr
	}
	s.reviewedWith = decision
	return registration.Batch{ID: batchID, Status: registration.BatchApproved}, nil
}

func (s *stubService) CancelBatch(context.Context, string, string, string) error {
	return nil
}

func (s *stubService) GetRegistration(_ context.Context, id string) (registration.View, error) {
	if id != "reg-1" {
		return registration.View{}, domerrors.NewReason(domerrors.CodeNotFound, "registration_not_found", "registration does not exist")
	}
	return registration.View{Registration: registration.Registration{ID: id}, Status: registration.RegistrationPending}, nil
}

func (s *stubService) ListByEvent(_ context.Context, _ string, pendingOnly bool) ([]registration.View, error) {
	s.listedPendingOnly = pendingOnly
	return []registration.View{}, nil
}

// asActor injects verified claims the way the auth middleware would.
func asActor(role middleware.Role, churchID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ctx = context.WithValue(ctx, middleware.ContextKeyActorID, "actor-1")
			ctx = context.WithValue(ctx, middleware.ContextKeyChurchID, churchID)
			ctx = context.WithValue(ctx, middleware.ContextKeyRole, role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func newTestRouter(svc *stubService, files *filestore.InMemoryStore, role middleware.Role, churchID string) http.Handler {
	h := New(svc, files, nil, zerolog.Nop())
	r := chi.NewRouter()
	r.Use(asActor(role, churchID))
	r.Group(h.Register)
	return r
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestSubmitUploadsReceiptAfterValidation(t *testing.T) {
	svc := &stubService{}
	files := filestore.NewInMemoryStore()
	router := newTestRouter(svc, files, middleware.RolePresident, "ch-1")

	rec := doJSON(t, router, http.MethodPost, "/registrations", SubmitRequest{
		EventID: "ev-1",
		Roster: registration.Roster{Delegates: []registration.Delegate{
			{FullName: "Ana Reyes", Age: 20, Gender: registration.GenderFemale},
		}},
		ReceiptData: []byte("receipt-bytes"),
		ContentType: "image/jpeg",
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, svc.submitted, 1)
	// Church comes from the token, not the body.
	assert.Equal(t, "ch-1", svc.submitted[0].ChurchID)
	assert.NotEmpty(t, svc.submitted[0].ReceiptURL)

	stored, ok := files.Get(svc.submitted[0].ReceiptURL)
	require.True(t, ok)
	assert.Equal(t, []byte("receipt-bytes"), stored)
}

func TestSubmitValidationFailureSkipsUpload(t *testing.T) {
	svc := &stubService{
		prepareErr: domerrors.NewReason(domerrors.CodeValidation, "sibling_threshold", "need three siblings"),
	}
	files := filestore.NewInMemoryStore()
	router := newTestRouter(svc, files, middleware.RolePresident, "ch-1")

	rec := doJSON(t, router, http.MethodPost, "/registrations", SubmitRequest{
		EventID:     "ev-1",
		ReceiptData: []byte("receipt-bytes"),
	})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Empty(t, svc.submitted)
	assert.Zero(t, files.Len())

	var body struct {
		Reason string `json:"reason"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "sibling_threshold", body.Reason)
}

func TestReviewRequiresAdminRole(t *testing.T) {
	svc := &stubService{}
	files := filestore.NewInMemoryStore()

	asPresident := newTestRouter(svc, files, middleware.RolePresident, "ch-1")
	rec := doJSON(t, asPresident, http.MethodPost, "/batches/b-1/review", ReviewRequest{Decision: registration.DecisionApprove})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, svc.reviewedWith)

	asAdmin := newTestRouter(svc, files, middleware.RoleAdmin, "")
	rec = doJSON(t, asAdmin, http.MethodPost, "/batches/b-1/review", ReviewRequest{Decision: registration.DecisionApprove})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, registration.DecisionApprove, svc.reviewedWith)
}

func TestReviewRaceMapsToConflict(t *testing.T) {
	svc := &stubService{
		reviewErr: domerrors.NewReason(domerrors.CodeConcurrency, "review_race", "batch is no longer pending"),
	}
	router := newTestRouter(svc, filestore.NewInMemoryStore(), middleware.RoleAdmin, "")

	rec := doJSON(t, router, http.MethodPost, "/batches/b-1/review", ReviewRequest{Decision: registration.DecisionReject, Remarks: "duplicate submission"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestGetRegistration(t *testing.T) {
	router := newTestRouter(&stubService{}, filestore.NewInMemoryStore(), middleware.RolePresident, "ch-1")

	rec := doJSON(t, router, http.MethodGet, "/registrations/reg-1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/registrations/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListByEventRequiresEventID(t *testing.T) {
	router := newTestRouter(&stubService{}, filestore.NewInMemoryStore(), middleware.RolePresident, "ch-1")

	rec := doJSON(t, router, http.MethodGet, "/registrations", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/registrations?event_id=ev-1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListByEventPendingFilterFlag(t *testing.T) {
	svc := &stubService{}
	router := newTestRouter(svc, filestore.NewInMemoryStore(), middleware.RoleAdmin, "")

	rec := doJSON(t, router, http.MethodGet, "/registrations?event_id=ev-1&pending=true", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, svc.listedPendingOnly)

	rec = doJSON(t, router, http.MethodGet, "/registrations?event_id=ev-1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, svc.listedPendingOnly)
}

func TestCancelBatch(t *testing.T) {
	router := newTestRouter(&stubService{}, filestore.NewInMemoryStore(), middleware.RolePresident, "ch-1")
	rec := doJSON(t, router, http.MethodDelete, "/batches/b-1", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestPreviewFee(t *testing.T) {
	router := newTestRouter(&stubService{}, filestore.NewInMemoryStore(), middleware.RolePresident, "ch-1")

	rec := doJSON(t, router, http.MethodGet, "/fees/preview?event_id=ev-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var quote registration.FeeQuote
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &quote))
	assert.Equal(t, registration.FeePreRegistration, quote.FeeType)
}

func TestExtractUnconfigured(t *testing.T) {
	router := newTestRouter(&stubService{}, filestore.NewInMemoryStore(), middleware.RolePresident, "ch-1")
	rec := doJSON(t, router, http.MethodPost, "/extraction", ExtractRequest{Image: []byte("img")})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestExtractWithListBackend(t *testing.T) {
	h := New(&stubService{}, filestore.NewInMemoryStore(), extraction.ListExtractor{}, zerolog.Nop())
	r := chi.NewRouter()
	r.Use(asActor(middleware.RolePresident, "ch-1"))
	r.Group(h.Register)

	image := []byte("Ana Reyes, 20, F\nFely Santos, 45, F, cook\n")
	rec := doJSON(t, r, http.MethodPost, "/extraction", ExtractRequest{Image: image, FirstBatch: true})
	require.Equal(t, http.StatusOK, rec.Code)

	var roster registration.Roster
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &roster))
	require.Len(t, roster.Delegates, 1)
	assert.Equal(t, "Ana Reyes", roster.Delegates[0].FullName)
	require.Len(t, roster.Cooks, 1)

	rec = doJSON(t, r, http.MethodPost, "/extraction", ExtractRequest{Image: []byte("not a roster")})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
