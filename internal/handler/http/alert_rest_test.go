package httphandler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crisis-alert-service/internal/domain"
	"crisis-alert-service/internal/escalation"
	"crisis-alert-service/internal/helpers"
	"crisis-alert-service/internal/middleware"
	"crisis-alert-service/internal/prefs"
	"crisis-alert-service/internal/repository"
	"crisis-alert-service/internal/schedule"
	"crisis-alert-service/internal/scheduler"
	"crisis-alert-service/internal/tracker"
	"crisis-alert-service/internal/usecase"
	"crisis-alert-service/pkg/id"
	"crisis-alert-service/pkg/notifier"
	"crisis-alert-service/pkg/response"
	"crisis-alert-service/pkg/template"
)

// newTestRouter builds the alert routes over an in-memory engine, with the
// auth middleware replaced by a stub that injects the caller identity.
func newTestRouter(t *testing.T) (*chi.Mux, *usecase.AlertEngine) {
	t.Helper()

	ids, err := id.NewSnowflake(1)
	require.NoError(t, err)
	tmpl := template.NewTemplateService()

	engine := usecase.NewAlertEngine(
		prefs.NewStore(repository.NewMemoryPreferenceRepository(), nil),
		helpers.NewAlertFactory(ids),
		scheduler.NewDeliveryScheduler(schedule.NewTimerSet()),
		notifier.NewNotifier(nil, nil, nil, nil, tmpl),
		escalation.NewCascade(nil, nil, tmpl),
		tracker.NewTracker(repository.NewMemoryAlertRepository()),
	)
	t.Cleanup(engine.Stop)

	h := NewAlertHandler(engine)
	asUser := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), middleware.ContextUserID, "u1")
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}

	r := chi.NewRouter()
	r.Route("/api/v1/alerts", func(r chi.Router) {
		r.Use(asUser)
		r.Post("/crisis", h.RaiseCrisis)
		r.Post("/reminders", h.RaiseReminder)
		r.Post("/checkins", h.RaiseCheckIn)
		r.Get("/active", h.ListActive)
		r.Get("/{id}/deliveries", h.ListDeliveries)
		r.Patch("/{id}/ack", h.Acknowledge)
		r.Patch("/{id}/dismiss", h.Dismiss)
		r.Patch("/{id}/snooze", h.Snooze)
		r.Get("/preferences", h.GetPreferences)
		r.Put("/preferences", h.PutPreferences)
		r.Delete("/preferences", h.DeletePreferences)
	})
	return r, engine
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	} else {
		buf.WriteString("{}")
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	var resp response.APIResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, out))
}

func savePreferences(t *testing.T, r http.Handler) {
	t.Helper()
	rec := doJSON(t, r, http.MethodPut, "/api/v1/alerts/preferences", map[string]any{
		"channels":   map[string]bool{"push": true, "in_app": true},
		"categories": map[string]bool{"crisis": true, "reminder": true, "check_in": true},
	})
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRaiseCrisisEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)
	savePreferences(t, r)

	rec := doJSON(t, r, http.MethodPost, "/api/v1/alerts/crisis", map[string]any{
		"risk_level":     8,
		"trigger_source": "mood_tracking",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var a domain.Alert
	decodeData(t, rec, &a)
	assert.Equal(t, "u1", a.UserID)
	assert.Equal(t, domain.TypeCrisis, a.Type)
	assert.Equal(t, domain.PriorityCritical, a.Priority)
	require.NotNil(t, a.Crisis)
	assert.Equal(t, 8, a.Crisis.RiskLevel)
}

func TestRaiseCrisisInvalidRiskLevel(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/api/v1/alerts/crisis", map[string]any{"risk_level": 42})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRaiseReminderEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)
	savePreferences(t, r)

	rec := doJSON(t, r, http.MethodPost, "/api/v1/alerts/reminders", map[string]any{"kind": "medication"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var a domain.Alert
	decodeData(t, rec, &a)
	assert.Equal(t, domain.TypeReminder, a.Type)
	assert.Equal(t, "Time to take your medication.", a.Message)
}

func TestRaiseReminderUnknownKind(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/api/v1/alerts/reminders", map[string]any{"kind": "nap"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRaiseCheckInEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)
	savePreferences(t, r)

	rec := doJSON(t, r, http.MethodPost, "/api/v1/alerts/checkins", map[string]any{"mood_trend": "concerning"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var a domain.Alert
	decodeData(t, rec, &a)
	assert.Equal(t, domain.TypeCheckIn, a.Type)
	assert.Equal(t, domain.PriorityHigh, a.Priority)
}

func TestListActiveEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)
	savePreferences(t, r)

	rec := doJSON(t, r, http.MethodPost, "/api/v1/alerts/reminders", map[string]any{"kind": "journal"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, r, http.MethodGet, "/api/v1/alerts/active", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var items []domain.Alert
	decodeData(t, rec, &items)
	require.Len(t, items, 1)
	assert.Equal(t, domain.TypeReminder, items[0].Type)
}

func TestAcknowledgeAndDismissEndpoints(t *testing.T) {
	r, engine := newTestRouter(t)
	savePreferences(t, r)

	rec := doJSON(t, r, http.MethodPost, "/api/v1/alerts/reminders", map[string]any{"kind": "therapy"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var a domain.Alert
	decodeData(t, rec, &a)

	rec = doJSON(t, r, http.MethodPatch, "/api/v1/alerts/"+a.ID+"/ack", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	got, err := engine.Alert(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRead, got.Status)

	rec = doJSON(t, r, http.MethodPatch, "/api/v1/alerts/"+a.ID+"/dismiss", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, r, http.MethodPatch, "/api/v1/alerts/missing/ack", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = doJSON(t, r, http.MethodPatch, "/api/v1/alerts/missing/dismiss", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSnoozeEndpoint(t *testing.T) {
	r, engine := newTestRouter(t)
	savePreferences(t, r)

	rec := doJSON(t, r, http.MethodPost, "/api/v1/alerts/reminders", map[string]any{"kind": "medication"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var a domain.Alert
	decodeData(t, rec, &a)

	rec = doJSON(t, r, http.MethodPatch, "/api/v1/alerts/"+a.ID+"/snooze", map[string]any{"duration": "1h"})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	got, err := engine.Alert(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDismissed, got.Status)
	assert.NotNil(t, got.SnoozedUntil)

	rec = doJSON(t, r, http.MethodPatch, "/api/v1/alerts/"+a.ID+"/snooze", map[string]any{"duration": "whenever"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeliveriesEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)
	savePreferences(t, r)

	rec := doJSON(t, r, http.MethodPost, "/api/v1/alerts/reminders", map[string]any{"kind": "medication"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var a domain.Alert
	decodeData(t, rec, &a)

	rec = doJSON(t, r, http.MethodGet, "/api/v1/alerts/"+a.ID+"/deliveries", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPreferencesRoundTrip(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodGet, "/api/v1/alerts/preferences", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "nothing saved yet")

	savePreferences(t, r)

	rec = doJSON(t, r, http.MethodGet, "/api/v1/alerts/preferences", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var p domain.NotificationPreferences
	decodeData(t, rec, &p)
	assert.Equal(t, "u1", p.UserID, "identity comes from the token, not the payload")
	assert.True(t, p.Channels.Push)

	rec = doJSON(t, r, http.MethodDelete, "/api/v1/alerts/preferences", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, r, http.MethodGet, "/api/v1/alerts/preferences", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
