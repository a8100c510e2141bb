package httphandler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"crisis-alert-service/internal/domain"
	"crisis-alert-service/internal/helpers"
	"crisis-alert-service/internal/middleware"
	"crisis-alert-service/internal/usecase"
	"crisis-alert-service/pkg/response"
	"crisis-alert-service/pkg/xerrors"
)

type AlertHandler struct {
	engine *usecase.AlertEngine
}

func NewAlertHandler(engine *usecase.AlertEngine) *AlertHandler {
	return &AlertHandler{engine: engine}
}

// ----------------------
// Alert Handlers
// ----------------------

type crisisRequest struct {
	Title           string                 `json:"title"`
	Message         string                 `json:"message"`
	RiskLevel       int                    `json:"risk_level"`
	TriggerSource   string                 `json:"trigger_source"`
	EscalationLevel domain.EscalationLevel `json:"escalation_level"`
	Location        string                 `json:"location"`
	Channels        []domain.Channel       `json:"channels"`
}

func (h *AlertHandler) RaiseCrisis(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(middleware.ContextUserID).(string)

	var req crisisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid input")
		return
	}

	alert, err := h.engine.RaiseCrisis(r.Context(), helpers.CrisisAlertParams{
		UserID:          userID,
		Title:           req.Title,
		Message:         req.Message,
		RiskLevel:       req.RiskLevel,
		TriggerSource:   req.TriggerSource,
		EscalationLevel: req.EscalationLevel,
		Location:        req.Location,
		Channels:        req.Channels,
	})
	if err != nil {
		if errors.Is(err, xerrors.ErrInvalidRiskLevel) || errors.Is(err, xerrors.ErrUserIDRequired) {
			response.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		response.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	response.JSON(w, http.StatusCreated, alert)
}

type reminderRequest struct {
	Kind    helpers.ReminderKind `json:"kind"`
	Message string               `json:"message"`
}

func (h *AlertHandler) RaiseReminder(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(middleware.ContextUserID).(string)

	var req reminderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid input")
		return
	}

	alert, err := h.engine.RaiseReminder(r.Context(), userID, req.Kind, req.Message)
	if err != nil {
		if errors.Is(err, xerrors.ErrInvalidInput) {
			response.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		response.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	response.JSON(w, http.StatusCreated, alert)
}

type checkInRequest struct {
	MoodTrend string `json:"mood_trend"`
}

func (h *AlertHandler) RaiseCheckIn(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(middleware.ContextUserID).(string)

	var req checkInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid input")
		return
	}

	alert, err := h.engine.RaiseCheckIn(r.Context(), userID, req.MoodTrend)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	response.JSON(w, http.StatusCreated, alert)
}

func (h *AlertHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(middleware.ContextUserID).(string)

	items, err := h.engine.ActiveAlerts(r.Context(), userID)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	response.JSON(w, http.StatusOK, items)
}

func (h *AlertHandler) Acknowledge(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.engine.Acknowledge(r.Context(), id); err != nil {
		if errors.Is(err, xerrors.ErrAlertNotFound) {
			response.Error(w, http.StatusNotFound, "alert not found")
			return
		}
		response.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AlertHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.engine.Dismiss(r.Context(), id); err != nil {
		if errors.Is(err, xerrors.ErrAlertNotFound) {
			response.Error(w, http.StatusNotFound, "alert not found")
			return
		}
		response.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type snoozeRequest struct {
	Duration string `json:"duration"` // "<N>h" or "<N>m"
}

func (h *AlertHandler) Snooze(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req snoozeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid input")
		return
	}

	if err := h.engine.Snooze(r.Context(), id, req.Duration); err != nil {
		switch {
		case errors.Is(err, xerrors.ErrInvalidSnoozeToken):
			response.Error(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, xerrors.ErrAlertNotFound):
			response.Error(w, http.StatusNotFound, "alert not found")
		default:
			response.Error(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AlertHandler) ListDeliveries(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	results, err := h.engine.Deliveries(r.Context(), id)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	response.JSON(w, http.StatusOK, results)
}

// ----------------------
// Preference Handlers
// ----------------------

func (h *AlertHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(middleware.ContextUserID).(string)

	pref, err := h.engine.Preferences().Get(r.Context(), userID)
	if err != nil {
		if errors.Is(err, xerrors.ErrPreferencesNotFound) {
			response.Error(w, http.StatusNotFound, "preferences not found")
			return
		}
		response.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	response.JSON(w, http.StatusOK, pref)
}

func (h *AlertHandler) PutPreferences(w http.ResponseWriter, r *http.Request) {
	var pref domain.NotificationPreferences
	if err := json.NewDecoder(r.Body).Decode(&pref); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid input")
		return
	}
	pref.UserID = r.Context().Value(middleware.ContextUserID).(string)

	saved, err := h.engine.Preferences().Set(r.Context(), &pref)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	response.JSON(w, http.StatusOK, saved)
}

func (h *AlertHandler) DeletePreferences(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value(middleware.ContextUserID).(string)

	if err := h.engine.Preferences().Delete(r.Context(), userID); err != nil {
		if errors.Is(err, xerrors.ErrPreferencesNotFound) {
			response.Error(w, http.StatusNotFound, "preferences not found")
			return
		}
		response.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
