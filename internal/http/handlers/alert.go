package handlers

import (
	"errors"
	"net/http"

	"hos-route-coordinator/internal/apperr"
	"hos-route-coordinator/internal/domain"
	"hos-route-coordinator/internal/logx"
)

// AlertHandler serves HTTP endpoints for alert resources.
type AlertHandler struct {
	usecase alertUsecase
	logger  logx.Logger
}

// NewAlertHandler wires an alertUsecase into HTTP handlers.
func NewAlertHandler(logger logx.Logger, uc alertUsecase) *AlertHandler {
	return &AlertHandler{usecase: uc, logger: logger}
}

// List handles GET /alerts?tenant_id=&driver_id= and returns the driver's
// open alerts.
func (h *AlertHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tenantID := q.Get("tenant_id")
	driverID := q.Get("driver_id")
	if tenantID == "" || driverID == "" {
		writeError(h.logger, w, r, http.StatusBadRequest, "tenant_id and driver_id are required")
		return
	}

	alerts, err := h.usecase.Open(r.Context(), tenantID, driverID)
	if err != nil {
		writeError(h.logger, w, r, http.StatusInternalServerError, "internal error")
		return
	}

	resp := make([]alertResponse, 0, len(alerts))
	for _, a := range alerts {
		resp = append(resp, alertToResponse(a))
	}
	writeJSON(h.logger, w, r, http.StatusOK, resp)
}

// Acknowledge handles POST /alerts/{id}/acknowledge.
func (h *AlertHandler) Acknowledge(w http.ResponseWriter, r *http.Request) {
	id, err := idFromURL(r, "id")
	if err != nil {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid id")
		return
	}
	h.writeTransition(w, r, id, domain.AlertAcknowledged, h.usecase.Acknowledge(r.Context(), id))
}

// Snooze handles POST /alerts/{id}/snooze. The alert reactivates once the
// snooze expires.
func (h *AlertHandler) Snooze(w http.ResponseWriter, r *http.Request) {
	id, err := idFromURL(r, "id")
	if err != nil {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid id")
		return
	}

	var req snoozeAlertRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid input")
		return
	}

	h.writeTransition(w, r, id, domain.AlertSnoozed, h.usecase.Snooze(r.Context(), id, req.SnoozeUntil))
}

// Resolve handles POST /alerts/{id}/resolve.
func (h *AlertHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	id, err := idFromURL(r, "id")
	if err != nil {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid id")
		return
	}
	h.writeTransition(w, r, id, domain.AlertResolved, h.usecase.Resolve(r.Context(), id))
}

func (h *AlertHandler) writeTransition(w http.ResponseWriter, r *http.Request, id int64, to domain.AlertStatus, err error) {
	switch {
	case err == nil:
		writeJSON(h.logger, w, r, http.StatusOK, alertStatusResponse{ID: id, Status: string(to)})
	case errors.Is(err, apperr.Invalid):
		writeError(h.logger, w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, apperr.NotFound):
		writeError(h.logger, w, r, http.StatusNotFound, "alert not found")
	case errors.Is(err, apperr.Conflict):
		writeError(h.logger, w, r, http.StatusConflict, "invalid status transition")
	default:
		writeError(h.logger, w, r, http.StatusInternalServerError, "internal error")
	}
}
