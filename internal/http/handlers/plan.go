package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"hos-route-coordinator/internal/apperr"
	"hos-route-coordinator/internal/domain"
	"hos-route-coordinator/internal/logx"
)

// PlanHandler serves HTTP endpoints for route plan resources.
type PlanHandler struct {
	usecase planUsecase
	logger  logx.Logger
}

// NewPlanHandler wires a planUsecase into HTTP handlers.
func NewPlanHandler(logger logx.Logger, uc planUsecase) *PlanHandler {
	return &PlanHandler{usecase: uc, logger: logger}
}

// Create handles POST /plans.
func (h *PlanHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createPlanRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid input")
		return
	}

	plan, err := h.usecase.CreatePlan(r.Context(), toCreateRequest(req))
	switch {
	case err == nil:
		writeJSON(h.logger, w, r, http.StatusCreated, planToResponse(plan))
	case errors.Is(err, apperr.Invalid):
		writeError(h.logger, w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, apperr.Conflict):
		writeError(h.logger, w, r, http.StatusConflict, "plan already exists")
	default:
		writeError(h.logger, w, r, http.StatusInternalServerError, "internal error")
	}
}

// Get handles GET /plans/{id}. It returns the current head version.
func (h *PlanHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := planIDFromURL(r)
	if err != nil {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid id")
		return
	}

	plan, err := h.usecase.Get(r.Context(), id)
	switch {
	case err == nil:
		writeJSON(h.logger, w, r, http.StatusOK, planToResponse(plan))
	case errors.Is(err, apperr.NotFound):
		writeError(h.logger, w, r, http.StatusNotFound, "plan not found")
	default:
		writeError(h.logger, w, r, http.StatusInternalServerError, "internal error")
	}
}

// GetVersion handles GET /plans/{id}/versions/{version}. Historical versions
// stay retrievable after the head moves on.
func (h *PlanHandler) GetVersion(w http.ResponseWriter, r *http.Request) {
	id, err := planIDFromURL(r)
	if err != nil {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid id")
		return
	}
	version, err := strconv.ParseInt(chi.URLParam(r, "version"), 10, 64)
	if err != nil || version <= 0 {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid version")
		return
	}

	plan, err := h.usecase.GetVersion(r.Context(), id, version)
	switch {
	case err == nil:
		writeJSON(h.logger, w, r, http.StatusOK, planToResponse(plan))
	case errors.Is(err, apperr.NotFound):
		writeError(h.logger, w, r, http.StatusNotFound, "plan version not found")
	default:
		writeError(h.logger, w, r, http.StatusInternalServerError, "internal error")
	}
}

// ListActive handles GET /plans and returns all active plans.
func (h *PlanHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	plans, err := h.usecase.ListActive(r.Context())
	if err != nil {
		writeError(h.logger, w, r, http.StatusInternalServerError, "internal error")
		return
	}

	resp := make([]planResponse, 0, len(plans))
	for i := range plans {
		resp = append(resp, planToResponse(&plans[i]))
	}
	writeJSON(h.logger, w, r, http.StatusOK, resp)
}

// Activate handles POST /plans/{id}/activate.
func (h *PlanHandler) Activate(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, domain.PlanActive, h.usecase.Activate)
}

// Complete handles POST /plans/{id}/complete.
func (h *PlanHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, domain.PlanCompleted, h.usecase.Complete)
}

// Cancel handles POST /plans/{id}/cancel.
func (h *PlanHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, domain.PlanCancelled, h.usecase.Cancel)
}

func (h *PlanHandler) transition(
	w http.ResponseWriter,
	r *http.Request,
	to domain.PlanStatus,
	fn func(ctx context.Context, id string) error,
) {
	id, err := planIDFromURL(r)
	if err != nil {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid id")
		return
	}

	err = fn(r.Context(), id)
	switch {
	case err == nil:
		writeJSON(h.logger, w, r, http.StatusOK, planStatusResponse{PlanID: id, Status: string(to)})
	case errors.Is(err, apperr.NotFound):
		writeError(h.logger, w, r, http.StatusNotFound, "plan not found")
	case errors.Is(err, apperr.Conflict):
		writeError(h.logger, w, r, http.StatusConflict, "invalid status transition")
	default:
		writeError(h.logger, w, r, http.StatusInternalServerError, "internal error")
	}
}

// ApplyTriggers handles POST /plans/{id}/triggers. The whole batch applies
// atomically against base_version or not at all.
func (h *PlanHandler) ApplyTriggers(w http.ResponseWriter, r *http.Request) {
	id, err := planIDFromURL(r)
	if err != nil {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid id")
		return
	}

	var req applyTriggersRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid input")
		return
	}

	plan, err := h.usecase.ApplyTriggers(r.Context(), id, req.BaseVersion, triggersToDomain(req.Triggers))
	switch {
	case err == nil:
		writeJSON(h.logger, w, r, http.StatusOK, planToResponse(plan))
	case errors.Is(err, apperr.Invalid):
		writeError(h.logger, w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, apperr.StaleVersion):
		writeError(h.logger, w, r, http.StatusConflict, "stale base version, re-fetch the plan")
	case errors.Is(err, apperr.NotFound):
		writeError(h.logger, w, r, http.StatusNotFound, "plan not found")
	case errors.Is(err, apperr.Conflict):
		writeError(h.logger, w, r, http.StatusConflict, "plan is not active")
	default:
		writeError(h.logger, w, r, http.StatusInternalServerError, "internal error")
	}
}
