package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/homebase/internal/auth"
	"github.com/dukerupert/homebase/internal/chore"
	"github.com/dukerupert/homebase/internal/model"
)

type ChoreHandler struct {
	chores *chore.Service
	logger *slog.Logger
}

func NewChoreHandler(svc *chore.Service, logger *slog.Logger) *ChoreHandler {
	return &ChoreHandler{chores: svc, logger: logger}
}

type choreRequest struct {
	Name         string  `json:"name"`
	Frequency    int     `json:"frequency"`
	BackdateDays float64 `json:"backdate_days"`
	DoneBy       *int64  `json:"done_by"`
}

// Overview handles GET /api/chores
func (h *ChoreHandler) Overview(w http.ResponseWriter, r *http.Request) {
	ov, err := h.chores.HouseholdOverview(r.Context(), auth.HouseholdID(r.Context()))
	if err != nil {
		h.logger.Error("household overview", "error", err)
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ov)
}

// Create handles POST /api/chores
func (h *ChoreHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req choreRequest
	if !decode(w, r, &req) {
		return
	}
	userID := auth.UserID(r.Context())
	c, err := h.chores.Create(r.Context(), req.Name, auth.HouseholdID(r.Context()), req.Frequency, req.BackdateDays, &userID)
	if err != nil {
		h.logger.Warn("create chore", "error", err)
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// Update handles PUT /api/chores/{id}
func (h *ChoreHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req choreRequest
	if !decode(w, r, &req) {
		return
	}
	c, err := h.chores.UpdateChore(r.Context(), auth.HouseholdID(r.Context()), id, req.Name, req.Frequency, req.DoneBy)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// Delete handles DELETE /api/chores/{id}
func (h *ChoreHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.chores.DeleteChore(r.Context(), auth.HouseholdID(r.Context()), id); err != nil {
		writeAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type assignmentResponse struct {
	Chore *model.Chore `json:"chore"`
}

// Current handles GET /api/chores/current
func (h *ChoreHandler) Current(w http.ResponseWriter, r *http.Request) {
	c := h.chores.GetCurrentChore(r.Context(), auth.UserID(r.Context()))
	writeJSON(w, http.StatusOK, assignmentResponse{Chore: c})
}

// Next handles POST /api/chores/next. The caller is answered in the
// response, so no chat notification is sent.
func (h *ChoreHandler) Next(w http.ResponseWriter, r *http.Request) {
	c := h.chores.GetNextChore(r.Context(), auth.HouseholdID(r.Context()), auth.UserID(r.Context()), "")
	writeJSON(w, http.StatusOK, assignmentResponse{Chore: c})
}

// Skip handles POST /api/chores/skip
func (h *ChoreHandler) Skip(w http.ResponseWriter, r *http.Request) {
	if !h.chores.SkipCurrentChore(r.Context(), auth.UserID(r.Context())) {
		writeError(w, http.StatusInternalServerError, "failed to skip chore")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Complete handles POST /api/chores/{id}/complete
func (h *ChoreHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	res := h.chores.CompleteChore(r.Context(), id, auth.UserID(r.Context()))
	if !res.Success {
		writeJSON(w, http.StatusUnprocessableEntity, res)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
