package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/homebase/internal/auth"
	"github.com/dukerupert/homebase/internal/model"
	"github.com/dukerupert/homebase/internal/project"
)

type ProjectHandler struct {
	projects *project.Service
	logger   *slog.Logger
}

func NewProjectHandler(svc *project.Service, logger *slog.Logger) *ProjectHandler {
	return &ProjectHandler{projects: svc, logger: logger}
}

type projectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// List handles GET /api/projects
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	projects, err := h.projects.ListProjectsAugmented(r.Context(), auth.HouseholdID(r.Context()))
	if err != nil {
		h.logger.Error("list projects", "error", err)
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

// Create handles POST /api/projects
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := h.projects.CreateProject(r.Context(), auth.HouseholdID(r.Context()), req.Name, req.Description)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// Delete handles DELETE /api/projects/{id}
func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.projects.DeleteProject(r.Context(), auth.HouseholdID(r.Context()), id); err != nil {
		writeAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateTask handles POST /api/tasks
func (h *ProjectHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req project.NewTask
	if !decode(w, r, &req) {
		return
	}
	req.HouseholdID = auth.HouseholdID(r.Context())
	req.AddedBy = auth.UserID(r.Context())

	t, err := h.projects.CreateTask(r.Context(), req)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// CompleteTask handles POST /api/tasks/{id}/complete
func (h *ProjectHandler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	t, err := h.projects.CompleteTask(r.Context(), auth.HouseholdID(r.Context()), id)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

type requirementsRequest struct {
	Requirement1 *int64 `json:"requirement1"`
	Requirement2 *int64 `json:"requirement2"`
}

// SetRequirements handles PUT /api/tasks/{id}/requirements
func (h *ProjectHandler) SetRequirements(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req requirementsRequest
	if !decode(w, r, &req) {
		return
	}
	t, err := h.projects.SetRequirements(r.Context(), auth.HouseholdID(r.Context()), id, req.Requirement1, req.Requirement2)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// DeleteTask handles DELETE /api/tasks/{id}
func (h *ProjectHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.projects.DeleteTask(r.Context(), auth.HouseholdID(r.Context()), id); err != nil {
		writeAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Ready handles GET /api/tasks/ready
func (h *ProjectHandler) Ready(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.projects.ReadyTasks(r.Context(), auth.HouseholdID(r.Context()))
	if err != nil {
		h.logger.Error("ready tasks", "error", err)
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

type taskAssignmentResponse struct {
	Task *model.Task `json:"task"`
}

// Assigned handles GET /api/tasks/assigned
func (h *ProjectHandler) Assigned(w http.ResponseWriter, r *http.Request) {
	t := h.projects.AutoAssignGet(r.Context(), auth.HouseholdID(r.Context()))
	writeJSON(w, http.StatusOK, taskAssignmentResponse{Task: t})
}

// Assign handles POST /api/tasks/assign
func (h *ProjectHandler) Assign(w http.ResponseWriter, r *http.Request) {
	householdID := auth.HouseholdID(r.Context())
	if !h.projects.AutoAssignNextTask(r.Context(), householdID) {
		writeJSON(w, http.StatusOK, taskAssignmentResponse{})
		return
	}
	writeJSON(w, http.StatusOK, taskAssignmentResponse{Task: h.projects.AutoAssignGet(r.Context(), householdID)})
}
