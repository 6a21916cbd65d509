package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/homebase/internal/auth"
	"github.com/dukerupert/homebase/internal/chore"
	"github.com/dukerupert/homebase/internal/model"
	"github.com/dukerupert/homebase/internal/store"
)

type HouseholdHandler struct {
	households *store.HouseholdStore
	users      *store.UserStore
	pushes     *store.PushStore
	chores     *chore.Service
	logger     *slog.Logger
}

func NewHouseholdHandler(hs *store.HouseholdStore, us *store.UserStore, ps *store.PushStore, chores *chore.Service, logger *slog.Logger) *HouseholdHandler {
	return &HouseholdHandler{households: hs, users: us, pushes: ps, chores: chores, logger: logger}
}

type householdResponse struct {
	Household *model.Household `json:"household"`
	Members   []model.User     `json:"members"`
}

// Current handles GET /api/households/current
func (h *HouseholdHandler) Current(w http.ResponseWriter, r *http.Request) {
	householdID := auth.HouseholdID(r.Context())
	hh, err := h.households.GetByID(r.Context(), householdID)
	if err != nil {
		h.logger.Error("get household", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get household")
		return
	}
	if hh == nil {
		writeError(w, http.StatusNotFound, "household not found")
		return
	}
	members, err := h.users.ListByHousehold(r.Context(), householdID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list members")
		return
	}
	if members == nil {
		members = []model.User{}
	}
	writeJSON(w, http.StatusOK, householdResponse{Household: hh, Members: members})
}

type createHouseholdRequest struct {
	Name string `json:"name"`
}

// Create handles POST /api/households. The caller becomes its first member.
func (h *HouseholdHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createHouseholdRequest
	if !decode(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if auth.HouseholdID(r.Context()) != 0 {
		writeError(w, http.StatusConflict, "leave your current household first")
		return
	}

	hh, err := h.households.Create(r.Context(), req.Name)
	if err != nil {
		h.logger.Error("create household", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create household")
		return
	}
	if err := h.users.SetHousehold(r.Context(), auth.UserID(r.Context()), &hh.ID); err != nil {
		h.logger.Error("join new household", "household_id", hh.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to join household")
		return
	}
	writeJSON(w, http.StatusCreated, hh)
}

// scheduleRequest is a partial update; omitted fields keep their value.
type scheduleRequest struct {
	AutoChores     *bool   `json:"auto_chores"`
	AutoTasks      *bool   `json:"auto_tasks"`
	AssignHour     *int    `json:"assign_hour"`
	TelegramChatID *string `json:"telegram_chat_id"`
}

// UpdateSettings handles PUT /api/households/current
func (h *HouseholdHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if !decode(w, r, &req) {
		return
	}
	if req.AssignHour != nil && (*req.AssignHour < 0 || *req.AssignHour > 23) {
		writeError(w, http.StatusBadRequest, "assign_hour must be between 0 and 23")
		return
	}

	householdID := auth.HouseholdID(r.Context())
	hh, err := h.households.GetByID(r.Context(), householdID)
	if err != nil {
		h.logger.Error("get household", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get household")
		return
	}
	if hh == nil {
		writeError(w, http.StatusNotFound, "household not found")
		return
	}

	if req.TelegramChatID != nil {
		if err := h.households.SetTelegramChat(r.Context(), householdID, strings.TrimSpace(*req.TelegramChatID)); err != nil {
			h.logger.Error("set household chat", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to update household")
			return
		}
	}

	autoChores, autoTasks, hour := hh.AutoChores, hh.AutoTasks, hh.AssignHour
	if req.AutoChores != nil {
		autoChores = *req.AutoChores
	}
	if req.AutoTasks != nil {
		autoTasks = *req.AutoTasks
	}
	if req.AssignHour != nil {
		hour = *req.AssignHour
	}
	hh, err = h.households.UpdateSchedule(r.Context(), householdID, autoChores, autoTasks, hour)
	if err != nil {
		h.logger.Error("update household schedule", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update household")
		return
	}
	writeJSON(w, http.StatusOK, hh)
}

type joinRequest struct {
	HouseholdID int64 `json:"household_id"`
}

// Join handles POST /api/households/members
func (h *HouseholdHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if !decode(w, r, &req) {
		return
	}
	if auth.HouseholdID(r.Context()) != 0 {
		writeError(w, http.StatusConflict, "leave your current household first")
		return
	}
	hh, err := h.households.GetByID(r.Context(), req.HouseholdID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get household")
		return
	}
	if hh == nil {
		writeError(w, http.StatusNotFound, "household not found")
		return
	}

	if err := h.users.SetHousehold(r.Context(), auth.UserID(r.Context()), &hh.ID); err != nil {
		h.logger.Error("join household", "household_id", hh.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to join household")
		return
	}
	h.chores.InvalidateOverview(r.Context(), hh.ID)
	writeJSON(w, http.StatusOK, hh)
}

// Remove handles DELETE /api/households/members/{id}. Members may remove
// themselves or anyone else in the same household.
func (h *HouseholdHandler) Remove(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	householdID := auth.HouseholdID(r.Context())

	member, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get member")
		return
	}
	if !member.InHousehold(householdID) {
		writeError(w, http.StatusNotFound, "member not found")
		return
	}

	// Drop the queued chore while the user still maps to this household.
	h.chores.SkipCurrentChore(r.Context(), id)
	if err := h.users.LeaveHousehold(r.Context(), id, householdID); err != nil {
		h.logger.Error("remove member", "user_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to remove member")
		return
	}
	if err := h.pushes.DeleteForUser(r.Context(), id, householdID); err != nil {
		h.logger.Warn("remove member push subscriptions", "user_id", id, "error", err)
	}
	h.chores.InvalidateOverview(r.Context(), householdID)
	w.WriteHeader(http.StatusNoContent)
}

type telegramRequest struct {
	ChatID string `json:"chat_id"`
}

// SetTelegram handles PUT /api/users/me/telegram
func (h *HouseholdHandler) SetTelegram(w http.ResponseWriter, r *http.Request) {
	var req telegramRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.users.SetTelegramChat(r.Context(), auth.UserID(r.Context()), strings.TrimSpace(req.ChatID)); err != nil {
		h.logger.Error("set telegram chat", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update user")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
