package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"irl-points-system/internal/repository"
	"irl-points-system/internal/service"
)

type UsersHandler struct {
	statsSvc *service.StatsService
}

func NewUsersHandler(statsSvc *service.StatsService) *UsersHandler {
	return &UsersHandler{statsSvc: statsSvc}
}

// pathAddress extracts the address segment from /api/users/{address}/...
func pathAddress(r *http.Request) string {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) < 3 {
		return ""
	}
	return parts[2]
}

func (h *UsersHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	address := pathAddress(r)
	if address == "" {
		writeError(w, http.StatusBadRequest, "invalid path format, expected /api/users/{address}/stats")
		return
	}

	stats, err := h.statsSvc.GetUserStats(r.Context(), address)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get stats: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *UsersHandler) GetActivity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	address := pathAddress(r)
	if address == "" {
		writeError(w, http.StatusBadRequest, "invalid path format, expected /api/users/{address}/activity")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var cursor repository.Cursor
	if raw := r.URL.Query().Get("cursor_created_at"); raw != "" {
		at, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid cursor_created_at")
			return
		}
		cursor.CreatedAt = at
		if id, err := strconv.ParseUint(r.URL.Query().Get("cursor_id"), 10, 64); err == nil {
			cursor.ID = id
		}
	}

	entries, err := h.statsSvc.GetUserActivity(r.Context(), address, limit, cursor)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get activity: "+err.Error())
		return
	}

	response := map[string]interface{}{"items": entries}
	if len(entries) == limit {
		last := entries[len(entries)-1]
		response["next_cursor_created_at"] = last.CreatedAt.Format(time.RFC3339Nano)
		response["next_cursor_id"] = last.ID
	}
	writeJSON(w, http.StatusOK, response)
}

type registerBody struct {
	UserAddress     string `json:"user_address"`
	Username        string `json:"username"`
	Email           string `json:"email"`
	ReferrerAddress string `json:"referrer_address"`
	ReferralCode    string `json:"referral_code"`
}

func (h *UsersHandler) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body registerBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.UserAddress == "" {
		writeError(w, http.StatusBadRequest, "user_address is required")
		return
	}

	account, err := h.statsSvc.RegisterUser(r.Context(), service.RegisterRequest{
		UserAddress:     body.UserAddress,
		Username:        body.Username,
		Email:           strings.ToLower(strings.TrimSpace(body.Email)),
		ReferrerAddress: body.ReferrerAddress,
		ReferralCode:    body.ReferralCode,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to register user: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, account)
}
