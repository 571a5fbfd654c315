package handler

import (
	"net/http"
	"strconv"
	"strings"

	"irl-points-system/internal/service"
)

type LeaderboardHandler struct {
	leaderboardSvc *service.LeaderboardService
}

func NewLeaderboardHandler(leaderboardSvc *service.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboardSvc: leaderboardSvc}
}

func (h *LeaderboardHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	entries, err := h.leaderboardSvc.GetLeaderboard(r.Context(), limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get leaderboard: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"items":  entries,
		"limit":  limit,
		"offset": offset,
	})
}

func (h *LeaderboardHandler) GetRank(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) < 3 || parts[2] == "" {
		writeError(w, http.StatusBadRequest, "invalid path format, expected /api/rank/{address}")
		return
	}
	address := parts[2]

	rank, err := h.leaderboardSvc.GetRank(r.Context(), address)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get rank: "+err.Error())
		return
	}
	if rank == 0 {
		writeError(w, http.StatusNotFound, "user is not ranked")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user_address": address,
		"rank":         rank,
	})
}
