package handler

import (
	"encoding/json"
	"net/http"

	"irl-points-system/internal/models"
	"irl-points-system/internal/rules"
	"irl-points-system/internal/service"
)

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

func HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type AwardHandler struct {
	awardSvc *service.AwardService
}

func NewAwardHandler(awardSvc *service.AwardService) *AwardHandler {
	return &AwardHandler{awardSvc: awardSvc}
}

type awardRequestBody struct {
	UserAddress  string          `json:"user_address"`
	ActivityType string          `json:"activity_type"`
	Description  string          `json:"description"`
	Metadata     models.Metadata `json:"metadata"`
	Facts        rules.Facts     `json:"facts"`
}

func (h *AwardHandler) Award(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body awardRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.UserAddress == "" || body.ActivityType == "" {
		writeError(w, http.StatusBadRequest, "user_address and activity_type are required")
		return
	}

	result, err := h.awardSvc.Award(r.Context(), service.AwardRequest{
		UserAddress:  body.UserAddress,
		ActivityType: body.ActivityType,
		Description:  body.Description,
		Metadata:     body.Metadata,
		Facts:        body.Facts,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to process award: "+err.Error())
		return
	}

	status := http.StatusOK
	if !result.Committed {
		status = http.StatusConflict
	}
	writeJSON(w, status, result)
}

type canPerformBody struct {
	UserAddress  string      `json:"user_address"`
	ActivityType string      `json:"activity_type"`
	Facts        rules.Facts `json:"facts"`
}

func (h *AwardHandler) CanPerform(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body canPerformBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.UserAddress == "" || body.ActivityType == "" {
		writeError(w, http.StatusBadRequest, "user_address and activity_type are required")
		return
	}

	result, err := h.awardSvc.CanPerformActivity(r.Context(), body.UserAddress, body.ActivityType, body.Facts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check activity: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ListActivities exposes the active rule catalog for display.
func (h *AwardHandler) ListActivities(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"activities": h.awardSvc.Registry().Active(),
	})
}
