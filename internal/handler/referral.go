package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	apperrors "irl-points-system/pkg/errors"

	"irl-points-system/internal/service"
)

type ReferralHandler struct {
	referralSvc *service.ReferralService
}

func NewReferralHandler(referralSvc *service.ReferralService) *ReferralHandler {
	return &ReferralHandler{referralSvc: referralSvc}
}

type registerReferralBody struct {
	ReferrerAddress string `json:"referrer_address"`
	ReferredAddress string `json:"referred_address"`
	ReferralCode    string `json:"referral_code"`
}

func (h *ReferralHandler) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body registerReferralBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.ReferrerAddress == "" || body.ReferredAddress == "" {
		writeError(w, http.StatusBadRequest, "referrer_address and referred_address are required")
		return
	}

	result, err := h.referralSvc.RegisterReferral(r.Context(), body.ReferrerAddress, body.ReferredAddress, body.ReferralCode)
	if err != nil {
		writeError(w, statusForReferralError(err), "failed to register referral: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type completeReferralBody struct {
	ReferredAddress string `json:"referred_address"`
}

func (h *ReferralHandler) Complete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body completeReferralBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.ReferredAddress == "" {
		writeError(w, http.StatusBadRequest, "referred_address is required")
		return
	}

	result, err := h.referralSvc.MarkFirstTransaction(r.Context(), body.ReferredAddress)
	if err != nil {
		writeError(w, statusForReferralError(err), "failed to complete referral: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *ReferralHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) < 4 || parts[3] == "" {
		writeError(w, http.StatusBadRequest, "invalid path format, expected /api/referrals/stats/{address}")
		return
	}

	stats, err := h.referralSvc.Stats(r.Context(), parts[3])
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get referral stats: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func statusForReferralError(err error) int {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError
	}
	switch appErr.Code {
	case apperrors.ErrReferralMissing:
		return http.StatusNotFound
	case apperrors.ErrReferralExists, apperrors.ErrReferralDone:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
