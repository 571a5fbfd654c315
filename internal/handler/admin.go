package handler

import (
	"encoding/csv"
	"io"
	"net/http"
	"strconv"
	"strings"

	"irl-points-system/internal/scheduler"
	"irl-points-system/internal/service"
)

// AdminHandler serves the bulk-upload, pending and maintenance surface.
// Authentication sits in front of these routes; the handler only reads
// the already-verified uploader identity from the request header.
type AdminHandler struct {
	bulkSvc        *service.BulkAwardService
	reconcileSvc   *service.ReconcileService
	leaderboardJob *scheduler.LeaderboardScheduler
}

func NewAdminHandler(
	bulkSvc *service.BulkAwardService,
	reconcileSvc *service.ReconcileService,
	leaderboardJob *scheduler.LeaderboardScheduler,
) *AdminHandler {
	return &AdminHandler{
		bulkSvc:        bulkSvc,
		reconcileSvc:   reconcileSvc,
		leaderboardJob: leaderboardJob,
	}
}

// PointsUpload accepts a CSV body with email,points,reason columns and
// awards each row under a shared batch id.
func (h *AdminHandler) PointsUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	uploadedBy := r.Header.Get("X-User-Email")

	rows, err := parseCSVRows(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid CSV: "+err.Error())
		return
	}
	if len(rows) == 0 {
		writeError(w, http.StatusBadRequest, "CSV file is empty or invalid")
		return
	}

	result, err := h.bulkSvc.ProcessBatch(r.Context(), uploadedBy, rows)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to process upload: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func parseCSVRows(body io.Reader) ([]service.BulkAwardRow, error) {
	reader := csv.NewReader(body)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var rows []service.BulkAwardRow
	first := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(record) < 3 {
			continue
		}
		// Skip a header row.
		if first {
			first = false
			if strings.EqualFold(strings.TrimSpace(record[0]), "email") {
				continue
			}
		}
		points, _ := strconv.ParseInt(strings.TrimSpace(record[1]), 10, 64)
		rows = append(rows, service.BulkAwardRow{
			Email:  record[0],
			Points: points,
			Reason: strings.TrimSpace(record[2]),
		})
	}
	return rows, nil
}

// PendingPoints dispatches the pending-points route: GET lists the
// holding area, DELETE removes a not-yet-replayed row.
func (h *AdminHandler) PendingPoints(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listPending(w, r)
	case http.MethodDelete:
		h.deletePending(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *AdminHandler) listPending(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	includeAwarded := r.URL.Query().Get("show_awarded") == "true"

	rows, err := h.bulkSvc.ListPending(r.Context(), offset, limit, includeAwarded)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list pending points: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": rows})
}

func (h *AdminHandler) deletePending(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.URL.Query().Get("id"), 10, 64)
	if err != nil || id == 0 {
		writeError(w, http.StatusBadRequest, "pending points id required")
		return
	}

	deleted, err := h.bulkSvc.DeletePending(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete pending points: "+err.Error())
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "pending points not found or already awarded")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (h *AdminHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if address := r.URL.Query().Get("user"); address != "" {
		drift, err := h.reconcileSvc.ReconcileUser(r.Context(), address)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to reconcile user: "+err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"user_address": address, "drift": drift})
		return
	}

	repaired, err := h.reconcileSvc.ReconcileAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to reconcile: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"repaired": repaired})
}

func (h *AdminHandler) RefreshLeaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if err := h.leaderboardJob.TriggerManualRefresh(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to refresh leaderboard: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"refreshed": true})
}
