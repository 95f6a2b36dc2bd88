package handlers

import (
	"encoding/json"
	"net/http"

	"cityguard/internal/logger"
	"cityguard/internal/model"
	"cityguard/internal/repository"
)

// resultsPage is the paginated listing payload.
type resultsPage struct {
	Results     []model.DetectionResult `json:"results"`
	Length      int                     `json:"length"`
	TotalPages  int                     `json:"totalPages"`
	CurrentPage int                     `json:"currentPage"`
	Limit       int                     `json:"pageSize"`
}

// ListResultsHandler returns stored results filtered by status and date
// range, newest first, paginated.
func ListResultsHandler(repo repository.ResultRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		page := atoiDefault(q.Get("page"), 1)
		limit := atoiDefault(q.Get("limit"), 24)

		filter := &model.ResultFilter{
			Status:    model.ViolationStatus(q.Get("status")),
			StartDate: parseDate(q.Get("dateAfter")),
			EndDate:   parseDate(q.Get("dateBefore")),
			Limit:     limit,
			Offset:    (page - 1) * limit,
		}

		total, err := repo.GetTotalCount(filter)
		if err != nil {
			logger.Error("Error counting results: %v", err)
			writeError(w, http.StatusInternalServerError, "Internal Server Error")
			return
		}

		results, err := repo.GetAll(filter)
		if err != nil {
			logger.Error("Error querying results: %v", err)
			writeError(w, http.StatusInternalServerError, "Internal Server Error")
			return
		}
		if results == nil {
			results = []model.DetectionResult{}
		}

		writeJSON(w, http.StatusOK, resultsPage{
			Results:     results,
			Length:      total,
			TotalPages:  (total + limit - 1) / limit,
			CurrentPage: page,
			Limit:       limit,
		})
	}
}

// GetResultHandler returns one stored result with its detections.
func GetResultHandler(repo repository.ResultRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := atoi64Default(r.URL.Query().Get("id"), 0)
		if id == 0 {
			writeError(w, http.StatusBadRequest, "id parameter is required")
			return
		}

		result, err := repo.GetByID(id)
		if err != nil {
			logger.Error("Error loading result %d: %v", id, err)
			writeError(w, http.StatusInternalServerError, "Internal Server Error")
			return
		}
		if result == nil {
			writeError(w, http.StatusNotFound, "Result not found")
			return
		}

		writeSuccess(w, "检测结果获取成功", result)
	}
}

// statusUpdateRequest is the body of a status update call.
type statusUpdateRequest struct {
	ID     int64                 `json:"id"`
	Status model.ViolationStatus `json:"status"`
}

// validStatuses is the closed status set; transitions between them are not
// constrained.
var validStatuses = map[model.ViolationStatus]bool{
	model.StatusDetected:      true,
	model.StatusConfirmed:     true,
	model.StatusInProcessing:  true,
	model.StatusRectified:     true,
	model.StatusDemolished:    true,
	model.StatusPendingReview: true,
}

// UpdateResultStatusHandler sets the processing status of a stored result.
func UpdateResultStatusHandler(repo repository.ResultRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost && r.Method != http.MethodPatch {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		var req statusUpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == 0 {
			writeError(w, http.StatusBadRequest, "id and status are required")
			return
		}
		if !validStatuses[req.Status] {
			writeError(w, http.StatusBadRequest, "Unknown status value")
			return
		}

		updated, err := repo.UpdateStatus(req.ID, req.Status)
		if err != nil {
			logger.Error("Error updating status for %d: %v", req.ID, err)
			writeError(w, http.StatusInternalServerError, "Internal Server Error")
			return
		}
		if !updated {
			writeError(w, http.StatusNotFound, "Result not found")
			return
		}

		writeSuccess(w, "状态更新成功", map[string]interface{}{"id": req.ID, "status": req.Status})
	}
}

// DeleteResultHandler removes a stored result and its detections.
func DeleteResultHandler(repo repository.ResultRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost && r.Method != http.MethodDelete {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		id := atoi64Default(r.URL.Query().Get("id"), 0)
		if id == 0 {
			writeError(w, http.StatusBadRequest, "id parameter is required")
			return
		}

		deleted, err := repo.Delete(id)
		if err != nil {
			logger.Error("Error deleting result %d: %v", id, err)
			writeError(w, http.StatusInternalServerError, "Internal Server Error")
			return
		}
		if !deleted {
			writeError(w, http.StatusNotFound, "Result not found")
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// ResultStatsHandler returns aggregate statistics over stored results.
func ResultStatsHandler(repo repository.ResultRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		filter := &model.ResultFilter{
			Status:    model.ViolationStatus(q.Get("status")),
			StartDate: parseDate(q.Get("dateAfter")),
			EndDate:   parseDate(q.Get("dateBefore")),
		}

		stats, err := repo.GetStats(filter)
		if err != nil {
			logger.Error("Error computing statistics: %v", err)
			writeError(w, http.StatusInternalServerError, "Internal Server Error")
			return
		}

		writeSuccess(w, "统计信息获取成功", stats)
	}
}
