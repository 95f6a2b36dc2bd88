package handlers

import (
	"net/http"
	"time"

	"cityguard/internal/legal"
	"cityguard/internal/logger"
	"cityguard/internal/model"
	"cityguard/internal/services"
)

var startTime = time.Now()

// HealthHandler reports liveness plus the availability of the detector and
// the connected event clients.
func HealthHandler(manager *services.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "ok"
		if !manager.DetectorAvailable() {
			status = "degraded"
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":             status,
			"detector_available": manager.DetectorAvailable(),
			"event_clients":      manager.Hub().GetClientCount(),
			"uptime_seconds":     int(time.Since(startTime).Seconds()),
			"timestamp":          time.Now().Format(time.RFC3339),
		})
	}
}

// SystemStatsHandler combines detection, storage and knowledge-base
// statistics into one dashboard payload.
func SystemStatsHandler(manager *services.Manager, kb *legal.KnowledgeBase, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		detectionStats, err := manager.Results().GetStats(&model.ResultFilter{})
		if err != nil {
			logger.Error("Error computing detection statistics: %v", err)
			writeError(w, http.StatusInternalServerError, "Internal Server Error")
			return
		}

		writeSuccess(w, "系统统计获取成功", map[string]interface{}{
			"detection": detectionStats,
			"storage":   manager.FileService().Stats(),
			"knowledge": kb.Statistics(),
			"model":     manager.ModelInfo(),
		})
	}
}
