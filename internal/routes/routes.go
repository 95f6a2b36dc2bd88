package routes

import (
	"net/http"

	"cityguard/internal/config"
	"cityguard/internal/handlers"
	"cityguard/internal/legal"
	"cityguard/internal/logger"
	"cityguard/internal/middleware"
	"cityguard/internal/services"
)

// SetupRoutes registers the API endpoints and wraps the mux with the
// request logging and CORS middleware.
func SetupRoutes(manager *services.Manager, analyzer legal.Analyzer, llm *legal.LLMAnalyzer,
	llmConfig legal.LLMConfig, kb *legal.KnowledgeBase, cfg *config.Config, logger *logger.Logger) http.Handler {

	mux := http.NewServeMux()
	maxUploadBytes := cfg.MaxUploadSizeMB * 1024 * 1024

	// Detection endpoints
	mux.HandleFunc("/api/v1/detection/detect/image", handlers.DetectImageHandler(manager, maxUploadBytes, logger))
	mux.HandleFunc("/api/v1/detection/detect/batch", handlers.DetectBatchHandler(manager, maxUploadBytes, cfg.MaxBatchFiles, logger))
	mux.HandleFunc("/api/v1/detection/model/info", handlers.ModelInfoHandler(manager))
	mux.HandleFunc("/api/v1/detection/violation/categories", handlers.ViolationCategoriesHandler())
	mux.HandleFunc("/api/v1/detection/analyze/multimodal", handlers.MultimodalAnalysisHandler(manager, maxUploadBytes, logger))

	// Result endpoints
	mux.HandleFunc("/api/v1/results", handlers.ListResultsHandler(manager.Results(), logger))
	mux.HandleFunc("/api/v1/results/get", handlers.GetResultHandler(manager.Results(), logger))
	mux.HandleFunc("/api/v1/results/status", handlers.UpdateResultStatusHandler(manager.Results(), logger))
	mux.HandleFunc("/api/v1/results/delete", handlers.DeleteResultHandler(manager.Results(), logger))
	mux.HandleFunc("/api/v1/results/statistics", handlers.ResultStatsHandler(manager.Results(), logger))

	// Legal advisory endpoints
	mux.HandleFunc("/api/v1/legal/analyze/text", handlers.LegalAnalysisHandler(analyzer, kb))
	mux.HandleFunc("/api/v1/legal/analyze/comprehensive",
		handlers.ComprehensiveAnalysisHandler(manager, manager.AnalysisService(), analyzer, kb, maxUploadBytes, logger))
	mux.HandleFunc("/api/v1/legal/search", handlers.RegulationSearchHandler(kb))
	mux.HandleFunc("/api/v1/legal/summary", handlers.LegalSummaryHandler(kb))
	mux.HandleFunc("/api/v1/legal/violation-types", handlers.LegalViolationTypesHandler(kb))
	mux.HandleFunc("/api/v1/legal/knowledge-base/statistics", handlers.KnowledgeBaseStatsHandler(kb))
	mux.HandleFunc("/api/v1/legal/llm/status", handlers.LLMStatusHandler(llm, llmConfig))

	// File endpoints
	mux.HandleFunc("/api/v1/files/upload", handlers.UploadFileHandler(manager.FileService(), maxUploadBytes, logger))
	mux.HandleFunc("/api/v1/files", handlers.ListFilesHandler(manager.FileService(), logger))
	mux.HandleFunc("/api/v1/files/info", handlers.FileInfoHandler(manager.FileService()))
	mux.HandleFunc("/api/v1/files/download", handlers.DownloadFileHandler(manager.FileService()))
	mux.HandleFunc("/api/v1/files/thumbnail", handlers.ThumbnailHandler(manager.FileService()))
	mux.HandleFunc("/api/v1/files/delete", handlers.DeleteFileHandler(manager.FileService(), logger))
	mux.HandleFunc("/api/v1/files/cleanup", handlers.CleanupFilesHandler(manager.FileService(), cfg.FileRetentionDays, logger))
	mux.HandleFunc("/api/v1/files/stats", handlers.FileStatsHandler(manager.FileService()))

	// Live result events
	mux.HandleFunc("/api/v1/events", handlers.EventsHandler(manager, logger))

	// System endpoints
	mux.HandleFunc("/health", handlers.HealthHandler(manager))
	mux.HandleFunc("/api/v1/system/stats/summary", handlers.SystemStatsHandler(manager, kb, logger))

	return middleware.RequestLogging(logger, middleware.CORS(mux))
}
