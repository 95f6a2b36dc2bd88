package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"cityguard/internal/logger"
	"cityguard/internal/model"
	"cityguard/internal/services"
	"cityguard/internal/services/ai"
	"cityguard/internal/services/storage"
)

// readUpload pulls one multipart file field into memory.
func readUpload(r *http.Request, field string, maxBytes int64) (string, []byte, error) {
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		return "", nil, err
	}
	file, header, err := r.FormFile(field)
	if err != nil {
		return "", nil, err
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return "", nil, err
	}
	return header.Filename, content, nil
}

// detectOptionsFromForm reads the per-request detection knobs.
func detectOptionsFromForm(r *http.Request) services.DetectOptions {
	opts := services.DetectOptions{
		ConfidenceThreshold:  parseFloatDefault(r.FormValue("confidence_threshold"), 0),
		IOUThreshold:         parseFloatDefault(r.FormValue("iou_threshold"), 0),
		EnableClassification: true,
		SaveResult:           true,
	}
	if r.FormValue("enable_violation_classification") == "false" {
		opts.EnableClassification = false
	}
	if r.FormValue("save_result") == "false" {
		opts.SaveResult = false
	}
	return opts
}

// inputErrorStatus maps pipeline errors to HTTP status codes per the error
// taxonomy: input problems are 400, a missing model is 503, the rest 500.
func inputErrorStatus(err error) int {
	switch {
	case errors.Is(err, storage.ErrUnsupportedFileType),
		errors.Is(err, storage.ErrFileTooLarge),
		errors.Is(err, storage.ErrEmptyFilename),
		errors.Is(err, storage.ErrInvalidImage),
		errors.Is(err, ai.ErrImageUnreadable):
		return http.StatusBadRequest
	case errors.Is(err, ai.ErrModelUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// DetectImageHandler runs the detection pipeline over one uploaded image.
func DetectImageHandler(manager *services.Manager, maxUploadBytes int64, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		filename, content, err := readUpload(r, "file", maxUploadBytes)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Missing or unreadable file upload")
			return
		}

		result, err := manager.ProcessImage(filename, content, detectOptionsFromForm(r))
		if err != nil {
			logger.Error("Detection failed for %s: %v", filename, err)
			writeError(w, inputErrorStatus(err), err.Error())
			return
		}

		writeSuccess(w, "检测完成", result)
	}
}

// DetectBatchHandler runs the pipeline over several uploads at once.
func DetectBatchHandler(manager *services.Manager, maxUploadBytes int64, maxFiles int, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		if err := r.ParseMultipartForm(maxUploadBytes * int64(maxFiles)); err != nil {
			writeError(w, http.StatusBadRequest, "Unreadable multipart request")
			return
		}
		if r.MultipartForm == nil || len(r.MultipartForm.File["files"]) == 0 {
			writeError(w, http.StatusBadRequest, "No files uploaded")
			return
		}

		headers := r.MultipartForm.File["files"]
		if len(headers) > maxFiles {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("批量上传最多支持%d个文件", maxFiles))
			return
		}

		var files []services.BatchFile
		for _, header := range headers {
			file, err := header.Open()
			if err != nil {
				logger.Warning("Skipping unreadable batch file %s: %v", header.Filename, err)
				continue
			}
			content, err := io.ReadAll(file)
			file.Close()
			if err != nil {
				logger.Warning("Skipping unreadable batch file %s: %v", header.Filename, err)
				continue
			}
			files = append(files, services.BatchFile{Filename: header.Filename, Content: content})
		}

		outcome := manager.ProcessBatch(files, detectOptionsFromForm(r))
		writeSuccess(w, "批量检测完成", outcome)
	}
}

// ModelInfoHandler reports the loaded detection model configuration.
func ModelInfoHandler(manager *services.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeSuccess(w, "模型信息获取成功", manager.ModelInfo())
	}
}

// ViolationCategoriesHandler lists the 13 violation categories with their
// reference data.
func ViolationCategoriesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categories := make([]model.CategoryInfo, 0, len(model.AllCategories()))
		for _, category := range model.AllCategories() {
			if info, ok := model.GetCategoryInfo(category); ok {
				categories = append(categories, info)
			}
		}
		writeSuccess(w, "违章类别获取成功", map[string]interface{}{
			"categories":  categories,
			"total_count": len(categories),
		})
	}
}

// MultimodalAnalysisHandler stores an upload and returns its classical
// image-processing signals.
func MultimodalAnalysisHandler(manager *services.Manager, maxUploadBytes int64, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		filename, content, err := readUpload(r, "file", maxUploadBytes)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Missing or unreadable file upload")
			return
		}

		stored, err := manager.FileService().SaveUpload(filename, content)
		if err != nil {
			writeError(w, inputErrorStatus(err), err.Error())
			return
		}

		signals, err := manager.AnalysisService().Analyze(content)
		if err != nil {
			logger.Error("Image analysis failed for %s: %v", filename, err)
			writeError(w, inputErrorStatus(err), err.Error())
			return
		}

		writeSuccess(w, "多模态分析完成", map[string]interface{}{
			"file_info": stored,
			"analysis":  signals,
		})
	}
}
