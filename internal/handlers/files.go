package handlers

import (
	"net/http"
	"os"
	"path/filepath"

	"cityguard/internal/logger"
	"cityguard/internal/services/storage"
)

// UploadFileHandler stores an image upload without running detection.
func UploadFileHandler(files *storage.FileService, maxUploadBytes int64, logger *logger.Logger) http.HandlerFunc {
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

		stored, err := files.SaveUpload(filename, content)
		if err != nil {
			logger.Error("Upload failed for %s: %v", filename, err)
			writeError(w, inputErrorStatus(err), err.Error())
			return
		}

		writeSuccess(w, "文件上传成功", stored)
	}
}

// ListFilesHandler lists stored uploads, newest first.
func ListFilesHandler(files *storage.FileService, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := atoiDefault(r.URL.Query().Get("limit"), 50)

		stored, err := files.List(limit)
		if err != nil {
			logger.Error("Error listing uploads: %v", err)
			writeError(w, http.StatusInternalServerError, "Internal Server Error")
			return
		}
		if stored == nil {
			stored = []storage.StoredFile{}
		}

		writeSuccess(w, "文件列表获取成功", map[string]interface{}{
			"files":       stored,
			"total_count": len(stored),
		})
	}
}

// FileInfoHandler returns the stored metadata of one upload.
func FileInfoHandler(files *storage.FileService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("name")
		if name == "" {
			writeError(w, http.StatusBadRequest, "name parameter is required")
			return
		}

		path, err := files.UploadPath(name)
		if err != nil {
			writeError(w, http.StatusNotFound, "File not found")
			return
		}
		info, err := os.Stat(path)
		if err != nil {
			writeError(w, http.StatusNotFound, "File not found")
			return
		}

		writeSuccess(w, "文件信息获取成功", map[string]interface{}{
			"saved_filename": name,
			"file_size":      info.Size(),
			"modified_at":    info.ModTime().UTC(),
		})
	}
}

// DownloadFileHandler serves a stored upload by its saved name.
func DownloadFileHandler(files *storage.FileService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("name")
		if name == "" {
			writeError(w, http.StatusBadRequest, "name parameter is required")
			return
		}

		path, err := files.UploadPath(name)
		if err != nil {
			writeError(w, http.StatusNotFound, "File not found")
			return
		}

		w.Header().Set("Content-Disposition", "inline; filename="+filepath.Base(path))
		http.ServeFile(w, r, path)
	}
}

// ThumbnailHandler serves the thumbnail of a stored upload.
func ThumbnailHandler(files *storage.FileService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("name")
		if name == "" {
			writeError(w, http.StatusBadRequest, "name parameter is required")
			return
		}

		path, err := files.ThumbnailPath(name)
		if err != nil {
			writeError(w, http.StatusNotFound, "Thumbnail not found")
			return
		}

		http.ServeFile(w, r, path)
	}
}

// DeleteFileHandler removes a stored upload and its thumbnail.
func DeleteFileHandler(files *storage.FileService, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost && r.Method != http.MethodDelete {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		name := r.URL.Query().Get("name")
		if name == "" {
			writeError(w, http.StatusBadRequest, "name parameter is required")
			return
		}

		deleted, err := files.Delete(name)
		if err != nil {
			logger.Error("Error deleting file %s: %v", name, err)
			writeError(w, http.StatusInternalServerError, "Internal Server Error")
			return
		}
		if !deleted {
			writeError(w, http.StatusNotFound, "File not found")
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// CleanupFilesHandler removes uploads older than the retention window.
func CleanupFilesHandler(files *storage.FileService, retentionDays int, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		days := atoiDefault(r.URL.Query().Get("days"), retentionDays)
		removed, err := files.Cleanup(days)
		if err != nil {
			logger.Error("Cleanup failed: %v", err)
			writeError(w, http.StatusInternalServerError, "Internal Server Error")
			return
		}

		writeSuccess(w, "清理完成", map[string]interface{}{
			"removed_files":  removed,
			"retention_days": days,
		})
	}
}

// FileStatsHandler reports per-directory storage usage.
func FileStatsHandler(files *storage.FileService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeSuccess(w, "存储统计获取成功", files.Stats())
	}
}
