package storage

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gocv.io/x/gocv"

	"cityguard/internal/logger"
	"cityguard/internal/model"
)

var (
	// ErrUnsupportedFileType means the upload extension is not allowed.
	ErrUnsupportedFileType = errors.New("unsupported file type")
	// ErrFileTooLarge means the upload exceeds the size bound.
	ErrFileTooLarge = errors.New("file exceeds maximum size")
	// ErrEmptyFilename means the upload carried no filename.
	ErrEmptyFilename = errors.New("filename must not be empty")
	// ErrInvalidImage means the bytes are not a decodable image.
	ErrInvalidImage = errors.New("invalid image file")
)

// allowedExtensions is the upload allow-list.
var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
	".webp": true,
}

const thumbnailSize = 200

// StoredFile describes a saved upload.
type StoredFile struct {
	OriginalFilename string    `json:"original_filename"`
	SavedFilename    string    `json:"saved_filename"`
	FilePath         string    `json:"file_path"`
	ThumbnailPath    string    `json:"thumbnail_path,omitempty"`
	FileSize         int64     `json:"file_size"`
	ImageWidth       int       `json:"image_width"`
	ImageHeight      int       `json:"image_height"`
	ImageFormat      string    `json:"image_format"`
	UploadTime       time.Time `json:"upload_time"`
}

// DirectoryStats summarizes one managed directory.
type DirectoryStats struct {
	FileCount   int     `json:"file_count"`
	TotalSize   int64   `json:"total_size"`
	TotalSizeMB float64 `json:"total_size_mb"`
}

// FileService stores uploaded images, derives their metadata and maintains
// thumbnails.
type FileService struct {
	uploadDir    string
	resultDir    string
	thumbnailDir string
	maxSizeBytes int64
	logger       *logger.Logger
}

// NewFileService creates the service and ensures the managed directories exist.
func NewFileService(uploadDir, resultDir, thumbnailDir string, maxSizeMB int64, log *logger.Logger) (*FileService, error) {
	for _, dir := range []string{uploadDir, resultDir, thumbnailDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return &FileService{
		uploadDir:    uploadDir,
		resultDir:    resultDir,
		thumbnailDir: thumbnailDir,
		maxSizeBytes: maxSizeMB * 1024 * 1024,
		logger:       log,
	}, nil
}

// Validate checks the filename and content against the allow-list, the size
// bound and image decodability, returning the decoded dimensions.
func (s *FileService) Validate(filename string, content []byte) (width, height int, err error) {
	if filename == "" {
		return 0, 0, ErrEmptyFilename
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return 0, 0, fmt.Errorf("%w: %s", ErrUnsupportedFileType, ext)
	}

	if int64(len(content)) > s.maxSizeBytes {
		return 0, 0, fmt.Errorf("%w: %d bytes", ErrFileTooLarge, len(content))
	}

	mat, decodeErr := gocv.IMDecode(content, gocv.IMReadColor)
	if decodeErr != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrInvalidImage, decodeErr)
	}
	defer mat.Close()
	if mat.Empty() {
		return 0, 0, ErrInvalidImage
	}

	return mat.Cols(), mat.Rows(), nil
}

// SaveUpload validates and writes an upload under a unique name, creates its
// thumbnail and returns the stored metadata.
func (s *FileService) SaveUpload(filename string, content []byte) (*StoredFile, error) {
	width, height, err := s.Validate(filename, content)
	if err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(filename))
	savedName := strings.ReplaceAll(uuid.New().String(), "-", "") + ext
	fullPath := filepath.Join(s.uploadDir, savedName)

	if err := os.WriteFile(fullPath, content, 0644); err != nil {
		return nil, fmt.Errorf("failed to save file: %w", err)
	}

	thumbnailPath, err := s.createThumbnail(fullPath, savedName)
	if err != nil {
		// thumbnails are best-effort
		s.logger.Warning("Failed to create thumbnail for %s: %v", savedName, err)
		thumbnailPath = ""
	}

	return &StoredFile{
		OriginalFilename: filename,
		SavedFilename:    savedName,
		FilePath:         fullPath,
		ThumbnailPath:    thumbnailPath,
		FileSize:         int64(len(content)),
		ImageWidth:       width,
		ImageHeight:      height,
		ImageFormat:      strings.TrimPrefix(ext, "."),
		UploadTime:       time.Now().UTC(),
	}, nil
}

// ImageInfo converts a stored file to the result image metadata.
func (f *StoredFile) ImageInfo() *model.ImageInfo {
	return &model.ImageInfo{
		Filename:   f.OriginalFilename,
		FileSize:   f.FileSize,
		Width:      f.ImageWidth,
		Height:     f.ImageHeight,
		Format:     f.ImageFormat,
		UploadTime: f.UploadTime,
	}
}

// createThumbnail writes a jpeg thumbnail capped at thumbnailSize on the
// longer edge.
func (s *FileService) createThumbnail(imagePath, savedName string) (string, error) {
	mat := gocv.IMRead(imagePath, gocv.IMReadColor)
	defer mat.Close()
	if mat.Empty() {
		return "", ErrInvalidImage
	}

	scale := float64(thumbnailSize) / float64(max(mat.Cols(), mat.Rows()))
	if scale > 1 {
		scale = 1
	}

	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(mat, &resized, image.Point{}, scale, scale, gocv.InterpolationArea)

	base := strings.TrimSuffix(savedName, filepath.Ext(savedName))
	thumbnailPath := filepath.Join(s.thumbnailDir, "thumb_"+base+".jpg")
	if ok := gocv.IMWrite(thumbnailPath, resized); !ok {
		return "", fmt.Errorf("failed to write thumbnail")
	}

	return thumbnailPath, nil
}

// UploadPath returns the absolute path for a stored filename, rejecting path
// escapes.
func (s *FileService) UploadPath(savedName string) (string, error) {
	if savedName == "" || savedName != filepath.Base(savedName) {
		return "", ErrEmptyFilename
	}
	return filepath.Join(s.uploadDir, savedName), nil
}

// ThumbnailPath returns the thumbnail path for a stored filename.
func (s *FileService) ThumbnailPath(savedName string) (string, error) {
	if savedName == "" || savedName != filepath.Base(savedName) {
		return "", ErrEmptyFilename
	}
	base := strings.TrimSuffix(savedName, filepath.Ext(savedName))
	return filepath.Join(s.thumbnailDir, "thumb_"+base+".jpg"), nil
}

// Delete removes a stored upload and its thumbnail. Returns false when the
// file does not exist.
func (s *FileService) Delete(savedName string) (bool, error) {
	path, err := s.UploadPath(savedName)
	if err != nil {
		return false, err
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return false, nil
	}
	if err := os.Remove(path); err != nil {
		return false, fmt.Errorf("failed to delete file: %w", err)
	}

	if thumb, err := s.ThumbnailPath(savedName); err == nil {
		os.Remove(thumb)
	}

	return true, nil
}

// List returns stored uploads, newest first, capped at limit.
func (s *FileService) List(limit int) ([]StoredFile, error) {
	entries, err := os.ReadDir(s.uploadDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload directory: %w", err)
	}

	var files []StoredFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !allowedExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, StoredFile{
			SavedFilename: entry.Name(),
			FilePath:      filepath.Join(s.uploadDir, entry.Name()),
			FileSize:      info.Size(),
			ImageFormat:   strings.TrimPrefix(strings.ToLower(filepath.Ext(entry.Name())), "."),
			UploadTime:    info.ModTime().UTC(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].UploadTime.After(files[j].UploadTime)
	})

	if limit > 0 && len(files) > limit {
		files = files[:limit]
	}
	return files, nil
}

// Cleanup removes files older than the retention period from all managed
// directories and reports how many were deleted.
func (s *FileService) Cleanup(retentionDays int) (int, error) {
	cutoff := time.Now().Add(-time.Duration(retentionDays) * 24 * time.Hour)
	deleted := 0

	for _, dir := range []string{s.uploadDir, s.resultDir, s.thumbnailDir} {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				continue
			}
			if info.ModTime().Before(cutoff) {
				if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
					s.logger.Error("Failed to remove old file %s: %v", entry.Name(), err)
					continue
				}
				deleted++
			}
		}
	}

	return deleted, nil
}

// Stats reports file counts and sizes per managed directory.
func (s *FileService) Stats() map[string]DirectoryStats {
	stats := make(map[string]DirectoryStats)

	for name, dir := range map[string]string{
		"uploads":    s.uploadDir,
		"results":    s.resultDir,
		"thumbnails": s.thumbnailDir,
	} {
		var entry DirectoryStats
		entries, err := os.ReadDir(dir)
		if err == nil {
			for _, e := range entries {
				if e.IsDir() {
					continue
				}
				if info, err := e.Info(); err == nil {
					entry.FileCount++
					entry.TotalSize += info.Size()
				}
			}
		}
		entry.TotalSizeMB = float64(entry.TotalSize) / (1024 * 1024)
		stats[name] = entry
	}

	return stats
}
