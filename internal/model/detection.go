package model

import "time"

// Detection represents one object located in an image, optionally classified
// as a building violation. Severity and Description are set together with
// ViolationCategory and never on their own.
type Detection struct {
	ID                int64             `json:"id,omitempty"`
	ResultID          int64             `json:"result_id,omitempty"`
	ClassID           int               `json:"class_id"`
	ClassName         string            `json:"class_name"`
	ViolationCategory ViolationCategory `json:"violation_category,omitempty"`
	Confidence        float64           `json:"confidence"`
	BBox              BoundingBox       `json:"bbox"`
	Area              float64           `json:"area"`
	Severity          ViolationSeverity `json:"severity,omitempty"`
	Description       string            `json:"description,omitempty"`
}

// ImageInfo describes the uploaded image a result was computed from.
type ImageInfo struct {
	Filename   string    `json:"filename"`
	FileSize   int64     `json:"file_size"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	Format     string    `json:"format"`
	UploadTime time.Time `json:"upload_time"`
}

// DetectionResult is one image's complete analysis.
//
// TotalViolations counts every detection the model emitted, classified or
// not. Distribution counts in Statistics only cover classified detections.
type DetectionResult struct {
	ID                  int64             `json:"id,omitempty"`
	ImagePath           string            `json:"image_path"`
	ImageInfo           *ImageInfo        `json:"image_info,omitempty"`
	Detections          []Detection       `json:"detections"`
	TotalViolations     int               `json:"total_violations"`
	ConfidenceThreshold float64           `json:"confidence_threshold"`
	IOUThreshold        float64           `json:"iou_threshold"`
	ProcessingTime      float64           `json:"processing_time"`
	CreatedAt           time.Time         `json:"created_at"`
	Status              ViolationStatus   `json:"status"`
	Metadata            map[string]string `json:"metadata,omitempty"`
}

// ResultFilter contains filtering options for querying stored results.
type ResultFilter struct {
	Status    ViolationStatus
	StartDate time.Time
	EndDate   time.Time
	Limit     int
	Offset    int
}

// ResultStats contains statistics about stored detection results.
type ResultStats struct {
	TotalResults          int                       `json:"total_results"`
	TotalViolations       int                       `json:"total_violations"`
	AvgViolationsPerImage float64                   `json:"avg_violations_per_image"`
	SeverityDistribution  map[ViolationSeverity]int `json:"severity_distribution"`
	CategoryDistribution  map[ViolationCategory]int `json:"category_distribution"`
	DailyCounts           map[string]int            `json:"daily_counts"`
}
