package repository

import (
	"cityguard/internal/model"
)

// ResultRepository defines the interface for detection-result persistence.
// A result and its child detections are always written in one transaction.
type ResultRepository interface {
	// Create operations
	Insert(result *model.DetectionResult) (int64, error)

	// Read operations
	GetByID(id int64) (*model.DetectionResult, error)
	GetAll(filter *model.ResultFilter) ([]model.DetectionResult, error)
	GetTotalCount(filter *model.ResultFilter) (int, error)
	GetStats(filter *model.ResultFilter) (*model.ResultStats, error)

	// Update operations
	UpdateStatus(id int64, status model.ViolationStatus) (bool, error)

	// Delete operations
	Delete(id int64) (bool, error)
	DeleteAll() error
}
