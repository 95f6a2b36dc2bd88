package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"cityguard/internal/model"
)

// ResultRepository implements repository.ResultRepository for SQLite.
type ResultRepository struct {
	db *DB
}

// NewResultRepository creates a new SQLite result repository.
func NewResultRepository(db *DB) *ResultRepository {
	return &ResultRepository{db: db}
}

// Insert saves a detection result and its child detections in a single
// transaction. A result is never written partially.
func (r *ResultRepository) Insert(result *model.DetectionResult) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	tx, err := r.db.Conn().Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	metadata := ""
	if len(result.Metadata) > 0 {
		encoded, err := json.Marshal(result.Metadata)
		if err != nil {
			return 0, fmt.Errorf("failed to encode metadata: %w", err)
		}
		metadata = string(encoded)
	}

	var filename, format string
	var fileSize int64
	var width, height int
	if result.ImageInfo != nil {
		filename = result.ImageInfo.Filename
		fileSize = result.ImageInfo.FileSize
		width = result.ImageInfo.Width
		height = result.ImageInfo.Height
		format = result.ImageInfo.Format
	}

	res, err := tx.Exec(`
		INSERT INTO detection_results
			(image_path, image_filename, image_size, image_width, image_height, image_format,
			 total_violations, confidence_threshold, iou_threshold, processing_time, status, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, result.ImagePath, filename, fileSize, width, height, format,
		result.TotalViolations, result.ConfidenceThreshold, result.IOUThreshold,
		result.ProcessingTime, string(result.Status), metadata, result.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to insert result: %w", err)
	}

	resultID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get result id: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO violation_detections
			(result_id, class_id, class_name, violation_category, confidence,
			 bbox_x, bbox_y, bbox_width, bbox_height, area, severity, description)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, det := range result.Detections {
		if _, err := stmt.Exec(resultID, det.ClassID, det.ClassName, string(det.ViolationCategory),
			det.Confidence, det.BBox.X, det.BBox.Y, det.BBox.Width, det.BBox.Height,
			det.Area, string(det.Severity), det.Description); err != nil {
			return 0, fmt.Errorf("failed to insert detection: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit result: %w", err)
	}

	return resultID, nil
}

// GetByID retrieves a result with its detections, or nil when absent.
func (r *ResultRepository) GetByID(id int64) (*model.DetectionResult, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	row := r.db.Conn().QueryRow(`
		SELECT id, image_path, image_filename, image_size, image_width, image_height, image_format,
		       total_violations, confidence_threshold, iou_threshold, processing_time, status, metadata, created_at
		FROM detection_results WHERE id = ?
	`, id)

	result, err := scanResult(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get result: %w", err)
	}

	detections, err := r.detectionsForResult(id)
	if err != nil {
		return nil, err
	}
	result.Detections = detections

	return result, nil
}

// GetAll retrieves results matching the filter, newest first, including
// child detections.
func (r *ResultRepository) GetAll(filter *model.ResultFilter) ([]model.DetectionResult, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	if filter == nil {
		filter = &model.ResultFilter{}
	}

	query := `
		SELECT id, image_path, image_filename, image_size, image_width, image_height, image_format,
		       total_violations, confidence_threshold, iou_threshold, processing_time, status, metadata, created_at
		FROM detection_results
		WHERE 1=1
	`
	query, args := applyFilter(query, filter)
	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	} else if filter.Offset > 0 {
		// OFFSET is only valid after a LIMIT clause; -1 means unlimited
		query += " LIMIT -1"
	}
	if filter.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := r.db.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	var results []model.DetectionResult
	for rows.Next() {
		result, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		results = append(results, *result)
	}

	for i := range results {
		detections, err := r.detectionsForResult(results[i].ID)
		if err != nil {
			return nil, err
		}
		results[i].Detections = detections
	}

	return results, nil
}

// GetTotalCount returns the number of results matching the filter.
func (r *ResultRepository) GetTotalCount(filter *model.ResultFilter) (int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	query := `SELECT COUNT(*) FROM detection_results WHERE 1=1`
	query, args := applyFilter(query, filter)

	var count int
	if err := r.db.Conn().QueryRow(query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count results: %w", err)
	}
	return count, nil
}

// UpdateStatus sets the processing status of a stored result. Returns false
// when the result does not exist.
func (r *ResultRepository) UpdateStatus(id int64, status model.ViolationStatus) (bool, error) {
	r.db.Lock()
	defer r.db.Unlock()

	res, err := r.db.Conn().Exec(`
		UPDATE detection_results SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, string(status), id)
	if err != nil {
		return false, fmt.Errorf("failed to update status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check update: %w", err)
	}
	return affected > 0, nil
}

// Delete removes a result and its detections. Returns false when absent.
func (r *ResultRepository) Delete(id int64) (bool, error) {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`DELETE FROM violation_detections WHERE result_id = ?`, id); err != nil {
		return false, fmt.Errorf("failed to delete detections: %w", err)
	}

	res, err := r.db.Conn().Exec(`DELETE FROM detection_results WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete result: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check delete: %w", err)
	}
	return affected > 0, nil
}

// DeleteAll removes all results and their detections.
func (r *ResultRepository) DeleteAll() error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`DELETE FROM violation_detections`); err != nil {
		return fmt.Errorf("failed to delete detections: %w", err)
	}
	if _, err := r.db.Conn().Exec(`DELETE FROM detection_results`); err != nil {
		return fmt.Errorf("failed to delete results: %w", err)
	}
	return nil
}

// GetStats returns aggregate statistics over stored results matching
// the filter.
func (r *ResultRepository) GetStats(filter *model.ResultFilter) (*model.ResultStats, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	stats := &model.ResultStats{
		SeverityDistribution: make(map[model.ViolationSeverity]int),
		CategoryDistribution: make(map[model.ViolationCategory]int),
		DailyCounts:          make(map[string]int),
	}

	query := `SELECT COUNT(*), COALESCE(SUM(total_violations), 0) FROM detection_results WHERE 1=1`
	query, args := applyFilter(query, filter)
	if err := r.db.Conn().QueryRow(query, args...).Scan(&stats.TotalResults, &stats.TotalViolations); err != nil {
		return nil, fmt.Errorf("failed to count results: %w", err)
	}

	denom := stats.TotalResults
	if denom < 1 {
		denom = 1
	}
	stats.AvgViolationsPerImage = float64(stats.TotalViolations) / float64(denom)

	distQuery := `
		SELECT d.severity, d.violation_category, COUNT(*)
		FROM violation_detections d
		JOIN detection_results res ON res.id = d.result_id
		WHERE d.violation_category != ''
	`
	distQuery, distArgs := applyResultFilter(distQuery, "res", filter)
	distQuery += " GROUP BY d.severity, d.violation_category"

	rows, err := r.db.Conn().Query(distQuery, distArgs...)
	if err != nil {
		return nil, fmt.Errorf("failed to query distributions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var severity, category string
		var count int
		if err := rows.Scan(&severity, &category, &count); err != nil {
			return nil, fmt.Errorf("failed to scan distribution: %w", err)
		}
		if severity != "" {
			stats.SeverityDistribution[model.ViolationSeverity(severity)] += count
		}
		stats.CategoryDistribution[model.ViolationCategory(category)] += count
	}

	dailyQuery := `SELECT DATE(created_at), COUNT(*) FROM detection_results WHERE 1=1`
	dailyQuery, dailyArgs := applyFilter(dailyQuery, filter)
	dailyQuery += " GROUP BY DATE(created_at)"

	dailyRows, err := r.db.Conn().Query(dailyQuery, dailyArgs...)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily counts: %w", err)
	}
	defer dailyRows.Close()

	for dailyRows.Next() {
		var day string
		var count int
		if err := dailyRows.Scan(&day, &count); err != nil {
			return nil, fmt.Errorf("failed to scan daily count: %w", err)
		}
		stats.DailyCounts[day] = count
	}

	return stats, nil
}

// detectionsForResult loads the child detections in insertion order, which
// preserves the detector's emission order.
func (r *ResultRepository) detectionsForResult(resultID int64) ([]model.Detection, error) {
	rows, err := r.db.Conn().Query(`
		SELECT id, result_id, class_id, class_name, violation_category, confidence,
		       bbox_x, bbox_y, bbox_width, bbox_height, area, severity, description
		FROM violation_detections WHERE result_id = ? ORDER BY id
	`, resultID)
	if err != nil {
		return nil, fmt.Errorf("failed to query detections: %w", err)
	}
	defer rows.Close()

	var detections []model.Detection
	for rows.Next() {
		var det model.Detection
		var category, severity string
		if err := rows.Scan(&det.ID, &det.ResultID, &det.ClassID, &det.ClassName, &category,
			&det.Confidence, &det.BBox.X, &det.BBox.Y, &det.BBox.Width, &det.BBox.Height,
			&det.Area, &severity, &det.Description); err != nil {
			return nil, fmt.Errorf("failed to scan detection: %w", err)
		}
		det.ViolationCategory = model.ViolationCategory(category)
		det.Severity = model.ViolationSeverity(severity)
		detections = append(detections, det)
	}

	return detections, nil
}

// scanTarget lets scanResult work for both QueryRow and Query rows.
type scanTarget interface {
	Scan(dest ...interface{}) error
}

func scanResult(row scanTarget) (*model.DetectionResult, error) {
	var result model.DetectionResult
	var info model.ImageInfo
	var status, metadata string
	var createdAt time.Time

	err := row.Scan(&result.ID, &result.ImagePath, &info.Filename, &info.FileSize,
		&info.Width, &info.Height, &info.Format,
		&result.TotalViolations, &result.ConfidenceThreshold, &result.IOUThreshold,
		&result.ProcessingTime, &status, &metadata, &createdAt)
	if err != nil {
		return nil, err
	}

	result.Status = model.ViolationStatus(status)
	result.CreatedAt = createdAt
	if info != (model.ImageInfo{}) {
		result.ImageInfo = &info
	}
	if metadata != "" {
		decoded := make(map[string]string)
		if err := json.Unmarshal([]byte(metadata), &decoded); err == nil {
			result.Metadata = decoded
		}
	}

	return &result, nil
}

// applyFilter appends WHERE clauses for the plain detection_results queries.
func applyFilter(query string, filter *model.ResultFilter) (string, []interface{}) {
	return applyResultFilter(query, "", filter)
}

// applyResultFilter appends WHERE clauses, optionally qualifying columns with
// a table alias for joined queries.
func applyResultFilter(query, alias string, filter *model.ResultFilter) (string, []interface{}) {
	args := []interface{}{}
	if filter == nil {
		return query, args
	}

	prefix := ""
	if alias != "" {
		prefix = alias + "."
	}

	if filter.Status != "" {
		query += " AND " + prefix + "status = ?"
		args = append(args, string(filter.Status))
	}
	if !filter.StartDate.IsZero() {
		query += " AND DATE(" + prefix + "created_at) >= DATE(?)"
		args = append(args, filter.StartDate)
	}
	if !filter.EndDate.IsZero() {
		query += " AND DATE(" + prefix + "created_at) <= DATE(?)"
		args = append(args, filter.EndDate)
	}

	return query, args
}
