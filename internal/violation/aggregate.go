package violation

import "cityguard/internal/model"

// Statistics summarizes one image's detections.
type Statistics struct {
	TotalViolations      int                             `json:"total_violations"`
	SeverityDistribution map[model.ViolationSeverity]int `json:"severity_distribution"`
	CategoryDistribution map[model.ViolationCategory]int `json:"category_distribution"`
}

// BatchStatistics summarizes a batch of detection results.
type BatchStatistics struct {
	TotalImages           int                             `json:"total_images"`
	TotalViolations       int                             `json:"total_violations"`
	AvgViolationsPerImage float64                         `json:"average_violations_per_image"`
	SeverityDistribution  map[model.ViolationSeverity]int `json:"severity_distribution"`
	CategoryDistribution  map[model.ViolationCategory]int `json:"category_distribution"`
}

// Aggregate counts detections by severity and category. TotalViolations is
// the raw detection count, including unclassified detections; the
// distribution maps only count detections that carry a category or severity.
// Counting is order-independent.
func Aggregate(detections []model.Detection) Statistics {
	stats := Statistics{
		TotalViolations:      len(detections),
		SeverityDistribution: make(map[model.ViolationSeverity]int),
		CategoryDistribution: make(map[model.ViolationCategory]int),
	}

	for _, det := range detections {
		if det.Severity != "" {
			stats.SeverityDistribution[det.Severity]++
		}
		if det.ViolationCategory != NoCategory {
			stats.CategoryDistribution[det.ViolationCategory]++
		}
	}

	return stats
}

// AggregateBatch sums per-image statistics across results. An empty batch
// yields zero averages rather than dividing by zero.
func AggregateBatch(results []model.DetectionResult) BatchStatistics {
	batch := BatchStatistics{
		TotalImages:          len(results),
		SeverityDistribution: make(map[model.ViolationSeverity]int),
		CategoryDistribution: make(map[model.ViolationCategory]int),
	}

	for _, result := range results {
		stats := Aggregate(result.Detections)
		batch.TotalViolations += stats.TotalViolations
		for severity, count := range stats.SeverityDistribution {
			batch.SeverityDistribution[severity] += count
		}
		for category, count := range stats.CategoryDistribution {
			batch.CategoryDistribution[category] += count
		}
	}

	denom := len(results)
	if denom < 1 {
		denom = 1
	}
	batch.AvgViolationsPerImage = float64(batch.TotalViolations) / float64(denom)

	return batch
}
