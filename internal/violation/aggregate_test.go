package violation

import (
	"math/rand"
	"testing"

	"cityguard/internal/model"
)

func sampleDetections() []model.Detection {
	return []model.Detection{
		{ClassName: "car", ViolationCategory: model.UnauthorizedParking, Severity: model.SeverityMedium},
		{ClassName: "truck", ViolationCategory: model.UnauthorizedParking, Severity: model.SeverityMedium},
		{ClassName: "chair", ViolationCategory: model.TemporaryStructure, Severity: model.SeverityMedium},
		{ClassName: "person"}, // not a violation, still counted in the total
	}
}

func TestAggregate(t *testing.T) {
	stats := Aggregate(sampleDetections())

	if stats.TotalViolations != 4 {
		t.Errorf("TotalViolations = %d, want 4", stats.TotalViolations)
	}
	if got := stats.CategoryDistribution[model.UnauthorizedParking]; got != 2 {
		t.Errorf("unauthorized_parking count = %d, want 2", got)
	}
	if got := stats.CategoryDistribution[model.TemporaryStructure]; got != 1 {
		t.Errorf("temporary_structure count = %d, want 1", got)
	}
	if got := stats.SeverityDistribution[model.SeverityMedium]; got != 3 {
		t.Errorf("medium severity count = %d, want 3", got)
	}
	if _, ok := stats.CategoryDistribution[NoCategory]; ok {
		t.Error("unclassified detections must not appear in the category distribution")
	}
}

func TestAggregate_Empty(t *testing.T) {
	stats := Aggregate(nil)

	if stats.TotalViolations != 0 {
		t.Errorf("TotalViolations = %d, want 0", stats.TotalViolations)
	}
	if len(stats.SeverityDistribution) != 0 || len(stats.CategoryDistribution) != 0 {
		t.Error("empty input must yield empty distributions")
	}
}

func TestAggregate_OrderIndependent(t *testing.T) {
	detections := sampleDetections()
	want := Aggregate(detections)

	for i := 0; i < 5; i++ {
		rand.Shuffle(len(detections), func(a, b int) {
			detections[a], detections[b] = detections[b], detections[a]
		})
		got := Aggregate(detections)

		if got.TotalViolations != want.TotalViolations {
			t.Fatalf("TotalViolations changed with order: %d vs %d", got.TotalViolations, want.TotalViolations)
		}
		for category, count := range want.CategoryDistribution {
			if got.CategoryDistribution[category] != count {
				t.Fatalf("count for %q changed with order", category)
			}
		}
	}
}

func TestAggregateBatch(t *testing.T) {
	results := []model.DetectionResult{
		{Detections: sampleDetections()},
		{Detections: sampleDetections()[:2]},
		{Detections: nil},
	}

	batch := AggregateBatch(results)

	if batch.TotalImages != 3 {
		t.Errorf("TotalImages = %d, want 3", batch.TotalImages)
	}
	if batch.TotalViolations != 6 {
		t.Errorf("TotalViolations = %d, want 6", batch.TotalViolations)
	}
	if batch.AvgViolationsPerImage != 2.0 {
		t.Errorf("AvgViolationsPerImage = %f, want 2.0", batch.AvgViolationsPerImage)
	}
	if got := batch.CategoryDistribution[model.UnauthorizedParking]; got != 4 {
		t.Errorf("unauthorized_parking count = %d, want 4", got)
	}
}

func TestAggregateBatch_Empty(t *testing.T) {
	batch := AggregateBatch(nil)

	if batch.TotalImages != 0 || batch.TotalViolations != 0 {
		t.Errorf("empty batch totals = %d images, %d violations", batch.TotalImages, batch.TotalViolations)
	}
	if batch.AvgViolationsPerImage != 0 {
		t.Errorf("AvgViolationsPerImage = %f, want 0", batch.AvgViolationsPerImage)
	}
}
