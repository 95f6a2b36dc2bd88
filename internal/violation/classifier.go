// Package violation maps raw detector output to building-violation
// categories and aggregates classified detections into statistics.
package violation

import "cityguard/internal/model"

// classMapping maps detector class names to violation categories. A class
// present with NoCategory is explicitly not a violation and skips the
// geometric heuristics.
var classMapping = map[string]model.ViolationCategory{
	// people are never violations
	"person": NoCategory,

	// vehicles parked where the detector finds them
	"car":   model.UnauthorizedParking,
	"truck": model.UnauthorizedParking,
	"bus":   model.UnauthorizedParking,

	// furniture outdoors suggests a temporary structure
	"chair": model.TemporaryStructure,
	"couch": model.TemporaryStructure,
	"bed":   model.TemporaryStructure,
	"bench": model.TemporaryStructure,

	// shelter
	"umbrella": model.ShedStructure,

	// stall goods
	"bottle": model.IllegalMarketStall,
	"cup":    model.IllegalMarketStall,
	"bowl":   model.IllegalMarketStall,
}

// NoCategory is the zero category: the detection is not a violation.
const NoCategory = model.ViolationCategory("")

// Classify maps a detected object to a violation category. The class-name
// table is consulted first; unmapped classes other than "person" fall back to
// geometric heuristics on relative area and aspect ratio. Classify is a pure
// function and never fails: degenerate boxes classify conservatively.
func Classify(className string, bbox model.BoundingBox, imageWidth, imageHeight int) model.ViolationCategory {
	if category, ok := classMapping[className]; ok {
		return category
	}
	if className == "person" {
		return NoCategory
	}
	if imageWidth <= 0 || imageHeight <= 0 {
		return NoCategory
	}

	area := bbox.Area()
	if area <= 0 {
		return NoCategory
	}
	if bbox.Height <= 0 {
		// positive area with non-positive height cannot happen for a real
		// box; classify conservatively instead of dividing by zero
		return model.IllegalConstruction
	}

	relativeArea := area / (float64(imageWidth) * float64(imageHeight))
	aspectRatio := bbox.Width / bbox.Height

	switch {
	case relativeArea > 0.3:
		if aspectRatio > 3 {
			return model.IllegalFence
		}
		return model.IllegalConstruction
	case relativeArea > 0.1:
		if aspectRatio < 0.5 {
			return model.UnauthorizedStorefront
		}
		return model.ShedStructure
	default:
		return model.IllegalMarketStall
	}
}

// Enrich stamps severity and description onto a classified detection from the
// category reference table. Unclassified detections are left untouched, so
// severity and description stay paired with the category.
func Enrich(det *model.Detection) {
	if det.ViolationCategory == NoCategory {
		return
	}
	info, ok := model.GetCategoryInfo(det.ViolationCategory)
	if !ok {
		return
	}
	det.Severity = info.SeverityLevel
	det.Description = info.Description
}
