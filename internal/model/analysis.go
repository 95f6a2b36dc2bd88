package model

// StructuralComplexity grades how built-up a detected region looks.
type StructuralComplexity string

const (
	ComplexityLow    StructuralComplexity = "low"
	ComplexityMedium StructuralComplexity = "medium"
	ComplexityHigh   StructuralComplexity = "high"
)

// ImageSignals are the classical image-processing measurements produced by
// the analysis service and consumed by the advisory fallback rule.
type ImageSignals struct {
	RiskScore            int                  `json:"risk_score"`
	RiskLevel            string               `json:"risk_level"`
	StructuralComplexity StructuralComplexity `json:"structural_complexity"`
	EdgeDensity          float64              `json:"edge_density"`
	Contrast             float64              `json:"contrast"`
	BlurScore            float64              `json:"blur_score"`
	MeanColor            []float64            `json:"mean_color,omitempty"`
}
