package ai

import (
	"testing"

	"cityguard/internal/model"
)

func TestScoreSignals(t *testing.T) {
	tests := []struct {
		name           string
		edgeDensity    float64
		contrast       float64
		blurScore      float64
		wantComplexity model.StructuralComplexity
		wantScore      int
		wantLevel      string
	}{
		{
			name:        "flat sharp image",
			edgeDensity: 0.01, contrast: 20, blurScore: 500,
			wantComplexity: model.ComplexityLow,
			wantScore:      2, // 0.01*250
			wantLevel:      "低",
		},
		{
			name:        "medium density",
			edgeDensity: 0.08, contrast: 20, blurScore: 500,
			wantComplexity: model.ComplexityMedium,
			wantScore:      30, // 20 + 10
			wantLevel:      "中",
		},
		{
			name:        "dense high-contrast blurry image",
			edgeDensity: 0.2, contrast: 80, blurScore: 50,
			wantComplexity: model.ComplexityHigh,
			wantScore:      85, // 50 + 20 + 10 + 5
			wantLevel:      "高",
		},
		{
			name:        "score is clamped at 100",
			edgeDensity: 0.5, contrast: 80, blurScore: 50,
			wantComplexity: model.ComplexityHigh,
			wantScore:      100,
			wantLevel:      "高",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signals := ScoreSignals(tt.edgeDensity, tt.contrast, tt.blurScore)

			if signals.StructuralComplexity != tt.wantComplexity {
				t.Errorf("StructuralComplexity = %q, want %q", signals.StructuralComplexity, tt.wantComplexity)
			}
			if signals.RiskScore != tt.wantScore {
				t.Errorf("RiskScore = %d, want %d", signals.RiskScore, tt.wantScore)
			}
			if signals.RiskLevel != tt.wantLevel {
				t.Errorf("RiskLevel = %q, want %q", signals.RiskLevel, tt.wantLevel)
			}
		})
	}
}

func TestScoreSignals_PreservesInputs(t *testing.T) {
	signals := ScoreSignals(0.12, 45, 230)

	if signals.EdgeDensity != 0.12 || signals.Contrast != 45 || signals.BlurScore != 230 {
		t.Errorf("raw measurements not carried through: %+v", signals)
	}
}

func TestClassLabel(t *testing.T) {
	tests := []struct {
		classID int
		want    string
	}{
		{1, "person"},
		{3, "car"},
		{8, "truck"},
		{28, "umbrella"},
		{62, "chair"},
		{999, "unknown_999"},
	}

	for _, tt := range tests {
		if got := ClassLabel(tt.classID); got != tt.want {
			t.Errorf("ClassLabel(%d) = %q, want %q", tt.classID, got, tt.want)
		}
	}
}
