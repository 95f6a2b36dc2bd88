package ai

import (
	"gocv.io/x/gocv"

	"cityguard/internal/model"
)

// AnalysisService computes classical image-processing signals over an
// uploaded image. The signals feed the advisory fallback rule and the
// multimodal analysis endpoint; they never drive detection itself.
type AnalysisService struct{}

// NewAnalysisService creates the analysis service.
func NewAnalysisService() *AnalysisService {
	return &AnalysisService{}
}

// Analyze decodes the image and measures edge density, contrast and blur,
// then grades structural complexity and a 0-100 risk score.
func (s *AnalysisService) Analyze(imageBytes []byte) (model.ImageSignals, error) {
	mat, err := gocv.IMDecode(imageBytes, gocv.IMReadColor)
	if err != nil {
		return model.ImageSignals{}, ErrImageUnreadable
	}
	defer mat.Close()
	if mat.Empty() {
		return model.ImageSignals{}, ErrImageUnreadable
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if err := gocv.CvtColor(mat, &gray, gocv.ColorBGRToGray); err != nil {
		return model.ImageSignals{}, ErrImageUnreadable
	}

	// Edge density: fraction of pixels Canny marks as edges.
	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(gray, &edges, 50, 150)
	edgeDensity := float64(gocv.CountNonZero(edges)) / float64(edges.Total())

	// Contrast: gray-level standard deviation.
	_, stddev := gray.MeanStdDev()
	contrast := stddev.Val1

	// Blur: variance of the Laplacian; low values mean a blurry image.
	laplacian := gocv.NewMat()
	defer laplacian.Close()
	gocv.Laplacian(gray, &laplacian, gocv.MatTypeCV64F, 1, 1, 0, gocv.BorderDefault)
	_, lapStddev := laplacian.MeanStdDev()
	blurScore := lapStddev.Val1 * lapStddev.Val1

	meanColor := mat.Mean()

	signals := ScoreSignals(edgeDensity, contrast, blurScore)
	signals.MeanColor = []float64{meanColor.Val1, meanColor.Val2, meanColor.Val3}
	return signals, nil
}

// ScoreSignals grades raw measurements into structural complexity, risk
// score and risk level. Pure function; same inputs always grade the same.
func ScoreSignals(edgeDensity, contrast, blurScore float64) model.ImageSignals {
	complexity := model.ComplexityLow
	switch {
	case edgeDensity > 0.15:
		complexity = model.ComplexityHigh
	case edgeDensity > 0.07:
		complexity = model.ComplexityMedium
	}

	score := int(edgeDensity * 250)
	switch complexity {
	case model.ComplexityHigh:
		score += 20
	case model.ComplexityMedium:
		score += 10
	}
	if contrast > 60 {
		score += 10
	}
	if blurScore < 100 {
		// blurry imagery hides structure; bump for manual review
		score += 5
	}
	if score > 100 {
		score = 100
	}

	level := "低"
	switch {
	case score >= 50:
		level = "高"
	case score >= 30:
		level = "中"
	}

	return model.ImageSignals{
		RiskScore:            score,
		RiskLevel:            level,
		StructuralComplexity: complexity,
		EdgeDensity:          edgeDensity,
		Contrast:             contrast,
		BlurScore:            blurScore,
	}
}
