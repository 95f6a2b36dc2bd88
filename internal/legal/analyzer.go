package legal

import (
	"context"

	"cityguard/internal/model"
)

// Analysis is the structured outcome of one advisory analysis pass.
type Analysis struct {
	ViolationType              model.ViolationCategory `json:"violation_type"`
	SeverityLevel              string                  `json:"severity_level"`
	LegalBasis                 []string                `json:"legal_basis"`
	EnforcementRecommendations []string                `json:"enforcement_recommendations"`
	PenaltyBasis               string                  `json:"penalty_basis"`
	PriorityScore              int                     `json:"priority_score"`
	Confidence                 float64                 `json:"analysis_confidence"`
}

// RegulationExcerpt is the trimmed regulation view attached to an enhanced
// analysis.
type RegulationExcerpt struct {
	Title                string `json:"title"`
	Content              string `json:"content"`
	PenaltyDescription   string `json:"penalty_description"`
	EnforcementProcedure string `json:"enforcement_procedure"`
}

// EnhancedAnalysis is an Analysis enriched with knowledge-base citations.
type EnhancedAnalysis struct {
	Analysis
	LegalAdvice             model.LegalAdvice   `json:"legal_advice"`
	ApplicableRegulations   []RegulationExcerpt `json:"applicable_regulations"`
	EnhancedByKnowledgeBase bool                `json:"enhanced_by_knowledge_base"`
	KnowledgeBaseVersion    string              `json:"knowledge_base_version"`
}

// Analyzer produces an advisory analysis from a violation description and
// image signals. Implementations must not fail: the remote implementation
// wraps every transport or parse failure into the deterministic rule result.
type Analyzer interface {
	Analyze(ctx context.Context, description string, signals model.ImageSignals) Analysis
}

// RuleAnalyzer is the deterministic local analyzer used when no language
// model is configured and as the fallback when the remote call fails.
type RuleAnalyzer struct{}

// Analyze derives severity from the risk score and the violation type from
// structural complexity, using fixed thresholds.
func (RuleAnalyzer) Analyze(_ context.Context, _ string, signals model.ImageSignals) Analysis {
	var severity string
	var priority int

	switch {
	case signals.RiskScore >= 50:
		severity = "严重"
		priority = 5
	case signals.RiskScore >= 30:
		severity = "中"
		priority = 3
	default:
		severity = "轻微"
		priority = 2
	}

	violationType := model.TemporaryStructure
	if signals.StructuralComplexity == model.ComplexityHigh {
		violationType = model.IllegalConstruction
	}

	return Analysis{
		ViolationType: violationType,
		SeverityLevel: severity,
		LegalBasis:    []string{"城乡规划法", "城市管理条例"},
		EnforcementRecommendations: []string{
			"立即组织现场调查",
			"收集相关证据材料",
			"按程序进行处理",
			"跟踪整改落实",
		},
		PenaltyBasis:  "依据相关法律法规执行",
		PriorityScore: priority,
		Confidence:    0.8,
	}
}

// Enhance attaches knowledge-base citations to an analysis: the derived
// advice plus up to three applicable regulations.
func (kb *KnowledgeBase) Enhance(analysis Analysis) EnhancedAnalysis {
	violationType := analysis.ViolationType
	if _, ok := model.GetCategoryInfo(violationType); !ok {
		violationType = model.IllegalConstruction
	}

	advice := kb.Advise(violationType, analysis.SeverityLevel)
	regulations := kb.RegulationsFor(violationType)

	excerpts := make([]RegulationExcerpt, 0, 3)
	for _, reg := range regulations {
		if len(excerpts) == 3 {
			break
		}
		excerpts = append(excerpts, RegulationExcerpt{
			Title:                reg.Title,
			Content:              reg.Content,
			PenaltyDescription:   reg.PenaltyDescription,
			EnforcementProcedure: reg.EnforcementProcedure,
		})
	}

	return EnhancedAnalysis{
		Analysis:                analysis,
		LegalAdvice:             advice,
		ApplicableRegulations:   excerpts,
		EnhancedByKnowledgeBase: true,
		KnowledgeBaseVersion:    "1.0",
	}
}
