package legal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cityguard/internal/logger"
	"cityguard/internal/model"
)

// LLMConfig configures the remote language-model analyzer.
type LLMConfig struct {
	Enabled     bool
	APIEndpoint string
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float64
}

// LLMAnalyzer calls an OpenAI-compatible chat endpoint for advisory analysis.
// Every failure of the remote call (disabled, timeout, non-2xx, malformed
// body) falls back to the deterministic rule analyzer and is never surfaced
// to the caller.
type LLMAnalyzer struct {
	config   LLMConfig
	client   *http.Client
	fallback RuleAnalyzer
	logger   *logger.Logger
}

// NewLLMAnalyzer creates an analyzer with a fixed request timeout.
func NewLLMAnalyzer(config LLMConfig, log *logger.Logger) *LLMAnalyzer {
	return &LLMAnalyzer{
		config: config,
		client: &http.Client{Timeout: 30 * time.Second},
		logger: log,
	}
}

// Enabled reports whether the remote endpoint is configured and switched on.
func (a *LLMAnalyzer) Enabled() bool {
	return a.config.Enabled && a.config.APIEndpoint != "" && a.config.APIKey != ""
}

// Analyze runs the remote analysis, falling back to the local rule on any
// failure.
func (a *LLMAnalyzer) Analyze(ctx context.Context, description string, signals model.ImageSignals) Analysis {
	if !a.Enabled() {
		return a.fallback.Analyze(ctx, description, signals)
	}

	response, err := a.complete(ctx, buildAnalysisPrompt(description, signals))
	if err != nil {
		a.logger.Warning("LLM analysis failed, using local rule: %v", err)
		return a.fallback.Analyze(ctx, description, signals)
	}

	return parseResponse(response)
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// complete sends one chat completion request with the bearer credential.
func (a *LLMAnalyzer) complete(ctx context.Context, prompt string) (string, error) {
	payload := chatRequest{
		Model: a.config.ModelName,
		Messages: []chatMessage{
			{Role: "system", Content: "你是一个专业的城市管理法律专家，精通违章建筑相关的法律法规。"},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   a.config.MaxTokens,
		Temperature: a.config.Temperature,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.APIEndpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("response contains no choices")
	}

	return parsed.Choices[0].Message.Content, nil
}

// buildAnalysisPrompt asks for a structured JSON verdict on the violation.
func buildAnalysisPrompt(description string, signals model.ImageSignals) string {
	return fmt.Sprintf(`作为智慧城管系统的法律专家，请分析以下违章建筑情况并提供专业建议：

违章描述: %s

图像分析结果:
- 结构复杂度: %s
- 风险评分: %d (%s)
- 边缘密度: %.3f

请从违章类型识别、严重程度评估、法律适用性、执法建议、处罚依据五个维度分析，并以JSON格式返回：
{
    "violation_type": "具体违章类型",
    "severity_level": "严重程度",
    "legal_basis": ["适用的法律条文"],
    "enforcement_recommendations": ["执法建议"],
    "penalty_basis": "处罚依据",
    "priority_score": 3,
    "analysis_confidence": 0.8
}`, description, signals.StructuralComplexity, signals.RiskScore, signals.RiskLevel, signals.EdgeDensity)
}

// llmVerdict is the JSON shape requested from the model.
type llmVerdict struct {
	ViolationType              string   `json:"violation_type"`
	SeverityLevel              string   `json:"severity_level"`
	LegalBasis                 []string `json:"legal_basis"`
	EnforcementRecommendations []string `json:"enforcement_recommendations"`
	PenaltyBasis               string   `json:"penalty_basis"`
	PriorityScore              int      `json:"priority_score"`
	AnalysisConfidence         float64  `json:"analysis_confidence"`
}

// parseResponse extracts the JSON object from the model output. Responses
// without a parseable JSON object go through keyword parsing instead.
func parseResponse(response string) Analysis {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")

	if start != -1 && end > start {
		var verdict llmVerdict
		if err := json.Unmarshal([]byte(response[start:end+1]), &verdict); err == nil {
			return verdictToAnalysis(verdict)
		}
	}

	return parseTextResponse(response)
}

func verdictToAnalysis(verdict llmVerdict) Analysis {
	analysis := Analysis{
		ViolationType:              model.ViolationCategory(verdict.ViolationType),
		SeverityLevel:              verdict.SeverityLevel,
		LegalBasis:                 verdict.LegalBasis,
		EnforcementRecommendations: verdict.EnforcementRecommendations,
		PenaltyBasis:               verdict.PenaltyBasis,
		PriorityScore:              verdict.PriorityScore,
		Confidence:                 verdict.AnalysisConfidence,
	}
	if analysis.PriorityScore < 1 || analysis.PriorityScore > 5 {
		analysis.PriorityScore = 3
	}
	return analysis
}

// parseTextResponse is the keyword fallback for free-text model output.
func parseTextResponse(response string) Analysis {
	lower := strings.ToLower(response)

	severity := "中"
	priority := 3
	switch {
	case strings.Contains(lower, "严重") || strings.Contains(lower, "重大") || strings.Contains(lower, "危险"):
		severity = "严重"
		priority = 5
	case strings.Contains(lower, "轻微") || strings.Contains(lower, "一般"):
		severity = "轻微"
		priority = 2
	}

	return Analysis{
		ViolationType:              model.IllegalConstruction,
		SeverityLevel:              severity,
		LegalBasis:                 []string{"相关城市管理法规"},
		EnforcementRecommendations: []string{"建议现场核查", "依法处置"},
		PenaltyBasis:               "根据相关法律法规进行处罚",
		PriorityScore:              priority,
		Confidence:                 0.7,
	}
}
