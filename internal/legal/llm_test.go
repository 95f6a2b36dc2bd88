package legal

import (
	"context"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cityguard/internal/logger"
	"cityguard/internal/model"
)

const testEndpoint = "https://llm.test/v1/chat/completions"

func newTestAnalyzer(enabled bool) *LLMAnalyzer {
	return NewLLMAnalyzer(LLMConfig{
		Enabled:     enabled,
		APIEndpoint: testEndpoint,
		APIKey:      "test-key",
		ModelName:   "gpt-3.5-turbo",
		MaxTokens:   1000,
		Temperature: 0.3,
	}, logger.NewDiscard())
}

func chatBody(content string) map[string]interface{} {
	return map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]interface{}{"role": "assistant", "content": content}},
		},
	}
}

func TestLLMAnalyzer_Disabled(t *testing.T) {
	a := newTestAnalyzer(false)

	assert.False(t, a.Enabled())

	analysis := a.Analyze(context.Background(), "私搭乱建", model.ImageSignals{RiskScore: 80})
	// disabled analyzer must behave exactly like the local rule
	assert.Equal(t, "严重", analysis.SeverityLevel)
	assert.Equal(t, 5, analysis.PriorityScore)
	assert.Equal(t, 0.8, analysis.Confidence)
}

func TestLLMAnalyzer_ParsesJSONVerdict(t *testing.T) {
	a := newTestAnalyzer(true)
	httpmock.ActivateNonDefault(a.client)
	defer httpmock.DeactivateAndReset()

	verdict := `分析如下：{"violation_type": "illegal_construction", "severity_level": "严重",
		"legal_basis": ["城乡规划法第六十四条"], "enforcement_recommendations": ["责令停止建设"],
		"penalty_basis": "工程造价百分之十以下罚款", "priority_score": 5, "analysis_confidence": 0.92}`
	responder, err := httpmock.NewJsonResponder(200, chatBody(verdict))
	require.NoError(t, err)
	httpmock.RegisterResponder("POST", testEndpoint, responder)

	analysis := a.Analyze(context.Background(), "大面积私搭乱建", model.ImageSignals{RiskScore: 70})

	assert.Equal(t, model.IllegalConstruction, analysis.ViolationType)
	assert.Equal(t, "严重", analysis.SeverityLevel)
	assert.Equal(t, 5, analysis.PriorityScore)
	assert.Equal(t, 0.92, analysis.Confidence)
	assert.Equal(t, []string{"城乡规划法第六十四条"}, analysis.LegalBasis)
}

func TestLLMAnalyzer_PriorityClamped(t *testing.T) {
	a := newTestAnalyzer(true)
	httpmock.ActivateNonDefault(a.client)
	defer httpmock.DeactivateAndReset()

	responder, err := httpmock.NewJsonResponder(200, chatBody(`{"violation_type": "shed_structure",
		"severity_level": "中", "priority_score": 99, "analysis_confidence": 0.5}`))
	require.NoError(t, err)
	httpmock.RegisterResponder("POST", testEndpoint, responder)

	analysis := a.Analyze(context.Background(), "棚屋", model.ImageSignals{})
	assert.Equal(t, 3, analysis.PriorityScore)
}

func TestLLMAnalyzer_TextFallbackParsing(t *testing.T) {
	a := newTestAnalyzer(true)
	httpmock.ActivateNonDefault(a.client)
	defer httpmock.DeactivateAndReset()

	responder, err := httpmock.NewJsonResponder(200, chatBody("该违章情况非常严重，建议立即处理。"))
	require.NoError(t, err)
	httpmock.RegisterResponder("POST", testEndpoint, responder)

	analysis := a.Analyze(context.Background(), "违建", model.ImageSignals{})

	assert.Equal(t, model.IllegalConstruction, analysis.ViolationType)
	assert.Equal(t, "严重", analysis.SeverityLevel)
	assert.Equal(t, 5, analysis.PriorityScore)
	assert.Equal(t, 0.7, analysis.Confidence)
}

func TestLLMAnalyzer_ServerErrorFallsBack(t *testing.T) {
	a := newTestAnalyzer(true)
	httpmock.ActivateNonDefault(a.client)
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("POST", testEndpoint,
		httpmock.NewStringResponder(500, "internal error"))

	analysis := a.Analyze(context.Background(), "违建", model.ImageSignals{RiskScore: 45})

	// remote failure must produce the local rule verdict, never an error
	assert.Equal(t, "中", analysis.SeverityLevel)
	assert.Equal(t, 3, analysis.PriorityScore)
	assert.Equal(t, 0.8, analysis.Confidence)
}

func TestLLMAnalyzer_MalformedResponseFallsBack(t *testing.T) {
	a := newTestAnalyzer(true)
	httpmock.ActivateNonDefault(a.client)
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("POST", testEndpoint,
		httpmock.NewStringResponder(200, "not json at all"))

	analysis := a.Analyze(context.Background(), "违建", model.ImageSignals{RiskScore: 20})

	assert.Equal(t, "轻微", analysis.SeverityLevel)
	assert.Equal(t, 2, analysis.PriorityScore)
}

func TestLLMAnalyzer_EmptyChoicesFallsBack(t *testing.T) {
	a := newTestAnalyzer(true)
	httpmock.ActivateNonDefault(a.client)
	defer httpmock.DeactivateAndReset()

	responder, err := httpmock.NewJsonResponder(200, map[string]interface{}{"choices": []interface{}{}})
	require.NoError(t, err)
	httpmock.RegisterResponder("POST", testEndpoint, responder)

	analysis := a.Analyze(context.Background(), "违建", model.ImageSignals{RiskScore: 60})
	assert.Equal(t, "严重", analysis.SeverityLevel)
}

func TestLLMAnalyzer_SendsBearerCredential(t *testing.T) {
	a := newTestAnalyzer(true)
	httpmock.ActivateNonDefault(a.client)
	defer httpmock.DeactivateAndReset()

	var gotAuth string
	httpmock.RegisterResponder("POST", testEndpoint,
		func(req *http.Request) (*http.Response, error) {
			gotAuth = req.Header.Get("Authorization")
			return httpmock.NewJsonResponse(200, chatBody("轻微"))
		})

	a.Analyze(context.Background(), "违建", model.ImageSignals{})
	assert.Equal(t, "Bearer test-key", gotAuth)
}
