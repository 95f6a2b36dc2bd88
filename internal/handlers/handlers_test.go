package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cityguard/internal/legal"
	"cityguard/internal/logger"
	"cityguard/internal/model"
	"cityguard/internal/services"
)

// stubResultRepository is an in-memory repository for handler tests.
type stubResultRepository struct {
	results map[int64]*model.DetectionResult
	nextID  int64
}

func newStubRepo() *stubResultRepository {
	return &stubResultRepository{results: make(map[int64]*model.DetectionResult), nextID: 1}
}

func (s *stubResultRepository) Insert(result *model.DetectionResult) (int64, error) {
	id := s.nextID
	s.nextID++
	stored := *result
	stored.ID = id
	s.results[id] = &stored
	return id, nil
}

func (s *stubResultRepository) GetByID(id int64) (*model.DetectionResult, error) {
	return s.results[id], nil
}

func (s *stubResultRepository) GetAll(filter *model.ResultFilter) ([]model.DetectionResult, error) {
	var out []model.DetectionResult
	for _, result := range s.results {
		if filter != nil && filter.Status != "" && result.Status != filter.Status {
			continue
		}
		out = append(out, *result)
	}
	return out, nil
}

func (s *stubResultRepository) GetTotalCount(filter *model.ResultFilter) (int, error) {
	results, _ := s.GetAll(filter)
	return len(results), nil
}

func (s *stubResultRepository) GetStats(filter *model.ResultFilter) (*model.ResultStats, error) {
	return &model.ResultStats{
		TotalResults:         len(s.results),
		SeverityDistribution: map[model.ViolationSeverity]int{},
		CategoryDistribution: map[model.ViolationCategory]int{},
		DailyCounts:          map[string]int{},
	}, nil
}

func (s *stubResultRepository) UpdateStatus(id int64, status model.ViolationStatus) (bool, error) {
	result, ok := s.results[id]
	if !ok {
		return false, nil
	}
	result.Status = status
	return true, nil
}

func (s *stubResultRepository) Delete(id int64) (bool, error) {
	if _, ok := s.results[id]; !ok {
		return false, nil
	}
	delete(s.results, id)
	return true, nil
}

func (s *stubResultRepository) DeleteAll() error {
	s.results = make(map[int64]*model.DetectionResult)
	return nil
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) apiResponse {
	t.Helper()
	var resp apiResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestViolationCategoriesHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	ViolationCategoriesHandler()(rec, httptest.NewRequest(http.MethodGet, "/api/v1/detection/violation/categories", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeEnvelope(t, rec)
	assert.True(t, resp.Success)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, float64(13), data["total_count"])
	assert.Len(t, data["categories"], 13)
}

func TestListResultsHandler(t *testing.T) {
	repo := newStubRepo()
	for i := 0; i < 3; i++ {
		_, err := repo.Insert(&model.DetectionResult{ImagePath: "a.jpg", Status: model.StatusDetected})
		require.NoError(t, err)
	}

	rec := httptest.NewRecorder()
	ListResultsHandler(repo, logger.NewDiscard())(rec, httptest.NewRequest(http.MethodGet, "/api/v1/results?page=1&limit=10", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var page resultsPage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, 3, page.Length)
	assert.Equal(t, 1, page.TotalPages)
	assert.Len(t, page.Results, 3)
}

func TestGetResultHandler(t *testing.T) {
	repo := newStubRepo()
	_, err := repo.Insert(&model.DetectionResult{ImagePath: "a.jpg", Status: model.StatusDetected})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	GetResultHandler(repo, logger.NewDiscard())(rec, httptest.NewRequest(http.MethodGet, "/api/v1/results/get?id=1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	GetResultHandler(repo, logger.NewDiscard())(rec, httptest.NewRequest(http.MethodGet, "/api/v1/results/get?id=999", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	GetResultHandler(repo, logger.NewDiscard())(rec, httptest.NewRequest(http.MethodGet, "/api/v1/results/get", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateResultStatusHandler(t *testing.T) {
	repo := newStubRepo()
	id, err := repo.Insert(&model.DetectionResult{ImagePath: "a.jpg", Status: model.StatusDetected})
	require.NoError(t, err)

	body, _ := json.Marshal(statusUpdateRequest{ID: id, Status: model.StatusConfirmed})
	rec := httptest.NewRecorder()
	UpdateResultStatusHandler(repo, logger.NewDiscard())(rec,
		httptest.NewRequest(http.MethodPost, "/api/v1/results/status", bytes.NewReader(body)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.StatusConfirmed, repo.results[id].Status)

	// unknown status values are rejected
	body, _ = json.Marshal(map[string]interface{}{"id": id, "status": "vaporized"})
	rec = httptest.NewRecorder()
	UpdateResultStatusHandler(repo, logger.NewDiscard())(rec,
		httptest.NewRequest(http.MethodPost, "/api/v1/results/status", bytes.NewReader(body)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// missing results are 404
	body, _ = json.Marshal(statusUpdateRequest{ID: 999, Status: model.StatusConfirmed})
	rec = httptest.NewRecorder()
	UpdateResultStatusHandler(repo, logger.NewDiscard())(rec,
		httptest.NewRequest(http.MethodPost, "/api/v1/results/status", bytes.NewReader(body)))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteResultHandler(t *testing.T) {
	repo := newStubRepo()
	_, err := repo.Insert(&model.DetectionResult{ImagePath: "a.jpg"})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	DeleteResultHandler(repo, logger.NewDiscard())(rec,
		httptest.NewRequest(http.MethodDelete, "/api/v1/results/delete?id=1", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, repo.results)

	rec = httptest.NewRecorder()
	DeleteResultHandler(repo, logger.NewDiscard())(rec,
		httptest.NewRequest(http.MethodDelete, "/api/v1/results/delete?id=1", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLegalAnalysisHandler(t *testing.T) {
	kb := legal.NewKnowledgeBase()
	handler := LegalAnalysisHandler(legal.RuleAnalyzer{}, kb)

	body := `{"description": "某小区楼顶发现大面积违章搭建", "image_signals": {"risk_score": 80, "structural_complexity": "high"}}`
	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, "/api/v1/legal/analyze/text", strings.NewReader(body)))

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeEnvelope(t, rec)
	require.True(t, resp.Success)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "illegal_construction", data["violation_type"])
	assert.Equal(t, "严重", data["severity_level"])
	assert.Equal(t, true, data["enhanced_by_knowledge_base"])
}

func TestLegalAnalysisHandler_BadInput(t *testing.T) {
	handler := LegalAnalysisHandler(legal.RuleAnalyzer{}, legal.NewKnowledgeBase())

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, "/api/v1/legal/analyze/text", strings.NewReader(`{"description": "  "}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/api/v1/legal/analyze/text", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRegulationSearchHandler(t *testing.T) {
	handler := RegulationSearchHandler(legal.NewKnowledgeBase())

	body := `{"keywords": ["规划"]}`
	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, "/api/v1/legal/search", strings.NewReader(body)))

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeEnvelope(t, rec)
	data := resp.Data.(map[string]interface{})
	assert.NotEmpty(t, data["regulations"])

	rec = httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, "/api/v1/legal/search", strings.NewReader(`{"keywords": []}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLegalSummaryHandler(t *testing.T) {
	handler := LegalSummaryHandler(legal.NewKnowledgeBase())

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/api/v1/legal/summary?violation_type=illegal_construction&severity=严重", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeEnvelope(t, rec)
	data := resp.Data.(map[string]interface{})

	advice := data["legal_advice"].(map[string]interface{})
	assert.Equal(t, float64(5), advice["enforcement_priority"])
	assert.NotEmpty(t, data["regulations"])

	rec = httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/api/v1/legal/summary", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLegalViolationTypesHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	LegalViolationTypesHandler(legal.NewKnowledgeBase())(rec,
		httptest.NewRequest(http.MethodGet, "/api/v1/legal/violation-types", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeEnvelope(t, rec)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, float64(13), data["total_count"])
}

func TestLLMStatusHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	LLMStatusHandler(nil, legal.LLMConfig{})(rec, httptest.NewRequest(http.MethodGet, "/api/v1/legal/llm/status", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeEnvelope(t, rec)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "rule", data["active_analyzer"])
	assert.Equal(t, false, data["llm_enabled"])
}

func TestParseDate(t *testing.T) {
	assert.True(t, parseDate("").IsZero())
	assert.True(t, parseDate("not-a-date").IsZero())
	assert.Equal(t, 2026, parseDate("2026-08-31").Year())
}

func TestAtoiDefault(t *testing.T) {
	assert.Equal(t, 7, atoiDefault("7", 1))
	assert.Equal(t, 1, atoiDefault("", 1))
	assert.Equal(t, 1, atoiDefault("-5", 1))
	assert.Equal(t, 1, atoiDefault("abc", 1))
}

// stubPipeline records the upload it was handed and returns a canned result.
type stubPipeline struct {
	result      *model.DetectionResult
	err         error
	gotFilename string
}

func (s *stubPipeline) ProcessImage(filename string, _ []byte, _ services.DetectOptions) (*model.DetectionResult, error) {
	s.gotFilename = filename
	return s.result, s.err
}

type stubImageAnalyzer struct {
	signals model.ImageSignals
	err     error
}

func (s *stubImageAnalyzer) Analyze([]byte) (model.ImageSignals, error) {
	return s.signals, s.err
}

func multipartBody(t *testing.T, field string, filenames []string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for _, name := range filenames {
		part, err := writer.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = part.Write([]byte("image-bytes"))
		require.NoError(t, err)
	}
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestComprehensiveAnalysisHandler(t *testing.T) {
	pipeline := &stubPipeline{result: &model.DetectionResult{
		ImageInfo:       &model.ImageInfo{Filename: "site.jpg"},
		TotalViolations: 1,
		Detections: []model.Detection{{
			ClassName:         "building",
			ViolationCategory: model.IllegalConstruction,
		}},
	}}
	images := &stubImageAnalyzer{signals: model.ImageSignals{
		RiskScore:            80,
		RiskLevel:            "高",
		StructuralComplexity: model.ComplexityHigh,
	}}
	handler := ComprehensiveAnalysisHandler(pipeline, images, legal.RuleAnalyzer{},
		legal.NewKnowledgeBase(), 1<<20, logger.NewDiscard())

	body, contentType := multipartBody(t, "file", []string{"site.jpg"},
		map[string]string{"violation_description": "空地上连夜搭建的两层铁皮棚"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/legal/analyze/comprehensive", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeEnvelope(t, rec)
	data := resp.Data.(map[string]interface{})

	// the measured signals, not the text-only defaults, drive the verdict
	legalAnalysis := data["legal_analysis"].(map[string]interface{})
	assert.Equal(t, "illegal_construction", legalAnalysis["violation_type"])
	assert.Equal(t, "严重", legalAnalysis["severity_level"])
	assert.Equal(t, float64(5), legalAnalysis["priority_score"])
	assert.Equal(t, true, legalAnalysis["enhanced_by_knowledge_base"])

	detection := data["violation_detection"].(map[string]interface{})
	assert.Equal(t, float64(1), detection["total_violations"])
	assert.Len(t, detection["detections"], 1)
	assert.Equal(t, "site.jpg", pipeline.gotFilename)
}

func TestComprehensiveAnalysisHandler_MissingDescription(t *testing.T) {
	handler := ComprehensiveAnalysisHandler(&stubPipeline{}, &stubImageAnalyzer{}, legal.RuleAnalyzer{},
		legal.NewKnowledgeBase(), 1<<20, logger.NewDiscard())

	body, contentType := multipartBody(t, "file", []string{"site.jpg"}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/legal/analyze/comprehensive", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDetectBatchHandler_TooManyFiles(t *testing.T) {
	handler := DetectBatchHandler(nil, 1<<20, 2, logger.NewDiscard())

	body, contentType := multipartBody(t, "files", []string{"a.jpg", "b.jpg", "c.jpg"}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/detection/detect/batch", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeEnvelope(t, rec)
	assert.Contains(t, resp.Message, "最多支持2个文件")
}
