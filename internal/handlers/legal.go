package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"cityguard/internal/legal"
	"cityguard/internal/logger"
	"cityguard/internal/model"
	"cityguard/internal/services"
)

// detectionPipeline runs the full detection pipeline over one upload.
type detectionPipeline interface {
	ProcessImage(filename string, content []byte, opts services.DetectOptions) (*model.DetectionResult, error)
}

// imageAnalyzer measures the classical image signals of an upload.
type imageAnalyzer interface {
	Analyze(content []byte) (model.ImageSignals, error)
}

// defaultSignals are the image signals assumed when an advisory analysis is
// requested from text alone.
var defaultSignals = model.ImageSignals{
	RiskScore:            30,
	RiskLevel:            "中",
	StructuralComplexity: model.ComplexityMedium,
}

// legalAnalysisRequest is the body of a text-based advisory analysis call.
type legalAnalysisRequest struct {
	Description string              `json:"description"`
	Signals     *model.ImageSignals `json:"image_signals,omitempty"`
}

// LegalAnalysisHandler runs the advisory analyzer over a violation
// description and enhances the verdict with knowledge-base citations.
func LegalAnalysisHandler(analyzer legal.Analyzer, kb *legal.KnowledgeBase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		var req legalAnalysisRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Unreadable request body")
			return
		}
		if strings.TrimSpace(req.Description) == "" {
			writeError(w, http.StatusBadRequest, "description is required")
			return
		}

		signals := defaultSignals
		if req.Signals != nil {
			signals = *req.Signals
		}

		analysis := analyzer.Analyze(r.Context(), req.Description, signals)
		writeSuccess(w, "法律分析完成", kb.Enhance(analysis))
	}
}

// ComprehensiveAnalysisHandler chains the whole pipeline for one upload:
// store the image, measure its signals, run detection, then feed the
// signals and the operator's description into the advisory analyzer.
func ComprehensiveAnalysisHandler(pipeline detectionPipeline, images imageAnalyzer, analyzer legal.Analyzer,
	kb *legal.KnowledgeBase, maxUploadBytes int64, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		filename, content, err := readUpload(r, "file", maxUploadBytes)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Missing or unreadable file upload")
			return
		}
		description := strings.TrimSpace(r.FormValue("violation_description"))
		if description == "" {
			writeError(w, http.StatusBadRequest, "violation_description is required")
			return
		}

		signals, err := images.Analyze(content)
		if err != nil {
			logger.Error("Image analysis failed for %s: %v", filename, err)
			writeError(w, inputErrorStatus(err), err.Error())
			return
		}

		result, err := pipeline.ProcessImage(filename, content, detectOptionsFromForm(r))
		if err != nil {
			logger.Error("Detection failed for %s: %v", filename, err)
			writeError(w, inputErrorStatus(err), err.Error())
			return
		}

		detections := result.Detections
		if detections == nil {
			detections = []model.Detection{}
		}

		analysis := analyzer.Analyze(r.Context(), description, signals)

		writeSuccess(w, "综合法律分析完成", map[string]interface{}{
			"file_info":      result.ImageInfo,
			"image_analysis": signals,
			"violation_detection": map[string]interface{}{
				"total_violations": result.TotalViolations,
				"detections":       detections,
				"processing_time":  result.ProcessingTime,
			},
			"legal_analysis": kb.Enhance(analysis),
		})
	}
}

// regulationSearchRequest is the body of a keyword search call.
type regulationSearchRequest struct {
	Keywords []string `json:"keywords"`
}

// RegulationSearchHandler searches the regulation table by keywords. POST
// bodies carry a keyword list; GET passes them comma-separated in the query.
func RegulationSearchHandler(kb *legal.KnowledgeBase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var keywords []string
		if r.Method == http.MethodPost {
			var req regulationSearchRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, "Unreadable request body")
				return
			}
			keywords = req.Keywords
		} else {
			keywords = strings.FieldsFunc(r.URL.Query().Get("keywords"), func(r rune) bool {
				return r == ',' || r == ' '
			})
		}
		if len(keywords) == 0 {
			writeError(w, http.StatusBadRequest, "keywords are required")
			return
		}

		results := kb.Search(keywords)
		if results == nil {
			results = []model.LegalRegulation{}
		}

		writeSuccess(w, "法规检索完成", map[string]interface{}{
			"keywords":    keywords,
			"regulations": results,
			"total_count": len(results),
		})
	}
}

// LegalSummaryHandler returns the advice and applicable regulations for one
// violation type and severity.
func LegalSummaryHandler(kb *legal.KnowledgeBase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		violationType := model.ViolationCategory(q.Get("violation_type"))
		if violationType == "" {
			writeError(w, http.StatusBadRequest, "violation_type parameter is required")
			return
		}

		severity := q.Get("severity")
		if severity == "" {
			severity = "中"
		}

		regulations := kb.RegulationsFor(violationType)
		if regulations == nil {
			regulations = []model.LegalRegulation{}
		}
		info, _ := model.GetCategoryInfo(violationType)

		writeSuccess(w, "法律摘要获取成功", map[string]interface{}{
			"violation_type": violationType,
			"category_info":  info,
			"legal_advice":   kb.Advise(violationType, severity),
			"regulations":    regulations,
			"total_count":    len(regulations),
		})
	}
}

// violationTypeCoverage pairs a category with the regulations that cover it.
type violationTypeCoverage struct {
	Category        model.ViolationCategory `json:"category"`
	Info            model.CategoryInfo      `json:"info"`
	RegulationCount int                     `json:"regulation_count"`
}

// LegalViolationTypesHandler lists every violation type with its
// knowledge-base coverage.
func LegalViolationTypesHandler(kb *legal.KnowledgeBase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		types := make([]violationTypeCoverage, 0, len(model.AllCategories()))
		for _, category := range model.AllCategories() {
			info, _ := model.GetCategoryInfo(category)
			types = append(types, violationTypeCoverage{
				Category:        category,
				Info:            info,
				RegulationCount: len(kb.RegulationsFor(category)),
			})
		}
		writeSuccess(w, "违章类型获取成功", map[string]interface{}{
			"violation_types": types,
			"total_count":     len(types),
		})
	}
}

// KnowledgeBaseStatsHandler reports knowledge-base coverage.
func KnowledgeBaseStatsHandler(kb *legal.KnowledgeBase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeSuccess(w, "知识库统计获取成功", kb.Statistics())
	}
}

// llmStatus reports whether the remote analyzer is configured; requests fall
// to the deterministic rule analyzer otherwise.
type llmStatus struct {
	Enabled  bool   `json:"llm_enabled"`
	Model    string `json:"model_name,omitempty"`
	Analyzer string `json:"active_analyzer"`
}

// LLMStatusHandler reports which advisory analyzer handles requests.
func LLMStatusHandler(llm *legal.LLMAnalyzer, config legal.LLMConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := llmStatus{Analyzer: "rule"}
		if llm != nil && llm.Enabled() {
			status.Enabled = true
			status.Model = config.ModelName
			status.Analyzer = "llm"
		}
		writeSuccess(w, "分析器状态获取成功", status)
	}
}
