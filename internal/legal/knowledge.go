// Package legal holds the regulation knowledge base and the advisory
// analyzers built on top of it.
package legal

import (
	"strings"
	"time"

	"cityguard/internal/model"
)

// KnowledgeBase indexes the static regulation table by violation type. It is
// built once at startup and read-only afterwards, so it is safe to share
// across requests without locking.
type KnowledgeBase struct {
	regulations      map[string][]model.LegalRegulation
	groups           []string
	violationMapping map[model.ViolationCategory][]model.LegalRegulation
}

// NewKnowledgeBase builds the violation→regulation index from the built-in
// regulation database.
func NewKnowledgeBase() *KnowledgeBase {
	kb := &KnowledgeBase{
		regulations:      model.RegulationDatabase,
		groups:           model.RegulationGroups,
		violationMapping: make(map[model.ViolationCategory][]model.LegalRegulation),
	}

	for _, group := range kb.groups {
		for _, regulation := range kb.regulations[group] {
			for _, violationType := range regulation.ApplicableViolations {
				kb.violationMapping[violationType] = append(kb.violationMapping[violationType], regulation)
			}
		}
	}

	return kb
}

// RegulationsFor returns the regulations applicable to a violation type in
// registration order.
func (kb *KnowledgeBase) RegulationsFor(violationType model.ViolationCategory) []model.LegalRegulation {
	return kb.violationMapping[violationType]
}

// Advise derives a legal advice for a violation type and severity label.
// When no regulation covers the type it returns the generic placeholder
// advice with the lowest priority. Otherwise the penalty range and legal
// basis come from the first registered matching regulation.
func (kb *KnowledgeBase) Advise(violationType model.ViolationCategory, severity string) model.LegalAdvice {
	regulations := kb.RegulationsFor(violationType)

	if len(regulations) == 0 {
		return model.LegalAdvice{
			ViolationType:       violationType,
			SeverityLevel:       severity,
			ApplicableLaws:      []string{"相关法规待完善"},
			RecommendedActions:  []string{"建议咨询法律专家"},
			PenaltyRange:        "具体处罚标准参照地方法规",
			LegalBasis:          "相关法律法规",
			EnforcementPriority: 1,
		}
	}

	primary := regulations[0]
	laws := make([]string, 0, len(regulations))
	for _, reg := range regulations {
		laws = append(laws, reg.Title)
	}

	return model.LegalAdvice{
		ViolationType:  violationType,
		SeverityLevel:  severity,
		ApplicableLaws: laws,
		RecommendedActions: []string{
			"立即责令停止违法行为",
			"调查取证，收集相关材料",
			"按照法定程序进行处罚",
			"监督违法行为人整改落实",
		},
		PenaltyRange:        primary.PenaltyDescription,
		LegalBasis:          primary.Title + " " + primary.Content,
		EnforcementPriority: PriorityFor(severity),
	}
}

// PriorityFor maps a severity label to an enforcement priority. Both the
// Chinese advisory labels and the English enum values are accepted;
// unrecognized labels get the default priority 3.
func PriorityFor(severity string) int {
	switch severity {
	case "低", string(model.SeverityLow):
		return 1
	case "中", string(model.SeverityMedium):
		return 3
	case "高", string(model.SeverityHigh):
		return 4
	case "严重", string(model.SeverityCritical):
		return 5
	default:
		return 3
	}
}

// SeverityLabel converts the severity enum to the Chinese advisory label.
func SeverityLabel(severity model.ViolationSeverity) string {
	switch severity {
	case model.SeverityLow:
		return "低"
	case model.SeverityMedium:
		return "中"
	case model.SeverityHigh:
		return "高"
	case model.SeverityCritical:
		return "严重"
	default:
		return "中"
	}
}

// Search returns regulations matching any of the keywords by case-insensitive
// substring over title, content and keyword list. Results keep registration
// order and contain each regulation at most once.
func (kb *KnowledgeBase) Search(keywords []string) []model.LegalRegulation {
	var results []model.LegalRegulation

	for _, group := range kb.groups {
		for _, regulation := range kb.regulations[group] {
			searchText := strings.ToLower(regulation.Title + " " + regulation.Content + " " + strings.Join(regulation.Keywords, " "))
			for _, keyword := range keywords {
				if keyword == "" {
					continue
				}
				if strings.Contains(searchText, strings.ToLower(keyword)) {
					results = append(results, regulation)
					break
				}
			}
		}
	}

	return results
}

// EnforcementStatistics describes knowledge-base coverage.
type EnforcementStatistics struct {
	TotalRegulations      int            `json:"total_regulations"`
	CategoriesCount       int            `json:"categories_count"`
	ViolationTypeCoverage map[string]int `json:"violation_type_coverage"`
	LatestUpdate          string         `json:"latest_update"`
}

// Statistics reports how many regulations cover each violation type.
func (kb *KnowledgeBase) Statistics() EnforcementStatistics {
	total := 0
	for _, group := range kb.groups {
		total += len(kb.regulations[group])
	}

	coverage := make(map[string]int)
	for _, category := range model.AllCategories() {
		coverage[string(category)] = len(kb.RegulationsFor(category))
	}

	return EnforcementStatistics{
		TotalRegulations:      total,
		CategoriesCount:       len(kb.groups),
		ViolationTypeCoverage: coverage,
		LatestUpdate:          time.Now().Format(time.RFC3339),
	}
}
