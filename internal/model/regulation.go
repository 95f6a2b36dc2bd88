package model

import "time"

// RegulationLevel is the jurisdiction level a regulation was issued at.
type RegulationLevel string

const (
	LevelNational   RegulationLevel = "国家法律法规"
	LevelProvincial RegulationLevel = "省级法规"
	LevelMunicipal  RegulationLevel = "市级法规"
	LevelLocal      RegulationLevel = "地方条例"
)

// LegalRegulation is one regulation text entry in the knowledge base.
type LegalRegulation struct {
	RegulationID         string              `json:"regulation_id"`
	Title                string              `json:"title"`
	Content              string              `json:"content"`
	Level                RegulationLevel     `json:"level"`
	EffectiveDate        time.Time           `json:"effective_date"`
	ApplicableViolations []ViolationCategory `json:"applicable_violations"`
	PenaltyDescription   string              `json:"penalty_description"`
	EnforcementProcedure string              `json:"enforcement_procedure"`
	Keywords             []string            `json:"keywords"`
}

// LegalAdvice is the derived recommendation for one violation type. It is
// computed on demand and never persisted.
type LegalAdvice struct {
	ViolationType       ViolationCategory `json:"violation_type"`
	SeverityLevel       string            `json:"severity_level"`
	ApplicableLaws      []string          `json:"applicable_laws"`
	RecommendedActions  []string          `json:"recommended_actions"`
	PenaltyRange        string            `json:"penalty_range"`
	LegalBasis          string            `json:"legal_basis"`
	EnforcementPriority int               `json:"enforcement_priority"`
}

// RegulationDatabase groups the built-in regulation texts. Registration order
// inside each group is the tie-break order used when several regulations apply
// to one violation type.
var RegulationDatabase = map[string][]LegalRegulation{
	"building_construction": {
		{
			RegulationID:         "UCL_001",
			Title:                "中华人民共和国城乡规划法",
			Content:              "第六十四条：未取得建设工程规划许可证或者未按照建设工程规划许可证的规定进行建设的，由县级以上地方人民政府城乡规划主管部门责令停止建设。",
			Level:                LevelNational,
			EffectiveDate:        time.Date(2008, 1, 1, 0, 0, 0, 0, time.UTC),
			ApplicableViolations: []ViolationCategory{IllegalConstruction},
			PenaltyDescription:   "责令停止建设；尚可采取改正措施消除对规划实施的影响的，限期改正，处建设工程造价百分之五以上百分之十以下的罚款；无法采取改正措施消除影响的，限期拆除，不能拆除的，没收实物或者违法收入，可以并处建设工程造价百分之十以下的罚款。",
			EnforcementProcedure: "发现→调查取证→责令停止→限期整改→执行处罚",
			Keywords:             []string{"建设工程规划许可证", "违法建设", "城乡规划"},
		},
		{
			RegulationID:         "UCL_002",
			Title:                "城市市容和环境卫生管理条例",
			Content:              "第三十六条：有下列行为之一的，由城市人民政府市容环境卫生行政主管部门或者其委托的单位责令停止违法行为，限期清理、拆除或者采取其他补救措施，并可处以罚款。",
			Level:                LevelNational,
			EffectiveDate:        time.Date(1992, 8, 1, 0, 0, 0, 0, time.UTC),
			ApplicableViolations: []ViolationCategory{TemporaryStructure, IllegalMarketStall},
			PenaltyDescription:   "责令停止违法行为，限期清理、拆除或者采取其他补救措施，并可处以罚款。",
			EnforcementProcedure: "发现违法→责令停止→限期整改→执行处罚",
			Keywords:             []string{"市容环境", "临时建筑", "违法搭建"},
		},
	},
	"parking_violations": {
		{
			RegulationID:         "TRF_001",
			Title:                "中华人民共和国道路交通安全法",
			Content:              "第五十六条：机动车应当在规定地点停放。禁止在人行道、车行道、无障碍通道上停放机动车；但是，停车场、停车泊位外及依法施划的临时停车泊位外，任何单位和个人不得设置固定或者可移动的障碍物阻止机动车停放。",
			Level:                LevelNational,
			EffectiveDate:        time.Date(2004, 5, 1, 0, 0, 0, 0, time.UTC),
			ApplicableViolations: []ViolationCategory{UnauthorizedParking},
			PenaltyDescription:   "由公安机关交通管理部门处二十元以上二百元以下罚款；情节严重的，处二百元以上二千元以下罚款。",
			EnforcementProcedure: "发现违法→拍照取证→告知处罚→执行处罚",
			Keywords:             []string{"机动车停放", "违法停车", "道路交通"},
		},
	},
	"commercial_violations": {
		{
			RegulationID:         "COM_001",
			Title:                "城市道路管理条例",
			Content:              "第二十七条：任何单位和个人不得擅自占用城市道路。因特殊需要临时占用城市道路的，须经市政工程行政主管部门和公安交通管理部门批准。",
			Level:                LevelNational,
			EffectiveDate:        time.Date(1996, 10, 1, 0, 0, 0, 0, time.UTC),
			ApplicableViolations: []ViolationCategory{IllegalMarketStall, UnauthorizedStorefront},
			PenaltyDescription:   "责令限期清除占用物，恢复城市道路原状，并可处以二万元以下的罚款。",
			EnforcementProcedure: "发现违法→调查核实→责令清除→执行处罚",
			Keywords:             []string{"占用道路", "临时占用", "摊点经营"},
		},
	},
}

// RegulationGroups lists the database group keys in a stable order.
var RegulationGroups = []string{"building_construction", "parking_violations", "commercial_violations"}
