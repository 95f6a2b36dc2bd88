package model

// ViolationCategory classifies a detected structure as one of the fixed
// building-violation types.
type ViolationCategory string

const (
	// Primary violation types
	IllegalConstruction   ViolationCategory = "illegal_construction"   // 违法建设
	UnauthorizedExtension ViolationCategory = "unauthorized_extension" // 未经批准扩建
	RooftopAddition       ViolationCategory = "rooftop_addition"       // 楼顶加建
	BalconyEnclosure      ViolationCategory = "balcony_enclosure"      // 阳台封闭
	TemporaryStructure    ViolationCategory = "temporary_structure"    // 临时建筑超期

	// Structure subtypes
	ShedStructure         ViolationCategory = "shed_structure"         // 违建棚屋
	ContainerHouse        ViolationCategory = "container_house"        // 集装箱房屋
	UnauthorizedWarehouse ViolationCategory = "unauthorized_warehouse" // 无证仓库
	IllegalFence          ViolationCategory = "illegal_fence"          // 违规围墙
	UnauthorizedParking   ViolationCategory = "unauthorized_parking"   // 违规停车棚

	// Commercial violations
	IllegalSignage         ViolationCategory = "illegal_signage"         // 违规广告牌
	UnauthorizedStorefront ViolationCategory = "unauthorized_storefront" // 违规门面房
	IllegalMarketStall     ViolationCategory = "illegal_market_stall"    // 违规市场摊位
)

// ViolationSeverity grades how serious a violation is.
type ViolationSeverity string

const (
	SeverityLow      ViolationSeverity = "low"      // 轻微违章
	SeverityMedium   ViolationSeverity = "medium"   // 一般违章
	SeverityHigh     ViolationSeverity = "high"     // 严重违章
	SeverityCritical ViolationSeverity = "critical" // 极严重违章
)

// ViolationStatus is the processing state of a detection result. Transitions
// are not validated; any status may follow any other.
type ViolationStatus string

const (
	StatusDetected      ViolationStatus = "detected"       // 已检测
	StatusConfirmed     ViolationStatus = "confirmed"      // 已确认
	StatusInProcessing  ViolationStatus = "in_processing"  // 处理中
	StatusRectified     ViolationStatus = "rectified"      // 已整改
	StatusDemolished    ViolationStatus = "demolished"     // 已拆除
	StatusPendingReview ViolationStatus = "pending_review" // 待复查
)

// CategoryInfo is the static reference entry for one violation category.
type CategoryInfo struct {
	Category        ViolationCategory `json:"category"`
	ChineseName     string            `json:"chinese_name"`
	Description     string            `json:"description"`
	SeverityLevel   ViolationSeverity `json:"severity_level"`
	TypicalFeatures []string          `json:"typical_features"`
	CommonLocations []string          `json:"common_locations"`
	LegalBasis      string            `json:"legal_basis"`
}

// categoryInfoTable holds the reference data for all 13 violation categories.
// Built once; read-only thereafter.
var categoryInfoTable = map[ViolationCategory]CategoryInfo{
	IllegalConstruction: {
		Category:        IllegalConstruction,
		ChineseName:     "违法建设",
		Description:     "未经规划许可或违反规划许可内容进行的建设活动",
		SeverityLevel:   SeverityHigh,
		TypicalFeatures: []string{"无规划许可", "超出批准范围", "改变建筑用途"},
		CommonLocations: []string{"城市边缘", "农村地区", "工业区"},
		LegalBasis:      "《城乡规划法》第六十四条",
	},
	UnauthorizedExtension: {
		Category:        UnauthorizedExtension,
		ChineseName:     "未经批准扩建",
		Description:     "在原有建筑基础上未经批准进行的扩建活动",
		SeverityLevel:   SeverityMedium,
		TypicalFeatures: []string{"原建筑扩大", "新增建筑面积", "改变原有结构"},
		CommonLocations: []string{"住宅区", "商业区", "厂房周边"},
		LegalBasis:      "《建筑法》第七条",
	},
	RooftopAddition: {
		Category:        RooftopAddition,
		ChineseName:     "楼顶加建",
		Description:     "在建筑物顶部未经批准加建的结构物",
		SeverityLevel:   SeverityHigh,
		TypicalFeatures: []string{"楼顶新建", "彩钢板房", "简易房屋"},
		CommonLocations: []string{"多层住宅", "商业楼宇", "办公建筑"},
		LegalBasis:      "《城乡规划法》第四十条",
	},
	BalconyEnclosure: {
		Category:        BalconyEnclosure,
		ChineseName:     "阳台封闭",
		Description:     "未经批准封闭原设计为开放式的阳台",
		SeverityLevel:   SeverityLow,
		TypicalFeatures: []string{"玻璃封窗", "增加面积", "改变外观"},
		CommonLocations: []string{"住宅小区", "公寓楼", "办公建筑"},
		LegalBasis:      "《物业管理条例》第五十三条",
	},
	TemporaryStructure: {
		Category:        TemporaryStructure,
		ChineseName:     "临时建筑超期",
		Description:     "超过批准使用期限仍在使用的临时建筑",
		SeverityLevel:   SeverityMedium,
		TypicalFeatures: []string{"超期使用", "临时变永久", "简易材料"},
		CommonLocations: []string{"建设工地", "市场周边", "空地"},
		LegalBasis:      "《城乡规划法》第四十五条",
	},
	ShedStructure: {
		Category:        ShedStructure,
		ChineseName:     "违建棚屋",
		Description:     "未经批准搭建的简易棚屋结构",
		SeverityLevel:   SeverityMedium,
		TypicalFeatures: []string{"简易材料", "临时搭建", "功能单一"},
		CommonLocations: []string{"城中村", "农贸市场", "工地周边"},
		LegalBasis:      "《城乡规划法》第六十四条",
	},
	ContainerHouse: {
		Category:        ContainerHouse,
		ChineseName:     "集装箱房屋",
		Description:     "未经批准使用集装箱改建的房屋",
		SeverityLevel:   SeverityMedium,
		TypicalFeatures: []string{"集装箱改造", "可移动", "标准化"},
		CommonLocations: []string{"工地", "临时办公", "商业区"},
		LegalBasis:      "《建筑法》第十三条",
	},
	UnauthorizedWarehouse: {
		Category:        UnauthorizedWarehouse,
		ChineseName:     "无证仓库",
		Description:     "未经规划和建设部门批准建设的仓库",
		SeverityLevel:   SeverityHigh,
		TypicalFeatures: []string{"大跨度结构", "存储功能", "无证经营"},
		CommonLocations: []string{"工业区", "物流园", "城乡结合部"},
		LegalBasis:      "《城乡规划法》第三十八条",
	},
	IllegalFence: {
		Category:        IllegalFence,
		ChineseName:     "违规围墙",
		Description:     "未经批准或超出规定高度的围墙",
		SeverityLevel:   SeverityLow,
		TypicalFeatures: []string{"超高围墙", "封闭通道", "影响通行"},
		CommonLocations: []string{"住宅区", "工厂", "学校"},
		LegalBasis:      "《城乡规划法》第四十一条",
	},
	UnauthorizedParking: {
		Category:        UnauthorizedParking,
		ChineseName:     "违规停车棚",
		Description:     "未经批准搭建的停车棚或车库",
		SeverityLevel:   SeverityLow,
		TypicalFeatures: []string{"遮雨功能", "钢结构", "占用空地"},
		CommonLocations: []string{"小区内", "路边", "空地"},
		LegalBasis:      "《物业管理条例》第五十三条",
	},
	IllegalSignage: {
		Category:        IllegalSignage,
		ChineseName:     "违规广告牌",
		Description:     "未经批准设置的大型广告牌或招牌",
		SeverityLevel:   SeverityMedium,
		TypicalFeatures: []string{"大型招牌", "影响市容", "安全隐患"},
		CommonLocations: []string{"商业街", "主干道", "建筑外墙"},
		LegalBasis:      "《广告法》第四十二条",
	},
	UnauthorizedStorefront: {
		Category:        UnauthorizedStorefront,
		ChineseName:     "违规门面房",
		Description:     "未经批准改建或扩建的商业门面",
		SeverityLevel:   SeverityMedium,
		TypicalFeatures: []string{"改变用途", "外扩经营", "占道经营"},
		CommonLocations: []string{"商业街", "住宅底层", "市场周边"},
		LegalBasis:      "《城乡规划法》第四十条",
	},
	IllegalMarketStall: {
		Category:        IllegalMarketStall,
		ChineseName:     "违规市场摊位",
		Description:     "未经批准搭建的市场摊位或售货亭",
		SeverityLevel:   SeverityLow,
		TypicalFeatures: []string{"临时摊位", "占用公共空间", "简易结构"},
		CommonLocations: []string{"市场内", "街道旁", "广场"},
		LegalBasis:      "《城市市容和环境卫生管理条例》"},
}

// GetCategoryInfo returns the reference entry for a category, or false when
// the category is unknown.
func GetCategoryInfo(category ViolationCategory) (CategoryInfo, bool) {
	info, ok := categoryInfoTable[category]
	return info, ok
}

// AllCategories returns every known violation category.
func AllCategories() []ViolationCategory {
	return []ViolationCategory{
		IllegalConstruction,
		UnauthorizedExtension,
		RooftopAddition,
		BalconyEnclosure,
		TemporaryStructure,
		ShedStructure,
		ContainerHouse,
		UnauthorizedWarehouse,
		IllegalFence,
		UnauthorizedParking,
		IllegalSignage,
		UnauthorizedStorefront,
		IllegalMarketStall,
	}
}

// SeverityColor maps a severity to the dashboard color code.
func SeverityColor(severity ViolationSeverity) string {
	switch severity {
	case SeverityLow:
		return "#28a745"
	case SeverityMedium:
		return "#ffc107"
	case SeverityHigh:
		return "#fd7e14"
	case SeverityCritical:
		return "#dc3545"
	default:
		return "#6c757d"
	}
}
