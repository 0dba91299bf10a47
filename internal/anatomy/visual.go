package anatomy

import "github.com/Dkijas/EMPA-CELA-sub000/internal/domain"

// Visual 标记的样式
type Visual struct {
	Color string  `json:"color"`
	Size  float64 `json:"size"`
	Label string  `json:"label"`
}

var severityVisuals = map[domain.Severity]Visual{
	domain.SeverityNone:     {Color: "#95a5a6", Size: 1.0, Label: "Sin afectación"},
	domain.SeverityLeve:     {Color: "#f1c40f", Size: 1.0, Label: "Leve"},
	domain.SeverityModerado: {Color: "#e67e22", Size: 1.25, Label: "Moderado"},
	domain.SeveritySevero:   {Color: "#e74c3c", Size: 1.5, Label: "Severo"},
}

// SeverityVisual 严重度 → 颜色/尺寸；未知值按 "no" 处理
func SeverityVisual(s domain.Severity) Visual {
	if v, ok := severityVisuals[s]; ok {
		return v
	}
	return severityVisuals[domain.SeverityNone]
}

// SeverityPosition 进展图的纵向位置（百分比）：no=0, leve=25, moderado=50, severo=75
func SeverityPosition(s domain.Severity) float64 {
	switch s {
	case domain.SeverityLeve:
		return 25
	case domain.SeverityModerado:
		return 50
	case domain.SeveritySevero:
		return 75
	}
	return 0
}

// EvolutionLabel 趋势显示文字
func EvolutionLabel(e domain.Evolution) string {
	switch e {
	case domain.EvolutionEstable:
		return "Estable"
	case domain.EvolutionMejoria:
		return "Mejoría"
	case domain.EvolutionEmpeoramiento:
		return "Empeoramiento"
	}
	return ""
}
