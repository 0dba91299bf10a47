package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Category 解剖区域分类
type Category string

const (
	CategoryBulbar          Category = "bulbar"
	CategoryCervical        Category = "cervical"
	CategoryRespiratoria    Category = "respiratoria"
	CategoryMiembroSuperior Category = "miembro_superior"
	CategoryMiembroInferior Category = "miembro_inferior"
	CategoryOtra            Category = "otra"
)

// Valid 是否为已知分类
func (c Category) Valid() bool {
	switch c {
	case CategoryBulbar, CategoryCervical, CategoryRespiratoria,
		CategoryMiembroSuperior, CategoryMiembroInferior, CategoryOtra:
		return true
	}
	return false
}

// Coordinates 归一化百分比坐标（0–100），Radius 也是百分比
type Coordinates struct {
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Radius float64 `json:"radius" yaml:"radius"`
}

// AnatomicalArea 目录中的解剖区域（加载后不可变）
type AnatomicalArea struct {
	Name        string      `json:"name" yaml:"name"`
	Category    Category    `json:"category" yaml:"category"`
	Coordinates Coordinates `json:"coordinates" yaml:"coordinates"`
	Description string      `json:"description" yaml:"description"`
}

// Severity 区域受累程度
type Severity string

const (
	SeverityNone     Severity = "no"
	SeverityLeve     Severity = "leve"
	SeverityModerado Severity = "moderado"
	SeveritySevero   Severity = "severo"
)

// fold 小写并去掉重音（NFD 后删除组合附加符号）
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return strings.ToLower(strings.TrimSpace(s))
	}
	return out
}

// ParseSeverity 解析严重度（忽略大小写与重音），兼容 "moderada" / "grave" 等写法
func ParseSeverity(s string) (Severity, error) {
	switch fold(s) {
	case "leve":
		return SeverityLeve, nil
	case "moderado", "moderada":
		return SeverityModerado, nil
	case "severo", "severa", "grave":
		return SeveritySevero, nil
	case "no", "ninguna", "ninguno":
		return SeverityNone, nil
	}
	return "", fmt.Errorf("unknown severity %q", s)
}

// Evolution 自上次评估以来的趋势
type Evolution string

const (
	EvolutionEstable       Evolution = "estable"
	EvolutionMejoria       Evolution = "mejoria"
	EvolutionEmpeoramiento Evolution = "empeoramiento"
)

// ParseEvolution 解析趋势（忽略大小写与重音）
func ParseEvolution(s string) (Evolution, error) {
	switch fold(s) {
	case "estable":
		return EvolutionEstable, nil
	case "mejoria":
		return EvolutionMejoria, nil
	case "empeoramiento":
		return EvolutionEmpeoramiento, nil
	}
	return "", fmt.Errorf("unknown evolution %q", s)
}

// DateLayout 日历日期格式
const DateLayout = "2006-01-02"

// Date 只保留日历日期的时间值，JSON 编码为 "YYYY-MM-DD"
type Date struct {
	time.Time
}

// NewDate 截断到当天 00:00 UTC
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate 解析 "YYYY-MM-DD"；空字符串返回零值
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// SelectedArea 用户为某个区域提交的临床属性（每个区域名最多一条）
type SelectedArea struct {
	Area             string    `json:"area"`
	Severity         Severity  `json:"severity"`
	Evolution        Evolution `json:"evolution"`
	StartDate        Date      `json:"startDate"`
	FunctionalImpact string    `json:"functionalImpact,omitempty"`
	Interventions    []string  `json:"intervention,omitempty"`
	UpdatedAt        time.Time `json:"updatedAt,omitempty"`
}

// NormalizeInterventions 去空白、去重并排序（集合语义）
func NormalizeInterventions(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil
	}
	sort.Strings(out)
	return out
}
