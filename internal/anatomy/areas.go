package anatomy

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Dkijas/EMPA-CELA-sub000/internal/catalog"
	"github.com/Dkijas/EMPA-CELA-sub000/internal/domain"
)

var (
	// ErrIncompleteForm 必填字段为空（UI 上提交按钮不可用）
	ErrIncompleteForm = errors.New("area form is incomplete")
	// ErrInvalidForm 严重度/趋势/日期取值非法
	ErrInvalidForm = errors.New("area form is invalid")
)

// Form 区域详情表单（UI 提交的原始字符串）
type Form struct {
	Area             string   `json:"area"`
	Severity         string   `json:"severity"`
	Evolution        string   `json:"evolution"`
	StartDate        string   `json:"startDate"`
	FunctionalImpact string   `json:"functionalImpact"`
	Interventions    []string `json:"intervention"`
}

// CanSubmit 必填字段（区域、严重度、趋势）均非空
func (f Form) CanSubmit() bool {
	return strings.TrimSpace(f.Area) != "" &&
		strings.TrimSpace(f.Severity) != "" &&
		strings.TrimSpace(f.Evolution) != ""
}

// FormFor 由已有记录回填表单
func FormFor(sa domain.SelectedArea) Form {
	return Form{
		Area:             sa.Area,
		Severity:         string(sa.Severity),
		Evolution:        string(sa.Evolution),
		StartDate:        sa.StartDate.String(),
		FunctionalImpact: sa.FunctionalImpact,
		Interventions:    append([]string(nil), sa.Interventions...),
	}
}

// BuildSelectedArea 校验表单并生成记录；日期为空时取 now 的日期
func BuildSelectedArea(cat *catalog.Catalog, f Form, now time.Time) (domain.SelectedArea, error) {
	if !f.CanSubmit() {
		return domain.SelectedArea{}, ErrIncompleteForm
	}
	name := strings.TrimSpace(f.Area)
	if _, ok := cat.Lookup(name); !ok {
		return domain.SelectedArea{}, fmt.Errorf("%w: %s", catalog.ErrUnknownArea, name)
	}
	sev, err := domain.ParseSeverity(f.Severity)
	if err != nil || sev == domain.SeverityNone {
		return domain.SelectedArea{}, fmt.Errorf("%w: severity %q", ErrInvalidForm, f.Severity)
	}
	ev, err := domain.ParseEvolution(f.Evolution)
	if err != nil {
		return domain.SelectedArea{}, fmt.Errorf("%w: evolution %q", ErrInvalidForm, f.Evolution)
	}
	start, err := domain.ParseDate(f.StartDate)
	if err != nil {
		return domain.SelectedArea{}, fmt.Errorf("%w: %v", ErrInvalidForm, err)
	}
	if start.IsZero() {
		start = domain.NewDate(now)
	}
	return domain.SelectedArea{
		Area:             name,
		Severity:         sev,
		Evolution:        ev,
		StartDate:        start,
		FunctionalImpact: strings.TrimSpace(f.FunctionalImpact),
		Interventions:    domain.NormalizeInterventions(f.Interventions),
		UpdatedAt:        now.UTC(),
	}, nil
}

// Upsert 按区域名整体替换或追加，保证每个区域名至多一条，结果按区域名排序
func Upsert(list []domain.SelectedArea, sa domain.SelectedArea) []domain.SelectedArea {
	out := make([]domain.SelectedArea, 0, len(list)+1)
	for _, cur := range list {
		if cur.Area != sa.Area {
			out = append(out, cur)
		}
	}
	out = append(out, sa)
	SortAreas(out)
	return out
}

// Remove 删除指定区域；removed=false 表示不存在
func Remove(list []domain.SelectedArea, name string) (out []domain.SelectedArea, removed bool) {
	out = make([]domain.SelectedArea, 0, len(list))
	for _, cur := range list {
		if cur.Area == name {
			removed = true
			continue
		}
		out = append(out, cur)
	}
	return out, removed
}

// Dedupe 处理历史数据中的重复区域：后出现的记录覆盖先出现的
func Dedupe(list []domain.SelectedArea) []domain.SelectedArea {
	var out []domain.SelectedArea
	for _, sa := range list {
		out = Upsert(out, sa)
	}
	if out == nil {
		out = []domain.SelectedArea{}
	}
	return out
}

// SortAreas 按区域名排序
func SortAreas(list []domain.SelectedArea) {
	sort.SliceStable(list, func(i, j int) bool { return list[i].Area < list[j].Area })
}
