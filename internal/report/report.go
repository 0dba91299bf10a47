// Package report 生成可下载的评估报告（PDF 与 Excel）
package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Dkijas/EMPA-CELA-sub000/internal/anatomy"
	"github.com/Dkijas/EMPA-CELA-sub000/internal/catalog"
	"github.com/Dkijas/EMPA-CELA-sub000/internal/domain"
	"github.com/Dkijas/EMPA-CELA-sub000/internal/scoring"
)

// Title 报告标题
const Title = "Escala EMPA-CELA - Informe de evaluación"

// Disclaimer 报告免责声明
const Disclaimer = "Este informe es una herramienta de apoyo a la valoración clínica y no sustituye " +
	"el juicio del profesional sanitario. La prioridad asignada debe revisarse en el contexto " +
	"global del paciente."

// AreaRow 解剖摘要表的一行
type AreaRow struct {
	Area             string
	Category         string
	Severity         string
	Evolution        string
	StartDate        string
	FunctionalImpact string
	Interventions    string
	Color            string
}

// Report 报告内容（与渲染格式无关）
type Report struct {
	AssessmentID    string
	Patient         domain.Patient
	Score           domain.ScoreResult
	TierLabel       string
	Areas           []AreaRow
	Chart           []byte // 可选 PNG
	GeneratedAt     time.Time
	OutOfRangeNotes string
}

var categoryLabels = map[domain.Category]string{
	domain.CategoryBulbar:          "Bulbar",
	domain.CategoryCervical:        "Cervical",
	domain.CategoryRespiratoria:    "Respiratoria",
	domain.CategoryMiembroSuperior: "Miembro superior",
	domain.CategoryMiembroInferior: "Miembro inferior",
	domain.CategoryOtra:            "Otra",
}

// CategoryLabel 分类显示名
func CategoryLabel(c domain.Category) string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

// Build 由评估和目录组装报告；目录中不存在的区域分类显示为 "-"
func Build(a *domain.Assessment, cat *catalog.Catalog, chart []byte, now time.Time) Report {
	r := Report{
		AssessmentID: a.ID,
		Patient:      a.Patient,
		Score:        a.Score,
		TierLabel:    scoring.TierLabel(a.Score.Tier),
		Chart:        chart,
		GeneratedAt:  now,
	}
	if a.Score.OutOfRange {
		r.OutOfRangeNotes = "La puntuación total (" + strconv.Itoa(a.Score.Total) +
			") está fuera del rango de la escala " + a.Score.Scheme +
			"; se asigna la prioridad de referencia y debe revisarse."
	}
	for _, sa := range a.Areas {
		category := "-"
		if area, ok := cat.Lookup(sa.Area); ok {
			category = CategoryLabel(area.Category)
		}
		r.Areas = append(r.Areas, AreaRow{
			Area:             sa.Area,
			Category:         category,
			Severity:         anatomy.SeverityVisual(sa.Severity).Label,
			Evolution:        anatomy.EvolutionLabel(sa.Evolution),
			StartDate:        sa.StartDate.String(),
			FunctionalImpact: sa.FunctionalImpact,
			Interventions:    strings.Join(sa.Interventions, ", "),
			Color:            anatomy.SeverityVisual(sa.Severity).Color,
		})
	}
	return r
}

// tierColor 分数框底色（1 = 红 … 5 = 绿）
func tierColor(tier int) string {
	switch tier {
	case 1:
		return "#e74c3c"
	case 2:
		return "#e67e22"
	case 3:
		return "#f1c40f"
	case 4:
		return "#2ecc71"
	case 5:
		return "#27ae60"
	}
	return "#95a5a6"
}

func hexRGB(s string) (int, int, int) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return 0, 0, 0
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, 0, 0
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff)
}

func fileStem(r Report) string {
	id := r.AssessmentID
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("empa-cela-%s-%s", r.GeneratedAt.Format("20060102"), id)
}

// FileName 下载文件名
func FileName(r Report, ext string) string {
	return fileStem(r) + "." + ext
}
