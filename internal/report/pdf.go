package report

import (
	"bytes"
	"fmt"
	"image/png"
	"io"
	"strconv"

	"github.com/go-pdf/fpdf"
)

const (
	pageMargin = 15.0
	lineHeight = 5.5
)

// WritePDF 固定版式：标题、免责声明、患者信息、分数框、建议、解剖摘要、进展图（可选）
func WritePDF(w io.Writer, r Report) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	pdf.SetTitle(Title, true)
	pdf.SetCreator("empa-cela", true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 2*pageMargin

	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentW, 10, tr(Title), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(contentW, 4, tr("Generado: "+r.GeneratedAt.Format("2006-01-02 15:04")), "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(90, 90, 90)
	pdf.MultiCell(contentW, 4, tr(Disclaimer), "1", "J", false)
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(4)

	section(pdf, tr, "Datos del paciente")
	field(pdf, tr, "Nombre", r.Patient.Name)
	field(pdf, tr, "Documento", r.Patient.DocumentID)
	field(pdf, tr, "Fecha de nacimiento", r.Patient.BirthDate.String())
	field(pdf, tr, "Evaluador", r.Patient.Evaluator)
	if r.Patient.Notes != "" {
		field(pdf, tr, "Observaciones", r.Patient.Notes)
	}
	pdf.Ln(3)

	scoreBox(pdf, tr, r, contentW)

	section(pdf, tr, "Recomendaciones")
	pdf.SetFont("Helvetica", "", 10)
	if len(r.Score.Recommendations) == 0 {
		pdf.MultiCell(contentW, lineHeight, tr("Sin recomendaciones asociadas."), "", "L", false)
	}
	for _, rec := range r.Score.Recommendations {
		pdf.MultiCell(contentW, lineHeight, tr("- "+rec), "", "L", false)
	}
	pdf.Ln(3)

	areasTable(pdf, tr, r.Areas, contentW)

	if len(r.Chart) > 0 {
		if cfg, err := png.DecodeConfig(bytes.NewReader(r.Chart)); err == nil && cfg.Width > 0 {
			section(pdf, tr, "Progresión temporal")
			pdf.RegisterImageOptionsReader("progression", fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(r.Chart))
			h := contentW * float64(cfg.Height) / float64(cfg.Width)
			pdf.ImageOptions("progression", pageMargin, pdf.GetY(), contentW, h, true, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
		}
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return pdf.Output(w)
}

func section(pdf *fpdf.Fpdf, tr func(string) string, title string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetTextColor(33, 66, 120)
	pdf.CellFormat(0, 7, tr(title), "B", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(1)
}

func field(pdf *fpdf.Fpdf, tr func(string) string, label, value string) {
	if value == "" {
		value = "-"
	}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(45, lineHeight, tr(label+":"), "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.MultiCell(0, lineHeight, tr(value), "", "L", false)
}

func scoreBox(pdf *fpdf.Fpdf, tr func(string) string, r Report, contentW float64) {
	red, green, blue := hexRGB(tierColor(r.Score.Tier))
	pdf.SetFillColor(red, green, blue)
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(contentW, 10, tr("Puntuación total: "+strconv.Itoa(r.Score.Total)), "1", 1, "C", true, 0, "")
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(contentW, 8, tr(r.TierLabel), "LRB", 1, "C", true, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(contentW, 5, tr("Escala de clasificación: "+r.Score.Scheme), "", 1, "R", false, 0, "")
	if r.OutOfRangeNotes != "" {
		pdf.SetTextColor(192, 57, 43)
		pdf.MultiCell(contentW, 4, tr(r.OutOfRangeNotes), "", "L", false)
		pdf.SetTextColor(0, 0, 0)
	}
	pdf.Ln(3)
}

var areaColumns = []struct {
	title string
	width float64 // 占内容宽度的比例
}{
	{"Área", 0.18},
	{"Categoría", 0.15},
	{"Severidad", 0.12},
	{"Evolución", 0.14},
	{"Inicio", 0.12},
	{"Impacto / Intervenciones", 0.29},
}

func areasTable(pdf *fpdf.Fpdf, tr func(string) string, rows []AreaRow, contentW float64) {
	section(pdf, tr, "Resumen anatómico")
	if len(rows) == 0 {
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(contentW, lineHeight, tr("No se han marcado áreas afectadas."), "", "L", false)
		pdf.Ln(3)
		return
	}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 243, 255)
	for _, c := range areaColumns {
		pdf.CellFormat(contentW*c.width, 6, tr(c.title), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 8)
	for _, row := range rows {
		impact := row.FunctionalImpact
		if row.Interventions != "" {
			if impact != "" {
				impact += " / "
			}
			impact += row.Interventions
		}
		cells := []string{row.Area, row.Category, row.Severity, row.Evolution, row.StartDate, impact}
		for i, c := range areaColumns {
			w := contentW * c.width
			text := fit(pdf, tr, cells[i], w-2)
			fill := false
			if i == 2 {
				red, green, blue := hexRGB(row.Color)
				pdf.SetFillColor(red, green, blue)
				fill = true
			}
			pdf.CellFormat(w, 6, text, "1", 0, "L", fill, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(3)
}

// fit 截断 UTF-8 文本使其编码后不超过宽度；按字符截断，只在最后编码一次
func fit(pdf *fpdf.Fpdf, tr func(string) string, s string, width float64) string {
	if pdf.GetStringWidth(tr(s)) <= width {
		return tr(s)
	}
	r := []rune(s)
	for len(r) > 0 && pdf.GetStringWidth(tr(string(r)+"...")) > width {
		r = r[:len(r)-1]
	}
	return tr(string(r) + "...")
}

// PDF 渲染为字节
func PDF(r Report) ([]byte, error) {
	var buf bytes.Buffer
	if err := WritePDF(&buf, r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
