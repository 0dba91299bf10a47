package report

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const (
	summarySheet = "Resumen"
	areasSheet   = "Areas"
)

// AreasHeader 区域表表头
var AreasHeader = []string{
	"Área",
	"Categoría",
	"Severidad",
	"Evolución",
	"Fecha de inicio",
	"Impacto funcional",
	"Intervenciones",
}

// XLSX 生成两张表：Resumen（患者与分数）和 Areas（解剖摘要）
func XLSX(r Report) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(areasSheet); err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	summary := [][]any{
		{"Informe", Title},
		{"Generado", r.GeneratedAt.Format("2006-01-02 15:04")},
		{"Paciente", r.Patient.Name},
		{"Documento", r.Patient.DocumentID},
		{"Fecha de nacimiento", r.Patient.BirthDate.String()},
		{"Evaluador", r.Patient.Evaluator},
		{"Puntuación total", r.Score.Total},
		{"Prioridad", r.Score.Tier},
		{"Clasificación", r.TierLabel},
		{"Escala", r.Score.Scheme},
		{"Fuera de rango", r.Score.OutOfRange},
	}
	for i, rec := range r.Score.Recommendations {
		label := ""
		if i == 0 {
			label = "Recomendaciones"
		}
		summary = append(summary, []any{label, rec})
	}
	for i, row := range summary {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write summary row %d: %w", i+1, err)
		}
	}
	if err := f.SetCellStyle(summarySheet, "A1", fmt.Sprintf("A%d", len(summary)), headerStyle); err != nil {
		return nil, fmt.Errorf("failed to set summary style: %w", err)
	}
	if err := f.SetColWidth(summarySheet, "A", "A", 22); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(summarySheet, "B", "B", 70); err != nil {
		return nil, err
	}

	for col, h := range AreasHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(areasSheet, cell, h); err != nil {
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(areasSheet, cell, cell, headerStyle); err != nil {
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
	}
	for i, a := range r.Areas {
		row := []any{a.Area, a.Category, a.Severity, a.Evolution, a.StartDate, a.FunctionalImpact, a.Interventions}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(areasSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write area row %d: %w", i+2, err)
		}
	}
	for i, w := range []float64{20, 18, 12, 16, 14, 40, 40} {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(areasSheet, col, col, w); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}
