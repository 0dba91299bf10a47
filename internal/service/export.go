package service

import (
	"bytes"
	"context"
	"errors"

	"github.com/Dkijas/EMPA-CELA-sub000/internal/domain"
	"github.com/Dkijas/EMPA-CELA-sub000/internal/progression"
	"github.com/Dkijas/EMPA-CELA-sub000/internal/report"

	"go.uber.org/zap"
)

const (
	ContentTypePDF  = "application/pdf"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Export 可下载文件
type Export struct {
	FileName    string
	ContentType string
	Data        []byte
}

func (s *assessmentService) buildReport(ctx context.Context, id string, withChart bool) (report.Report, error) {
	a, err := s.GetAssessment(ctx, id)
	if err != nil {
		return report.Report{}, err
	}
	var chart []byte
	if withChart {
		chart = s.chartFor(ctx, a)
	}
	return report.Build(a, s.cat, chart, s.now().In(s.loc)), nil
}

// chartFor 图表失败时返回 nil，报告省略该部分
func (s *assessmentService) chartFor(ctx context.Context, a *domain.Assessment) []byte {
	history, err := s.Progression(ctx, a.PatientID)
	if err != nil {
		s.logger.Warn("load progression for report failed", zap.String("assessment_id", a.ID), zap.Error(err))
		history = nil
	}
	points := progression.Merge(history, progression.Aggregate(a.Areas, domain.NewDate(a.CreatedAt.In(s.loc))))

	var buf bytes.Buffer
	if err := progression.RenderChart(&buf, points, progression.ChartOptions{Title: "Progresión temporal"}); err != nil {
		if !errors.Is(err, progression.ErrNoData) {
			s.logger.Warn("render progression chart failed", zap.String("assessment_id", a.ID), zap.Error(err))
		}
		return nil
	}
	return buf.Bytes()
}

func (s *assessmentService) ExportPDF(ctx context.Context, id string) (*Export, error) {
	r, err := s.buildReport(ctx, id, true)
	if err != nil {
		return nil, err
	}
	data, err := report.PDF(r)
	if err != nil {
		return nil, err
	}
	return &Export{FileName: report.FileName(r, "pdf"), ContentType: ContentTypePDF, Data: data}, nil
}

func (s *assessmentService) ExportXLSX(ctx context.Context, id string) (*Export, error) {
	r, err := s.buildReport(ctx, id, false)
	if err != nil {
		return nil, err
	}
	data, err := report.XLSX(r)
	if err != nil {
		return nil, err
	}
	return &Export{FileName: report.FileName(r, "xlsx"), ContentType: ContentTypeXLSX, Data: data}, nil
}
