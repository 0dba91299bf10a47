package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Dkijas/EMPA-CELA-sub000/internal/anatomy"
	"github.com/Dkijas/EMPA-CELA-sub000/internal/catalog"
	"github.com/Dkijas/EMPA-CELA-sub000/internal/domain"
	"github.com/Dkijas/EMPA-CELA-sub000/internal/events"
	"github.com/Dkijas/EMPA-CELA-sub000/internal/progression"
	"github.com/Dkijas/EMPA-CELA-sub000/internal/repository"
	"github.com/Dkijas/EMPA-CELA-sub000/internal/scoring"
	"github.com/Dkijas/EMPA-CELA-sub000/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrPatientRequired 缺少患者 ID
var ErrPatientRequired = errors.New("patient id is required")

// AssessmentService 评估服务接口
type AssessmentService interface {
	// Catalog 解剖区域目录
	Catalog() []domain.AnatomicalArea
	// Questionnaire 问卷定义与当前分层方案
	Questionnaire() QuestionnaireResponse
	// Score 计分（不保存）
	Score(ctx context.Context, selections map[string]int) (*domain.ScoreResult, error)
	// HitTest 坐标命中测试；patientID 非空时按其已选区域决定表单是新增还是编辑
	HitTest(ctx context.Context, patientID string, x, y float64) (*HitTestResponse, error)

	ListAreas(ctx context.Context, patientID string) (*AreasResponse, error)
	SaveArea(ctx context.Context, patientID string, form anatomy.Form) (*SaveAreaResponse, error)
	RemoveArea(ctx context.Context, patientID, area string) (*AreasResponse, error)

	Progression(ctx context.Context, patientID string) ([]domain.ProgressionPoint, error)
	ProgressionChart(ctx context.Context, patientID string, w io.Writer) error

	SaveAssessment(ctx context.Context, req SaveAssessmentRequest) (*domain.Assessment, error)
	GetAssessment(ctx context.Context, id string) (*domain.Assessment, error)
	ListAssessments(ctx context.Context, patientID string, limit int) ([]*domain.Assessment, error)

	ExportPDF(ctx context.Context, id string) (*Export, error)
	ExportXLSX(ctx context.Context, id string) (*Export, error)
}

// Deps 服务依赖；Now/Location 为空时使用 time.Now / UTC
type Deps struct {
	Catalog     *catalog.Catalog
	Scorer      *scoring.Scorer
	Selections  *store.SelectionStore
	Assessments repository.AssessmentsRepository
	History     repository.ProgressionRepository
	Publisher   events.Publisher
	Logger      *zap.Logger
	Now         func() time.Time
	Location    *time.Location
}

type assessmentService struct {
	cat         *catalog.Catalog
	scorer      *scoring.Scorer
	selections  *store.SelectionStore
	assessments repository.AssessmentsRepository
	history     repository.ProgressionRepository
	publisher   events.Publisher
	logger      *zap.Logger
	now         func() time.Time
	loc         *time.Location
}

// NewAssessmentService 创建评估服务
func NewAssessmentService(d Deps) AssessmentService {
	s := &assessmentService{
		cat:         d.Catalog,
		scorer:      d.Scorer,
		selections:  d.Selections,
		assessments: d.Assessments,
		history:     d.History,
		publisher:   d.Publisher,
		logger:      d.Logger,
		now:         d.Now,
		loc:         d.Location,
	}
	if s.publisher == nil {
		s.publisher = events.Nop{}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	return s
}

// QuestionnaireResponse 问卷 + 方案
type QuestionnaireResponse struct {
	Groups   []scoring.Group `json:"groups"`
	MaxTotal int             `json:"maxTotal"`
	Scheme   scoring.Scheme  `json:"scheme"`
}

// HitTestResponse 命中测试结果；X/Y 为钳制后的坐标。
// 命中时 Mode 为 form-open-add 或 form-open-edit，Form 为预填表单；未命中时 Mode 为 idle
type HitTestResponse struct {
	X    float64                `json:"x"`
	Y    float64                `json:"y"`
	Hit  bool                   `json:"hit"`
	Area *domain.AnatomicalArea `json:"area,omitempty"`
	Mode anatomy.State          `json:"mode"`
	Form *anatomy.Form          `json:"form,omitempty"`
}

// AreasResponse 患者已选区域与标记
type AreasResponse struct {
	PatientID string                `json:"patientId"`
	Areas     []domain.SelectedArea `json:"areas"`
	Markers   []anatomy.Marker      `json:"markers"`
	Unknown   []string              `json:"unknown,omitempty"`
}

// SaveAreaResponse 保存结果；Created 表示新增（而非编辑）
type SaveAreaResponse struct {
	AreasResponse
	Area    domain.SelectedArea `json:"area"`
	Created bool                `json:"created"`
}

// SaveAssessmentRequest 保存评估请求；Areas 为空时使用当前已选区域
type SaveAssessmentRequest struct {
	PatientID  string                `json:"-"`
	Patient    domain.Patient        `json:"patient"`
	Selections map[string]int        `json:"selections"`
	Areas      []domain.SelectedArea `json:"areas,omitempty"`
}

func (s *assessmentService) today() domain.Date {
	return domain.NewDate(s.now().In(s.loc))
}

func (s *assessmentService) Catalog() []domain.AnatomicalArea {
	return s.cat.All()
}

func (s *assessmentService) Questionnaire() QuestionnaireResponse {
	q := s.scorer.Questionnaire()
	return QuestionnaireResponse{Groups: q.Groups, MaxTotal: q.MaxTotal(), Scheme: s.scorer.Scheme()}
}

func (s *assessmentService) Score(_ context.Context, selections map[string]int) (*domain.ScoreResult, error) {
	res, err := s.scorer.Score(selections)
	if err != nil {
		return nil, err
	}
	if res.OutOfRange {
		s.logger.Warn("score outside tier table",
			zap.Int("total", res.Total),
			zap.String("scheme", res.Scheme),
			zap.Int("tier", res.Tier),
		)
	}
	return &res, nil
}

func (s *assessmentService) HitTest(ctx context.Context, patientID string, x, y float64) (*HitTestResponse, error) {
	var existing []domain.SelectedArea
	if strings.TrimSpace(patientID) != "" {
		list, err := s.selections.List(ctx, patientID)
		if err != nil {
			return nil, err
		}
		existing = list
	}

	sess := anatomy.NewSession(s.cat, existing, func() time.Time { return s.now().In(s.loc) })
	resp := &HitTestResponse{X: catalog.Clamp(x), Y: catalog.Clamp(y)}
	if sess.Hover(x, y) != anatomy.StateAreaHovered {
		resp.Mode = sess.State()
		return resp, nil
	}
	form, err := sess.Click()
	if err != nil {
		return nil, err
	}
	if a, ok := s.cat.Lookup(sess.Hovered()); ok {
		resp.Area = &a
	}
	resp.Hit = true
	resp.Mode = sess.State()
	resp.Form = &form
	return resp, nil
}

func (s *assessmentService) areasResponse(patientID string, list []domain.SelectedArea) *AreasResponse {
	markers, unknown := anatomy.Markers(s.cat, list)
	if len(unknown) > 0 {
		s.logger.Warn("selected areas missing from catalog",
			zap.String("patient_id", patientID),
			zap.Strings("areas", unknown),
		)
	}
	return &AreasResponse{PatientID: patientID, Areas: list, Markers: markers, Unknown: unknown}
}

func (s *assessmentService) ListAreas(ctx context.Context, patientID string) (*AreasResponse, error) {
	if strings.TrimSpace(patientID) == "" {
		return nil, ErrPatientRequired
	}
	list, err := s.selections.List(ctx, patientID)
	if err != nil {
		return nil, err
	}
	return s.areasResponse(patientID, list), nil
}

func (s *assessmentService) SaveArea(ctx context.Context, patientID string, form anatomy.Form) (*SaveAreaResponse, error) {
	if strings.TrimSpace(patientID) == "" {
		return nil, ErrPatientRequired
	}
	sa, err := anatomy.BuildSelectedArea(s.cat, form, s.now().In(s.loc))
	if err != nil {
		return nil, err
	}

	list, prev, err := s.selections.Upsert(ctx, patientID, sa)
	if err != nil {
		return nil, err
	}
	s.recordPoint(ctx, patientID, list, sa.StartDate)
	// 编辑改了起始日期：旧日期的点按更新后的列表重算，已无区域时删除
	if prev != nil && !prev.StartDate.Equal(sa.StartDate.Time) {
		s.recordPoint(ctx, patientID, list, prev.StartDate)
	}
	_ = s.publisher.Publish(ctx, events.New(events.TypeAreaSaved, patientID, sa))

	return &SaveAreaResponse{
		AreasResponse: *s.areasResponse(patientID, list),
		Area:          sa,
		Created:       prev == nil,
	}, nil
}

func (s *assessmentService) RemoveArea(ctx context.Context, patientID, area string) (*AreasResponse, error) {
	if strings.TrimSpace(patientID) == "" {
		return nil, ErrPatientRequired
	}
	list, removed, err := s.selections.Delete(ctx, patientID, area)
	if err != nil {
		return nil, err
	}
	s.recordPoint(ctx, patientID, list, removed.StartDate)
	_ = s.publisher.Publish(ctx, events.New(events.TypeAreaRemoved, patientID, map[string]string{"area": area}))
	return s.areasResponse(patientID, list), nil
}

// recordPoint 进展历史写入失败只记录日志
func (s *assessmentService) recordPoint(ctx context.Context, patientID string, list []domain.SelectedArea, date domain.Date) {
	if s.history == nil {
		return
	}
	if _, err := progression.Record(ctx, s.history, patientID, list, date, s.today()); err != nil {
		s.logger.Warn("record progression point failed",
			zap.String("patient_id", patientID),
			zap.String("date", date.String()),
			zap.Error(err),
		)
	}
}

func (s *assessmentService) Progression(ctx context.Context, patientID string) ([]domain.ProgressionPoint, error) {
	if strings.TrimSpace(patientID) == "" {
		return nil, ErrPatientRequired
	}
	list, err := s.selections.List(ctx, patientID)
	if err != nil {
		return nil, err
	}
	current := progression.Aggregate(list, s.today())
	if s.history == nil {
		return current, nil
	}
	history, err := s.history.ListPoints(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("load progression history: %w", err)
	}
	return progression.Merge(history, current), nil
}

func (s *assessmentService) ProgressionChart(ctx context.Context, patientID string, w io.Writer) error {
	points, err := s.Progression(ctx, patientID)
	if err != nil {
		return err
	}
	return progression.RenderChart(w, points, progression.ChartOptions{Title: "Progresión temporal"})
}

func (s *assessmentService) SaveAssessment(ctx context.Context, req SaveAssessmentRequest) (*domain.Assessment, error) {
	if strings.TrimSpace(req.PatientID) == "" {
		return nil, ErrPatientRequired
	}
	res, err := s.Score(ctx, req.Selections)
	if err != nil {
		return nil, err
	}

	areas := anatomy.Dedupe(req.Areas)
	if len(req.Areas) == 0 {
		areas, err = s.selections.List(ctx, req.PatientID)
		if err != nil {
			return nil, err
		}
	}

	a := &domain.Assessment{
		ID:        uuid.NewString(),
		PatientID: req.PatientID,
		Patient:   req.Patient,
		Score:     *res,
		Areas:     areas,
		CreatedAt: s.now().UTC(),
	}
	if err := s.assessments.Save(ctx, a); err != nil {
		return nil, err
	}
	s.logger.Info("assessment saved",
		zap.String("assessment_id", a.ID),
		zap.String("patient_id", a.PatientID),
		zap.Int("total", a.Score.Total),
		zap.Int("tier", a.Score.Tier),
	)
	_ = s.publisher.Publish(ctx, events.New(events.TypeAssessmentScored, a.PatientID, map[string]any{
		"assessmentId": a.ID,
		"total":        a.Score.Total,
		"tier":         a.Score.Tier,
		"scheme":       a.Score.Scheme,
		"outOfRange":   a.Score.OutOfRange,
	}))
	return a, nil
}

func (s *assessmentService) GetAssessment(ctx context.Context, id string) (*domain.Assessment, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, repository.ErrNotFound
	}
	return s.assessments.Get(ctx, id)
}

func (s *assessmentService) ListAssessments(ctx context.Context, patientID string, limit int) ([]*domain.Assessment, error) {
	if strings.TrimSpace(patientID) == "" {
		return nil, ErrPatientRequired
	}
	return s.assessments.ListByPatient(ctx, patientID, limit)
}
