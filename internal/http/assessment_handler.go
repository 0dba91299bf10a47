package httpapi

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/Dkijas/EMPA-CELA-sub000/internal/anatomy"
	"github.com/Dkijas/EMPA-CELA-sub000/internal/catalog"
	"github.com/Dkijas/EMPA-CELA-sub000/internal/progression"
	"github.com/Dkijas/EMPA-CELA-sub000/internal/repository"
	"github.com/Dkijas/EMPA-CELA-sub000/internal/scoring"
	"github.com/Dkijas/EMPA-CELA-sub000/internal/service"
	"github.com/Dkijas/EMPA-CELA-sub000/internal/store"

	"go.uber.org/zap"
)

// AssessmentHandler EMPA-CELA 评估 Handler
type AssessmentHandler struct {
	svc    service.AssessmentService
	logger *zap.Logger
}

// NewAssessmentHandler 创建 AssessmentHandler
func NewAssessmentHandler(svc service.AssessmentService, logger *zap.Logger) *AssessmentHandler {
	return &AssessmentHandler{svc: svc, logger: logger}
}

// ScoreRequest POST /score
type ScoreRequest struct {
	Selections map[string]int `json:"selections"`
}

// HitTestRequest POST /anatomy/hit-test；PatientID 可选
type HitTestRequest struct {
	PatientID string  `json:"patientId"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
}

// userMessage 面向用户的错误文字（前端直接弹窗显示）
func userMessage(err error) string {
	switch {
	case errors.Is(err, anatomy.ErrIncompleteForm):
		return "Complete la severidad y la evolución del área"
	case errors.Is(err, anatomy.ErrInvalidForm):
		return "Datos del área no válidos: " + err.Error()
	case errors.Is(err, catalog.ErrUnknownArea):
		return "Área anatómica desconocida"
	case errors.Is(err, scoring.ErrInvalidOption):
		return "Opción de cuestionario no válida: " + err.Error()
	case errors.Is(err, store.ErrNotFound):
		return "El área no está seleccionada"
	case errors.Is(err, repository.ErrNotFound):
		return "Evaluación no encontrada"
	case errors.Is(err, progression.ErrNoData):
		return "No hay datos de progresión"
	case errors.Is(err, service.ErrPatientRequired):
		return "Falta el identificador del paciente"
	}
	return "Error interno, inténtelo de nuevo"
}

func isClientError(err error) bool {
	return errors.Is(err, anatomy.ErrIncompleteForm) ||
		errors.Is(err, anatomy.ErrInvalidForm) ||
		errors.Is(err, catalog.ErrUnknownArea) ||
		errors.Is(err, scoring.ErrInvalidOption) ||
		errors.Is(err, store.ErrNotFound) ||
		errors.Is(err, repository.ErrNotFound) ||
		errors.Is(err, progression.ErrNoData) ||
		errors.Is(err, service.ErrPatientRequired)
}

// fail 记录日志并返回 Fail 包
func (h *AssessmentHandler) fail(w http.ResponseWriter, op string, err error, fields ...zap.Field) {
	fields = append(fields, zap.Error(err))
	if isClientError(err) {
		h.logger.Info(op+" rejected", fields...)
	} else {
		h.logger.Error(op+" failed", fields...)
	}
	writeJSON(w, http.StatusOK, Fail(userMessage(err)))
}

// GetCatalog GET /empa/api/v1/catalog
func (h *AssessmentHandler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Ok(h.svc.Catalog()))
}

// GetQuestionnaire GET /empa/api/v1/questionnaire
func (h *AssessmentHandler) GetQuestionnaire(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Ok(h.svc.Questionnaire()))
}

// Score POST /empa/api/v1/score
func (h *AssessmentHandler) Score(w http.ResponseWriter, r *http.Request) {
	var req ScoreRequest
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	res, err := h.svc.Score(r.Context(), req.Selections)
	if err != nil {
		h.fail(w, "Score", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(res))
}

// HitTest POST /empa/api/v1/anatomy/hit-test
func (h *AssessmentHandler) HitTest(w http.ResponseWriter, r *http.Request) {
	var req HitTestRequest
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	res, err := h.svc.HitTest(r.Context(), req.PatientID, req.X, req.Y)
	if err != nil {
		h.fail(w, "HitTest", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(res))
}

// ServePatients 路由 /empa/api/v1/patients/{id}/...
func (h *AssessmentHandler) ServePatients(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, apiPrefix+"/patients/"), "/")
	parts := strings.Split(rest, "/")
	if len(parts) < 2 || parts[0] == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	patientID := parts[0]

	switch {
	case parts[1] == "areas" && len(parts) == 2:
		switch r.Method {
		case http.MethodGet:
			h.ListAreas(w, r, patientID)
		case http.MethodPost, http.MethodPut:
			h.SaveArea(w, r, patientID)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	case parts[1] == "areas" && len(parts) == 3:
		if r.Method != http.MethodDelete {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.RemoveArea(w, r, patientID, parts[2])
	case parts[1] == "progression" && len(parts) == 2:
		method(http.MethodGet, func(w http.ResponseWriter, r *http.Request) { h.GetProgression(w, r, patientID) })(w, r)
	case parts[1] == "progression" && len(parts) == 3 && parts[2] == "chart.png":
		method(http.MethodGet, func(w http.ResponseWriter, r *http.Request) { h.GetProgressionChart(w, r, patientID) })(w, r)
	case parts[1] == "assessments" && len(parts) == 2:
		switch r.Method {
		case http.MethodGet:
			h.ListAssessments(w, r, patientID)
		case http.MethodPost:
			h.SaveAssessment(w, r, patientID)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// ListAreas GET /patients/{id}/areas
func (h *AssessmentHandler) ListAreas(w http.ResponseWriter, r *http.Request, patientID string) {
	resp, err := h.svc.ListAreas(r.Context(), patientID)
	if err != nil {
		h.fail(w, "ListAreas", err, zap.String("patient_id", patientID))
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

// SaveArea POST /patients/{id}/areas（新增或编辑，按区域名幂等）
func (h *AssessmentHandler) SaveArea(w http.ResponseWriter, r *http.Request, patientID string) {
	var form anatomy.Form
	if err := readBodyJSON(r, maxBodyBytes, &form); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	resp, err := h.svc.SaveArea(r.Context(), patientID, form)
	if err != nil {
		h.fail(w, "SaveArea", err, zap.String("patient_id", patientID), zap.String("area", form.Area))
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

// RemoveArea DELETE /patients/{id}/areas/{name}
func (h *AssessmentHandler) RemoveArea(w http.ResponseWriter, r *http.Request, patientID, area string) {
	resp, err := h.svc.RemoveArea(r.Context(), patientID, area)
	if err != nil {
		h.fail(w, "RemoveArea", err, zap.String("patient_id", patientID), zap.String("area", area))
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

// GetProgression GET /patients/{id}/progression
func (h *AssessmentHandler) GetProgression(w http.ResponseWriter, r *http.Request, patientID string) {
	points, err := h.svc.Progression(r.Context(), patientID)
	if err != nil {
		h.fail(w, "GetProgression", err, zap.String("patient_id", patientID))
		return
	}
	writeJSON(w, http.StatusOK, Ok(points))
}

// GetProgressionChart GET /patients/{id}/progression/chart.png
func (h *AssessmentHandler) GetProgressionChart(w http.ResponseWriter, r *http.Request, patientID string) {
	var buf bytes.Buffer
	if err := h.svc.ProgressionChart(r.Context(), patientID, &buf); err != nil {
		h.fail(w, "GetProgressionChart", err, zap.String("patient_id", patientID))
		return
	}
	writeFile(w, "image/png", "", buf.Bytes())
}

// SaveAssessment POST /patients/{id}/assessments
func (h *AssessmentHandler) SaveAssessment(w http.ResponseWriter, r *http.Request, patientID string) {
	var req service.SaveAssessmentRequest
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	req.PatientID = patientID
	a, err := h.svc.SaveAssessment(r.Context(), req)
	if err != nil {
		h.fail(w, "SaveAssessment", err, zap.String("patient_id", patientID))
		return
	}
	writeJSON(w, http.StatusOK, Ok(a))
}

// ListAssessments GET /patients/{id}/assessments?limit=20
func (h *AssessmentHandler) ListAssessments(w http.ResponseWriter, r *http.Request, patientID string) {
	limit := parseInt(r.URL.Query().Get("limit"), 0)
	items, err := h.svc.ListAssessments(r.Context(), patientID, limit)
	if err != nil {
		h.fail(w, "ListAssessments", err, zap.String("patient_id", patientID))
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"items": items, "total": len(items)}))
}

// ServeAssessments 路由 /empa/api/v1/assessments/{id}[/report.pdf|/report.xlsx]
func (h *AssessmentHandler) ServeAssessments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, apiPrefix+"/assessments/"), "/")
	parts := strings.Split(rest, "/")
	if parts[0] == "" || len(parts) > 2 {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	id := parts[0]
	if len(parts) == 1 {
		h.GetAssessment(w, r, id)
		return
	}
	switch parts[1] {
	case "report.pdf":
		h.export(w, r, id, h.svc.ExportPDF)
	case "report.xlsx":
		h.export(w, r, id, h.svc.ExportXLSX)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// GetAssessment GET /assessments/{id}
func (h *AssessmentHandler) GetAssessment(w http.ResponseWriter, r *http.Request, id string) {
	a, err := h.svc.GetAssessment(r.Context(), id)
	if err != nil {
		h.fail(w, "GetAssessment", err, zap.String("assessment_id", id))
		return
	}
	writeJSON(w, http.StatusOK, Ok(a))
}

// export GET /assessments/{id}/report.pdf|report.xlsx
func (h *AssessmentHandler) export(w http.ResponseWriter, r *http.Request, id string, fn func(context.Context, string) (*service.Export, error)) {
	f, err := fn(r.Context(), id)
	if err != nil {
		h.fail(w, "Export", err, zap.String("assessment_id", id), zap.String("path", r.URL.Path))
		return
	}
	writeFile(w, f.ContentType, f.FileName, f.Data)
}
