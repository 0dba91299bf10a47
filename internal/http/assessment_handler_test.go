package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Dkijas/EMPA-CELA-sub000/internal/anatomy"
	"github.com/Dkijas/EMPA-CELA-sub000/internal/catalog"
	"github.com/Dkijas/EMPA-CELA-sub000/internal/repository"
	"github.com/Dkijas/EMPA-CELA-sub000/internal/scoring"
	"github.com/Dkijas/EMPA-CELA-sub000/internal/service"
	"github.com/Dkijas/EMPA-CELA-sub000/internal/store"
)

func newTestRouter(t *testing.T) *Router {
	t.Helper()
	q, err := scoring.DefaultQuestionnaire()
	require.NoError(t, err)
	scheme, err := scoring.SchemeByName(scoring.DefaultScheme)
	require.NoError(t, err)
	scorer, err := scoring.NewScorer(q, scheme)
	require.NoError(t, err)

	svc := service.NewAssessmentService(service.Deps{
		Catalog:     catalog.MustDefault(),
		Scorer:      scorer,
		Selections:  store.NewSelectionStore(store.NewMemoryKV()),
		Assessments: repository.NewMemoryAssessmentsRepo(),
		History:     repository.NewMemoryProgressionRepo(),
		Logger:      zap.NewNop(),
		Now:         func() time.Time { return time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC) },
	})
	router := NewRouter(zap.NewNop())
	router.RegisterHealthRoutes(nil)
	router.RegisterAssessmentRoutes(NewAssessmentHandler(svc, zap.NewNop()))
	return router
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

type envelope struct {
	Code    int             `json:"code"`
	Type    string          `json:"type"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) envelope {
	t.Helper()
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var env envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	return env
}

func TestHealthz(t *testing.T) {
	r := newTestRouter(t)
	env := decode(t, do(t, r, http.MethodGet, "/healthz", ""))
	assert.Equal(t, ResultSuccess, env.Code)
}

func TestHealthz_Unhealthy(t *testing.T) {
	r := NewRouter(zap.NewNop())
	r.RegisterHealthRoutes(func() error { return errors.New("redis unreachable") })
	rr := do(t, r, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestCatalogAndQuestionnaire(t *testing.T) {
	r := newTestRouter(t)

	env := decode(t, do(t, r, http.MethodGet, "/empa/api/v1/catalog", ""))
	var areas []map[string]any
	require.NoError(t, json.Unmarshal(env.Result, &areas))
	assert.Len(t, areas, catalog.MustDefault().Len())

	env = decode(t, do(t, r, http.MethodGet, "/empa/api/v1/questionnaire", ""))
	var q service.QuestionnaireResponse
	require.NoError(t, json.Unmarshal(env.Result, &q))
	assert.Len(t, q.Groups, scoring.GroupCount)
	assert.Equal(t, 42, q.MaxTotal)
	assert.Equal(t, scoring.SchemeEMPA37, q.Scheme.Name)

	rr := do(t, r, http.MethodPost, "/empa/api/v1/catalog", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestScore(t *testing.T) {
	r := newTestRouter(t)

	env := decode(t, do(t, r, http.MethodPost, "/empa/api/v1/score", `{"selections":{"habla":3,"marcha":2,"desconocido":3}}`))
	require.Equal(t, ResultSuccess, env.Code)
	var res struct {
		Total int `json:"total"`
		Tier  int `json:"tier"`
	}
	require.NoError(t, json.Unmarshal(env.Result, &res))
	assert.Equal(t, 5, res.Total)
	assert.Equal(t, 5, res.Tier)

	env = decode(t, do(t, r, http.MethodPost, "/empa/api/v1/score", `{"selections":{"habla":9}}`))
	assert.Equal(t, ResultError, env.Code)

	env = decode(t, do(t, r, http.MethodPost, "/empa/api/v1/score", `{not json`))
	assert.Equal(t, ResultError, env.Code)
}

func TestHitTest(t *testing.T) {
	r := newTestRouter(t)
	env := decode(t, do(t, r, http.MethodPost, "/empa/api/v1/anatomy/hit-test", `{"x":50,"y":7}`))
	var res service.HitTestResponse
	require.NoError(t, json.Unmarshal(env.Result, &res))
	require.True(t, res.Hit)
	assert.Equal(t, "Lengua", res.Area.Name)
	assert.Equal(t, anatomy.StateFormOpenAdd, res.Mode)

	env = decode(t, do(t, r, http.MethodPost, "/empa/api/v1/patients/p-7/areas",
		`{"area":"Lengua","severity":"leve","evolution":"estable","startDate":"2026-04-01"}`))
	require.Equal(t, ResultSuccess, env.Code, env.Message)

	env = decode(t, do(t, r, http.MethodPost, "/empa/api/v1/anatomy/hit-test", `{"patientId":"p-7","x":50,"y":7}`))
	res = service.HitTestResponse{}
	require.NoError(t, json.Unmarshal(env.Result, &res))
	assert.Equal(t, anatomy.StateFormOpenEdit, res.Mode)
	require.NotNil(t, res.Form)
	assert.Equal(t, "leve", res.Form.Severity)
	assert.Equal(t, "2026-04-01", res.Form.StartDate)
}

func TestAreasLifecycle(t *testing.T) {
	r := newTestRouter(t)

	env := decode(t, do(t, r, http.MethodPost, "/empa/api/v1/patients/p-1/areas",
		`{"area":"Mano derecha","severity":"moderada","evolution":"empeoramiento","startDate":"2026-04-20","intervention":["ferula","ferula"," terapia ocupacional "]}`))
	require.Equal(t, ResultSuccess, env.Code, env.Message)
	var saved service.SaveAreaResponse
	require.NoError(t, json.Unmarshal(env.Result, &saved))
	assert.True(t, saved.Created)
	assert.Equal(t, []string{"ferula", "terapia ocupacional"}, saved.Area.Interventions)

	env = decode(t, do(t, r, http.MethodPost, "/empa/api/v1/patients/p-1/areas", `{"area":"Mano derecha","severity":"leve"}`))
	assert.Equal(t, ResultError, env.Code)

	env = decode(t, do(t, r, http.MethodGet, "/empa/api/v1/patients/p-1/areas", ""))
	var list service.AreasResponse
	require.NoError(t, json.Unmarshal(env.Result, &list))
	require.Len(t, list.Areas, 1)
	require.Len(t, list.Markers, 1)

	env = decode(t, do(t, r, http.MethodGet, "/empa/api/v1/patients/p-1/progression", ""))
	var points []map[string]any
	require.NoError(t, json.Unmarshal(env.Result, &points))
	require.Len(t, points, 1)
	assert.Equal(t, "2026-04-20", points[0]["date"])

	rr := do(t, r, http.MethodGet, "/empa/api/v1/patients/p-1/progression/chart.png", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))

	env = decode(t, do(t, r, http.MethodDelete, "/empa/api/v1/patients/p-1/areas/Mano%20derecha", ""))
	require.Equal(t, ResultSuccess, env.Code, env.Message)

	env = decode(t, do(t, r, http.MethodDelete, "/empa/api/v1/patients/p-1/areas/Mano%20derecha", ""))
	assert.Equal(t, ResultError, env.Code)
}

func TestProgressionChart_NoData(t *testing.T) {
	r := newTestRouter(t)
	env := decode(t, do(t, r, http.MethodGet, "/empa/api/v1/patients/p-9/progression/chart.png", ""))
	assert.Equal(t, ResultError, env.Code)
}

func TestAssessmentsAndReports(t *testing.T) {
	r := newTestRouter(t)

	env := decode(t, do(t, r, http.MethodPost, "/empa/api/v1/patients/p-1/assessments",
		`{"patient":{"name":"Lucía","documentId":"X1"},"selections":{"habla":3,"deglucion":3,"disnea":2}}`))
	require.Equal(t, ResultSuccess, env.Code, env.Message)
	var a struct {
		ID    string `json:"id"`
		Score struct {
			Total int `json:"total"`
		} `json:"score"`
	}
	require.NoError(t, json.Unmarshal(env.Result, &a))
	require.NotEmpty(t, a.ID)
	assert.Equal(t, 8, a.Score.Total)

	env = decode(t, do(t, r, http.MethodGet, "/empa/api/v1/patients/p-1/assessments?limit=5", ""))
	var listed struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Result, &listed))
	assert.Equal(t, 1, listed.Total)

	env = decode(t, do(t, r, http.MethodGet, "/empa/api/v1/assessments/"+a.ID, ""))
	assert.Equal(t, ResultSuccess, env.Code)

	rr := do(t, r, http.MethodGet, "/empa/api/v1/assessments/"+a.ID+"/report.pdf", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, service.ContentTypePDF, rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), ".pdf")
	assert.True(t, strings.HasPrefix(rr.Body.String(), "%PDF-"))

	rr = do(t, r, http.MethodGet, "/empa/api/v1/assessments/"+a.ID+"/report.xlsx", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, service.ContentTypeXLSX, rr.Header().Get("Content-Type"))

	env = decode(t, do(t, r, http.MethodGet, "/empa/api/v1/assessments/does-not-exist", ""))
	assert.Equal(t, ResultError, env.Code)
	assert.Equal(t, "Evaluación no encontrada", env.Message)

	rr = do(t, r, http.MethodGet, "/empa/api/v1/assessments/"+a.ID+"/report.doc", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestUnknownPatientRoute(t *testing.T) {
	r := newTestRouter(t)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/empa/api/v1/patients/p-1/unknown", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/empa/api/v1/patients/", "").Code)
}
