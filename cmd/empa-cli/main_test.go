package main

import (
	"bytes"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Dkijas/EMPA-CELA-sub000/internal/catalog"
	httpapi "github.com/Dkijas/EMPA-CELA-sub000/internal/http"
	"github.com/Dkijas/EMPA-CELA-sub000/internal/repository"
	"github.com/Dkijas/EMPA-CELA-sub000/internal/scoring"
	"github.com/Dkijas/EMPA-CELA-sub000/internal/service"
	"github.com/Dkijas/EMPA-CELA-sub000/internal/store"
)

func newTestServer(t *testing.T) (*httptest.Server, repository.AssessmentsRepository) {
	t.Helper()
	q, err := scoring.DefaultQuestionnaire()
	require.NoError(t, err)
	scheme, err := scoring.SchemeByName(scoring.DefaultScheme)
	require.NoError(t, err)
	scorer, err := scoring.NewScorer(q, scheme)
	require.NoError(t, err)

	assessments := repository.NewMemoryAssessmentsRepo()
	svc := service.NewAssessmentService(service.Deps{
		Catalog:     catalog.MustDefault(),
		Scorer:      scorer,
		Selections:  store.NewSelectionStore(store.NewMemoryKV()),
		Assessments: assessments,
		History:     repository.NewMemoryProgressionRepo(),
	})
	router := httpapi.NewRouter(zap.NewNop())
	router.RegisterAssessmentRoutes(httpapi.NewAssessmentHandler(svc, zap.NewNop()))
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, assessments
}

func run(t *testing.T, server string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--server", server}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestScoreCommand(t *testing.T) {
	srv, _ := newTestServer(t)

	out, err := run(t, srv.URL, "score", "--set", "habla=3,deglucion=3,marcha=2")
	require.NoError(t, err)
	assert.Contains(t, out, "Total: 8 (empa37)")

	_, err = run(t, srv.URL, "score", "--set", "habla=8")
	assert.Error(t, err)
}

func TestAreasCommands(t *testing.T) {
	srv, _ := newTestServer(t)

	out, err := run(t, srv.URL, "areas", "save", "p-1",
		"--area", "Tórax", "--severity", "moderado", "--evolution", "estable",
		"--start", "2026-03-03", "--intervention", "VMNI", "--intervention", "fisioterapia respiratoria")
	require.NoError(t, err)
	assert.Contains(t, out, "Area Tórax added")

	out, err = run(t, srv.URL, "areas", "list", "p-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Tórax")
	assert.Contains(t, out, "2026-03-03")

	_, err = run(t, srv.URL, "areas", "save", "p-1", "--area", "Tórax")
	assert.Error(t, err)

	out, err = run(t, srv.URL, "areas", "rm", "p-1", "Tórax")
	require.NoError(t, err)
	assert.Contains(t, out, "No areas selected")
}

func TestAssessAndReportCommands(t *testing.T) {
	srv, assessments := newTestServer(t)

	_, err := run(t, srv.URL, "assess", "p-2", "--set", "disnea=3", "--name", "Pilar", "--birth-date", "1970-01-02")
	require.NoError(t, err)

	items, err := assessments.ListByPatient(t.Context(), "p-2", 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "1970-01-02", items[0].Patient.BirthDate.String())

	path := filepath.Join(t.TempDir(), "report.xlsx")
	out, err := run(t, srv.URL, "report", items[0].ID, "--format", "xlsx", "--out", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("PK")))
}
