package anatomy

import (
	"errors"
	"testing"
	"time"

	"github.com/Dkijas/EMPA-CELA-sub000/internal/catalog"
	"github.com/Dkijas/EMPA-CELA-sub000/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 5, 10, 9, 30, 0, 0, time.UTC)

func newSession(t *testing.T, existing ...domain.SelectedArea) *Session {
	t.Helper()
	return NewSession(catalog.MustDefault(), existing, func() time.Time { return fixedNow })
}

func TestSession_AddFlow(t *testing.T) {
	s := newSession(t)
	assert.Equal(t, StateIdle, s.State())

	// Lengua: x=50 y=7
	require.Equal(t, StateAreaHovered, s.Hover(50, 7))
	assert.Equal(t, "Lengua", s.Hovered())

	form, err := s.Click()
	require.NoError(t, err)
	assert.Equal(t, StateFormOpenAdd, s.State())
	assert.Equal(t, "Lengua", form.Area)
	assert.Equal(t, "2024-05-10", form.StartDate)

	form.Severity = "moderada"
	form.Evolution = "empeoramiento"
	form.Interventions = []string{"logopedia", "logopedia"}
	sa, err := s.Submit(form)
	require.NoError(t, err)
	assert.Equal(t, domain.SeverityModerado, sa.Severity)
	assert.Equal(t, []string{"logopedia"}, sa.Interventions)
	assert.Equal(t, StateIdle, s.State())
	assert.Len(t, s.Areas(), 1)
}

func TestSession_EditReplacesWholesale(t *testing.T) {
	s := newSession(t, domain.SelectedArea{
		Area:             "Lengua",
		Severity:         domain.SeverityLeve,
		Evolution:        domain.EvolutionEstable,
		StartDate:        domain.NewDate(fixedNow.AddDate(0, -1, 0)),
		FunctionalImpact: "disartria leve",
	})

	s.Hover(50, 7)
	form, err := s.Click()
	require.NoError(t, err)
	assert.Equal(t, StateFormOpenEdit, s.State())
	assert.Equal(t, "leve", form.Severity)
	assert.Equal(t, "disartria leve", form.FunctionalImpact)

	form.Severity = "severo"
	form.FunctionalImpact = ""
	_, err = s.Submit(form)
	require.NoError(t, err)

	areas := s.Areas()
	require.Len(t, areas, 1)
	assert.Equal(t, domain.SeveritySevero, areas[0].Severity)
	assert.Empty(t, areas[0].FunctionalImpact)
}

func TestSession_SubmitRejectsIncompleteSilently(t *testing.T) {
	s := newSession(t)
	s.Hover(50, 7)
	form, err := s.Click()
	require.NoError(t, err)

	assert.False(t, form.CanSubmit())
	_, err = s.Submit(form)
	assert.True(t, errors.Is(err, ErrIncompleteForm))
	assert.Equal(t, StateFormOpenAdd, s.State(), "form stays open")

	form.Severity = "muy mal"
	form.Evolution = "estable"
	_, err = s.Submit(form)
	assert.True(t, errors.Is(err, ErrInvalidForm))

	form.Severity = "no"
	_, err = s.Submit(form)
	assert.True(t, errors.Is(err, ErrInvalidForm))
	assert.Empty(t, s.Areas())
}

func TestSession_CancelAndHoverWhileOpen(t *testing.T) {
	s := newSession(t)
	s.Hover(50, 7)
	_, err := s.Click()
	require.NoError(t, err)

	// 表单打开时悬停不改变状态
	assert.Equal(t, StateFormOpenAdd, s.Hover(0, 0))
	s.Cancel()
	assert.Equal(t, StateIdle, s.State())

	_, err = s.Click()
	assert.ErrorIs(t, err, ErrNoAreaHovered)
	_, err = s.Submit(Form{Area: "Lengua", Severity: "leve", Evolution: "estable"})
	assert.ErrorIs(t, err, ErrFormNotOpen)
}

func TestSession_HoverOutsideGoesIdle(t *testing.T) {
	s := newSession(t)
	s.Hover(50, 7)
	assert.Equal(t, StateIdle, s.Hover(2, 2))
	assert.Empty(t, s.Hovered())
}

func TestSession_OpenAndRemove(t *testing.T) {
	s := newSession(t)
	_, err := s.Open("Rodilla")
	assert.ErrorIs(t, err, catalog.ErrUnknownArea)

	form, err := s.Open("Diafragma")
	require.NoError(t, err)
	form.Severity, form.Evolution = "leve", "mejoria"
	_, err = s.Submit(form)
	require.NoError(t, err)

	assert.True(t, s.Remove("Diafragma"))
	assert.False(t, s.Remove("Diafragma"))
	assert.Empty(t, s.Areas())
}

func TestUpsert_IsIdempotent(t *testing.T) {
	sa := domain.SelectedArea{Area: "Cuello", Severity: domain.SeverityLeve, Evolution: domain.EvolutionEstable}
	var list []domain.SelectedArea
	for i := 0; i < 3; i++ {
		list = Upsert(list, sa)
	}
	assert.Len(t, list, 1)

	list = Upsert(list, domain.SelectedArea{Area: "Abdomen", Severity: domain.SeveritySevero})
	require.Len(t, list, 2)
	assert.Equal(t, "Abdomen", list[0].Area)
}

func TestDedupe_LastWins(t *testing.T) {
	out := Dedupe([]domain.SelectedArea{
		{Area: "Cuello", Severity: domain.SeverityLeve},
		{Area: "Cuello", Severity: domain.SeveritySevero},
	})
	require.Len(t, out, 1)
	assert.Equal(t, domain.SeveritySevero, out[0].Severity)
	assert.NotNil(t, Dedupe(nil))
}

func TestBuildSelectedArea_Errors(t *testing.T) {
	cat := catalog.MustDefault()
	_, err := BuildSelectedArea(cat, Form{Area: "Rodilla", Severity: "leve", Evolution: "estable"}, fixedNow)
	assert.ErrorIs(t, err, catalog.ErrUnknownArea)

	_, err = BuildSelectedArea(cat, Form{Area: "Cuello", Severity: "leve", Evolution: "estable", StartDate: "10/05/2024"}, fixedNow)
	assert.ErrorIs(t, err, ErrInvalidForm)

	sa, err := BuildSelectedArea(cat, Form{Area: " Cuello ", Severity: "leve", Evolution: "estable"}, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, "Cuello", sa.Area)
	assert.Equal(t, "2024-05-10", sa.StartDate.String())
}
