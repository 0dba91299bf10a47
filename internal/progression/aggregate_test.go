package progression

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"testing"
	"time"

	"github.com/Dkijas/EMPA-CELA-sub000/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) domain.Date {
	return domain.NewDate(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

func TestAggregate_GroupsByDateAscending(t *testing.T) {
	today := day(2024, 6, 1)
	points := Aggregate([]domain.SelectedArea{
		{Area: "Pie izquierdo", Severity: domain.SeverityLeve, Evolution: domain.EvolutionEstable, StartDate: day(2024, 3, 1)},
		{Area: "Lengua", Severity: domain.SeveritySevero, Evolution: domain.EvolutionEmpeoramiento, StartDate: day(2024, 1, 15)},
		{Area: "Cuello", Severity: domain.SeverityModerado, Evolution: domain.EvolutionEstable, StartDate: day(2024, 3, 1)},
		{Area: "Diafragma", Severity: domain.SeverityLeve, Evolution: domain.EvolutionMejoria},
	}, today)

	require.Len(t, points, 3)
	assert.Equal(t, "2024-01-15", points[0].Date.String())
	assert.Equal(t, "2024-03-01", points[1].Date.String())
	assert.Equal(t, today, points[2].Date)

	require.Len(t, points[1].Areas, 2)
	assert.Equal(t, "Cuello", points[1].Areas[0].Name)
	assert.Equal(t, "Pie izquierdo", points[1].Areas[1].Name)
	assert.Equal(t, domain.EvolutionMejoria, points[2].Areas[0].Evolution)
}

func TestAggregate_Empty(t *testing.T) {
	assert.Empty(t, Aggregate(nil, day(2024, 1, 1)))
}

func TestMerge_CurrentOverwritesSameDate(t *testing.T) {
	history := []domain.ProgressionPoint{
		{Date: day(2024, 1, 1), Areas: []domain.AreaSnapshot{{Name: "Cuello", Severity: domain.SeverityLeve}}},
		{Date: day(2024, 2, 1), Areas: []domain.AreaSnapshot{{Name: "Cuello", Severity: domain.SeverityLeve}}},
	}
	current := []domain.ProgressionPoint{
		{Date: day(2024, 2, 1), Areas: []domain.AreaSnapshot{{Name: "Cuello", Severity: domain.SeveritySevero}}},
	}
	out := Merge(history, current)
	require.Len(t, out, 2)
	assert.Equal(t, domain.SeveritySevero, out[1].Areas[0].Severity)
}

func TestRenderChart_PNG(t *testing.T) {
	var buf bytes.Buffer
	err := RenderChart(&buf, []domain.ProgressionPoint{
		{Date: day(2024, 1, 1), Areas: []domain.AreaSnapshot{{Name: "Cuello", Severity: domain.SeverityLeve}}},
		{Date: day(2024, 2, 1), Areas: []domain.AreaSnapshot{
			{Name: "Cuello", Severity: domain.SeverityModerado},
			{Name: "Lengua", Severity: domain.SeveritySevero},
		}},
	}, ChartOptions{Width: 400, Height: 200})
	require.NoError(t, err)

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 400, img.Bounds().Dx())
}

func TestRenderChart_SingleDate(t *testing.T) {
	var buf bytes.Buffer
	err := RenderChart(&buf, []domain.ProgressionPoint{
		{Date: day(2024, 1, 1), Areas: []domain.AreaSnapshot{{Name: "Cuello", Severity: domain.SeverityLeve}}},
	}, ChartOptions{})
	require.NoError(t, err)
	assert.NotZero(t, buf.Len())
}

func TestRenderChart_NoData(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, RenderChart(&buf, nil, ChartOptions{}), ErrNoData)
	assert.ErrorIs(t, RenderChart(&buf, []domain.ProgressionPoint{
		{Date: day(2024, 1, 1), Areas: []domain.AreaSnapshot{{Name: "Cuello", Severity: domain.SeverityNone}}},
	}, ChartOptions{}), ErrNoData)
}

type pointSink struct {
	points map[string]domain.ProgressionPoint
	err    error
}

func (p *pointSink) UpsertPoint(_ context.Context, patientID string, pt domain.ProgressionPoint) error {
	if p.err != nil {
		return p.err
	}
	if p.points == nil {
		p.points = map[string]domain.ProgressionPoint{}
	}
	p.points[patientID+"/"+pt.Date.String()] = pt
	return nil
}

func (p *pointSink) DeletePoint(_ context.Context, patientID string, date domain.Date) error {
	if p.err != nil {
		return p.err
	}
	delete(p.points, patientID+"/"+date.String())
	return nil
}

func TestRecord(t *testing.T) {
	d1, _ := domain.ParseDate("2026-02-01")
	d2, _ := domain.ParseDate("2026-02-08")
	today, _ := domain.ParseDate("2026-02-10")
	list := []domain.SelectedArea{
		{Area: "Lengua", Severity: domain.SeverityLeve, StartDate: d1},
		{Area: "Cuello", Severity: domain.SeveritySevero, StartDate: d1},
		{Area: "Abdomen", Severity: domain.SeverityModerado},
	}
	sink := &pointSink{}

	ok, err := Record(context.Background(), sink, "p", list, d1, today)
	require.NoError(t, err)
	assert.True(t, ok)
	pt := sink.points["p/2026-02-01"]
	require.Len(t, pt.Areas, 2)
	assert.Equal(t, "Cuello", pt.Areas[0].Name)

	ok, err = Record(context.Background(), sink, "p", list, domain.Date{}, today)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, sink.points["p/2026-02-10"].Areas, 1)

	ok, err = Record(context.Background(), sink, "p", list, d2, today)
	require.NoError(t, err)
	assert.False(t, ok)

	// 区域移到别的日期后，旧日期的点被删除而不是保留旧快照
	moved := []domain.SelectedArea{
		{Area: "Lengua", Severity: domain.SeverityLeve, StartDate: d2},
		{Area: "Cuello", Severity: domain.SeveritySevero, StartDate: d2},
	}
	ok, err = Record(context.Background(), sink, "p", moved, d1, today)
	require.NoError(t, err)
	assert.False(t, ok)
	_, stale := sink.points["p/2026-02-01"]
	assert.False(t, stale)

	sink.err = errors.New("down")
	_, err = Record(context.Background(), sink, "p", list, d1, today)
	assert.Error(t, err)
}
