package progression

import (
	"errors"
	"io"
	"strings"
	"time"

	"github.com/Dkijas/EMPA-CELA-sub000/internal/anatomy"
	"github.com/Dkijas/EMPA-CELA-sub000/internal/domain"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ErrNoData 没有可绘制的点
var ErrNoData = errors.New("no progression data")

// ChartOptions 图表尺寸
type ChartOptions struct {
	Width  int
	Height int
	Title  string
}

func (o ChartOptions) withDefaults() ChartOptions {
	if o.Width <= 0 {
		o.Width = 800
	}
	if o.Height <= 0 {
		o.Height = 360
	}
	if o.Title == "" {
		o.Title = "Progresión temporal"
	}
	return o
}

var chartSeverities = []domain.Severity{
	domain.SeverityLeve,
	domain.SeverityModerado,
	domain.SeveritySevero,
}

// RenderChart 以 PNG 输出进展图：每个严重度一条只画点的序列，y 为严重度位置
func RenderChart(w io.Writer, points []domain.ProgressionPoint, opts ChartOptions) error {
	if len(points) == 0 {
		return ErrNoData
	}
	opts = opts.withDefaults()

	first, last := points[0].Date.Time, points[0].Date.Time
	var series []chart.Series
	for _, sev := range chartSeverities {
		var xs []time.Time
		var ys []float64
		for _, p := range points {
			if p.Date.Before(first) {
				first = p.Date.Time
			}
			if p.Date.After(last) {
				last = p.Date.Time
			}
			for _, a := range p.Areas {
				if a.Severity == sev {
					xs = append(xs, p.Date.Time)
					ys = append(ys, anatomy.SeverityPosition(sev))
				}
			}
		}
		if len(xs) == 0 {
			continue
		}
		series = append(series, chart.TimeSeries{
			Name:    anatomy.SeverityVisual(sev).Label,
			XValues: xs,
			YValues: ys,
			Style:   pointStyle(hexColor(anatomy.SeverityVisual(sev).Color)),
		})
	}
	if len(series) == 0 {
		return ErrNoData
	}

	// 单一日期时 x 轴范围为 0 会导致渲染失败，两侧各留一天
	xMin := first.AddDate(0, 0, -1)
	xMax := last.AddDate(0, 0, 1)

	ch := chart.Chart{
		Title:      opts.Title,
		Width:      opts.Width,
		Height:     opts.Height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis: chart.XAxis{
			Name:           "Fecha",
			ValueFormatter: chart.TimeValueFormatterWithFormat(domain.DateLayout),
			Range: &chart.ContinuousRange{
				Min: chart.TimeToFloat64(xMin),
				Max: chart.TimeToFloat64(xMax),
			},
		},
		YAxis: chart.YAxis{
			Name:  "Severidad",
			Range: &chart.ContinuousRange{Min: 0, Max: 100},
			Ticks: []chart.Tick{
				{Value: 0, Label: "No"},
				{Value: 25, Label: "Leve"},
				{Value: 50, Label: "Moderado"},
				{Value: 75, Label: "Severo"},
				{Value: 100, Label: ""},
			},
		},
		Series: series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	return ch.Render(chart.PNG, w)
}

func pointStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeWidth: chart.Disabled,
		StrokeColor: col,
		DotWidth:    6,
		DotColor:    col,
	}
}

func hexColor(s string) drawing.Color {
	return drawing.ColorFromHex(strings.TrimPrefix(s, "#"))
}
