package anatomy

import (
	"sort"

	"github.com/Dkijas/EMPA-CELA-sub000/internal/catalog"
	"github.com/Dkijas/EMPA-CELA-sub000/internal/domain"
)

// Marker 身体图上一个已选区域的渲染模型
type Marker struct {
	Area      string           `json:"area"`
	Category  domain.Category  `json:"category"`
	X         float64          `json:"x"`
	Y         float64          `json:"y"`
	Radius    float64          `json:"radius"`
	Severity  domain.Severity  `json:"severity"`
	Evolution domain.Evolution `json:"evolution"`
	Visual    Visual           `json:"visual"`
	Tooltip   string           `json:"tooltip"`
}

// Markers 按区域名排序生成标记；目录中不存在的区域被跳过并通过 unknown 返回
func Markers(cat *catalog.Catalog, areas []domain.SelectedArea) (markers []Marker, unknown []string) {
	markers = make([]Marker, 0, len(areas))
	for _, sa := range areas {
		a, ok := cat.Lookup(sa.Area)
		if !ok {
			unknown = append(unknown, sa.Area)
			continue
		}
		v := SeverityVisual(sa.Severity)
		tooltip := a.Name + ": " + v.Label
		if ev := EvolutionLabel(sa.Evolution); ev != "" {
			tooltip += " (" + ev + ")"
		}
		markers = append(markers, Marker{
			Area:      a.Name,
			Category:  a.Category,
			X:         catalog.Clamp(a.Coordinates.X),
			Y:         catalog.Clamp(a.Coordinates.Y),
			Radius:    a.Coordinates.Radius * v.Size,
			Severity:  sa.Severity,
			Evolution: sa.Evolution,
			Visual:    v,
			Tooltip:   tooltip,
		})
	}
	sort.Slice(markers, func(i, j int) bool { return markers[i].Area < markers[j].Area })
	return markers, unknown
}
