// Package progression 按日期聚合已选区域，生成进展时间序列与图表
package progression

import (
	"sort"

	"github.com/Dkijas/EMPA-CELA-sub000/internal/domain"
)

// Aggregate 每个不同的 startDate 生成一个点（缺省日期取 today），点内区域按名称排序，点按日期升序
// 不做平滑或插值
func Aggregate(selected []domain.SelectedArea, today domain.Date) []domain.ProgressionPoint {
	byDate := make(map[domain.Date][]domain.AreaSnapshot)
	for _, sa := range selected {
		d := sa.StartDate
		if d.IsZero() {
			d = today
		}
		d = domain.NewDate(d.Time)
		byDate[d] = append(byDate[d], domain.AreaSnapshot{
			Name:      sa.Area,
			Severity:  sa.Severity,
			Evolution: sa.Evolution,
		})
	}

	points := make([]domain.ProgressionPoint, 0, len(byDate))
	for d, snaps := range byDate {
		sort.Slice(snaps, func(i, j int) bool { return snaps[i].Name < snaps[j].Name })
		points = append(points, domain.ProgressionPoint{Date: d, Areas: snaps})
	}
	SortPoints(points)
	return points
}

// SortPoints 按日期升序
func SortPoints(points []domain.ProgressionPoint) {
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date.Time) })
}

// Merge 将当前聚合结果合并进历史：同一日期以 current 覆盖 history
func Merge(history, current []domain.ProgressionPoint) []domain.ProgressionPoint {
	byDate := make(map[domain.Date]domain.ProgressionPoint, len(history)+len(current))
	for _, p := range history {
		byDate[domain.NewDate(p.Date.Time)] = p
	}
	for _, p := range current {
		byDate[domain.NewDate(p.Date.Time)] = p
	}
	out := make([]domain.ProgressionPoint, 0, len(byDate))
	for _, p := range byDate {
		out = append(out, p)
	}
	SortPoints(out)
	return out
}
