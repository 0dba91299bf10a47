// Package catalog 提供身体图上的解剖区域目录（启动时加载，之后只读）
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/Dkijas/EMPA-CELA-sub000/internal/domain"

	"gopkg.in/yaml.v3"
)

//go:embed areas.yaml
var defaultAreas []byte

// ErrUnknownArea 区域名不在目录中
var ErrUnknownArea = errors.New("unknown anatomical area")

// Catalog 不可变的区域目录
type Catalog struct {
	areas  []domain.AnatomicalArea
	byName map[string]int
}

type catalogFile struct {
	Areas []domain.AnatomicalArea `yaml:"areas"`
}

// Default 内置目录
func Default() (*Catalog, error) {
	return Parse(defaultAreas)
}

// MustDefault 内置目录，解析失败时 panic（仅用于启动和测试）
func MustDefault() *Catalog {
	c, err := Default()
	if err != nil {
		panic(err)
	}
	return c
}

// Parse 从 YAML 解析目录并校验：名称唯一、分类合法、坐标在 [0,100]、半径 > 0
func Parse(raw []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return New(f.Areas)
}

// New 使用给定区域构建目录
func New(areas []domain.AnatomicalArea) (*Catalog, error) {
	c := &Catalog{
		areas:  make([]domain.AnatomicalArea, 0, len(areas)),
		byName: make(map[string]int, len(areas)),
	}
	for _, a := range areas {
		if a.Name == "" {
			return nil, errors.New("catalog: area without name")
		}
		if _, dup := c.byName[a.Name]; dup {
			return nil, fmt.Errorf("catalog: duplicate area %q", a.Name)
		}
		if !a.Category.Valid() {
			return nil, fmt.Errorf("catalog: area %q has unknown category %q", a.Name, a.Category)
		}
		co := a.Coordinates
		if !inPercent(co.X) || !inPercent(co.Y) || co.Radius <= 0 || co.Radius > 100 {
			return nil, fmt.Errorf("catalog: area %q has invalid coordinates %+v", a.Name, co)
		}
		c.byName[a.Name] = len(c.areas)
		c.areas = append(c.areas, a)
	}
	return c, nil
}

func inPercent(v float64) bool {
	return v >= 0 && v <= 100
}

// All 返回全部区域的副本（按定义顺序）
func (c *Catalog) All() []domain.AnatomicalArea {
	out := make([]domain.AnatomicalArea, len(c.areas))
	copy(out, c.areas)
	return out
}

// Len 区域数量
func (c *Catalog) Len() int { return len(c.areas) }

// Lookup 按名称查找
func (c *Catalog) Lookup(name string) (domain.AnatomicalArea, bool) {
	i, ok := c.byName[name]
	if !ok {
		return domain.AnatomicalArea{}, false
	}
	return c.areas[i], true
}

// ByCategory 按分类过滤
func (c *Catalog) ByCategory(cat domain.Category) []domain.AnatomicalArea {
	var out []domain.AnatomicalArea
	for _, a := range c.areas {
		if a.Category == cat {
			out = append(out, a)
		}
	}
	return out
}

// Nearest 返回包含点 (x, y) 的区域；多个命中时取圆心距离最小者，距离相同按名称
// x, y 先被钳制到 [0,100]
func (c *Catalog) Nearest(x, y float64) (domain.AnatomicalArea, bool) {
	x, y = Clamp(x), Clamp(y)

	hits := make([]int, 0, 2)
	dist := make(map[int]float64, 2)
	for i, a := range c.areas {
		d := math.Hypot(a.Coordinates.X-x, a.Coordinates.Y-y)
		if d <= a.Coordinates.Radius {
			hits = append(hits, i)
			dist[i] = d
		}
	}
	if len(hits) == 0 {
		return domain.AnatomicalArea{}, false
	}
	sort.Slice(hits, func(i, j int) bool {
		di, dj := dist[hits[i]], dist[hits[j]]
		if di != dj {
			return di < dj
		}
		return c.areas[hits[i]].Name < c.areas[hits[j]].Name
	})
	return c.areas[hits[0]], true
}

// Clamp 将百分比坐标限制在 [0,100]，NaN 视为 0
func Clamp(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}
