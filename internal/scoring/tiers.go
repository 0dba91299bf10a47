package scoring

import (
	"fmt"
	"sort"
)

// TierRange 闭区间 [Min, Max] 对应的优先级
type TierRange struct {
	Tier int `json:"tier"`
	Min  int `json:"min"`
	Max  int `json:"max"`
}

// Scheme 总分到优先级（1 = 最高）的查找表
type Scheme struct {
	Name   string      `json:"name"`
	Ranges []TierRange `json:"ranges"`
}

const (
	SchemeEMPA37   = "empa37"
	SchemeLegacy42 = "legacy42"
	// DefaultScheme 默认采用 0–37 方案
	DefaultScheme = SchemeEMPA37
)

// 两套历史上并存的分层表，原样保留，由配置选择其一
var schemes = map[string]Scheme{
	SchemeEMPA37: {
		Name: SchemeEMPA37,
		Ranges: []TierRange{
			{Tier: 5, Min: 0, Max: 7},
			{Tier: 4, Min: 8, Max: 15},
			{Tier: 3, Min: 16, Max: 23},
			{Tier: 2, Min: 24, Max: 30},
			{Tier: 1, Min: 31, Max: 37},
		},
	},
	SchemeLegacy42: {
		Name: SchemeLegacy42,
		Ranges: []TierRange{
			{Tier: 5, Min: 0, Max: 10},
			{Tier: 4, Min: 11, Max: 20},
			{Tier: 3, Min: 21, Max: 28},
			{Tier: 2, Min: 29, Max: 35},
			{Tier: 1, Min: 36, Max: 42},
		},
	},
}

// SchemeByName 返回已注册方案（区间按 Min 升序）
func SchemeByName(name string) (Scheme, error) {
	s, ok := schemes[name]
	if !ok {
		return Scheme{}, fmt.Errorf("unknown tier scheme %q", name)
	}
	return s.sorted(), nil
}

// SchemeNames 已注册方案名
func SchemeNames() []string {
	names := make([]string, 0, len(schemes))
	for n := range schemes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (s Scheme) sorted() Scheme {
	rs := make([]TierRange, len(s.Ranges))
	copy(rs, s.Ranges)
	sort.Slice(rs, func(i, j int) bool { return rs[i].Min < rs[j].Min })
	return Scheme{Name: s.Name, Ranges: rs}
}

// Validate 区间必须非空、互不相交且连续
func (s Scheme) Validate() error {
	if len(s.Ranges) == 0 {
		return fmt.Errorf("scheme %s: no ranges", s.Name)
	}
	rs := s.sorted().Ranges
	for i, r := range rs {
		if r.Min > r.Max {
			return fmt.Errorf("scheme %s: range %d..%d is empty", s.Name, r.Min, r.Max)
		}
		if i > 0 && r.Min != rs[i-1].Max+1 {
			return fmt.Errorf("scheme %s: gap or overlap between %d and %d", s.Name, rs[i-1].Max, r.Min)
		}
	}
	return nil
}

// Min 方案下界
func (s Scheme) Min() int { return s.Ranges[0].Min }

// Max 方案上界
func (s Scheme) Max() int { return s.Ranges[len(s.Ranges)-1].Max }

// Lookup 对任意整数返回唯一的 tier：
// 低于下界落入最低区间的 tier，高于上界落入最高区间的 tier（兜底），两种情况 outOfRange=true
func (s Scheme) Lookup(total int) (tier int, outOfRange bool) {
	lo, hi := s.Ranges[0], s.Ranges[len(s.Ranges)-1]
	if total < lo.Min {
		return lo.Tier, true
	}
	if total > hi.Max {
		return hi.Tier, true
	}
	for _, r := range s.Ranges {
		if total >= r.Min && total <= r.Max {
			return r.Tier, false
		}
	}
	// Validate 保证区间连续，不会到达这里
	return hi.Tier, true
}
