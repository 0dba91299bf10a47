// Package scoring 实现 EMPA-CELA 问卷计分与优先级分层
package scoring

import (
	_ "embed"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed questionnaire.yaml
var defaultQuestionnaire []byte

// GroupCount EMPA-CELA 固定 14 个问题组
const GroupCount = 14

// Option 单选项
type Option struct {
	Value int    `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}

// Group 一个问题组（每组只能选一个值）
type Group struct {
	ID      string   `json:"id" yaml:"id"`
	Label   string   `json:"label" yaml:"label"`
	Options []Option `json:"options" yaml:"options"`
}

// Questionnaire 问卷定义
type Questionnaire struct {
	Groups []Group `json:"groups" yaml:"groups"`

	index map[string]int
}

// DefaultQuestionnaire 内置问卷
func DefaultQuestionnaire() (*Questionnaire, error) {
	return ParseQuestionnaire(defaultQuestionnaire)
}

// ParseQuestionnaire 解析并校验：恰好 14 组、ID 唯一、每组至少一个选项且值不重复
func ParseQuestionnaire(raw []byte) (*Questionnaire, error) {
	var q Questionnaire
	if err := yaml.Unmarshal(raw, &q); err != nil {
		return nil, fmt.Errorf("parse questionnaire: %w", err)
	}
	if len(q.Groups) != GroupCount {
		return nil, fmt.Errorf("questionnaire: expected %d groups, got %d", GroupCount, len(q.Groups))
	}
	q.index = make(map[string]int, len(q.Groups))
	for i, g := range q.Groups {
		if g.ID == "" {
			return nil, errors.New("questionnaire: group without id")
		}
		if _, dup := q.index[g.ID]; dup {
			return nil, fmt.Errorf("questionnaire: duplicate group %q", g.ID)
		}
		if len(g.Options) == 0 {
			return nil, fmt.Errorf("questionnaire: group %q has no options", g.ID)
		}
		values := make(map[int]struct{}, len(g.Options))
		for _, o := range g.Options {
			if _, dup := values[o.Value]; dup {
				return nil, fmt.Errorf("questionnaire: group %q repeats value %d", g.ID, o.Value)
			}
			values[o.Value] = struct{}{}
		}
		q.index[g.ID] = i
	}
	return &q, nil
}

// Group 按 ID 查找问题组
func (q *Questionnaire) Group(id string) (Group, bool) {
	i, ok := q.index[id]
	if !ok {
		return Group{}, false
	}
	return q.Groups[i], true
}

// MaxTotal 所有组取最大值时的总分
func (q *Questionnaire) MaxTotal() int {
	total := 0
	for _, g := range q.Groups {
		m := g.Options[0].Value
		for _, o := range g.Options[1:] {
			if o.Value > m {
				m = o.Value
			}
		}
		total += m
	}
	return total
}

func (g Group) hasValue(v int) bool {
	for _, o := range g.Options {
		if o.Value == v {
			return true
		}
	}
	return false
}
