package scoring

import (
	"errors"
	"fmt"

	"github.com/Dkijas/EMPA-CELA-sub000/internal/domain"
)

// ErrInvalidOption 所选值不属于该问题组
var ErrInvalidOption = errors.New("invalid option for group")

// Scorer 计分器：问卷 + 分层方案
type Scorer struct {
	q      *Questionnaire
	scheme Scheme
}

// NewScorer 创建计分器，方案必须通过 Validate
func NewScorer(q *Questionnaire, scheme Scheme) (*Scorer, error) {
	if q == nil {
		return nil, errors.New("scoring: nil questionnaire")
	}
	if err := scheme.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{q: q, scheme: scheme.sorted()}, nil
}

// Questionnaire 问卷定义
func (s *Scorer) Questionnaire() *Questionnaire { return s.q }

// Scheme 当前方案
func (s *Scorer) Scheme() Scheme { return s.scheme }

// Score 对各组所选值求和并查表
// 未知组忽略，未作答的组计 0，不在选项中的值返回 ErrInvalidOption
func (s *Scorer) Score(selections map[string]int) (domain.ScoreResult, error) {
	res := domain.ScoreResult{
		Selections: make(map[string]int, len(selections)),
		Scheme:     s.scheme.Name,
	}
	for _, g := range s.q.Groups {
		v, ok := selections[g.ID]
		if !ok {
			continue
		}
		if !g.hasValue(v) {
			return domain.ScoreResult{}, fmt.Errorf("%w: %s=%d", ErrInvalidOption, g.ID, v)
		}
		res.Selections[g.ID] = v
		res.Total += v
	}
	res.Tier, res.OutOfRange = s.scheme.Lookup(res.Total)
	res.Recommendations = Recommendations(res.Tier)
	return res, nil
}
