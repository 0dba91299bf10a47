package scoring

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScorer(t *testing.T, scheme string) *Scorer {
	t.Helper()
	q, err := DefaultQuestionnaire()
	require.NoError(t, err)
	s, err := SchemeByName(scheme)
	require.NoError(t, err)
	sc, err := NewScorer(q, s)
	require.NoError(t, err)
	return sc
}

func allGroups(q *Questionnaire, v int) map[string]int {
	sel := make(map[string]int, len(q.Groups))
	for _, g := range q.Groups {
		sel[g.ID] = v
	}
	return sel
}

func TestDefaultQuestionnaire(t *testing.T) {
	q, err := DefaultQuestionnaire()
	require.NoError(t, err)
	assert.Len(t, q.Groups, GroupCount)
	assert.Equal(t, 42, q.MaxTotal())

	g, ok := q.Group("deglucion")
	require.True(t, ok)
	assert.Equal(t, "Deglución", g.Label)
	_, ok = q.Group("nope")
	assert.False(t, ok)
}

func TestParseQuestionnaire_Validation(t *testing.T) {
	_, err := ParseQuestionnaire([]byte(`groups: [{id: a, options: [{value: 0}]}]`))
	assert.ErrorContains(t, err, "expected 14 groups")
}

func TestScore_AllThrees_FallsIntoHighestPriority(t *testing.T) {
	sc := newTestScorer(t, SchemeEMPA37)
	res, err := sc.Score(allGroups(sc.Questionnaire(), 3))
	require.NoError(t, err)

	assert.Equal(t, 42, res.Total)
	assert.Equal(t, 1, res.Tier)
	assert.True(t, res.OutOfRange)
	assert.Equal(t, SchemeEMPA37, res.Scheme)
	assert.NotEmpty(t, res.Recommendations)
}

func TestScore_AllThrees_Legacy42InRange(t *testing.T) {
	sc := newTestScorer(t, SchemeLegacy42)
	res, err := sc.Score(allGroups(sc.Questionnaire(), 3))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Tier)
	assert.False(t, res.OutOfRange)
}

func TestScore_MissingGroupsContributeZero(t *testing.T) {
	sc := newTestScorer(t, SchemeEMPA37)
	res, err := sc.Score(map[string]int{"habla": 2, "marcha": 3, "desconocido": 3})
	require.NoError(t, err)
	assert.Equal(t, 5, res.Total)
	assert.Equal(t, map[string]int{"habla": 2, "marcha": 3}, res.Selections)
	assert.Equal(t, 5, res.Tier)

	empty, err := sc.Score(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Total)
	assert.Equal(t, 5, empty.Tier)
	assert.False(t, empty.OutOfRange)
}

func TestScore_InvalidOption(t *testing.T) {
	sc := newTestScorer(t, SchemeEMPA37)
	_, err := sc.Score(map[string]int{"habla": 7})
	assert.True(t, errors.Is(err, ErrInvalidOption))
}

func TestScore_TotalEqualsSum(t *testing.T) {
	sc := newTestScorer(t, SchemeEMPA37)
	sel := map[string]int{}
	want := 0
	for i, g := range sc.Questionnaire().Groups {
		v := i % 4
		sel[g.ID] = v
		want += v
	}
	res, err := sc.Score(sel)
	require.NoError(t, err)
	assert.Equal(t, want, res.Total)
}

func TestSchemes_AreValidAndTotal(t *testing.T) {
	for _, name := range SchemeNames() {
		s, err := SchemeByName(name)
		require.NoError(t, err)
		require.NoError(t, s.Validate(), name)

		for total := -50; total <= 100; total++ {
			tier, out := s.Lookup(total)
			assert.GreaterOrEqual(t, tier, 1, "%s total=%d", name, total)
			assert.LessOrEqual(t, tier, 5, "%s total=%d", name, total)
			assert.Equal(t, total < s.Min() || total > s.Max(), out, "%s total=%d", name, total)
		}
	}
}

func TestScheme_EMPA37Boundaries(t *testing.T) {
	s, err := SchemeByName(SchemeEMPA37)
	require.NoError(t, err)
	cases := map[int]int{0: 5, 7: 5, 8: 4, 15: 4, 16: 3, 23: 3, 24: 2, 30: 2, 31: 1, 37: 1, 38: 1, -1: 5}
	for total, want := range cases {
		got, _ := s.Lookup(total)
		assert.Equal(t, want, got, "total=%d", total)
	}
}

func TestScheme_ValidateRejectsGaps(t *testing.T) {
	s := Scheme{Name: "bad", Ranges: []TierRange{{Tier: 2, Min: 0, Max: 5}, {Tier: 1, Min: 7, Max: 9}}}
	assert.Error(t, s.Validate())
	s = Scheme{Name: "overlap", Ranges: []TierRange{{Tier: 2, Min: 0, Max: 5}, {Tier: 1, Min: 5, Max: 9}}}
	assert.Error(t, s.Validate())
	assert.Error(t, Scheme{Name: "empty"}.Validate())

	_, err := SchemeByName("nope")
	assert.Error(t, err)
}

func TestRecommendations_ReturnsCopy(t *testing.T) {
	r := Recommendations(1)
	require.NotEmpty(t, r)
	r[0] = "changed"
	assert.NotEqual(t, "changed", Recommendations(1)[0])
	assert.Empty(t, Recommendations(9))
	assert.Equal(t, "Sin clasificar", TierLabel(0))
}
