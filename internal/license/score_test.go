package license

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreBase(t *testing.T) {
	assert.InDelta(t, 0.10, Score(Signals{}), 1e-9)
}

func TestScoreFullyConfirmedScan(t *testing.T) {
	s := Signals{
		NumberFound:     true,
		NumberValidated: true,
		RegionResolved:  true,
		HeaderConfirmed: true,
		PersonalFields:  3,
	}
	assert.InDelta(t, 0.90, Score(s), 1e-9)
}

func TestScoreHeaderConfirmedThreshold(t *testing.T) {
	s := Signals{
		NumberFound:     true,
		NumberValidated: true,
		RegionResolved:  true,
		HeaderConfirmed: true,
	}
	assert.GreaterOrEqual(t, Score(s), HeaderConfirmedThreshold)
}

func TestScoreInferredRegionScoresBelowHeaderConfirmed(t *testing.T) {
	inferred := Signals{NumberFound: true, NumberValidated: true, RegionResolved: true}
	confirmed := inferred
	confirmed.HeaderConfirmed = true
	assert.Less(t, Score(inferred), Score(confirmed))
}

func TestScoreUnvalidatedNumberScoresLower(t *testing.T) {
	unvalidated := Signals{NumberFound: true, RegionResolved: true}
	validated := unvalidated
	validated.NumberValidated = true
	assert.Less(t, Score(unvalidated), Score(validated))
}

// Adding a personal field to an otherwise identical document must never
// decrease the score.
func TestScoreMonotonicInPersonalFields(t *testing.T) {
	for _, base := range []Signals{
		{},
		{NumberFound: true},
		{NumberFound: true, NumberValidated: true, RegionResolved: true, HeaderConfirmed: true},
	} {
		prev := Score(base)
		for n := 1; n <= 4; n++ {
			s := base
			s.PersonalFields = n
			next := Score(s)
			assert.GreaterOrEqual(t, next, prev, "signals %+v", s)
			prev = next
		}
	}
}

func TestScoreClampedToOne(t *testing.T) {
	s := Signals{
		NumberFound:     true,
		NumberValidated: true,
		RegionResolved:  true,
		HeaderConfirmed: true,
		PersonalFields:  42,
	}
	assert.LessOrEqual(t, Score(s), 1.0)
}

// Same signals, same score: the scorer holds no hidden state.
func TestScoreDeterministic(t *testing.T) {
	s := Signals{NumberFound: true, RegionResolved: true, PersonalFields: 2}
	assert.Equal(t, Score(s), Score(s))
}
