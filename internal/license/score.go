package license

// Scoring weights. The total is clamped to [0, 1]; every weight is
// non-negative so adding a successful sub-extraction can never lower the
// score.
const (
	scoreBase            = 0.10
	scoreNumberFound     = 0.25
	scoreNumberValidated = 0.10
	scoreRegionHeader    = 0.15
	scoreRegionInferred  = 0.05
	scorePersonalField   = 0.10
)

// HeaderConfirmedThreshold is the minimum confidence a result reaches when
// both the region header and a structurally valid number were found.
// Consumers can use it to distinguish header-confirmed scans.
const HeaderConfirmedThreshold = scoreBase + scoreNumberFound + scoreNumberValidated + scoreRegionHeader

// Signals are the assembly outputs the scorer combines. The scorer is a
// pure function of this struct: same signals, same score.
type Signals struct {
	NumberFound     bool
	NumberValidated bool // number passed the resolved region's structural rule
	RegionResolved  bool
	HeaderConfirmed bool // region confirmed by a textual header match, not inferred
	PersonalFields  int  // count of personal fields located via field code (0-3)
}

// Score combines match-quality signals into a single confidence value in
// [0, 1].
func Score(s Signals) float64 {
	score := scoreBase
	if s.NumberFound {
		score += scoreNumberFound
	}
	if s.NumberFound && s.NumberValidated {
		score += scoreNumberValidated
	}
	if s.RegionResolved {
		if s.HeaderConfirmed {
			score += scoreRegionHeader
		} else {
			score += scoreRegionInferred
		}
	}
	if s.PersonalFields > 0 {
		n := s.PersonalFields
		if n > 3 {
			n = 3
		}
		score += float64(n) * scorePersonalField
	}
	if score > 1.0 {
		score = 1.0
	}
	if score < 0.0 {
		score = 0.0
	}
	return score
}
