package license

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type ExtractorSuite struct {
	suite.Suite
	extractor *Extractor
}

func TestExtractorSuite(t *testing.T) {
	suite.Run(t, new(ExtractorSuite))
}

func (s *ExtractorSuite) SetupTest() {
	s.extractor = NewExtractor(DefaultCatalog())
}

func (s *ExtractorSuite) extract(lines []string, hint string) Result {
	res, err := s.extractor.Extract(RawDocument{Lines: lines}, hint)
	s.Require().NoError(err)
	return res
}

func (s *ExtractorSuite) TestHeaderAndNumberResolveRegion() {
	res := s.extract([]string{
		"CALIFORNIA",
		"DRIVER LICENSE",
		"A1234567",
		"CLASS C",
	}, "")

	s.Equal("CA", res.Region)
	s.Equal("A1234567", res.Number)
	s.True(res.NumberValidated)
	s.True(res.HeaderConfirmed)
	s.GreaterOrEqual(res.Confidence, HeaderConfirmedThreshold)
}

func (s *ExtractorSuite) TestFieldCodePersonalFields() {
	for _, lines := range [][]string{
		{"DCS DOE", "DAC JOHN", "DBB 01/15/1990"},
		{"dcs DOE", "dac JOHN", "dbb 01/15/1990"}, // marker case must not matter
	} {
		res := s.extract(lines, "")

		s.Equal("DOE", res.FamilyName)
		s.Equal("JOHN", res.GivenName)
		s.Equal(time.Date(1990, time.January, 15, 0, 0, 0, 0, time.UTC), res.DateOfBirth)
	}
}

func (s *ExtractorSuite) TestEmptyDocumentIsMalformed() {
	_, err := s.extractor.Extract(RawDocument{}, "")
	s.Require().ErrorIs(err, ErrMalformedInput)
}

func (s *ExtractorSuite) TestOversizedDocumentIsMalformed() {
	ex := NewExtractor(DefaultCatalog(), WithMaxLines(3))
	_, err := ex.Extract(RawDocument{Lines: []string{"A", "B", "C", "D"}}, "")
	s.Require().ErrorIs(err, ErrMalformedInput)

	_, err = ex.Extract(RawDocument{Lines: []string{"A", "B", "C"}}, "")
	s.Require().NoError(err)
}

func (s *ExtractorSuite) TestNothingFoundStaysAtBaseScore() {
	res := s.extract([]string{"COMPLETELY", "UNRELATED", "TEXT"}, "")

	s.Empty(res.Region)
	s.Empty(res.Number)
	s.Empty(res.GivenName)
	s.Empty(res.FamilyName)
	s.True(res.DateOfBirth.IsZero())
	s.InDelta(0.10, res.Confidence, 1e-9)
}

func (s *ExtractorSuite) TestRegionHintUsedWhenKnown() {
	res := s.extract([]string{"12345678"}, "tx")

	s.Equal("TX", res.Region)
	s.Equal("12345678", res.Number)
	s.True(res.NumberValidated)
	s.False(res.HeaderConfirmed)
}

func (s *ExtractorSuite) TestUnknownHintFallsBackToInference() {
	res := s.extract([]string{"CALIFORNIA", "A1234567"}, "ZZ")

	s.Equal("CA", res.Region)
	s.Equal("A1234567", res.Number)
	s.True(res.HeaderConfirmed)
}

func (s *ExtractorSuite) TestAmbiguousNumberPrefersHeaderNamedRegion() {
	// Nine digits matches CO, CT, GA and NY; the printed header decides.
	res := s.extract([]string{"NEW YORK", "123456789"}, "")

	s.Equal("NY", res.Region)
	s.Equal("123456789", res.Number)
	s.True(res.NumberValidated)
	s.True(res.HeaderConfirmed)
}

func (s *ExtractorSuite) TestAmbiguousNumberWithoutHeaderUsesCatalogOrder() {
	res := s.extract([]string{"123456789"}, "")

	s.Equal("CO", res.Region, "first nine-digit region in catalog order")
	s.Equal("123456789", res.Number)
	s.False(res.HeaderConfirmed)
}

func (s *ExtractorSuite) TestFieldCodeNumberValidatesAgainstResolvedRule() {
	res := s.extract([]string{"CALIFORNIA", "DAQ A1234567"}, "")

	s.Equal("A1234567", res.Number)
	s.True(res.NumberValidated)
}

func (s *ExtractorSuite) TestFieldCodeNumberKeptUnvalidatedAsFallback() {
	// The marker value fails every structural rule, but it is still the
	// best available number.
	res := s.extract([]string{"LIC# X99Z", "SOME STREET"}, "")

	s.Equal("X99Z", res.Number)
	s.False(res.NumberValidated)
}

func (s *ExtractorSuite) TestFieldCodeNumberDropsTrailingTokens() {
	res := s.extract([]string{"CALIFORNIA", "Lic# A1234567 CLASS C"}, "")

	s.Equal("A1234567", res.Number)
	s.True(res.NumberValidated)
}

func (s *ExtractorSuite) TestEmbeddedNumberNotExtractedFromLongLine() {
	res := s.extract([]string{"CALIFORNIA", "ADDRESS A1234567 MAIN ST"}, "")

	s.Equal("CA", res.Region)
	s.Empty(res.Number)
}

func (s *ExtractorSuite) TestImplausibleDOBLeftAbsent() {
	res := s.extract([]string{"DBB 01/15/1890"}, "")
	s.True(res.DateOfBirth.IsZero())

	res = s.extract([]string{"DBB 13/45/1990"}, "")
	s.True(res.DateOfBirth.IsZero())
}

func (s *ExtractorSuite) TestAAMVADateEncoding() {
	res := s.extract([]string{"DBB 01151990"}, "")
	s.Equal(time.Date(1990, time.January, 15, 0, 0, 0, 0, time.UTC), res.DateOfBirth)
}

func (s *ExtractorSuite) TestPersonalFieldMonotonicity() {
	base := []string{"CALIFORNIA", "A1234567"}
	withOne := append(append([]string{}, base...), "DCS DOE")
	withTwo := append(append([]string{}, withOne...), "DAC JOHN")

	scoreBase := s.extract(base, "").Confidence
	scoreOne := s.extract(withOne, "").Confidence
	scoreTwo := s.extract(withTwo, "").Confidence

	s.GreaterOrEqual(scoreOne, scoreBase)
	s.GreaterOrEqual(scoreTwo, scoreOne)
}

func (s *ExtractorSuite) TestExtractIsIdempotent() {
	lines := []string{"CALIFORNIA", "A1234567", "DCS DOE", "DAC JOHN", "DBB 01/15/1990"}

	first := s.extract(lines, "")
	second := s.extract(lines, "")
	s.Equal(first, second)
}
