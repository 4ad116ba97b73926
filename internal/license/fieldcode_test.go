package license

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocateAAMVAMarkers(t *testing.T) {
	doc := RawDocument{Lines: []string{
		"CALIFORNIA",
		"DRIVER LICENSE",
		"DCS DOE",
		"DAC JOHN",
		"DBB 01/15/1990",
		"DAQ A1234567",
	}}

	found := Locate(doc, DefaultCodeSet())
	assert.Equal(t, "DOE", found[FieldFamilyName])
	assert.Equal(t, "JOHN", found[FieldGivenName])
	assert.Equal(t, "01/15/1990", found[FieldDateOfBirth])
	assert.Equal(t, "A1234567", found[FieldNumber])
}

func TestLocateMarkerCaseInsensitiveValueCasePreserved(t *testing.T) {
	doc := RawDocument{Lines: []string{
		"dcs Doe",
		"dac John",
		"dob: 01/15/1990",
	}}

	found := Locate(doc, DefaultCodeSet())
	assert.Equal(t, "Doe", found[FieldFamilyName])
	assert.Equal(t, "John", found[FieldGivenName])
	assert.Equal(t, "01/15/1990", found[FieldDateOfBirth])
}

func TestLocateSeparatorVariants(t *testing.T) {
	cases := []struct {
		line  string
		field Field
		want  string
	}{
		{"LIC# A1234567", FieldNumber, "A1234567"},
		{"Lic#A1234567", FieldNumber, "A1234567"},
		{"DL#: 12345678", FieldNumber, "12345678"},
		{"License Number: C5555555", FieldNumber, "C5555555"},
		{"DAQA1234567", FieldNumber, "A1234567"},
		{"DOB 03-15-1990", FieldDateOfBirth, "03-15-1990"},
	}
	for _, tc := range cases {
		t.Run(tc.line, func(t *testing.T) {
			found := Locate(RawDocument{Lines: []string{tc.line}}, DefaultCodeSet())
			assert.Equal(t, tc.want, found[tc.field])
		})
	}
}

func TestLocateFirstOccurrenceWins(t *testing.T) {
	doc := RawDocument{Lines: []string{
		"DCS DOE",
		"DCS SMITH",
	}}

	found := Locate(doc, DefaultCodeSet())
	assert.Equal(t, "DOE", found[FieldFamilyName])
}

func TestLocateAbsentMarkersYieldAbsentFields(t *testing.T) {
	doc := RawDocument{Lines: []string{
		"CALIFORNIA",
		"A1234567",
		"SOME STREET 42",
	}}

	found := Locate(doc, DefaultCodeSet())
	assert.Empty(t, found)
}

func TestLocateRejectsMarkerGluedIntoWord(t *testing.T) {
	// Two-letter labels glued to further letters are other words, not
	// markers.
	found := Locate(RawDocument{Lines: []string{"FNORD STREET"}}, DefaultCodeSet())
	_, ok := found[FieldGivenName]
	require.False(t, ok)

	// "LNX" is not a family-name marker either.
	found = Locate(RawDocument{Lines: []string{"LNX TERMINAL"}}, DefaultCodeSet())
	_, ok = found[FieldFamilyName]
	require.False(t, ok)
}

func TestLocateIgnoresBareMarkers(t *testing.T) {
	found := Locate(RawDocument{Lines: []string{"DOB", "DCS   "}}, DefaultCodeSet())
	assert.Empty(t, found)
}
