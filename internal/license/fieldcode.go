package license

import (
	"log/slog"
	"strings"
)

// Field names a logical field a field-code marker can denote.
type Field int

const (
	FieldNumber Field = iota
	FieldGivenName
	FieldFamilyName
	FieldDateOfBirth
)

func (f Field) String() string {
	switch f {
	case FieldNumber:
		return "number"
	case FieldGivenName:
		return "givenName"
	case FieldFamilyName:
		return "familyName"
	case FieldDateOfBirth:
		return "dateOfBirth"
	}
	return "unknown"
}

// Marker is one field-code prefix convention: a short alphanumeric marker
// printed immediately before a value on certain license formats.
type Marker struct {
	Prefix string
	Field  Field
}

// CodeSet is an ordered list of markers. Order matters: the first marker
// that matches a line claims it, so longer or more specific prefixes come
// first.
type CodeSet []Marker

// DefaultCodeSet covers the AAMVA data element IDs found on modern-format
// licenses (DAQ, DCS, DAC, DBB) together with the looser label prefixes
// older formats print (LIC#, DL#, DOB, ...). Older documents without any of
// these markers simply yield no field-code fields, which is expected.
func DefaultCodeSet() CodeSet {
	return CodeSet{
		{Prefix: "DAQ", Field: FieldNumber},
		{Prefix: "DCS", Field: FieldFamilyName},
		{Prefix: "DAC", Field: FieldGivenName},
		{Prefix: "DBB", Field: FieldDateOfBirth},
		{Prefix: "LICENSE NUMBER", Field: FieldNumber},
		{Prefix: "LICENSE NO", Field: FieldNumber},
		{Prefix: "LICENSE#", Field: FieldNumber},
		{Prefix: "LIC#", Field: FieldNumber},
		{Prefix: "DL#", Field: FieldNumber},
		{Prefix: "DLN", Field: FieldNumber},
		{Prefix: "ID#", Field: FieldNumber},
		{Prefix: "DOB", Field: FieldDateOfBirth},
		{Prefix: "LN", Field: FieldFamilyName},
		{Prefix: "FN", Field: FieldGivenName},
	}
}

// Locate scans the document's lines for field-code markers and returns the
// associated values with markers stripped and whitespace normalized.
// Marker matching is case-insensitive and anchored at the start of the
// line; the captured value keeps its original case. The first occurrence of
// a marker for a given field wins: a second occurrence indicates a noisy
// scan, so it is logged and dropped.
func Locate(doc RawDocument, codes CodeSet) map[Field]string {
	found := make(map[Field]string)
	for _, line := range doc.Lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		marker, value, ok := splitMarker(trimmed, codes)
		if !ok {
			continue
		}
		if prev, dup := found[marker.Field]; dup {
			slog.Warn("duplicate field code in scan, keeping first occurrence.",
				"field", marker.Field.String(), "marker", marker.Prefix, "kept", prev)
			continue
		}
		found[marker.Field] = value
	}
	return found
}

// splitMarker finds the first marker whose prefix starts the line and
// returns the remainder as the value. The marker must be followed by a
// separator or a digit, except for the three-letter AAMVA element IDs,
// which machine-readable zones print flush against the value. Two-letter
// label prefixes glued to more letters are rejected so that e.g. "FNORD"
// does not read as a given-name line.
func splitMarker(line string, codes CodeSet) (Marker, string, bool) {
	upper := strings.ToUpper(line)
	for _, m := range codes {
		if !strings.HasPrefix(upper, m.Prefix) {
			continue
		}
		rest := line[len(m.Prefix):]
		value := strings.TrimSpace(strings.TrimLeft(rest, " \t:#-"))
		if value == "" {
			continue
		}
		// A separator was present (either after the marker or built into it,
		// as in "LIC#"), or the value starts with a digit, or the marker is
		// an AAMVA element ID which is printed flush against its value on
		// machine-readable zones.
		separated := strings.ContainsRune(" \t:#-", rune(rest[0])) ||
			strings.HasSuffix(m.Prefix, "#")
		if !separated && !isAAMVAElementID(m.Prefix) && !startsWithDigit(value) {
			continue
		}
		return m, value, true
	}
	return Marker{}, "", false
}

func isAAMVAElementID(prefix string) bool {
	if len(prefix) != 3 {
		return false
	}
	for i := 0; i < 3; i++ {
		if !isASCIILetter(prefix[i]) {
			return false
		}
	}
	return true
}

func startsWithDigit(s string) bool {
	return len(s) > 0 && s[0] >= '0' && s[0] <= '9'
}
