package license

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// ErrMalformedInput is returned when the raw document is empty or exceeds
// the configured line bound. It is the only hard failure the extractor
// produces; everything else is encoded in the result.
var ErrMalformedInput = errors.New("malformed raw document")

// DefaultMaxLines bounds the number of OCR lines one extraction accepts.
// Real licenses produce a few dozen lines; anything far beyond that is OCR
// noise from a photo that is not a license.
const DefaultMaxLines = 200

// RawDocument is the OCR input: recognized text lines in visual
// top-to-bottom order. Order feeds the field-code proximity heuristics but
// is otherwise not semantically guaranteed; OCR may misorder skewed text.
type RawDocument struct {
	Lines []string
}

// Result holds the extracted fields. A zero value for a field means
// extraction did not succeed for it; absence is a valid terminal state,
// not an error. DateOfBirth carries a calendar date only (UTC midnight).
type Result struct {
	Number      string
	Region      string
	GivenName   string
	FamilyName  string
	DateOfBirth time.Time

	// NumberValidated is set when Number passed the resolved region's
	// structural rule bit-for-bit. An unvalidated number is still returned
	// but scores lower.
	NumberValidated bool
	// HeaderConfirmed is set when the region was confirmed by its printed
	// name appearing in the document rather than inferred from a pattern.
	HeaderConfirmed bool

	Confidence float64
}

// Extractor coordinates catalog, field-code locator, pattern matcher and
// scorer. It is stateless and side-effect-free; one instance serves any
// number of concurrent extractions.
type Extractor struct {
	catalog  *Catalog
	codes    CodeSet
	maxLines int
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithMaxLines overrides the document line bound.
func WithMaxLines(n int) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.maxLines = n
		}
	}
}

// WithCodeSet replaces the default field-code marker set.
func WithCodeSet(codes CodeSet) Option {
	return func(e *Extractor) {
		if len(codes) > 0 {
			e.codes = codes
		}
	}
}

// NewExtractor builds an extractor over the given catalog.
func NewExtractor(catalog *Catalog, opts ...Option) *Extractor {
	e := &Extractor{
		catalog:  catalog,
		codes:    DefaultCodeSet(),
		maxLines: DefaultMaxLines,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract runs the extraction state machine over one raw document and
// returns exactly one result. regionHint may be empty; an unknown hint is
// logged and dropped in favor of inference, never fatal. The only error
// condition is a malformed document (zero lines or beyond the line bound).
func (e *Extractor) Extract(doc RawDocument, regionHint string) (Result, error) {
	if len(doc.Lines) == 0 {
		return Result{}, fmt.Errorf("document has no lines: %w", ErrMalformedInput)
	}
	if len(doc.Lines) > e.maxLines {
		return Result{}, fmt.Errorf("document has %d lines, bound is %d: %w",
			len(doc.Lines), e.maxLines, ErrMalformedInput)
	}

	located := Locate(doc, e.codes)

	// 1. RegionResolution
	region, headerConfirmed := e.resolveRegion(doc, regionHint)

	// 2. NumberExtraction
	number, validated := e.extractNumber(doc, &region, located[FieldNumber])

	// 3. PersonalFieldExtraction. No positional fallback exists for these
	// fields, so a missing marker simply leaves the field absent.
	res := Result{
		Number:          number,
		Region:          region,
		GivenName:       strings.TrimSpace(located[FieldGivenName]),
		FamilyName:      strings.TrimSpace(located[FieldFamilyName]),
		NumberValidated: validated,
		HeaderConfirmed: headerConfirmed && region != "",
	}
	personal := 0
	if res.GivenName != "" {
		personal++
	}
	if res.FamilyName != "" {
		personal++
	}
	if dobRaw, ok := located[FieldDateOfBirth]; ok {
		if dob, ok := parseDOB(dobRaw); ok {
			res.DateOfBirth = dob
			personal++
		} else {
			slog.Debug("field-code date of birth did not parse.", "value", dobRaw)
		}
	}

	// 4. Assembly
	res.Confidence = Score(Signals{
		NumberFound:     res.Number != "",
		NumberValidated: res.NumberValidated,
		RegionResolved:  res.Region != "",
		HeaderConfirmed: res.HeaderConfirmed,
		PersonalFields:  personal,
	})
	return res, nil
}

// resolveRegion implements step 1: caller hint first, then a header name
// scan, then pattern inference with the documented tie-break.
func (e *Extractor) resolveRegion(doc RawDocument, hint string) (code string, headerConfirmed bool) {
	if hint != "" {
		rule, err := e.catalog.Lookup(hint)
		if err == nil {
			return rule.Code, e.nameAppears(doc, rule)
		}
		slog.Warn("region hint not in catalog, falling back to inference.",
			"hint", hint, "error", err)
	}

	// Region names are commonly printed as a document header; an exact or
	// case-insensitive substring line match confirms the region.
	for _, rule := range e.catalog.All() {
		if e.nameAppears(doc, rule) {
			return rule.Code, true
		}
	}

	candidates := InferRegions(e.catalog, doc.Lines)
	if len(candidates) == 0 {
		return "", false
	}
	if len(candidates) > 1 {
		codes := make([]string, len(candidates))
		for i, c := range candidates {
			codes[i] = c.Rule.Code
		}
		slog.Debug("ambiguous region inference, keeping first in catalog order.", "candidates", codes)
	}
	return candidates[0].Rule.Code, false
}

// nameAppears reports whether the rule's human-readable name occurs on any
// line, case-insensitively.
func (e *Extractor) nameAppears(doc RawDocument, rule RegionRule) bool {
	name := strings.ToUpper(rule.Name)
	for _, line := range doc.Lines {
		if strings.Contains(strings.ToUpper(line), name) {
			return true
		}
	}
	return false
}

// extractNumber implements step 2. With a resolved region it returns the
// first whole line matching that region's rule; without one it accepts the
// first line matching any rule and resolves the region as that rule's
// owner. A field-code number candidate is preferred when it validates, and
// kept as an unvalidated fallback when nothing else matches.
func (e *Extractor) extractNumber(doc RawDocument, region *string, codeValue string) (number string, validated bool) {
	// The field-code value may carry trailing tokens ("A1234567 CLASS C");
	// only the first token is the number candidate.
	codeCandidate := firstToken(codeValue)

	if *region != "" {
		rule, err := e.catalog.Lookup(*region)
		if err == nil {
			if codeCandidate != "" && rule.Matches(codeCandidate) {
				return codeCandidate, true
			}
			for _, line := range doc.Lines {
				if matched, ok := matchLine(rule, line); ok {
					return matched, true
				}
			}
		}
		if codeCandidate != "" {
			return codeCandidate, false
		}
		return "", false
	}

	for _, line := range doc.Lines {
		trimmed := strings.TrimSpace(line)
		for _, rule := range e.catalog.All() {
			if rule.Matches(trimmed) {
				*region = rule.Code
				return trimmed, true
			}
		}
	}
	if codeCandidate != "" {
		return codeCandidate, false
	}
	return "", false
}

func firstToken(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// dobLayouts are the date formats licenses print, most common first. The
// last entry is the AAMVA eight-digit MMDDCCYY element encoding.
var dobLayouts = []string{
	"01/02/2006",
	"1/2/2006",
	"01-02-2006",
	"2006-01-02",
	"2006/01/02",
	"01022006",
}

// parseDOB parses a field-code date-of-birth candidate and applies the
// plausibility window from the original field conventions: not before 1900
// and at least sixteen years old.
func parseDOB(raw string) (time.Time, bool) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return time.Time{}, false
	}
	// Keep only the first token; marker lines sometimes carry trailing
	// labels ("01/15/1990 EXP 01/15/2030").
	candidate = firstToken(candidate)

	for _, layout := range dobLayouts {
		t, err := time.ParseInLocation(layout, candidate, time.UTC)
		if err != nil {
			continue
		}
		year := t.Year()
		if year < 1900 || year > time.Now().Year()-16 {
			return time.Time{}, false
		}
		return t, true
	}
	return time.Time{}, false
}
