// Package license implements the field extraction engine for photographed
// US driver's licenses. It maps raw OCR text lines to typed, validated
// fields (issuing region, license number, names, date of birth) using a
// data-driven catalog of per-region number patterns and standardized
// field-code markers. The engine is pure: no I/O, no hidden state.
package license

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownRegion is returned by Catalog.Lookup for codes absent from the
// catalog. This is a normal, recoverable condition: callers fall back to
// region inference rather than failing the extraction.
var ErrUnknownRegion = errors.New("unknown issuing region")

// CharClass is the character class of one pattern segment.
type CharClass int

const (
	ClassLetter CharClass = iota
	ClassDigit
)

// Segment is one run of a license-number pattern: exactly Count characters
// of the given class.
type Segment struct {
	Class CharClass
	Count int
}

// RegionRule describes one issuing region: its two-letter code, the
// human-readable name printed on license headers, and the structural rule
// its license numbers follow. Rules are immutable after catalog
// construction.
type RegionRule struct {
	Code     string
	Name     string
	Segments []Segment
}

// Length returns the exact length a number must have to match the rule.
func (r RegionRule) Length() int {
	n := 0
	for _, seg := range r.Segments {
		n += seg.Count
	}
	return n
}

// String renders the rule in the human-readable form used by the regions
// listing, e.g. "1 letter + 7 digits".
func (r RegionRule) String() string {
	parts := make([]string, 0, len(r.Segments))
	for _, seg := range r.Segments {
		noun := "digit"
		if seg.Class == ClassLetter {
			noun = "letter"
		}
		if seg.Count != 1 {
			noun += "s"
		}
		parts = append(parts, fmt.Sprintf("%d %s", seg.Count, noun))
	}
	return strings.Join(parts, " + ")
}

// Catalog is the read-only table of supported issuing regions. It is built
// once at process start and safe for concurrent readers without locking.
type Catalog struct {
	rules  []RegionRule
	byCode map[string]RegionRule
}

// letters and digits abbreviate segment construction in the built-in table.
func letters(n int) Segment { return Segment{Class: ClassLetter, Count: n} }
func digits(n int) Segment  { return Segment{Class: ClassDigit, Count: n} }

// BuiltinRules returns the default region table. Several regions share a
// structural signature (TX/PA eight digits, NY/GA/CT/CO nine digits); the
// extractor's tie-break resolves those, so the duplication is deliberate.
func BuiltinRules() []RegionRule {
	return []RegionRule{
		{Code: "AZ", Name: "Arizona", Segments: []Segment{letters(1), digits(8)}},
		{Code: "CA", Name: "California", Segments: []Segment{letters(1), digits(7)}},
		{Code: "CO", Name: "Colorado", Segments: []Segment{digits(9)}},
		{Code: "CT", Name: "Connecticut", Segments: []Segment{digits(9)}},
		{Code: "FL", Name: "Florida", Segments: []Segment{letters(1), digits(12)}},
		{Code: "GA", Name: "Georgia", Segments: []Segment{digits(9)}},
		{Code: "IL", Name: "Illinois", Segments: []Segment{letters(1), digits(11)}},
		{Code: "MA", Name: "Massachusetts", Segments: []Segment{letters(1), digits(8)}},
		{Code: "MD", Name: "Maryland", Segments: []Segment{letters(1), digits(12)}},
		{Code: "MI", Name: "Michigan", Segments: []Segment{letters(1), digits(12)}},
		{Code: "NC", Name: "North Carolina", Segments: []Segment{digits(12)}},
		{Code: "NJ", Name: "New Jersey", Segments: []Segment{letters(1), digits(14)}},
		{Code: "NY", Name: "New York", Segments: []Segment{digits(9)}},
		{Code: "OH", Name: "Ohio", Segments: []Segment{letters(2), digits(6)}},
		{Code: "OR", Name: "Oregon", Segments: []Segment{digits(7)}},
		{Code: "PA", Name: "Pennsylvania", Segments: []Segment{digits(8)}},
		{Code: "TX", Name: "Texas", Segments: []Segment{digits(8)}},
	}
}

// NewCatalog builds a catalog from the given rules, normalizing codes to
// upper case and ordering alphabetically by code. Later entries override
// earlier ones with the same code, which lets deployments layer remote
// overrides on top of BuiltinRules.
func NewCatalog(rules []RegionRule) (*Catalog, error) {
	byCode := make(map[string]RegionRule, len(rules))
	for _, r := range rules {
		code := strings.ToUpper(strings.TrimSpace(r.Code))
		if len(code) != 2 {
			return nil, fmt.Errorf("region code %q: must be two letters", r.Code)
		}
		if r.Name == "" {
			return nil, fmt.Errorf("region %s: name must be set", code)
		}
		if len(r.Segments) == 0 {
			return nil, fmt.Errorf("region %s: rule needs at least one segment", code)
		}
		for _, seg := range r.Segments {
			if seg.Count <= 0 {
				return nil, fmt.Errorf("region %s: segment count must be positive", code)
			}
		}
		r.Code = code
		byCode[code] = r
	}

	ordered := make([]RegionRule, 0, len(byCode))
	for _, r := range byCode {
		ordered = append(ordered, r)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Code < ordered[j].Code })
	return &Catalog{rules: ordered, byCode: byCode}, nil
}

// DefaultCatalog builds a catalog from BuiltinRules. The built-in table is
// known-good, so construction cannot fail.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(BuiltinRules())
	if err != nil {
		panic(fmt.Sprintf("built-in region table invalid: %v", err))
	}
	return c
}

// Lookup returns the rule for a region code (case-insensitive), or
// ErrUnknownRegion if the catalog has no entry for it.
func (c *Catalog) Lookup(code string) (RegionRule, error) {
	r, ok := c.byCode[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return RegionRule{}, fmt.Errorf("region %q: %w", code, ErrUnknownRegion)
	}
	return r, nil
}

// All returns every rule in stable alphabetical order by code. The returned
// slice is a copy; mutating it does not affect the catalog.
func (c *Catalog) All() []RegionRule {
	out := make([]RegionRule, len(c.rules))
	copy(out, c.rules)
	return out
}
