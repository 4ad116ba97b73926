package license

import "strings"

// Matches reports whether s satisfies the rule: its length equals the sum
// of segment counts and every positional character belongs to its segment's
// class. Only ASCII letters and digits participate; anything else fails.
func (r RegionRule) Matches(s string) bool {
	if len(s) != r.Length() {
		return false
	}
	pos := 0
	for _, seg := range r.Segments {
		for i := 0; i < seg.Count; i++ {
			c := s[pos]
			switch seg.Class {
			case ClassLetter:
				if !isASCIILetter(c) {
					return false
				}
			case ClassDigit:
				if c < '0' || c > '9' {
					return false
				}
			}
			pos++
		}
	}
	return true
}

func isASCIILetter(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

// MatchCandidate pairs a line with the rule it matched. Candidates only
// live inside the extraction pipeline and are discarded once a result is
// assembled; the match-quality signals they feed end up in Signals.
type MatchCandidate struct {
	Line string // trimmed line that matched
	Rule RegionRule
}

// matchLine validates one raw line against a rule. Lines are trimmed before
// matching; embedded matches inside longer lines are deliberately not
// attempted, since addresses and dates on the same line produce false
// positives.
func matchLine(rule RegionRule, line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if rule.Matches(trimmed) {
		return trimmed, true
	}
	return "", false
}

// InferRegions scans every line against every rule in the catalog and
// returns one candidate per region whose rule matched at least one line, in
// catalog iteration order. Used for region inference when the document
// carries no usable region hint or header.
func InferRegions(catalog *Catalog, lines []string) []MatchCandidate {
	var out []MatchCandidate
	for _, rule := range catalog.All() {
		for _, line := range lines {
			if matched, ok := matchLine(rule, line); ok {
				out = append(out, MatchCandidate{Line: matched, Rule: rule})
				break
			}
		}
	}
	return out
}
