package models

// RegionRuleDoc is the Firestore shape of a region-rule override. A
// deployment can extend or correct the built-in region table without a
// redeploy by writing these documents to the override collection; they are
// read once at startup and layered over the built-ins.
type RegionRuleDoc struct {
	Code     string       `firestore:"code"`
	Name     string       `firestore:"name"`
	Segments []SegmentDoc `firestore:"segments"`
}

// SegmentDoc is one character-class run of an override rule. Class is
// "letter" or "digit".
type SegmentDoc struct {
	Class string `firestore:"class"`
	Count int    `firestore:"count"`
}
