package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Lllllllleong/licensescanflow/internal/gcp"
	"github.com/Lllllllleong/licensescanflow/internal/license"
	"github.com/Lllllllleong/licensescanflow/internal/models"
	"google.golang.org/api/iterator"
)

// loadCatalog assembles the region catalog. With no override collection
// configured it is the built-in table; otherwise override documents are
// read from Firestore once and layered over the built-ins. The resulting
// catalog is immutable for the life of the process.
func loadCatalog(ctx context.Context, projectID, collection string) (*license.Catalog, error) {
	rules := license.BuiltinRules()

	if collection != "" {
		overrides, err := fetchRuleOverrides(ctx, projectID, collection)
		if err != nil {
			return nil, err
		}
		rules = append(rules, overrides...)
		slog.Info("Applied region-rule overrides.", "collection", collection, "count", len(overrides))
	}

	return license.NewCatalog(rules)
}

func fetchRuleOverrides(ctx context.Context, projectID, collection string) ([]license.RegionRule, error) {
	client, err := gcp.NewFirestoreClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	defer client.Close()

	var overrides []license.RegionRule
	it := client.Collection(collection).Documents(ctx)
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read region rules from %s: %w", collection, err)
		}

		var doc models.RegionRuleDoc
		if err := snap.DataTo(&doc); err != nil {
			slog.Warn("Skipping malformed region-rule document.", "docId", snap.Ref.ID, "error", err)
			continue
		}
		rule, err := ruleFromDoc(doc)
		if err != nil {
			slog.Warn("Skipping invalid region-rule document.", "docId", snap.Ref.ID, "error", err)
			continue
		}
		overrides = append(overrides, rule)
	}
	return overrides, nil
}

func ruleFromDoc(doc models.RegionRuleDoc) (license.RegionRule, error) {
	rule := license.RegionRule{Code: doc.Code, Name: doc.Name}
	for _, seg := range doc.Segments {
		var class license.CharClass
		switch seg.Class {
		case "letter":
			class = license.ClassLetter
		case "digit":
			class = license.ClassDigit
		default:
			return license.RegionRule{}, fmt.Errorf("segment class %q: must be letter or digit", seg.Class)
		}
		rule.Segments = append(rule.Segments, license.Segment{Class: class, Count: seg.Count})
	}
	if len(rule.Segments) == 0 {
		return license.RegionRule{}, fmt.Errorf("region %s: override has no segments", doc.Code)
	}
	return rule, nil
}
