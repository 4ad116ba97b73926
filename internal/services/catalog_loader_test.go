package services

import (
	"context"
	"testing"

	"github.com/Lllllllleong/licensescanflow/internal/license"
	"github.com/Lllllllleong/licensescanflow/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCatalogWithoutOverridesUsesBuiltins(t *testing.T) {
	catalog, err := loadCatalog(context.Background(), "test-project", "")
	require.NoError(t, err)
	assert.Equal(t, len(license.BuiltinRules()), len(catalog.All()))
}

func TestRuleFromDoc(t *testing.T) {
	doc := models.RegionRuleDoc{
		Code: "CA",
		Name: "California",
		Segments: []models.SegmentDoc{
			{Class: "letter", Count: 1},
			{Class: "digit", Count: 7},
		},
	}

	rule, err := ruleFromDoc(doc)
	require.NoError(t, err)
	assert.True(t, rule.Matches("A1234567"))
	assert.False(t, rule.Matches("12345678"))
}

func TestRuleFromDocRejectsBadClass(t *testing.T) {
	doc := models.RegionRuleDoc{
		Code:     "CA",
		Name:     "California",
		Segments: []models.SegmentDoc{{Class: "vowel", Count: 1}},
	}
	_, err := ruleFromDoc(doc)
	require.Error(t, err)
}

func TestRuleFromDocRejectsEmptySegments(t *testing.T) {
	_, err := ruleFromDoc(models.RegionRuleDoc{Code: "CA", Name: "California"})
	require.Error(t, err)
}
