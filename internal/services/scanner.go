package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/Lllllllleong/licensescanflow/internal/gcp"
	"github.com/Lllllllleong/licensescanflow/internal/license"
	"github.com/Lllllllleong/licensescanflow/internal/models"
)

// ErrInvalidRequest is returned for requests the scanner cannot act on:
// missing or undecodable image data.
var ErrInvalidRequest = errors.New("invalid scan request")

// ScannerConfig holds all configuration for the scanner service.
type ScannerConfig struct {
	ProjectID       string
	VertexAIRegion  string
	MaxLines        int
	RulesCollection string // Firestore collection with region-rule overrides; empty = built-ins only
}

// ScannerFunction holds the dependencies for the scan logic.
type ScannerFunction struct {
	vertexClient *gcp.VertexClient
	catalog      *license.Catalog
	extractor    *license.Extractor
	config       ScannerConfig
}

// loadScannerConfig loads and validates the environment for this service.
func loadScannerConfig() (*ScannerConfig, error) {
	projectID := gcp.GetEnv("PROJECT_ID", "")
	if projectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set")
	}

	maxLines := license.DefaultMaxLines
	if raw := gcp.GetEnv("SCANNER_MAX_LINES", ""); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("SCANNER_MAX_LINES must be a positive integer, got %q", raw)
		}
		maxLines = n
	}

	return &ScannerConfig{
		ProjectID:       projectID,
		VertexAIRegion:  gcp.GetEnv("VERTEX_AI_REGION", "us-central1"),
		MaxLines:        maxLines,
		RulesCollection: gcp.GetEnv("REGION_RULES_COLLECTION", ""),
	}, nil
}

// NewScanner creates a new ScannerFunction instance. The region catalog is
// assembled once here and never mutated afterwards, so one instance safely
// serves concurrent requests.
func NewScanner(ctx context.Context) (*ScannerFunction, error) {
	config, err := loadScannerConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	vertexClient, err := gcp.NewVertexClient(ctx, config.ProjectID, config.VertexAIRegion)
	if err != nil {
		return nil, fmt.Errorf("failed to create vertex client: %w", err)
	}

	catalog, err := loadCatalog(ctx, config.ProjectID, config.RulesCollection)
	if err != nil {
		return nil, fmt.Errorf("failed to load region catalog: %w", err)
	}

	slog.Info("Scanner logic initialized.",
		"regions", len(catalog.All()), "maxLines", config.MaxLines)
	return &ScannerFunction{
		vertexClient: vertexClient,
		catalog:      catalog,
		extractor:    license.NewExtractor(catalog, license.WithMaxLines(config.MaxLines)),
		config:       *config,
	}, nil
}

// Process handles one scan request: decode the image, run OCR, extract
// fields. Absent fields are a normal outcome; the only client errors are an
// undecodable payload and an unsupported encoding.
func (f *ScannerFunction) Process(ctx context.Context, req *models.ScanRequest) (*models.ScanResponse, error) {
	if req.ImageData == "" {
		return nil, fmt.Errorf("%w: imageData must be set", ErrInvalidRequest)
	}
	image, err := base64.StdEncoding.DecodeString(req.ImageData)
	if err != nil {
		return nil, fmt.Errorf("%w: imageData is not valid base64: %v", ErrInvalidRequest, err)
	}
	return f.ScanImage(ctx, image, req.RegionHint)
}

// ScanImage runs OCR and field extraction over decoded image bytes. The
// batch scanner calls this directly for page images it stages itself.
func (f *ScannerFunction) ScanImage(ctx context.Context, image []byte, regionHint string) (*models.ScanResponse, error) {
	lines, err := recognizeLines(ctx, f.vertexClient.OCRModel, image)
	if err != nil {
		return nil, err
	}

	doc := license.RawDocument{Lines: make([]string, len(lines))}
	var confidenceSum float64
	for i, line := range lines {
		doc.Lines[i] = line.Text
		confidenceSum += line.Confidence
	}
	var meanOCRConfidence float64
	if len(lines) > 0 {
		meanOCRConfidence = confidenceSum / float64(len(lines))
	}

	result, err := f.extractor.Extract(doc, regionHint)
	if err != nil {
		// Only malformed input reaches this branch; no partial result exists.
		return nil, err
	}

	slog.Info("Scan complete.",
		"region", result.Region,
		"numberFound", result.Number != "",
		"numberValidated", result.NumberValidated,
		"confidence", result.Confidence)
	resp := buildScanResponse(result)
	resp.OCRConfidence = meanOCRConfidence
	return resp, nil
}

// Regions lists the supported issuing regions with their human-readable
// pattern descriptions.
func (f *ScannerFunction) Regions() *models.RegionListResponse {
	rules := f.catalog.All()
	out := &models.RegionListResponse{Regions: make([]models.RegionInfo, 0, len(rules))}
	for _, rule := range rules {
		out.Regions = append(out.Regions, models.RegionInfo{
			Code:    rule.Code,
			Name:    rule.Name,
			Pattern: rule.String(),
		})
	}
	return out
}

// buildScanResponse maps an engine result to the wire payload.
func buildScanResponse(result license.Result) *models.ScanResponse {
	resp := &models.ScanResponse{
		Status:          "success",
		LicenseNumber:   result.Number,
		Region:          result.Region,
		GivenName:       result.GivenName,
		FamilyName:      result.FamilyName,
		NumberValidated: result.NumberValidated,
		HeaderConfirmed: result.HeaderConfirmed,
		ConfidenceScore: result.Confidence,
	}
	if !result.DateOfBirth.IsZero() {
		resp.DateOfBirth = result.DateOfBirth.Format("01/02/2006")
	}
	return resp
}
