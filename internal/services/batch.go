package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"cloud.google.com/go/storage"
	executions "cloud.google.com/go/workflows/executions/apiv1"
	"cloud.google.com/go/workflows/executions/apiv1/executionspb"
	"github.com/Lllllllleong/licensescanflow/internal/gcp"
	"github.com/Lllllllleong/licensescanflow/internal/models"
	"golang.org/x/sync/errgroup"
)

// GCSEvent is the payload of the storage finalize event that triggers the
// batch scanner.
type GCSEvent struct {
	Bucket string `json:"bucket"`
	Name   string `json:"name"`
}

// BatchScannerConfig holds configuration for the batch-scanner service.
type BatchScannerConfig struct {
	ProjectID        string
	ResultsBucket    string
	ScanParallelism  int
	ReviewThreshold  float64
	ReviewWorkflowID string // empty disables the review hand-off
	WorkflowLocation string
}

// BatchScannerFunction holds dependencies for the batch scanning logic.
type BatchScannerFunction struct {
	storageClient    *storage.Client
	executionsClient *executions.Client
	scanner          *ScannerFunction
	config           BatchScannerConfig
}

// NewBatchScanner creates a new BatchScannerFunction instance.
func NewBatchScanner(ctx context.Context) (*BatchScannerFunction, error) {
	resultsBucket := gcp.GetEnv("SCAN_RESULTS_BUCKET", "")
	if resultsBucket == "" {
		return nil, fmt.Errorf("SCAN_RESULTS_BUCKET environment variable must be set")
	}

	parallelism := 4
	if raw := gcp.GetEnv("SCAN_PARALLELISM", ""); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("SCAN_PARALLELISM must be a positive integer, got %q", raw)
		}
		parallelism = n
	}

	reviewThreshold := 0.40
	if raw := gcp.GetEnv("REVIEW_THRESHOLD", ""); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 || v > 1 {
			return nil, fmt.Errorf("REVIEW_THRESHOLD must be in [0,1], got %q", raw)
		}
		reviewThreshold = v
	}

	scanner, err := NewScanner(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize scanner: %w", err)
	}

	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	config := BatchScannerConfig{
		ProjectID:        scanner.config.ProjectID,
		ResultsBucket:    resultsBucket,
		ScanParallelism:  parallelism,
		ReviewThreshold:  reviewThreshold,
		ReviewWorkflowID: gcp.GetEnv("REVIEW_WORKFLOW_ID", ""),
		WorkflowLocation: gcp.GetEnv("WORKFLOW_LOCATION", "us-central1"),
	}

	var executionsClient *executions.Client
	if config.ReviewWorkflowID != "" {
		executionsClient, err = executions.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create Workflows Executions client: %w", err)
		}
	}

	slog.Info("Batch scanner logic initialized.",
		"resultsBucket", config.ResultsBucket,
		"reviewWorkflowId", config.ReviewWorkflowID)
	return &BatchScannerFunction{
		storageClient:    storageClient,
		executionsClient: executionsClient,
		scanner:          scanner,
		config:           config,
	}, nil
}

// Process handles one uploaded object: stage it locally, scan every page
// image, write the aggregated result to the results bucket, and hand
// low-confidence results off to the review workflow.
func (f *BatchScannerFunction) Process(ctx context.Context, e GCSEvent) error {
	logCtx := slog.With("gcsBucket", e.Bucket, "gcsObject", e.Name)
	logCtx.Info("Processing uploaded scan.")

	tempDir, err := os.MkdirTemp("", "batch-scanner-*")
	if err != nil {
		return fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	localPath := filepath.Join(tempDir, "source"+filepath.Ext(e.Name))
	if err := gcp.StreamGCSObject(ctx, f.storageClient, e.Bucket, e.Name, localPath); err != nil {
		logCtx.Error("Failed to download source object", "error", err)
		return err
	}

	imagePaths, err := f.stagePageImages(tempDir, localPath, e.Name)
	if err != nil {
		logCtx.Error("Failed to stage page images", "error", err)
		return err
	}
	if len(imagePaths) == 0 {
		logCtx.Warn("Object contained no scannable page images. Skipping.")
		return nil
	}

	pages, err := f.scanPages(ctx, logCtx, imagePaths)
	if err != nil {
		return err
	}
	if len(pages) == 0 {
		logCtx.Warn("No page produced a scan result. Skipping.")
		return nil
	}

	result := assembleBatchResult(e, len(imagePaths), pages)
	if err := f.writeResult(ctx, logCtx, e, result); err != nil {
		return err
	}

	if result.Best.ConfidenceScore < f.config.ReviewThreshold {
		if err := f.triggerReview(ctx, logCtx, e, result.Best.ConfidenceScore); err != nil {
			return err
		}
	}

	logCtx.Info("Batch scan complete.",
		"pages", len(pages), "bestConfidence", result.Best.ConfidenceScore)
	return nil
}

// stagePageImages resolves the uploaded object into one or more page image
// files. PDFs are unpacked page by page; anything else is treated as a
// single image.
func (f *BatchScannerFunction) stagePageImages(tempDir, localPath, objectName string) ([]string, error) {
	if strings.EqualFold(filepath.Ext(objectName), ".pdf") {
		return extractPDFImages(tempDir, localPath)
	}
	return []string{localPath}, nil
}

// scanPages runs the extraction pipeline over each page image with bounded
// parallelism. Pages the OCR collaborator cannot consume are skipped;
// genuine OCR failures fail the invocation so event redelivery can retry.
func (f *BatchScannerFunction) scanPages(ctx context.Context, logCtx *slog.Logger, imagePaths []string) ([]models.PageScan, error) {
	results := make([]*models.ScanResponse, len(imagePaths))
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(f.config.ScanParallelism)

	for i, path := range imagePaths {
		eg.Go(func() error {
			image, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("page %d: read staged image: %w", i+1, err)
			}
			resp, err := f.scanner.ScanImage(gctx, image, "")
			if errors.Is(err, ErrUnsupportedImage) {
				logCtx.Warn("Skipping page with unsupported image encoding.", "page", i+1, "error", err)
				return nil
			}
			if err != nil {
				return fmt.Errorf("page %d: %w", i+1, err)
			}
			results[i] = resp
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		logCtx.Error("One or more pages failed to scan", "error", err)
		return nil, err
	}

	pages := make([]models.PageScan, 0, len(results))
	for i, resp := range results {
		if resp != nil {
			pages = append(pages, models.PageScan{Page: i + 1, Result: *resp})
		}
	}
	return pages, nil
}

func assembleBatchResult(e GCSEvent, pageCount int, pages []models.PageScan) *models.BatchScanResult {
	best := pages[0].Result
	for _, p := range pages[1:] {
		if p.Result.ConfidenceScore > best.ConfidenceScore {
			best = p.Result
		}
	}
	return &models.BatchScanResult{
		SourceBucket: e.Bucket,
		SourceObject: e.Name,
		PageCount:    pageCount,
		Best:         best,
		Pages:        pages,
	}
}

func (f *BatchScannerFunction) writeResult(ctx context.Context, logCtx *slog.Logger, e GCSEvent, result *models.BatchScanResult) error {
	payload, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal batch result: %w", err)
	}

	objectName := e.Name + ".scan.json"
	bucketHandle := f.storageClient.Bucket(f.config.ResultsBucket)
	if err := gcp.SaveToGCSAtomically(ctx, bucketHandle, objectName, string(payload)); err != nil {
		logCtx.Error("Failed to save batch result", "error", err, "resultObject", objectName)
		return err
	}
	logCtx.Info("Saved batch result.", "resultObject", objectName)
	return nil
}

// triggerReview hands a low-confidence scan off to the review workflow.
// Retry policy lives there, not in the engine.
func (f *BatchScannerFunction) triggerReview(ctx context.Context, logCtx *slog.Logger, e GCSEvent, confidence float64) error {
	if f.executionsClient == nil {
		logCtx.Info("No review workflow configured, skipping hand-off.", "confidence", confidence)
		return nil
	}

	payload, err := json.Marshal(map[string]interface{}{
		"sourceBucket": e.Bucket,
		"sourceObject": e.Name,
		"confidence":   confidence,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal review payload: %w", err)
	}

	req := &executionspb.CreateExecutionRequest{
		Parent: fmt.Sprintf("projects/%s/locations/%s/workflows/%s",
			f.config.ProjectID, f.config.WorkflowLocation, f.config.ReviewWorkflowID),
		Execution: &executionspb.Execution{
			Argument: string(payload),
		},
	}
	if _, err := f.executionsClient.CreateExecution(ctx, req); err != nil {
		logCtx.Error("Failed to trigger review workflow", "error", err)
		return fmt.Errorf("failed to trigger review workflow: %w", err)
	}
	logCtx.Info("Hand-off to review workflow complete.", "confidence", confidence)
	return nil
}
