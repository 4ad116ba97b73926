package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/Lllllllleong/licensescanflow/internal/services"
	cloudevents "github.com/cloudevents/sdk-go/v2"
)

var (
	batchScannerInstance *services.BatchScannerFunction
	once                 sync.Once
	initErr              error
)

func init() {
	// --- Set up structured logging ---
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Register the CloudEvent function. The framework routes GCS finalize
	// events here.
	functions.CloudEvent("ScanUploadedLicense", scanUploadedLicense)
}

// main is required by the Go Functions Framework.
func main() {}

// scanUploadedLicense is the Cloud Function entry point for objects
// uploaded to the intake bucket.
func scanUploadedLicense(ctx context.Context, e cloudevents.Event) error {
	// Use sync.Once for robust, one-time initialization of clients.
	once.Do(func() {
		batchScannerInstance, initErr = services.NewBatchScanner(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		return initErr
	}

	var gcsEvent services.GCSEvent
	if err := json.Unmarshal(e.Data(), &gcsEvent); err != nil {
		slog.Error("Failed to unmarshal event data", "error", err, "data", string(e.Data()))
		return fmt.Errorf("json.Unmarshal: %w", err)
	}

	// Errors are logged with context inside Process; returning one marks
	// the invocation as failed so the event is redelivered.
	return batchScannerInstance.Process(ctx, gcsEvent)
}
