package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/Lllllllleong/licensescanflow/internal/license"
	"github.com/Lllllllleong/licensescanflow/internal/models"
	"github.com/Lllllllleong/licensescanflow/internal/services"
)

var (
	scannerInstance *services.ScannerFunction
	once            sync.Once
	initErr         error
)

func init() {
	// --- Set up structured logging ---
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Register the HTTP function with the framework.
	// "HandleScanLicense" is the entry point name configured in GCP.
	functions.HTTP("HandleScanLicense", handleScanLicense)
}

// main is required by the Go Functions Framework.
func main() {}

// handleScanLicense is the HTTP handler for the scan service. POST scans a
// base64-encoded license image; GET lists the supported issuing regions.
func handleScanLicense(w http.ResponseWriter, r *http.Request) {
	// Use sync.Once for robust, one-time initialization of clients.
	once.Do(func() {
		scannerInstance, initErr = services.NewScanner(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical: Scanner initialization failed", "error", initErr)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, scannerInstance.Regions())
	case http.MethodPost:
		handleScan(w, r)
	default:
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

func handleScan(w http.ResponseWriter, r *http.Request) {
	var req models.ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Could not decode request body", "error", err)
		http.Error(w, "Bad Request: could not parse JSON", http.StatusBadRequest)
		return
	}

	res, err := scannerInstance.Process(r.Context(), &req)
	if err != nil {
		status, message := classifyError(err)
		http.Error(w, message, status)
		return
	}

	writeJSON(w, res)
}

// classifyError maps service errors to HTTP statuses. Absent fields are not
// errors and never reach this path.
func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrInvalidRequest):
		return http.StatusBadRequest, "Bad Request: " + err.Error()
	case errors.Is(err, services.ErrUnsupportedImage):
		return http.StatusBadRequest, "Bad Request: unsupported image encoding"
	case errors.Is(err, license.ErrMalformedInput):
		return http.StatusBadRequest, "Bad Request: " + err.Error()
	case errors.Is(err, services.ErrOCR):
		slog.Error("OCR collaborator failed", "error", err)
		return http.StatusBadGateway, "Bad Gateway: text recognition failed"
	default:
		slog.Error("Scan processing failed", "error", err)
		return http.StatusInternalServerError, "Internal Server Error: processing failed"
	}
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to write response", "error", err)
		http.Error(w, "Internal Server Error: failed to encode response", http.StatusInternalServerError)
	}
}
