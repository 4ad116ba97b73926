package services

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// pageImageExtensions are the encodings pdfcpu extracts that the OCR
// collaborator can consume.
var pageImageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
}

// extractPDFImages validates a staged PDF and extracts its embedded page
// images into a subdirectory of tempDir, returning the image paths in page
// order. Scanned licenses usually arrive as single-page PDFs with one image
// per page.
func extractPDFImages(tempDir, pdfPath string) ([]string, error) {
	optimizedPath := filepath.Join(tempDir, "optimized.pdf")
	if err := optimizePDF(pdfPath, optimizedPath); err != nil {
		return nil, fmt.Errorf("failed to validate/optimize PDF: %w", err)
	}

	imageDir := filepath.Join(tempDir, "images")
	if err := os.MkdirAll(imageDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image dir: %w", err)
	}
	if err := api.ExtractImagesFile(optimizedPath, imageDir, nil, nil); err != nil {
		return nil, fmt.Errorf("failed to extract images from PDF: %w", err)
	}

	entries, err := os.ReadDir(imageDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list extracted images: %w", err)
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if pageImageExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			paths = append(paths, filepath.Join(imageDir, entry.Name()))
		}
	}
	// pdfcpu names extracted images by page and object number, so a
	// lexical sort restores page order.
	sort.Strings(paths)
	return paths, nil
}

func optimizePDF(inPath, outPath string) error {
	cfg := model.NewDefaultConfiguration()
	cfg.ValidationMode = model.ValidationRelaxed
	return api.OptimizeFile(inPath, outPath, cfg)
}
