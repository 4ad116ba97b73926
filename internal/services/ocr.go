package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	"github.com/Lllllllleong/licensescanflow/internal/gcp"
)

// ErrUnsupportedImage is returned when the payload is not one of the image
// encodings the OCR collaborator accepts.
var ErrUnsupportedImage = errors.New("unsupported image encoding")

// ErrOCR marks failures of the OCR collaborator. They surface to the
// caller of the pipeline as a distinct error kind and never reach the
// extraction engine as a partial document.
var ErrOCR = errors.New("ocr collaborator failure")

// ocrLine is one recognized line as reported by the OCR model.
type ocrLine struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// supportedImageMIME lists the image encodings forwarded to the model.
var supportedImageMIME = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/webp": true,
}

// recognizeLines sends the image to the pre-configured OCR model and parses
// its JSON response into ordered lines.
func recognizeLines(ctx context.Context, model *genai.GenerativeModel, image []byte) ([]ocrLine, error) {
	mime := http.DetectContentType(image)
	if !supportedImageMIME[mime] {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedImage, mime)
	}

	filePart := genai.Blob{MIMEType: mime, Data: image}
	prompt := genai.Text(gcp.OCRUserPrompt)

	resp, err := model.GenerateContent(ctx, filePart, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: generate content: %v", ErrOCR, err)
	}

	jsonString := extractJSONContent(resp)
	if jsonString == "" {
		return nil, fmt.Errorf("%w: model returned an empty response", ErrOCR)
	}

	var lines []ocrLine
	if err := json.Unmarshal([]byte(jsonString), &lines); err != nil {
		return nil, fmt.Errorf("%w: unmarshal model response: %v", ErrOCR, err)
	}
	return lines, nil
}

// extractJSONContent concatenates the text parts of the model response and
// strips any code fences the model wrapped around the JSON.
func extractJSONContent(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}

	content := strings.TrimSpace(sb.String())
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}
