package gcp

import (
	"context"
	"fmt"

	"cloud.google.com/go/vertexai/genai"
)

// --- OCR Model Prompts ---
const OCRSystemPrompt = "You are an optical character recognition engine for photographed identity documents. You transcribe exactly what is printed, line by line, in visual top-to-bottom order. You never invent text and never omit visible text. You must output your response as a valid JSON array."

const OCRUserPrompt = `Transcribe every line of text visible in the provided image.

Follow these rules precisely:
1. Emit one JSON object per visible text line, in top-to-bottom visual order.
2. Each JSON object must have exactly two keys:
   - "text": a string containing the transcribed line, exactly as printed. Preserve case, punctuation and internal spacing.
   - "confidence": a number between 0.0 and 1.0 expressing your recognition confidence for that line.
3. Do not merge separate printed lines and do not split a single printed line across objects.
4. The final output MUST be a single, valid JSON array of these objects. Do not include any text before or after the JSON array.

Example output format:
[
  {"text": "CALIFORNIA", "confidence": 0.99},
  {"text": "DRIVER LICENSE", "confidence": 0.97},
  {"text": "DL A1234567", "confidence": 0.88}
]`

// VertexClient holds the pre-configured OCR model for the scanner.
type VertexClient struct {
	OCRModel   *genai.GenerativeModel
	baseClient *genai.Client
}

// NewVertexClient creates a new client holding the OCR model.
func NewVertexClient(ctx context.Context, projectID, region string) (*VertexClient, error) {
	if projectID == "" || region == "" {
		return nil, fmt.Errorf("NewVertexClient: projectID and region cannot be empty")
	}

	baseClient, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	ocrModel := baseClient.GenerativeModel("gemini-1.5-pro")
	ocrModel.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(OCRSystemPrompt)},
	}
	ocrModel.GenerationConfig = genai.GenerationConfig{
		// Force JSON output; the line parser depends on it.
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0.0), // Transcription must be deterministic.
	}
	ocrModel.SafetySettings = []*genai.SafetySetting{
		{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockNone},
	}

	return &VertexClient{
		OCRModel:   ocrModel,
		baseClient: baseClient,
	}, nil
}

func (c *VertexClient) Close() error {
	if c.baseClient != nil {
		return c.baseClient.Close()
	}
	return nil
}
