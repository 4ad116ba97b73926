package models

// These structs define the JSON payloads for HTTP requests and responses of
// the scan functions, and the result objects the batch scanner writes to
// GCS.

// ScanRequest is the input for the scan-license function. ImageData is the
// base64-encoded image; RegionHint optionally names the issuing region when
// the caller already knows it.
type ScanRequest struct {
	ImageData  string `json:"imageData"`
	RegionHint string `json:"regionHint,omitempty"`
}

// ScanResponse is the output of one extraction. Empty fields mean the
// engine could not extract them; that is a normal outcome, not an error.
type ScanResponse struct {
	Status          string  `json:"status"`
	LicenseNumber   string  `json:"licenseNumber,omitempty"`
	Region          string  `json:"region,omitempty"`
	GivenName       string  `json:"givenName,omitempty"`
	FamilyName      string  `json:"familyName,omitempty"`
	DateOfBirth     string  `json:"dateOfBirth,omitempty"` // MM/DD/YYYY
	NumberValidated bool    `json:"numberValidated"`
	HeaderConfirmed bool    `json:"headerConfirmed"`
	ConfidenceScore float64 `json:"confidenceScore"`
	OCRConfidence   float64 `json:"ocrConfidence,omitempty"` // mean per-line OCR confidence
}

// RegionInfo describes one supported issuing region for the regions
// listing.
type RegionInfo struct {
	Code    string `json:"code"`
	Name    string `json:"name"`
	Pattern string `json:"pattern"`
}

// RegionListResponse is the output of the GET surface of scan-license.
type RegionListResponse struct {
	Regions []RegionInfo `json:"regions"`
}

// PageScan is the extraction result for a single page image of a batch
// object.
type PageScan struct {
	Page   int          `json:"page"`
	Result ScanResponse `json:"result"`
}

// BatchScanResult is the JSON object the batch-scanner writes to the
// results bucket for one uploaded object. Best is the page result with the
// highest confidence.
type BatchScanResult struct {
	SourceBucket string       `json:"sourceBucket"`
	SourceObject string       `json:"sourceObject"`
	PageCount    int          `json:"pageCount"`
	Best         ScanResponse `json:"best"`
	Pages        []PageScan   `json:"pages"`
}
