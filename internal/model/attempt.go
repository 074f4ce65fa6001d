package model

// ProviderID identifies which extraction path produced a result.
type ProviderID string

// Provider identifiers.
const (
	ProviderCheap   ProviderID = "cheap"
	ProviderPrecise ProviderID = "precise"
)

// Attempt records one provider invocation during the processing of a single
// request. If Success is true, Result is present and Err is empty; if false,
// Result is nil. The attempt history is append-only.
type Attempt struct {
	CorrelationID string            `json:"correlation_id"`
	Provider      ProviderID        `json:"provider"`
	Success       bool              `json:"success"`
	CostUSD       float64           `json:"cost_usd"`
	DurationMS    int64             `json:"duration_ms"`
	Result        *ExtractionResult `json:"result,omitempty"`
	Err           string            `json:"error,omitempty"`
}

// Request is the router's input: an opaque image reference, optional
// pre-extracted OCR text for the cheap path, and a caller-supplied
// correlation ID used only for attempt bookkeeping.
type Request struct {
	ImageRef      []byte
	OCRText       string
	CorrelationID string
}
