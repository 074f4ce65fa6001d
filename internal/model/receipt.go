// Package model defines the domain types shared across the extraction pipeline.
package model

import "time"

// ExtractionResult is the normalized output of any extraction provider.
// Monetary fields are integers in the smallest currency unit to avoid
// rounding drift; a result is never mutated after the provider returns it.
type ExtractionResult struct {
	TotalMinor    int64      `json:"total_minor"`
	TaxMinor      *int64     `json:"tax_minor,omitempty"`
	Merchant      string     `json:"merchant,omitempty"`
	IssueDate     *time.Time `json:"issue_date,omitempty"`
	Transcript    string     `json:"transcript,omitempty"`
	Confidence    float64    `json:"confidence"`
	LineItems     []LineItem `json:"line_items,omitempty"`
	Provider      ProviderID `json:"provider"`
	CorrelationID string     `json:"correlation_id,omitempty"`

	// CostUSD is the token-derived cost of producing this result, set by
	// providers that report usage. Zero means no usage was reported and the
	// flat per-request rate applies.
	CostUSD float64 `json:"cost_usd,omitempty"`
}

// LineItem is a single line on a receipt. Amounts are minor currency units.
type LineItem struct {
	Description string `json:"description"`
	Quantity    int64  `json:"quantity"`
	UnitMinor   int64  `json:"unit_minor"`
	TotalMinor  int64  `json:"total_minor"`
}

// EffectiveConfidence returns the confidence clamped to [0, 1]. Absent or
// out-of-range values count as 0 for routing and review decisions.
func (r *ExtractionResult) EffectiveConfidence() float64 {
	if r == nil || r.Confidence < 0 || r.Confidence > 1 {
		return 0
	}
	return r.Confidence
}
