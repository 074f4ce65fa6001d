package provider

import (
	"context"
	"time"

	"github.com/sells-group/receipt-cli/internal/model"
)

// StaticCheap is a deterministic cheap provider returning a fixed result.
// Selected via provider.mode=static for demos and offline runs.
type StaticCheap struct {
	result model.ExtractionResult
}

// NewStaticCheap creates a static cheap provider with a canned receipt.
func NewStaticCheap() *StaticCheap {
	tax := int64(1376)
	date := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	return &StaticCheap{
		result: model.ExtractionResult{
			TotalMinor: 8560,
			TaxMinor:   &tax,
			Merchant:   "Corner Grocery",
			IssueDate:  &date,
			Confidence: 0.88,
			LineItems: []model.LineItem{
				{Description: "Produce", Quantity: 1, UnitMinor: 8560, TotalMinor: 8560},
			},
		},
	}
}

// Parse returns the canned result regardless of input.
func (s *StaticCheap) Parse(_ context.Context, _, correlationID string) (*model.ExtractionResult, error) {
	res := s.result
	res.Provider = model.ProviderCheap
	res.CorrelationID = correlationID
	return &res, nil
}

// StaticPrecise is a deterministic precise provider returning a fixed result.
type StaticPrecise struct {
	result model.ExtractionResult
}

// NewStaticPrecise creates a static precise provider with a canned receipt.
func NewStaticPrecise() *StaticPrecise {
	tax := int64(5625)
	date := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	return &StaticPrecise{
		result: model.ExtractionResult{
			TotalMinor: 35000,
			TaxMinor:   &tax,
			Merchant:   "Hardware Depot",
			IssueDate:  &date,
			Confidence: 0.95,
		},
	}
}

// Extract returns the canned result regardless of input.
func (s *StaticPrecise) Extract(_ context.Context, _ []byte, correlationID string) (*model.ExtractionResult, error) {
	res := s.result
	res.Provider = model.ProviderPrecise
	res.CorrelationID = correlationID
	return &res, nil
}
