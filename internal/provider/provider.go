// Package provider adapts the extraction backends behind uniform interfaces
// and normalizes their responses into the canonical result shape.
package provider

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/receipt-cli/internal/config"
	"github.com/sells-group/receipt-cli/internal/cost"
	"github.com/sells-group/receipt-cli/internal/model"
	"github.com/sells-group/receipt-cli/pkg/anthropic"
	"github.com/sells-group/receipt-cli/pkg/groq"
)

// Cheap is the low-cost text-based extraction path.
type Cheap interface {
	Parse(ctx context.Context, rawText, correlationID string) (*model.ExtractionResult, error)
}

// Precise is the higher-cost image-based extraction path.
type Precise interface {
	Extract(ctx context.Context, image []byte, correlationID string) (*model.ExtractionResult, error)
}

// NewProviders creates the cheap and precise providers based on config.
func NewProviders(cfg *config.Config, calc *cost.Calculator) (Cheap, Precise, error) {
	switch cfg.Provider.Mode {
	case "static":
		return NewStaticCheap(), NewStaticPrecise(), nil
	case "live", "":
		if cfg.Groq.Key == "" {
			return nil, nil, eris.New("provider: live mode requires groq.key")
		}
		if cfg.Anthropic.Key == "" {
			return nil, nil, eris.New("provider: live mode requires anthropic.key")
		}

		groqOpts := []groq.Option{groq.WithModel(cfg.Groq.Model)}
		if cfg.Groq.BaseURL != "" {
			groqOpts = append(groqOpts, groq.WithBaseURL(cfg.Groq.BaseURL))
		}
		if cfg.Groq.RateLimit > 0 {
			groqOpts = append(groqOpts, groq.WithRateLimit(cfg.Groq.RateLimit, 1))
		}

		cheap := NewGroq(groq.NewClient(cfg.Groq.Key, groqOpts...), cfg.Groq.Model, calc)
		precise := NewClaude(anthropic.NewClient(cfg.Anthropic.Key), cfg.Anthropic.Model, calc)
		return cheap, precise, nil
	default:
		return nil, nil, eris.Errorf("provider: unknown mode %q", cfg.Provider.Mode)
	}
}
