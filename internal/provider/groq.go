package provider

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/receipt-cli/internal/cost"
	"github.com/sells-group/receipt-cli/internal/model"
	"github.com/sells-group/receipt-cli/internal/resilience"
	"github.com/sells-group/receipt-cli/pkg/groq"
)

// Groq parses pre-extracted OCR text via Groq chat completions.
type Groq struct {
	client groq.Client
	model  string
	calc   *cost.Calculator
	retry  resilience.RetryConfig
}

// NewGroq creates the cheap text-based provider.
func NewGroq(client groq.Client, model string, calc *cost.Calculator) *Groq {
	retry := resilience.DefaultRetryConfig()
	retry.OnRetry = resilience.RetryLogger("groq", "chat_completion")
	return &Groq{client: client, model: model, calc: calc, retry: retry}
}

// Parse sends the raw receipt text for structured extraction.
func (g *Groq) Parse(ctx context.Context, rawText, correlationID string) (*model.ExtractionResult, error) {
	if rawText == "" {
		return nil, eris.New("provider: cheap path requires raw text")
	}

	temp := 0.0
	req := groq.ChatCompletionRequest{
		Model:       g.model,
		Temperature: &temp,
		ResponseFormat: &groq.ResponseFormat{
			Type: "json_object",
		},
		Messages: []groq.Message{
			{Role: "system", Content: extractionPrompt},
			{Role: "user", Content: rawText},
		},
	}

	resp, err := resilience.DoVal(ctx, g.retry, func(ctx context.Context) (*groq.ChatCompletionResponse, error) {
		return g.client.ChatCompletion(ctx, req)
	})
	if err != nil {
		return nil, eris.Wrap(err, "provider: groq call")
	}
	if len(resp.Choices) == 0 {
		return nil, eris.New("provider: groq returned no choices")
	}

	costUSD := g.calc.Groq(resp.Usage.TotalTokens)
	zap.L().Info("cost attribution",
		zap.String("model", resp.Model),
		zap.String("phase", "cheap_parse"),
		zap.String("correlation_id", correlationID),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
		zap.Float64("estimated_cost_usd", costUSD),
	)

	res, err := parsePayload(resp.Choices[0].Message.Content, model.ProviderCheap, correlationID)
	if err != nil {
		return nil, err
	}
	res.CostUSD = costUSD
	return res, nil
}
