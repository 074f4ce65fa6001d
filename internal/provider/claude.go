package provider

import (
	"bytes"
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/receipt-cli/internal/cost"
	"github.com/sells-group/receipt-cli/internal/model"
	"github.com/sells-group/receipt-cli/internal/resilience"
	"github.com/sells-group/receipt-cli/pkg/anthropic"
)

const claudeMaxTokens = 2048

// Claude extracts structured data straight from the receipt image using
// Claude vision messages.
type Claude struct {
	client anthropic.Client
	model  string
	calc   *cost.Calculator
	retry  resilience.RetryConfig
}

// NewClaude creates the precise image-based provider.
func NewClaude(client anthropic.Client, model string, calc *cost.Calculator) *Claude {
	retry := resilience.DefaultRetryConfig()
	retry.OnRetry = resilience.RetryLogger("anthropic", "create_message")
	return &Claude{client: client, model: model, calc: calc, retry: retry}
}

// Extract sends the image for structured extraction.
func (c *Claude) Extract(ctx context.Context, image []byte, correlationID string) (*model.ExtractionResult, error) {
	if len(image) == 0 {
		return nil, eris.New("provider: precise path requires an image")
	}

	temp := 0.0
	req := anthropic.MessageRequest{
		Model:       c.model,
		MaxTokens:   claudeMaxTokens,
		System:      extractionPrompt,
		Temperature: &temp,
		Messages: []anthropic.Message{
			{
				Role: "user",
				Parts: []anthropic.ContentPart{
					{Image: &anthropic.ImageData{MediaType: detectMediaType(image), Data: image}},
					{Text: "Extract this receipt."},
				},
			},
		},
	}

	resp, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return c.client.CreateMessage(ctx, req)
	})
	if err != nil {
		return nil, eris.Wrap(err, "provider: claude call")
	}

	text := resp.Text()
	if text == "" {
		return nil, eris.New("provider: claude returned no text content")
	}

	costUSD := c.calc.Claude(c.model, resp.Usage.InputTokens, resp.Usage.OutputTokens)
	resp.Usage.LogCost(c.model, "precise_extract", costUSD)

	res, err := parsePayload(text, model.ProviderPrecise, correlationID)
	if err != nil {
		return nil, err
	}
	res.CostUSD = costUSD
	return res, nil
}

var (
	jpegMagic = []byte{0xFF, 0xD8, 0xFF}
	pngMagic  = []byte{0x89, 'P', 'N', 'G'}
	gifMagic  = []byte("GIF8")
	webpRIFF  = []byte("RIFF")
)

// detectMediaType sniffs the image format from magic bytes. JPEG is the
// safe default for receipt scans.
func detectMediaType(image []byte) string {
	switch {
	case bytes.HasPrefix(image, pngMagic):
		return "image/png"
	case bytes.HasPrefix(image, gifMagic):
		return "image/gif"
	case bytes.HasPrefix(image, webpRIFF) && len(image) > 12 && bytes.Equal(image[8:12], []byte("WEBP")):
		return "image/webp"
	case bytes.HasPrefix(image, jpegMagic):
		return "image/jpeg"
	default:
		return "image/jpeg"
	}
}
