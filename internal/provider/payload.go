package provider

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/receipt-cli/internal/model"
	"github.com/sells-group/receipt-cli/internal/normalize"
)

// receiptPayload is the JSON shape both providers are prompted to emit.
// Amounts are decimal strings; normalization to minor units happens here,
// on the adapter side.
type receiptPayload struct {
	Merchant   string        `json:"merchant"`
	Date       string        `json:"date"`
	Currency   string        `json:"currency"`
	Total      string        `json:"total"`
	Tax        string        `json:"tax"`
	Confidence float64       `json:"confidence"`
	Transcript string        `json:"transcript"`
	LineItems  []itemPayload `json:"line_items"`
}

type itemPayload struct {
	Description string `json:"description"`
	Quantity    int64  `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	Total       string `json:"total"`
}

const extractionPrompt = `Extract the receipt data as JSON with fields:
merchant, date (YYYY-MM-DD), currency (ISO 4217), total (decimal string),
tax (decimal string or empty), confidence (0..1), transcript,
line_items (description, quantity, unit_price, total).
Respond with the JSON object only.`

// parsePayload decodes and normalizes a provider's JSON response into an
// ExtractionResult. Content wrapped in markdown code fences is unwrapped
// first.
func parsePayload(content string, providerID model.ProviderID, correlationID string) (*model.ExtractionResult, error) {
	content = stripFences(content)

	var p receiptPayload
	if err := json.Unmarshal([]byte(content), &p); err != nil {
		return nil, eris.Wrapf(err, "provider: %s returned unparseable content", providerID)
	}
	if p.Total == "" {
		return nil, eris.Errorf("provider: %s response missing total", providerID)
	}

	total, err := normalize.MinorUnits(p.Total, p.Currency)
	if err != nil {
		return nil, eris.Wrapf(err, "provider: %s total", providerID)
	}

	res := &model.ExtractionResult{
		TotalMinor:    total,
		Merchant:      p.Merchant,
		Transcript:    p.Transcript,
		Confidence:    clamp01(p.Confidence),
		Provider:      providerID,
		CorrelationID: correlationID,
	}

	if p.Tax != "" {
		tax, err := normalize.MinorUnits(p.Tax, p.Currency)
		if err != nil {
			return nil, eris.Wrapf(err, "provider: %s tax", providerID)
		}
		res.TaxMinor = &tax
	}

	if date, err := normalize.Date(p.Date); err == nil {
		res.IssueDate = date
	}

	for _, it := range p.LineItems {
		unit, err := normalize.MinorUnits(it.UnitPrice, p.Currency)
		if err != nil {
			continue
		}
		lineTotal, err := normalize.MinorUnits(it.Total, p.Currency)
		if err != nil {
			continue
		}
		res.LineItems = append(res.LineItems, model.LineItem{
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitMinor:   unit,
			TotalMinor:  lineTotal,
		})
	}

	return res, nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
