// Package cost computes per-attempt costs for the extraction providers.
package cost

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Rates holds per-provider pricing configuration.
type Rates struct {
	// CheapPerRequest is the flat bookkeeping cost of one cheap-provider
	// call, used when the provider reports no token usage.
	CheapPerRequest float64 `yaml:"cheap_per_request" mapstructure:"cheap_per_request"`

	// PrecisePerRequest is the flat bookkeeping cost of one precise call
	// and the all-precise baseline for savings computation.
	PrecisePerRequest float64 `yaml:"precise_per_request" mapstructure:"precise_per_request"`

	Anthropic map[string]ModelRate `yaml:"anthropic" mapstructure:"anthropic"`
	Groq      GroqRate             `yaml:"groq" mapstructure:"groq"`
}

// ModelRate holds per-model token pricing (USD per million tokens).
type ModelRate struct {
	Input  float64 `yaml:"input" mapstructure:"input"`
	Output float64 `yaml:"output" mapstructure:"output"`
}

// GroqRate holds Groq token pricing (USD per million tokens, blended).
type GroqRate struct {
	PerMTok float64 `yaml:"per_mtok" mapstructure:"per_mtok"`
}

// Calculator computes costs for provider usage.
type Calculator struct {
	rates Rates
}

// NewCalculator creates a Calculator with the given rates.
func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

// CheapRequest returns the flat cost of one cheap-provider call.
func (c *Calculator) CheapRequest() float64 {
	return c.rates.CheapPerRequest
}

// PreciseRequest returns the flat cost of one precise-provider call.
func (c *Calculator) PreciseRequest() float64 {
	return c.rates.PrecisePerRequest
}

// Claude computes the cost of a Claude call from reported token usage.
// Falls back to the flat precise rate for unknown models or zero usage.
func (c *Calculator) Claude(model string, input, output int64) float64 {
	rate, ok := c.rates.Anthropic[model]
	if !ok || input+output == 0 {
		return c.rates.PrecisePerRequest
	}
	return (float64(input)/1e6)*rate.Input + (float64(output)/1e6)*rate.Output
}

// Groq computes the cost of a Groq call from reported token usage.
// Falls back to the flat cheap rate when no usage was reported.
func (c *Calculator) Groq(tokens int) float64 {
	if tokens == 0 || c.rates.Groq.PerMTok == 0 {
		return c.rates.CheapPerRequest
	}
	return (float64(tokens) / 1e6) * c.rates.Groq.PerMTok
}

// DefaultRates returns the default pricing rates.
func DefaultRates() Rates {
	return Rates{
		CheapPerRequest:   0.002,
		PrecisePerRequest: 0.015,
		Anthropic: map[string]ModelRate{
			"claude-haiku-4-5-20251001":  {Input: 0.80, Output: 4.00},
			"claude-sonnet-4-5-20250929": {Input: 3.00, Output: 15.00},
		},
		Groq: GroqRate{PerMTok: 0.59},
	}
}

// LoadRates reads a YAML rates file, layering it over the defaults.
// An empty path returns the defaults unchanged.
func LoadRates(path string) (Rates, error) {
	rates := DefaultRates()
	if path == "" {
		return rates, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return rates, eris.Wrapf(err, "cost: read rates file %s", path)
	}
	if err := yaml.Unmarshal(data, &rates); err != nil {
		return rates, eris.Wrapf(err, "cost: parse rates file %s", path)
	}
	return rates, nil
}
