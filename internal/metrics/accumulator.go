// Package metrics maintains running cost and accuracy statistics over the
// router's attempt history.
package metrics

import (
	"sync"

	"github.com/sells-group/receipt-cli/internal/model"
)

// DefaultReviewThreshold flags results below this confidence for manual review.
const DefaultReviewThreshold = 0.95

// Metrics is an immutable snapshot of the accumulated statistics. All rates
// report 0 when no requests have been recorded.
type Metrics struct {
	TotalRequests    int     `json:"total_requests"`
	CheapRouted      int     `json:"cheap_routed"`
	PreciseRouted    int     `json:"precise_routed"`
	Fallbacks        int     `json:"fallbacks"`
	CheapSuccessRate float64 `json:"cheap_success_rate"`
	TotalCostUSD     float64 `json:"total_cost_usd"`
	AvgCostUSD       float64 `json:"avg_cost_usd"`
	SavingsUSD       float64 `json:"savings_usd"`
	ManualReviewRate float64 `json:"manual_review_rate"`
}

// Config holds the constants metrics derivations depend on.
type Config struct {
	// PreciseUnitCostUSD is the all-precise baseline cost per request,
	// used for the savings computation.
	PreciseUnitCostUSD float64

	// ReviewThreshold is the confidence floor below which a result counts
	// toward the manual-review rate.
	ReviewThreshold float64
}

// Accumulator incrementally updates metrics as attempts are recorded. It owns
// the append-only attempt history and is safe for concurrent use: every
// mutation happens under a single mutex so concurrent requests cannot
// interleave partial updates.
type Accumulator struct {
	mu  sync.Mutex
	cfg Config

	history        []model.Attempt
	totalRequests  int
	cheapRouted    int
	preciseRouted  int
	fallbacks      int
	cheapAttempts  int
	cheapSuccesses int
	totalCostUSD   float64
	reviewFlagged  int
}

// NewAccumulator creates an empty accumulator.
func NewAccumulator(cfg Config) *Accumulator {
	if cfg.ReviewThreshold <= 0 {
		cfg.ReviewThreshold = DefaultReviewThreshold
	}
	return &Accumulator{cfg: cfg}
}

// Record appends an attempt and updates the derived counters. newRequest is
// true for the first attempt of a logical request and false for a fallback
// attempt, so fallbacks attribute to the originating request instead of
// inflating the request count.
func (a *Accumulator) Record(att model.Attempt, newRequest bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.history = append(a.history, att)
	a.totalCostUSD += att.CostUSD

	if newRequest {
		a.totalRequests++
		switch att.Provider {
		case model.ProviderCheap:
			a.cheapRouted++
		case model.ProviderPrecise:
			a.preciseRouted++
		}
	} else {
		a.fallbacks++
	}

	if att.Provider == model.ProviderCheap {
		a.cheapAttempts++
		if att.Success {
			a.cheapSuccesses++
		}
	}

	if att.Success && att.Result.EffectiveConfidence() < a.cfg.ReviewThreshold {
		a.reviewFlagged++
	}
}

// Snapshot returns a value copy of the current metrics. Callers cannot mutate
// accumulator state through it, and repeated calls without intervening
// records return equal values.
func (a *Accumulator) Snapshot() Metrics {
	a.mu.Lock()
	defer a.mu.Unlock()

	m := Metrics{
		TotalRequests: a.totalRequests,
		CheapRouted:   a.cheapRouted,
		PreciseRouted: a.preciseRouted,
		Fallbacks:     a.fallbacks,
		TotalCostUSD:  a.totalCostUSD,
	}
	if a.cheapAttempts > 0 {
		m.CheapSuccessRate = float64(a.cheapSuccesses) / float64(a.cheapAttempts)
	}
	if a.totalRequests > 0 {
		m.AvgCostUSD = a.totalCostUSD / float64(a.totalRequests)
		m.SavingsUSD = float64(a.totalRequests)*a.cfg.PreciseUnitCostUSD - a.totalCostUSD
		m.ManualReviewRate = float64(a.reviewFlagged) / float64(a.totalRequests)
	}
	return m
}

// History returns a copy of the attempt log in append order.
func (a *Accumulator) History() []model.Attempt {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]model.Attempt, len(a.history))
	copy(out, a.history)
	return out
}

// Reset clears all counters and the attempt history, starting a fresh
// measurement window.
func (a *Accumulator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.history = nil
	a.totalRequests = 0
	a.cheapRouted = 0
	a.preciseRouted = 0
	a.fallbacks = 0
	a.cheapAttempts = 0
	a.cheapSuccesses = 0
	a.totalCostUSD = 0
	a.reviewFlagged = 0
}
