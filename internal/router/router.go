// Package router orchestrates provider selection for receipt extraction:
// classify the image, try the cheap path when the verdict allows, fall back
// to the precise path on failure, and record every attempt.
package router

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/receipt-cli/internal/classify"
	"github.com/sells-group/receipt-cli/internal/cost"
	"github.com/sells-group/receipt-cli/internal/metrics"
	"github.com/sells-group/receipt-cli/internal/model"
	"github.com/sells-group/receipt-cli/internal/provider"
)

// DefaultSimpleConfidenceThreshold gates routing to the cheap provider.
const DefaultSimpleConfidenceThreshold = 0.85

// Config holds router thresholds and switches.
type Config struct {
	SimpleConfidenceThreshold float64
	FallbackEnabled           bool
}

// DefaultConfig returns the default router configuration.
func DefaultConfig() Config {
	return Config{
		SimpleConfidenceThreshold: DefaultSimpleConfidenceThreshold,
		FallbackEnabled:           true,
	}
}

// ProviderError names the provider whose failure surfaced to the caller.
type ProviderError struct {
	Provider model.ProviderID
	Err      error
}

func (e *ProviderError) Error() string {
	return string(e.Provider) + " provider failed: " + e.Err.Error()
}

func (e *ProviderError) Unwrap() error { return e.Err }

// AuditSink receives attempts for out-of-process inspection. Sink failures
// are logged, never propagated.
type AuditSink interface {
	RecordAttempt(ctx context.Context, att model.Attempt) error
}

// Router routes extraction requests between the cheap and precise providers.
// It owns the attempt history and metrics for its lifetime; concurrent
// callers may invoke Extract for independent requests.
type Router struct {
	cfg        Config
	classifier *classify.Engine
	cheap      provider.Cheap
	precise    provider.Precise
	calc       *cost.Calculator
	acc        *metrics.Accumulator
	audit      AuditSink
}

// New creates a router. audit may be nil.
func New(cfg Config, classifier *classify.Engine, cheap provider.Cheap, precise provider.Precise, calc *cost.Calculator, acc *metrics.Accumulator, audit AuditSink) *Router {
	if cfg.SimpleConfidenceThreshold <= 0 {
		cfg.SimpleConfidenceThreshold = DefaultSimpleConfidenceThreshold
	}
	return &Router{
		cfg:        cfg,
		classifier: classifier,
		cheap:      cheap,
		precise:    precise,
		calc:       calc,
		acc:        acc,
		audit:      audit,
	}
}

// Extract runs one receipt through the pipeline. On success exactly one
// result is returned and at least one attempt was recorded; on failure the
// error names the last provider that failed, and every attempt made on the
// way (including a failed cheap attempt that triggered fallback) is already
// in the history.
func (r *Router) Extract(ctx context.Context, req model.Request) (*model.ExtractionResult, error) {
	if req.CorrelationID == "" {
		req.CorrelationID = uuid.New().String()
	}

	verdict := r.classifier.Classify(ctx, req.ImageRef)

	// The cheap path operates on OCR text; without it the verdict cannot
	// make cheap extraction succeed.
	routeCheap := verdict.Simple &&
		verdict.Confidence >= r.cfg.SimpleConfidenceThreshold &&
		req.OCRText != ""

	zap.L().Info("route decision",
		zap.String("correlation_id", req.CorrelationID),
		zap.Bool("simple", verdict.Simple),
		zap.Float64("confidence", verdict.Confidence),
		zap.String("reason", verdict.Reason),
		zap.Bool("route_cheap", routeCheap),
	)

	if !routeCheap {
		res, err := r.attemptPrecise(ctx, req, true)
		if err != nil {
			return nil, &ProviderError{Provider: model.ProviderPrecise, Err: err}
		}
		return res, nil
	}

	res, cheapErr := r.attemptCheap(ctx, req)
	if cheapErr == nil {
		return res, nil
	}

	if !r.cfg.FallbackEnabled {
		return nil, &ProviderError{Provider: model.ProviderCheap, Err: cheapErr}
	}

	zap.L().Warn("cheap provider failed, falling back to precise",
		zap.String("correlation_id", req.CorrelationID),
		zap.Error(cheapErr),
	)

	res, preciseErr := r.attemptPrecise(ctx, req, false)
	if preciseErr != nil {
		return nil, &ProviderError{
			Provider: model.ProviderPrecise,
			Err:      eris.Wrapf(preciseErr, "all providers exhausted (cheap: %v)", cheapErr),
		}
	}
	return res, nil
}

func (r *Router) attemptCheap(ctx context.Context, req model.Request) (*model.ExtractionResult, error) {
	start := time.Now()
	res, err := r.cheap.Parse(ctx, req.OCRText, req.CorrelationID)
	r.record(ctx, model.Attempt{
		CorrelationID: req.CorrelationID,
		Provider:      model.ProviderCheap,
		Success:       err == nil,
		CostUSD:       attemptCost(res, err, r.calc.CheapRequest()),
		DurationMS:    time.Since(start).Milliseconds(),
		Result:        res,
		Err:           errReason(err),
	}, true)
	return res, err
}

func (r *Router) attemptPrecise(ctx context.Context, req model.Request, newRequest bool) (*model.ExtractionResult, error) {
	start := time.Now()
	res, err := r.precise.Extract(ctx, req.ImageRef, req.CorrelationID)
	r.record(ctx, model.Attempt{
		CorrelationID: req.CorrelationID,
		Provider:      model.ProviderPrecise,
		Success:       err == nil,
		CostUSD:       attemptCost(res, err, r.calc.PreciseRequest()),
		DurationMS:    time.Since(start).Milliseconds(),
		Result:        res,
		Err:           errReason(err),
	}, newRequest)
	return res, err
}

// attemptCost prefers the token-derived cost reported by the provider; a
// failed or unmetered attempt is charged the flat per-request rate.
func attemptCost(res *model.ExtractionResult, err error, flatRate float64) float64 {
	if err == nil && res != nil && res.CostUSD > 0 {
		return res.CostUSD
	}
	return flatRate
}

func (r *Router) record(ctx context.Context, att model.Attempt, newRequest bool) {
	if !att.Success {
		att.Result = nil
	}
	r.acc.Record(att, newRequest)

	if r.audit != nil {
		// Use a background-derived context so a cancelled request still
		// gets its attempt persisted.
		auditCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := r.audit.RecordAttempt(auditCtx, att); err != nil {
			zap.L().Warn("audit sink failed",
				zap.String("correlation_id", att.CorrelationID),
				zap.Error(err),
			)
		}
	}
}

// errReason renders an attempt error, marking cancellations so they remain
// distinguishable from provider failures in the history.
func errReason(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "cancelled: " + err.Error()
	}
	return err.Error()
}

// Metrics returns a snapshot of the accumulated metrics.
func (r *Router) Metrics() metrics.Metrics {
	return r.acc.Snapshot()
}

// History returns a copy of the attempt history.
func (r *Router) History() []model.Attempt {
	return r.acc.History()
}

// ResetMetrics clears the metrics and attempt history.
func (r *Router) ResetMetrics() {
	r.acc.Reset()
}
