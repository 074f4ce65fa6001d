package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/receipt-cli/internal/classify"
	"github.com/sells-group/receipt-cli/internal/cost"
	"github.com/sells-group/receipt-cli/internal/metrics"
	"github.com/sells-group/receipt-cli/internal/provider"
	"github.com/sells-group/receipt-cli/internal/router"
	"github.com/sells-group/receipt-cli/internal/store"
)

// pipelineEnv holds the wired components shared by the commands.
type pipelineEnv struct {
	Router *router.Router
	audit  *store.AuditLog
}

// initPipeline wires the router from config.
func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	rates, err := cost.LoadRates(cfg.Pricing.RatesFile)
	if err != nil {
		return nil, eris.Wrap(err, "load pricing rates")
	}
	calc := cost.NewCalculator(rates)

	cheap, precise, err := provider.NewProviders(cfg, calc)
	if err != nil {
		return nil, err
	}

	engine := classify.NewEngine(classify.NewHeuristicAnalyzer(), classify.Config{
		BrightnessThreshold: cfg.Classify.BrightnessThreshold,
	})

	acc := metrics.NewAccumulator(metrics.Config{
		PreciseUnitCostUSD: rates.PrecisePerRequest,
		ReviewThreshold:    cfg.Routing.ReviewThreshold,
	})

	env := &pipelineEnv{}
	var audit router.AuditSink
	if cfg.Audit.Enabled {
		log, err := store.Open(cfg.Audit.Path)
		if err != nil {
			return nil, err
		}
		if err := log.Migrate(ctx); err != nil {
			log.Close()
			return nil, err
		}
		env.audit = log
		audit = log
	}

	env.Router = router.New(router.Config{
		SimpleConfidenceThreshold: cfg.Routing.SimpleConfidenceThreshold,
		FallbackEnabled:           cfg.Routing.FallbackEnabled,
	}, engine, cheap, precise, calc, acc, audit)

	return env, nil
}

// Close releases pipeline resources.
func (e *pipelineEnv) Close() {
	if e.audit != nil {
		_ = e.audit.Close()
	}
}
