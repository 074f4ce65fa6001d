// Package classify decides whether a receipt image is simple enough for the
// cheap extraction path or should go straight to the precise provider.
package classify

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// Confidence weights and penalties for the routing score.
const (
	brightnessWeight  = 0.4
	textDensityWeight = 0.3
	layoutWeight      = 0.3

	handwritingPenalty = 0.5
	fadingPenalty      = 0.7

	// DefaultBrightnessThreshold gates the simple classification.
	DefaultBrightnessThreshold = 0.6
)

// Features is the lightweight signal derived from a receipt image.
type Features struct {
	Brightness     float64 `json:"brightness"`
	TextDensity    float64 `json:"text_density"`
	StandardLayout bool    `json:"standard_layout"`
	Handwriting    bool    `json:"handwriting"`
	Fading         bool    `json:"fading"`
}

// Verdict is the classification outcome consumed by the router.
type Verdict struct {
	Simple     bool     `json:"simple"`
	Confidence float64  `json:"confidence"`
	Reason     string   `json:"reason"`
	Features   Features `json:"features"`
}

// Analyzer derives routing features from an image. Implementations may be
// heuristic or model-backed; the concrete vision algorithm is pluggable.
type Analyzer interface {
	Analyze(ctx context.Context, image []byte) (Features, error)
}

// Config holds classifier thresholds.
type Config struct {
	BrightnessThreshold float64
}

// DefaultConfig returns the default classifier configuration.
func DefaultConfig() Config {
	return Config{BrightnessThreshold: DefaultBrightnessThreshold}
}

// Engine classifies receipt images using features from an Analyzer.
type Engine struct {
	analyzer Analyzer
	cfg      Config
}

// NewEngine creates a classification engine.
func NewEngine(analyzer Analyzer, cfg Config) *Engine {
	if cfg.BrightnessThreshold <= 0 {
		cfg.BrightnessThreshold = DefaultBrightnessThreshold
	}
	return &Engine{analyzer: analyzer, cfg: cfg}
}

/// Classify derives features from the image and scores them. It never fails:
// if the analyzer cannot produce features, the lowest-confidence complex
// verdict is returned.
func (e *Engine) Classify(ctx context.Context, image []byte) Verdict {
	if e.analyzer == nil || len(image) == 0 {
		return unknownVerdict("no image signal available")
	}

	feats, err := e.analyzer.Analyze(ctx, image)
	if err != nil {
		zap.L().Debug("classify: analyzer unavailable, defaulting to complex",
			zap.Error(err),
		)
		return unknownVerdict("feature extraction unavailable")
	}

	return e.Score(feats)
}

// Score computes a verdict from an explicit feature snapshot. The same
// features always produce the same verdict.
func (e *Engine) Score(f Features) Verdict {
	layout := 0.0
	if f.StandardLayout {
		layout = 1.0
	}

	conf := f.Brightness*brightnessWeight + f.TextDensity*textDensityWeight + layout*layoutWeight
	if f.Handwriting {
		conf *= handwritingPenalty
	}
	if f.Fading {
		conf *= fadingPenalty
	}
	conf = clamp01(conf)

	simple := f.Brightness > e.cfg.BrightnessThreshold &&
		f.StandardLayout &&
		!f.Handwriting &&
		!f.Fading

	return Verdict{
		Simple:     simple,
		Confidence: conf,
		Reason:     reason(simple, f, e.cfg.BrightnessThreshold),
		Features:   f,
	}
}

func reason(simple bool, f Features, brightnessThreshold float64) string {
	if simple {
		return "bright, standard layout, machine printed"
	}

	var failed []string
	if f.Brightness <= brightnessThreshold {
		failed = append(failed, "low brightness")
	}
	if !f.StandardLayout {
		failed = append(failed, "non-standard layout")
	}
	if f.Handwriting {
		failed = append(failed, "handwriting detected")
	}
	if f.Fading {
		failed = append(failed, "faded print")
	}
	return strings.Join(failed, ", ")
}

func unknownVerdict(why string) Verdict {
	return Verdict{Simple: false, Confidence: 0, Reason: why}
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
