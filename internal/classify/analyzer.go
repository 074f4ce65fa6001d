package classify

import (
	"context"

	"github.com/rotisserie/eris"
)

// HeuristicAnalyzer derives features from raw image bytes by sampling.
// It is a stand-in for a real vision model: brightness and text density come
// from byte statistics, layout and defect flags stay conservative so that
// borderline receipts route to the precise provider.
type HeuristicAnalyzer struct{}

// NewHeuristicAnalyzer creates the default byte-sampling analyzer.
func NewHeuristicAnalyzer() *HeuristicAnalyzer {
	return &HeuristicAnalyzer{}
}

const analyzerSampleStride = 64

// Analyze estimates features from byte statistics.
func (a *HeuristicAnalyzer) Analyze(_ context.Context, image []byte) (Features, error) {
	if len(image) == 0 {
		return Features{}, eris.New("classify: empty image")
	}

	var sum, transitions, samples int
	prev := image[0]
	for i := 0; i < len(image); i += analyzerSampleStride {
		b := image[i]
		sum += int(b)
		if diff(b, prev) > 96 {
			transitions++
		}
		prev = b
		samples++
	}

	brightness := float64(sum) / float64(samples) / 255.0
	density := float64(transitions) / float64(samples)
	if density > 1 {
		density = 1
	}

	return Features{
		Brightness:  brightness,
		TextDensity: density,
		// Layout and defect detection need a real vision pass; stay
		// conservative and let the precise provider handle these.
		StandardLayout: false,
		Handwriting:    false,
		Fading:         brightness < 0.2,
	}, nil
}

func diff(a, b byte) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}

// StaticAnalyzer returns a fixed feature snapshot for every image. Used by
// the static provider mode and in tests where routing must be deterministic.
type StaticAnalyzer struct {
	Features Features
}

// Analyze returns the configured features unchanged.
func (a *StaticAnalyzer) Analyze(_ context.Context, _ []byte) (Features, error) {
	return a.Features, nil
}
