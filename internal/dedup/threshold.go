// ABOUTME: Resolves the similarity threshold used to decide duplicates.
// ABOUTME: Explicit value beats the environment, which beats the default; result is clamped.
package dedup

import (
	"math"
	"os"
	"strconv"
	"strings"
)

// DefaultThreshold is calibrated for nomic-embed-text vectors.
const DefaultThreshold = 0.85

// ThresholdEnvVar overrides DefaultThreshold when no explicit value is given.
const ThresholdEnvVar = "AGENTIC_CONTEXT_DEDUP_THRESHOLD"

// LookupEnvFunc has the signature of os.LookupEnv.
type LookupEnvFunc func(key string) (string, bool)

// ResolveThreshold picks the active threshold. The environment is read at
// call time, not cached. Values that do not parse, or parse to NaN, are
// ignored. The result is always within [0, 1].
func ResolveThreshold(explicit *float64, lookup LookupEnvFunc) float64 {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	t := DefaultThreshold
	switch {
	case explicit != nil && !math.IsNaN(*explicit):
		t = *explicit
	default:
		if raw, ok := lookup(ThresholdEnvVar); ok {
			if v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil && !math.IsNaN(v) {
				t = v
			}
		}
	}
	return clamp(t)
}

func clamp(t float64) float64 {
	return math.Max(0, math.Min(1, t))
}
