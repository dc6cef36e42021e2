package verdict

import (
	"fmt"
	"math"
)

// Confidence is a percentage on a single canonical 0-100 scale.
// Every component normalizes on construction, so downstream aggregation
// never has to guess whether a producer used 0-1 or 0-100.
type Confidence int

// FromUnit converts a 0-1 value to the canonical scale (0.82 -> 82).
func FromUnit(v float64) Confidence {
	return clamp(int(math.Round(v * 100)))
}

// FromPercent converts a value already on the 0-100 scale.
func FromPercent(v float64) Confidence {
	return clamp(int(math.Round(v)))
}

// FromModel normalizes a confidence taken from model output. Some
// prompts request 0-1, others 0-100; values at or below 1 are treated
// as unit scale.
func FromModel(v float64) Confidence {
	if v <= 1.0 {
		return FromUnit(v)
	}
	return FromPercent(v)
}

func clamp(n int) Confidence {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return Confidence(n)
}

// Mean averages confidences on the canonical scale.
func Mean(values []Confidence) Confidence {
	if len(values) == 0 {
		return 0
	}
	sum := 0
	for _, v := range values {
		sum += int(v)
	}
	return FromPercent(float64(sum) / float64(len(values)))
}

// String renders as an integer percentage, e.g. "82%".
func (c Confidence) String() string {
	return fmt.Sprintf("%d%%", int(c))
}
