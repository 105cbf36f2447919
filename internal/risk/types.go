package risk

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidProbability is returned for values outside [0, 1] or NaN.
var ErrInvalidProbability = errors.New("probability must be within [0, 1]")

// #region labels
const (
	LabelAtRisk = "At Risk"
	LabelNoRisk = "No Risk"
)

// #endregion labels

// #region probability
// Probability is the only internal scale: a fraction in [0, 1]. Percentages
// exist only at the display boundary via Percent and FormatPercent.
type Probability float64

// NewProbability validates p.
func NewProbability(p float64) (Probability, error) {
	if math.IsNaN(p) || p < 0 || p > 1 {
		if p > 1 && p <= 100 {
			return 0, fmt.Errorf("%w: got %v (looks like a percentage)", ErrInvalidProbability, p)
		}
		return 0, fmt.Errorf("%w: got %v", ErrInvalidProbability, p)
	}
	return Probability(p), nil
}

// Percent converts to the 0-100 display scale.
func (p Probability) Percent() float64 {
	return float64(p) * 100
}

// FormatPercent renders p with two decimals, e.g. 0.0059 -> "0.59%".
func FormatPercent(p Probability) string {
	return fmt.Sprintf("%.2f%%", p.Percent())
}

// #endregion probability

// #region config
// Config holds the decision threshold.
type Config struct {
	Threshold Probability
}

// DefaultConfig returns the threshold used by the attrition form.
func DefaultConfig() Config {
	return Config{Threshold: 0.35}
}

// Validate rejects thresholds outside the probability scale.
func (c Config) Validate() error {
	if _, err := NewProbability(float64(c.Threshold)); err != nil {
		return fmt.Errorf("threshold: %w", err)
	}
	return nil
}

// #endregion config

// #region assessment
// Assessment is the output of comparing a classifier probability to the threshold.
type Assessment struct {
	Probability Probability
	Threshold   Probability
	AtRisk      bool
	Label       string // LabelAtRisk | LabelNoRisk
	Reason      string
}

// ProbabilityPercent is the display form of Probability.
func (a Assessment) ProbabilityPercent() string { return FormatPercent(a.Probability) }

// ThresholdPercent is the display form of Threshold.
func (a Assessment) ThresholdPercent() string { return FormatPercent(a.Threshold) }

// #endregion assessment
