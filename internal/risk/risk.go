package risk

import "fmt"

// #region assessor
// Assessor labels classifier probabilities against a fixed threshold.
type Assessor struct {
	config Config
}

// NewAssessor creates an assessor. The config is validated.
func NewAssessor(config Config) (*Assessor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Assessor{config: config}, nil
}

// Threshold returns the configured threshold.
func (a *Assessor) Threshold() Probability {
	return a.config.Threshold
}

// Assess labels p "At Risk" iff p >= threshold. Both sides stay on the
// probability scale.
func (a *Assessor) Assess(p float64) (Assessment, error) {
	prob, err := NewProbability(p)
	if err != nil {
		return Assessment{}, err
	}
	t := a.config.Threshold

	if prob >= t {
		return Assessment{
			Probability: prob,
			Threshold:   t,
			AtRisk:      true,
			Label:       LabelAtRisk,
			Reason:      fmt.Sprintf("probability %s >= threshold %s", FormatPercent(prob), FormatPercent(t)),
		}, nil
	}
	return Assessment{
		Probability: prob,
		Threshold:   t,
		AtRisk:      false,
		Label:       LabelNoRisk,
		Reason:      fmt.Sprintf("probability %s < threshold %s", FormatPercent(prob), FormatPercent(t)),
	}, nil
}

// #endregion assessor

// #region model-label
// ModelLabel renders the classifier's own binary prediction.
func ModelLabel(label int) string {
	if label == 1 {
		return "Attrition (Yes)"
	}
	return "No Attrition"
}

// #endregion model-label
