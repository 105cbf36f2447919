package risk

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func mustAssessor(t *testing.T, threshold Probability) *Assessor {
	t.Helper()
	a, err := NewAssessor(Config{Threshold: threshold})
	if err != nil {
		t.Fatalf("NewAssessor: %v", err)
	}
	return a
}

func TestAssessNoRiskOnSmallProbability(t *testing.T) {
	a := mustAssessor(t, DefaultConfig().Threshold)

	got, err := a.Assess(0.0059)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.AtRisk {
		t.Fatalf("0.0059 against 0.35 should not be at risk: %s", got.Reason)
	}
	if got.Label != LabelNoRisk {
		t.Fatalf("expected %q, got %q", LabelNoRisk, got.Label)
	}
	if got.ProbabilityPercent() != "0.59%" {
		t.Errorf("expected 0.59%%, got %s", got.ProbabilityPercent())
	}
	if got.ThresholdPercent() != "35.00%" {
		t.Errorf("expected 35.00%%, got %s", got.ThresholdPercent())
	}
}

func TestPercentConversionDirection(t *testing.T) {
	p := Probability(0.0059)
	if math.Abs(p.Percent()-0.59) > 1e-12 {
		t.Fatalf("expected 0.59, got %v", p.Percent())
	}
	// Converting must never shrink the number.
	if p.Percent() < float64(p) {
		t.Fatal("percent should be probability * 100")
	}
}

func TestAssessAtThresholdIsAtRisk(t *testing.T) {
	a := mustAssessor(t, 0.35)

	got, err := a.Assess(0.35)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.AtRisk || got.Label != LabelAtRisk {
		t.Fatalf("p == threshold should be at risk, got %+v", got)
	}
	if !strings.Contains(got.Reason, ">=") {
		t.Errorf("reason should explain the comparison: %s", got.Reason)
	}
}

func TestAssessAboveThreshold(t *testing.T) {
	a := mustAssessor(t, 0.35)

	got, err := a.Assess(0.82)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.AtRisk {
		t.Fatal("expected at risk")
	}
	if got.Probability != 0.82 || got.Threshold != 0.35 {
		t.Fatalf("unexpected scale: %+v", got)
	}
}

func TestAssessRejectsInvalidProbability(t *testing.T) {
	a := mustAssessor(t, 0.35)

	for _, p := range []float64{-0.1, 1.01, 59, math.NaN()} {
		if _, err := a.Assess(p); !errors.Is(err, ErrInvalidProbability) {
			t.Errorf("Assess(%v): expected ErrInvalidProbability, got %v", p, err)
		}
	}
}

func TestConfigRejectsPercentThreshold(t *testing.T) {
	_, err := NewAssessor(Config{Threshold: 35})
	if err == nil {
		t.Fatal("expected error for threshold on percent scale")
	}
	if !strings.Contains(err.Error(), "percentage") {
		t.Errorf("error should hint at the percent scale: %v", err)
	}
}

func TestModelLabel(t *testing.T) {
	if ModelLabel(1) != "Attrition (Yes)" {
		t.Errorf("unexpected label for 1: %s", ModelLabel(1))
	}
	if ModelLabel(0) != "No Attrition" {
		t.Errorf("unexpected label for 0: %s", ModelLabel(0))
	}
}
