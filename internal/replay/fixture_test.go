package replay

import (
	"os"
	"path/filepath"
	"testing"
)

// #region fixture-tests

// runFixture loads a fixture, replays it and fails on any drift. Primary
// regression check: if the catalog encoding or threshold changes, this
// catches it.
func runFixture(t *testing.T, name string) []Result {
	t.Helper()
	f, err := LoadFixture(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}
	builder, assessor, cases, err := f.Setup()
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}

	results := Replay(builder, assessor, cases)
	if len(results) != len(f.Cases) {
		t.Fatalf("expected %d results, got %d", len(f.Cases), len(results))
	}
	for i, r := range results {
		if r.CaseID != f.Cases[i].ID {
			t.Errorf("case %d: expected id=%s, got %s", i, f.Cases[i].ID, r.CaseID)
		}
		if r.Err != nil {
			t.Errorf("case %s: %v", r.CaseID, r.Err)
			continue
		}
		for _, m := range r.Mismatches {
			t.Errorf("case %s: %s", r.CaseID, m)
		}
	}
	return results
}

func TestFixture_AttritionSessions(t *testing.T) {
	results := runFixture(t, "attrition_sessions.json")

	s := Summarize(results)
	if !s.OK() {
		t.Fatalf("expected all cases to pass, got %+v", s)
	}
	if s.AtRisk != 2 {
		t.Errorf("expected 2 at-risk cases, got %d", s.AtRisk)
	}
}

func TestFixture_ToyScenario(t *testing.T) {
	results := runFixture(t, "toy_scenario.json")

	if got := results[0].Assessment.ProbabilityPercent(); got != "0.59%" {
		t.Errorf("expected 0.59%%, got %s", got)
	}
	if len(results[1].Skipped) != 1 || results[1].Skipped[0] != "Dept_IT" {
		t.Errorf("expected Dept_IT skipped, got %v", results[1].Skipped)
	}
}

func TestLoadFixture_Errors(t *testing.T) {
	if _, err := LoadFixture(filepath.Join("testdata", "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFixture(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestFixture_SetupErrors(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "missing_catalog.json")
	os.WriteFile(path, []byte(`{"catalog": "nope.yaml", "cases": []}`), 0o644)
	f, err := LoadFixture(path)
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}
	if _, _, _, err := f.Setup(); err == nil {
		t.Fatal("expected missing catalog error")
	}

	path = filepath.Join(dir, "percent_threshold.json")
	os.WriteFile(path, []byte(`{"threshold": 35, "cases": []}`), 0o644)
	f, err = LoadFixture(path)
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}
	if _, _, _, err := f.Setup(); err == nil {
		t.Fatal("expected threshold error")
	}
}

func TestFixture_DefaultThreshold(t *testing.T) {
	f := &Fixture{}
	if got := f.RiskConfig().Threshold; got != 0.35 {
		t.Fatalf("expected default threshold 0.35, got %v", got)
	}
}

func TestFixture_ZeroThresholdIsKept(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zero.json")
	os.WriteFile(path, []byte(`{"threshold": 0, "cases": [
		{"id": "any", "selection": {}, "probability": 0, "expected_label": "At Risk"}
	]}`), 0o644)

	f, err := LoadFixture(path)
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}
	if f.Threshold == nil {
		t.Fatal("expected explicit threshold to be kept")
	}
	builder, assessor, cases, err := f.Setup()
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if got := assessor.Threshold(); got != 0 {
		t.Fatalf("expected threshold 0, got %v", got)
	}
	s := Summarize(Replay(builder, assessor, cases))
	if !s.OK() || s.AtRisk != 1 {
		t.Fatalf("expected zero threshold to flag every case, got %+v", s)
	}
}

// #endregion fixture-tests
