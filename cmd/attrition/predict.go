package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/attrition-risk/internal/catalog"
	"github.com/danielpatrickdp/attrition-risk/internal/explain"
	"github.com/danielpatrickdp/attrition-risk/internal/features"
	"github.com/danielpatrickdp/attrition-risk/internal/logging"
	"github.com/danielpatrickdp/attrition-risk/internal/risk"
)

var (
	predictSets    []string
	predictExplain bool
	predictTop     int
	predictJSON    bool
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Score one employee from the terminal",
	Long: `Builds a feature row from --set Field=Value pairs and scores it. Unset fields
start at the same defaults as the web form.

Examples:
  attrition predict --set Age=29 --set OverTime=Yes --set Department=Sales
  attrition predict --set MonthlyIncome=2500 --explain --top 10`,
	RunE: runPredict,
}

func init() {
	predictCmd.Flags().StringArrayVar(&predictSets, "set", nil, "Field=Value (repeatable)")
	predictCmd.Flags().BoolVar(&predictExplain, "explain", false, "also print SHAP feature contributions")
	predictCmd.Flags().IntVar(&predictTop, "top", 10, "number of contributions to show with --explain (0 = all)")
	predictCmd.Flags().BoolVar(&predictJSON, "json", false, "output as JSON")
}

// #region predict
type predictOutput struct {
	ID                 string                 `json:"id,omitempty"`
	ModelLabel         string                 `json:"model_label"`
	Probability        float64                `json:"probability"`
	ProbabilityPercent string                 `json:"probability_percent"`
	ThresholdPercent   string                 `json:"threshold_percent"`
	RiskLabel          string                 `json:"risk_label"`
	AtRisk             bool                   `json:"at_risk"`
	Row                features.Row           `json:"row"`
	Contributions      []explain.Contribution `json:"contributions,omitempty"`
}

func runPredict(cmd *cobra.Command, args []string) error {
	builder, err := newBuilder(cfg)
	if err != nil {
		return err
	}
	sel, err := formSelection(builder.Catalog(), predictSets)
	if err != nil {
		return err
	}
	row, err := builder.Build(sel)
	if err != nil {
		return err
	}
	assessor, err := newAssessor(cfg)
	if err != nil {
		return err
	}
	scorer, err := dialScorer(cfg)
	if err != nil {
		return err
	}
	defer scorer.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.ScorerTimeout())
	defer cancel()

	pred, err := scorer.Predict(ctx, row)
	if err != nil {
		return err
	}
	a, err := assessor.Assess(pred.Probability)
	if err != nil {
		return fmt.Errorf("scoring service returned %w", err)
	}

	out := predictOutput{
		ModelLabel:         risk.ModelLabel(pred.Label),
		Probability:        float64(a.Probability),
		ProbabilityPercent: a.ProbabilityPercent(),
		ThresholdPercent:   a.ThresholdPercent(),
		RiskLabel:          a.Label,
		AtRisk:             a.AtRisk,
		Row:                row,
	}

	if predictExplain {
		exp, err := scorer.Explain(ctx, row)
		if err != nil {
			return err
		}
		out.Contributions, err = explain.Rank(row.Columns(), exp.Attributions, predictTop)
		if err != nil {
			return err
		}
	}

	recorder, closeStore, err := openRecorder(cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	rowJSON, _ := row.MarshalJSON()
	selJSON, _ := json.Marshal(sel)
	out.ID = recorder.Record(logging.PredictionEntry{
		Source:        logging.SourceCLI,
		SelectionJSON: string(selJSON),
		RowJSON:       string(rowJSON),
		Label:         pred.Label,
		Probability:   float64(a.Probability),
		Threshold:     float64(a.Threshold),
		AtRisk:        a.AtRisk,
		Reason:        a.Reason,
	})

	w := cmd.OutOrStdout()
	if predictJSON {
		return printJSON(w, out)
	}
	printPrediction(w, out)
	return nil
}

// formSelection starts from the form's widget defaults and applies sets.
func formSelection(cat *catalog.Catalog, sets []string) (features.Selection, error) {
	sel := features.Selection(cat.WidgetDefaults())
	overrides, err := parseSets(sets)
	if err != nil {
		return nil, err
	}
	for k, v := range overrides {
		sel[k] = v
	}
	return sel, nil
}

// parseSets turns Field=Value pairs into a selection. Values stay strings;
// the builder coerces numeric fields.
func parseSets(sets []string) (features.Selection, error) {
	sel := make(features.Selection, len(sets))
	for _, s := range sets {
		k, v, ok := strings.Cut(s, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --set %q: want Field=Value", s)
		}
		sel[k] = strings.TrimSpace(v)
	}
	return sel, nil
}

// #endregion predict

// #region output
var (
	headingStyle = lipgloss.NewStyle().Bold(true)
	atRiskStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#d62728"))
	noRiskStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#2ca02c"))
)

func printPrediction(w io.Writer, out predictOutput) {
	label := noRiskStyle.Render(out.RiskLabel)
	if out.AtRisk {
		label = atRiskStyle.Render(out.RiskLabel)
	}
	fmt.Fprintln(w, headingStyle.Render("Prediction Result"))
	fmt.Fprintf(w, "  Prediction:               %s\n", out.ModelLabel)
	fmt.Fprintf(w, "  Probability of Attrition: %s\n", out.ProbabilityPercent)
	fmt.Fprintf(w, "  Risk (threshold %s): %s\n", out.ThresholdPercent, label)
	if len(out.Contributions) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, headingStyle.Render("Feature Importance (SHAP)"))
		fmt.Fprint(w, explain.RenderText(out.Contributions, 30))
	}
}

func printJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

// #endregion output
