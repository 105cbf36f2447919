package web

import (
	"embed"
	"fmt"
	"html/template"
	"strconv"

	"github.com/danielpatrickdp/attrition-risk/internal/catalog"
	"github.com/danielpatrickdp/attrition-risk/internal/risk"
)

//go:embed templates/index.html
var templates embed.FS

func parseIndex() (*template.Template, error) {
	t, err := template.ParseFS(templates, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("parse index template: %w", err)
	}
	return t, nil
}

// #region view-model
type numericInput struct {
	Name    string
	Label   string
	Widget  string
	Min     string
	Max     string
	Step    string
	Value   string
	Options []string
}

type choiceInput struct {
	Name    string
	Label   string
	Options []string
	Value   string
}

type indexData struct {
	CatalogName      string
	Numeric          []numericInput
	Choices          []choiceInput
	ThresholdPercent string
	ChatEnabled      bool
}

// newIndexData lays the catalog out as form controls, each starting at its
// widget default.
func newIndexData(cat *catalog.Catalog, assessor *risk.Assessor, chatEnabled bool) indexData {
	data := indexData{
		CatalogName:      cat.Name(),
		ThresholdPercent: risk.FormatPercent(assessor.Threshold()),
		ChatEnabled:      chatEnabled,
	}

	for _, f := range cat.Numeric() {
		in := numericInput{
			Name:   f.Name,
			Label:  labelOr(f.Label, f.Name),
			Widget: string(f.Widget),
			Min:    num(f.Min),
			Max:    num(f.Max),
			Step:   "1",
			Value:  num(f.Default),
		}
		if f.Step > 0 {
			in.Step = num(f.Step)
		}
		for _, o := range f.Options {
			in.Options = append(in.Options, num(o))
		}
		data.Numeric = append(data.Numeric, in)
	}

	defaults := cat.WidgetDefaults()
	if flag, ok := cat.Flag(); ok {
		data.Choices = append(data.Choices, choiceInput{
			Name:    flag.Field,
			Label:   labelOr(flag.Label, flag.Field),
			Options: []string{flag.FalseOption, flag.TrueOption},
			Value:   fmt.Sprint(defaults[flag.Field]),
		})
	}
	for _, d := range cat.Dropdowns() {
		data.Choices = append(data.Choices, choiceInput{
			Name:    d.Field,
			Label:   labelOr(d.Label, d.Field),
			Options: d.Options,
			Value:   fmt.Sprint(defaults[d.Field]),
		})
	}
	return data
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func labelOr(label, name string) string {
	if label == "" {
		return name
	}
	return label
}

// #endregion view-model
