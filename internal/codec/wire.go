package codec

import (
	"errors"
	"fmt"
	"math"

	"google.golang.org/protobuf/types/known/structpb"
)

// Wire contract shared with the Python sidecar. Messages are
// google.protobuf.Struct:
//
//	request:          {"columns": [string...], "values": [number...]}
//	Predict response: {"label": 0|1, "probability": number}
//	Explain response: {"base_value": number, "attributions": [number...]}
const (
	serviceName   = "attrition.v1.ScoringService"
	predictMethod = "/" + serviceName + "/Predict"
	explainMethod = "/" + serviceName + "/Explain"
)

// ErrMalformed marks a message that does not follow the wire contract.
var ErrMalformed = errors.New("malformed scoring message")

// #region encode
// EncodeRow builds a scoring request.
func EncodeRow(columns []string, values []float64) (*structpb.Struct, error) {
	if len(columns) != len(values) {
		return nil, fmt.Errorf("%w: %d columns, %d values", ErrMalformed, len(columns), len(values))
	}
	cols := make([]any, len(columns))
	for i, c := range columns {
		cols[i] = c
	}
	vals := make([]any, len(values))
	for i, v := range values {
		vals[i] = v
	}
	s, err := structpb.NewStruct(map[string]any{"columns": cols, "values": vals})
	if err != nil {
		return nil, fmt.Errorf("encode row: %w", err)
	}
	return s, nil
}

// NewPredictResponse builds a Predict response. Used by sidecar implementations.
func NewPredictResponse(label int, probability float64) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{"label": label, "probability": probability})
}

// NewExplainResponse builds an Explain response. Used by sidecar implementations.
func NewExplainResponse(baseValue float64, attributions []float64) (*structpb.Struct, error) {
	attrs := make([]any, len(attributions))
	for i, a := range attributions {
		attrs[i] = a
	}
	return structpb.NewStruct(map[string]any{"base_value": baseValue, "attributions": attrs})
}

// #endregion encode

// #region decode
// DecodeRow parses a scoring request.
func DecodeRow(s *structpb.Struct) ([]string, []float64, error) {
	colList, err := listField(s, "columns")
	if err != nil {
		return nil, nil, err
	}
	valList, err := listField(s, "values")
	if err != nil {
		return nil, nil, err
	}
	if len(colList) != len(valList) {
		return nil, nil, fmt.Errorf("%w: %d columns, %d values", ErrMalformed, len(colList), len(valList))
	}
	columns := make([]string, len(colList))
	for i, v := range colList {
		sv, ok := v.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return nil, nil, fmt.Errorf("%w: column %d is not a string", ErrMalformed, i)
		}
		columns[i] = sv.StringValue
	}
	values, err := numbers(valList, "values")
	if err != nil {
		return nil, nil, err
	}
	return columns, values, nil
}

// DecodePrediction parses a Predict response.
func DecodePrediction(s *structpb.Struct) (Prediction, error) {
	label, err := numberField(s, "label")
	if err != nil {
		return Prediction{}, err
	}
	if label != 0 && label != 1 {
		return Prediction{}, fmt.Errorf("%w: label %v is not binary", ErrMalformed, label)
	}
	p, err := numberField(s, "probability")
	if err != nil {
		return Prediction{}, err
	}
	if p < 0 || p > 1 {
		return Prediction{}, fmt.Errorf("%w: probability %v outside [0, 1]", ErrMalformed, p)
	}
	return Prediction{Label: int(label), Probability: p}, nil
}

// DecodeExplanation parses an Explain response and checks it covers n columns.
func DecodeExplanation(s *structpb.Struct, n int) (Explanation, error) {
	list, err := listField(s, "attributions")
	if err != nil {
		return Explanation{}, err
	}
	if len(list) != n {
		return Explanation{}, fmt.Errorf("%w: %d attributions for %d columns", ErrMalformed, len(list), n)
	}
	attrs, err := numbers(list, "attributions")
	if err != nil {
		return Explanation{}, err
	}
	var base float64
	if _, ok := s.GetFields()["base_value"]; ok {
		if base, err = numberField(s, "base_value"); err != nil {
			return Explanation{}, err
		}
	}
	return Explanation{BaseValue: base, Attributions: attrs}, nil
}

// #endregion decode

// #region helpers
func numberField(s *structpb.Struct, name string) (float64, error) {
	v, ok := s.GetFields()[name]
	if !ok {
		return 0, fmt.Errorf("%w: missing %q", ErrMalformed, name)
	}
	nv, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok || math.IsNaN(nv.NumberValue) || math.IsInf(nv.NumberValue, 0) {
		return 0, fmt.Errorf("%w: %q is not a finite number", ErrMalformed, name)
	}
	return nv.NumberValue, nil
}

func listField(s *structpb.Struct, name string) ([]*structpb.Value, error) {
	v, ok := s.GetFields()[name]
	if !ok {
		return nil, fmt.Errorf("%w: missing %q", ErrMalformed, name)
	}
	lv, ok := v.GetKind().(*structpb.Value_ListValue)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a list", ErrMalformed, name)
	}
	return lv.ListValue.GetValues(), nil
}

func numbers(list []*structpb.Value, name string) ([]float64, error) {
	out := make([]float64, len(list))
	for i, v := range list {
		nv, ok := v.GetKind().(*structpb.Value_NumberValue)
		if !ok || math.IsNaN(nv.NumberValue) || math.IsInf(nv.NumberValue, 0) {
			return nil, fmt.Errorf("%w: %s[%d] is not a finite number", ErrMalformed, name, i)
		}
		out[i] = nv.NumberValue
	}
	return out, nil
}

// #endregion helpers
