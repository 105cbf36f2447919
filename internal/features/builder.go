package features

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/danielpatrickdp/attrition-risk/internal/catalog"
)

// #region selection
// Selection maps an input field to the value the user picked. Values may be
// numbers, numeric strings (HTML forms) or option strings.
type Selection map[string]any

// #endregion selection

// #region builder
// Builder turns selections into rows matching one catalog.
type Builder struct {
	cat *catalog.Catalog
}

// NewBuilder returns a builder bound to cat.
func NewBuilder(cat *catalog.Catalog) *Builder {
	return &Builder{cat: cat}
}

// Catalog returns the catalog the builder targets.
func (b *Builder) Catalog() *catalog.Catalog { return b.cat }

// Build maps sel onto a row. A selection that resolves to no catalog column
// fails with *MismatchError, except a dropdown's reference option, which by
// declaration has no column and leaves the group at its defaults.
func (b *Builder) Build(sel Selection) (Row, error) {
	return b.build(sel, true)
}

// BuildLenient is Build without the mismatch failure: unresolved keys are
// recorded in Row.Skipped and the row keeps their defaults. Coercion and
// validation errors still fail.
func (b *Builder) BuildLenient(sel Selection) (Row, error) {
	return b.build(sel, false)
}

func (b *Builder) build(sel Selection, strict bool) (Row, error) {
	values := b.cat.Defaults()
	var skipped []string

	miss := func(field, key string) error {
		if strict {
			return &MismatchError{Field: field, Key: key}
		}
		skipped = append(skipped, key)
		return nil
	}

	// Sorted so the first reported error does not depend on map order.
	fields := make([]string, 0, len(sel))
	for f := range sel {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	flag, hasFlag := b.cat.Flag()
	for _, field := range fields {
		raw := sel[field]

		if hasFlag && field == flag.Field {
			on, err := flagValue(flag, raw)
			if err != nil {
				return Row{}, err
			}
			idx, _ := b.cat.Index(flag.Column)
			values[idx] = on
			continue
		}

		if drop, ok := b.cat.Dropdown(field); ok {
			opt, err := optionValue(drop, raw)
			if err != nil {
				return Row{}, err
			}
			if opt == drop.Reference {
				continue
			}
			key := catalog.CompositeKey(field, opt)
			idx, ok := b.cat.Index(key)
			if !ok {
				if err := miss(field, key); err != nil {
					return Row{}, err
				}
				continue
			}
			values[idx] = 1
			continue
		}

		if spec, ok := b.cat.NumericField(field); ok {
			v, err := numericValue(spec, raw)
			if err != nil {
				return Row{}, err
			}
			idx, _ := b.cat.Index(field)
			values[idx] = v
			continue
		}

		// Undeclared but verbatim catalog columns are accepted as direct
		// numeric input, unless they belong to an encoded group.
		if idx, ok := b.cat.Index(field); ok {
			if _, encoded := b.cat.Encoded(field); !encoded {
				v, err := coerce(field, raw)
				if err != nil {
					return Row{}, err
				}
				values[idx] = v
				continue
			}
		}

		if err := miss(field, field); err != nil {
			return Row{}, err
		}
	}

	cols := b.cat.Features()
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Row{}, &CoercionError{Field: cols[i], Value: v}
		}
	}

	return Row{cat: b.cat, values: values, skipped: skipped}, nil
}

// #endregion builder

// #region coercion
func coerce(field string, raw any) (float64, error) {
	var v float64
	switch x := raw.(type) {
	case float64:
		v = x
	case float32:
		v = float64(x)
	case int:
		v = float64(x)
	case int8:
		v = float64(x)
	case int16:
		v = float64(x)
	case int32:
		v = float64(x)
	case int64:
		v = float64(x)
	case uint:
		v = float64(x)
	case uint8:
		v = float64(x)
	case uint16:
		v = float64(x)
	case uint32:
		v = float64(x)
	case uint64:
		v = float64(x)
	case bool:
		if x {
			v = 1
		}
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, &CoercionError{Field: field, Value: raw}
		}
		v = f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, &CoercionError{Field: field, Value: raw}
		}
		v = f
	default:
		return 0, &CoercionError{Field: field, Value: raw}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &CoercionError{Field: field, Value: raw}
	}
	return v, nil
}

func numericValue(spec catalog.NumericField, raw any) (float64, error) {
	v, err := coerce(spec.Name, raw)
	if err != nil {
		return 0, err
	}
	if v < spec.Min || v > spec.Max {
		return 0, &ValidationError{
			Field:  spec.Name,
			Value:  v,
			Reason: fmt.Sprintf("is outside [%v, %v]", spec.Min, spec.Max),
			err:    ErrOutOfRange,
		}
	}
	if spec.Widget == catalog.WidgetSelect {
		for _, o := range spec.Options {
			if o == v {
				return v, nil
			}
		}
		return 0, &ValidationError{Field: spec.Name, Value: v, Reason: "is not a listed option", err: ErrInvalidOption}
	}
	return v, nil
}

func optionString(raw any) (string, bool) {
	switch x := raw.(type) {
	case string:
		return strings.TrimSpace(x), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case int:
		return strconv.Itoa(x), true
	case json.Number:
		return x.String(), true
	default:
		return "", false
	}
}

func optionValue(drop catalog.Dropdown, raw any) (string, error) {
	s, ok := optionString(raw)
	if ok {
		for _, o := range drop.Options {
			if o == s {
				return s, nil
			}
		}
	}
	return "", &ValidationError{Field: drop.Field, Value: raw, Reason: "is not an allowed option", err: ErrInvalidOption}
}

func flagValue(flag catalog.FlagField, raw any) (float64, error) {
	if b, ok := raw.(bool); ok {
		if b {
			return 1, nil
		}
		return 0, nil
	}
	s, _ := optionString(raw)
	switch s {
	case flag.TrueOption:
		return 1, nil
	case flag.FalseOption:
		return 0, nil
	}
	return 0, &ValidationError{Field: flag.Field, Value: raw, Reason: "is not an allowed option", err: ErrInvalidOption}
}

// #endregion coercion
