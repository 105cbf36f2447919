package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultSpec []byte

// ErrInvalid marks a catalog that failed load-time validation.
var ErrInvalid = errors.New("invalid catalog")

// #region catalog-struct
// Catalog is the immutable schema a classifier row must follow: ordered
// feature columns, a complete DefaultValues vector, and the form fields that
// map user input onto those columns. Build one with New, Parse, Load or
// Default; accessors return copies.
type Catalog struct {
	name      string
	features  []string
	index     map[string]int
	defaults  []float64
	numeric   []NumericField
	numIndex  map[string]int
	flag      *FlagField
	dropdowns []Dropdown
	dropIndex map[string]int
	grouped   map[string]string // one-hot or flag column -> owning field
	unmapped  []UnmappedOption
}

// #endregion catalog-struct

// #region constructors
// New validates spec and returns the catalog it describes.
func New(spec Spec) (*Catalog, error) {
	c := &Catalog{
		name:      spec.Name,
		features:  slices.Clone(spec.Features),
		index:     make(map[string]int, len(spec.Features)),
		numIndex:  make(map[string]int, len(spec.Numeric)),
		dropIndex: make(map[string]int, len(spec.Dropdowns)),
		grouped:   make(map[string]string),
	}
	if err := c.loadFeatures(); err != nil {
		return nil, err
	}
	if err := c.loadDefaults(spec.Defaults); err != nil {
		return nil, err
	}
	if err := c.loadFlag(spec.Flag); err != nil {
		return nil, err
	}
	if err := c.loadDropdowns(spec.Dropdowns); err != nil {
		return nil, err
	}
	if err := c.loadNumeric(spec.Numeric); err != nil {
		return nil, err
	}
	return c, nil
}

// Parse decodes a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var spec Spec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return New(spec)
}

// Load reads a YAML catalog from disk.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// Default returns the embedded IBM HR attrition catalog.
func Default() (*Catalog, error) {
	return Parse(defaultSpec)
}

// #endregion constructors

// #region validation
func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

func (c *Catalog) loadFeatures() error {
	if len(c.features) == 0 {
		return invalidf("no features declared")
	}
	for i, name := range c.features {
		if name == "" {
			return invalidf("feature %d has an empty name", i)
		}
		if _, dup := c.index[name]; dup {
			return invalidf("duplicate feature %q", name)
		}
		c.index[name] = i
	}
	return nil
}

func (c *Catalog) loadDefaults(d Defaults) error {
	if !finite(d.Fill) {
		return invalidf("defaults.fill is not finite")
	}
	c.defaults = make([]float64, len(c.features))
	for i := range c.defaults {
		c.defaults[i] = d.Fill
	}
	for name, v := range d.Values {
		i, ok := c.index[name]
		if !ok {
			return invalidf("default for unknown feature %q", name)
		}
		if !finite(v) {
			return invalidf("default for %q is not finite", name)
		}
		c.defaults[i] = v
	}
	return nil
}

func (c *Catalog) loadFlag(f *FlagField) error {
	if f == nil {
		return nil
	}
	if f.Field == "" || f.Column == "" {
		return invalidf("flag field needs both field and column")
	}
	if _, ok := c.index[f.Column]; !ok {
		return invalidf("flag column %q is not a feature", f.Column)
	}
	if f.TrueOption == "" || f.FalseOption == "" || f.TrueOption == f.FalseOption {
		return invalidf("flag %q needs two distinct options", f.Field)
	}
	if f.Default != "" && f.Default != f.TrueOption && f.Default != f.FalseOption {
		return invalidf("flag %q default %q is not an option", f.Field, f.Default)
	}
	flag := *f
	c.flag = &flag
	c.grouped[f.Column] = f.Field
	return nil
}

func (c *Catalog) loadDropdowns(drops []Dropdown) error {
	for i, d := range drops {
		if d.Field == "" {
			return invalidf("dropdown %d has an empty field", i)
		}
		if _, dup := c.dropIndex[d.Field]; dup {
			return invalidf("duplicate dropdown %q", d.Field)
		}
		if c.flag != nil && c.flag.Field == d.Field {
			return invalidf("dropdown %q collides with the flag field", d.Field)
		}
		if len(d.Options) == 0 {
			return invalidf("dropdown %q has no options", d.Field)
		}
		seen := make(map[string]bool, len(d.Options))
		for _, opt := range d.Options {
			if seen[opt] {
				return invalidf("dropdown %q repeats option %q", d.Field, opt)
			}
			seen[opt] = true

			col := CompositeKey(d.Field, opt)
			idx, ok := c.index[col]
			// Build skips the reference option, so a column for it would never be set.
			if ok && opt == d.Reference {
				return invalidf("dropdown %q reference %q has a column %q", d.Field, opt, col)
			}
			if !ok {
				if opt != d.Reference {
					c.unmapped = append(c.unmapped, UnmappedOption{Field: d.Field, Option: opt, Column: col})
				}
				continue
			}
			// Siblings keep their default when another option is picked, so a
			// non-zero default would leak a stale category into every row.
			if c.defaults[idx] != 0 {
				return invalidf("one-hot column %q must default to 0, got %v", col, c.defaults[idx])
			}
			if owner, taken := c.grouped[col]; taken {
				return invalidf("column %q claimed by both %q and %q", col, owner, d.Field)
			}
			c.grouped[col] = d.Field
		}
		if d.Reference != "" && !seen[d.Reference] {
			return invalidf("dropdown %q reference %q is not an option", d.Field, d.Reference)
		}
		if d.Default != "" && !seen[d.Default] {
			return invalidf("dropdown %q default %q is not an option", d.Field, d.Default)
		}
		d.Options = slices.Clone(d.Options)
		c.dropIndex[d.Field] = len(c.dropdowns)
		c.dropdowns = append(c.dropdowns, d)
	}
	return nil
}

func (c *Catalog) loadNumeric(fields []NumericField) error {
	for _, f := range fields {
		if _, ok := c.index[f.Name]; !ok {
			return invalidf("numeric field %q is not a feature", f.Name)
		}
		if _, dup := c.numIndex[f.Name]; dup {
			return invalidf("duplicate numeric field %q", f.Name)
		}
		if owner, ok := c.grouped[f.Name]; ok {
			return invalidf("numeric field %q is an encoded column of %q", f.Name, owner)
		}
		if _, ok := c.dropIndex[f.Name]; ok || (c.flag != nil && c.flag.Field == f.Name) {
			return invalidf("numeric field %q collides with a categorical field", f.Name)
		}
		if !finite(f.Min) || !finite(f.Max) || !finite(f.Default) || f.Min > f.Max {
			return invalidf("numeric field %q has an invalid range [%v, %v]", f.Name, f.Min, f.Max)
		}
		if f.Default < f.Min || f.Default > f.Max {
			return invalidf("numeric field %q default %v outside [%v, %v]", f.Name, f.Default, f.Min, f.Max)
		}
		if f.Step < 0 {
			return invalidf("numeric field %q has a negative step", f.Name)
		}
		if f.Widget == "" {
			f.Widget = WidgetSlider
		}
		switch f.Widget {
		case WidgetSlider, WidgetNumber:
		case WidgetSelect:
			if len(f.Options) == 0 {
				return invalidf("select field %q has no options", f.Name)
			}
			for _, o := range f.Options {
				if o < f.Min || o > f.Max {
					return invalidf("select field %q option %v outside range", f.Name, o)
				}
			}
			f.Options = slices.Clone(f.Options)
		default:
			return invalidf("numeric field %q has unknown widget %q", f.Name, f.Widget)
		}
		c.numIndex[f.Name] = len(c.numeric)
		c.numeric = append(c.numeric, f)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// #endregion validation

// #region accessors
// CompositeKey returns the one-hot column name for a dropdown selection.
func CompositeKey(field, option string) string {
	return field + "_" + option
}

// Name returns the catalog's declared name.
func (c *Catalog) Name() string { return c.name }

// Len returns the number of feature columns.
func (c *Catalog) Len() int { return len(c.features) }

// Features returns the ordered column names.
func (c *Catalog) Features() []string { return slices.Clone(c.features) }

// Index returns the column position of name.
func (c *Catalog) Index(name string) (int, bool) {
	i, ok := c.index[name]
	return i, ok
}

// Defaults returns DefaultValues in column order.
func (c *Catalog) Defaults() []float64 { return slices.Clone(c.defaults) }

// Default returns the default value of one column.
func (c *Catalog) Default(name string) (float64, bool) {
	i, ok := c.index[name]
	if !ok {
		return 0, false
	}
	return c.defaults[i], true
}

// Numeric returns the direct numeric field specs.
func (c *Catalog) Numeric() []NumericField {
	out := make([]NumericField, len(c.numeric))
	for i, f := range c.numeric {
		f.Options = slices.Clone(f.Options)
		out[i] = f
	}
	return out
}

// NumericField looks up a numeric field spec by name.
func (c *Catalog) NumericField(name string) (NumericField, bool) {
	i, ok := c.numIndex[name]
	if !ok {
		return NumericField{}, false
	}
	f := c.numeric[i]
	f.Options = slices.Clone(f.Options)
	return f, true
}

// Flag returns the binary flag field, if one is declared.
func (c *Catalog) Flag() (FlagField, bool) {
	if c.flag == nil {
		return FlagField{}, false
	}
	return *c.flag, true
}

// Dropdowns returns the categorical field specs in declaration order.
func (c *Catalog) Dropdowns() []Dropdown {
	out := make([]Dropdown, len(c.dropdowns))
	for i, d := range c.dropdowns {
		d.Options = slices.Clone(d.Options)
		out[i] = d
	}
	return out
}

// Dropdown looks up a categorical field spec by field name.
func (c *Catalog) Dropdown(field string) (Dropdown, bool) {
	i, ok := c.dropIndex[field]
	if !ok {
		return Dropdown{}, false
	}
	d := c.dropdowns[i]
	d.Options = slices.Clone(d.Options)
	return d, true
}

// Encoded reports whether column is owned by a dropdown or the flag field,
// and returns the owning field.
func (c *Catalog) Encoded(column string) (string, bool) {
	f, ok := c.grouped[column]
	return f, ok
}

// Unmapped lists non-reference dropdown options that have no column.
func (c *Catalog) Unmapped() []UnmappedOption { return slices.Clone(c.unmapped) }

// #endregion accessors

// #region widget-defaults
// WidgetDefaults returns the value each form control starts at: numeric
// defaults, the flag's default (false option when unset) and each dropdown's
// default (first option when unset).
func (c *Catalog) WidgetDefaults() map[string]any {
	out := make(map[string]any, len(c.numeric)+len(c.dropdowns)+1)
	for _, f := range c.numeric {
		out[f.Name] = f.Default
	}
	if c.flag != nil {
		v := c.flag.Default
		if v == "" {
			v = c.flag.FalseOption
		}
		out[c.flag.Field] = v
	}
	for _, d := range c.dropdowns {
		v := d.Default
		if v == "" {
			v = d.Options[0]
		}
		out[d.Field] = v
	}
	return out
}

// #endregion widget-defaults

// #region spec-export
// Spec returns the serializable form of the catalog. Defaults are expanded so
// every column is listed explicitly.
func (c *Catalog) Spec() Spec {
	values := make(map[string]float64, len(c.features))
	for i, name := range c.features {
		values[name] = c.defaults[i]
	}
	var flag *FlagField
	if c.flag != nil {
		f := *c.flag
		flag = &f
	}
	return Spec{
		Name:      c.name,
		Features:  c.Features(),
		Defaults:  Defaults{Values: values},
		Numeric:   c.Numeric(),
		Flag:      flag,
		Dropdowns: c.Dropdowns(),
	}
}

// #endregion spec-export
