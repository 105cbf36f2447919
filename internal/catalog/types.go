package catalog

// #region widget
// Widget names the form control used to collect a numeric field.
type Widget string

const (
	WidgetSlider Widget = "slider"
	WidgetNumber Widget = "number"
	WidgetSelect Widget = "select"
)

// #endregion widget

// #region numeric-field
// NumericField declares a direct numeric input. Name must be a catalog column.
type NumericField struct {
	Name    string    `yaml:"name" json:"name"`
	Label   string    `yaml:"label" json:"label"`
	Min     float64   `yaml:"min" json:"min"`
	Max     float64   `yaml:"max" json:"max"`
	Default float64   `yaml:"default" json:"default"`
	Step    float64   `yaml:"step,omitempty" json:"step,omitempty"`
	Widget  Widget    `yaml:"widget,omitempty" json:"widget,omitempty"`
	Options []float64 `yaml:"options,omitempty" json:"options,omitempty"` // WidgetSelect only
}

// #endregion numeric-field

// #region flag-field
// FlagField declares the yes/no input that drives a single 0/1 column.
type FlagField struct {
	Field       string `yaml:"field" json:"field"`
	Label       string `yaml:"label" json:"label"`
	Column      string `yaml:"column" json:"column"`
	TrueOption  string `yaml:"true_option" json:"true_option"`
	FalseOption string `yaml:"false_option" json:"false_option"`
	Default     string `yaml:"default,omitempty" json:"default,omitempty"`
}

// #endregion flag-field

// #region dropdown
// Dropdown declares a categorical input that is one-hot encoded as
// "<Field>_<option>" columns. Reference, when set, names the drop-first
// baseline option that intentionally has no column.
type Dropdown struct {
	Field     string   `yaml:"field" json:"field"`
	Label     string   `yaml:"label" json:"label"`
	Options   []string `yaml:"options" json:"options"`
	Reference string   `yaml:"reference,omitempty" json:"reference,omitempty"`
	Default   string   `yaml:"default,omitempty" json:"default,omitempty"`
}

// #endregion dropdown

// #region defaults
// Defaults declares DefaultValues: every column starts at Fill unless Values
// names it explicitly.
type Defaults struct {
	Fill   float64            `yaml:"fill" json:"fill"`
	Values map[string]float64 `yaml:"values,omitempty" json:"values,omitempty"`
}

// #endregion defaults

// #region spec
// Spec is the serialized form of a catalog (YAML on disk, JSON over the API).
type Spec struct {
	Name      string         `yaml:"name" json:"name"`
	Features  []string       `yaml:"features" json:"features"`
	Defaults  Defaults       `yaml:"defaults" json:"defaults"`
	Numeric   []NumericField `yaml:"numeric" json:"numeric"`
	Flag      *FlagField     `yaml:"flag,omitempty" json:"flag,omitempty"`
	Dropdowns []Dropdown     `yaml:"dropdowns" json:"dropdowns"`
}

// #endregion spec

// #region unmapped-option
// UnmappedOption is a dropdown option whose composite column is absent from
// the feature list. Selecting it fails a strict build.
type UnmappedOption struct {
	Field  string `json:"field"`
	Option string `json:"option"`
	Column string `json:"column"`
}

// #endregion unmapped-option
