package features

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/attrition-risk/internal/catalog"
)

// #region helpers
func scenarioCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New(catalog.Spec{
		Features: []string{"A", "B", "Dept_Sales", "Dept_HR"},
		Defaults: catalog.Defaults{Values: map[string]float64{"A": 0, "B": 0, "Dept_Sales": 0, "Dept_HR": 0}},
		Dropdowns: []catalog.Dropdown{
			{Field: "Dept", Options: []string{"Sales", "HR", "IT"}},
		},
	})
	require.NoError(t, err)
	return c
}

func defaultBuilder(t *testing.T) *Builder {
	t.Helper()
	c, err := catalog.Default()
	require.NoError(t, err)
	return NewBuilder(c)
}

func formSelection(c *catalog.Catalog) Selection {
	return Selection(c.WidgetDefaults())
}

// #endregion helpers

// #region scenario-tests
func TestBuild_Scenario(t *testing.T) {
	b := NewBuilder(scenarioCatalog(t))

	row, err := b.Build(Selection{"A": 10, "Dept": "Sales"})
	require.NoError(t, err)

	if diff := cmp.Diff([]float64{10, 0, 1, 0}, row.Values()); diff != "" {
		t.Errorf("row mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"A", "B", "Dept_Sales", "Dept_HR"}, row.Columns())
	assert.Empty(t, row.Skipped())
}

func TestBuild_FormDefaults(t *testing.T) {
	b := defaultBuilder(t)

	row, err := b.Build(formSelection(b.Catalog()))
	require.NoError(t, err)

	want := map[string]float64{
		"Age":                               36,
		"MonthlyIncome":                     5000,
		"JobLevel":                          2,
		"OverTime_Yes":                      0,
		"Department_Research & Development": 1,
		"Department_Sales":                  0,
		"Gender_Male":                       1,
		"Gender_Female":                     0,
		"BusinessTravel_Travel_Rarely":      1,
	}
	for col, v := range want {
		got, ok := row.Value(col)
		require.True(t, ok, col)
		assert.Equal(t, v, got, col)
	}
}

// #endregion scenario-tests

// #region row-shape-tests
func TestBuild_KeySetEqualsCatalog(t *testing.T) {
	b := defaultBuilder(t)
	cat := b.Catalog()

	selections := []Selection{
		{},
		formSelection(cat),
		{"Age": 59, "OverTime": "Yes", "JobRole": "Manager"},
		{"MonthlyIncome": "12000", "Department": "Sales", "MaritalStatus": "Single"},
	}
	for _, sel := range selections {
		row, err := b.Build(sel)
		require.NoError(t, err)

		assert.Equal(t, cat.Features(), row.Columns())
		assert.Equal(t, cat.Len(), row.Len())
		m := row.Map()
		assert.Len(t, m, cat.Len())
		for _, v := range row.Values() {
			assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
		}
	}
}

func TestBuild_ExactlyOneHotPerGroup(t *testing.T) {
	b := defaultBuilder(t)
	cat := b.Catalog()

	for _, drop := range cat.Dropdowns() {
		for _, opt := range drop.Options {
			sel := formSelection(cat)
			sel[drop.Field] = opt
			row, err := b.Build(sel)
			require.NoError(t, err)

			ones := 0
			for _, sibling := range drop.Options {
				v, ok := row.Value(catalog.CompositeKey(drop.Field, sibling))
				require.True(t, ok)
				switch {
				case sibling == opt:
					assert.Equal(t, 1.0, v, "%s=%s", drop.Field, opt)
					ones++
				default:
					assert.Zero(t, v, "%s sibling %s", drop.Field, sibling)
				}
			}
			assert.Equal(t, 1, ones)
		}
	}
}

func TestBuild_Idempotent(t *testing.T) {
	b := defaultBuilder(t)
	sel := formSelection(b.Catalog())
	sel["JobRole"] = "Research Director"
	sel["OverTime"] = "Yes"

	first, err := b.Build(sel)
	require.NoError(t, err)
	second, err := b.Build(sel)
	require.NoError(t, err)

	if diff := cmp.Diff(first.Values(), second.Values()); diff != "" {
		t.Errorf("rows differ:\n%s", diff)
	}
	j1, err := first.MarshalJSON()
	require.NoError(t, err)
	j2, err := second.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, j1, j2)
}

// #endregion row-shape-tests

// #region mismatch-tests
func TestBuild_UnmappedOptionRejected(t *testing.T) {
	b := NewBuilder(scenarioCatalog(t))

	_, err := b.Build(Selection{"Dept": "IT"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMismatch)

	var mm *MismatchError
	require.True(t, errors.As(err, &mm))
	assert.Equal(t, "Dept", mm.Field)
	assert.Equal(t, "Dept_IT", mm.Key)
	assert.Contains(t, err.Error(), "Dept_IT")
}

func TestBuildLenient_UnmappedOptionSkipped(t *testing.T) {
	b := NewBuilder(scenarioCatalog(t))

	row, err := b.BuildLenient(Selection{"A": 3, "Dept": "IT"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Dept_IT"}, row.Skipped())
	assert.Equal(t, []float64{3, 0, 0, 0}, row.Values())
}

func TestBuild_ReferenceOptionLeavesGroupAtDefaults(t *testing.T) {
	c, err := catalog.New(catalog.Spec{
		Features:  []string{"A", "Dept_Sales"},
		Dropdowns: []catalog.Dropdown{{Field: "Dept", Options: []string{"HR", "Sales"}, Reference: "HR"}},
	})
	require.NoError(t, err)
	b := NewBuilder(c)

	row, err := b.Build(Selection{"Dept": "HR"})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, row.Values())
	assert.Empty(t, row.Skipped())
}

func TestBuild_UnknownField(t *testing.T) {
	b := NewBuilder(scenarioCatalog(t))

	_, err := b.Build(Selection{"Salary": 10})
	var mm *MismatchError
	require.True(t, errors.As(err, &mm))
	assert.Equal(t, "Salary", mm.Key)

	row, err := b.BuildLenient(Selection{"Salary": 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"Salary"}, row.Skipped())
}

func TestBuild_EncodedColumnNotDirectlySettable(t *testing.T) {
	b := NewBuilder(scenarioCatalog(t))

	_, err := b.Build(Selection{"Dept_HR": 1})
	assert.ErrorIs(t, err, ErrMismatch)
}

// #endregion mismatch-tests

// #region coercion-tests
func TestBuild_Coercion(t *testing.T) {
	b := defaultBuilder(t)

	tests := []struct {
		name    string
		sel     Selection
		column  string
		want    float64
		wantErr error
	}{
		{"int", Selection{"Age": 40}, "Age", 40, nil},
		{"numeric string", Selection{"MonthlyIncome": " 7300 "}, "MonthlyIncome", 7300, nil},
		{"float32", Selection{"DistanceFromHome": float32(12)}, "DistanceFromHome", 12, nil},
		{"bad string", Selection{"Age": "forty"}, "", 0, ErrNonNumeric},
		{"nil", Selection{"Age": nil}, "", 0, ErrNonNumeric},
		{"nan", Selection{"Age": math.NaN()}, "", 0, ErrNonNumeric},
		{"inf string", Selection{"Age": "+Inf"}, "", 0, ErrNonNumeric},
		{"slice", Selection{"Age": []int{1}}, "", 0, ErrNonNumeric},
		{"above range", Selection{"Age": 70}, "", 0, ErrOutOfRange},
		{"below range", Selection{"TrainingTimesLastYear": -1}, "", 0, ErrOutOfRange},
		{"select not an option", Selection{"JobLevel": 2.5}, "", 0, ErrInvalidOption},
		{"select option", Selection{"JobLevel": "4"}, "JobLevel", 4, nil},
		{"flag yes", Selection{"OverTime": "Yes"}, "OverTime_Yes", 1, nil},
		{"flag no", Selection{"OverTime": "No"}, "OverTime_Yes", 0, nil},
		{"flag bool", Selection{"OverTime": true}, "OverTime_Yes", 1, nil},
		{"flag unknown", Selection{"OverTime": "Sometimes"}, "", 0, ErrInvalidOption},
		{"dropdown unknown", Selection{"Department": "Legal"}, "", 0, ErrInvalidOption},
		{"dropdown wrong type", Selection{"Department": []string{"Sales"}}, "", 0, ErrInvalidOption},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row, err := b.Build(tt.sel)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			got, ok := row.Value(tt.column)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuild_DirectColumnWithoutSpec(t *testing.T) {
	b := NewBuilder(scenarioCatalog(t))

	row, err := b.Build(Selection{"B": "2.5"})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 2.5, 0, 0}, row.Values())

	_, err = b.Build(Selection{"B": "x"})
	var ce *CoercionError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "B", ce.Field)
}

// #endregion coercion-tests

// #region row-tests
func TestRow_ValuesAreCopies(t *testing.T) {
	b := NewBuilder(scenarioCatalog(t))
	row, err := b.Build(Selection{"A": 1})
	require.NoError(t, err)

	v := row.Values()
	v[0] = 99
	got, _ := row.Value("A")
	assert.Equal(t, 1.0, got)
}

func TestRow_MarshalJSONKeepsOrder(t *testing.T) {
	b := NewBuilder(scenarioCatalog(t))
	row, err := b.Build(Selection{"A": 10, "Dept": "Sales"})
	require.NoError(t, err)

	data, err := row.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"A":10,"B":0,"Dept_Sales":1,"Dept_HR":0}`, string(data))
}

func TestRow_ZeroValue(t *testing.T) {
	var r Row
	assert.Zero(t, r.Len())
	assert.Nil(t, r.Columns())
	_, ok := r.Value("A")
	assert.False(t, ok)
	data, err := r.MarshalJSON()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "{"))
}

// #endregion row-tests
