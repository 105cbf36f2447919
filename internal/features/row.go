package features

import (
	"bytes"
	"encoding/json"
	"slices"
	"strconv"

	"github.com/danielpatrickdp/attrition-risk/internal/catalog"
)

// #region row
// Row is one fixed-schema feature record: exactly one finite value per
// catalog column, in catalog order. Rows are immutable; accessors copy.
type Row struct {
	cat     *catalog.Catalog
	values  []float64
	skipped []string
}

// Len returns the number of columns.
func (r Row) Len() int { return len(r.values) }

// Columns returns the column names in order.
func (r Row) Columns() []string {
	if r.cat == nil {
		return nil
	}
	return r.cat.Features()
}

// Values returns the numeric values in column order.
func (r Row) Values() []float64 { return slices.Clone(r.values) }

// Value returns the value of one column.
func (r Row) Value(column string) (float64, bool) {
	if r.cat == nil {
		return 0, false
	}
	i, ok := r.cat.Index(column)
	if !ok {
		return 0, false
	}
	return r.values[i], true
}

// Map returns the row keyed by column name.
func (r Row) Map() map[string]float64 {
	cols := r.Columns()
	out := make(map[string]float64, len(cols))
	for i, c := range cols {
		out[c] = r.values[i]
	}
	return out
}

// Skipped lists composite keys or fields a lenient build could not place.
// Always empty for rows from Build.
func (r Row) Skipped() []string { return slices.Clone(r.skipped) }

// #endregion row

// #region json
// MarshalJSON encodes the row as an object whose keys keep column order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range r.Columns() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(strconv.FormatFloat(r.values[i], 'g', -1, 64))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// #endregion json
