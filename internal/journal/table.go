package journal

import (
	"bytes"
	"encoding/json"
	"regexp"
)

// Table is an ordered set of rows under a header. Cells are kept as text,
// exactly as they appear in the CSV file.
type Table struct {
	Columns []string
	Rows    [][]string
}

// NewTable creates an empty table with the given header.
func NewTable(columns ...string) *Table {
	return &Table{Columns: append([]string(nil), columns...)}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Index returns the position of col in the header, or -1.
func (t *Table) Index(col string) int {
	for i, c := range t.Columns {
		if c == col {
			return i
		}
	}
	return -1
}

// Value returns the cell at row/col, or "" when either is missing.
func (t *Table) Value(row int, col string) string {
	i := t.Index(col)
	if i < 0 || row < 0 || row >= len(t.Rows) || i >= len(t.Rows[row]) {
		return ""
	}
	return t.Rows[row][i]
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	if t == nil {
		return &Table{}
	}
	c := NewTable(t.Columns...)
	c.Rows = make([][]string, len(t.Rows))
	for i, r := range t.Rows {
		c.Rows[i] = append([]string(nil), r...)
	}
	return c
}

// addColumn appends col to the header if absent and returns its index.
func (t *Table) addColumn(col string) int {
	if i := t.Index(col); i >= 0 {
		return i
	}
	t.Columns = append(t.Columns, col)
	for i := range t.Rows {
		t.Rows[i] = append(t.Rows[i], "")
	}
	return len(t.Columns) - 1
}

// AppendRecord adds one row aligned by column name. Columns unknown to the
// table are added (blank for earlier rows); columns the record lacks stay blank.
func (t *Table) AppendRecord(rec Record) {
	idx := make([]int, len(rec.Columns))
	for i, col := range rec.Columns {
		idx[i] = t.addColumn(col)
	}
	row := make([]string, len(t.Columns))
	for i, v := range rec.Values {
		if i < len(idx) {
			row[idx[i]] = v
		}
	}
	t.Rows = append(t.Rows, row)
}

// FillBlanks pads short rows so every row has a cell for every column.
func (t *Table) FillBlanks() {
	for i, r := range t.Rows {
		for len(r) < len(t.Columns) {
			r = append(r, "")
		}
		t.Rows[i] = r
	}
}

// Records returns the rows as column-keyed records.
func (t *Table) Records() []Record {
	out := make([]Record, len(t.Rows))
	for i, r := range t.Rows {
		vals := make([]string, len(t.Columns))
		copy(vals, r)
		out[i] = Record{Columns: t.Columns, Values: vals}
	}
	return out
}

// Unique returns the distinct values of col in first-appearance order.
func (t *Table) Unique(col string) []string {
	i := t.Index(col)
	if i < 0 {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, r := range t.Rows {
		v := ""
		if i < len(r) {
			v = r[i]
		}
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// Filter returns the rows whose col equals value exactly.
func (t *Table) Filter(col, value string) *Table {
	out := NewTable(t.Columns...)
	i := t.Index(col)
	if i < 0 {
		return out
	}
	for _, r := range t.Rows {
		if i < len(r) && r[i] == value {
			out.Rows = append(out.Rows, append([]string(nil), r...))
		}
	}
	return out
}

// Concat stacks tables in order. The header is the union of all headers in
// first-seen order; cells a source table lacks are blank. Rows are never
// deduplicated.
func Concat(tables ...*Table) *Table {
	out := &Table{}
	for _, t := range tables {
		if t == nil {
			continue
		}
		for _, rec := range t.Records() {
			out.AppendRecord(rec)
		}
		// A table with a header but no rows still contributes its columns
		for _, col := range t.Columns {
			out.addColumn(col)
		}
	}
	return out
}

// Record is one row paired with its header.
type Record struct {
	Columns []string
	Values  []string
}

// Get returns the value for col, or "".
func (r Record) Get(col string) string {
	for i, c := range r.Columns {
		if c == col && i < len(r.Values) {
			return r.Values[i]
		}
	}
	return ""
}

var numericCell = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]+)?$`)

// MarshalJSON writes the record as an object in column order. Cells that
// read as plain decimal numbers are emitted as JSON numbers.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, col := range r.Columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSONString(&buf, col); err != nil {
			return nil, err
		}
		buf.WriteByte(':')

		v := ""
		if i < len(r.Values) {
			v = r.Values[i]
		}
		if numericCell.MatchString(v) {
			buf.WriteString(v)
			continue
		}
		if err := writeJSONString(&buf, v); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// writeJSONString quotes s without HTML escaping.
func writeJSONString(buf *bytes.Buffer, s string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	// Encode terminates with a newline
	buf.Truncate(buf.Len() - 1)
	return nil
}
