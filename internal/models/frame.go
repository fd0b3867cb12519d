// internal/models/frame.go
package models

import "fmt"

// Column is one named, typed column of a Frame.
type Column struct {
	Name    string
	Numeric bool
	Text    []string
	Num     []float64
}

func (c *Column) Len() int {
	if c.Numeric {
		return len(c.Num)
	}
	return len(c.Text)
}

func (c *Column) Value(row int) Value {
	if c.Numeric {
		return NumberValue(c.Num[row])
	}
	return TextValue(c.Text[row])
}

// Frame is a small columnar table: ordered named columns of equal length. A single
// record is a one-row frame whose numeric attributes are single-element columns.
type Frame struct {
	columns []*Column
	index   map[string]int
	rows    int
}

func NewFrame() *Frame {
	return &Frame{index: make(map[string]int)}
}

// AddText appends a text column, replacing any column of the same name in place.
func (f *Frame) AddText(name string, values []string) error {
	return f.add(&Column{Name: name, Text: values})
}

// AddNumeric appends a numeric column, replacing any column of the same name in place.
func (f *Frame) AddNumeric(name string, values []float64) error {
	return f.add(&Column{Name: name, Numeric: true, Num: values})
}

func (f *Frame) add(col *Column) error {
	if len(f.columns) > 0 && col.Len() != f.rows {
		return fmt.Errorf("column %s has %d rows, frame has %d", col.Name, col.Len(), f.rows)
	}
	f.rows = col.Len()
	if i, ok := f.index[col.Name]; ok {
		f.columns[i] = col
		return nil
	}
	f.index[col.Name] = len(f.columns)
	f.columns = append(f.columns, col)
	return nil
}

func (f *Frame) Column(name string) (*Column, bool) {
	i, ok := f.index[name]
	if !ok {
		return nil, false
	}
	return f.columns[i], true
}

func (f *Frame) Has(name string) bool {
	_, ok := f.index[name]
	return ok
}

// Names returns column names in frame order.
func (f *Frame) Names() []string {
	names := make([]string, len(f.columns))
	for i, c := range f.columns {
		names[i] = c.Name
	}
	return names
}

func (f *Frame) Rows() int {
	return f.rows
}

func (f *Frame) Columns() []*Column {
	return f.columns
}

// Select projects the frame onto names, in that order. The returned missing slice
// lists requested names that have no column; the frame is nil when any are missing.
func (f *Frame) Select(names []string) (*Frame, []string) {
	var missing []string
	out := NewFrame()
	for _, name := range names {
		col, ok := f.Column(name)
		if !ok {
			missing = append(missing, name)
			continue
		}
		_ = out.add(col)
	}
	if len(missing) > 0 {
		return nil, missing
	}
	out.rows = f.rows
	return out, nil
}

// Take returns a frame holding only the given row indexes, in the given order.
func (f *Frame) Take(rows []int) *Frame {
	out := NewFrame()
	for _, col := range f.columns {
		if col.Numeric {
			vals := make([]float64, len(rows))
			for i, r := range rows {
				vals[i] = col.Num[r]
			}
			_ = out.AddNumeric(col.Name, vals)
			continue
		}
		vals := make([]string, len(rows))
		for i, r := range rows {
			vals[i] = col.Text[r]
		}
		_ = out.AddText(col.Name, vals)
	}
	out.rows = len(rows)
	return out
}

// Records returns the rows as maps, for JSON previews.
func (f *Frame) Records() []map[string]interface{} {
	out := make([]map[string]interface{}, f.rows)
	for r := 0; r < f.rows; r++ {
		rec := make(map[string]interface{}, len(f.columns))
		for _, col := range f.columns {
			if col.Numeric {
				rec[col.Name] = col.Num[r]
			} else {
				rec[col.Name] = col.Text[r]
			}
		}
		out[r] = rec
	}
	return out
}

// FrameFromRecords builds a frame holding every resolvable column of the records.
func FrameFromRecords(records []EnrichedRecord) *Frame {
	f := NewFrame()
	if len(records) == 0 {
		return f
	}
	for _, name := range records[0].Columns() {
		first, _ := records[0].Column(name)
		if first.Numeric {
			vals := make([]float64, len(records))
			for i, rec := range records {
				v, _ := rec.Column(name)
				vals[i] = v.Num
			}
			_ = f.AddNumeric(name, vals)
			continue
		}
		vals := make([]string, len(records))
		for i, rec := range records {
			v, _ := rec.Column(name)
			vals[i] = v.Text
		}
		_ = f.AddText(name, vals)
	}
	return f
}
