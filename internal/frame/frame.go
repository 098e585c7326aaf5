// Package frame holds numeric tabular data: rows are observations (named by an
// index), columns are features. Missing cells are stored as NaN.
package frame

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrNoColumns       = errors.New("frame has no columns")
	ErrNoRows          = errors.New("frame has no rows")
	ErrDuplicateColumn = errors.New("duplicate column name")
	ErrDuplicateIndex  = errors.New("duplicate index label")
	ErrUnknownColumn   = errors.New("unknown column")
	ErrIndexMismatch   = errors.New("index labels do not match")
	ErrShape           = errors.New("column length does not match index")
)

// Frame is a column-major table of float64 values.
type Frame struct {
	Name      string
	IndexName string
	Index     []string
	Columns   []string

	data   [][]float64
	colPos map[string]int
}

// New builds a frame from column-major data. Slices are used as given.
func New(name, indexName string, index, columns []string, data [][]float64) (*Frame, error) {
	if len(columns) == 0 {
		return nil, ErrNoColumns
	}
	if len(data) != len(columns) {
		return nil, fmt.Errorf("%w: %d columns, %d data columns", ErrShape, len(columns), len(data))
	}
	seen := make(map[string]struct{}, len(index))
	for _, label := range index {
		if _, ok := seen[label]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateIndex, label)
		}
		seen[label] = struct{}{}
	}
	pos := make(map[string]int, len(columns))
	for i, c := range columns {
		if _, ok := pos[c]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, c)
		}
		pos[c] = i
		if len(data[i]) != len(index) {
			return nil, fmt.Errorf("%w: column %q has %d values, index has %d", ErrShape, c, len(data[i]), len(index))
		}
	}
	return &Frame{
		Name:      name,
		IndexName: indexName,
		Index:     index,
		Columns:   columns,
		data:      data,
		colPos:    pos,
	}, nil
}

// IsMissing reports whether v represents a missing cell.
func IsMissing(v float64) bool {
	return math.IsNaN(v)
}

func (f *Frame) Rows() int  { return len(f.Index) }
func (f *Frame) Width() int { return len(f.Columns) }

// Has reports whether the frame has a column with the given name.
func (f *Frame) Has(name string) bool {
	_, ok := f.colPos[name]
	return ok
}

// Column returns a copy of the named column.
func (f *Frame) Column(name string) ([]float64, error) {
	i, ok := f.colPos[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}
	out := make([]float64, len(f.data[i]))
	copy(out, f.data[i])
	return out, nil
}

// SetColumn replaces the values of an existing column.
func (f *Frame) SetColumn(name string, values []float64) error {
	i, ok := f.colPos[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}
	if len(values) != f.Rows() {
		return fmt.Errorf("%w: column %q has %d values, index has %d", ErrShape, name, len(values), f.Rows())
	}
	copy(f.data[i], values)
	return nil
}

func (f *Frame) At(row, col int) float64 {
	return f.data[col][row]
}

func (f *Frame) Set(row, col int, v float64) {
	f.data[col][row] = v
}

// Clone returns a deep copy.
func (f *Frame) Clone() *Frame {
	index := append([]string(nil), f.Index...)
	columns := append([]string(nil), f.Columns...)
	data := make([][]float64, len(f.data))
	for i, col := range f.data {
		data[i] = append([]float64(nil), col...)
	}
	out, _ := New(f.Name, f.IndexName, index, columns, data)
	return out
}

// Select returns a new frame holding copies of the named columns in the given order.
func (f *Frame) Select(columns ...string) (*Frame, error) {
	data := make([][]float64, len(columns))
	for i, c := range columns {
		col, err := f.Column(c)
		if err != nil {
			return nil, err
		}
		data[i] = col
	}
	return New(f.Name, f.IndexName, append([]string(nil), f.Index...), append([]string(nil), columns...), data)
}

// Align returns other's rows reordered to follow f's index.
// Every label of f must be present in other.
func (f *Frame) Align(other *Frame) (*Frame, error) {
	pos := make(map[string]int, other.Rows())
	for i, label := range other.Index {
		pos[label] = i
	}
	order := make([]int, f.Rows())
	identity := f.Rows() == other.Rows()
	for i, label := range f.Index {
		j, ok := pos[label]
		if !ok {
			return nil, fmt.Errorf("%w: %q not found in %q", ErrIndexMismatch, label, other.Name)
		}
		order[i] = j
		if i != j {
			identity = false
		}
	}
	if identity {
		return other.Clone(), nil
	}

	data := make([][]float64, other.Width())
	for c := range other.Columns {
		col := make([]float64, len(order))
		for i, j := range order {
			col[i] = other.data[c][j]
		}
		data[c] = col
	}
	return New(other.Name, other.IndexName, append([]string(nil), f.Index...), append([]string(nil), other.Columns...), data)
}

// MissingMask returns a row-major mask, true where the cell is missing.
func (f *Frame) MissingMask() [][]bool {
	mask := make([][]bool, f.Rows())
	for r := range mask {
		mask[r] = make([]bool, f.Width())
		for c := range f.Columns {
			mask[r][c] = IsMissing(f.data[c][r])
		}
	}
	return mask
}

// HasMissing reports whether any cell in the given columns is missing.
// With no columns, every column is checked.
func (f *Frame) HasMissing(columns ...string) bool {
	if len(columns) == 0 {
		columns = f.Columns
	}
	for _, c := range columns {
		i, ok := f.colPos[c]
		if !ok {
			continue
		}
		for _, v := range f.data[i] {
			if IsMissing(v) {
				return true
			}
		}
	}
	return false
}

// Matrix returns the row-major values of the given columns.
func (f *Frame) Matrix(columns ...string) ([][]float64, error) {
	idx := make([]int, len(columns))
	for i, c := range columns {
		j, ok := f.colPos[c]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, c)
		}
		idx[i] = j
	}
	rows := make([][]float64, f.Rows())
	for r := range rows {
		row := make([]float64, len(idx))
		for i, j := range idx {
			row[i] = f.data[j][r]
		}
		rows[r] = row
	}
	return rows, nil
}
