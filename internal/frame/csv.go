package frame

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// CellError reports a cell that is neither numeric nor a null token.
type CellError struct {
	Row    int // 1-based data row
	Column string
	Value  string
}

func (e *CellError) Error() string {
	return fmt.Sprintf("row %d, column %q: value %q is not numeric", e.Row, e.Column, e.Value)
}

var nullTokens = map[string]bool{
	"":    true,
	"null": true,
	"NULL": true,
	"NA":   true,
	"N/A":  true,
	"n/a":  true,
	"NaN":  true,
	"nan":  true,
}

// ParseCSV reads a frame from CSV. The first column holds the observation
// index and every other cell must be numeric or a null token.
func ParseCSV(r io.Reader, name string) (*Frame, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoColumns
		}
		return nil, fmt.Errorf("read CSV headers: %w", err)
	}
	if len(headers) < 2 {
		return nil, ErrNoColumns
	}
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}
	// Excel writes a UTF-8 BOM in front of the first header.
	headers[0] = strings.TrimPrefix(headers[0], "\ufeff")

	columns := headers[1:]
	data := make([][]float64, len(columns))
	var index []string

	for row := 1; ; row++ {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read CSV row %d: %w", row, err)
		}
		index = append(index, strings.TrimSpace(rec[0]))
		for c := range columns {
			raw := strings.TrimSpace(rec[c+1])
			if nullTokens[raw] {
				data[c] = append(data[c], math.NaN())
				continue
			}
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, &CellError{Row: row, Column: columns[c], Value: raw}
			}
			data[c] = append(data[c], v)
		}
	}

	if len(index) == 0 {
		return nil, ErrNoRows
	}
	return New(name, headers[0], index, columns, data)
}

// WriteCSV writes the frame with the index as first column. Missing cells are
// written empty.
func (f *Frame) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	indexName := f.IndexName
	if indexName == "" {
		indexName = "index"
	}
	if err := cw.Write(append([]string{indexName}, f.Columns...)); err != nil {
		return err
	}

	rec := make([]string, f.Width()+1)
	for r, label := range f.Index {
		rec[0] = label
		for c := range f.Columns {
			v := f.data[c][r]
			if IsMissing(v) {
				rec[c+1] = ""
			} else {
				rec[c+1] = strconv.FormatFloat(v, 'g', -1, 64)
			}
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
