// Package export writes analysis results as XLSX workbooks.
package export

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"workbench/internal/analysis"
	"workbench/internal/frame"
	"workbench/internal/fsutil"
)

// XLSXContentType is the media type of the workbooks produced here.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// DefaultSheetName is used for a sheet without a name.
const DefaultSheetName = "Sheet1"

const maxSheetName = 31

var (
	ErrNoSheets  = errors.New("workbook needs at least one sheet")
	ErrSheetName = errors.New("invalid sheet name")
)

// Sheet is one worksheet: a header row followed by data rows.
type Sheet struct {
	Name   string
	Header []string
	Rows   [][]any
}

func validateNames(sheets []Sheet) error {
	seen := make(map[string]bool, len(sheets))
	for i := range sheets {
		if sheets[i].Name == "" {
			sheets[i].Name = DefaultSheetName
		}
		name := sheets[i].Name
		if len([]rune(name)) > maxSheetName {
			return fmt.Errorf("%w: %q is longer than %d characters", ErrSheetName, name, maxSheetName)
		}
		if strings.ContainsAny(name, `:\/?*[]`) {
			return fmt.Errorf("%w: %q contains a reserved character", ErrSheetName, name)
		}
		key := strings.ToLower(name)
		if seen[key] {
			return fmt.Errorf("%w: duplicate %q", ErrSheetName, name)
		}
		seen[key] = true
	}
	return nil
}

// WriteWorkbook encodes the sheets as an XLSX workbook into w.
func WriteWorkbook(w io.Writer, sheets ...Sheet) error {
	if len(sheets) == 0 {
		return ErrNoSheets
	}
	sheets = append([]Sheet(nil), sheets...)
	if err := validateNames(sheets); err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName(DefaultSheetName, s.Name); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(s.Name); err != nil {
			return fmt.Errorf("create sheet %q: %w", s.Name, err)
		}

		header := make([]any, len(s.Header))
		for j, h := range s.Header {
			header[j] = h
		}
		if err := f.SetSheetRow(s.Name, "A1", &header); err != nil {
			return fmt.Errorf("write header of %q: %w", s.Name, err)
		}
		for r, row := range s.Rows {
			cell, err := excelize.CoordinatesToCellName(1, r+2)
			if err != nil {
				return err
			}
			values := make([]any, len(row))
			for j, v := range row {
				values[j] = cellValue(v)
			}
			if err := f.SetSheetRow(s.Name, cell, &values); err != nil {
				return fmt.Errorf("write row %d of %q: %w", r+1, s.Name, err)
			}
		}
	}
	f.SetActiveSheet(0)

	return f.Write(w)
}

// SaveWorkbook writes the workbook to path, creating its directory if needed.
func SaveWorkbook(path string, sheets ...Sheet) error {
	if err := fsutil.EnsureDir(path); err != nil {
		return err
	}
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteWorkbook(out, sheets...); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// cellValue leaves undefined numbers empty.
func cellValue(v any) any {
	if f, ok := v.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
		return nil
	}
	return v
}

// CorrelationSheets turns correlation tables into one sheet per scale.
func CorrelationSheets(tables []analysis.CorrelationTable) []Sheet {
	sheets := make([]Sheet, 0, len(tables))
	for _, t := range tables {
		s := Sheet{Name: t.Scale, Header: t.Header()}
		for _, row := range t.Rows {
			values := []any{row.Feature, row.N}
			for _, c := range row.Coefficients {
				values = append(values, c.R, c.P)
			}
			s.Rows = append(s.Rows, values)
		}
		sheets = append(sheets, s)
	}
	return sheets
}

// FrameSheet turns a frame into a sheet with the index as first column.
func FrameSheet(f *frame.Frame, name string) Sheet {
	indexName := f.IndexName
	if indexName == "" {
		indexName = "index"
	}
	s := Sheet{Name: name, Header: append([]string{indexName}, f.Columns...)}
	for r, label := range f.Index {
		row := make([]any, 0, f.Width()+1)
		row = append(row, label)
		for c := range f.Columns {
			row = append(row, f.At(r, c))
		}
		s.Rows = append(s.Rows, row)
	}
	return s
}
