package output

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/AndresProano/CleaningDataIt/internal/model"
)

// WorkbookSheet is the worksheet the XLSX sink writes to.
const WorkbookSheet = "Datos"

// XLSXSink streams rows into a single-sheet workbook saved on Close.
type XLSXSink struct {
	path string
	file *excelize.File
	sw   *excelize.StreamWriter
	next int // next row number, 1-based
}

// NewXLSXSink prepares a workbook that will be written to path.
func NewXLSXSink(path string) (*XLSXSink, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", WorkbookSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	sw, err := f.NewStreamWriter(WorkbookSheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open sheet stream: %w", err)
	}

	s := &XLSXSink{path: path, file: f, sw: sw, next: 1}
	header := model.Columns()
	cells := make([]interface{}, len(header))
	for i, h := range header {
		cells[i] = h
	}
	if err := s.writeRow(cells); err != nil {
		f.Close()
		return nil, err
	}
	return s, nil
}

func (s *XLSXSink) Render(row model.Row) error {
	values := row.Values()
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	// Year, Month and Day follow the record fields and are stored as numbers.
	for i, n := range []int{row.Year, row.Month, row.Day} {
		if n != 0 {
			cells[int(model.NumFields)+i] = n
		}
	}
	return s.writeRow(cells)
}

// Flush is a no-op; a streamed sheet can only be finalized once, on Close.
func (s *XLSXSink) Flush() error { return nil }

func (s *XLSXSink) Close() error {
	defer s.file.Close()
	if err := s.sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}
	if err := s.file.SaveAs(s.path); err != nil {
		return fmt.Errorf("save workbook %s: %w", s.path, err)
	}
	return nil
}

func (s *XLSXSink) writeRow(cells []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, s.next)
	if err != nil {
		return err
	}
	if err := s.sw.SetRow(cell, cells); err != nil {
		return fmt.Errorf("write row %d: %w", s.next, err)
	}
	s.next++
	return nil
}
