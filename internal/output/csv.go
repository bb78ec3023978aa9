package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/AndresProano/CleaningDataIt/internal/model"
)

// CSVSink writes rows as a flat comma-separated file with the fixed header
// of model.Columns. Fields containing a comma, quote or newline are quoted.
type CSVSink struct {
	f *os.File
	w *csv.Writer
}

// NewCSVSink creates (or truncates) path. In append mode an existing file
// is extended and the header is only written when the file is empty.
func NewCSVSink(path string, appendMode bool) (*CSVSink, error) {
	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if appendMode {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return nil, fmt.Errorf("open output %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat output %s: %w", path, err)
	}

	s := newCSV(f, info.Size() == 0)
	if err := s.w.Error(); err != nil {
		f.Close()
		return nil, err
	}
	s.f = f
	return s, nil
}

// NewCSVWriter writes CSV to w, starting with the header row.
func NewCSVWriter(w io.Writer) *CSVSink {
	return newCSV(w, true)
}

func newCSV(w io.Writer, header bool) *CSVSink {
	s := &CSVSink{w: csv.NewWriter(w)}
	if header {
		_ = s.w.Write(model.Columns())
	}
	return s
}

func (s *CSVSink) Render(row model.Row) error {
	return s.w.Write(row.Values())
}

func (s *CSVSink) Flush() error {
	s.w.Flush()
	return s.w.Error()
}

func (s *CSVSink) Close() error {
	err := s.Flush()
	if s.f != nil {
		if cerr := s.f.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
