package enrich

import (
	"strings"
	"time"

	"github.com/AndresProano/CleaningDataIt/internal/model"
)

// CreateAtLayout is the export's timestamp format, e.g. 8/15/2025 3:34:50 PM.
const CreateAtLayout = "1/2/2006 3:04:05 PM"

// isoLayout is accepted as a fallback; fractional seconds are ignored.
const isoLayout = "2006-01-02T15:04:05"

// DateParser splits createAt into year, month and day.
type DateParser struct {
	loc *time.Location
}

// NewDateParser reads timestamps as local time.
func NewDateParser() *DateParser {
	return &DateParser{loc: time.Local}
}

func (p *DateParser) Name() string { return "date parsing" }

// Apply leaves the date columns empty when createAt does not match.
func (p *DateParser) Apply(rec model.Record, row *model.Row) error {
	t, ok := p.Parse(rec.CreateAt)
	if !ok {
		return nil
	}
	row.Year, row.Month, row.Day = t.Year(), int(t.Month()), t.Day()
	return nil
}

// Parse reads s with CreateAtLayout, then as an ISO timestamp.
func (p *DateParser) Parse(s string) (time.Time, bool) {
	s = strings.ToUpper(strings.Join(strings.Fields(s), " "))
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{CreateAtLayout, isoLayout} {
		if t, err := time.ParseInLocation(layout, s, p.loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
