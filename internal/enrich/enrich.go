package enrich

import (
	"fmt"
	"log"

	"github.com/AndresProano/CleaningDataIt/internal/model"
)

// Pass derives extra columns from a Record. Passes are independent and
// never modify the Record itself.
type Pass interface {
	Name() string
	Apply(rec model.Record, row *model.Row) error
}

// Pipeline runs a fixed list of passes over each Record.
type Pipeline struct {
	passes []Pass
	warn   func(format string, args ...any)
}

// New returns a Pipeline running passes in order.
func New(passes ...Pass) *Pipeline {
	return &Pipeline{passes: passes, warn: log.Printf}
}

// Default returns the pipeline used for the export: title and source
// classification, createAt date parts, and details sub-fields.
func Default() *Pipeline {
	return New(
		NewTitleClassifier(),
		NewSourceClassifier(),
		NewDateParser(),
		NewDetailExtractor(),
	)
}

// Enrich builds the Row for rec. A failing pass is reported as a warning
// and leaves its columns empty; it never stops the run.
func (p *Pipeline) Enrich(rec model.Record, path string) (model.Row, int) {
	row := model.NewRow(rec, path)
	warnings := 0
	for _, pass := range p.passes {
		if err := p.apply(pass, rec, &row); err != nil {
			warnings++
			p.warn("warning: %s failed for %q: %v", pass.Name(), rec.Title, err)
		}
	}
	return row, warnings
}

func (p *Pipeline) apply(pass Pass, rec model.Record, row *model.Row) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return pass.Apply(rec, row)
}
