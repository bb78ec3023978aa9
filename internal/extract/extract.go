// Package extract runs a whole export through the tokenizer, the
// enrichment passes and the output sinks.
package extract

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/AndresProano/CleaningDataIt/internal/model"
	"github.com/AndresProano/CleaningDataIt/internal/output"
	"github.com/AndresProano/CleaningDataIt/internal/tokenizer"
	"github.com/AndresProano/CleaningDataIt/internal/watcher"
)

// ErrNoInput is returned when no input file matched.
var ErrNoInput = errors.New("no input file matched")

// Enricher turns a tokenized record into an output row.
type Enricher interface {
	Enrich(rec model.Record, path string) (model.Row, int)
}

// Observer receives run statistics. *aggregator.Aggregator implements it.
type Observer interface {
	Observe(row model.Row)
	AddTokenizer(s tokenizer.Stats)
	AddWarnings(n int)
}

// Summary describes one extracted file.
type Summary struct {
	Path      string `json:"path"`
	Found     int    `json:"found"`
	Emitted   int    `json:"emitted"`
	Truncated int    `json:"truncated"`
	Warnings  int    `json:"warnings"`
	Offset    int64  `json:"offset"` // just past the last emitted record
}

// Runner extracts files sequentially into one sink.
type Runner struct {
	Options  tokenizer.Options
	Enricher Enricher
	Sink     output.Renderer
	Observer Observer // optional
}

// Run expands the given paths or glob patterns and extracts every match
// in order.
func (r *Runner) Run(ctx context.Context, patterns []string) ([]Summary, error) {
	paths := watcher.Expand(patterns)
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: %v", ErrNoInput, patterns)
	}

	out := make([]Summary, 0, len(paths))
	for _, p := range paths {
		s, err := r.File(ctx, p)
		if err != nil {
			return out, err
		}
		out = append(out, s)
	}
	return out, nil
}

// File extracts a single export. Only I/O failures are returned; grammar
// problems and enrichment warnings are counted in the Summary.
func (r *Runner) File(ctx context.Context, path string) (Summary, error) {
	sum := Summary{Path: path}

	f, err := os.Open(path)
	if err != nil {
		return sum, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	tok := tokenizer.New(f, r.Options)
	for tok.Scan() {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		row, n := r.Enricher.Enrich(tok.Record(), path)
		sum.Warnings += n
		if err := r.Sink.Render(row); err != nil {
			return sum, fmt.Errorf("write output: %w", err)
		}
		if r.Observer != nil {
			r.Observer.Observe(row)
		}
	}

	stats := tok.Stats()
	sum.Found = stats.Openings
	sum.Emitted = stats.Emitted
	sum.Truncated = stats.Truncated
	sum.Offset = tok.Offset()
	if r.Observer != nil {
		r.Observer.AddTokenizer(stats)
		r.Observer.AddWarnings(sum.Warnings)
	}

	if err := tok.Err(); err != nil {
		return sum, fmt.Errorf("%s: %w", path, err)
	}
	return sum, nil
}

// Missing is the number of records that were opened but not emitted.
func (s Summary) Missing() int {
	return s.Found - s.Emitted
}
