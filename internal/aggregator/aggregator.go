package aggregator

import (
	"context"
	"sync"
	"time"

	"github.com/AndresProano/CleaningDataIt/internal/model"
	"github.com/AndresProano/CleaningDataIt/internal/tokenizer"
)

// rateWindow is the sliding window used for the records/sec figure.
const rateWindow = 5 * time.Second

// Stats holds a point-in-time snapshot of a run.
type Stats struct {
	Uptime        string           `json:"uptime"`
	Found         int64            `json:"records_found"`
	Emitted       int64            `json:"records_emitted"`
	Truncated     int64            `json:"records_truncated"`
	RecordsPerSec float64          `json:"records_per_sec"`
	Warnings      int64            `json:"warnings"`
	Populated     map[string]int64 `json:"populated"`
	ValidDates    int64            `json:"valid_dates"`
	TitleClasses  map[string]int64 `json:"title_classes"`
	SourceClasses map[string]int64 `json:"source_classes"`
	Dropped       int64            `json:"dropped"`
	FilesWatched  int              `json:"files_watched"`
}

// Missing is the number of records that were opened but never emitted.
func (s Stats) Missing() int64 {
	if s.Found < s.Emitted {
		return 0
	}
	return s.Found - s.Emitted
}

// Sources supplies live values owned by other components. Nil funcs read
// as zero.
type Sources struct {
	Dropped  func() int64
	Files    func() int
	Warnings func() int64
}

// Aggregator consumes enriched rows and keeps run statistics.
type Aggregator struct {
	mu            sync.RWMutex
	startTime     time.Time
	found         int64
	truncated     int64
	emitted       int64
	warnings      int64
	populated     map[string]int64
	validDates    int64
	titleClasses  map[string]int64
	sourceClasses map[string]int64
	window        []time.Time
	sources       Sources
	rows          <-chan model.Row
}

// New creates an Aggregator. rows may be nil when the caller feeds it
// through Observe instead of Start.
func New(rows <-chan model.Row, sources Sources) *Aggregator {
	return &Aggregator{
		startTime:     time.Now(),
		populated:     make(map[string]int64),
		titleClasses:  make(map[string]int64),
		sourceClasses: make(map[string]int64),
		sources:       sources,
		rows:          rows,
	}
}

// Start consumes rows until the context is cancelled or the channel closes.
func (a *Aggregator) Start(ctx context.Context) {
	// Periodically prune the sliding window.
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case row, ok := <-a.rows:
			if !ok {
				return
			}
			a.Observe(row)
		case <-ticker.C:
			a.prune()
		}
	}
}

// Observe adds one emitted row to the statistics.
func (a *Aggregator) Observe(row model.Row) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.emitted++
	for f := model.Field(0); f < model.NumFields; f++ {
		if row.Get(f) != "" {
			a.populated[f.String()]++
		}
	}
	if row.Year != 0 {
		a.validDates++
	}
	if row.TitleClass != "" {
		a.titleClasses[row.TitleClass]++
	}
	if row.SourceClass != "" {
		a.sourceClasses[row.SourceClass]++
	}
	a.window = append(a.window, time.Now())
}

// AddTokenizer folds in the counters of one finished tokenizer pass.
// Emitted is taken from observed rows, not from s.
func (a *Aggregator) AddTokenizer(s tokenizer.Stats) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.found += int64(s.Openings)
	a.truncated += int64(s.Truncated)
}

// AddWarnings counts enrichment warnings.
func (a *Aggregator) AddWarnings(n int) {
	if n == 0 {
		return
	}
	a.mu.Lock()
	a.warnings += int64(n)
	a.mu.Unlock()
}

// Snapshot returns the current statistics.
func (a *Aggregator) Snapshot() Stats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	cutoff := time.Now().Add(-rateWindow)
	var recent int
	for _, t := range a.window {
		if t.After(cutoff) {
			recent++
		}
	}

	s := Stats{
		Uptime:        time.Since(a.startTime).Truncate(time.Second).String(),
		Found:         a.found,
		Emitted:       a.emitted,
		Truncated:     a.truncated,
		RecordsPerSec: float64(recent) / rateWindow.Seconds(),
		Warnings:      a.warnings,
		Populated:     copyCounts(a.populated),
		ValidDates:    a.validDates,
		TitleClasses:  copyCounts(a.titleClasses),
		SourceClasses: copyCounts(a.sourceClasses),
	}
	if a.sources.Dropped != nil {
		s.Dropped = a.sources.Dropped()
	}
	if a.sources.Files != nil {
		s.FilesWatched = a.sources.Files()
	}
	if a.sources.Warnings != nil {
		s.Warnings += a.sources.Warnings()
	}
	return s
}

// prune removes timestamps older than the rate window.
func (a *Aggregator) prune() {
	a.mu.Lock()
	defer a.mu.Unlock()

	cutoff := time.Now().Add(-rateWindow)
	i := 0
	for _, t := range a.window {
		if t.After(cutoff) {
			a.window[i] = t
			i++
		}
	}
	a.window = a.window[:i]
}

func copyCounts(m map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
