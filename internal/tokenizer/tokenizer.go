package tokenizer

import (
	"fmt"
	"io"
	"unicode"

	"github.com/AndresProano/CleaningDataIt/internal/model"
)

// Options configures a Tokenizer.
type Options struct {
	// ChunkSize is the read buffer size in bytes. Default: 8192
	ChunkSize int
	// SkipHeader discards the first physical line before parsing.
	SkipHeader bool
	// Charset is the declared encoding of the input. Default: UTF-8
	Charset Charset
}

// DefaultOptions returns options for a whole export file.
func DefaultOptions() Options {
	return Options{
		ChunkSize:  DefaultChunkSize,
		SkipHeader: true,
		Charset:    UTF8,
	}
}

// Stats counts what a Tokenizer has seen so far.
type Stats struct {
	Openings  int `json:"openings"`  // records that started
	Emitted   int `json:"emitted"`   // records that reached the terminator
	Truncated int `json:"truncated"` // partial records dropped at end of input
}

// Tokenizer splits an export into Records.
//
// Field boundaries depend on the field position: a comma, a doubled comma,
// a quote-comma pair or a comma-quote pair. A record ends at a closing quote
// followed by ';', or at a bare ';' after an unquoted last field. Physical
// line breaks carry no meaning except as the marker after a terminator.
//
// A record cut short by the end of input is dropped and only counted in
// Stats. Read errors are reported by Err.
type Tokenizer struct {
	cur    *Cursor
	acc    Accumulator
	state  State
	quoted bool
	opts   Options

	// splitTitle is set while a quoted first field closed by `",` may still
	// hold the details; it is split only if an empty `""` details follows.
	splitTitle bool

	started bool
	done    bool
	rec     model.Record
	offset  int64
	stats   Stats
	err     error
}

// New creates a Tokenizer reading from r.
func New(r io.Reader, opts Options) *Tokenizer {
	return &Tokenizer{
		cur:  NewCursor(NewSource(r, opts.ChunkSize, opts.Charset)),
		opts: opts,
	}
}

// Scan advances to the next complete record. It returns false at end of
// input or on a read error.
func (t *Tokenizer) Scan() bool {
	if t.done {
		return false
	}
	if !t.started {
		t.started = true
		if t.opts.SkipHeader && !t.cur.src.SkipLine() {
			t.finish()
			return false
		}
		t.offset = t.cur.Offset()
	}

	for {
		ch, ok := t.cur.Advance()
		if !ok {
			t.finish()
			return false
		}
		if t.step(ch) {
			return true
		}
	}
}

// Record returns the record produced by the last successful Scan.
func (t *Tokenizer) Record() model.Record {
	return t.rec
}

// Err returns the read error that stopped Scan, if any.
func (t *Tokenizer) Err() error {
	return t.err
}

// Stats returns the running counters.
func (t *Tokenizer) Stats() Stats {
	return t.stats
}

// Offset is the raw byte offset just past the last emitted record's
// terminator, or past the header if nothing was emitted yet.
func (t *Tokenizer) Offset() int64 {
	return t.offset
}

// State returns the active state.
func (t *Tokenizer) State() State {
	return t.state
}

// Reset abandons the record in progress and starts over at title_open.
func (t *Tokenizer) Reset() {
	t.acc.Reset()
	t.state = StateTitleOpen
	t.quoted = false
	t.splitTitle = false
}

// ReadAll tokenizes r to the end.
func ReadAll(r io.Reader, opts Options) ([]model.Record, Stats, error) {
	tok := New(r, opts)
	var out []model.Record
	for tok.Scan() {
		out = append(out, tok.Record())
	}
	return out, tok.Stats(), tok.Err()
}

func (t *Tokenizer) finish() {
	t.done = true
	if err := t.cur.Err(); err != nil {
		t.err = fmt.Errorf("read input: %w", err)
	}
	if t.state != StateTitleOpen {
		t.stats.Truncated++
	}
	t.Reset()
}

// step feeds one character to the machine and reports whether it completed
// a record.
func (t *Tokenizer) step(ch rune) bool {
	switch t.state {
	case StateTitleOpen:
		if ch == RecordBoundary || unicode.IsSpace(ch) {
			return false
		}
		t.stats.Openings++
		t.open(StateTitle, ch)

	case StateTitle:
		t.title(ch)

	case StateDetailsOpen:
		if ch == ',' {
			t.splitTitle = false
			t.state = StateFileOpen
			return false
		}
		t.open(StateDetails, ch)
		if !t.quoted {
			t.splitTitle = false
		}

	case StateDetails:
		switch {
		case t.quoted && ch == '"':
			if t.closeQuoted(model.FieldDetails, ',') {
				if t.splitTitle && t.acc.Len(model.FieldDetails) == 0 {
					// "title, details","" carries the details in the first field
					t.acc.SplitInto(model.FieldTitle, model.FieldDetails, ',')
				}
				t.splitTitle = false
				t.state = StateFileOpen
			}
		case !t.quoted && ch == ',':
			t.state = StateFileOpen
		default:
			t.acc.Append(model.FieldDetails, ch)
		}

	case StateFileOpen:
		if ch == ',' {
			t.state = StateStatus
			return false
		}
		t.open(StateFile, ch)

	case StateFile:
		switch {
		case t.quoted && ch == '"':
			if t.closeQuoted(model.FieldFile, ',') {
				t.state = StateStatus
			}
		case !t.quoted && ch == ',':
			t.skipEmptyColumn()
			t.state = StateStatus
		default:
			t.acc.Append(model.FieldFile, ch)
		}

	case StateStatus:
		t.plain(ch, StateStage)

	case StateStage:
		t.state = StateSource
		if ch != ',' {
			t.acc.Append(model.FieldSource, ch)
		}

	case StateSource:
		if ch == ',' {
			t.skipEmptyColumn()
			t.state = StateCreateAt
			return false
		}
		t.acc.Append(model.FieldSource, ch)

	case StateCreateAt:
		t.plain(ch, StateSentBy)

	case StateSentBy:
		t.plain(ch, StateSentToOpen)

	case StateSentToOpen:
		if ch == ',' {
			t.state = StateCustomResponseOpen
			return false
		}
		t.open(StateSentTo, ch)

	case StateSentTo:
		switch {
		case t.quoted && ch == '"':
			if t.closeQuoted(model.FieldSentTo, ',') {
				t.state = StateCustomResponseOpen
			}
		case !t.quoted && ch == ',':
			t.skipEmptyColumn()
			t.state = StateCustomResponseOpen
		default:
			t.acc.Append(model.FieldSentTo, ch)
		}

	case StateCustomResponseOpen:
		if ch == ';' {
			return t.emit()
		}
		t.open(StateCustomResponse, ch)

	case StateCustomResponse:
		switch {
		case t.quoted && ch == '"':
			if t.closeQuoted(model.FieldCustomResponse, ';') {
				return t.emit()
			}
		case !t.quoted && ch == ';':
			return t.emit()
		default:
			t.acc.Append(model.FieldCustomResponse, ch)
		}

	default:
		panic(fmt.Sprintf("tokenizer: unhandled state %s", t.state))
	}
	return false
}

// title handles the first field, which may also carry the start of details.
func (t *Tokenizer) title(ch rune) {
	switch {
	case ch == ',':
		nxt, ok := t.cur.Advance()
		if !ok {
			return
		}
		if nxt == '"' {
			// `,"` ends the title; details follow inside the quote
			t.state, t.quoted = StateDetails, true
			return
		}
		t.acc.Append(model.FieldTitle, ch)
		t.acc.Append(model.FieldTitle, nxt)

	case t.quoted && ch == '"':
		if t.closeQuoted(model.FieldTitle, ',') {
			t.splitTitle = true
			t.state = StateDetailsOpen
		}

	default:
		t.acc.Append(model.FieldTitle, ch)
	}
}

// open moves into body state next. A quote marks the field as quoted;
// anything else is the field's first content character.
func (t *Tokenizer) open(next State, ch rune) {
	t.state = next
	t.quoted = ch == '"'
	if !t.quoted {
		t.acc.Append(next.Field(), ch)
	}
}

// plain closes an unquoted single-comma field.
func (t *Tokenizer) plain(ch rune, next State) {
	if ch == ',' {
		t.state = next
		return
	}
	t.acc.Append(t.state.Field(), ch)
}

// closeQuoted resolves a quote met inside quoted field f by consuming the
// next character: `""` is a literal quote, quote+sep closes the field, and
// any other pair is kept as content. It reports whether the field closed.
func (t *Tokenizer) closeQuoted(f model.Field, sep rune) bool {
	nxt, ok := t.cur.Advance()
	if !ok {
		return false
	}
	switch nxt {
	case '"':
		t.acc.Append(f, '"')
		return false
	case sep:
		return true
	}
	t.acc.Append(f, '"')
	t.acc.Append(f, nxt)
	return false
}

// skipEmptyColumn swallows a ',' directly after a field separator; the
// export pads some positions with an empty column.
func (t *Tokenizer) skipEmptyColumn() {
	if nxt, ok := t.cur.Peek(); ok && nxt == ',' {
		t.cur.Advance()
	}
}

func (t *Tokenizer) emit() bool {
	t.rec = t.acc.Snapshot()
	t.Reset()
	t.offset = t.cur.Offset()
	t.stats.Emitted++
	return true
}
