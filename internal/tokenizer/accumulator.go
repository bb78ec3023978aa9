package tokenizer

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/AndresProano/CleaningDataIt/internal/model"
)

// plainFields have no opening state of their own, so a quoted value keeps
// its quotes in the buffer until the snapshot unwraps it.
var plainFields = [...]model.Field{
	model.FieldStatus,
	model.FieldSource,
	model.FieldCreateAt,
	model.FieldSentBy,
}

// Accumulator holds the ten field buffers of the record being parsed.
type Accumulator struct {
	bufs [model.NumFields][]byte
}

// Append adds ch to field f. A record-boundary marker inside a field is
// stored as a space.
func (a *Accumulator) Append(f model.Field, ch rune) {
	if ch == RecordBoundary {
		ch = ' '
	}
	a.bufs[f] = utf8.AppendRune(a.bufs[f], ch)
}

// Len returns the number of bytes buffered for f.
func (a *Accumulator) Len(f model.Field) int {
	return len(a.bufs[f])
}

// SplitInto cuts field from at the first sep and moves everything after it
// to the end of field to. It reports whether sep was found.
func (a *Accumulator) SplitInto(from, to model.Field, sep rune) bool {
	buf := a.bufs[from]
	i := bytes.IndexRune(buf, sep)
	if i < 0 {
		return false
	}
	a.bufs[to] = append(a.bufs[to], buf[i+utf8.RuneLen(sep):]...)
	a.bufs[from] = buf[:i]
	return true
}

// Empty reports whether no field holds content.
func (a *Accumulator) Empty() bool {
	for i := range a.bufs {
		if len(a.bufs[i]) > 0 {
			return false
		}
	}
	return true
}

// Reset clears every buffer, keeping the allocated capacity.
func (a *Accumulator) Reset() {
	for i := range a.bufs {
		a.bufs[i] = a.bufs[i][:0]
	}
}

// Snapshot builds a Record from the buffers. Every value is trimmed at the
// edges; stage is always empty.
func (a *Accumulator) Snapshot() model.Record {
	var rec model.Record
	for f := model.Field(0); f < model.NumFields; f++ {
		rec.Set(f, strings.TrimSpace(string(a.bufs[f])))
	}
	for _, f := range plainFields {
		rec.Set(f, unwrap(rec.Get(f)))
	}
	rec.Stage = ""
	return rec
}

// unwrap strips one pair of enclosing quotes and collapses doubled quotes.
func unwrap(s string) string {
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return s
	}
	return strings.TrimSpace(strings.ReplaceAll(s[1:len(s)-1], `""`, `"`))
}
