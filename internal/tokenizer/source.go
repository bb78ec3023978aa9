package tokenizer

import (
	"bufio"
	"errors"
	"io"
)

// DefaultChunkSize is the read buffer used when none is given.
const DefaultChunkSize = 8192

// RecordBoundary is the only newline a Source ever emits: the one directly
// after a ';'. Every other newline is folded into a space.
const RecordBoundary = '\n'

const byteOrderMark = '\uFEFF'

// Source turns raw input into the normalized character sequence the
// tokenizer consumes. It is forward-only; restart means building a new
// Source over a fresh reader.
type Source struct {
	r       *bufio.Reader
	charset Charset
	prev    rune
	offset  int64
	started bool
	err     error
}

// NewSource reads from r in chunks of chunkSize bytes.
func NewSource(r io.Reader, chunkSize int, cs Charset) *Source {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Source{
		r:       bufio.NewReaderSize(cs.Reader(r), chunkSize),
		charset: cs,
	}
}

// Next returns the next normalized character. ok is false at end of input
// or after a read error (see Err).
func (s *Source) Next() (rune, bool) {
	for {
		ch, ok := s.read()
		if !ok {
			return 0, false
		}
		if !s.started {
			s.started = true
			if ch == byteOrderMark {
				continue
			}
		}

		switch ch {
		case '\r':
			continue
		case '\n':
			if s.prev != ';' {
				ch = ' '
			}
		}
		s.prev = ch
		return ch, true
	}
}

// SkipLine discards the raw remainder of the current physical line,
// including its newline. It reports false if input ended first.
func (s *Source) SkipLine() bool {
	for {
		ch, ok := s.read()
		if !ok {
			return false
		}
		s.started = true
		if ch == '\n' {
			s.prev = 0
			return true
		}
	}
}

// Offset is the number of raw input bytes consumed so far.
func (s *Source) Offset() int64 {
	return s.offset
}

// Err returns the first non-EOF read error.
func (s *Source) Err() error {
	return s.err
}

func (s *Source) read() (rune, bool) {
	if s.err != nil {
		return 0, false
	}
	ch, size, err := s.r.ReadRune()
	if err != nil {
		if !errors.Is(err, io.EOF) {
			s.err = err
		}
		return 0, false
	}
	s.offset += int64(s.charset.RawLen(size))
	return ch, true
}
