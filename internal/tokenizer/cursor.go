package tokenizer

// Cursor gives the tokenizer one character of lookahead over a Source.
// Peek never consumes; Advance hands out the peeked character first.
type Cursor struct {
	src      *Source
	slot     rune
	slotSize int64 // raw bytes behind the peeked character
	full     bool
	eof      bool
}

// NewCursor wraps src.
func NewCursor(src *Source) *Cursor {
	return &Cursor{src: src}
}

// Peek returns the next character without consuming it.
func (c *Cursor) Peek() (rune, bool) {
	if c.full {
		return c.slot, true
	}
	if c.eof {
		return 0, false
	}
	before := c.src.Offset()
	ch, ok := c.src.Next()
	if !ok {
		c.eof = true
		return 0, false
	}
	c.slot, c.slotSize, c.full = ch, c.src.Offset()-before, true
	return ch, true
}

// Advance consumes and returns the next character.
func (c *Cursor) Advance() (rune, bool) {
	if c.full {
		c.full = false
		return c.slot, true
	}
	if c.eof {
		return 0, false
	}
	ch, ok := c.src.Next()
	if !ok {
		c.eof = true
	}
	return ch, ok
}

// Offset is the raw byte offset of everything consumed through Advance.
func (c *Cursor) Offset() int64 {
	if c.full {
		return c.src.Offset() - c.slotSize
	}
	return c.src.Offset()
}

// Err reports the underlying read error, if any.
func (c *Cursor) Err() error {
	return c.src.Err()
}
