package tokenizer

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Charset is the single declared text encoding of an input file.
type Charset struct {
	name string
	enc  encoding.Encoding // nil for UTF-8
}

// UTF8 is the default charset. Input is read as-is.
var UTF8 = Charset{name: "utf-8"}

var charsets = map[string]*charmap.Charmap{
	"windows-1252": charmap.Windows1252,
	"cp1252":       charmap.Windows1252,
	"iso-8859-1":   charmap.ISO8859_1,
	"latin1":       charmap.ISO8859_1,
	"iso-8859-15":  charmap.ISO8859_15,
	"latin9":       charmap.ISO8859_15,
}

// LookupCharset resolves an encoding name. The empty name means UTF-8.
func LookupCharset(name string) (Charset, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	switch n {
	case "", "utf-8", "utf8":
		return UTF8, nil
	}
	cm, ok := charsets[n]
	if !ok {
		return Charset{}, fmt.Errorf("unsupported encoding %q", name)
	}
	return Charset{name: n, enc: cm}, nil
}

// String returns the canonical name of the charset.
func (c Charset) String() string {
	if c.name == "" {
		return UTF8.name
	}
	return c.name
}

// Reader wraps r so that it yields UTF-8.
func (c Charset) Reader(r io.Reader) io.Reader {
	if c.enc == nil {
		return r
	}
	return transform.NewReader(r, c.enc.NewDecoder())
}

// RawLen converts the UTF-8 size of a decoded rune back to the number of
// bytes it occupied in the original input.
func (c Charset) RawLen(utf8Size int) int {
	if c.enc == nil {
		return utf8Size
	}
	// every supported non-UTF-8 charset is single-byte
	return 1
}
