package parser

import (
	"bufio"
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// NewDecodingReader wraps r so that a leading byte order mark is consumed
// (switching to UTF-16 when the mark says so) and invalid UTF-8 sequences
// are replaced with U+FFFD instead of failing the read.
func NewDecodingReader(r io.Reader) io.Reader {
	// BOMOverride passes UTF-8 through untouched once it sees a UTF-8 mark,
	// so validation runs as a separate stage.
	return transform.NewReader(r, transform.Chain(
		unicode.BOMOverride(transform.Nop),
		unicode.UTF8.NewDecoder(),
	))
}

func newLineScanner(r io.Reader, maxLineSize int) *bufio.Scanner {
	initial := 64 * 1024
	if maxLineSize < initial {
		initial = maxLineSize
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, initial), maxLineSize)
	return scanner
}
