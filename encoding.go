package log2html

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// EncodingAuto selects UTF-8 input with byte-order-mark detection.
const EncodingAuto = "auto"

// ValidateEncoding reports whether name is "auto", empty, or a known
// WHATWG encoding label such as "windows-1252" or "shift_jis".
func ValidateEncoding(name string) error {
	_, err := newDecoder(name)
	return err
}

// newDecoder returns a transformer decoding input into UTF-8.
// A UTF-8 or UTF-16 byte-order mark always wins over the named encoding
// and is stripped from the decoded text.
func newDecoder(name string) (transform.Transformer, error) {
	fallback := transform.Transformer(unicode.UTF8.NewDecoder())

	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", EncodingAuto, "utf-8", "utf8":
	default:
		enc, err := htmlindex.Get(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, name)
		}
		fallback = enc.NewDecoder()
	}

	return unicode.BOMOverride(fallback), nil
}

// lineReader yields lines without their terminators. Both "\n" and "\r\n"
// end a line. A trailing terminator does not produce an extra empty line.
type lineReader struct {
	r *bufio.Reader
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{r: bufio.NewReader(r)}
}

// next returns the next line. ok is false once input is exhausted.
func (lr *lineReader) next() (line string, ok bool, err error) {
	line, err = lr.r.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", false, err
	}
	if err == io.EOF && line == "" {
		return "", false, nil
	}
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return line, true, nil
}
