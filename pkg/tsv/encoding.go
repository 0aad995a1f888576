package tsv

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Encoding names an input text encoding.
type Encoding string

const (
	EncodingUTF8        Encoding = "utf-8"
	EncodingLatin1      Encoding = "latin1"
	EncodingWindows1252 Encoding = "windows-1252"
)

// ParseEncoding normalizes an encoding name. Empty means UTF-8.
func ParseEncoding(name string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return EncodingUTF8, nil
	case "latin1", "latin-1", "iso-8859-1", "iso8859-1":
		return EncodingLatin1, nil
	case "windows-1252", "cp1252":
		return EncodingWindows1252, nil
	default:
		return "", fmt.Errorf("unsupported encoding %q (must be utf-8, latin1 or windows-1252)", name)
	}
}

// decoder returns the x/text encoding for e.
func (e Encoding) decoder() encoding.Encoding {
	switch e {
	case EncodingLatin1:
		return charmap.ISO8859_1
	case EncodingWindows1252:
		return charmap.Windows1252
	default:
		return unicode.UTF8
	}
}

// utf8BOM is the UTF-8 encoding of U+FEFF.
var utf8BOM = []byte{0xef, 0xbb, 0xbf}

// decodeReader wraps r so it yields UTF-8. A leading byte order mark always
// wins over a configured legacy encoding and is stripped.
//
// UTF-8 input is passed through byte for byte once the BOM is dropped, so
// invalid sequences survive to be rejected by Read instead of being replaced
// with U+FFFD.
func decodeReader(r io.Reader, e Encoding) io.Reader {
	if e.validates() {
		br := bufio.NewReader(r)
		if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
			_, _ = br.Discard(len(utf8BOM))
		}
		return br
	}
	return transform.NewReader(r, unicode.BOMOverride(e.decoder().NewDecoder()))
}

// validates reports whether decoded text must be checked for invalid UTF-8.
// The legacy single-byte decoders always produce valid output.
func (e Encoding) validates() bool {
	return e == EncodingUTF8 || e == ""
}
