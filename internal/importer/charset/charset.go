// Package charset turns bank statement bytes of unknown encoding into UTF-8.
package charset

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const sniffLen = 4096

const (
	UTF8        = "UTF-8"
	UTF16LE     = "UTF-16LE"
	UTF16BE     = "UTF-16BE"
	Windows1252 = "windows-1252"
	ISO88599    = "ISO-8859-9"
)

var boms = []struct {
	prefix []byte
	name   string
	dec    encoding.Encoding
}{
	{[]byte{0xEF, 0xBB, 0xBF}, UTF8, nil},
	{[]byte{0xFF, 0xFE}, UTF16LE, unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)},
	{[]byte{0xFE, 0xFF}, UTF16BE, unicode.UTF16(unicode.BigEndian, unicode.UseBOM)},
}

// Decode returns a UTF-8 view of r and the name of the encoding it assumed.
// A byte order mark wins; otherwise valid UTF-8 is passed through, chardet
// picks among the Latin encodings banks use, and Windows-1252 is the fallback.
func Decode(r io.Reader) (io.Reader, string, error) {
	br := bufio.NewReaderSize(r, sniffLen)

	head, err := br.Peek(sniffLen)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, "", fmt.Errorf("sniffing encoding: %w", err)
	}

	for _, b := range boms {
		if !bytes.HasPrefix(head, b.prefix) {
			continue
		}

		if b.dec == nil {
			_, _ = br.Discard(len(b.prefix))
			return br, b.name, nil
		}

		return transform.NewReader(br, b.dec.NewDecoder()), b.name, nil
	}

	if utf8.Valid(completeRunes(head)) {
		return br, UTF8, nil
	}

	name := Windows1252

	if res, err := chardet.NewTextDetector().DetectBest(head); err == nil {
		switch res.Charset {
		case UTF8:
			return br, UTF8, nil
		case ISO88599:
			name = ISO88599
		}
	}

	dec := charmap.Windows1252.NewDecoder()
	if name == ISO88599 {
		dec = charmap.ISO8859_9.NewDecoder()
	}

	return transform.NewReader(br, dec), name, nil
}

// completeRunes drops a multi-byte rune cut off at the end of b.
func completeRunes(b []byte) []byte {
	i := len(b) - 1
	for i > 0 && len(b)-i < utf8.UTFMax && !utf8.RuneStart(b[i]) {
		i--
	}

	if i >= 0 && !utf8.FullRune(b[i:]) {
		return b[:i]
	}

	return b
}
