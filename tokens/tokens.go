// Package tokens pulls alphabetic words and digit runs out of uploaded text.
package tokens

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"regexp"
	"unicode/utf8"

	"github.com/edsrzf/mmap-go"
)

// ErrDecode is returned when input bytes are not valid UTF-8 text
var ErrDecode = errors.New("input is not valid UTF-8 text")

// tokenPattern matches maximal runs of ASCII letters or of digits; leftmost
// first matching splits "abc123" into "abc" and "123"
var tokenPattern = regexp.MustCompile(`[A-Za-z]+|[0-9]+`)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Extract returns every word and digit run in text, in order of appearance,
// duplicates kept and case preserved
func Extract(text string) []string {
	return tokenPattern.FindAllString(text, -1)
}

// Decode validates raw upload bytes as UTF-8 and strips a leading BOM
func Decode(raw []byte) (string, error) {
	raw = bytes.TrimPrefix(raw, utf8BOM)
	if !utf8.Valid(raw) {
		return "", fmt.Errorf("%w: invalid byte sequence at offset %d", ErrDecode, invalidOffset(raw))
	}
	return string(raw), nil
}

// ExtractBytes decodes and extracts in one step
func ExtractBytes(raw []byte) ([]string, error) {
	text, err := Decode(raw)
	if err != nil {
		return nil, err
	}
	return Extract(text), nil
}

// ExtractFile maps the file read-only and extracts its tokens
func ExtractFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.Size() == 0 {
		// zero length files cannot be mapped
		return nil, nil
	}

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("mapping %s: %w", path, err)
	}
	defer m.Unmap()

	// Decode copies the mapped bytes into a string before Unmap runs
	return ExtractBytes(m)
}

func invalidOffset(b []byte) int {
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}
		i += size
	}
	return len(b)
}
