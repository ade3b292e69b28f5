package parsers

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

var ErrInvalidPrice = errors.New("invalid price")

// SkipBOM skips a leading UTF-8 byte order mark.
func SkipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	peeked, err := br.Peek(3)
	if err != nil {
		return br
	}
	if bytes.Equal(peeked, []byte{0xEF, 0xBB, 0xBF}) {
		br.Discard(3)
	}
	return br
}

// DecodeReader wraps r so it yields UTF-8. Spreadsheet exports from older
// desktop tools are often Windows-1252.
func DecodeReader(r io.Reader, encoding string) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "utf-8", "utf8":
		return SkipBOM(r), nil
	case "latin1", "iso-8859-1":
		return transform.NewReader(r, charmap.ISO8859_1.NewDecoder()), nil
	case "windows-1252", "cp1252":
		return transform.NewReader(r, charmap.Windows1252.NewDecoder()), nil
	}
	return nil, fmt.Errorf("unsupported encoding: %s", encoding)
}

// getColIndex maps header names (case-insensitive) to column indexes.
func getColIndex(header []string, required []string) (map[string]int, error) {
	colIndex := make(map[string]int)
	for i, colName := range header {
		colIndex[strings.ToLower(strings.TrimSpace(colName))] = i
	}
	for _, req := range required {
		if _, ok := colIndex[req]; !ok {
			return nil, fmt.Errorf("required column not found: %s", req)
		}
	}
	return colIndex, nil
}

// ParsePrice converts a human price ("89,90", "R$ 1.234,56", "89.9", "120")
// to cents. The last separator followed by one or two digits is the decimal
// separator; any other separator groups thousands. Besides digits and
// separators only whitespace, currency symbols and an "R$" prefix are allowed.
func ParsePrice(s string) (int64, error) {
	rest := strings.TrimSpace(s)
	if len(rest) >= 2 && strings.EqualFold(rest[:2], "R$") {
		rest = rest[2:]
	}
	var b strings.Builder
	for _, r := range rest {
		switch {
		case r >= '0' && r <= '9', r == ',', r == '.':
			b.WriteRune(r)
		case r == '-':
			return 0, fmt.Errorf("%w: negative value %q", ErrInvalidPrice, s)
		case unicode.IsSpace(r), unicode.Is(unicode.Sc, r):
		default:
			return 0, fmt.Errorf("%w: unexpected %q in %q", ErrInvalidPrice, r, s)
		}
	}
	clean := b.String()
	if clean == "" || strings.Trim(clean, ",.") == "" {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPrice, s)
	}

	intPart, fracPart := clean, ""
	if i := strings.LastIndexAny(clean, ",."); i >= 0 {
		if tail := clean[i+1:]; len(tail) >= 1 && len(tail) <= 2 {
			intPart, fracPart = clean[:i], tail
		}
	}
	intPart = strings.NewReplacer(",", "", ".", "").Replace(intPart)
	if intPart == "" {
		intPart = "0"
	}
	for len(fracPart) < 2 {
		fracPart += "0"
	}

	units, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil || units > (math.MaxInt64-99)/100 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPrice, s)
	}
	cents, err := strconv.ParseInt(fracPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPrice, s)
	}
	return units*100 + cents, nil
}

// ParseBool accepts the usual spreadsheet spellings of yes.
func ParseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y", "sim", "s", "x":
		return true
	}
	return false
}
