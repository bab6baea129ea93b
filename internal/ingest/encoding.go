package ingest

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// textEncoding decodes a blob to text, reporting false when the blob is not valid in that encoding.
type textEncoding struct {
	Name   string
	decode func([]byte) (string, bool)
}

// encodings are tried in order; the first that decodes and yields a table wins.
var encodings = []textEncoding{
	{Name: "utf-8", decode: decodeUTF8},
	{Name: "utf-8-sig", decode: decodeUTF8Sig},
	{Name: "latin-1", decode: decodeCharmap(charmap.ISO8859_1)},
	{Name: "windows-1252", decode: decodeCharmap(charmap.Windows1252)},
}

// delimiters are tried in order for every encoding.
var delimiters = []rune{',', ';', '\t'}

// Plain UTF-8 refuses a leading signature so it is left for utf-8-sig to strip.
func decodeUTF8(b []byte) (string, bool) {
	if !utf8.Valid(b) || bytes.HasPrefix(b, utf8BOM) {
		return "", false
	}
	return string(b), true
}

func decodeUTF8Sig(b []byte) (string, bool) {
	if !utf8.Valid(b) {
		return "", false
	}
	out, err := unicode.UTF8BOM.NewDecoder().Bytes(b)
	if err != nil {
		return "", false
	}
	return string(out), true
}

func decodeCharmap(cm *charmap.Charmap) func([]byte) (string, bool) {
	return func(b []byte) (string, bool) {
		out, err := cm.NewDecoder().Bytes(b)
		if err != nil {
			return "", false
		}
		s := string(out)
		// Bytes undefined in the code page decode to the replacement rune.
		if strings.ContainsRune(s, utf8.RuneError) {
			return "", false
		}
		return s, true
	}
}

func delimiterName(d rune) string {
	switch d {
	case ',':
		return "comma"
	case ';':
		return "semicolon"
	case '\t':
		return "tab"
	case 0:
		return "none"
	}
	return string(d)
}
