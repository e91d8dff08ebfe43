package smf

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// TextEncoding selects how text meta events (track names, lyrics, markers)
// are turned into Go strings.
type TextEncoding int

const (
	// EncodingRaw keeps the bytes as they are. UTF-8 input stays UTF-8.
	EncodingRaw TextEncoding = iota
	// EncodingShiftJIS decodes the legacy Japanese code page (CP932).
	EncodingShiftJIS
	// EncodingAuto keeps valid UTF-8 and decodes anything else as Shift-JIS.
	EncodingAuto
)

func (e TextEncoding) String() string {
	switch e {
	case EncodingRaw:
		return "raw"
	case EncodingShiftJIS:
		return "sjis"
	case EncodingAuto:
		return "auto"
	default:
		return fmt.Sprintf("TextEncoding(%d)", int(e))
	}
}

// ParseTextEncoding accepts the names printed by String plus a few aliases.
func ParseTextEncoding(s string) (TextEncoding, error) {
	switch strings.ToLower(s) {
	case "", "raw", "utf8", "utf-8", "ascii":
		return EncodingRaw, nil
	case "sjis", "shift-jis", "shift_jis", "cp932":
		return EncodingShiftJIS, nil
	case "auto":
		return EncodingAuto, nil
	default:
		return EncodingRaw, fmt.Errorf("unknown text encoding: %s (must be raw, sjis, or auto)", s)
	}
}

// decode converts raw text bytes according to the encoding.
// A Shift-JIS decode failure falls back to the raw bytes.
func (e TextEncoding) decode(b []byte) string {
	switch e {
	case EncodingShiftJIS:
		return decodeShiftJIS(b)
	case EncodingAuto:
		if utf8.Valid(b) {
			return string(b)
		}
		return decodeShiftJIS(b)
	default:
		return string(b)
	}
}

func decodeShiftJIS(b []byte) string {
	out, _, err := transform.Bytes(japanese.ShiftJIS.NewDecoder(), b)
	if err != nil {
		return string(b)
	}
	return string(out)
}
